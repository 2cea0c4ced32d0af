package elasticsearch

import (
	"sort"

	"github.com/utafrali/TranscriptSearch/internal/domain"
	"github.com/utafrali/TranscriptSearch/pkg/pagination"
)

// buildSearchQuery translates a request into the Elasticsearch query DSL.
// Values selected within one facet are OR-ed through a terms filter; facets
// are AND-ed. Aggregations run over the filtered hit set.
func buildSearchQuery(req *domain.SearchRequest) map[string]interface{} {
	var mustClause interface{}
	switch {
	case req.Term == "":
		mustClause = map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	case req.Mode == domain.ModeAutocomplete:
		mustClause = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  req.Term,
				"fields": req.SearchFields,
				"type":   "phrase_prefix",
			},
		}
	default:
		mustClause = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":         req.Term,
				"fields":        req.SearchFields,
				"type":          "best_fields",
				"fuzziness":     "AUTO",
				"prefix_length": 1,
			},
		}
	}

	boolQuery := map[string]interface{}{
		"must": []interface{}{mustClause},
	}
	if filters := buildFilters(req); len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
		"_source":          sourceFields(req.ResultFields),
		"from":             pagination.Offset(req.Page, req.PageSize),
		"size":             req.PageSize,
		"track_total_hits": true,
	}

	if hl := buildHighlight(req.ResultFields); hl != nil {
		esQuery["highlight"] = hl
	}
	if aggs := buildAggregations(req.FacetRequests); len(aggs) > 0 {
		esQuery["aggs"] = aggs
	}

	return esQuery
}

func buildFilters(req *domain.SearchRequest) []interface{} {
	var filters []interface{}
	for _, fr := range req.FacetRequests {
		values := req.Filters[fr.Name]
		if len(values) == 0 {
			continue
		}
		filters = append(filters, map[string]interface{}{
			"terms": map[string]interface{}{
				fr.Field: values,
			},
		})
	}
	return filters
}

func sourceFields(rules map[string]domain.FieldRule) []string {
	fields := make([]string, 0, len(rules))
	for name := range rules {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

func buildHighlight(rules map[string]domain.FieldRule) map[string]interface{} {
	fields := map[string]interface{}{}
	for name, rule := range rules {
		if rule.Snippet == nil {
			continue
		}
		fields[name] = map[string]interface{}{
			"fragment_size":       rule.Snippet.Size,
			"number_of_fragments": 1,
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return map[string]interface{}{
		"pre_tags":  []string{"<em>"},
		"post_tags": []string{"</em>"},
		"fields":    fields,
	}
}

func buildAggregations(facets []domain.FacetRequest) map[string]interface{} {
	aggs := make(map[string]interface{}, len(facets))
	for _, fr := range facets {
		aggs[fr.Name] = map[string]interface{}{
			"terms": map[string]interface{}{
				"field": fr.Field,
				"size":  fr.Size,
			},
		}
	}
	return aggs
}
