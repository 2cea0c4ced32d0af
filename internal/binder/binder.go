// Package binder turns decoded engine replies into renderer-ready results.
package binder

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cast"

	"github.com/utafrali/TranscriptSearch/internal/domain"
	"github.com/utafrali/TranscriptSearch/pkg/pagination"
)

// ErrMalformedResponse is matched by every *MalformedResponseError.
var ErrMalformedResponse = errors.New("malformed search response")

// MalformedResponseError reports a required piece missing from an otherwise
// successful reply.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed search response: " + e.Reason
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

func malformed(format string, args ...any) error {
	return &MalformedResponseError{Reason: fmt.Sprintf(format, args...)}
}

// Bind projects raw against the rules carried by req. Facets come back in
// req's facet order with buckets sorted by count descending, then value
// ascending. Values selected in req's filters are marked.
func Bind(raw *domain.RawResponse, req *domain.SearchRequest) (*domain.SearchResult, error) {
	if raw == nil {
		return nil, malformed("no response")
	}
	if raw.Total == nil {
		return nil, malformed("total hit count missing")
	}

	results := make([]domain.ResultItem, 0, len(raw.Hits))
	for i, hit := range raw.Hits {
		if hit.ID == "" {
			return nil, malformed("hit %d has no id", i)
		}
		results = append(results, domain.ResultItem{
			ID:     hit.ID,
			Fields: project(hit, req.ResultFields),
		})
	}

	facets := make([]domain.FacetResult, 0, len(req.FacetRequests))
	for _, fr := range req.FacetRequests {
		buckets, ok := raw.Aggregations[fr.Name]
		if !ok {
			return nil, malformed("aggregation %q missing", fr.Name)
		}
		facets = append(facets, bindFacet(fr.Name, buckets, req.Filters[fr.Name]))
	}

	total := *raw.Total
	totalPages := pagination.TotalPages(total, req.PageSize)
	if req.MaxPage > 0 && totalPages > req.MaxPage {
		totalPages = req.MaxPage
	}
	return &domain.SearchResult{
		RequestID: req.ID,
		Results:   results,
		Facets:    facets,
		Paging: domain.PagingInfo{
			CurrentPage:  req.Page,
			TotalPages:   totalPages,
			TotalResults: total,
			PageSize:     req.PageSize,
		},
		TookMs: raw.TookMs,
	}, nil
}

func project(hit domain.RawHit, rules map[string]domain.FieldRule) map[string]string {
	fields := make(map[string]string, len(rules))
	for name, rule := range rules {
		rawValue := displayString(hit.Source[name])

		if rule.Snippet == nil {
			fields[name] = rawValue
			continue
		}

		switch fragment := firstFragment(hit.Highlight[name]); {
		case fragment != "":
			fields[name] = fragment
		case rule.Snippet.Fallback:
			fields[name] = truncate(rawValue, rule.Snippet.Size)
		default:
			fields[name] = ""
		}
	}
	return fields
}

func firstFragment(fragments []string) string {
	for _, f := range fragments {
		if f != "" {
			return f
		}
	}
	return ""
}

// truncate cuts s to at most size runes.
func truncate(s string, size int) string {
	if size <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= size {
		return s
	}
	return string(r[:size])
}

// displayString renders a decoded JSON scalar. Null and non-scalars render empty.
func displayString(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

func bindFacet(name string, buckets []domain.RawBucket, selected []string) domain.FacetResult {
	isSelected := make(map[string]bool, len(selected))
	for _, v := range selected {
		isSelected[v] = true
	}

	values := make([]domain.FacetValue, 0, len(buckets))
	for _, b := range buckets {
		values = append(values, domain.FacetValue{Value: b.Key, Count: b.Count, Selected: isSelected[b.Key]})
	}
	sort.Slice(values, func(i, j int) bool {
		if values[i].Count != values[j].Count {
			return values[i].Count > values[j].Count
		}
		return values[i].Value < values[j].Value
	})

	return domain.FacetResult{Name: name, Values: values}
}
