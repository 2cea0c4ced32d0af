package domain

// Mode distinguishes a full search from a suggestion lookup.
type Mode string

const (
	ModeSearch       Mode = "search"
	ModeAutocomplete Mode = "autocomplete"
)

// FacetRequest asks the engine to aggregate one facet. It carries the
// aggregation rule so the transport never has to look it up.
type FacetRequest struct {
	Name  string `json:"name"`
	Field string `json:"field"`
	Size  int    `json:"size"`
}

// SearchRequest is everything a transport needs to run one query and
// everything the binder needs to project its reply. Filters is keyed by
// facet name; each value list is sorted and non-empty.
type SearchRequest struct {
	ID            uint64               `json:"id"`
	Index         string               `json:"index"`
	Mode          Mode                 `json:"mode"`
	Term          string               `json:"term"`
	SearchFields  []string             `json:"search_fields"`
	ResultFields  map[string]FieldRule `json:"result_fields"`
	FacetRequests []FacetRequest       `json:"facet_requests"`
	Filters       map[string][]string  `json:"filters"`
	Page          int                  `json:"page"`
	PageSize      int                  `json:"page_size"`
	// MaxPage is the last page reachable inside the result window; 0 means
	// unbounded.
	MaxPage int `json:"max_page,omitempty"`
}

// IsMatchAll reports whether the request neither scores nor filters.
func (r *SearchRequest) IsMatchAll() bool {
	return r.Term == "" && len(r.Filters) == 0
}

// FacetField returns the engine field for a facet name used in Filters.
func (r *SearchRequest) FacetField(name string) (string, bool) {
	for _, f := range r.FacetRequests {
		if f.Name == name {
			return f.Field, true
		}
	}
	return "", false
}

// RawHit is one hit as deserialized from the engine.
type RawHit struct {
	ID        string              `json:"id"`
	Score     float64             `json:"score"`
	Source    map[string]any      `json:"source"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// RawBucket is one aggregation bucket.
type RawBucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// RawResponse is an engine reply after wire decoding and before binding.
// Total is nil when the engine did not report a hit count.
type RawResponse struct {
	TookMs       int64                  `json:"took_ms"`
	Total        *int                   `json:"total"`
	Hits         []RawHit               `json:"hits"`
	Aggregations map[string][]RawBucket `json:"aggregations"`
}
