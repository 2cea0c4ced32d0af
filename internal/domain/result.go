package domain

// ResultItem is one displayable hit. Fields holds the projected value of
// every configured result field, empty string when absent.
type ResultItem struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// FacetValue is one bucket of a facet.
type FacetValue struct {
	Value    string `json:"value"`
	Count    int    `json:"count"`
	Selected bool   `json:"selected"`
}

// FacetResult holds a facet's values ordered by count descending, then value.
type FacetResult struct {
	Name   string       `json:"name"`
	Label  string       `json:"label,omitempty"`
	Values []FacetValue `json:"values"`
}

// PagingInfo is derived from the reply total and the request page size.
type PagingInfo struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
	PageSize     int `json:"page_size"`
}

// SearchResult is the bound state handed to a renderer. Error is set when
// the engine reply could not be bound; the other fields are then empty.
type SearchResult struct {
	RequestID uint64        `json:"-"`
	Results   []ResultItem  `json:"results"`
	Facets    []FacetResult `json:"facets"`
	Paging    PagingInfo    `json:"paging"`
	TookMs    int64         `json:"took_ms"`
	Error     string        `json:"error,omitempty"`
}

// EmptyResult is the state shown when binding failed.
func EmptyResult(requestID uint64, page, pageSize int, msg string) *SearchResult {
	return &SearchResult{
		RequestID: requestID,
		Results:   []ResultItem{},
		Facets:    []FacetResult{},
		Paging:    PagingInfo{CurrentPage: page, PageSize: pageSize},
		Error:     msg,
	}
}
