// Package request maps query state onto engine-neutral search requests.
// Nothing here performs I/O.
package request

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/utafrali/TranscriptSearch/internal/domain"
	"github.com/utafrali/TranscriptSearch/internal/query"
)

// ErrEmptyTerm is returned by BuildAutocomplete for blank input. Callers
// treat it as "no suggestion request", not as a failure.
var ErrEmptyTerm = errors.New("autocomplete term is empty")

// Build maps the state onto a full search request. Facets with no selected
// values contribute no filter; an empty term with no selections yields a
// match-all request. A page past the configured result window is clamped to
// the last reachable page. The returned request has ID 0; callers that track
// staleness assign one.
func Build(state *query.State, cfg domain.StaticConfig) *domain.SearchRequest {
	facets := make([]domain.FacetRequest, 0, len(cfg.Facets))
	filters := make(map[string][]string)
	for _, f := range cfg.Facets {
		facets = append(facets, domain.FacetRequest{Name: f.Name, Field: f.Field, Size: f.Size})
		if selected := state.Selected(f.Name); len(selected) > 0 {
			filters[f.Name] = selected
		}
	}

	maxPage := cfg.MaxPage(state.PageSize())
	page := min(state.Page(), maxPage)

	return &domain.SearchRequest{
		Index:         cfg.Index,
		Mode:          domain.ModeSearch,
		Term:          state.Term(),
		SearchFields:  slices.Clone(cfg.SearchFields),
		ResultFields:  maps.Clone(cfg.ResultFields),
		FacetRequests: facets,
		Filters:       filters,
		Page:          page,
		PageSize:      state.PageSize(),
		MaxPage:       maxPage,
	}
}

// BuildAutocomplete maps partially typed text onto a suggestion request:
// the narrower autocomplete projection, no facets or filters, first page
// only.
func BuildAutocomplete(partial string, cfg domain.StaticConfig) (*domain.SearchRequest, error) {
	term := strings.TrimSpace(partial)
	if term == "" {
		return nil, ErrEmptyTerm
	}

	return &domain.SearchRequest{
		Index:         cfg.Index,
		Mode:          domain.ModeAutocomplete,
		Term:          term,
		SearchFields:  slices.Clone(cfg.SearchFields),
		ResultFields:  maps.Clone(cfg.AutocompleteFields),
		FacetRequests: []domain.FacetRequest{},
		Filters:       map[string][]string{},
		Page:          1,
		PageSize:      cfg.AutocompleteSize,
	}, nil
}
