// Package query holds the user's search interaction state.
package query

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/utafrali/TranscriptSearch/pkg/errors"
)

// ErrUnknownFacet is returned when a filter names a facet that is not configured.
var ErrUnknownFacet = fmt.Errorf("unknown facet: %w", apperrors.ErrInvalidInput)

// InvalidPageError reports a page or page size below 1. The state is left
// unchanged when it is returned.
type InvalidPageError struct {
	Field string
	Value int
}

func (e *InvalidPageError) Error() string {
	return fmt.Sprintf("invalid %s %d: must be at least 1", e.Field, e.Value)
}

func (e *InvalidPageError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// IsInvalidPage reports whether err is an *InvalidPageError.
func IsInvalidPage(err error) bool {
	var target *InvalidPageError
	return errors.As(err, &target)
}

// State is the term, facet selections and page of one search session. The
// zero value is not usable; create one with New. A State is not safe for
// concurrent mutation; it belongs to a single event loop or request.
type State struct {
	term     string
	filters  map[string][]string
	page     int
	pageSize int
	facets   map[string]struct{}
}

// New returns an empty state on page 1 accepting filters for facets.
func New(facets []string, pageSize int) *State {
	if pageSize < 1 {
		pageSize = 1
	}
	allowed := make(map[string]struct{}, len(facets))
	for _, f := range facets {
		allowed[f] = struct{}{}
	}
	return &State{
		filters:  make(map[string][]string),
		page:     1,
		pageSize: pageSize,
		facets:   allowed,
	}
}

// Term returns the current search text.
func (s *State) Term() string { return s.term }

// Page returns the current 1-based page.
func (s *State) Page() int { return s.page }

// PageSize returns the number of results per page.
func (s *State) PageSize() int { return s.pageSize }

// SetTerm replaces the search text and returns to page 1.
func (s *State) SetTerm(text string) {
	s.term = strings.TrimSpace(text)
	s.page = 1
}

// ToggleFacetValue adds value to the facet's selection, or removes it when
// already selected, and returns to page 1. Toggling twice restores the
// original selection and term; the page stays 1, so the whole state equals
// the original only when it started on page 1.
func (s *State) ToggleFacetValue(facet, value string) error {
	if _, ok := s.facets[facet]; !ok {
		return fmt.Errorf("toggle %q: %w", facet, ErrUnknownFacet)
	}

	values := s.filters[facet]
	if i, found := slices.BinarySearch(values, value); found {
		values = slices.Delete(values, i, i+1)
	} else {
		values = slices.Insert(values, i, value)
	}

	if len(values) == 0 {
		delete(s.filters, facet)
	} else {
		s.filters[facet] = values
	}
	s.page = 1
	return nil
}

// SetPage moves to page n. It is the only mutation that keeps the selection
// and term and does not reset the page.
func (s *State) SetPage(n int) error {
	if n < 1 {
		return &InvalidPageError{Field: "page", Value: n}
	}
	s.page = n
	return nil
}

// SetPageSize changes the number of results per page and returns to page 1.
func (s *State) SetPageSize(n int) error {
	if n < 1 {
		return &InvalidPageError{Field: "page size", Value: n}
	}
	s.pageSize = n
	s.page = 1
	return nil
}

// Reset clears the term and every selection and returns to page 1. The page
// size is kept.
func (s *State) Reset() {
	s.term = ""
	s.filters = make(map[string][]string)
	s.page = 1
}

// Selected returns a copy of the sorted values selected for facet.
func (s *State) Selected(facet string) []string {
	return slices.Clone(s.filters[facet])
}

// IsSelected reports whether value is selected for facet.
func (s *State) IsSelected(facet, value string) bool {
	_, found := slices.BinarySearch(s.filters[facet], value)
	return found
}

// Filters returns a deep copy of the non-empty selections keyed by facet.
func (s *State) Filters() map[string][]string {
	out := make(map[string][]string, len(s.filters))
	for k, v := range s.filters {
		out[k] = slices.Clone(v)
	}
	return out
}

// Clone returns an independent copy of s.
func (s *State) Clone() *State {
	c := *s
	c.filters = s.Filters()
	return &c
}

// Equal reports whether two states hold the same term, selections and page.
func (s *State) Equal(o *State) bool {
	if s.term != o.term || s.page != o.page || s.pageSize != o.pageSize || len(s.filters) != len(o.filters) {
		return false
	}
	for k, v := range s.filters {
		if !slices.Equal(v, o.filters[k]) {
			return false
		}
	}
	return true
}
