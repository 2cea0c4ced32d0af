package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/utafrali/TranscriptSearch/internal/query"
	"github.com/utafrali/TranscriptSearch/internal/service"
	"github.com/utafrali/TranscriptSearch/pkg/httputil"
	"github.com/utafrali/TranscriptSearch/pkg/pagination"
)

// SearchHandler handles HTTP requests for search endpoints.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// Search handles GET /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	state, err := h.stateFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Search(r.Context(), state)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// stateFromRequest replays the query string onto a fresh query state in the
// order a user would: term, facet selections, page size, then page. A page
// that is missing, unparseable or below 1 stays at 1.
func (h *SearchHandler) stateFromRequest(r *http.Request) (*query.State, error) {
	cfg := h.service.Config()
	q := r.URL.Query()
	state := h.service.NewQueryState()

	state.SetTerm(q.Get("q"))

	for _, facet := range cfg.FacetNames() {
		seen := make(map[string]struct{})
		for _, v := range q[facet] {
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			if err := state.ToggleFacetValue(facet, v); err != nil {
				return nil, err
			}
		}
	}

	p := pagination.FromRequest(r, cfg.DefaultPageSize, cfg.MaxPageSize)
	if err := state.SetPageSize(p.PerPage); err != nil {
		return nil, err
	}

	if v := q.Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil {
			if err := state.SetPage(page); err != nil && !query.IsInvalidPage(err) {
				return nil, err
			}
		}
	}
	return state, nil
}

// Suggest handles GET /api/v1/search/suggest
func (h *SearchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.service.Suggest(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"suggestions": suggestions}})
}

// Config handles GET /api/v1/search/config
func (h *SearchHandler) Config(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.service.Config()})
}
