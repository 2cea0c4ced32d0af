// Package session is the view model a renderer drives: it owns the query
// state, stamps every outgoing request with an increasing ID, and applies
// only the replies to the most recently issued request.
package session

import (
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/TranscriptSearch/internal/binder"
	"github.com/utafrali/TranscriptSearch/internal/domain"
	"github.com/utafrali/TranscriptSearch/internal/query"
	"github.com/utafrali/TranscriptSearch/internal/request"
)

var staleResponses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cvsearch_stale_responses_total",
		Help: "Search replies discarded because a newer request superseded them",
	},
	[]string{"kind"},
)

// Status describes the outcome of the latest applied search.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "search failed"
	default:
		return "idle"
	}
}

// Session is not safe for concurrent use. It is owned by one event loop;
// transport calls run elsewhere and report back through Apply and Fail on
// that loop.
type Session struct {
	cfg    domain.StaticConfig
	state  *query.State
	logger *slog.Logger

	searchSeq    uint64
	latestSearch uint64
	result       *domain.SearchResult
	status       Status
	err          error

	suggestSeq    uint64
	latestSuggest uint64
	suggestions   []domain.ResultItem
}

// New returns a session with an empty query.
func New(cfg domain.StaticConfig, logger *slog.Logger) *Session {
	return &Session{
		cfg:    cfg,
		state:  query.New(cfg.FacetNames(), cfg.DefaultPageSize),
		logger: logger,
	}
}

// State exposes the query state for mutation. Call Issue afterwards.
func (s *Session) State() *query.State { return s.state }

// Config returns the static configuration the session binds with.
func (s *Session) Config() domain.StaticConfig { return s.cfg }

// Result returns the last applied result, or nil before the first reply.
func (s *Session) Result() *domain.SearchResult { return s.result }

// Status returns the state of the latest full search.
func (s *Session) Status() Status { return s.status }

// Err returns the failure behind StatusFailed, or the bind error behind a
// result carrying an error flag.
func (s *Session) Err() error { return s.err }

// Suggestions returns the suggestions for the latest autocomplete request.
func (s *Session) Suggestions() []domain.ResultItem { return s.suggestions }

// Issue builds a search request from the current state and makes it the one
// whose reply will be applied. Replies to earlier requests become stale.
func (s *Session) Issue() *domain.SearchRequest {
	req := request.Build(s.state, s.cfg)
	s.searchSeq++
	req.ID = s.searchSeq
	s.latestSearch = req.ID
	s.status = StatusLoading
	return req
}

// IsLatest reports whether id belongs to the most recently issued search.
func (s *Session) IsLatest(id uint64) bool {
	return id != 0 && id == s.latestSearch
}

// Apply binds raw into the current result when req is still the latest
// search and reports whether it was applied. A reply that cannot be bound
// becomes an empty result with its error flag set.
func (s *Session) Apply(req *domain.SearchRequest, raw *domain.RawResponse) bool {
	if !s.IsLatest(req.ID) {
		s.dropStale("search", req.ID)
		return false
	}

	res, err := binder.Bind(raw, req)
	if err != nil {
		s.logger.Warn("search response could not be bound",
			slog.Uint64("request_id", req.ID),
			slog.String("error", err.Error()),
		)
		res = domain.EmptyResult(req.ID, req.Page, req.PageSize, err.Error())
		s.err = err
	} else {
		s.err = nil
	}

	s.result = res
	s.status = StatusReady
	return true
}

// Fail records a transport failure for req when it is still the latest
// search. The previous result is replaced with an empty one.
func (s *Session) Fail(req *domain.SearchRequest, err error) bool {
	if !s.IsLatest(req.ID) {
		s.dropStale("search", req.ID)
		return false
	}

	s.logger.Warn("search failed",
		slog.Uint64("request_id", req.ID),
		slog.String("error", err.Error()),
	)
	s.result = domain.EmptyResult(req.ID, req.Page, req.PageSize, StatusFailed.String())
	s.status = StatusFailed
	s.err = err
	return true
}

// Suggest builds an autocomplete request for partial. Blank input clears the
// suggestions and supersedes any request in flight; ok is then false and no
// request should be sent.
func (s *Session) Suggest(partial string) (req *domain.SearchRequest, ok bool) {
	s.suggestSeq++
	s.latestSuggest = s.suggestSeq

	req, err := request.BuildAutocomplete(partial, s.cfg)
	if errors.Is(err, request.ErrEmptyTerm) {
		s.suggestions = nil
		return nil, false
	}
	req.ID = s.suggestSeq
	return req, true
}

// ApplySuggestions stores the suggestions from raw when req is the latest
// autocomplete request. Unbindable or failed replies clear the list.
func (s *Session) ApplySuggestions(req *domain.SearchRequest, raw *domain.RawResponse) bool {
	if req.ID != s.latestSuggest {
		s.dropStale("autocomplete", req.ID)
		return false
	}

	res, err := binder.Bind(raw, req)
	if err != nil {
		s.logger.Debug("suggestions could not be bound", slog.String("error", err.Error()))
		s.suggestions = nil
		return true
	}
	s.suggestions = res.Results
	return true
}

// ClearSuggestions drops current suggestions and supersedes any in flight.
func (s *Session) ClearSuggestions() {
	s.suggestSeq++
	s.latestSuggest = s.suggestSeq
	s.suggestions = nil
}

func (s *Session) dropStale(kind string, id uint64) {
	staleResponses.WithLabelValues(kind).Inc()
	s.logger.Debug("discarding stale response",
		slog.String("kind", kind),
		slog.Uint64("request_id", id),
	)
}
