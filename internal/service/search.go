package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/utafrali/TranscriptSearch/internal/binder"
	"github.com/utafrali/TranscriptSearch/internal/domain"
	"github.com/utafrali/TranscriptSearch/internal/engine"
	"github.com/utafrali/TranscriptSearch/internal/query"
	"github.com/utafrali/TranscriptSearch/internal/request"
	apperrors "github.com/utafrali/TranscriptSearch/pkg/errors"
	"github.com/utafrali/TranscriptSearch/pkg/tracing"
)

var searchRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cvsearch_search_requests_total",
		Help: "Search and suggestion requests by outcome",
	},
	[]string{"kind", "outcome"},
)

// SearchService runs the build, transport and bind cycle for stateless
// callers and manages the records behind the index.
type SearchService struct {
	transport engine.Transport
	indexer   engine.Indexer
	cfg       domain.StaticConfig
	logger    *slog.Logger
}

// NewSearchService creates a new search service. transport may be a
// decorated view of the same backend indexer writes to.
func NewSearchService(transport engine.Transport, indexer engine.Indexer, cfg domain.StaticConfig, logger *slog.Logger) *SearchService {
	return &SearchService{
		transport: transport,
		indexer:   indexer,
		cfg:       cfg,
		logger:    logger,
	}
}

// Config returns the static configuration requests are built with.
func (s *SearchService) Config() domain.StaticConfig { return s.cfg }

// NewQueryState returns an empty query state for the configured facets.
func (s *SearchService) NewQueryState() *query.State {
	return query.New(s.cfg.FacetNames(), s.cfg.DefaultPageSize)
}

// Search builds a request from state, runs it and binds the reply. A reply
// that cannot be bound yields an empty result with its Error set rather than
// an error; transport failures are returned as SEARCH_FAILED.
func (s *SearchService) Search(ctx context.Context, state *query.State) (*domain.SearchResult, error) {
	ctx, span := tracing.Tracer("service").Start(ctx, "SearchService.Search")
	defer span.End()

	req := request.Build(state, s.cfg)
	span.SetAttributes(
		attribute.String("search.term", req.Term),
		attribute.Int("search.page", req.Page),
		attribute.Int("search.filters", len(req.Filters)),
	)

	raw, err := s.transport.Search(ctx, req)
	if err != nil {
		searchRequests.WithLabelValues("search", "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failed")
		return nil, s.transportFailure(ctx, "search", err)
	}

	result, err := binder.Bind(raw, req)
	if err != nil {
		searchRequests.WithLabelValues("search", "malformed").Inc()
		span.RecordError(err)
		s.logger.WarnContext(ctx, "search reply could not be bound",
			slog.String("term", req.Term),
			slog.String("error", err.Error()),
		)
		return domain.EmptyResult(req.ID, req.Page, req.PageSize, err.Error()), nil
	}

	searchRequests.WithLabelValues("search", "ok").Inc()
	s.logger.DebugContext(ctx, "search executed",
		slog.String("term", req.Term),
		slog.Int("total", result.Paging.TotalResults),
		slog.Int64("took_ms", result.TookMs),
	)
	return result, nil
}

// Suggest returns autocomplete suggestions for a partial term. Blank input
// returns no suggestions without calling the transport.
func (s *SearchService) Suggest(ctx context.Context, partial string) ([]domain.ResultItem, error) {
	req, err := request.BuildAutocomplete(partial, s.cfg)
	if errors.Is(err, request.ErrEmptyTerm) {
		return []domain.ResultItem{}, nil
	}
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.Tracer("service").Start(ctx, "SearchService.Suggest")
	defer span.End()
	span.SetAttributes(attribute.String("search.term", req.Term))

	raw, err := s.transport.Search(ctx, req)
	if err != nil {
		searchRequests.WithLabelValues("suggest", "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failed")
		return nil, s.transportFailure(ctx, "suggest", err)
	}

	result, err := binder.Bind(raw, req)
	if err != nil {
		searchRequests.WithLabelValues("suggest", "malformed").Inc()
		s.logger.WarnContext(ctx, "suggestion reply could not be bound", slog.String("error", err.Error()))
		return []domain.ResultItem{}, nil
	}

	searchRequests.WithLabelValues("suggest", "ok").Inc()
	return result.Results, nil
}

// TranscriptionInput holds the parameters for indexing a transcription.
type TranscriptionInput struct {
	ID            string   `json:"id" validate:"omitempty,max=512"`
	GeneratedText string   `json:"generated_text" validate:"max=10000"`
	Duration      *float64 `json:"duration" validate:"omitempty,gte=0"`
	Age           *string  `json:"age" validate:"omitempty,max=64"`
	Gender        *string  `json:"gender" validate:"omitempty,max=64"`
	Accent        *string  `json:"accent" validate:"omitempty,max=128"`
}

func (in *TranscriptionInput) toDomain() domain.Transcription {
	t := domain.Transcription{
		ID:            in.ID,
		GeneratedText: in.GeneratedText,
		Duration:      in.Duration,
		Age:           in.Age,
		Gender:        in.Gender,
		Accent:        in.Accent,
	}
	t.Normalize()
	return t
}

// Index adds or replaces one record and returns it with its assigned ID.
func (s *SearchService) Index(ctx context.Context, input *TranscriptionInput) (*domain.Transcription, error) {
	t := input.toDomain()
	if err := s.indexer.Index(ctx, &t); err != nil {
		return nil, s.transportFailure(ctx, "index transcription", err)
	}

	s.logger.InfoContext(ctx, "transcription indexed", slog.String("transcription_id", t.ID))
	return &t, nil
}

// Delete removes a record from the index.
func (s *SearchService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("delete transcription: id is required")
	}

	if err := s.indexer.Delete(ctx, id); err != nil {
		return s.transportFailure(ctx, "delete transcription", err)
	}

	s.logger.InfoContext(ctx, "transcription deleted from index", slog.String("transcription_id", id))
	return nil
}

// BulkIndex writes many records in one call.
func (s *SearchService) BulkIndex(ctx context.Context, inputs []TranscriptionInput) (*domain.BulkResult, error) {
	records := make([]domain.Transcription, 0, len(inputs))
	for i := range inputs {
		records = append(records, inputs[i].toDomain())
	}
	return s.BulkIndexRecords(ctx, records)
}

// BulkIndexRecords writes already-normalized records in one call.
func (s *SearchService) BulkIndexRecords(ctx context.Context, records []domain.Transcription) (*domain.BulkResult, error) {
	if len(records) == 0 {
		return &domain.BulkResult{}, nil
	}

	res, err := s.indexer.BulkIndex(ctx, records)
	if err != nil {
		return nil, s.transportFailure(ctx, "bulk index", err)
	}

	s.logger.InfoContext(ctx, "bulk index completed",
		slog.Int("indexed", res.Indexed),
		slog.Int("failed", res.Failed),
	)
	return res, nil
}

func (s *SearchService) transportFailure(ctx context.Context, op string, err error) error {
	var te *engine.TransportError
	if errors.As(err, &te) {
		s.logger.ErrorContext(ctx, op+" failed",
			slog.String("op", te.Op),
			slog.Int("status", te.Status),
			slog.String("error", te.Error()),
		)
		return apperrors.SearchFailed(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
