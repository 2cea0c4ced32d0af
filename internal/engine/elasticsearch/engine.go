package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/TranscriptSearch/internal/domain"
	"github.com/utafrali/TranscriptSearch/internal/engine"
	"github.com/utafrali/TranscriptSearch/pkg/httpclient"
	"github.com/utafrali/TranscriptSearch/pkg/tracing"
)

// Config holds connection settings for the cluster.
type Config struct {
	Addresses          []string
	Username           string
	Password           string
	Index              string
	InsecureSkipVerify bool
	Breaker            httpclient.BreakerConfig

	// Transport overrides the HTTP round tripper. Tests use it to reach a
	// fake node; when nil a pooled transport behind a circuit breaker is used.
	Transport http.RoundTripper
}

// Engine is an Elasticsearch-backed search engine.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
	tracer    trace.Tracer
}

var _ engine.SearchEngine = (*Engine)(nil)

// New creates a client for cfg. It does not contact the cluster; call
// EnsureIndex or Ping for that.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if cfg.Index == "" {
		cfg.Index = domain.IndexName
	}

	rt := cfg.Transport
	if rt == nil {
		tcfg := httpclient.DefaultTransportConfig()
		tcfg.InsecureSkipVerify = cfg.InsecureSkipVerify
		breaker := cfg.Breaker
		if breaker.Name == "" {
			breaker = httpclient.DefaultBreakerConfig("elasticsearch")
		}
		rt = httpclient.NewBreakerTransport(httpclient.NewTransport(tcfg), breaker, logger)
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		Transport:    rt,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	return &Engine{
		client:    client,
		indexName: cfg.Index,
		logger:    logger,
		tracer:    tracing.Tracer("elasticsearch"),
	}, nil
}

// IndexName returns the index this engine reads and writes.
func (e *Engine) IndexName() string { return e.indexName }

// Ping checks whether the cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (e *Engine) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.indexName}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ensure index: check exists: %w", err)
	}
	_ = res.Body.Close()

	if res.StatusCode == http.StatusOK {
		e.logger.InfoContext(ctx, "elasticsearch index already exists", slog.String("index", e.indexName))
		return nil
	}

	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch ensure index: create: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ensure index: create: %w", decodeError(res.Body))
	}

	e.logger.InfoContext(ctx, "elasticsearch index created", slog.String("index", e.indexName))
	return nil
}

// Search runs req and decodes the reply. Every failure is an *engine.TransportError.
func (e *Engine) Search(ctx context.Context, req *domain.SearchRequest) (*domain.RawResponse, error) {
	const op = "elasticsearch search"

	ctx, span := e.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("search.mode", string(req.Mode)),
		attribute.Int("search.page", req.Page),
		attribute.Int64("search.request_id", int64(req.ID)),
	))
	defer span.End()

	raw, err := e.search(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return raw, nil
}

func (e *Engine) search(ctx context.Context, req *domain.SearchRequest) (*domain.RawResponse, error) {
	const op = "elasticsearch search"

	index := req.Index
	if index == "" {
		index = e.indexName
	}

	data, err := json.Marshal(buildSearchQuery(req))
	if err != nil {
		return nil, &engine.TransportError{Op: op, Err: fmt.Errorf("marshal query: %w", err)}
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(index),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, &engine.TransportError{Op: op, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, &engine.TransportError{Op: op, Status: res.StatusCode, Err: decodeError(res.Body)}
	}

	raw, err := decodeSearchResponse(res.Body)
	if err != nil {
		return nil, &engine.TransportError{Op: op, Status: res.StatusCode, Err: err}
	}

	e.logger.DebugContext(ctx, "search executed",
		slog.Uint64("request_id", req.ID),
		slog.String("mode", string(req.Mode)),
		slog.Int("hits", len(raw.Hits)),
		slog.Int64("took_ms", raw.TookMs),
	)
	return raw, nil
}

// Index adds or replaces one record. When t.ID is empty the cluster assigns
// an ID, which is written back into t.
func (e *Engine) Index(ctx context.Context, t *domain.Transcription) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal record: %w", err)
	}

	opts := []func(*esapi.IndexRequest){
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	}
	if t.ID != "" {
		opts = append(opts, e.client.Index.WithDocumentID(t.ID))
	}

	res, err := e.client.Index(e.indexName, bytes.NewReader(data), opts...)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch index: %w", decodeError(res.Body))
	}

	var idx esIndexResponse
	if err := json.NewDecoder(res.Body).Decode(&idx); err != nil {
		return fmt.Errorf("elasticsearch index: decode response: %w", err)
	}
	t.ID = idx.ID

	e.logger.DebugContext(ctx, "indexed transcription", slog.String("id", t.ID), slog.String("result", idx.Result))
	return nil
}

// Delete removes one record. A 404 is not an error.
func (e *Engine) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(
		e.indexName,
		id,
		e.client.Delete.WithRefresh("true"),
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch delete: %w", decodeError(res.Body))
	}

	e.logger.DebugContext(ctx, "deleted transcription", slog.String("id", id))
	return nil
}

// BulkIndex writes records through the bulk NDJSON API. Per-record failures
// are reported in the result; only a failed call as a whole returns an error.
func (e *Engine) BulkIndex(ctx context.Context, records []domain.Transcription) (*domain.BulkResult, error) {
	result := &domain.BulkResult{}
	if len(records) == 0 {
		return result, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range records {
		meta := map[string]interface{}{"_index": e.indexName}
		if records[i].ID != "" {
			meta["_id"] = records[i].ID
		}
		if err := enc.Encode(map[string]interface{}{"index": meta}); err != nil {
			return nil, fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		if err := enc.Encode(records[i]); err != nil {
			return nil, fmt.Errorf("elasticsearch bulk index: encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithRefresh("true"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch bulk index: %w", decodeError(res.Body))
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return nil, fmt.Errorf("elasticsearch bulk index: decode response: %w", err)
	}

	for i, item := range bulkResp.Items {
		action, ok := item["index"]
		if !ok {
			continue
		}
		if action.Error != nil {
			if result.Errors == nil {
				result.Errors = make(map[string]string)
			}
			key := action.ID
			if key == "" {
				key = fmt.Sprintf("#%d", i)
			}
			result.Errors[key] = action.Error.Type + ": " + action.Error.Reason
			result.Failed++
			continue
		}
		if i < len(records) {
			records[i].ID = action.ID
		}
		result.Indexed++
	}

	e.logger.InfoContext(ctx, "bulk indexed transcriptions",
		slog.Int("indexed", result.Indexed),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

// DeleteIndex removes the whole index. A missing index is not an error.
func (e *Engine) DeleteIndex(ctx context.Context) error {
	res, err := e.client.Indices.Delete(
		[]string{e.indexName},
		e.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch delete index: %w", decodeError(res.Body))
	}

	e.logger.InfoContext(ctx, "elasticsearch index deleted", slog.String("index", e.indexName))
	return nil
}
