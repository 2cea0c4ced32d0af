package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/utafrali/TranscriptSearch/internal/domain"
)

// DefaultBatchSize is the number of records sent per bulk call.
const DefaultBatchSize = 500

// Sink receives batches of records.
type Sink interface {
	Write(ctx context.Context, batch []domain.Transcription) (*domain.BulkResult, error)
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(ctx context.Context, batch []domain.Transcription) (*domain.BulkResult, error)

// Write calls f.
func (f SinkFunc) Write(ctx context.Context, batch []domain.Transcription) (*domain.BulkResult, error) {
	return f(ctx, batch)
}

// Stats totals a run.
type Stats struct {
	Read    int `json:"read"`
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
	Batches int `json:"batches"`
}

// Ingester streams a CSV into a sink in fixed-size batches.
type Ingester struct {
	sink      Sink
	batchSize int
	logger    *slog.Logger
}

// NewIngester creates an ingester. A non-positive batchSize uses DefaultBatchSize.
func NewIngester(sink Sink, batchSize int, logger *slog.Logger) *Ingester {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Ingester{sink: sink, batchSize: batchSize, logger: logger}
}

// Run reads every record from r. A malformed row stops the run; per-record
// failures reported by the sink are counted and logged.
func (in *Ingester) Run(ctx context.Context, r io.Reader) (Stats, error) {
	var stats Stats

	reader, err := NewReader(r)
	if err != nil {
		return stats, err
	}

	batch := make([]domain.Transcription, 0, in.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		res, err := in.sink.Write(ctx, batch)
		if err != nil {
			return fmt.Errorf("ingest: write batch ending at line %d: %w", reader.Line(), err)
		}
		stats.Batches++
		stats.Indexed += res.Indexed
		stats.Failed += res.Failed
		for id, reason := range res.Errors {
			in.logger.WarnContext(ctx, "record not indexed",
				slog.String("transcription_id", id),
				slog.String("reason", reason),
			)
		}
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		t, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
		stats.Read++
		batch = append(batch, t)

		if len(batch) >= in.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}

	if err := flush(); err != nil {
		return stats, err
	}

	in.logger.InfoContext(ctx, "ingest completed",
		slog.Int("read", stats.Read),
		slog.Int("indexed", stats.Indexed),
		slog.Int("failed", stats.Failed),
		slog.Int("batches", stats.Batches),
	)
	return stats, nil
}

// Publisher is satisfied by *event.Publisher.
type Publisher interface {
	PublishCreated(ctx context.Context, t domain.Transcription) error
}

// PublishSink emits one created event per record instead of writing to the
// index. A failed publish counts as a failed record.
func PublishSink(p Publisher) Sink {
	return SinkFunc(func(ctx context.Context, batch []domain.Transcription) (*domain.BulkResult, error) {
		res := &domain.BulkResult{}
		for _, t := range batch {
			if err := p.PublishCreated(ctx, t); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil, err
				}
				res.Failed++
				if res.Errors == nil {
					res.Errors = make(map[string]string)
				}
				res.Errors[t.ID] = err.Error()
				continue
			}
			res.Indexed++
		}
		return res, nil
	})
}
