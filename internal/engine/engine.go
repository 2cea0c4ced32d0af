package engine

import (
	"context"
	"fmt"

	"github.com/utafrali/TranscriptSearch/internal/domain"
)

// Transport runs a built request against a search backend and returns the
// decoded reply. Failures are *TransportError.
type Transport interface {
	Search(ctx context.Context, req *domain.SearchRequest) (*domain.RawResponse, error)
}

// Indexer writes transcription records into the index.
type Indexer interface {
	// Index adds or replaces one record. An empty ID lets the backend
	// assign one, which is written back into t.
	Index(ctx context.Context, t *domain.Transcription) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// BulkIndex writes many records in one call and reports per-record failures.
	BulkIndex(ctx context.Context, records []domain.Transcription) (*domain.BulkResult, error)
}

// SearchEngine is a backend that can both search and index.
type SearchEngine interface {
	Transport
	Indexer
}

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TransportError is an opaque failure between request and decoded reply:
// connection errors, timeouts, non-2xx statuses and undecodable payloads.
type TransportError struct {
	Op     string
	Status int // HTTP status when the backend answered, else 0
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
