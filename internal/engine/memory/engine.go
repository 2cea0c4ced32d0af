package memory

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/TranscriptSearch/internal/domain"
	"github.com/utafrali/TranscriptSearch/internal/engine"
	"github.com/utafrali/TranscriptSearch/pkg/pagination"
)

// Engine is an in-memory search engine. It matches case-insensitive
// substrings, highlights matches with <em>, aggregates facets over the
// filtered set and orders hits by ID. Thread-safe via sync.RWMutex.
type Engine struct {
	mu      sync.RWMutex
	records map[string]domain.Transcription

	// FailWith, when set, makes Search return it wrapped in a TransportError.
	FailWith error
}

var _ engine.SearchEngine = (*Engine)(nil)

// New creates an empty engine.
func New() *Engine {
	return &Engine{records: make(map[string]domain.Transcription)}
}

// Ping always succeeds.
func (e *Engine) Ping(context.Context) error { return nil }

// Len returns the number of stored records.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.records)
}

// Get returns a stored record.
func (e *Engine) Get(id string) (domain.Transcription, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.records[id]
	return t, ok
}

// Index adds or replaces a record, assigning an ID when it has none.
func (e *Engine) Index(_ context.Context, t *domain.Transcription) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.records[t.ID] = *t
	return nil
}

// Delete removes a record if present.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.records, id)
	return nil
}

// BulkIndex stores every record; it never fails per record.
func (e *Engine) BulkIndex(ctx context.Context, records []domain.Transcription) (*domain.BulkResult, error) {
	for i := range records {
		if err := e.Index(ctx, &records[i]); err != nil {
			return nil, err
		}
	}
	return &domain.BulkResult{Indexed: len(records)}, nil
}

// Search evaluates req against the stored records.
func (e *Engine) Search(ctx context.Context, req *domain.SearchRequest) (*domain.RawResponse, error) {
	if e.FailWith != nil {
		return nil, &engine.TransportError{Op: "memory search", Err: e.FailWith}
	}
	if err := ctx.Err(); err != nil {
		return nil, &engine.TransportError{Op: "memory search", Err: err}
	}

	start := time.Now()

	e.mu.RLock()
	defer e.mu.RUnlock()

	term := strings.ToLower(req.Term)
	matched := make([]domain.Transcription, 0)
	for _, t := range e.records {
		if term != "" && !matchesTerm(t, req.SearchFields, term) {
			continue
		}
		if !matchesFilters(t, req) {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	offset := pagination.Offset(req.Page, req.PageSize)
	if offset > total {
		offset = total
	}
	end := total
	if req.PageSize < total-offset {
		end = offset + req.PageSize
	}

	hits := make([]domain.RawHit, 0, end-offset)
	for _, t := range matched[offset:end] {
		hits = append(hits, toHit(t, req, term))
	}

	aggs := make(map[string][]domain.RawBucket, len(req.FacetRequests))
	for _, fr := range req.FacetRequests {
		aggs[fr.Name] = aggregate(matched, fr)
	}

	return &domain.RawResponse{
		TookMs:       time.Since(start).Milliseconds(),
		Total:        &total,
		Hits:         hits,
		Aggregations: aggs,
	}, nil
}

// fieldValue returns a record's field by its index name, keyword sub-fields
// included. ok is false for null values.
func fieldValue(t domain.Transcription, field string) (string, bool) {
	field = strings.TrimSuffix(field, ".keyword")
	switch field {
	case "generated_text":
		return t.GeneratedText, true
	case "duration":
		if t.Duration == nil {
			return "", false
		}
		return strconv.FormatFloat(*t.Duration, 'f', -1, 64), true
	case "age":
		return deref(t.Age)
	case "gender":
		return deref(t.Gender)
	case "accent":
		return deref(t.Accent)
	default:
		return "", false
	}
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

func source(t domain.Transcription, field string) any {
	switch field {
	case "duration":
		if t.Duration == nil {
			return nil
		}
		return *t.Duration
	default:
		v, ok := fieldValue(t, field)
		if !ok {
			return nil
		}
		return v
	}
}

func matchesTerm(t domain.Transcription, fields []string, term string) bool {
	for _, f := range fields {
		if v, ok := fieldValue(t, f); ok && strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

// matchesFilters ORs values within a facet and ANDs across facets.
func matchesFilters(t domain.Transcription, req *domain.SearchRequest) bool {
	for name, values := range req.Filters {
		field, ok := req.FacetField(name)
		if !ok {
			field = name
		}
		v, ok := fieldValue(t, field)
		if !ok {
			return false
		}
		if !contains(values, v) {
			return false
		}
	}
	return true
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func toHit(t domain.Transcription, req *domain.SearchRequest, term string) domain.RawHit {
	hit := domain.RawHit{ID: t.ID, Score: 1, Source: make(map[string]any, len(req.ResultFields))}
	for name, rule := range req.ResultFields {
		hit.Source[name] = source(t, name)
		if rule.Snippet == nil || term == "" {
			continue
		}
		v, ok := fieldValue(t, name)
		if !ok {
			continue
		}
		if fragment := highlight(v, term, rule.Snippet.Size); fragment != "" {
			if hit.Highlight == nil {
				hit.Highlight = make(map[string][]string)
			}
			hit.Highlight[name] = []string{fragment}
		}
	}
	return hit
}

// highlight wraps every case-insensitive occurrence of term in <em> tags,
// keeping roughly size characters of context starting near the first match.
func highlight(text, term string, size int) string {
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(term))
	if err != nil {
		return ""
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return ""
	}

	start := 0
	if size > 0 && loc[0] > size/2 {
		start = loc[0] - size/2
		for start > 0 && text[start-1] != ' ' {
			start--
		}
	}
	end := len(text)
	if size > 0 && start+size < end {
		end = start + size
		if end < loc[1] {
			end = loc[1]
		}
	}
	return re.ReplaceAllStringFunc(text[start:end], func(m string) string {
		return fmt.Sprintf("<em>%s</em>", m)
	})
}

func aggregate(records []domain.Transcription, fr domain.FacetRequest) []domain.RawBucket {
	counts := make(map[string]int)
	for _, t := range records {
		if v, ok := fieldValue(t, fr.Field); ok {
			counts[v]++
		}
	}

	buckets := make([]domain.RawBucket, 0, len(counts))
	for k, c := range counts {
		buckets = append(buckets, domain.RawBucket{Key: k, Count: c})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Key < buckets[j].Key
	})
	if fr.Size > 0 && len(buckets) > fr.Size {
		buckets = buckets[:fr.Size]
	}
	return buckets
}
