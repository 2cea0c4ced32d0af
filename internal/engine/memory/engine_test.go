package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/TranscriptSearch/internal/binder"
	"github.com/utafrali/TranscriptSearch/internal/domain"
	"github.com/utafrali/TranscriptSearch/internal/engine"
	"github.com/utafrali/TranscriptSearch/internal/query"
	"github.com/utafrali/TranscriptSearch/internal/request"
)

func str(s string) *string { return &s }

func f64(v float64) *float64 { return &v }

func seed(t *testing.T) *Engine {
	t.Helper()
	e := New()
	_, err := e.BulkIndex(context.Background(), []domain.Transcription{
		{ID: "c1", GeneratedText: "Hello from the other side", Duration: f64(2.5), Age: str("twenties"), Gender: str("female"), Accent: str("us")},
		{ID: "c2", GeneratedText: "hello world", Age: str("thirties"), Gender: str("male"), Accent: str("england")},
		{ID: "c3", GeneratedText: "goodbye", Age: str("twenties"), Gender: str("male")},
		{ID: "c4", GeneratedText: "say hello again", Age: str("twenties"), Gender: str("male"), Accent: str("us")},
	})
	require.NoError(t, err)
	return e
}

func build(mutate func(*query.State)) *domain.SearchRequest {
	cfg := domain.DefaultStaticConfig()
	s := query.New(cfg.FacetNames(), cfg.DefaultPageSize)
	if mutate != nil {
		mutate(s)
	}
	return request.Build(s, cfg)
}

func ids(raw *domain.RawResponse) []string {
	out := make([]string, len(raw.Hits))
	for i, h := range raw.Hits {
		out[i] = h.ID
	}
	return out
}

func TestSearch_MatchAll(t *testing.T) {
	raw, err := seed(t).Search(context.Background(), build(nil))
	require.NoError(t, err)

	assert.Equal(t, 4, *raw.Total)
	assert.Equal(t, []string{"c1", "c2", "c3", "c4"}, ids(raw))
	assert.Equal(t, []domain.RawBucket{{Key: "twenties", Count: 3}, {Key: "thirties", Count: 1}}, raw.Aggregations["age"])
	assert.Equal(t, []domain.RawBucket{{Key: "us", Count: 2}, {Key: "england", Count: 1}}, raw.Aggregations["accent"])
}

func TestSearch_TermIsCaseInsensitiveAndHighlighted(t *testing.T) {
	raw, err := seed(t).Search(context.Background(), build(func(s *query.State) { s.SetTerm("HELLO") }))
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "c2", "c4"}, ids(raw))
	assert.Equal(t, []string{"<em>Hello</em> from the other side"}, raw.Hits[0].Highlight["generated_text"])
	assert.Equal(t, 2.5, raw.Hits[0].Source["duration"])
	assert.Nil(t, raw.Hits[1].Source["duration"])
}

func TestSearch_FiltersOrWithinAndAcross(t *testing.T) {
	e := seed(t)

	raw, err := e.Search(context.Background(), build(func(s *query.State) {
		_ = s.ToggleFacetValue("accent", "us")
		_ = s.ToggleFacetValue("accent", "england")
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c4"}, ids(raw))

	raw, err = e.Search(context.Background(), build(func(s *query.State) {
		_ = s.ToggleFacetValue("accent", "us")
		_ = s.ToggleFacetValue("gender", "male")
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"c4"}, ids(raw))
	assert.Equal(t, []domain.RawBucket{{Key: "twenties", Count: 1}}, raw.Aggregations["age"])
}

func TestSearch_Pagination(t *testing.T) {
	e := seed(t)
	req := build(func(s *query.State) {
		_ = s.SetPageSize(3)
		_ = s.SetPage(2)
	})

	raw, err := e.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 4, *raw.Total)
	assert.Equal(t, []string{"c4"}, ids(raw))

	req.Page = 9
	raw, err = e.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, raw.Hits)
}

func TestSearch_PageFarPastTheEnd(t *testing.T) {
	req := build(nil)
	req.Page = 1_000_000_000_000_000_000
	req.PageSize = 10

	raw, err := seed(t).Search(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, raw.Hits)
	assert.Equal(t, 4, *raw.Total)
}

func TestSearch_BindsCleanly(t *testing.T) {
	req := build(func(s *query.State) { s.SetTerm("hello") })
	raw, err := seed(t).Search(context.Background(), req)
	require.NoError(t, err)

	res, err := binder.Bind(raw, req)
	require.NoError(t, err)
	assert.Len(t, res.Results, 3)
	assert.Equal(t, "", res.Results[1].Fields["duration"])
}

func TestSearch_Failure(t *testing.T) {
	e := seed(t)
	e.FailWith = errors.New("connection refused")

	_, err := e.Search(context.Background(), build(nil))
	var te *engine.TransportError
	require.True(t, errors.As(err, &te))
}

func TestSearch_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := seed(t).Search(ctx, build(nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndexAndDelete(t *testing.T) {
	e := New()
	rec := &domain.Transcription{GeneratedText: "no id yet"}
	require.NoError(t, e.Index(context.Background(), rec))
	assert.NotEmpty(t, rec.ID)

	got, ok := e.Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, "no id yet", got.GeneratedText)

	require.NoError(t, e.Delete(context.Background(), rec.ID))
	require.NoError(t, e.Delete(context.Background(), "never-existed"))
	assert.Equal(t, 0, e.Len())
}

func TestAggregate_RespectsSize(t *testing.T) {
	records := []domain.Transcription{
		{ID: "1", Accent: str("a")}, {ID: "2", Accent: str("b")}, {ID: "3", Accent: str("b")}, {ID: "4", Accent: str("c")},
	}
	buckets := aggregate(records, domain.FacetRequest{Name: "accent", Field: "accent.keyword", Size: 2})
	assert.Equal(t, []domain.RawBucket{{Key: "b", Count: 2}, {Key: "a", Count: 1}}, buckets)
}

func TestHighlight_Window(t *testing.T) {
	text := "one two three four five six seven eight nine ten hello eleven twelve"
	got := highlight(text, "hello", 20)
	assert.Contains(t, got, "<em>hello</em>")
	assert.NotContains(t, got, "one two")
	assert.Equal(t, "", highlight(text, "absent", 20))
}
