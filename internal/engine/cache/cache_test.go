package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/TranscriptSearch/internal/domain"
	"github.com/utafrali/TranscriptSearch/internal/engine"
	"github.com/utafrali/TranscriptSearch/pkg/logger"
)

type countingTransport struct {
	calls int
	err   error
}

func (c *countingTransport) Search(_ context.Context, req *domain.SearchRequest) (*domain.RawResponse, error) {
	c.calls++
	if c.err != nil {
		return nil, &engine.TransportError{Op: "fake", Err: c.err}
	}
	total := 1
	return &domain.RawResponse{
		TookMs: 3,
		Total:  &total,
		Hits:   []domain.RawHit{{ID: "a", Score: 1, Source: map[string]any{"generated_text": req.Term}}},
		Aggregations: map[string][]domain.RawBucket{
			"age": {{Key: "twenties", Count: 1}},
		},
	}, nil
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("down")
}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func sampleRequest(id uint64, term string) *domain.SearchRequest {
	return &domain.SearchRequest{
		ID:           id,
		Index:        domain.IndexName,
		Mode:         domain.ModeSearch,
		Term:         term,
		SearchFields: []string{"generated_text"},
		Page:         1,
		PageSize:     10,
	}
}

func TestKey_IgnoresRequestID(t *testing.T) {
	a, err := Key(sampleRequest(1, "hello"))
	require.NoError(t, err)
	b, err := Key(sampleRequest(2, "hello"))
	require.NoError(t, err)
	c, err := Key(sampleRequest(1, "world"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "cvsearch:")
}

func TestTransport_HitAfterMiss(t *testing.T) {
	store, mr := setupTestRedis(t)
	next := &countingTransport{}
	tr := NewTransport(next, store, time.Minute, logger.Discard())

	first, err := tr.Search(context.Background(), sampleRequest(1, "hello"))
	require.NoError(t, err)
	second, err := tr.Search(context.Background(), sampleRequest(2, "hello"))
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)

	key, _ := Key(sampleRequest(0, "hello"))
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))
}

func TestTransport_ZeroTTLBypasses(t *testing.T) {
	store, mr := setupTestRedis(t)
	next := &countingTransport{}
	tr := NewTransport(next, store, 0, logger.Discard())

	for i := 0; i < 2; i++ {
		_, err := tr.Search(context.Background(), sampleRequest(uint64(i), "hello"))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, next.calls)
	assert.Empty(t, mr.Keys())
}

func TestTransport_FailuresAreNotCached(t *testing.T) {
	store, mr := setupTestRedis(t)
	next := &countingTransport{err: errors.New("boom")}
	tr := NewTransport(next, store, time.Minute, logger.Discard())

	_, err := tr.Search(context.Background(), sampleRequest(1, "hello"))
	var te *engine.TransportError
	require.ErrorAs(t, err, &te)
	assert.Empty(t, mr.Keys())
}

func TestTransport_StoreFailureFallsThrough(t *testing.T) {
	next := &countingTransport{}
	tr := NewTransport(next, brokenStore{}, time.Minute, logger.Discard())

	raw, err := tr.Search(context.Background(), sampleRequest(1, "hello"))
	require.NoError(t, err)
	assert.Equal(t, 1, *raw.Total)
	assert.Equal(t, 1, next.calls)
}

func TestTransport_CorruptEntryIsRefetched(t *testing.T) {
	store, mr := setupTestRedis(t)
	next := &countingTransport{}
	tr := NewTransport(next, store, time.Minute, logger.Discard())

	key, _ := Key(sampleRequest(0, "hello"))
	require.NoError(t, mr.Set(key, "{not json"))

	raw, err := tr.Search(context.Background(), sampleRequest(1, "hello"))
	require.NoError(t, err)
	assert.Equal(t, "a", raw.Hits[0].ID)
	assert.Equal(t, 1, next.calls)
}

func TestRedisStore_Miss(t *testing.T) {
	store, _ := setupTestRedis(t)
	_, ok, err := store.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}
