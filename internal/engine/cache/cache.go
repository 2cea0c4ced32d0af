package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/TranscriptSearch/internal/domain"
	"github.com/utafrali/TranscriptSearch/internal/engine"
)

const keyPrefix = "cvsearch:"

var lookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cvsearch_response_cache_total",
		Help: "Response cache lookups by result",
	},
	[]string{"result"},
)

// Store is a byte-oriented key/value store with expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore implements Store using Redis.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the value for key; ok is false on a miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

// Set stores value under key for ttl.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Transport caches decoded replies of an underlying transport. Store
// failures degrade to a direct call; transport failures are never cached.
type Transport struct {
	next   engine.Transport
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

var _ engine.Transport = (*Transport)(nil)

// NewTransport wraps next. A zero ttl disables caching.
func NewTransport(next engine.Transport, store Store, ttl time.Duration, logger *slog.Logger) *Transport {
	return &Transport{next: next, store: store, ttl: ttl, logger: logger}
}

// Search returns a cached reply for an identical request, or calls through
// and caches the reply.
func (t *Transport) Search(ctx context.Context, req *domain.SearchRequest) (*domain.RawResponse, error) {
	if t.ttl <= 0 {
		return t.next.Search(ctx, req)
	}

	key, err := Key(req)
	if err != nil {
		return t.next.Search(ctx, req)
	}

	data, ok, err := t.store.Get(ctx, key)
	switch {
	case err != nil:
		lookups.WithLabelValues("error").Inc()
		t.logger.WarnContext(ctx, "response cache read failed", slog.String("error", err.Error()))
	case ok:
		var raw domain.RawResponse
		if err := json.Unmarshal(data, &raw); err == nil {
			lookups.WithLabelValues("hit").Inc()
			return &raw, nil
		}
		lookups.WithLabelValues("error").Inc()
	default:
		lookups.WithLabelValues("miss").Inc()
	}

	raw, err := t.next.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(raw); err == nil {
		if err := t.store.Set(ctx, key, data, t.ttl); err != nil {
			t.logger.WarnContext(ctx, "response cache write failed", slog.String("error", err.Error()))
		}
	}
	return raw, nil
}

// Key derives the cache key of a request. The request ID is excluded so
// identical queries share an entry.
func Key(req *domain.SearchRequest) (string, error) {
	c := *req
	c.ID = 0
	data, err := json.Marshal(&c)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return keyPrefix + hex.EncodeToString(sum[:]), nil
}
