package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/TranscriptSearch/internal/config"
	"github.com/utafrali/TranscriptSearch/internal/domain"
	"github.com/utafrali/TranscriptSearch/internal/engine"
	"github.com/utafrali/TranscriptSearch/internal/engine/cache"
	esengine "github.com/utafrali/TranscriptSearch/internal/engine/elasticsearch"
	"github.com/utafrali/TranscriptSearch/internal/engine/memory"
	"github.com/utafrali/TranscriptSearch/pkg/database"
)

// Backend is the search backend shared by every command: the engine that
// stores records, the transport searches go through, and the connections
// behind them.
type Backend struct {
	StaticConfig domain.StaticConfig
	Engine       engine.SearchEngine
	Transport    engine.Transport
	Elastic      *esengine.Engine
	Redis        *redis.Client
}

// NewBackend builds the configured engine, loads the static config and
// layers the response cache over the engine when enabled.
func NewBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	static := domain.DefaultStaticConfig()
	if cfg.StaticConfigFile != "" {
		var err error
		if static, err = domain.LoadStaticConfig(cfg.StaticConfigFile); err != nil {
			return nil, err
		}
		logger.Info("static search config loaded", slog.String("path", cfg.StaticConfigFile))
	}
	if cfg.ElasticsearchIndex != "" {
		static.Index = cfg.ElasticsearchIndex
	}
	if err := static.Validate(); err != nil {
		return nil, err
	}

	b := &Backend{StaticConfig: static}

	switch cfg.SearchEngine {
	case config.EngineElasticsearch:
		es, err := esengine.New(esengine.Config{
			Addresses:          strings.Split(cfg.ElasticsearchURL, ","),
			Username:           cfg.ElasticsearchUsername,
			Password:           cfg.ElasticsearchPassword,
			Index:              static.Index,
			InsecureSkipVerify: cfg.ElasticsearchInsecureSkipVerify,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		b.Elastic = es
		b.Engine = es
		logger.Info("elasticsearch search engine initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", static.Index),
		)
	default:
		b.Engine = memory.New()
		logger.Info("in-memory search engine initialized")
	}
	b.Transport = b.Engine

	if cfg.RedisEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return nil, err
		}
		b.Redis = client
		logger.Info("redis connected", slog.String("addr", cfg.Redis().Addr()))

		if cfg.CacheTTL > 0 {
			b.Transport = cache.NewTransport(b.Engine, cache.NewRedisStore(client), cfg.CacheTTL, logger)
			logger.Info("search response cache enabled", slog.Duration("ttl", cfg.CacheTTL))
		}
	}

	return b, nil
}

// EnsureIndex creates the index when the backend is Elasticsearch.
func (b *Backend) EnsureIndex(ctx context.Context) error {
	if b.Elastic == nil {
		return nil
	}
	return b.Elastic.EnsureIndex(ctx)
}

// RecreateIndex drops the Elasticsearch index and creates it again empty.
func (b *Backend) RecreateIndex(ctx context.Context) error {
	if b.Elastic == nil {
		return nil
	}
	if err := b.Elastic.DeleteIndex(ctx); err != nil {
		return err
	}
	return b.Elastic.EnsureIndex(ctx)
}

// Close releases backend connections.
func (b *Backend) Close() error {
	var errs []error
	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
