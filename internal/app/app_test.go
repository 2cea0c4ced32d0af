package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/TranscriptSearch/internal/config"
	"github.com/utafrali/TranscriptSearch/internal/engine/cache"
	"github.com/utafrali/TranscriptSearch/internal/engine/memory"
	"github.com/utafrali/TranscriptSearch/pkg/logger"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Environment:        "test",
		LogLevel:           "error",
		HTTPPort:           8010,
		ShutdownTimeout:    time.Second,
		CORSOrigins:        []string{"*"},
		ElasticsearchIndex: "cv-transcriptions",
		SearchEngine:       config.EngineMemory,
		RedisPort:          6379,
		OTELSampleRate:     1,
	}
}

func TestNewBackend_Memory(t *testing.T) {
	b, err := NewBackend(context.Background(), memoryConfig(), logger.Discard())
	require.NoError(t, err)

	assert.IsType(t, &memory.Engine{}, b.Engine)
	assert.Same(t, b.Engine, b.Transport)
	assert.Nil(t, b.Elastic)
	assert.Nil(t, b.Redis)
	assert.Equal(t, "cv-transcriptions", b.StaticConfig.Index)
	require.NoError(t, b.EnsureIndex(context.Background()))
	require.NoError(t, b.Close())
}

func TestNewBackend_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	cfg := memoryConfig()
	cfg.RedisEnabled = true
	cfg.RedisHost = host
	cfg.RedisPort, _ = strconv.Atoi(port)
	cfg.CacheTTL = time.Minute

	b, err := NewBackend(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	assert.NotNil(t, b.Redis)
	assert.IsType(t, &cache.Transport{}, b.Transport)
}

func TestNewBackend_StaticConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.toml")
	require.NoError(t, os.WriteFile(path, []byte("default_page_size = 25\n"), 0o600))

	cfg := memoryConfig()
	cfg.StaticConfigFile = path
	cfg.ElasticsearchIndex = "cv-other"

	b, err := NewBackend(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, 25, b.StaticConfig.DefaultPageSize)
	assert.Equal(t, "cv-other", b.StaticConfig.Index)
}

func TestNewBackend_StaticConfigIndexWithoutEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.toml")
	require.NoError(t, os.WriteFile(path, []byte("index = \"cv-archive\"\n"), 0o600))

	cfg := memoryConfig()
	cfg.StaticConfigFile = path
	cfg.ElasticsearchIndex = ""

	b, err := NewBackend(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "cv-archive", b.StaticConfig.Index)
}

func TestNewBackend_DefaultIndexWithoutEnvOverride(t *testing.T) {
	cfg := memoryConfig()
	cfg.ElasticsearchIndex = ""

	b, err := NewBackend(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "cv-transcriptions", b.StaticConfig.Index)
}

func TestNewBackend_MissingStaticConfigFile(t *testing.T) {
	cfg := memoryConfig()
	cfg.StaticConfigFile = filepath.Join(t.TempDir(), "absent.toml")

	_, err := NewBackend(context.Background(), cfg, logger.Discard())
	assert.Error(t, err)
}

func TestNewApp_ServesSearch(t *testing.T) {
	a, err := NewApp(context.Background(), memoryConfig(), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	for _, path := range []string{"/api/v1/search?q=hello", "/api/v1/search/config", "/health/ready"} {
		w := httptest.NewRecorder()
		a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	assert.Empty(t, a.consumers)
}

func TestNewApp_WiresConsumers(t *testing.T) {
	cfg := memoryConfig()
	cfg.KafkaBrokers = []string{"127.0.0.1:1"}
	cfg.KafkaGroupID = "cvsearch-test"

	a, err := NewApp(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	assert.Len(t, a.consumers, 2)
	assert.NotNil(t, a.dlq)
}
