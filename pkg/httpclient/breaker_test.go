package httpclient

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/TranscriptSearch/pkg/logger"
)

func testBreakerConfig(name string) BreakerConfig {
	cfg := DefaultBreakerConfig(name)
	cfg.MinRequests = 3
	cfg.Timeout = time.Minute
	return cfg
}

func TestBreakerTransport_PassesThroughSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewBreakerTransport(nil, testBreakerConfig("pass"), logger.Discard())}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBreakerTransport_ReturnsServerErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"shard failure"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewBreakerTransport(nil, testBreakerConfig("5xx"), logger.Discard())}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestBreakerTransport_OpensAfterFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	bt := NewBreakerTransport(nil, testBreakerConfig("trip"), logger.Discard())
	client := &http.Client{Transport: bt}

	for i := 0; i < 3; i++ {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, gobreaker.StateOpen, bt.State())
	assert.Equal(t, float64(2), testutil.ToFloat64(breakerState.WithLabelValues("trip")))

	_, err := client.Get(srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, int32(3), hits.Load())
}

func TestNewTransport_InsecureSkipVerify(t *testing.T) {
	tr := NewTransport(DefaultTransportConfig())
	assert.Nil(t, tr.TLSClientConfig)

	cfg := DefaultTransportConfig()
	cfg.InsecureSkipVerify = true
	tr = NewTransport(cfg)
	require.NotNil(t, tr.TLSClientConfig)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
	assert.Equal(t, 100, tr.MaxConnsPerHost)
}
