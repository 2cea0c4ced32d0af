package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// TransportConfig holds connection pool settings for outbound HTTP.
type TransportConfig struct {
	MaxConnsPerHost     int
	DialTimeout         time.Duration
	TLSHandshakeTimeout time.Duration

	// InsecureSkipVerify disables certificate verification. Development
	// clusters commonly run with self-signed certificates.
	InsecureSkipVerify bool
}

// DefaultTransportConfig returns pool defaults suitable for a single upstream.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		MaxConnsPerHost:     100,
		DialTimeout:         10 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// NewTransport builds a pooled *http.Transport from cfg.
func NewTransport(cfg TransportConfig) *http.Transport {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if cfg.InsecureSkipVerify {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return t
}
