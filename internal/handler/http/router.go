package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/TranscriptSearch/internal/service"
	"github.com/utafrali/TranscriptSearch/pkg/health"
	"github.com/utafrali/TranscriptSearch/pkg/middleware"
)

const serviceName = "cvsearch"

// configMaxAge is how long clients may cache GET /api/v1/search/config.
const configMaxAge = 300

// NewRouter creates a chi router with all cvsearch routes registered.
func NewRouter(
	searchService *service.SearchService,
	healthHandler *health.Handler,
	cors middleware.CORSConfig,
	limit middleware.RateLimitConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cors))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	searchHandler := NewSearchHandler(searchService, logger)
	transcriptionHandler := NewTranscriptionHandler(searchService, logger)

	r.Route("/api/v1/search", func(r chi.Router) {
		r.Use(middleware.RateLimit(limit, logger))
		r.Get("/", searchHandler.Search)
		r.Get("/suggest", searchHandler.Suggest)
		r.With(middleware.CacheControl(configMaxAge)).Get("/config", searchHandler.Config)
	})

	r.Route("/api/v1/transcriptions", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Post("/", transcriptionHandler.Index)
		r.Post("/bulk", transcriptionHandler.BulkIndex)
		r.Delete("/{id}", transcriptionHandler.Delete)
	})

	return r
}
