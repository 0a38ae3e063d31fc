package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RouterConfig holds router settings
type RouterConfig struct {
	RequestTimeout time.Duration
}

// NewRouter creates the HTTP router with all routes configured
func NewRouter(h *Handler, cfg RouterConfig, logger zerolog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	// Page
	r.Get("/", h.Page)
	r.Post("/recommend", h.Recommend)
	r.Post("/form", h.FormPreview)
	r.Post("/form/download", h.FormDownload)

	r.Get("/health", h.Health)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recommend", h.APIRecommend)
		r.Post("/form", h.APIForm)
		r.Get("/health", h.DetailedHealth)
		r.Get("/metrics", h.Metrics)
	})

	return r
}

// requestLogger logs one structured line per request
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				event := logger.Info()
				if ww.Status() >= http.StatusInternalServerError {
					event = logger.Error()
				} else if r.URL.Path == "/health" {
					event = logger.Debug()
				}
				event.
					Str("request_id", chimiddleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
