// Package api wires the HTTP boundary: health, metrics, and the thin
// Enqueue/Status handlers over the ingestion pipeline. Not a
// required component of the pipeline itself — useful for local
// testing/demonstration of Enqueue/Status without a direct Go caller.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkwell-run/ingestor/internal/api/handlers"
)

// NewRouter builds the chi router for the ingestion HTTP boundary.
func NewRouter(ingest *handlers.IngestHandler, status *handlers.StatusHandler, metricsHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Get("/metrics", metricsHandler.ServeHTTP)

	r.Route("/api/v1/ingestion", func(r chi.Router) {
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", ingest.Create)    // POST /api/v1/ingestion/jobs
			r.Get("/{jobId}", status.Get) // GET  /api/v1/ingestion/jobs/{jobId}?userId=...
		})
	})

	return r
}
