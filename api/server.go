/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for dashboards
  5. Metrics:    Prometheus request counters and latencies

ROUTE GROUPS:
  /api/forecast*        Daily projections and validation
  /api/position         Single-day cash position
  /api/reports/*        Report export (json, csv, summary)
  /api/pricing/*        Rate optimization, events, competitors
  /api/scenarios/*      What-if scenarios
  /api/opera/*          Property system rates and inventory
  /api/planning/*       Planning ledger export, sync, actuals
  /api/runs, /api/rates/pushes   Persisted audit history
  /api/reset            Database reset (dev only)
  /metrics              Prometheus scrape endpoint

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/cashflow/cmd_serve.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured. origins
// lists the allowed CORS origins; empty means localhost defaults.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(Metrics)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Forecast routes
		r.Route("/forecast", func(r chi.Router) {
			r.Get("/", h.GenerateForecast)
			r.Post("/validate", h.ValidateForecast)
		})
		r.Get("/position", h.GetPosition)
		r.Post("/actuals", h.RecordActuals)

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/export", h.ExportReport)
		})

		// Pricing routes
		r.Route("/pricing", func(r chi.Router) {
			r.Get("/optimize", h.OptimizePricing)
			r.Get("/events", h.ListEvents)
			r.Get("/competitors", h.AnalyzeCompetitors)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/run", h.RunScenario)
			r.Post("/{id}/run", h.RunScenarioPreset)
		})

		// Opera routes
		r.Route("/opera", func(r chi.Router) {
			r.Get("/rates", h.CompareRates)
			r.Post("/rates/sync", h.SyncRates)
			r.Get("/inventory", h.GetInventory)
		})

		// Planning routes
		r.Route("/planning", func(r chi.Router) {
			r.Get("/export", h.ExportForPlanning)
			r.Post("/sync", h.SyncToPlanning)
			r.Get("/actuals", h.GetPlanningActuals)
			r.Get("/syncs", h.ListPlanningSyncs)
		})

		// History routes
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.ListRuns)
			r.Get("/{id}", h.GetRun)
		})
		r.Get("/rates/pushes", h.ListRatePushes)

		r.Post("/reset", h.Reset)
	})

	// Prometheus scrape endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// Landing page listing the API surface
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Cash Flow Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Cash Flow Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/health">/api/health</a> - Liveness</li>
<li>/api/forecast?start_date=&amp;end_date= - Daily cash flow forecast</li>
<li><a href="/api/position">/api/position</a> - Cash position today</li>
<li>/api/pricing/optimize?start_date=&amp;end_date= - Rate optimization</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Scenario presets</li>
<li>/api/planning/export?start_date=&amp;end_date= - Planning ledger export</li>
<li><a href="/api/runs">/api/runs</a> - Forecast run history</li>
<li><a href="/metrics">/metrics</a> - Prometheus metrics</li>
</ul>
</body>
</html>`))
	})

	return r
}
