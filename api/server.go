/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for a payroll frontend

ROUTE GROUPS:
  /api/employees/*      Employees, reward history, premiums, bonuses
  /api/premiums/*       Monthly batch recompute
  /api/quality/*        Data-quality issues and acknowledgements
  /api/scenarios/*      Demo datasets
  /api/admin/reset      Database reset (dev only)
  /metrics              Prometheus scrape endpoint
  /healthz              Liveness (database ping)

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/rewards", h.ListRewards)
			r.Post("/{id}/rewards", h.AddReward)
			r.Get("/{id}/premiums/{ym}", h.GetMonthlyPremium)
			r.Get("/{id}/bonuses", h.ListBonuses)
			r.Post("/{id}/bonuses", h.SaveBonus)
			r.Post("/{id}/bonuses/preview", h.PreviewBonus)
		})

		r.Post("/premiums/{ym}/recalculate", h.Recalculate)

		r.Route("/quality", func(r chi.Router) {
			r.Get("/issues", h.ListQualityIssues)
			r.Post("/acknowledgements", h.AcknowledgeIssue)
			r.Delete("/acknowledgements/stale", h.DeleteStaleAcknowledgements)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		r.Post("/admin/reset", h.ResetDatabase)
	})

	r.Handle("/metrics", h.Metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := h.Store.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
