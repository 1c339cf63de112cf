package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every endpoint. limiter may be nil.
func NewRouter(svc CreditsService, limiter RewardLimiter) http.Handler {
	h := NewHandler(svc, limiter)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(requireIdentity)

		r.Post("/users/me", h.EnsureUserHandler)

		r.Route("/credits", func(r chi.Router) {
			r.Get("/balance", h.GetBalanceHandler)
			r.Get("/transactions", h.ListTransactionsHandler)
			r.Get("/products", h.ListProductsHandler)
			r.Post("/purchase", h.PurchaseHandler)
			r.Post("/reward", h.RewardHandler)
			r.Post("/usage", h.UsageHandler)
		})
	})

	return r
}
