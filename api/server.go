/*
server.go - HTTP router and middleware configuration

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for a frontend
  5. RequireAuth: Bearer-token check on every ledger route

ROUTE GROUPS:
  /api/auth/*          Register and login (public)
  /api/balance         Derived balances
  /api/cashflows/*     Inflows and outflows
  /api/debts/*         Debts and clearing
  /api/transactions/*  Free-form ledger lines
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/ledger-engine/auth"
)

// NewRouter creates a router with all routes configured. Every route
// outside /api/auth requires a valid token issued by tokens.
func NewRouter(h *Handler, tokens *auth.JWTManager) *chi.Mux {
	r := chi.NewRouter()

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
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(tokens))

			r.Get("/balance", h.GetBalance)

			r.Route("/cashflows", func(r chi.Router) {
				r.Get("/inflows", h.ListInflows)
				r.Post("/inflows", h.CreateInflow)
				r.Get("/outflows", h.ListOutflows)
				r.Post("/outflows", h.CreateOutflow)
				r.Put("/{id}", h.UpdateCashFlow)
				r.Delete("/{id}", h.DeleteCashFlow)
			})

			r.Route("/debts", func(r chi.Router) {
				r.Get("/", h.ListDebts)
				r.Post("/", h.CreateDebt)
				r.Post("/clear", h.ClearDebts)
				r.Post("/{id}/clear", h.ClearDebtByID)
				r.Put("/{id}", h.UpdateDebt)
				r.Delete("/{id}", h.DeleteDebt)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", h.ListTransactions)
				r.Post("/", h.CreateTransaction)
				r.Put("/{id}", h.UpdateTransaction)
				r.Delete("/{id}", h.DeleteTransaction)
			})
		})
	})

	return r
}
