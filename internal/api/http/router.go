package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/finance-tracker/internal/api/http/handlers"
	"github.com/spec-kit/finance-tracker/internal/auth"
	"github.com/spec-kit/finance-tracker/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Transactions *handlers.TransactionsHandler
	Binder       *auth.IdentityBinder
	Gate         auth.TokenGate
	Metrics      *observability.Metrics
}

// RegisterRoutes wires HTTP routes. The identity binder runs ahead of every
// route, public ones included; it never rejects.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Binder.Handle)

	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	api := app.Group("/api")
	api.Get("/health", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/validate", cfg.Auth.Validate)

	requireIdentity := auth.RequireIdentity(cfg.Gate)
	authGroup.Get("/me", requireIdentity, cfg.Auth.Me)

	transactions := api.Group("/transactions", requireIdentity)
	transactions.Get("", cfg.Transactions.List)
	transactions.Post("", cfg.Transactions.Create)
	transactions.Get("/summary", cfg.Transactions.MonthlySummary)
	transactions.Get("/summary/yearly", cfg.Transactions.YearlySummary)
	transactions.Get("/balance", cfg.Transactions.Balance)
	transactions.Get("/months", cfg.Transactions.Months)
	transactions.Delete("/:id", cfg.Transactions.Delete)
}
