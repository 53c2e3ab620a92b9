package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Categories     *handlers.CategoriesHandler
	AuthMiddleware *auth.AuthMiddleware
	// Metrics serves the Prometheus exposition when set.
	Metrics fiber.Handler
}

// RegisterRoutes wires HTTP routes. The "replay" paths are kept for
// clients written against the first version of the API.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	v1 := app.Group("/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/sign-in", cfg.Auth.SignIn)

	user := v1.Group("/user", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleUser))
	user.Get("/ticket", cfg.Tickets.ListTickets)
	user.Post("/ticket", cfg.Tickets.CreateTicket)
	user.Delete("/ticket/reply/:id", cfg.Tickets.DeleteReply)
	user.Delete("/ticket/replay/:id", cfg.Tickets.DeleteReply)
	user.Get("/ticket/:id", cfg.Tickets.GetTicket)
	user.Put("/ticket/:id", cfg.Tickets.UpdateTicket)
	user.Patch("/ticket/:id", cfg.Tickets.UpdateTicket)
	user.Delete("/ticket/:id", cfg.Tickets.DeleteTicket)
	user.Post("/ticket/:ticket_id/reply", cfg.Tickets.ReplyTicket)
	user.Post("/ticket/:ticket_id/replay", cfg.Tickets.ReplyTicket)
	user.Get("/category", cfg.Categories.ListCategories)

	admin := v1.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/ticket", cfg.Tickets.ListTickets)
	admin.Get("/ticket/:id", cfg.Tickets.GetTicket)
	admin.Delete("/ticket/:id", cfg.Tickets.DeleteTicket)
	admin.Post("/ticket/:ticket_id/reply", cfg.Tickets.ReplyTicket)
	admin.Post("/ticket/:ticket_id/replay", cfg.Tickets.ReplyTicket)
	admin.Get("/category", cfg.Categories.ListCategories)
	admin.Post("/category", cfg.Categories.CreateCategory)
	admin.Get("/category/:id", cfg.Categories.GetCategory)
}
