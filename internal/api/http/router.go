package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/refresh", cfg.Users.Refresh)
	authGroup.Post("/logout", cfg.Users.Logout)

	profile := authGroup.Group("/profile", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	profile.Get("/", cfg.Users.GetProfile)
	profile.Patch("/", cfg.Users.UpdateProfile)

	tickets := api.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	// literal paths must precede the :id routes
	tickets.Get("/my-tickets", auth.RequireCapability(domain.ActionTicketListMine), cfg.Tickets.MyTickets)
	tickets.Get("/all-tickets", auth.RequireCapability(domain.ActionTicketListAll), cfg.Tickets.AllTickets)
	tickets.Get("/assigned-to-me", auth.RequireCapability(domain.ActionTicketListAssigned), cfg.Tickets.AssignedToMe)

	tickets.Post("/", auth.RequireCapability(domain.ActionTicketCreate), cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", auth.RequireCapability(domain.ActionTicketDelete), cfg.Tickets.Delete)
	tickets.Post("/:id/assign", auth.RequireCapability(domain.ActionTicketAssign), cfg.Tickets.Assign)
	tickets.Post("/:id/execute", auth.RequireCapability(domain.ActionTicketExecute), cfg.Tickets.Execute)
}
