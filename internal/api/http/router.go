package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskcore/sla-engine/internal/api/http/handlers"
	"github.com/deskcore/sla-engine/internal/auth"
	"github.com/deskcore/sla-engine/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	SLA            *handlers.SLAHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1")
	slaGroup := api.Group("/sla", cfg.AuthMiddleware.Handle)

	slaGroup.Get("/policies", auth.RequireRole(), cfg.SLA.Policies)
	slaGroup.Get("/metrics",
		auth.RequireRole(domain.StaffRoleManager, domain.StaffRoleAuditor, domain.StaffRoleAdmin),
		cfg.SLA.Metrics)
	slaGroup.Get("/tickets/:id", auth.RequireRole(), cfg.SLA.TicketStatus)
	slaGroup.Post("/due-dates", auth.RequireRole(), cfg.SLA.PreviewDueDates)
}
