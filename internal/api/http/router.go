package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/orgchart-service/internal/api/http/handlers"
	"github.com/spec-kit/orgchart-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Corporations   *handlers.CorporationsHandler
	Teams          *handlers.TeamsHandler
	Restore        *handlers.RestoreHandler
	Commits        *handlers.CommitsHandler
	Roles          *handlers.RolesHandler
	Drafts         *handlers.DraftsHandler
	Metrics        fiber.Handler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	company := app.Group("/api/v1/company", cfg.AuthMiddleware.Handle, auth.RequirePerson())

	company.Post("/corp", cfg.Corporations.Create)
	company.Get("/corp/:c_id", cfg.Corporations.Get)
	company.Get("/corp/:c_id/tree", cfg.Corporations.Tree)
	company.Patch("/corp/:c_id", cfg.Corporations.Update)
	company.Delete("/corp/:c_id", cfg.Corporations.Deactivate)

	company.Post("/team", cfg.Teams.Create)
	company.Get("/team/:t_id", cfg.Teams.Get)
	company.Patch("/team/:t_id", cfg.Teams.Update)
	company.Delete("/team/:t_id", cfg.Teams.Deactivate)

	company.Get("/restore/corp/:commit_id/:c_id", cfg.Restore.Corporation)
	company.Get("/restore/team/:commit_id/:t_id", cfg.Restore.Team)

	company.Get("/commit/list", cfg.Commits.List)
	company.Get("/commit/latest", cfg.Commits.Latest)
	company.Get("/commit/compare", cfg.Commits.Compare)
	company.Get("/commit/:commit_id", cfg.Commits.Get)
	company.Patch("/commit/:commit_id", cfg.Commits.Annotate)

	company.Get("/roles/:p_id", cfg.Roles.List)
	company.Post("/roles/:p_id", cfg.Roles.Create)
	company.Patch("/roles/:p_id/:r_id", cfg.Roles.Update)
	company.Delete("/roles/:p_id/:r_id", cfg.Roles.Close)
	company.Get("/roles/:p_id/:r_id/supervisors", cfg.Roles.Supervisors)

	company.Post("/edit/draft", cfg.Drafts.Save)
	company.Get("/edit/draft", cfg.Drafts.List)
	company.Get("/edit/draft/:d_id", cfg.Drafts.Get)
	company.Delete("/edit/draft/:d_id", cfg.Drafts.Delete)
}
