package routes

import (
	"net/http"

	"github.com/brandpulse/okrops/internal/app"
	"github.com/brandpulse/okrops/internal/handler"
	"github.com/brandpulse/okrops/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	objective := handler.NewObjectiveHandler(app.ObjectiveService)
	reference := handler.NewReferenceHandler(app.ReferenceService)

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", health.Health)

	// Everything below requires a tenant scope
	requireScope := middleware.RequireScope
	rateLimiter := middleware.RateLimitMutations(app.Cfg.MutationRateLimit, app.Cfg.MutationRateWindow)

	// References
	mux.HandleFunc("GET /api/metric-types", requireScope(reference.MetricTypes))
	mux.HandleFunc("GET /api/platforms", requireScope(reference.Platforms))
	mux.HandleFunc("GET /api/target-dates", requireScope(reference.TargetDates))
	mux.HandleFunc("GET /api/templates", requireScope(objective.Templates))

	// Objectives
	mux.HandleFunc("GET /api/objectives", requireScope(objective.List))
	mux.HandleFunc("GET /api/objectives/{id}", requireScope(objective.Get))
	mux.HandleFunc("POST /api/objectives/validate", requireScope(objective.Validate))
	mux.HandleFunc("POST /api/objectives", rateLimiter(requireScope(objective.Create)))
	mux.HandleFunc("PATCH /api/objectives/{id}", rateLimiter(requireScope(objective.Update)))
	mux.HandleFunc("DELETE /api/objectives/{id}", rateLimiter(requireScope(objective.Archive)))
	mux.HandleFunc("POST /api/objectives/bulk", rateLimiter(requireScope(objective.Bulk)))

	// Global middleware chain
	var root http.Handler = mux
	root = middleware.AuthMiddleware(app.AuthService)(root)
	root = middleware.RequestLogging(root)

	return root
}
