package main

import (
	"net/http"

	"github.com/akinalp/scaffoldr/middleware"
	"github.com/akinalp/scaffoldr/repository"
	"github.com/akinalp/scaffoldr/services"
)

// initRoutes registers every endpoint on mux.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
) {
	authMw := middleware.NewAuthMiddleware(authService, userRepo)
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}

	// Auth
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)
	mux.Handle("GET /api/auth/me", auth(h.Auth.Me))

	// Templates are public.
	mux.HandleFunc("GET /api/templates", h.Templates.List)
	mux.HandleFunc("GET /api/templates/{id}", h.Templates.Get)

	// Projects
	mux.Handle("GET /api/projects", auth(h.Projects.List))
	mux.Handle("POST /api/projects", auth(h.Projects.Create))
	mux.Handle("GET /api/projects/{id}", auth(h.Projects.Get))
	mux.Handle("PUT /api/projects/{id}", auth(h.Projects.Update))
	mux.Handle("DELETE /api/projects/{id}", auth(h.Projects.Delete))
	mux.Handle("POST /api/projects/{id}/generate", auth(h.Projects.Generate))

	// Files of a generated project
	mux.Handle("GET /api/projects/{id}/files", auth(h.Files.Tree))
	mux.Handle("GET /api/projects/{id}/download", auth(h.Files.Download))
	mux.Handle("GET /api/projects/{id}/file-content", auth(h.Files.FileContent))

	// Deployments
	mux.Handle("GET /api/projects/{projectId}/deployments", auth(h.Deployments.List))
	mux.Handle("POST /api/projects/{projectId}/deployments", auth(h.Deployments.Create))
	mux.Handle("GET /api/projects/{projectId}/deployments/{deploymentId}", auth(h.Deployments.Get))

	mux.HandleFunc("GET /api/health", h.Health.Health)

	// WebSocket authenticates with ?token=, not the Authorization header.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
