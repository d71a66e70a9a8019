package main

import (
	"go.uber.org/zap"

	"github.com/akinalp/scaffoldr/handlers"
	"github.com/akinalp/scaffoldr/ws"
)

// Handlers holds every HTTP handler.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Templates   *handlers.TemplateHandler
	Projects    *handlers.ProjectHandler
	Deployments *handlers.DeploymentHandler
	Files       *handlers.FilesHandler
	Health      *handlers.HealthHandler
	WS          *ws.Handler
}

func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, log *zap.Logger) *Handlers {
	return &Handlers{
		Auth:        handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		Templates:   handlers.NewTemplateHandler(svcs.Templates),
		Projects:    handlers.NewProjectHandler(svcs.Projects, svcs.Generator),
		Deployments: handlers.NewDeploymentHandler(svcs.Deployments),
		Files:       handlers.NewFilesHandler(svcs.Files, log.Named("files")),
		Health:      handlers.NewHealthHandler(hub),
		WS:          ws.NewHandler(hub, svcs.Auth, log.Named("ws")),
	}
}
