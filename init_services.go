package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/scaffoldr/config"
	"github.com/akinalp/scaffoldr/pkg/email"
	"github.com/akinalp/scaffoldr/pkg/ratelimit"
	"github.com/akinalp/scaffoldr/pkg/scaffold"
	"github.com/akinalp/scaffoldr/services"
	"github.com/akinalp/scaffoldr/ws"
)

const (
	loginMaxAttempts       = 5
	loginWindow            = 2 * time.Minute
	sessionCleanupInterval = time.Hour
)

// Services holds every service instance.
type Services struct {
	Auth           services.AuthService
	Templates      services.TemplateService
	Projects       services.ProjectService
	Generator      services.GeneratorService
	Deployments    services.DeploymentService
	Files          services.FilesService
	SessionCleaner services.SessionCleaner
}

// RateLimiters holds the rate limiters shared by handlers.
type RateLimiters struct {
	Login *ratelimit.LoginRateLimiter
}

// initServices builds the service layer. The template service comes first:
// projects resolve templates through it.
func initServices(
	cfg *config.Config,
	repos *Repositories,
	store *scaffold.Store,
	hub ws.EventPublisher,
	log *zap.Logger,
) (*Services, *RateLimiters) {
	layout := scaffold.Layout{Root: cfg.Generator.OutputDir}

	// A nil interface, not a typed nil, when email is off.
	var mailer email.EmailSender
	if cfg.Email.EmailEnabled() {
		mailer = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.Email.AppURL)
	} else {
		log.Info("email not configured, generation results are not mailed")
	}

	templates := services.NewTemplateService(store, repos.Template, hub, log.Named("templates"))

	svcs := &Services{
		Auth: services.NewAuthService(
			repos.User,
			repos.Session,
			cfg.JWT.Secret,
			time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
			time.Duration(cfg.JWT.RefreshTokenExpiry)*24*time.Hour,
		),
		Templates: templates,
		Projects: services.NewProjectService(
			repos.Project, repos.Template, repos.Deployment, templates, layout, log.Named("projects"),
		),
		Generator: services.NewGeneratorService(
			repos.Project,
			repos.Template,
			repos.User,
			store,
			layout,
			hub,
			mailer,
			services.GeneratorConfig{
				MaxConcurrency: cfg.Generator.MaxConcurrency,
				GitInit:        cfg.Generator.GitInit,
				GitAuthorName:  cfg.Generator.GitAuthorName,
				GitAuthorEmail: cfg.Generator.GitAuthorEmail,
			},
			log.Named("generator"),
		),
		Deployments: services.NewDeploymentService(
			repos.Deployment, repos.Project, hub, cfg.Deploy.SimulatedDelay, log.Named("deployments"),
		),
		Files:          services.NewFilesService(repos.Project, layout),
		SessionCleaner: services.NewSessionCleaner(repos.Session, sessionCleanupInterval, log.Named("sessions")),
	}

	limiters := &RateLimiters{
		Login: ratelimit.NewLoginRateLimiter(loginMaxAttempts, loginWindow),
	}

	return svcs, limiters
}
