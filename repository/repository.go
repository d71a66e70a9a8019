// Package repository is the data access layer. Services depend on the
// interfaces declared here and never write SQL themselves; the sqlite_*.go
// files hold the SQLite implementations.
//
// Every implementation takes a database.TxQuerier, so the same repository
// works on *sql.DB and inside database.WithTx.
package repository

import (
	"context"

	"github.com/akinalp/scaffoldr/models"
)

// UserRepository stores local accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionRepository stores refresh-token sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByRefreshToken(ctx context.Context, token string) (*models.Session, error)
	// DeleteByID returns pkg.ErrNotFound when nothing was deleted, so a
	// caller can use the delete as a claim on the session.
	DeleteByID(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired returns how many sessions were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}

// TemplateRepository stores the template catalog.
type TemplateRepository interface {
	// Upsert inserts or updates by slug and fills in ID and timestamps.
	Upsert(ctx context.Context, t *models.Template) error
	// DeactivateExcept hides every template whose slug is not in slugs.
	DeactivateExcept(ctx context.Context, slugs []string) (int64, error)
	ListActive(ctx context.Context) ([]models.Template, error)
	GetByID(ctx context.Context, id string) (*models.Template, error)
	GetBySlug(ctx context.Context, slug string) (*models.Template, error)
}

// ProjectRepository stores projects and owns their status transitions.
type ProjectRepository interface {
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	// GetByIDForUser returns pkg.ErrNotFound for projects of other users.
	GetByIDForUser(ctx context.Context, id, userID string) (*models.Project, error)
	ListByUser(ctx context.Context, userID string) ([]models.Project, error)
	Update(ctx context.Context, p *models.Project) error
	// Delete removes the project unless it is generating (pkg.ErrConflict).
	Delete(ctx context.Context, id, userID string) error

	// BeginGeneration moves a created or error project to generating in a
	// single conditional UPDATE. pkg.ErrConflict means another request got
	// there first or the project is ready.
	BeginGeneration(ctx context.Context, id string) error
	MarkReady(ctx context.Context, id, repoURL string) error
	MarkError(ctx context.Context, id, message string) error
	// FailInterrupted moves projects left generating by a previous process
	// to error.
	FailInterrupted(ctx context.Context, message string) (int64, error)
}

// DeploymentRepository stores simulated deployments.
type DeploymentRepository interface {
	Create(ctx context.Context, d *models.Deployment) error
	GetByID(ctx context.Context, projectID, id string) (*models.Deployment, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Deployment, error)
	// LatestByUser returns the newest deployment of each of the user's
	// projects, keyed by project ID.
	LatestByUser(ctx context.Context, userID string) (map[string]models.Deployment, error)
	// Advance sets status, appends logLine to logs and optionally sets the URL.
	Advance(ctx context.Context, id string, status models.DeploymentStatus, logLine string, url *string) error
	// FailUnfinished fails deployments interrupted by a restart.
	FailUnfinished(ctx context.Context, logLine string) (int64, error)
}
