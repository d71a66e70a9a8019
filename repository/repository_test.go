package repository

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/akinalp/scaffoldr/database"
	"github.com/akinalp/scaffoldr/models"
	"github.com/akinalp/scaffoldr/pkg"
)

func openDB(t *testing.T) *database.DB {
	t.Helper()

	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), migrations, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type fixture struct {
	users       UserRepository
	sessions    SessionRepository
	templates   TemplateRepository
	projects    ProjectRepository
	deployments DeploymentRepository
}

func newFixture(t *testing.T) fixture {
	db := openDB(t)
	return fixture{
		users:       NewSQLiteUserRepo(db.Conn),
		sessions:    NewSQLiteSessionRepo(db.Conn),
		templates:   NewSQLiteTemplateRepo(db.Conn),
		projects:    NewSQLiteProjectRepo(db.Conn),
		deployments: NewSQLiteDeploymentRepo(db.Conn),
	}
}

func (f fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: "Test", PasswordHash: "hash"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f fixture) template(t *testing.T, slug string) *models.Template {
	t.Helper()
	tpl := &models.Template{
		Name:      slug,
		Slug:      slug,
		Type:      "frontend",
		Variables: map[string]string{"PROJECT_NAME": "Project name"},
		Metadata:  map[string]any{"features": []any{"seo"}},
		IsActive:  true,
	}
	require.NoError(t, f.templates.Upsert(context.Background(), tpl))
	return tpl
}

func (f fixture) project(t *testing.T, userID, templateID, slug string) *models.Project {
	t.Helper()
	p := &models.Project{
		UserID:     userID,
		TemplateID: templateID,
		Name:       slug,
		Slug:       slug,
		Config:     map[string]any{"PORT": "8080"},
	}
	require.NoError(t, f.projects.Create(context.Background(), p))
	return p
}

func TestUserRepo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.user(t, "ada@example.com")
	assert.NotEmpty(t, u.ID)

	got, err := f.users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	got, err = f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)

	err = f.users.Create(ctx, &models.User{Email: "ADA@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists, "email is unique regardless of case")

	_, err = f.users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestSessionRepo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "a@b.co")

	live := &models.Session{UserID: u.ID, RefreshToken: "live", ExpiresAt: time.Now().Add(time.Hour)}
	expired := &models.Session{UserID: u.ID, RefreshToken: "old", ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, f.sessions.Create(ctx, live))
	require.NoError(t, f.sessions.Create(ctx, expired))

	got, err := f.sessions.GetByRefreshToken(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)
	assert.WithinDuration(t, live.ExpiresAt, got.ExpiresAt, time.Second)

	n, err := f.sessions.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = f.sessions.GetByRefreshToken(ctx, "old")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	once := &models.Session{UserID: u.ID, RefreshToken: "once", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, f.sessions.Create(ctx, once))
	require.NoError(t, f.sessions.DeleteByID(ctx, once.ID))
	assert.ErrorIs(t, f.sessions.DeleteByID(ctx, once.ID), pkg.ErrNotFound, "second delete claims nothing")

	require.NoError(t, f.sessions.DeleteByUserID(ctx, u.ID))
	_, err = f.sessions.GetByRefreshToken(ctx, "live")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestTemplateRepo_UpsertAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.template(t, "landing-page")
	f.template(t, "api-service")

	again := &models.Template{Name: "Landing v2", Slug: "landing-page", IsActive: true}
	require.NoError(t, f.templates.Upsert(ctx, again))
	assert.Equal(t, first.ID, again.ID, "upsert keeps the id")

	list, err := f.templates.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Landing v2", list[0].Name, "ordered by name")
	assert.Equal(t, "api-service", list[1].Name)
	assert.Empty(t, list[0].Variables)

	got, err := f.templates.GetBySlug(ctx, "api-service")
	require.NoError(t, err)
	assert.Equal(t, "Project name", got.Variables["PROJECT_NAME"])
	assert.Equal(t, []any{"seo"}, got.Metadata["features"])

	n, err := f.templates.DeactivateExcept(ctx, []string{"api-service"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	list, err = f.templates.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err = f.templates.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = f.templates.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestProjectRepo_CRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	tpl := f.template(t, "landing-page")

	p1 := f.project(t, alice.ID, tpl.ID, "one")
	p2 := f.project(t, alice.ID, tpl.ID, "two")
	f.project(t, bob.ID, tpl.ID, "one") // same slug, other owner

	err := f.projects.Create(ctx, &models.Project{UserID: alice.ID, TemplateID: tpl.ID, Name: "One", Slug: "one"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	list, err := f.projects.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, p2.ID, list[0].ID, "newest first")
	assert.Equal(t, "8080", list[1].Config["PORT"])
	assert.Equal(t, models.ProjectStatusCreated, list[1].Status)

	_, err = f.projects.GetByIDForUser(ctx, p1.ID, bob.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	desc := "updated"
	p1.Name = "One!"
	p1.Description = &desc
	require.NoError(t, f.projects.Update(ctx, p1))
	got, err := f.projects.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, "One!", got.Name)
	assert.Equal(t, "one", got.Slug)
	assert.Equal(t, "updated", *got.Description)

	require.NoError(t, f.projects.Delete(ctx, p2.ID, alice.ID))
	assert.ErrorIs(t, f.projects.Delete(ctx, p2.ID, alice.ID), pkg.ErrNotFound)
}

func TestProjectRepo_StatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "a@b.co")
	tpl := f.template(t, "api-service")
	p := f.project(t, u.ID, tpl.ID, "svc")

	require.NoError(t, f.projects.BeginGeneration(ctx, p.ID))
	assert.ErrorIs(t, f.projects.BeginGeneration(ctx, p.ID), pkg.ErrConflict, "second start loses")
	assert.ErrorIs(t, f.projects.Delete(ctx, p.ID, u.ID), pkg.ErrConflict, "cannot delete while generating")

	require.NoError(t, f.projects.MarkError(ctx, p.ID, "copy failed"))
	got, err := f.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusError, got.Status)
	assert.Equal(t, "copy failed", *got.ErrorMessage)

	require.NoError(t, f.projects.BeginGeneration(ctx, p.ID), "retry from error")
	got, err = f.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ErrorMessage)

	require.NoError(t, f.projects.MarkReady(ctx, p.ID, "https://github.com/u/svc"))
	got, err = f.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusReady, got.Status)
	assert.Equal(t, "https://github.com/u/svc", *got.RepoURL)

	assert.ErrorIs(t, f.projects.BeginGeneration(ctx, p.ID), pkg.ErrConflict, "ready is final")
	assert.ErrorIs(t, f.projects.MarkReady(ctx, "missing", "x"), pkg.ErrNotFound)
}

func TestProjectRepo_FailInterrupted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "a@b.co")
	tpl := f.template(t, "api-service")

	stuck := f.project(t, u.ID, tpl.ID, "stuck")
	idle := f.project(t, u.ID, tpl.ID, "idle")
	require.NoError(t, f.projects.BeginGeneration(ctx, stuck.ID))

	n, err := f.projects.FailInterrupted(ctx, "interrupted")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := f.projects.GetByID(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusError, got.Status)

	got, err = f.projects.GetByID(ctx, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCreated, got.Status)
}

func TestDeploymentRepo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "a@b.co")
	tpl := f.template(t, "landing-page")
	p1 := f.project(t, u.ID, tpl.ID, "one")
	p2 := f.project(t, u.ID, tpl.ID, "two")

	d1 := &models.Deployment{ProjectID: p1.ID, Environment: models.EnvStaging, TriggeredBy: u.ID}
	d2 := &models.Deployment{ProjectID: p1.ID, Environment: models.EnvProduction, TriggeredBy: u.ID}
	require.NoError(t, f.deployments.Create(ctx, d1))
	require.NoError(t, f.deployments.Create(ctx, d2))
	assert.Equal(t, models.DeploymentStatusPending, d1.Status)

	list, err := f.deployments.ListByProject(ctx, p1.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, d2.ID, list[0].ID)

	latest, err := f.deployments.LatestByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, latest, 1)
	assert.Equal(t, d2.ID, latest[p1.ID].ID)
	assert.NotContains(t, latest, p2.ID)

	url := "https://one.netlify.app"
	require.NoError(t, f.deployments.Advance(ctx, d2.ID, models.DeploymentStatusBuilding, "building\n", nil))
	require.NoError(t, f.deployments.Advance(ctx, d2.ID, models.DeploymentStatusSuccess, "done\n", &url))

	got, err := f.deployments.GetByID(ctx, p1.ID, d2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentStatusSuccess, got.Status)
	assert.Equal(t, "building\ndone\n", got.Logs)
	assert.Equal(t, url, *got.DeploymentURL)

	_, err = f.deployments.GetByID(ctx, p2.ID, d2.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound, "deployment must belong to the project")

	n, err := f.deployments.FailUnfinished(ctx, "interrupted\n")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err = f.deployments.GetByID(ctx, p1.ID, d1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentStatusFailed, got.Status)

	require.NoError(t, f.projects.Delete(ctx, p1.ID, u.ID))
	list, err = f.deployments.ListByProject(ctx, p1.ID)
	require.NoError(t, err)
	assert.Empty(t, list, "deployments cascade with their project")
}
