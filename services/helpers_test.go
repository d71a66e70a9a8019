package services

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/akinalp/scaffoldr/database"
	"github.com/akinalp/scaffoldr/models"
	"github.com/akinalp/scaffoldr/pkg/email"
	"github.com/akinalp/scaffoldr/pkg/scaffold"
	"github.com/akinalp/scaffoldr/repository"
	"github.com/akinalp/scaffoldr/ws"
)

const testCatalog = `
templates:
  - name: Landing Page
    slug: landing-page
    description: Marketing site
    type: frontend
    icon: "🎨"
    category: Web
  - name: API Service
    slug: api-service
    description: REST API
    type: backend
    icon: "⚡"
    category: Backend
  - name: Ghost
    slug: ghost
    type: frontend
`

func testStore() *scaffold.Store {
	return scaffold.NewStore(fstest.MapFS{
		"catalog.yaml":                {Data: []byte(testCatalog)},
		"landing-page/README.md":      {Data: []byte("# {{PROJECT_NAME}}\n\n{{PROJECT_DESCRIPTION}}\n")},
		"landing-page/src/site.ts":    {Data: []byte(`export const site = "{{SITE_URL}}";`)},
		"landing-page/dist/bundle.js": {Data: []byte("built")},
		"api-service/.env.example":    {Data: []byte("PORT={{PORT}}\nDATABASE_URL={{DATABASE_URL}}\n")},
	})
}

type published struct {
	userID string // empty for BroadcastToAll
	event  ws.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) BroadcastToAll(event ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{event: event})
}

func (p *recordingPublisher) BroadcastToUser(userID string, event ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{userID: userID, event: event})
}

// ops returns the ops sent to userID, in order.
func (p *recordingPublisher) ops(userID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var ops []string
	for _, e := range p.events {
		if e.userID == userID {
			ops = append(ops, e.event.Op)
		}
	}
	return ops
}

func (p *recordingPublisher) snapshot() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

type sentMail struct {
	to     string
	result email.GenerationResult
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) SendGenerationResult(_ context.Context, to string, result email.GenerationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, result: result})
	return nil
}

func (m *fakeMailer) all() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

// env is a real SQLite database with every repository and a synced
// template catalog.
type env struct {
	users       repository.UserRepository
	sessions    repository.SessionRepository
	templates   repository.TemplateRepository
	projects    repository.ProjectRepository
	deployments repository.DeploymentRepository

	store     *scaffold.Store
	layout    scaffold.Layout
	publisher *recordingPublisher
	templateS TemplateService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	dir := t.TempDir()
	db, err := database.New(filepath.Join(dir, "test.db"), migrations, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := &env{
		users:       repository.NewSQLiteUserRepo(db.Conn),
		sessions:    repository.NewSQLiteSessionRepo(db.Conn),
		templates:   repository.NewSQLiteTemplateRepo(db.Conn),
		projects:    repository.NewSQLiteProjectRepo(db.Conn),
		deployments: repository.NewSQLiteDeploymentRepo(db.Conn),
		store:       testStore(),
		layout:      scaffold.Layout{Root: filepath.Join(dir, "generated")},
		publisher:   &recordingPublisher{},
	}

	e.templateS = NewTemplateService(e.store, e.templates, e.publisher, zaptest.NewLogger(t))
	t.Cleanup(e.templateS.Close)

	_, err = e.templateS.Sync(context.Background())
	require.NoError(t, err)
	return e
}

func (e *env) user(t *testing.T, emailAddr string) *models.User {
	t.Helper()
	u := &models.User{Email: emailAddr, Name: "Test", PasswordHash: "x"}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *env) project(t *testing.T, userID, templateSlug, name string) *models.Project {
	t.Helper()

	tpl, err := e.templates.GetBySlug(context.Background(), templateSlug)
	require.NoError(t, err)

	p := &models.Project{
		UserID:     userID,
		TemplateID: tpl.ID,
		Name:       name,
		Slug:       models.Slugify(name),
		Config:     map[string]any{},
	}
	require.NoError(t, e.projects.Create(context.Background(), p))
	return p
}
