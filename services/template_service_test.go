package services

import (
	"context"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/akinalp/scaffoldr/models"
	"github.com/akinalp/scaffoldr/pkg"
	"github.com/akinalp/scaffoldr/pkg/scaffold"
	"github.com/akinalp/scaffoldr/repository"
	"github.com/akinalp/scaffoldr/ws"
)

func TestTemplateService_Sync(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	list, err := e.templateS.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2, "ghost has no directory and is inactive")
	assert.Equal(t, "API Service", list[0].Name, "ordered by name")
	assert.Equal(t, "Landing Page", list[1].Name)

	events := e.publisher.snapshot()
	require.NotEmpty(t, events)
	assert.Equal(t, "", events[0].userID)
	assert.Equal(t, ws.OpTemplatesUpdate, events[0].event.Op)
	assert.Equal(t, ws.TemplatesUpdateData{Count: 2}, events[0].event.Data)

	ghost, err := e.templates.GetBySlug(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ghost.IsActive)
}

func TestTemplateService_SyncDeactivatesRemovedEntries(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	landing, err := e.templateS.Get(ctx, "landing-page")
	require.NoError(t, err)

	reduced := scaffold.NewStore(fstest.MapFS{
		"catalog.yaml": {Data: []byte(`
templates:
  - name: API Service v2
    slug: api-service
    type: backend
`)},
		"api-service/README.md": {Data: []byte("x")},
	})
	svc := NewTemplateService(reduced, e.templates, e.publisher, zaptest.NewLogger(t))
	defer svc.Close()

	active, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "API Service v2", list[0].Name)

	_, err = svc.Get(ctx, landing.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound, "removed templates are hidden")

	stillThere, err := e.templates.GetByID(ctx, landing.ID)
	require.NoError(t, err, "rows are kept for existing projects")
	assert.False(t, stillThere.IsActive)
}

func TestTemplateService_Get(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	bySlug, err := e.templateS.Get(ctx, "api-service")
	require.NoError(t, err)

	byID, err := e.templateS.Get(ctx, bySlug.ID)
	require.NoError(t, err)
	assert.Equal(t, bySlug.Slug, byID.Slug)

	// Warm the cache, then look up through it.
	_, err = e.templateS.List(ctx)
	require.NoError(t, err)

	cached, err := e.templateS.Get(ctx, bySlug.ID)
	require.NoError(t, err)
	assert.Equal(t, "api-service", cached.Slug)

	for _, key := range []string{"ghost", "missing"} {
		_, err = e.templateS.Get(ctx, key)
		assert.ErrorIs(t, err, pkg.ErrNotFound, key)
	}

	_, err = e.templateS.Get(ctx, "")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestTemplateService_GetUncachedInactive(t *testing.T) {
	e := newEnv(t)

	// Nothing cached yet: the lookup falls through to the repository.
	_, err := e.templateS.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

// pausedTemplates holds the first ListActive call after it has read the
// table until release is closed.
type pausedTemplates struct {
	repository.TemplateRepository
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (r *pausedTemplates) ListActive(ctx context.Context) ([]models.Template, error) {
	list, err := r.TemplateRepository.ListActive(ctx)
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
	return list, err
}

func TestTemplateService_ListDuringSyncDoesNotCacheStaleCatalog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	reduced := scaffold.NewStore(fstest.MapFS{
		"catalog.yaml": {Data: []byte(`
templates:
  - name: API Service
    slug: api-service
    type: backend
`)},
		"api-service/README.md": {Data: []byte("x")},
	})
	repo := &pausedTemplates{
		TemplateRepository: e.templates,
		read:               make(chan struct{}),
		release:            make(chan struct{}),
	}
	svc := NewTemplateService(reduced, repo, nil, zaptest.NewLogger(t))
	defer svc.Close()

	stale := make(chan []models.Template, 1)
	go func() {
		list, err := svc.List(ctx)
		assert.NoError(t, err)
		stale <- list
	}()

	<-repo.read
	_, err := svc.Sync(ctx)
	require.NoError(t, err)
	close(repo.release)
	assert.Len(t, <-stale, 2, "the in-flight read saw the old catalog")

	_, err = svc.Get(ctx, "landing-page")
	assert.ErrorIs(t, err, pkg.ErrNotFound, "deactivated template must not come back from the cache")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "api-service", list[0].Slug)
}
