package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/scaffoldr/models"
	"github.com/akinalp/scaffoldr/pkg"
	"github.com/akinalp/scaffoldr/pkg/cache"
	"github.com/akinalp/scaffoldr/pkg/scaffold"
	"github.com/akinalp/scaffoldr/repository"
	"github.com/akinalp/scaffoldr/ws"
)

const (
	templateCacheTTL     = 5 * time.Minute
	templateCacheCleanup = 10 * time.Minute
	activeTemplatesKey   = "active"
)

// TemplateService serves the template catalog. The templates table mirrors
// catalog.yaml; Sync brings it up to date and is called at startup and
// whenever the on-disk template directory changes.
type TemplateService interface {
	// Sync upserts every catalog entry and deactivates templates that are
	// no longer listed. It returns the number of active templates.
	Sync(ctx context.Context) (int, error)
	// List returns active templates ordered by name.
	List(ctx context.Context) ([]models.Template, error)
	// Get finds an active template by ID or slug.
	Get(ctx context.Context, idOrSlug string) (*models.Template, error)
	// Close stops the cache sweeper.
	Close()
}

type templateService struct {
	store     *scaffold.Store
	repo      repository.TemplateRepository
	publisher ws.EventPublisher
	cache     *cache.TTLCache[string, []models.Template]
	log       *zap.Logger

	// generation counts syncs. List only caches a read taken within the
	// current generation, so a read that started before a sync cannot
	// repopulate the cache with the old catalog.
	mu         sync.Mutex
	generation uint64
}

// NewTemplateService creates the template service.
func NewTemplateService(
	store *scaffold.Store,
	repo repository.TemplateRepository,
	publisher ws.EventPublisher,
	log *zap.Logger,
) TemplateService {
	return &templateService{
		store:     store,
		repo:      repo,
		publisher: publisher,
		cache:     cache.New[string, []models.Template](templateCacheTTL, templateCacheCleanup),
		log:       log,
	}
}

func (s *templateService) Sync(ctx context.Context) (int, error) {
	entries, err := s.store.Catalog()
	if err != nil {
		return 0, err
	}

	slugs := make([]string, 0, len(entries))
	active := 0
	for _, entry := range entries {
		t := &models.Template{
			Name:        entry.Name,
			Slug:        entry.Slug,
			Description: entry.Description,
			Type:        entry.Type,
			Icon:        entry.Icon,
			Category:    entry.Category,
			Variables:   entry.Variables,
			Metadata:    entry.Metadata,
			IsActive:    !entry.Inactive,
		}

		// A catalog entry without files cannot be generated.
		if t.IsActive && !s.store.Exists(entry.Slug) {
			s.log.Warn("catalog entry has no template directory, deactivating", zap.String("slug", entry.Slug))
			t.IsActive = false
		}

		if err := s.repo.Upsert(ctx, t); err != nil {
			return 0, err
		}
		slugs = append(slugs, entry.Slug)
		if t.IsActive {
			active++
		}
	}

	removed, err := s.repo.DeactivateExcept(ctx, slugs)
	if err != nil {
		return 0, err
	}

	s.invalidate()
	s.log.Info("template catalog synced",
		zap.Int("templates", len(entries)),
		zap.Int("active", active),
		zap.Int64("deactivated", removed),
	)

	if s.publisher != nil {
		s.publisher.BroadcastToAll(ws.Event{
			Op:   ws.OpTemplatesUpdate,
			Data: ws.TemplatesUpdateData{Count: active},
		})
	}

	return active, nil
}

func (s *templateService) List(ctx context.Context) ([]models.Template, error) {
	if cached, ok := s.cache.Get(activeTemplatesKey); ok {
		return cached, nil
	}

	gen := s.currentGeneration()
	templates, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.generation == gen {
		s.cache.Set(activeTemplatesKey, templates)
	}
	s.mu.Unlock()
	return templates, nil
}

func (s *templateService) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *templateService) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.cache.Clear()
}

func (s *templateService) Get(ctx context.Context, idOrSlug string) (*models.Template, error) {
	if idOrSlug == "" {
		return nil, fmt.Errorf("%w: template id is required", pkg.ErrBadRequest)
	}

	if cached, ok := s.cache.Get(activeTemplatesKey); ok {
		for i := range cached {
			if cached[i].ID == idOrSlug || cached[i].Slug == idOrSlug {
				t := cached[i]
				return &t, nil
			}
		}
		return nil, fmt.Errorf("%w: template not found", pkg.ErrNotFound)
	}

	t, err := s.repo.GetByID(ctx, idOrSlug)
	if errors.Is(err, pkg.ErrNotFound) {
		t, err = s.repo.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: template not found", pkg.ErrNotFound)
		}
		return nil, err
	}

	if !t.IsActive {
		return nil, fmt.Errorf("%w: template not found", pkg.ErrNotFound)
	}
	return t, nil
}

func (s *templateService) Close() {
	s.cache.Close()
}
