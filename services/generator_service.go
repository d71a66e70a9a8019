package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/akinalp/scaffoldr/models"
	"github.com/akinalp/scaffoldr/pkg"
	"github.com/akinalp/scaffoldr/pkg/email"
	"github.com/akinalp/scaffoldr/pkg/scaffold"
	"github.com/akinalp/scaffoldr/repository"
	"github.com/akinalp/scaffoldr/ws"
)

// interruptedMessage is recorded on projects that were generating when the
// previous process stopped.
const interruptedMessage = "generation interrupted by server restart"

// statusWriteTimeout bounds the final status update, which must happen even
// after the generator context is cancelled.
const statusWriteTimeout = 10 * time.Second

// GeneratorConfig holds the generator settings from config.GeneratorConfig.
type GeneratorConfig struct {
	MaxConcurrency int
	GitInit        bool
	GitAuthorName  string
	GitAuthorEmail string
}

// GeneratorService runs the template instantiation pipeline.
//
// Generate marks the project generating before it returns, so the HTTP
// response reflects the real state; the file work runs on a background
// goroutine. At most MaxConcurrency generations run at once, the rest wait
// on the semaphore.
type GeneratorService interface {
	Generate(ctx context.Context, userID, projectID string) (*models.GenerationStarted, error)
	// Recover fails projects left generating by a previous process.
	Recover(ctx context.Context) error
	// Shutdown cancels in-flight generations and waits for them to record
	// their final status, or for ctx to expire.
	Shutdown(ctx context.Context) error
}

type generatorService struct {
	projectRepo  repository.ProjectRepository
	templateRepo repository.TemplateRepository
	userRepo     repository.UserRepository
	store        *scaffold.Store
	layout       scaffold.Layout
	publisher    ws.EventPublisher
	mailer       email.EmailSender // nil when email is not configured
	cfg          GeneratorConfig

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex // guards closed and wg.Add
	closed bool
	log    *zap.Logger
}

// NewGeneratorService creates the generator. mailer may be nil.
func NewGeneratorService(
	projectRepo repository.ProjectRepository,
	templateRepo repository.TemplateRepository,
	userRepo repository.UserRepository,
	store *scaffold.Store,
	layout scaffold.Layout,
	publisher ws.EventPublisher,
	mailer email.EmailSender,
	cfg GeneratorConfig,
	log *zap.Logger,
) GeneratorService {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &generatorService{
		projectRepo:  projectRepo,
		templateRepo: templateRepo,
		userRepo:     userRepo,
		store:        store,
		layout:       layout,
		publisher:    publisher,
		mailer:       mailer,
		cfg:          cfg,
		sem:          semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		ctx:          ctx,
		cancel:       cancel,
		log:          log,
	}
}

func (s *generatorService) Generate(ctx context.Context, userID, projectID string) (*models.GenerationStarted, error) {
	if !s.track() {
		return nil, fmt.Errorf("%w: server is shutting down", pkg.ErrConflict)
	}
	started := false
	defer func() {
		if !started {
			s.wg.Done()
		}
	}()

	project, err := s.projectRepo.GetByIDForUser(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !project.Status.CanGenerate() {
		return nil, fmt.Errorf("%w: project is %s", pkg.ErrConflict, project.Status)
	}

	tpl, err := s.templateRepo.GetByID(ctx, project.TemplateID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: template not found", pkg.ErrNotFound)
		}
		return nil, err
	}

	if err := s.projectRepo.BeginGeneration(ctx, project.ID); err != nil {
		return nil, err
	}
	project.Status = models.ProjectStatusGenerating
	s.publishStatus(project.UserID, project.ID, models.ProjectStatusGenerating, nil, nil)

	started = true
	go s.run(*project, *tpl)

	return &models.GenerationStarted{ProjectID: project.ID, Status: models.ProjectStatusGenerating}, nil
}

func (s *generatorService) run(project models.Project, tpl models.Template) {
	defer s.wg.Done()

	log := s.log.With(
		zap.String("project_id", project.ID),
		zap.String("slug", project.Slug),
		zap.String("template", tpl.Slug),
	)

	if err := s.sem.Acquire(s.ctx, 1); err != nil {
		s.fail(project, log, fmt.Errorf("generation cancelled: %w", err))
		return
	}
	defer s.sem.Release(1)

	start := time.Now()
	log.Info("generation started")

	res, err := s.instantiate(project, tpl)
	if err != nil {
		s.fail(project, log, err)
		return
	}

	if res.GitErr != nil {
		log.Warn("git init failed, continuing without repository", zap.Error(res.GitErr))
	}

	repoURL := fmt.Sprintf("https://github.com/%s/%s", project.UserID, project.Slug)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), statusWriteTimeout)
	defer cancel()

	if err := s.projectRepo.MarkReady(ctx, project.ID, repoURL); err != nil {
		log.Error("failed to mark project ready", zap.Error(err))
		return
	}

	log.Info("generation finished",
		zap.Int("files", res.Copy.Files),
		zap.String("size", humanize.Bytes(uint64(res.Copy.Bytes))),
		zap.Int("rewritten", res.Substitute.Rewritten),
		zap.Strings("binary_skipped", res.Substitute.Skipped),
		zap.String("commit", res.Commit),
		zap.Duration("took", time.Since(start)),
	)

	s.publishStatus(project.UserID, project.ID, models.ProjectStatusReady, &repoURL, nil)
	s.notify(ctx, project, log, email.GenerationResult{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		Ready:       true,
		RepoURL:     repoURL,
	})
}

func (s *generatorService) instantiate(project models.Project, tpl models.Template) (scaffold.Result, error) {
	src, err := s.store.Open(tpl.Slug)
	if err != nil {
		return scaffold.Result{}, err
	}

	// A retry after an error starts from a clean directory.
	if err := s.layout.Remove(project.UserID, project.Slug); err != nil {
		return scaffold.Result{}, fmt.Errorf("failed to clear previous output: %w", err)
	}

	var description string
	if project.Description != nil {
		description = *project.Description
	}

	return scaffold.Instantiate(s.ctx, src, s.layout.ProjectPath(project.UserID, project.Slug), scaffold.ProjectInfo{
		Name:        project.Name,
		Description: description,
		Slug:        project.Slug,
		Config:      project.Config,
	}, scaffold.Options{
		GitInit: s.cfg.GitInit,
		Git: scaffold.GitOptions{
			AuthorName:  s.cfg.GitAuthorName,
			AuthorEmail: s.cfg.GitAuthorEmail,
			Message:     fmt.Sprintf("Initial commit from %s template", tpl.Name),
		},
	})
}

func (s *generatorService) fail(project models.Project, log *zap.Logger, cause error) {
	log.Error("generation failed", zap.Error(cause))

	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), statusWriteTimeout)
	defer cancel()

	message := cause.Error()
	if err := s.projectRepo.MarkError(ctx, project.ID, message); err != nil {
		log.Error("failed to mark project failed", zap.Error(err))
		return
	}

	s.publishStatus(project.UserID, project.ID, models.ProjectStatusError, nil, &message)
	s.notify(ctx, project, log, email.GenerationResult{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		Error:       message,
	})
}

func (s *generatorService) publishStatus(userID, projectID string, status models.ProjectStatus, repoURL, errMsg *string) {
	s.publisher.BroadcastToUser(userID, ws.Event{
		Op: ws.OpProjectUpdate,
		Data: ws.ProjectUpdateData{
			ProjectID:    projectID,
			Status:       status,
			RepoURL:      repoURL,
			ErrorMessage: errMsg,
		},
	})
}

// notify mails the owner. Mail failures are logged only.
func (s *generatorService) notify(ctx context.Context, project models.Project, log *zap.Logger, result email.GenerationResult) {
	if s.mailer == nil {
		return
	}

	user, err := s.userRepo.GetByID(ctx, project.UserID)
	if err != nil {
		log.Warn("failed to load project owner for notification", zap.Error(err))
		return
	}

	if err := s.mailer.SendGenerationResult(ctx, user.Email, result); err != nil {
		log.Warn("failed to send generation email", zap.Error(err))
	}
}

func (s *generatorService) Recover(ctx context.Context) error {
	n, err := s.projectRepo.FailInterrupted(ctx, interruptedMessage)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Warn("failed interrupted generations", zap.Int64("projects", n))
	}
	return nil
}

// track registers a generation with the WaitGroup unless Shutdown has
// started.
func (s *generatorService) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *generatorService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("generator shutdown: %w", ctx.Err())
	}
}
