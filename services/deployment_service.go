package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/scaffoldr/models"
	"github.com/akinalp/scaffoldr/pkg"
	"github.com/akinalp/scaffoldr/repository"
	"github.com/akinalp/scaffoldr/ws"
)

// DeploymentService creates simulated deployments of ready projects.
//
// No real deployment happens: a background goroutine walks the deployment
// through building and deploying to success over the configured delay,
// appending a log line at each step.
type DeploymentService interface {
	List(ctx context.Context, userID, projectID string) ([]models.Deployment, error)
	Get(ctx context.Context, userID, projectID, deploymentID string) (*models.Deployment, error)
	Create(ctx context.Context, userID, projectID string, req *models.CreateDeploymentRequest) (*models.Deployment, error)
	// Recover fails deployments left unfinished by a previous process.
	Recover(ctx context.Context) error
	// Shutdown stops running simulations; they are recorded as failed.
	Shutdown(ctx context.Context) error
}

type deploymentService struct {
	deploymentRepo repository.DeploymentRepository
	projectRepo    repository.ProjectRepository
	publisher      ws.EventPublisher
	delay          time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex // guards closed and wg.Add
	closed bool
	log    *zap.Logger
}

// NewDeploymentService creates the deployment service. delay is the total
// duration of one simulated deployment.
func NewDeploymentService(
	deploymentRepo repository.DeploymentRepository,
	projectRepo repository.ProjectRepository,
	publisher ws.EventPublisher,
	delay time.Duration,
	log *zap.Logger,
) DeploymentService {
	ctx, cancel := context.WithCancel(context.Background())
	return &deploymentService{
		deploymentRepo: deploymentRepo,
		projectRepo:    projectRepo,
		publisher:      publisher,
		delay:          delay,
		ctx:            ctx,
		cancel:         cancel,
		log:            log,
	}
}

func (s *deploymentService) List(ctx context.Context, userID, projectID string) ([]models.Deployment, error) {
	if _, err := s.projectRepo.GetByIDForUser(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.deploymentRepo.ListByProject(ctx, projectID)
}

func (s *deploymentService) Get(ctx context.Context, userID, projectID, deploymentID string) (*models.Deployment, error) {
	if _, err := s.projectRepo.GetByIDForUser(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.deploymentRepo.GetByID(ctx, projectID, deploymentID)
}

func (s *deploymentService) Create(ctx context.Context, userID, projectID string, req *models.CreateDeploymentRequest) (*models.Deployment, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	project, err := s.projectRepo.GetByIDForUser(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if project.Status != models.ProjectStatusReady {
		return nil, fmt.Errorf("%w: project must be generated before deploying", pkg.ErrConflict)
	}

	if !s.track() {
		return nil, fmt.Errorf("%w: server is shutting down", pkg.ErrConflict)
	}

	deployment := &models.Deployment{
		ProjectID:   project.ID,
		Environment: req.Environment,
		Status:      models.DeploymentStatusPending,
		TriggeredBy: userID,
		Logs:        logLine(time.Now(), "Deployment queued for "+req.Environment),
	}
	if err := s.deploymentRepo.Create(ctx, deployment); err != nil {
		s.wg.Done()
		return nil, err
	}

	s.log.Info("deployment started",
		zap.String("deployment_id", deployment.ID),
		zap.String("project_id", project.ID),
		zap.String("environment", deployment.Environment),
	)

	go s.simulate(*project, *deployment)

	return deployment, nil
}

// simulationStep is one status change of a simulated deployment.
type simulationStep struct {
	status  models.DeploymentStatus
	message string
	url     *string
}

func (s *deploymentService) simulate(project models.Project, d models.Deployment) {
	defer s.wg.Done()

	url := fmt.Sprintf("https://%s.netlify.app", project.Slug)
	steps := []simulationStep{
		{status: models.DeploymentStatusBuilding, message: "Building " + project.Name},
		{status: models.DeploymentStatusDeploying, message: "Deploying to " + d.Environment},
		{status: models.DeploymentStatusSuccess, message: "Deployed to " + url, url: &url},
	}

	log := s.log.With(zap.String("deployment_id", d.ID), zap.String("project_id", project.ID))
	stepDelay := s.delay / time.Duration(len(steps))

	for _, step := range steps {
		timer := time.NewTimer(stepDelay)
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			timer.Stop()
			s.advance(project.UserID, d, simulationStep{
				status:  models.DeploymentStatusFailed,
				message: "Deployment cancelled: server shutting down",
			}, log)
			return
		}

		if !s.advance(project.UserID, d, step, log) {
			return
		}
	}

	log.Info("deployment finished", zap.String("url", url))
}

// advance records one step and pushes it to the owner. It reports whether
// the simulation should continue.
func (s *deploymentService) advance(userID string, d models.Deployment, step simulationStep, log *zap.Logger) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), statusWriteTimeout)
	defer cancel()

	if err := s.deploymentRepo.Advance(ctx, d.ID, step.status, logLine(time.Now(), step.message), step.url); err != nil {
		// The project (and its deployments) may have been deleted.
		log.Warn("failed to update deployment", zap.String("status", string(step.status)), zap.Error(err))
		return false
	}

	s.publisher.BroadcastToUser(userID, ws.Event{
		Op: ws.OpDeploymentUpdate,
		Data: ws.DeploymentUpdateData{
			ProjectID:     d.ProjectID,
			DeploymentID:  d.ID,
			Status:        step.status,
			DeploymentURL: step.url,
		},
	})
	return true
}

func logLine(t time.Time, message string) string {
	return fmt.Sprintf("[%s] %s\n", t.UTC().Format(time.RFC3339), message)
}

func (s *deploymentService) Recover(ctx context.Context) error {
	n, err := s.deploymentRepo.FailUnfinished(ctx, logLine(time.Now(), "Deployment interrupted by server restart"))
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Warn("failed interrupted deployments", zap.Int64("deployments", n))
	}
	return nil
}

func (s *deploymentService) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *deploymentService) Shutdown(ctx context.Context) error {
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
		return fmt.Errorf("deployment shutdown: %w", ctx.Err())
	}
}
