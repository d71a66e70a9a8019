package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/akinalp/scaffoldr/models"
	"github.com/akinalp/scaffoldr/pkg"
	"github.com/akinalp/scaffoldr/pkg/scaffold"
	"github.com/akinalp/scaffoldr/repository"
)

// ProjectService is CRUD over a user's projects. Every method is scoped to
// the caller: another user's project is reported as not found.
type ProjectService interface {
	List(ctx context.Context, userID string) ([]models.ProjectListItem, error)
	Get(ctx context.Context, userID, id string) (*models.ProjectDetail, error)
	Create(ctx context.Context, userID string, req *models.CreateProjectRequest) (*models.Project, error)
	Update(ctx context.Context, userID, id string, req *models.UpdateProjectRequest) (*models.Project, error)
	// Delete removes the project and its generated files. Failing to
	// remove the files is logged, the rows are gone either way.
	Delete(ctx context.Context, userID, id string) error
}

type projectService struct {
	projectRepo    repository.ProjectRepository
	templateRepo   repository.TemplateRepository
	deploymentRepo repository.DeploymentRepository
	templates      TemplateService
	layout         scaffold.Layout
	log            *zap.Logger
}

// NewProjectService creates the project service.
func NewProjectService(
	projectRepo repository.ProjectRepository,
	templateRepo repository.TemplateRepository,
	deploymentRepo repository.DeploymentRepository,
	templates TemplateService,
	layout scaffold.Layout,
	log *zap.Logger,
) ProjectService {
	return &projectService{
		projectRepo:    projectRepo,
		templateRepo:   templateRepo,
		deploymentRepo: deploymentRepo,
		templates:      templates,
		layout:         layout,
		log:            log,
	}
}

func (s *projectService) List(ctx context.Context, userID string) ([]models.ProjectListItem, error) {
	projects, err := s.projectRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	latest, err := s.deploymentRepo.LatestByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Projects keep pointing at deactivated templates, so the lookup goes
	// to the repository instead of the active-only TemplateService.
	summaries := make(map[string]*models.TemplateSummary)

	items := make([]models.ProjectListItem, 0, len(projects))
	for _, p := range projects {
		summary, ok := summaries[p.TemplateID]
		if !ok {
			tpl, err := s.templateRepo.GetByID(ctx, p.TemplateID)
			switch {
			case err == nil:
				summary = tpl.Summary()
			case errors.Is(err, pkg.ErrNotFound):
			default:
				return nil, err
			}
			summaries[p.TemplateID] = summary
		}

		item := models.ProjectListItem{
			Project:     p,
			Template:    summary,
			Deployments: []models.Deployment{},
		}
		if d, ok := latest[p.ID]; ok {
			item.Deployments = append(item.Deployments, d)
		}
		items = append(items, item)
	}

	return items, nil
}

func (s *projectService) Get(ctx context.Context, userID, id string) (*models.ProjectDetail, error) {
	project, err := s.projectRepo.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	detail := &models.ProjectDetail{Project: *project}

	tpl, err := s.templateRepo.GetByID(ctx, project.TemplateID)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	detail.Template = tpl

	if detail.Deployments, err = s.deploymentRepo.ListByProject(ctx, project.ID); err != nil {
		return nil, err
	}

	return detail, nil
}

func (s *projectService) Create(ctx context.Context, userID string, req *models.CreateProjectRequest) (*models.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	tpl, err := s.templates.Get(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: template not found or inactive", pkg.ErrBadRequest)
		}
		return nil, err
	}

	var description *string
	if req.Description != "" {
		description = &req.Description
	}

	config := req.Config
	if config == nil {
		config = map[string]any{}
	}

	project := &models.Project{
		UserID:      userID,
		TemplateID:  tpl.ID,
		Name:        req.Name,
		Slug:        models.Slugify(req.Name),
		Description: description,
		Config:      config,
		Status:      models.ProjectStatusCreated,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		if errors.Is(err, pkg.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: a project with slug %q already exists", pkg.ErrAlreadyExists, project.Slug)
		}
		return nil, err
	}

	s.log.Info("project created",
		zap.String("project_id", project.ID),
		zap.String("user_id", userID),
		zap.String("template", tpl.Slug),
	)
	return project, nil
}

func (s *projectService) Update(ctx context.Context, userID, id string, req *models.UpdateProjectRequest) (*models.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	project, err := s.projectRepo.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		if *req.Description == "" {
			project.Description = nil
		} else {
			project.Description = req.Description
		}
	}
	if req.Config != nil {
		project.Config = *req.Config
		if project.Config == nil {
			project.Config = map[string]any{}
		}
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Delete(ctx context.Context, userID, id string) error {
	project, err := s.projectRepo.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return err
	}
	if project.Status == models.ProjectStatusGenerating {
		return fmt.Errorf("%w: project is being generated", pkg.ErrConflict)
	}

	// The files are moved aside before the row goes, so a project created
	// with the same slug right after the delete never loses its output.
	detached, detachErr := s.layout.Detach(project.UserID, project.Slug, project.ID)
	if detachErr != nil {
		s.log.Warn("failed to detach generated files",
			zap.String("project_id", project.ID),
			zap.Error(detachErr),
		)
	}

	if err := s.projectRepo.Delete(ctx, project.ID, userID); err != nil {
		if rerr := s.layout.Reattach(detached, project.UserID, project.Slug); rerr != nil {
			s.log.Warn("failed to restore generated files",
				zap.String("project_id", project.ID),
				zap.Error(rerr),
			)
		}
		return err
	}

	if detached != "" {
		if err := os.RemoveAll(detached); err != nil {
			s.log.Warn("failed to remove generated files",
				zap.String("project_id", project.ID),
				zap.Error(err),
			)
		}
	}

	s.log.Info("project deleted", zap.String("project_id", project.ID), zap.String("user_id", userID))
	return nil
}
