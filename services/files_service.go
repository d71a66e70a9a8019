package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"unicode/utf8"

	"github.com/akinalp/scaffoldr/models"
	"github.com/akinalp/scaffoldr/pkg"
	"github.com/akinalp/scaffoldr/pkg/scaffold"
	"github.com/akinalp/scaffoldr/repository"
)

// maxFileContentSize caps GET .../file-content; larger files are meant to
// be downloaded.
const maxFileContentSize = 1 << 20

// FilesService reads the generated output of ready projects.
type FilesService interface {
	Tree(ctx context.Context, userID, projectID string) (*models.FileTree, error)
	// WriteZip streams the project as a zip archive to w.
	WriteZip(ctx context.Context, userID, projectID string, w io.Writer) error
	// Prepare resolves a ready project before any bytes are written, so
	// errors can still become a JSON response.
	Prepare(ctx context.Context, userID, projectID string) (*models.Project, error)
	FileContent(ctx context.Context, userID, projectID, filePath string) (*models.FileContent, error)
}

type filesService struct {
	projectRepo repository.ProjectRepository
	layout      scaffold.Layout
}

// NewFilesService creates the files service.
func NewFilesService(projectRepo repository.ProjectRepository, layout scaffold.Layout) FilesService {
	return &filesService{projectRepo: projectRepo, layout: layout}
}

// readyDir returns the output directory of a ready project.
func (s *filesService) readyDir(ctx context.Context, userID, projectID string) (*models.Project, string, error) {
	project, err := s.projectRepo.GetByIDForUser(ctx, projectID, userID)
	if err != nil {
		return nil, "", err
	}

	if project.Status != models.ProjectStatusReady {
		return nil, "", fmt.Errorf("%w: project files not yet generated", pkg.ErrConflict)
	}

	if !s.layout.Exists(project.UserID, project.Slug) {
		return nil, "", fmt.Errorf("%w: project files not found", pkg.ErrNotFound)
	}

	return project, s.layout.ProjectPath(project.UserID, project.Slug), nil
}

func (s *filesService) Tree(ctx context.Context, userID, projectID string) (*models.FileTree, error) {
	_, dir, err := s.readyDir(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	nodes, err := scaffold.Tree(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read project files: %w", err)
	}
	return &models.FileTree{Structure: nodes}, nil
}

func (s *filesService) Prepare(ctx context.Context, userID, projectID string) (*models.Project, error) {
	project, _, err := s.readyDir(ctx, userID, projectID)
	return project, err
}

func (s *filesService) WriteZip(ctx context.Context, userID, projectID string, w io.Writer) error {
	_, dir, err := s.readyDir(ctx, userID, projectID)
	if err != nil {
		return err
	}
	return scaffold.WriteZip(w, dir)
}

func (s *filesService) FileContent(ctx context.Context, userID, projectID, filePath string) (*models.FileContent, error) {
	if filePath == "" {
		return nil, fmt.Errorf("%w: filePath is required", pkg.ErrBadRequest)
	}

	_, dir, err := s.readyDir(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	full, err := scaffold.SafeJoin(dir, filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid file path", pkg.ErrBadRequest)
	}

	info, err := os.Lstat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: file not found", pkg.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: not a regular file", pkg.ErrBadRequest)
	}
	if info.Size() > maxFileContentSize {
		return nil, fmt.Errorf("%w: file is too large to display, download the project instead", pkg.ErrBadRequest)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: binary file cannot be displayed", pkg.ErrBadRequest)
	}

	return &models.FileContent{
		Path:     filePath,
		Content:  string(data),
		Size:     info.Size(),
		Modified: info.ModTime().UTC(),
	}, nil
}
