package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/scaffoldr/database"
	"github.com/akinalp/scaffoldr/models"
	"github.com/akinalp/scaffoldr/pkg"
)

type sqliteProjectRepo struct {
	db database.TxQuerier
}

// NewSQLiteProjectRepo returns the SQLite ProjectRepository.
func NewSQLiteProjectRepo(db database.TxQuerier) ProjectRepository {
	return &sqliteProjectRepo{db: db}
}

const projectColumns = `id, user_id, template_id, name, slug, description, config, status, repo_url, error_message, created_at, updated_at`

func scanProject(s scanner) (*models.Project, error) {
	p := &models.Project{}
	var config string
	if err := s.Scan(
		&p.ID, &p.UserID, &p.TemplateID, &p.Name, &p.Slug, &p.Description,
		&config, &p.Status, &p.RepoURL, &p.ErrorMessage, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if p.Config, err = decodeJSON[any](config); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *sqliteProjectRepo) Create(ctx context.Context, p *models.Project) error {
	config, err := encodeJSON(p.Config)
	if err != nil {
		return err
	}

	p.ID = newID()
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	if p.Status == "" {
		p.Status = models.ProjectStatusCreated
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO projects (id, user_id, template_id, name, slug, description, config, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.TemplateID, p.Name, p.Slug, p.Description,
		config, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: a project with this name already exists", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

func (r *sqliteProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

func (r *sqliteProjectRepo) GetByIDForUser(ctx context.Context, id, userID string) (*models.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: project not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

func (r *sqliteProjectRepo) ListByUser(ctx context.Context, userID string) ([]models.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projects, nil
}

func (r *sqliteProjectRepo) Update(ctx context.Context, p *models.Project) error {
	config, err := encodeJSON(p.Config)
	if err != nil {
		return err
	}

	p.UpdatedAt = now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, description = ?, config = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		p.Name, p.Description, config, p.UpdatedAt, p.ID, p.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return requireAffected(res, fmt.Errorf("%w: project not found", pkg.ErrNotFound))
}

func (r *sqliteProjectRepo) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE id = ? AND user_id = ? AND status != ?`,
		id, userID, models.ProjectStatusGenerating)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// Nothing deleted: tell "missing" apart from "busy".
	if _, err := r.GetByIDForUser(ctx, id, userID); err != nil {
		return err
	}
	return fmt.Errorf("%w: project is being generated", pkg.ErrConflict)
}

func (r *sqliteProjectRepo) BeginGeneration(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET status = ?, error_message = NULL, updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		models.ProjectStatusGenerating, now(), id,
		models.ProjectStatusCreated, models.ProjectStatusError,
	)
	if err != nil {
		return fmt.Errorf("failed to start generation: %w", err)
	}
	return requireAffected(res, fmt.Errorf("%w: project is already generating or generated", pkg.ErrConflict))
}

func (r *sqliteProjectRepo) MarkReady(ctx context.Context, id, repoURL string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET status = ?, repo_url = ?, error_message = NULL, updated_at = ?
		WHERE id = ?`,
		models.ProjectStatusReady, repoURL, now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark project ready: %w", err)
	}
	return requireAffected(res, pkg.ErrNotFound)
}

func (r *sqliteProjectRepo) MarkError(ctx context.Context, id, message string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ?`,
		models.ProjectStatusError, message, now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark project failed: %w", err)
	}
	return requireAffected(res, pkg.ErrNotFound)
}

func (r *sqliteProjectRepo) FailInterrupted(ctx context.Context, message string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET status = ?, error_message = ?, updated_at = ?
		WHERE status = ?`,
		models.ProjectStatusError, message, now(), models.ProjectStatusGenerating,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reset interrupted generations: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// requireAffected returns notFound when res touched no rows.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
