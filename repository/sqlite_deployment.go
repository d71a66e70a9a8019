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

type sqliteDeploymentRepo struct {
	db database.TxQuerier
}

// NewSQLiteDeploymentRepo returns the SQLite DeploymentRepository.
func NewSQLiteDeploymentRepo(db database.TxQuerier) DeploymentRepository {
	return &sqliteDeploymentRepo{db: db}
}

const deploymentColumns = `id, project_id, environment, status, deployment_url, triggered_by, logs, created_at, updated_at`

func scanDeployment(s scanner) (*models.Deployment, error) {
	d := &models.Deployment{}
	err := s.Scan(
		&d.ID, &d.ProjectID, &d.Environment, &d.Status, &d.DeploymentURL,
		&d.TriggeredBy, &d.Logs, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

func (r *sqliteDeploymentRepo) Create(ctx context.Context, d *models.Deployment) error {
	d.ID = newID()
	d.CreatedAt = now()
	d.UpdatedAt = d.CreatedAt
	if d.Status == "" {
		d.Status = models.DeploymentStatusPending
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO deployments (id, project_id, environment, status, deployment_url, triggered_by, logs, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ProjectID, d.Environment, d.Status, d.DeploymentURL,
		d.TriggeredBy, d.Logs, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deployment: %w", err)
	}
	return nil
}

func (r *sqliteDeploymentRepo) GetByID(ctx context.Context, projectID, id string) (*models.Deployment, error) {
	d, err := scanDeployment(r.db.QueryRowContext(ctx,
		`SELECT `+deploymentColumns+` FROM deployments WHERE id = ? AND project_id = ?`, id, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: deployment not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deployment: %w", err)
	}
	return d, nil
}

func (r *sqliteDeploymentRepo) ListByProject(ctx context.Context, projectID string) ([]models.Deployment, error) {
	return r.list(ctx,
		`SELECT `+deploymentColumns+` FROM deployments WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`,
		projectID)
}

func (r *sqliteDeploymentRepo) LatestByUser(ctx context.Context, userID string) (map[string]models.Deployment, error) {
	deployments, err := r.list(ctx, `
		SELECT `+deploymentColumns+` FROM (
			SELECT d.*, ROW_NUMBER() OVER (
				PARTITION BY d.project_id ORDER BY d.created_at DESC, d.rowid DESC
			) AS rn
			FROM deployments d
			JOIN projects p ON p.id = d.project_id
			WHERE p.user_id = ?
		) WHERE rn = 1`, userID)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]models.Deployment, len(deployments))
	for _, d := range deployments {
		latest[d.ProjectID] = d
	}
	return latest, nil
}

func (r *sqliteDeploymentRepo) list(ctx context.Context, query string, args ...any) ([]models.Deployment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	defer rows.Close()

	deployments := []models.Deployment{}
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}
		deployments = append(deployments, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deployments: %w", err)
	}
	return deployments, nil
}

func (r *sqliteDeploymentRepo) Advance(ctx context.Context, id string, status models.DeploymentStatus, logLine string, url *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE deployments
		SET status = ?, logs = logs || ?, deployment_url = COALESCE(?, deployment_url), updated_at = ?
		WHERE id = ?`,
		status, logLine, url, now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update deployment: %w", err)
	}
	return requireAffected(res, pkg.ErrNotFound)
}

func (r *sqliteDeploymentRepo) FailUnfinished(ctx context.Context, logLine string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE deployments SET status = ?, logs = logs || ?, updated_at = ?
		WHERE status IN (?, ?, ?)`,
		models.DeploymentStatusFailed, logLine, now(),
		models.DeploymentStatusPending, models.DeploymentStatusBuilding, models.DeploymentStatusDeploying,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to fail unfinished deployments: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
