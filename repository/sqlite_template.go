package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/akinalp/scaffoldr/database"
	"github.com/akinalp/scaffoldr/models"
	"github.com/akinalp/scaffoldr/pkg"
)

type sqliteTemplateRepo struct {
	db database.TxQuerier
}

// NewSQLiteTemplateRepo returns the SQLite TemplateRepository.
func NewSQLiteTemplateRepo(db database.TxQuerier) TemplateRepository {
	return &sqliteTemplateRepo{db: db}
}

const templateColumns = `id, name, slug, description, type, icon, category, variables, metadata, is_active, created_at, updated_at`

func scanTemplate(s scanner) (*models.Template, error) {
	t := &models.Template{}
	var variables, metadata string
	if err := s.Scan(
		&t.ID, &t.Name, &t.Slug, &t.Description, &t.Type, &t.Icon, &t.Category,
		&variables, &metadata, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if t.Variables, err = decodeJSON[string](variables); err != nil {
		return nil, err
	}
	if t.Metadata, err = decodeJSON[any](metadata); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *sqliteTemplateRepo) Upsert(ctx context.Context, t *models.Template) error {
	variables, err := encodeJSON(t.Variables)
	if err != nil {
		return err
	}
	metadata, err := encodeJSON(t.Metadata)
	if err != nil {
		return err
	}

	ts := now()
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO templates (id, name, slug, description, type, icon, category, variables, metadata, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			type = excluded.type,
			icon = excluded.icon,
			category = excluded.category,
			variables = excluded.variables,
			metadata = excluded.metadata,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
		RETURNING id, created_at, updated_at`,
		newID(), t.Name, t.Slug, t.Description, t.Type, t.Icon, t.Category,
		variables, metadata, t.IsActive, ts, ts,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert template %s: %w", t.Slug, err)
	}

	return nil
}

func (r *sqliteTemplateRepo) DeactivateExcept(ctx context.Context, slugs []string) (int64, error) {
	query := `UPDATE templates SET is_active = 0, updated_at = ? WHERE is_active = 1`
	args := []any{now()}
	if len(slugs) > 0 {
		query += ` AND slug NOT IN (?` + strings.Repeat(", ?", len(slugs)-1) + `)`
		for _, s := range slugs {
			args = append(args, s)
		}
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate templates: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *sqliteTemplateRepo) ListActive(ctx context.Context) ([]models.Template, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate templates: %w", err)
	}

	return templates, nil
}

func (r *sqliteTemplateRepo) GetByID(ctx context.Context, id string) (*models.Template, error) {
	return r.getOne(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = ?`, id)
}

func (r *sqliteTemplateRepo) GetBySlug(ctx context.Context, slug string) (*models.Template, error) {
	return r.getOne(ctx, `SELECT `+templateColumns+` FROM templates WHERE slug = ?`, slug)
}

func (r *sqliteTemplateRepo) getOne(ctx context.Context, query string, arg string) (*models.Template, error) {
	t, err := scanTemplate(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}
