package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// ProjectStatus is the lifecycle state of a project:
//
//	created -> generating -> ready
//	                      -> error -> generating (retry)
type ProjectStatus string

const (
	ProjectStatusCreated    ProjectStatus = "created"
	ProjectStatusGenerating ProjectStatus = "generating"
	ProjectStatusReady      ProjectStatus = "ready"
	ProjectStatusError      ProjectStatus = "error"
)

// CanGenerate reports whether generation may start from s.
func (s ProjectStatus) CanGenerate() bool {
	return s == ProjectStatusCreated || s == ProjectStatusError
}

// Project is a user's instance of a template.
type Project struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	TemplateID   string         `json:"templateId"`
	Name         string         `json:"name"`
	Slug         string         `json:"slug"`
	Description  *string        `json:"description"`
	Config       map[string]any `json:"config"`
	Status       ProjectStatus  `json:"status"`
	RepoURL      *string        `json:"repoUrl"`
	ErrorMessage *string        `json:"errorMessage,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ProjectListItem is one entry of GET /api/projects.
type ProjectListItem struct {
	Project
	Template    *TemplateSummary `json:"template"`
	Deployments []Deployment     `json:"deployments"` // latest only
}

// ProjectDetail is GET /api/projects/{id}.
type ProjectDetail struct {
	Project
	Template    *Template    `json:"template"`
	Deployments []Deployment `json:"deployments"` // newest first
}

// GenerationStarted is the 202 body of POST /api/projects/{id}/generate.
type GenerationStarted struct {
	ProjectID string        `json:"projectId"`
	Status    ProjectStatus `json:"status"`
}

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	slugDisallowed = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slugify derives a project slug from its name: lower-case, whitespace runs
// become "-", anything outside [a-z0-9-] is dropped. The result may be
// empty; callers reject that.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = whitespaceRun.ReplaceAllString(s, "-")
	return slugDisallowed.ReplaceAllString(s, "")
}

const maxProjectNameLength = 100

// CreateProjectRequest is the body of POST /api/projects.
type CreateProjectRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	TemplateID  string         `json:"templateId"`
	Config      map[string]any `json:"config"`
}

// Validate trims and checks the request.
func (r *CreateProjectRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(r.Name) > maxProjectNameLength {
		return fmt.Errorf("name must be at most %d characters", maxProjectNameLength)
	}
	if Slugify(r.Name) == "" {
		return fmt.Errorf("name must contain at least one letter or digit")
	}

	r.TemplateID = strings.TrimSpace(r.TemplateID)
	if r.TemplateID == "" {
		return fmt.Errorf("templateId is required")
	}

	r.Description = strings.TrimSpace(r.Description)
	return nil
}

// UpdateProjectRequest is the body of PUT /api/projects/{id}. Nil fields
// are left unchanged. The slug never changes: it names the output
// directory.
type UpdateProjectRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Config      *map[string]any `json:"config"`
}

// Validate checks the fields that are present.
func (r *UpdateProjectRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return fmt.Errorf("name cannot be empty")
		}
		if utf8.RuneCountInString(name) > maxProjectNameLength {
			return fmt.Errorf("name must be at most %d characters", maxProjectNameLength)
		}
		r.Name = &name
	}
	if r.Description != nil {
		desc := strings.TrimSpace(*r.Description)
		r.Description = &desc
	}
	return nil
}
