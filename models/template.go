package models

import "time"

// Template is a row of the templates table, seeded from catalog.yaml.
type Template struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description"`
	Type        string            `json:"type"`
	Icon        string            `json:"icon"`
	Category    string            `json:"category"`
	Variables   map[string]string `json:"variables"`
	Metadata    map[string]any    `json:"metadata"`
	IsActive    bool              `json:"isActive"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// TemplateSummary is the subset embedded in project listings.
type TemplateSummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Icon string `json:"icon"`
}

// Summary returns the listing view of t.
func (t *Template) Summary() *TemplateSummary {
	return &TemplateSummary{Name: t.Name, Type: t.Type, Icon: t.Icon}
}
