package scaffold

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// CatalogEntry describes one template in catalog.yaml. The entry is the
// source of truth for the templates table, which is upserted by slug.
type CatalogEntry struct {
	Name        string            `yaml:"name"`
	Slug        string            `yaml:"slug"`
	Description string            `yaml:"description"`
	Type        string            `yaml:"type"`
	Icon        string            `yaml:"icon"`
	Category    string            `yaml:"category"`
	Variables   map[string]string `yaml:"variables"`
	Metadata    map[string]any    `yaml:"metadata"`
	// Inactive templates are kept in the table but hidden from listings.
	Inactive bool `yaml:"inactive"`
}

type catalogDocument struct {
	Templates []CatalogEntry `yaml:"templates"`
}

// ParseCatalog decodes a catalog document and validates every entry.
func ParseCatalog(r io.Reader) ([]CatalogEntry, error) {
	var doc catalogDocument

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse template catalog: %w", err)
	}

	seen := make(map[string]bool, len(doc.Templates))
	for i, entry := range doc.Templates {
		if entry.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: name is required", i)
		}
		if !validSlug(entry.Slug) {
			return nil, fmt.Errorf("catalog entry %q: invalid slug %q", entry.Name, entry.Slug)
		}
		if seen[entry.Slug] {
			return nil, fmt.Errorf("catalog entry %q: duplicate slug %q", entry.Name, entry.Slug)
		}
		seen[entry.Slug] = true
	}

	return doc.Templates, nil
}
