// Package scaffold implements the template instantiation pipeline's file
// work: locating a template, copying its tree, substituting {{PLACEHOLDER}}
// tokens, initializing a git repository, and reading the result back
// (directory tree, zip archive, single file).
//
// The package is a leaf: it knows nothing about projects, users or the
// database. services.GeneratorService drives it and records the status.
package scaffold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// CatalogFile is the name of the template catalog at the store root.
const CatalogFile = "catalog.yaml"

// ErrTemplateNotFound is returned when a slug has no template directory.
var ErrTemplateNotFound = errors.New("template not found")

// Store is a read-only set of template directories, one per slug:
//
//	<root>/catalog.yaml
//	<root>/landing-page/...
//	<root>/api-service/...
//
// The root is any fs.FS, so the same code serves the templates embedded in
// the binary and an on-disk directory set through TEMPLATES_DIR.
type Store struct {
	fsys fs.FS
	dir  string
}

// NewStore wraps an fs.FS (typically templates.FS).
func NewStore(fsys fs.FS) *Store {
	return &Store{fsys: fsys}
}

// NewDirStore opens an on-disk template directory.
func NewDirStore(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open template directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template path %s is not a directory", dir)
	}
	return &Store{fsys: os.DirFS(dir), dir: dir}, nil
}

// Dir returns the on-disk root, or "" for an embedded store.
func (s *Store) Dir() string {
	return s.dir
}

// Exists reports whether slug names a template directory.
func (s *Store) Exists(slug string) bool {
	if !validSlug(slug) {
		return false
	}
	info, err := fs.Stat(s.fsys, slug)
	return err == nil && info.IsDir()
}

// Open returns the file tree of the template rooted at its directory.
func (s *Store) Open(slug string) (fs.FS, error) {
	if !s.Exists(slug) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, slug)
	}
	return fs.Sub(s.fsys, slug)
}

// Catalog reads and parses catalog.yaml.
func (s *Store) Catalog() ([]CatalogEntry, error) {
	f, err := s.fsys.Open(CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", CatalogFile, err)
	}
	defer f.Close()

	return ParseCatalog(f)
}

// validSlug accepts a single, non-hidden path element.
func validSlug(slug string) bool {
	return slug != "" &&
		fs.ValidPath(slug) &&
		!strings.ContainsAny(slug, `/\`) &&
		!strings.HasPrefix(slug, ".")
}
