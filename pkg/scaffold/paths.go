package scaffold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a relative path resolves outside its root.
var ErrPathEscape = errors.New("path escapes project directory")

// Layout decides where generated projects live on disk:
//
//	<Root>/<ownerID>/<slug>
//
// Slugs are unique per owner only, so the owner is part of the path.
type Layout struct {
	Root string
}

// ProjectPath returns the output directory of a project.
func (l Layout) ProjectPath(ownerID, slug string) string {
	return filepath.Join(l.Root, ownerID, slug)
}

// Exists reports whether the project directory is present.
func (l Layout) Exists(ownerID, slug string) bool {
	info, err := os.Stat(l.ProjectPath(ownerID, slug))
	return err == nil && info.IsDir()
}

// Remove deletes a project directory. A missing directory is not an error.
func (l Layout) Remove(ownerID, slug string) error {
	if ownerID == "" || slug == "" {
		return fmt.Errorf("refusing to remove with empty owner or slug")
	}
	return os.RemoveAll(l.ProjectPath(ownerID, slug))
}

// Detach moves a project directory aside, under a dot name no slug can
// take, so the slug path is free for a new project at once. key must be
// unique per project. It returns "" when there is no directory.
func (l Layout) Detach(ownerID, slug, key string) (string, error) {
	if ownerID == "" || slug == "" || key == "" {
		return "", fmt.Errorf("refusing to detach with empty owner, slug or key")
	}

	detached := filepath.Join(l.Root, ownerID, ".deleted-"+key)
	if err := os.RemoveAll(detached); err != nil {
		return "", err
	}
	if err := os.Rename(l.ProjectPath(ownerID, slug), detached); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return detached, nil
}

// Reattach undoes Detach. If the slug path was taken in the meantime the
// detached copy is dropped instead.
func (l Layout) Reattach(detached, ownerID, slug string) error {
	if detached == "" {
		return nil
	}
	if l.Exists(ownerID, slug) {
		return os.RemoveAll(detached)
	}
	return os.Rename(detached, l.ProjectPath(ownerID, slug))
}

// SafeJoin resolves rel against root and rejects anything that lands
// outside root, including "../" sequences and absolute paths elsewhere.
func SafeJoin(root, rel string) (string, error) {
	root = filepath.Clean(root)

	var full string
	if filepath.IsAbs(rel) {
		full = filepath.Clean(rel)
	} else {
		full = filepath.Join(root, rel)
	}

	r, err := filepath.Rel(root, full)
	if err != nil {
		return "", ErrPathEscape
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", ErrPathEscape
	}

	return full, nil
}
