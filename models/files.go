package models

import (
	"time"

	"github.com/akinalp/scaffoldr/pkg/scaffold"
)

// FileContent is the body of GET /api/projects/{id}/file-content.
type FileContent struct {
	Path     string    `json:"path"`
	Content  string    `json:"content"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// FileTree is the body of GET /api/projects/{id}/files.
type FileTree struct {
	Structure []scaffold.Node `json:"structure"`
}
