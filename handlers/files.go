package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/akinalp/scaffoldr/pkg"
	"github.com/akinalp/scaffoldr/services"
)

// FilesHandler serves the generated output of a ready project.
type FilesHandler struct {
	filesService services.FilesService
	log          *zap.Logger
}

// NewFilesHandler creates the handler.
func NewFilesHandler(filesService services.FilesService, log *zap.Logger) *FilesHandler {
	return &FilesHandler{filesService: filesService, log: log}
}

// Tree handles GET /api/projects/{id}/files.
func (h *FilesHandler) Tree(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	tree, err := h.filesService.Tree(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tree)
}

// Download handles GET /api/projects/{id}/download.
//
// The archive is streamed, so once the first byte is written an error can
// only be logged; the client sees a truncated zip.
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	projectID := r.PathValue("id")
	project, err := h.filesService.Prepare(r.Context(), user.ID, projectID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", project.Slug+".zip"))
	w.WriteHeader(http.StatusOK)

	if err := h.filesService.WriteZip(r.Context(), user.ID, projectID, w); err != nil {
		h.log.Error("zip download failed", zap.String("project_id", projectID), zap.Error(err))
	}
}

// FileContent handles GET /api/projects/{id}/file-content?filePath=...
func (h *FilesHandler) FileContent(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	content, err := h.filesService.FileContent(r.Context(), user.ID, r.PathValue("id"), r.URL.Query().Get("filePath"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, content)
}
