package handlers

import (
	"net/http"

	"github.com/akinalp/scaffoldr/models"
	"github.com/akinalp/scaffoldr/pkg"
	"github.com/akinalp/scaffoldr/services"
)

// ProjectHandler serves /api/projects and starts generation.
type ProjectHandler struct {
	projectService   services.ProjectService
	generatorService services.GeneratorService
}

// NewProjectHandler creates the handler.
func NewProjectHandler(projectService services.ProjectService, generatorService services.GeneratorService) *ProjectHandler {
	return &ProjectHandler{
		projectService:   projectService,
		generatorService: generatorService,
	}
}

// List handles GET /api/projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	projects, err := h.projectService.List(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, projects)
}

// Get handles GET /api/projects/{id}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	project, err := h.projectService.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, project)
}

// Create handles POST /api/projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	project, err := h.projectService.Create(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, project)
}

// Update handles PUT /api/projects/{id}.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	project, err := h.projectService.Update(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, project)
}

// Delete handles DELETE /api/projects/{id}.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.projectService.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Generate handles POST /api/projects/{id}/generate. It answers 202 as
// soon as the project is marked generating; progress arrives over the
// WebSocket as project_update events.
func (h *ProjectHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	started, err := h.generatorService.Generate(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusAccepted, started)
}
