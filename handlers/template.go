package handlers

import (
	"net/http"

	"github.com/akinalp/scaffoldr/pkg"
	"github.com/akinalp/scaffoldr/services"
)

// TemplateHandler serves the public template catalog.
type TemplateHandler struct {
	templateService services.TemplateService
}

// NewTemplateHandler creates the handler.
func NewTemplateHandler(templateService services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// List handles GET /api/templates.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templateService.List(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, templates)
}

// Get handles GET /api/templates/{id}; {id} may also be a slug.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	template, err := h.templateService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, template)
}
