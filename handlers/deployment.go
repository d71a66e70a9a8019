package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/akinalp/scaffoldr/models"
	"github.com/akinalp/scaffoldr/pkg"
	"github.com/akinalp/scaffoldr/services"
)

// DeploymentHandler serves /api/projects/{projectId}/deployments.
type DeploymentHandler struct {
	deploymentService services.DeploymentService
}

// NewDeploymentHandler creates the handler.
func NewDeploymentHandler(deploymentService services.DeploymentService) *DeploymentHandler {
	return &DeploymentHandler{deploymentService: deploymentService}
}

// List handles GET /api/projects/{projectId}/deployments.
func (h *DeploymentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	deployments, err := h.deploymentService.List(r.Context(), user.ID, r.PathValue("projectId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, deployments)
}

// Get handles GET /api/projects/{projectId}/deployments/{deploymentId}.
func (h *DeploymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	deployment, err := h.deploymentService.Get(r.Context(), user.ID, r.PathValue("projectId"), r.PathValue("deploymentId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, deployment)
}

// Create handles POST /api/projects/{projectId}/deployments. The body is
// optional; environment defaults to production.
func (h *DeploymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateDeploymentRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := decodeOptional(r.Body, &req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	deployment, err := h.deploymentService.Create(r.Context(), user.ID, r.PathValue("projectId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, deployment)
}

// decodeOptional is json decoding that accepts an empty body.
func decodeOptional(body io.Reader, v any) error {
	err := json.NewDecoder(body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
