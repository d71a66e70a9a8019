// Package handlers turns HTTP requests into service calls.
//
// Handlers stay thin: decode the request, call one service method, write
// the result with pkg.JSON or pkg.Error. No business logic, no SQL.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/scaffoldr/models"
	"github.com/akinalp/scaffoldr/pkg"
)

// contextKey is a private type so context values cannot collide with other
// packages.
type contextKey string

// UserContextKey holds the authenticated *models.User, set by
// middleware.AuthMiddleware.
const UserContextKey contextKey = "user"

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// currentUser returns the authenticated user or writes a 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return nil, false
	}
	return user, true
}

// decodeBody decodes a JSON body into v or writes a 400.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
