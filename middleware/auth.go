// Package middleware holds the http.Handler wrappers of the API.
//
// A middleware is a func(next http.Handler) http.Handler: it does its
// check and either calls next or writes the response itself.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/scaffoldr/handlers"
	"github.com/akinalp/scaffoldr/pkg"
	"github.com/akinalp/scaffoldr/repository"
	"github.com/akinalp/scaffoldr/services"
)

// AuthMiddleware requires a valid access token.
type AuthMiddleware struct {
	authService services.AuthService
	userRepo    repository.UserRepository
}

// NewAuthMiddleware creates the middleware.
func NewAuthMiddleware(authService services.AuthService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
	}
}

// Require reads "Authorization: Bearer <token>", validates it, loads the
// user and stores it under handlers.UserContextKey. Anything missing or
// invalid is a 401 and next is not called.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}

		claims, err := m.authService.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		// The token may outlive the account.
		user, err := m.userRepo.GetByID(r.Context(), claims.UserID)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
			return
		}
		user.PasswordHash = ""

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
