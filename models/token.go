package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the payload of an access token. It lives in models because
// services, middleware and ws all need it.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthTokens is returned by register, login and refresh.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// RefreshRequest is the body of refresh and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
