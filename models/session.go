package models

import "time"

// Session is a refresh-token session. Access tokens are short lived and
// stateless; refresh tokens live in the database so logout can revoke them.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
}
