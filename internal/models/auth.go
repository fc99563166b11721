package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types embedded in the typ claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// RefreshTokenRequest exchanges a refresh token for a new session pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// Session is the result of a successful login or refresh.
type Session struct {
	User         *User     `json:"user"`
	ExpiresIn    int64     `json:"expiresIn"`
	RefreshToken string    `json:"refreshToken"`
	Token        string    `json:"-"`
	ExpiresAt    time.Time `json:"-"`
}

// SessionClaims is the payload of both session tokens. Access tokens carry the role,
// refresh tokens carry the username.
type SessionClaims struct {
	UserID   int64    `json:"id"`
	Role     UserRole `json:"role,omitempty"`
	Username string   `json:"username,omitempty"`
	Type     string   `json:"typ"`
	jwt.RegisteredClaims
}

// ExpiresAtTime returns the embedded expiry, or the zero time when absent.
func (c *SessionClaims) ExpiresAtTime() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Expired reports whether the embedded expiry is not after now. Tokens without an expiry are expired.
func (c *SessionClaims) Expired(now time.Time) bool {
	exp := c.ExpiresAtTime()
	return exp.IsZero() || !now.Before(exp)
}
