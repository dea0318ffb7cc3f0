// Package auth implements staff accounts and token lifecycle: signup,
// login, and logout with revocation.
package auth

import (
	"strings"
	"time"

	dErrors "clinica/pkg/domain-errors"
)

// User is a staff account. Accounts are administrative, not patient-facing.
type User struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"`
	Admin          bool       `json:"admin"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// SignupRequest is the payload for account creation.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Admin    bool   `json:"admin"`
}

const minPasswordLength = 8

func (r *SignupRequest) Normalize() {
	r.Username = strings.TrimSpace(strings.ToLower(r.Username))
	r.Email = strings.TrimSpace(r.Email)
}

func (r SignupRequest) Validate() error {
	if r.Username == "" {
		return dErrors.New(dErrors.CodeBadRequest, "username is required")
	}
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeBadRequest, "a valid email is required")
	}
	if len(r.Password) < minPasswordLength {
		return dErrors.New(dErrors.CodeBadRequest, "password must be at least 8 characters")
	}
	return nil
}

// LoginRequest is the payload for credential exchange.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the wire shape of a successful login.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
