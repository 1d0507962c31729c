package admin

import (
	"time"

	"github.com/google/uuid"
)

// LoginRequest captures the credentials sent to the admin login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult holds the two signed cookies issued on login.
type LoginResult struct {
	AdminID      uuid.UUID `json:"admin_id"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expires_at"`
	SessionToken string    `json:"-"`
	FlagToken    string    `json:"-"`
}
