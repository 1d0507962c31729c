package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind separates the two cookies signed with the same secret so one can
// never be replayed as the other.
type TokenKind string

const (
	TokenKindSession   TokenKind = "admin_session"
	TokenKindAdminFlag TokenKind = "admin_flag"
)

// SessionTokenPayload captures the data available when minting a session JWT.
type SessionTokenPayload struct {
	AdminID   uuid.UUID
	SessionID string
}

// SessionClaims is the typed JWT stored in the admin_session cookie. The
// registered ID carries the Redis session id.
type SessionClaims struct {
	AdminID uuid.UUID `json:"admin_id"`
	Kind    TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// FlagClaims is the typed JWT stored in the admin_authenticated cookie.
type FlagClaims struct {
	Admin bool      `json:"admin"`
	Kind  TokenKind `json:"kind"`
	jwt.RegisteredClaims
}
