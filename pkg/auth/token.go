package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/fitcoach-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintSessionToken issues the signed admin_session JWT. An empty SessionID is
// replaced with a fresh uuid.
func MintSessionToken(cfg config.JWTConfig, now time.Time, payload SessionTokenPayload) (string, string, error) {
	if err := validateSigningConfig(cfg); err != nil {
		return "", "", err
	}
	if payload.AdminID == uuid.Nil {
		return "", "", fmt.Errorf("admin id is required")
	}

	sessionID := strings.TrimSpace(payload.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	claims := SessionClaims{
		AdminID:          payload.AdminID,
		Kind:             TokenKindSession,
		RegisteredClaims: registeredClaims(cfg, now, sessionID),
	}
	signed, err := sign(cfg, claims)
	if err != nil {
		return "", "", err
	}
	return signed, sessionID, nil
}

// ParseSessionToken validates the admin_session JWT and returns typed claims.
func ParseSessionToken(cfg config.JWTConfig, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := parse(cfg, tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Kind != TokenKindSession {
		return nil, fmt.Errorf("unexpected token kind %q", claims.Kind)
	}
	if claims.AdminID == uuid.Nil || claims.ID == "" {
		return nil, fmt.Errorf("session token missing admin or session id")
	}
	return claims, nil
}

// MintAdminFlagToken issues the signed admin_authenticated flag. It expires
// together with the session.
func MintAdminFlagToken(cfg config.JWTConfig, now time.Time) (string, error) {
	if err := validateSigningConfig(cfg); err != nil {
		return "", err
	}
	claims := FlagClaims{
		Admin:            true,
		Kind:             TokenKindAdminFlag,
		RegisteredClaims: registeredClaims(cfg, now, uuid.NewString()),
	}
	return sign(cfg, claims)
}

// ParseAdminFlagToken validates the flag token and returns its claims. The
// registered ID is the handle used to revoke the flag on logout.
func ParseAdminFlagToken(cfg config.JWTConfig, tokenString string) (*FlagClaims, error) {
	claims := &FlagClaims{}
	if err := parse(cfg, tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Kind != TokenKindAdminFlag {
		return nil, fmt.Errorf("unexpected token kind %q", claims.Kind)
	}
	if !claims.Admin {
		return nil, fmt.Errorf("flag does not assert admin access")
	}
	return claims, nil
}

func validateSigningConfig(cfg config.JWTConfig) error {
	if cfg.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return fmt.Errorf("jwt issuer is required")
	}
	return nil
}

func registeredClaims(cfg config.JWTConfig, now time.Time, id string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.SessionTTL())),
		ID:        id,
	}
}

func sign(cfg config.JWTConfig, claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

func parse(cfg config.JWTConfig, tokenString string, claims jwt.Claims) error {
	if cfg.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	return err
}
