package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/fitcoach-backend/pkg/config"
	redisclient "github.com/angelmondragon/fitcoach-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("admin session not found")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	Key(space redisclient.Keyspace, parts ...string) string
}

// Manager stores admin sessions in Redis. Each key maps a session id (the JWT
// jti) to the admin id that owns it.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// Checker exposes the read-only surface needed by the authorization gate.
type Checker interface {
	Owner(ctx context.Context, sessionID string) (string, error)
}

// FlagChecker reports whether an admin flag cookie was revoked by logout.
type FlagChecker interface {
	FlagRevoked(ctx context.Context, flagID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.SessionTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Create stores a new session for adminID and returns its id.
func (m *Manager) Create(ctx context.Context, adminID string) (string, error) {
	if strings.TrimSpace(adminID) == "" {
		return "", fmt.Errorf("admin id is required")
	}
	sessionID := NewSessionID()
	if err := m.store.Set(ctx, m.key(sessionID), adminID, m.ttl); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Owner returns the admin id bound to sessionID, or ErrSessionNotFound when
// the session expired or was revoked.
func (m *Manager) Owner(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrSessionNotFound
	}
	owner, err := m.store.Get(ctx, m.key(sessionID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", ErrSessionNotFound
		}
		return "", err
	}
	return owner, nil
}

// Revoke deletes the session.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	return m.store.Del(ctx, m.key(sessionID))
}

// RevokeFlag denies the flag cookie flagID until it would have expired
// anyway. Flags already past expiry need no entry.
func (m *Manager) RevokeFlag(ctx context.Context, flagID string, expiresAt time.Time) error {
	if strings.TrimSpace(flagID) == "" {
		return fmt.Errorf("flag id is required")
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return m.store.Set(ctx, m.flagKey(flagID), "revoked", ttl)
}

func (m *Manager) FlagRevoked(ctx context.Context, flagID string) (bool, error) {
	if strings.TrimSpace(flagID) == "" {
		return false, nil
	}
	if _, err := m.store.Get(ctx, m.flagKey(flagID)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m *Manager) flagKey(flagID string) string {
	return m.keyer.Key(redisclient.KeyspaceSession, "revoked-flag", flagID)
}

func (m *Manager) key(sessionID string) string {
	return m.keyer.Key(redisclient.KeyspaceSession, "admin", sessionID)
}

// TTL reports how long new sessions live.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// NewSessionID produces the identifier used as the JWT jti and Redis key.
func NewSessionID() string {
	return uuid.NewString()
}
