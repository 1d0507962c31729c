package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/fitcoach-backend/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
)

// EventGuard remembers reconciled Stripe event ids so duplicate deliveries
// are acknowledged without reprocessing.
type EventGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

func NewEventGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*EventGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &EventGuard{store: store, ttl: ttl, scope: scope}, nil
}

// Seen reports whether eventID was already reconciled. The marker is only
// written by Mark after processing succeeds, so a delivery that failed,
// panicked or was cut off never hides its retry.
func (g *EventGuard) Seen(ctx context.Context, eventID string) (bool, error) {
	if strings.TrimSpace(eventID) == "" {
		return false, errors.New("event id is required")
	}
	_, err := g.store.Get(ctx, g.key(eventID))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redislib.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("lookup stripe event %s: %w", eventID, err)
	}
}

// Mark records eventID as reconciled for the guard's ttl.
func (g *EventGuard) Mark(ctx context.Context, eventID string) error {
	if strings.TrimSpace(eventID) == "" {
		return errors.New("event id is required")
	}
	if err := g.store.Set(ctx, g.key(eventID), "1", g.ttl); err != nil {
		return fmt.Errorf("mark stripe event %s: %w", eventID, err)
	}
	return nil
}

func (g *EventGuard) key(eventID string) string {
	return g.store.Key(redis.KeyspaceWebhook, g.scope, eventID)
}
