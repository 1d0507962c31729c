package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/fitcoach-backend/pkg/config"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const namespace = "fc"

// Keyspace groups the keys one feature owns.
type Keyspace string

const (
	KeyspaceSession   Keyspace = "session"
	KeyspaceWebhook   Keyspace = "webhook"
	KeyspaceRateLimit Keyspace = "ratelimit"
)

var errNotInitialized = errors.New("redis client not initialized")

type commands interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Incr(context.Context, string) *redis.IntCmd
	PExpire(context.Context, string, time.Duration) *redis.BoolCmd
	PTTL(context.Context, string) *redis.DurationCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client holds admin sessions, webhook event markers and login counters.
type Client struct {
	cmd  commands
	conn *redis.Client
}

// IdempotencyStore is the marker surface used by the webhook event guard.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Key(space Keyspace, parts ...string) string
}

// Window is the state of a fixed-window counter after a hit.
type Window struct {
	Count   int64
	ResetIn time.Duration
}

func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	conn := redis.NewClient(opts)
	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"addr": opts.Addr, "db": opts.DB}), "redis connection established")
	}
	return &Client{cmd: conn, conn: conn}, nil
}

// options prefers FITCOACH_REDIS_URL and lets the discrete settings fill
// whatever the URL leaves unset.
func options(cfg config.RedisConfig) (*redis.Options, error) {
	opts := &redis.Options{Addr: cfg.Address, Password: cfg.Password}
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	if opts.Addr == "" {
		return nil, errors.New("redis url or address is required")
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	opts.PoolSize = firstPositive(opts.PoolSize, cfg.PoolSize)
	opts.MinIdleConns = firstPositive(opts.MinIdleConns, cfg.MinIdleConns)
	opts.DialTimeout = firstPositive(opts.DialTimeout, cfg.DialTimeout)
	opts.ReadTimeout = firstPositive(opts.ReadTimeout, cfg.ReadTimeout)
	opts.WriteTimeout = firstPositive(opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func firstPositive[T int | time.Duration](current, fallback T) T {
	if current > 0 {
		return current
	}
	return fallback
}

// Key builds fc:<space>:<parts...>, skipping blank parts.
func (c *Client) Key(space Keyspace, parts ...string) string {
	segments := make([]string, 0, len(parts)+2)
	segments = append(segments, namespace, string(space))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			segments = append(segments, part)
		}
	}
	return strings.Join(segments, ":")
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.cmd == nil {
		return errNotInitialized
	}
	return c.cmd.Set(ctx, key, value, ttl).Err()
}

// Get returns redis.Nil when the key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.cmd == nil {
		return "", errNotInitialized
	}
	return c.cmd.Get(ctx, key).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.cmd == nil {
		return errNotInitialized
	}
	if len(keys) == 0 {
		return nil
	}
	return c.cmd.Del(ctx, keys...).Err()
}

// Hit counts one request against the fixed window stored at key. The window
// starts on the first hit and the reset time comes from the key's TTL.
func (c *Client) Hit(ctx context.Context, key string, window time.Duration) (Window, error) {
	if c.cmd == nil {
		return Window{}, errNotInitialized
	}
	count, err := c.cmd.Incr(ctx, key).Result()
	if err != nil {
		return Window{}, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := c.cmd.PExpire(ctx, key, window).Err(); err != nil {
			return Window{Count: count}, fmt.Errorf("expire %s: %w", key, err)
		}
		return Window{Count: count, ResetIn: window}, nil
	}
	ttl, err := c.cmd.PTTL(ctx, key).Result()
	if err != nil {
		return Window{Count: count}, fmt.Errorf("pttl %s: %w", key, err)
	}
	if ttl < 0 {
		// A counter without expiry would block forever; restart its window.
		if err := c.cmd.PExpire(ctx, key, window).Err(); err != nil {
			return Window{Count: count}, fmt.Errorf("expire %s: %w", key, err)
		}
		ttl = window
	}
	return Window{Count: count, ResetIn: ttl}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c.cmd == nil {
		return errNotInitialized
	}
	return c.cmd.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
