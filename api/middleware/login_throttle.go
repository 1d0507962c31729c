package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/fitcoach-backend/api/responses"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"github.com/angelmondragon/fitcoach-backend/pkg/redis"
)

const maxLoginBody = 16 << 10

type windowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (redis.Window, error)
	Key(space redis.Keyspace, parts ...string) string
}

// LoginPolicy caps login attempts per client IP and per submitted email
// inside a fixed window. A zero limit disables that dimension.
type LoginPolicy struct {
	Name       string
	Window     time.Duration
	IPLimit    int64
	EmailLimit int64
}

func (p LoginPolicy) active() bool {
	return p.Window > 0 && (p.IPLimit > 0 || p.EmailLimit > 0)
}

// LoginThrottle rejects login attempts over the policy with 429 and a
// Retry-After header. Counter failures surface as 503 rather than letting
// attempts through unmetered.
func LoginThrottle(policy LoginPolicy, counter windowCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	if policy.Name == "" {
		policy.Name = "login"
	}
	return func(next http.Handler) http.Handler {
		if !policy.active() || counter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.IPLimit > 0 {
				if ip := remoteHost(r); ip != "" {
					if !throttle(ctx, w, logg, counter, policy, policy.IPLimit, "ip", ip) {
						return
					}
				}
			}

			if policy.EmailLimit > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxLoginBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unable to read request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				if digest := emailDigest(body); digest != "" {
					if !throttle(ctx, w, logg, counter, policy, policy.EmailLimit, "email", digest) {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// throttle counts one attempt for subject and reports whether it may proceed.
func throttle(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, counter windowCounter, policy LoginPolicy, limit int64, dimension, subject string) bool {
	window, err := counter.Hit(ctx, counter.Key(redis.KeyspaceRateLimit, policy.Name, dimension, subject), policy.Window)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "login throttle unavailable"))
		return false
	}
	if window.Count <= limit {
		return true
	}

	retryAfter := int(math.Ceil(window.ResetIn.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":      policy.Name,
			"dimension":   dimension,
			"subject":     subject,
			"attempts":    window.Count,
			"limit":       limit,
			"retry_after": retryAfter,
		}), "login.throttled")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts"))
	return false
}

// remoteHost expects chi's RealIP middleware to have resolved proxy headers
// into RemoteAddr.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// emailDigest hashes the normalized email so raw addresses never reach Redis
// keys or logs.
func emailDigest(body []byte) string {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}
