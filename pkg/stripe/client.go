package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"go.uber.org/multierr"

	"github.com/angelmondragon/fitcoach-backend/pkg/config"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
)

// Mode is the Stripe account mode a key belongs to.
type Mode string

const (
	ModeTest Mode = "test"
	ModeLive Mode = "live"
)

var keyPrefixes = map[Mode][]string{
	ModeTest: {"sk_test_", "rk_test_"},
	ModeLive: {"sk_live_", "rk_live_"},
}

// Client carries the process-wide Stripe settings. API calls go through the
// stripe-go resource packages once NewClient has installed the key.
type Client struct {
	mode          Mode
	signingSecret string
	currency      string
}

// NewClient validates the Stripe settings, reporting every problem at once,
// and installs the key, app info and logger on the stripe-go package.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	mode := Mode(cfg.Environment())
	prefixes, known := keyPrefixes[mode]
	if !known {
		return nil, fmt.Errorf("stripe environment must be %q or %q, got %q", ModeTest, ModeLive, mode)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	secret := strings.TrimSpace(cfg.Secret)

	var errs error
	switch {
	case apiKey == "":
		errs = multierr.Append(errs, errors.New("stripe api key is required"))
	case !hasAnyPrefix(apiKey, prefixes):
		errs = multierr.Append(errs, fmt.Errorf("stripe %s mode requires a key starting with %s", mode, strings.Join(prefixes, " or ")))
	}
	if secret == "" {
		errs = multierr.Append(errs, errors.New("stripe webhook signing secret is required"))
	}
	if errs != nil {
		return nil, errs
	}

	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	stripe.Key = apiKey
	stripe.SetAppInfo(&stripe.AppInfo{Name: "fitcoach-backend"})
	if logg != nil {
		stripe.DefaultLeveledLogger = &leveledLogger{ctx: logg.WithField(ctx, "component", "stripe"), logg: logg}
		logg.Info(logg.WithFields(ctx, map[string]any{"stripe_mode": mode, "currency": currency}), "stripe client initialized")
	}

	return &Client{mode: mode, signingSecret: secret, currency: currency}, nil
}

func hasAnyPrefix(value string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

// Currency is the ISO code used for every price the service creates.
func (c *Client) Currency() string {
	if c == nil {
		return ""
	}
	return c.currency
}

func (c *Client) Mode() Mode {
	if c == nil {
		return ""
	}
	return c.mode
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// leveledLogger routes stripe-go's internal logging through zerolog.
type leveledLogger struct {
	ctx  context.Context
	logg *logger.Logger
}

func (l *leveledLogger) Debugf(format string, v ...any) {
	l.logg.Debug(l.ctx, fmt.Sprintf(format, v...))
}

func (l *leveledLogger) Infof(format string, v ...any) {
	l.logg.Debug(l.ctx, fmt.Sprintf(format, v...))
}

func (l *leveledLogger) Warnf(format string, v ...any) {
	l.logg.Warn(l.ctx, fmt.Sprintf(format, v...))
}

func (l *leveledLogger) Errorf(format string, v ...any) {
	l.logg.Error(l.ctx, fmt.Sprintf(format, v...), nil)
}
