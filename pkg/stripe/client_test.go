package stripe

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/fitcoach-backend/pkg/config"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
)

func TestNewClientValidatesKeyAgainstMode(t *testing.T) {
	ctx := context.Background()
	cases := map[string]config.StripeConfig{
		"live key in test mode": {APIKey: "sk_live_123", Secret: "whsec", Env: "test"},
		"missing secret":        {APIKey: "sk_test_123", Env: "test"},
		"unknown mode":          {APIKey: "sk_test_123", Secret: "whsec", Env: "staging"},
		"missing key":           {Secret: "whsec", Env: "live"},
	}
	for name, cfg := range cases {
		if _, err := NewClient(ctx, cfg, nil); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestNewClientReportsAllProblems(t *testing.T) {
	_, err := NewClient(context.Background(), config.StripeConfig{APIKey: "pk_test_123", Env: "test"}, nil)
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 2)
}

func TestNewClientNormalizesSettings(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})

	client, err := NewClient(context.Background(), config.StripeConfig{APIKey: " rk_test_123 ", Secret: " whsec_abc ", Env: "TEST", Currency: "EUR"}, logg)
	require.NoError(t, err)
	require.Equal(t, ModeTest, client.Mode())
	require.Equal(t, "whsec_abc", client.SigningSecret())
	require.Equal(t, "eur", client.Currency())
	require.True(t, strings.Contains(buf.String(), `"stripe_mode":"test"`), buf.String())
}

func TestNilClientAccessors(t *testing.T) {
	var c *Client
	if c.SigningSecret() != "" || c.Currency() != "" || c.Mode() != "" {
		t.Fatal("nil client should expose empty settings")
	}
}
