package webhooks

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/angelmondragon/fitcoach-backend/api/responses"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"github.com/angelmondragon/fitcoach-backend/pkg/metrics"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

const maxWebhookBody = 1 << 20

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) (string, error)
}

type stripeEventGuard interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type stripeClient interface {
	SigningSecret() string
}

type webhookObserver interface {
	Observe(eventType, outcome string, elapsed time.Duration)
}

// StripeWebhook verifies and reconciles Stripe payment events. Any method but
// POST is refused, and a bad signature is rejected before anything is read
// from or written to the store.
func StripeWebhook(svc StripeWebhookService, client stripeClient, guard stripeEventGuard, observer webhookObserver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()

		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeMethod, "method not allowed"))
			return
		}
		if svc == nil || client == nil || guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook handler unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			observe(observer, "", metrics.OutcomeRejected, start)
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSignature, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			observe(observer, "", metrics.OutcomeRejected, start)
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeSignature, err, "verify signature"))
			return
		}
		eventType := string(event.Type)

		seen, err := guard.Seen(ctx, event.ID)
		if err != nil {
			observe(observer, eventType, metrics.OutcomeFailed, start)
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if seen {
			observe(observer, eventType, metrics.OutcomeDuplicate, start)
			responses.WriteAck(w, event.ID)
			return
		}

		outcome, err := svc.HandleEvent(ctx, &event)
		if err != nil {
			observe(observer, eventType, metrics.OutcomeFailed, start)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		// The reconciliation is committed; a lost marker only costs a
		// replay that the payments unique index absorbs.
		if err := guard.Mark(context.WithoutCancel(ctx), event.ID); err != nil && logg != nil {
			logg.Warn(logg.WithFields(ctx, map[string]any{
				"stripe_event_id": event.ID,
				"error":           err.Error(),
			}), "stripe event marker not stored")
		}

		observe(observer, eventType, outcome, start)
		if logg != nil {
			logCtx := logg.WithFields(ctx, map[string]any{
				"stripe_event_id":   event.ID,
				"stripe_event_type": eventType,
				"outcome":           outcome,
			})
			logg.Info(logCtx, "stripe event handled")
		}
		responses.WriteAck(w, event.ID)
	}
}

func observe(observer webhookObserver, eventType, outcome string, start time.Time) {
	if observer == nil {
		return
	}
	observer.Observe(eventType, outcome, time.Since(start))
}
