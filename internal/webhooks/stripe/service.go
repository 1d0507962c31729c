package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/fitcoach-backend/internal/activity"
	"github.com/angelmondragon/fitcoach-backend/internal/clients"
	"github.com/angelmondragon/fitcoach-backend/internal/payments"
	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"github.com/angelmondragon/fitcoach-backend/pkg/metrics"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

type subscriptionFetcher interface {
	GetSubscription(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Clients           clients.Repository
	Payments          payments.Repository
	StripeClient      subscriptionFetcher
	TransactionRunner txRunner
	Activity          activity.Recorder
	Logger            *logger.Logger
	Now               func() time.Time
}

// Service reconciles local client and payment state with Stripe events.
type Service struct {
	clients  clients.Repository
	payments payments.Repository
	stripe   subscriptionFetcher
	txRunner txRunner
	activity activity.Recorder
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Clients == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "client repo required")
	}
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment repo required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Activity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "activity recorder required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		clients:  params.Clients,
		payments: params.Payments,
		stripe:   params.StripeClient,
		txRunner: params.TransactionRunner,
		activity: params.Activity,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// HandleEvent applies a verified event and reports the outcome label used for
// metrics. Events for unknown customers and unhandled types are not errors.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (string, error) {
	if event == nil || event.Data == nil {
		return metrics.OutcomeFailed, pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"stripe_event_id": event.ID, "stripe_event_type": string(event.Type)})

	switch event.Type {
	case stripe.EventTypeInvoicePaymentSucceeded:
		return s.handleInvoice(ctx, event, enums.PaymentStatusSucceeded)
	case stripe.EventTypeInvoicePaymentFailed:
		return s.handleInvoice(ctx, event, enums.PaymentStatusFailed)
	case stripe.EventTypeCustomerSubscriptionUpdated:
		return s.handleSubscriptionUpdated(ctx, event)
	default:
		s.logg.Info(ctx, "stripe event ignored")
		return metrics.OutcomeIgnored, nil
	}
}

func (s *Service) handleInvoice(ctx context.Context, event *stripe.Event, status enums.PaymentStatus) (string, error) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return metrics.OutcomeFailed, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode invoice event")
	}
	if strings.TrimSpace(invoice.ID) == "" {
		return metrics.OutcomeFailed, pkgerrors.New(pkgerrors.CodeValidation, "invoice id missing")
	}

	customerID, err := s.invoiceCustomerID(ctx, event, &invoice)
	if err != nil {
		return metrics.OutcomeFailed, err
	}
	client, err := s.resolveClient(ctx, customerID)
	if err != nil {
		return metrics.OutcomeFailed, err
	}
	if client == nil {
		return metrics.OutcomeSkipped, nil
	}

	now := s.now().UTC()
	payment := &models.Payment{
		ClientID:              client.ID,
		PaymentDate:           now,
		StripeInvoiceID:       invoice.ID,
		StripePaymentIntentID: optional(objectValue(event, "payment_intent")),
		Status:                status,
	}
	fields := map[string]any{"payment_status": status.ClientStatus()}
	activityType := enums.ActivityPaymentSucceeded
	if status == enums.PaymentStatusSucceeded {
		payment.Amount = payments.FromMinorUnits(invoice.AmountPaid)
		fields["last_payment_date"] = now
	} else {
		payment.Amount = payments.FromMinorUnits(invoice.AmountDue)
		activityType = enums.ActivityPaymentFailed
	}

	inserted, superseded := false, false
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.payments.WithTx(tx).InsertIdempotent(ctx, payment)
		if err != nil {
			return pkgerrors.Upstream(err, "insert payment record")
		}
		if !ok {
			return nil
		}
		inserted = true
		if status == enums.PaymentStatusFailed {
			// A late failure for an earlier attempt must not undo a paid invoice.
			paid, err := s.payments.WithTx(tx).InvoiceHasStatus(ctx, invoice.ID, enums.PaymentStatusSucceeded)
			if err != nil {
				return pkgerrors.Upstream(err, "check invoice payments")
			}
			if paid {
				superseded = true
				return nil
			}
		}
		if _, err := s.clients.WithTx(tx).UpdateFields(ctx, client.ID, fields); err != nil {
			return pkgerrors.Upstream(err, "update client payment status")
		}
		return nil
	})
	if err != nil {
		return metrics.OutcomeFailed, err
	}
	if !inserted {
		s.logg.Info(s.logg.WithClientID(ctx, client.ID), "invoice outcome already recorded")
		return metrics.OutcomeDuplicate, nil
	}
	if superseded {
		s.logg.Info(s.logg.WithFields(s.logg.WithClientID(ctx, client.ID), map[string]any{
			"stripe_invoice_id": invoice.ID,
		}), "failed attempt recorded for an already paid invoice")
	}

	s.activity.Record(ctx, activity.Entry{
		ClientID: client.ID,
		Type:     activityType,
		Title:    fmt.Sprintf("Payment %s", status),
		Metadata: map[string]any{
			"stripe_invoice_id": invoice.ID,
			"amount":            payment.Amount.StringFixed(2),
		},
	})
	return metrics.OutcomeProcessed, nil
}

func (s *Service) handleSubscriptionUpdated(ctx context.Context, event *stripe.Event) (string, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return metrics.OutcomeFailed, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode subscription event")
	}
	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}
	client, err := s.resolveClient(ctx, customerID)
	if err != nil {
		return metrics.OutcomeFailed, err
	}
	if client == nil {
		return metrics.OutcomeSkipped, nil
	}

	status, err := payments.MapStatus(sub.Status)
	if err != nil {
		return metrics.OutcomeFailed, err
	}
	fields := map[string]any{
		"subscription_status":               status,
		"subscription_cancel_at_period_end": sub.CancelAtPeriodEnd,
		"subscription_current_period_end":   payments.PeriodEnd(&sub),
	}
	if sub.ID != "" {
		fields["stripe_subscription_id"] = sub.ID
	}
	if _, err := s.clients.UpdateFields(ctx, client.ID, fields); err != nil {
		return metrics.OutcomeFailed, pkgerrors.Upstream(err, "mirror subscription state")
	}

	s.activity.Record(ctx, activity.Entry{
		ClientID: client.ID,
		Type:     enums.ActivitySubscriptionUpdated,
		Title:    fmt.Sprintf("Subscription %s", status),
		Metadata: map[string]any{
			"subscription_id":      sub.ID,
			"cancel_at_period_end": sub.CancelAtPeriodEnd,
		},
	})
	return metrics.OutcomeProcessed, nil
}

// invoiceCustomerID prefers the customer on the invoice and falls back to the
// invoice's subscription.
func (s *Service) invoiceCustomerID(ctx context.Context, event *stripe.Event, invoice *stripe.Invoice) (string, error) {
	if invoice.Customer != nil && invoice.Customer.ID != "" {
		return invoice.Customer.ID, nil
	}
	subscriptionID := objectValue(event, "parent", "subscription_details", "subscription")
	if subscriptionID == "" {
		subscriptionID = objectValue(event, "subscription")
	}
	if subscriptionID == "" {
		return "", nil
	}
	sub, err := s.stripe.GetSubscription(ctx, subscriptionID, &stripe.SubscriptionParams{})
	if err != nil {
		return "", pkgerrors.Upstream(err, "fetch stripe subscription")
	}
	if sub == nil || sub.Customer == nil {
		return "", nil
	}
	return sub.Customer.ID, nil
}

// resolveClient returns nil when no client is linked to customerID.
func (s *Service) resolveClient(ctx context.Context, customerID string) (*models.Client, error) {
	if strings.TrimSpace(customerID) == "" {
		s.logg.Warn(ctx, "stripe event has no resolvable customer; skipping")
		return nil, nil
	}
	client, err := s.clients.FindByStripeCustomerID(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "resolve client by stripe customer")
	}
	if client == nil {
		s.logg.Warn(s.logg.WithField(ctx, "stripe_customer_id", customerID), "no client for stripe customer; skipping")
	}
	return client, nil
}

// objectValue walks the raw event object. Missing keys yield "" and an
// expanded object yields its id.
func objectValue(event *stripe.Event, keys ...string) string {
	if event.Data.Object == nil && len(event.Data.Raw) > 0 {
		var object map[string]interface{}
		if err := json.Unmarshal(event.Data.Raw, &object); err == nil {
			event.Data.Object = object
		}
	}
	var node interface{} = event.Data.Object
	for _, key := range keys {
		m, ok := node.(map[string]interface{})
		if !ok {
			return ""
		}
		node = m[key]
	}
	switch v := node.(type) {
	case string:
		return v
	case map[string]interface{}:
		id, _ := v["id"].(string)
		return id
	default:
		return ""
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
