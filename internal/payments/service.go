package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/fitcoach-backend/internal/activity"
	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"github.com/angelmondragon/fitcoach-backend/pkg/metrics"
	"github.com/angelmondragon/fitcoach-backend/pkg/pagination"
	"github.com/stripe/stripe-go/v84"
)

const (
	opCreateCustomer     = "create_customer"
	opCreateProduct      = "create_product"
	opCreatePrice        = "create_price"
	opCreateSubscription = "create_subscription"
	opGetSubscription    = "get_subscription"
)

// Service bridges client records to Stripe customers and subscriptions. It
// never retries; upstream failures surface to the caller.
type Service interface {
	CreateCustomer(ctx context.Context, clientID int64, req CreateCustomerRequest) (*CustomerResult, error)
	CreateSubscription(ctx context.Context, clientID int64, req CreateSubscriptionRequest) (*SubscriptionResult, error)
	GetPaymentStatus(ctx context.Context, clientID int64) (*StatusResult, error)
	ListPayments(ctx context.Context, clientID int64, limit int) ([]PaymentDTO, error)
}

type authorizer interface {
	RequireAdmin(ctx context.Context) error
}

type clientStore interface {
	FindByID(ctx context.Context, id int64) (*models.Client, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]any) (int64, error)
}

type currencySource interface {
	Currency() string
}

type ServiceParams struct {
	Clients  clientStore
	Payments Repository
	Stripe   StripeClient
	Config   currencySource
	Gate     authorizer
	Activity activity.Recorder
	Metrics  *metrics.PaymentMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	clients  clientStore
	payments Repository
	stripe   StripeClient
	currency string
	gate     authorizer
	activity activity.Recorder
	metrics  *metrics.PaymentMetrics
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Clients == nil {
		return nil, fmt.Errorf("client store required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if params.Config == nil || strings.TrimSpace(params.Config.Currency()) == "" {
		return nil, fmt.Errorf("stripe currency required")
	}
	if params.Gate == nil {
		return nil, fmt.Errorf("authorizer required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		clients:  params.Clients,
		payments: params.Payments,
		stripe:   params.Stripe,
		currency: strings.ToLower(params.Config.Currency()),
		gate:     params.Gate,
		activity: params.Activity,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// CreateCustomer links the client to a new Stripe customer. A client that is
// already linked is returned unchanged without calling Stripe.
func (s *service) CreateCustomer(ctx context.Context, clientID int64, req CreateCustomerRequest) (*CustomerResult, error) {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	client, err := s.loadClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.HasCustomer() {
		return &CustomerResult{ClientID: clientID, StripeCustomerID: *client.StripeCustomerID}, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(firstNonBlank(req.Email, client.Email)),
		Name:  stripe.String(firstNonBlank(req.Name, client.Name)),
	}
	for key, value := range clientMetadata(clientID) {
		params.AddMetadata(key, value)
	}
	cus, err := s.stripe.CreateCustomer(ctx, params)
	s.metrics.Record(opCreateCustomer, err)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "create stripe customer")
	}

	rows, err := s.clients.UpdateFields(ctx, clientID, map[string]any{"stripe_customer_id": cus.ID})
	if err != nil {
		return nil, pkgerrors.Upstream(err, "store stripe customer id")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("client %d not found", clientID))
	}

	s.activity.Record(ctx, activity.Entry{
		ClientID: clientID,
		Type:     enums.ActivityCustomerCreated,
		Title:    "Stripe customer created",
		Metadata: map[string]any{"stripe_customer_id": cus.ID},
	})
	return &CustomerResult{ClientID: clientID, StripeCustomerID: cus.ID, Created: true}, nil
}

// CreateSubscription creates product, price and an incomplete subscription in
// sequence, then mirrors the payment terms onto the client best-effort.
func (s *service) CreateSubscription(ctx context.Context, clientID int64, req CreateSubscriptionRequest) (*SubscriptionResult, error) {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	interval, err := enums.ParseBillingInterval(string(req.Interval))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "interval must be month or year")
	}
	unitAmount, err := ToMinorUnits(req.Amount)
	if err != nil {
		return nil, err
	}

	client, err := s.loadClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !client.HasCustomer() {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "client has no stripe customer; create the customer first").
			WithDetails(map[string]any{"client_id": clientID})
	}
	name := firstNonBlank(req.Name, client.Name)

	productParams := &stripe.ProductParams{Name: stripe.String(fmt.Sprintf("Coaching plan - %s", name))}
	for key, value := range clientMetadata(clientID) {
		productParams.AddMetadata(key, value)
	}
	prod, err := s.stripe.CreateProduct(ctx, productParams)
	s.metrics.Record(opCreateProduct, err)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "create stripe product")
	}

	pr, err := s.stripe.CreatePrice(ctx, &stripe.PriceParams{
		Product:    stripe.String(prod.ID),
		UnitAmount: stripe.Int64(unitAmount),
		Currency:   stripe.String(s.currency),
		Recurring:  &stripe.PriceRecurringParams{Interval: stripe.String(interval.String())},
	})
	s.metrics.Record(opCreatePrice, err)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "create stripe price")
	}

	subParams := &stripe.SubscriptionParams{
		Customer:        client.StripeCustomerID,
		Items:           []*stripe.SubscriptionItemsParams{{Price: stripe.String(pr.ID)}},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	subParams.AddExpand("latest_invoice.confirmation_secret")
	for key, value := range clientMetadata(clientID) {
		subParams.AddMetadata(key, value)
	}
	sub, err := s.stripe.CreateSubscription(ctx, subParams)
	s.metrics.Record(opCreateSubscription, err)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "create stripe subscription")
	}

	s.mirrorTerms(ctx, clientID, req, interval, sub)

	secret := ClientSecret(sub)
	if secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription invoice has no payment client secret").
			WithDetails(map[string]any{"subscription_id": sub.ID})
	}

	s.activity.Record(ctx, activity.Entry{
		ClientID: clientID,
		Type:     enums.ActivitySubscriptionCreated,
		Title:    "Subscription created",
		Metadata: map[string]any{
			"subscription_id": sub.ID,
			"amount":          req.Amount.StringFixed(2),
			"interval":        interval.String(),
		},
	})
	return &SubscriptionResult{
		ClientID:       clientID,
		SubscriptionID: sub.ID,
		ClientSecret:   secret,
		Status:         string(sub.Status),
	}, nil
}

// mirrorTerms is best-effort: the subscription already exists upstream.
func (s *service) mirrorTerms(ctx context.Context, clientID int64, req CreateSubscriptionRequest, interval enums.BillingInterval, sub *stripe.Subscription) {
	fields := map[string]any{
		"payment_amount":         req.Amount,
		"payment_frequency":      interval.Months(),
		"last_payment_date":      s.now().UTC(),
		"stripe_subscription_id": sub.ID,
	}
	if status, err := MapStatus(sub.Status); err == nil {
		fields["subscription_status"] = status
	}
	if end := PeriodEnd(sub); end != nil {
		fields["subscription_current_period_end"] = *end
	}
	if _, err := s.clients.UpdateFields(ctx, clientID, fields); err != nil {
		logCtx := s.logg.WithFields(s.logg.WithClientID(ctx, clientID), map[string]any{"subscription_id": sub.ID})
		s.logg.Error(logCtx, "failed to mirror subscription terms onto client", err)
	}
}

// GetPaymentStatus reads the subscription straight from Stripe.
func (s *service) GetPaymentStatus(ctx context.Context, clientID int64) (*StatusResult, error) {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	client, err := s.loadClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !client.HasSubscription() {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "client has no stripe subscription").
			WithDetails(map[string]any{"client_id": clientID})
	}

	sub, err := s.stripe.GetSubscription(ctx, *client.StripeSubscriptionID, &stripe.SubscriptionParams{})
	s.metrics.Record(opGetSubscription, err)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "fetch stripe subscription")
	}
	return &StatusResult{
		ClientID:          clientID,
		SubscriptionID:    sub.ID,
		Status:            string(sub.Status),
		CurrentPeriodEnd:  PeriodEnd(sub),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}, nil
}

// ListPayments returns the client's recorded invoice outcomes, newest first.
func (s *service) ListPayments(ctx context.Context, clientID int64, limit int) ([]PaymentDTO, error) {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if _, err := s.loadClient(ctx, clientID); err != nil {
		return nil, err
	}
	rows, err := s.payments.ListByClient(ctx, clientID, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Upstream(err, "list payments")
	}
	out := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, paymentFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) loadClient(ctx context.Context, clientID int64) (*models.Client, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "load client")
	}
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("client %d not found", clientID))
	}
	return client, nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
