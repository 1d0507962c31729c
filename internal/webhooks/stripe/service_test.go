package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/fitcoach-backend/internal/activity"
	"github.com/angelmondragon/fitcoach-backend/internal/clients"
	"github.com/angelmondragon/fitcoach-backend/internal/payments"
	"github.com/angelmondragon/fitcoach-backend/pkg/db"
	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"github.com/angelmondragon/fitcoach-backend/pkg/metrics"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestInvoiceSucceededRecordsPaymentOnce(t *testing.T) {
	conn := openTestDB(t, "webhook_invoice_paid")
	client := seedClient(t, conn, "cus_1")
	recorder := &spyRecorder{}
	svc := buildService(t, conn, &stubStripeClient{}, recorder)
	event := invoiceEvent(t, stripe.EventTypeInvoicePaymentSucceeded, `{"id":"in_1","customer":"cus_1","amount_paid":10000,"amount_due":10000,"payment_intent":"pi_1"}`)

	outcome, err := svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, metrics.OutcomeProcessed, outcome)

	outcome, err = svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, metrics.OutcomeDuplicate, outcome)

	var rows []models.Payment
	require.NoError(t, conn.Where("client_id = ?", client.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, enums.PaymentStatusSucceeded, rows[0].Status)
	require.Equal(t, "100.00", rows[0].Amount.StringFixed(2))
	require.NotNil(t, rows[0].StripePaymentIntentID)
	require.Equal(t, "pi_1", *rows[0].StripePaymentIntentID)

	var stored models.Client
	require.NoError(t, conn.First(&stored, client.ID).Error)
	require.NotNil(t, stored.PaymentStatus)
	require.Equal(t, enums.ClientPaymentStatusPaid, *stored.PaymentStatus)
	require.NotNil(t, stored.LastPaymentDate)
	require.Len(t, recorder.entries, 1)
	require.Equal(t, enums.ActivityPaymentSucceeded, recorder.entries[0].Type)
}

func TestInvoiceFailedUsesAmountDue(t *testing.T) {
	conn := openTestDB(t, "webhook_invoice_failed")
	client := seedClient(t, conn, "cus_2")
	svc := buildService(t, conn, &stubStripeClient{}, &spyRecorder{})
	event := invoiceEvent(t, stripe.EventTypeInvoicePaymentFailed, `{"id":"in_2","customer":"cus_2","amount_paid":0,"amount_due":4550}`)

	outcome, err := svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, metrics.OutcomeProcessed, outcome)

	var payment models.Payment
	require.NoError(t, conn.Where("client_id = ?", client.ID).First(&payment).Error)
	require.Equal(t, enums.PaymentStatusFailed, payment.Status)
	require.Equal(t, "45.50", payment.Amount.StringFixed(2))
	require.Nil(t, payment.StripePaymentIntentID)

	var stored models.Client
	require.NoError(t, conn.First(&stored, client.ID).Error)
	require.Equal(t, enums.ClientPaymentStatusFailed, *stored.PaymentStatus)
	require.Nil(t, stored.LastPaymentDate)
}

func TestLateFailureDoesNotDowngradePaidInvoice(t *testing.T) {
	conn := openTestDB(t, "webhook_late_failure")
	client := seedClient(t, conn, "cus_7")
	svc := buildService(t, conn, &stubStripeClient{}, &spyRecorder{})
	ctx := context.Background()

	paid := invoiceEvent(t, stripe.EventTypeInvoicePaymentSucceeded, `{"id":"in_7","customer":"cus_7","amount_paid":9000,"amount_due":9000}`)
	outcome, err := svc.HandleEvent(ctx, paid)
	require.NoError(t, err)
	require.Equal(t, metrics.OutcomeProcessed, outcome)

	failed := invoiceEvent(t, stripe.EventTypeInvoicePaymentFailed, `{"id":"in_7","customer":"cus_7","amount_paid":0,"amount_due":9000}`)
	outcome, err = svc.HandleEvent(ctx, failed)
	require.NoError(t, err)
	require.Equal(t, metrics.OutcomeProcessed, outcome)

	var count int64
	require.NoError(t, conn.Model(&models.Payment{}).Where("stripe_invoice_id = ?", "in_7").Count(&count).Error)
	require.Equal(t, int64(2), count)

	var stored models.Client
	require.NoError(t, conn.First(&stored, client.ID).Error)
	require.Equal(t, enums.ClientPaymentStatusPaid, *stored.PaymentStatus)
	require.NotNil(t, stored.LastPaymentDate)
}

func TestUnknownCustomerIsANoOp(t *testing.T) {
	conn := openTestDB(t, "webhook_unknown_customer")
	seedClient(t, conn, "cus_known")
	recorder := &spyRecorder{}
	svc := buildService(t, conn, &stubStripeClient{}, recorder)
	event := invoiceEvent(t, stripe.EventTypeInvoicePaymentSucceeded, `{"id":"in_3","customer":"cus_missing","amount_paid":100}`)

	outcome, err := svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, metrics.OutcomeSkipped, outcome)

	var count int64
	require.NoError(t, conn.Model(&models.Payment{}).Count(&count).Error)
	require.Zero(t, count)
	var stored models.Client
	require.NoError(t, conn.Where("stripe_customer_id = ?", "cus_known").First(&stored).Error)
	require.Nil(t, stored.PaymentStatus)
	require.Empty(t, recorder.entries)
}

func TestInvoiceWithoutCustomerResolvesThroughSubscription(t *testing.T) {
	conn := openTestDB(t, "webhook_invoice_subscription")
	client := seedClient(t, conn, "cus_4")
	fetcher := &stubStripeClient{sub: &stripe.Subscription{ID: "sub_4", Customer: &stripe.Customer{ID: "cus_4"}}}
	svc := buildService(t, conn, fetcher, &spyRecorder{})
	event := invoiceEvent(t, stripe.EventTypeInvoicePaymentSucceeded,
		`{"id":"in_4","amount_paid":2500,"parent":{"subscription_details":{"subscription":"sub_4"}}}`)

	outcome, err := svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, metrics.OutcomeProcessed, outcome)
	require.Equal(t, "sub_4", fetcher.requested)

	var count int64
	require.NoError(t, conn.Model(&models.Payment{}).Where("client_id = ?", client.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestSubscriptionFetchFailureIsUpstream(t *testing.T) {
	conn := openTestDB(t, "webhook_fetch_failure")
	svc := buildService(t, conn, &stubStripeClient{err: errors.New("stripe down")}, &spyRecorder{})
	event := invoiceEvent(t, stripe.EventTypeInvoicePaymentFailed, `{"id":"in_5","subscription":"sub_5"}`)

	outcome, err := svc.HandleEvent(context.Background(), event)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency), "got %v", err)
	require.Equal(t, metrics.OutcomeFailed, outcome)
}

func TestSubscriptionUpdatedMirrorsState(t *testing.T) {
	conn := openTestDB(t, "webhook_subscription_updated")
	client := seedClient(t, conn, "cus_6")
	svc := buildService(t, conn, &stubStripeClient{}, &spyRecorder{})
	periodEnd := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	event := invoiceEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, `{"id":"sub_6","customer":"cus_6","status":"past_due","cancel_at_period_end":true,"items":{"object":"list","data":[{"id":"si_1","current_period_end":`+itoa(periodEnd.Unix())+`}]}}`)

	outcome, err := svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, metrics.OutcomeProcessed, outcome)

	var stored models.Client
	require.NoError(t, conn.First(&stored, client.ID).Error)
	require.Equal(t, enums.SubscriptionStatusPastDue, *stored.SubscriptionStatus)
	require.True(t, stored.SubscriptionCancelAtPeriodEnd)
	require.True(t, stored.SubscriptionCurrentPeriodEnd.Equal(periodEnd))
	require.Equal(t, "sub_6", *stored.StripeSubscriptionID)
}

func TestUnhandledEventIsIgnored(t *testing.T) {
	conn := openTestDB(t, "webhook_ignored")
	svc := buildService(t, conn, &stubStripeClient{}, &spyRecorder{})
	event := invoiceEvent(t, stripe.EventType("charge.refunded"), `{"id":"ch_1"}`)

	outcome, err := svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, metrics.OutcomeIgnored, outcome)
}

func invoiceEvent(t *testing.T, eventType stripe.EventType, object string) *stripe.Event {
	t.Helper()
	payload := `{"id":"evt_test","object":"event","type":"` + string(eventType) + `","data":{"object":` + object + `}}`
	var event stripe.Event
	require.NoError(t, json.Unmarshal([]byte(payload), &event))
	return &event
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	return conn
}

func seedClient(t *testing.T, conn *gorm.DB, customerID string) *models.Client {
	t.Helper()
	client := &models.Client{Name: "Ana", Email: customerID + "@example.com", StripeCustomerID: &customerID}
	require.NoError(t, conn.Create(client).Error)
	return client
}

func buildService(t *testing.T, conn *gorm.DB, fetcher subscriptionFetcher, recorder activity.Recorder) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Clients:           clients.NewRepository(conn),
		Payments:          payments.NewRepository(conn),
		StripeClient:      fetcher,
		TransactionRunner: db.FromConn(conn),
		Activity:          recorder,
		Logger:            logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

type stubStripeClient struct {
	sub       *stripe.Subscription
	err       error
	requested string
}

func (s *stubStripeClient) GetSubscription(_ context.Context, id string, _ *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	s.requested = id
	if s.err != nil {
		return nil, s.err
	}
	return s.sub, nil
}

type spyRecorder struct {
	entries []activity.Entry
}

func (s *spyRecorder) Record(_ context.Context, entry activity.Entry) {
	s.entries = append(s.entries, entry)
}
