package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/fitcoach-backend/api/middleware"
	stripewebhook "github.com/angelmondragon/fitcoach-backend/internal/webhooks/stripe"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/metrics"
	"github.com/angelmondragon/fitcoach-backend/pkg/redis"
	"github.com/angelmondragon/fitcoach-backend/pkg/types"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v84"
)

const testSecret = "whsec_test"

func TestStripeWebhook_SuccessAndIdempotent(t *testing.T) {
	payload, header, eventID := buildSignedEvent(t)
	service := &fakeStripeWebhookService{}
	store := newInMemoryStore()
	observer := &spyObserver{}
	handler := StripeWebhook(service, &fakeSigningClient{secret: testSecret}, newGuard(t, store), observer, nil)

	rec := post(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var ack types.Acknowledgement
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.Received || ack.EventID != eventID {
		t.Fatalf("unexpected ack %+v", ack)
	}

	rec = post(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected duplicate not processed, call count %d", service.calls)
	}
	if got := observer.outcomes; len(got) != 2 || got[0] != metrics.OutcomeProcessed || got[1] != metrics.OutcomeDuplicate {
		t.Fatalf("unexpected outcomes %v", got)
	}
}

func TestStripeWebhook_InvalidSignatureWritesNothing(t *testing.T) {
	payload, _, _ := buildSignedEvent(t)
	service := &fakeStripeWebhookService{}
	store := newInMemoryStore()
	observer := &spyObserver{}
	handler := StripeWebhook(service, &fakeSigningClient{secret: testSecret}, newGuard(t, store), observer, nil)

	for _, header := range []string{"t=1,v1=invalid", ""} {
		rec := post(handler, payload, header)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid signature, got %d", rec.Code)
		}
		var body types.ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if body.Error.Code != string(pkgerrors.CodeSignature) {
			t.Fatalf("unexpected code %s", body.Error.Code)
		}
	}
	if service.calls != 0 {
		t.Fatalf("service should not be invoked on invalid signature")
	}
	if store.ops != 0 {
		t.Fatalf("expected no idempotency lookups, got %d", store.ops)
	}
	if len(observer.outcomes) != 2 || observer.outcomes[0] != metrics.OutcomeRejected {
		t.Fatalf("unexpected outcomes %v", observer.outcomes)
	}
}

func TestStripeWebhook_RejectsNonPost(t *testing.T) {
	service := &fakeStripeWebhookService{}
	handler := StripeWebhook(service, &fakeSigningClient{secret: testSecret}, newGuard(t, newInMemoryStore()), nil, nil)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/v1/webhooks/stripe", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", method, rec.Code)
		}
		if rec.Header().Get("Allow") != http.MethodPost {
			t.Fatalf("%s: expected Allow header", method)
		}
	}
	if service.calls != 0 {
		t.Fatal("service should not run for non-POST requests")
	}
}

func TestStripeWebhook_FailedDeliveryIsRetried(t *testing.T) {
	payload, header, _ := buildSignedEvent(t)
	service := &fakeStripeWebhookService{err: pkgerrors.New(pkgerrors.CodeDependency, "db down")}
	handler := StripeWebhook(service, &fakeSigningClient{secret: testSecret}, newGuard(t, newInMemoryStore()), nil, nil)

	rec := post(handler, payload, header)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	service.err = nil
	rec = post(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 2 {
		t.Fatalf("expected retry to reach the service, calls=%d", service.calls)
	}
}

func TestStripeWebhook_PanickedDeliveryIsRetried(t *testing.T) {
	payload, header, _ := buildSignedEvent(t)
	service := &fakeStripeWebhookService{panicOnce: true}
	handler := middleware.Recoverer(nil)(
		StripeWebhook(service, &fakeSigningClient{secret: testSecret}, newGuard(t, newInMemoryStore()), nil, nil),
	)

	if rec := post(handler, payload, header); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rec.Code)
	}

	rec := post(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 2 || service.processed != 1 {
		t.Fatalf("expected retry to be reconciled, calls=%d processed=%d", service.calls, service.processed)
	}
}

func TestStripeWebhook_CancelledDeliveryIsRetried(t *testing.T) {
	payload, header, _ := buildSignedEvent(t)
	ctx, cancel := context.WithCancel(context.Background())
	service := &fakeStripeWebhookService{beforeHandle: cancel}
	handler := StripeWebhook(service, &fakeSigningClient{secret: testSecret}, newGuard(t, newInMemoryStore()), nil, nil)

	if rec := postWithContext(ctx, handler, payload, header); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected cancelled delivery to fail with 500, got %d", rec.Code)
	}

	service.beforeHandle = nil
	rec := post(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.processed != 1 {
		t.Fatalf("expected retry to be reconciled, processed=%d", service.processed)
	}
}

func TestStripeWebhook_MarksEventEvenWhenCallerHangsUp(t *testing.T) {
	payload, header, _ := buildSignedEvent(t)
	ctx, cancel := context.WithCancel(context.Background())
	service := &fakeStripeWebhookService{afterHandle: cancel}
	handler := StripeWebhook(service, &fakeSigningClient{secret: testSecret}, newGuard(t, newInMemoryStore()), nil, nil)

	if rec := postWithContext(ctx, handler, payload, header); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if rec := post(handler, payload, header); rec.Code != http.StatusOK {
		t.Fatalf("expected duplicate ack, got %d", rec.Code)
	}
	if service.calls != 1 {
		t.Fatalf("expected marker to survive the cancelled request, calls=%d", service.calls)
	}
}

func TestStripeWebhook_PlainErrorsMapToInternal(t *testing.T) {
	payload, header, _ := buildSignedEvent(t)
	service := &fakeStripeWebhookService{err: errors.New("boom")}
	handler := StripeWebhook(service, &fakeSigningClient{secret: testSecret}, newGuard(t, newInMemoryStore()), nil, nil)

	if rec := post(handler, payload, header); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func newGuard(t *testing.T, store *inMemoryStore) *stripewebhook.EventGuard {
	t.Helper()
	guard, err := stripewebhook.NewEventGuard(store, time.Minute, "stripe-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	return guard
}

func post(handler http.Handler, payload []byte, header string) *httptest.ResponseRecorder {
	return postWithContext(context.Background(), handler, payload, header)
}

func postWithContext(ctx context.Context, handler http.Handler, payload []byte, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequestWithContext(ctx, http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	if header != "" {
		req.Header.Set("Stripe-Signature", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func buildSignedEvent(t *testing.T) ([]byte, string, string) {
	invoice := map[string]any{
		"id":          "in_" + uuid.NewString(),
		"object":      "invoice",
		"customer":    "cus_123",
		"amount_paid": 15000,
	}
	rawInvoice, err := json.Marshal(invoice)
	if err != nil {
		t.Fatalf("marshal invoice: %v", err)
	}
	event := &stripe.Event{
		ID:         "evt_" + uuid.NewString(),
		Type:       stripe.EventTypeInvoicePaymentSucceeded,
		Object:     "event",
		APIVersion: stripe.APIVersion,
		Data: &stripe.EventData{
			Raw: rawInvoice,
		},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	header := buildStripeSignatureHeader(payload, testSecret, time.Now().Unix())
	return payload, header, event.ID
}

func buildStripeSignatureHeader(payload []byte, secret string, ts int64) string {
	signedPayload := fmt.Sprintf("%d.%s", ts, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

type fakeStripeWebhookService struct {
	calls        int
	processed    int
	err          error
	panicOnce    bool
	beforeHandle func()
	afterHandle  func()
}

func (f *fakeStripeWebhookService) HandleEvent(ctx context.Context, event *stripe.Event) (string, error) {
	f.calls++
	if f.beforeHandle != nil {
		f.beforeHandle()
	}
	if f.panicOnce {
		f.panicOnce = false
		panic("reconcile blew up")
	}
	if err := ctx.Err(); err != nil {
		return metrics.OutcomeFailed, err
	}
	if f.err != nil {
		return metrics.OutcomeFailed, f.err
	}
	f.processed++
	if f.afterHandle != nil {
		f.afterHandle()
	}
	return metrics.OutcomeProcessed, nil
}

type fakeSigningClient struct {
	secret string
}

func (c *fakeSigningClient) SigningSecret() string {
	return c.secret
}

type spyObserver struct {
	outcomes []string
}

func (s *spyObserver) Observe(eventType, outcome string, elapsed time.Duration) {
	s.outcomes = append(s.outcomes, outcome)
}

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]string
	ops  int
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{
		data: make(map[string]string),
	}
}

func (s *inMemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	value, ok := s.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (s *inMemoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops++
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return nil
}

func (s *inMemoryStore) Key(space redis.Keyspace, parts ...string) string {
	return fmt.Sprintf("fc:%s:%s", space, strings.Join(parts, ":"))
}
