package payments

import (
	"time"

	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CreateCustomerRequest overrides the contact details sent to Stripe. Blank
// fields fall back to the stored client record.
type CreateCustomerRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Name  string `json:"name"`
}

type CustomerResult struct {
	ClientID         int64  `json:"client_id"`
	StripeCustomerID string `json:"stripe_customer_id"`
	Created          bool   `json:"created"`
}

type CreateSubscriptionRequest struct {
	Amount   decimal.Decimal       `json:"amount" validate:"required"`
	Interval enums.BillingInterval `json:"interval" validate:"required,oneof=month year"`
	Email    string                `json:"email" validate:"omitempty,email"`
	Name     string                `json:"name"`
}

// SubscriptionResult carries what the caller needs to confirm the first
// payment interactively.
type SubscriptionResult struct {
	ClientID       int64  `json:"client_id"`
	SubscriptionID string `json:"subscription_id"`
	ClientSecret   string `json:"client_secret"`
	Status         string `json:"status"`
}

// StatusResult is read live from Stripe on every call.
type StatusResult struct {
	ClientID          int64      `json:"client_id"`
	SubscriptionID    string     `json:"subscription_id"`
	Status            string     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
}

type PaymentDTO struct {
	ID                    int64               `json:"id"`
	Amount                decimal.Decimal     `json:"amount"`
	PaymentDate           time.Time           `json:"payment_date"`
	Status                enums.PaymentStatus `json:"status"`
	StripeInvoiceID       string              `json:"stripe_invoice_id"`
	StripePaymentIntentID *string             `json:"stripe_payment_intent_id,omitempty"`
}

func paymentFromModel(m *models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:                    m.ID,
		Amount:                m.Amount,
		PaymentDate:           m.PaymentDate,
		Status:                m.Status,
		StripeInvoiceID:       m.StripeInvoiceID,
		StripePaymentIntentID: m.StripePaymentIntentID,
	}
}
