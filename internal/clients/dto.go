package clients

import (
	"time"

	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CreateRequest is the payload for creating a client.
type CreateRequest struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Email string  `json:"email" validate:"required,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=40"`
}

// UpdateRequest edits profile fields. Nil fields are left unchanged.
type UpdateRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=40"`
}

// ClientDTO is the API view of a client.
type ClientDTO struct {
	ID                            int64                      `json:"id"`
	Name                          string                     `json:"name"`
	Email                         string                     `json:"email"`
	Phone                         *string                    `json:"phone,omitempty"`
	CreatedAt                     time.Time                  `json:"created_at"`
	PaymentAmount                 *decimal.Decimal           `json:"payment_amount,omitempty"`
	PaymentFrequency              *int                       `json:"payment_frequency,omitempty"`
	LastPaymentDate               *time.Time                 `json:"last_payment_date,omitempty"`
	PaymentStatus                 *enums.ClientPaymentStatus `json:"payment_status,omitempty"`
	StripeCustomerID              *string                    `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID          *string                    `json:"stripe_subscription_id,omitempty"`
	SubscriptionStatus            *enums.SubscriptionStatus  `json:"subscription_status,omitempty"`
	SubscriptionCurrentPeriodEnd  *time.Time                 `json:"subscription_current_period_end,omitempty"`
	SubscriptionCancelAtPeriodEnd bool                       `json:"subscription_cancel_at_period_end"`
}

// ListResult is one page of clients.
type ListResult struct {
	Items      []ClientDTO `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// FromModel maps a persisted client to its API view.
func FromModel(m *models.Client) *ClientDTO {
	if m == nil {
		return nil
	}
	return &ClientDTO{
		ID:                            m.ID,
		Name:                          m.Name,
		Email:                         m.Email,
		Phone:                         m.Phone,
		CreatedAt:                     m.CreatedAt,
		PaymentAmount:                 m.PaymentAmount,
		PaymentFrequency:              m.PaymentFrequency,
		LastPaymentDate:               m.LastPaymentDate,
		PaymentStatus:                 m.PaymentStatus,
		StripeCustomerID:              m.StripeCustomerID,
		StripeSubscriptionID:          m.StripeSubscriptionID,
		SubscriptionStatus:            m.SubscriptionStatus,
		SubscriptionCurrentPeriodEnd:  m.SubscriptionCurrentPeriodEnd,
		SubscriptionCancelAtPeriodEnd: m.SubscriptionCancelAtPeriodEnd,
	}
}
