package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
)

// Client is the coaching customer record every other table hangs off.
type Client struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null;uniqueIndex:idx_clients_email"`
	Phone     *string   `gorm:"column:phone"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	PaymentAmount    *decimal.Decimal           `gorm:"column:payment_amount;type:numeric(12,2)"`
	PaymentFrequency *int                       `gorm:"column:payment_frequency"`
	LastPaymentDate  *time.Time                 `gorm:"column:last_payment_date"`
	PaymentStatus    *enums.ClientPaymentStatus `gorm:"column:payment_status"`

	StripeCustomerID              *string                   `gorm:"column:stripe_customer_id;index"`
	StripeSubscriptionID          *string                   `gorm:"column:stripe_subscription_id"`
	SubscriptionStatus            *enums.SubscriptionStatus `gorm:"column:subscription_status"`
	SubscriptionCurrentPeriodEnd  *time.Time                `gorm:"column:subscription_current_period_end"`
	SubscriptionCancelAtPeriodEnd bool                      `gorm:"column:subscription_cancel_at_period_end;not null;default:false"`
}

func (Client) TableName() string { return "clients" }

// HasCustomer reports whether the client is already linked to a Stripe customer.
func (c Client) HasCustomer() bool {
	return c.StripeCustomerID != nil && *c.StripeCustomerID != ""
}

// HasSubscription reports whether the client is linked to a Stripe subscription.
func (c Client) HasSubscription() bool {
	return c.StripeSubscriptionID != nil && *c.StripeSubscriptionID != ""
}
