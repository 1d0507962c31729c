package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
)

// Payment is one processor invoice outcome. (stripe_invoice_id, status) is
// unique so webhook replays insert nothing.
type Payment struct {
	ID                    int64               `gorm:"column:id;primaryKey;autoIncrement"`
	ClientID              int64               `gorm:"column:client_id;not null;index"`
	Amount                decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentDate           time.Time           `gorm:"column:payment_date;not null"`
	StripeInvoiceID       string              `gorm:"column:stripe_invoice_id;not null;uniqueIndex:idx_client_payments_invoice_status,priority:1"`
	StripePaymentIntentID *string             `gorm:"column:stripe_payment_intent_id"`
	Status                enums.PaymentStatus `gorm:"column:status;not null;uniqueIndex:idx_client_payments_invoice_status,priority:2"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (Payment) TableName() string { return "client_payments" }
