package enums

import "fmt"

// PaymentStatus is the outcome of one invoice as recorded in client_payments.
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

func (p PaymentStatus) String() string {
	return string(p)
}

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusSucceeded, PaymentStatusFailed:
		return true
	}
	return false
}

// ClientStatus is the value mirrored onto the client row for this outcome.
func (p PaymentStatus) ClientStatus() ClientPaymentStatus {
	if p == PaymentStatusSucceeded {
		return ClientPaymentStatusPaid
	}
	return ClientPaymentStatusFailed
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	if status := PaymentStatus(value); status.IsValid() {
		return status, nil
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// ClientPaymentStatus is the latest payment outcome shown on a client.
type ClientPaymentStatus string

const (
	ClientPaymentStatusPaid   ClientPaymentStatus = "paid"
	ClientPaymentStatusFailed ClientPaymentStatus = "failed"
)

func (c ClientPaymentStatus) String() string {
	return string(c)
}

func (c ClientPaymentStatus) IsValid() bool {
	return c == ClientPaymentStatusPaid || c == ClientPaymentStatusFailed
}
