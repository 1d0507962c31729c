package payments

import (
	"strconv"
	"time"

	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
)

// MetadataClientID is the metadata key linking Stripe objects to a client.
const MetadataClientID = "client_id"

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount into Stripe's integer minor units.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	minor := amount.Mul(hundred)
	if !minor.IsInteger() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount supports at most two decimal places")
	}
	return minor.IntPart(), nil
}

// FromMinorUnits converts a Stripe minor-unit amount back into major units.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// PeriodEnd reads the current period end from the first subscription item.
func PeriodEnd(sub *stripe.Subscription) *time.Time {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0] == nil {
		return nil
	}
	ts := sub.Items.Data[0].CurrentPeriodEnd
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

// MapStatus converts a Stripe subscription status into the stored enum.
func MapStatus(status stripe.SubscriptionStatus) (enums.SubscriptionStatus, error) {
	parsed, err := enums.ParseSubscriptionStatus(string(status))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "unknown stripe subscription status")
	}
	return parsed, nil
}

// ClientSecret extracts the confirmation secret of the first invoice.
func ClientSecret(sub *stripe.Subscription) string {
	if sub == nil || sub.LatestInvoice == nil || sub.LatestInvoice.ConfirmationSecret == nil {
		return ""
	}
	return sub.LatestInvoice.ConfirmationSecret.ClientSecret
}

func clientMetadata(clientID int64) map[string]string {
	return map[string]string{MetadataClientID: strconv.FormatInt(clientID, 10)}
}
