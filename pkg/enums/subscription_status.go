package enums

import (
	"fmt"
	"strings"
)

// SubscriptionStatus is the Stripe subscription state mirrored onto a client.
type SubscriptionStatus string

const (
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
)

var subscriptionStatuses = map[SubscriptionStatus]struct{}{
	SubscriptionStatusIncomplete:        {},
	SubscriptionStatusIncompleteExpired: {},
	SubscriptionStatusTrialing:          {},
	SubscriptionStatusActive:            {},
	SubscriptionStatusPastDue:           {},
	SubscriptionStatusUnpaid:            {},
	SubscriptionStatusPaused:            {},
	SubscriptionStatusCanceled:          {},
}

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) IsValid() bool {
	_, ok := subscriptionStatuses[s]
	return ok
}

// ParseSubscriptionStatus accepts any status Stripe reports, ignoring case
// and surrounding space.
func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	status := SubscriptionStatus(strings.ToLower(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid subscription status %q", value)
	}
	return status, nil
}
