package enums

import (
	"fmt"
	"strings"
)

// BillingInterval is the recurring cadence of a client subscription price.
type BillingInterval string

const (
	BillingIntervalMonth BillingInterval = "month"
	BillingIntervalYear  BillingInterval = "year"
)

var validBillingIntervals = []BillingInterval{
	BillingIntervalMonth,
	BillingIntervalYear,
}

// String implements fmt.Stringer.
func (b BillingInterval) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BillingInterval.
func (b BillingInterval) IsValid() bool {
	for _, candidate := range validBillingIntervals {
		if candidate == b {
			return true
		}
	}
	return false
}

// Months normalizes the interval into the client's payment frequency.
func (b BillingInterval) Months() int {
	if b == BillingIntervalYear {
		return 12
	}
	return 1
}

// ParseBillingInterval converts raw input into a BillingInterval.
func ParseBillingInterval(value string) (BillingInterval, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validBillingIntervals {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing interval %q", value)
}
