package enums

import "fmt"

// RejectionReason explains why an order ended up rejected.
type RejectionReason string

const (
	RejectionReasonInvalidOrderData           RejectionReason = "INVALID_ORDER_DATA"
	RejectionReasonInventoryReservationFailed RejectionReason = "INVENTORY_RESERVATION_FAILED"
)

var validRejectionReasons = []RejectionReason{
	RejectionReasonInvalidOrderData,
	RejectionReasonInventoryReservationFailed,
}

// String implements fmt.Stringer.
func (r RejectionReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RejectionReason.
func (r RejectionReason) IsValid() bool {
	for _, candidate := range validRejectionReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRejectionReason converts raw input into a RejectionReason.
func ParseRejectionReason(value string) (RejectionReason, error) {
	for _, candidate := range validRejectionReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rejection reason %q", value)
}
