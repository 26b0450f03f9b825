package enums

import "fmt"

// QuoteWarningType enumerates the non-fatal problems attached to a checkout quote.
type QuoteWarningType string

const (
	QuoteWarningTypeUnitUnrecognized    QuoteWarningType = "unit_unrecognized"
	QuoteWarningTypeDistanceUnavailable QuoteWarningType = "distance_unavailable"
	QuoteWarningTypeItemNotFound        QuoteWarningType = "item_not_found"
	QuoteWarningTypeItemInactive        QuoteWarningType = "item_inactive"
)

var validQuoteWarningTypes = []QuoteWarningType{
	QuoteWarningTypeUnitUnrecognized,
	QuoteWarningTypeDistanceUnavailable,
	QuoteWarningTypeItemNotFound,
	QuoteWarningTypeItemInactive,
}

// String implements fmt.Stringer.
func (q QuoteWarningType) String() string {
	return string(q)
}

// IsValid reports whether the value is known.
func (q QuoteWarningType) IsValid() bool {
	for _, candidate := range validQuoteWarningTypes {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuoteWarningType converts raw input into a QuoteWarningType.
func ParseQuoteWarningType(value string) (QuoteWarningType, error) {
	for _, candidate := range validQuoteWarningTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote warning type %q", value)
}
