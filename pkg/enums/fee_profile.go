package enums

import (
	"fmt"
	"strings"
)

// FeeProfile names the constant set used by the fee engine for a supermarket.
type FeeProfile string

const (
	FeeProfileStandard  FeeProfile = "standard"
	FeeProfileWholesale FeeProfile = "wholesale"
)

var validFeeProfiles = []FeeProfile{
	FeeProfileStandard,
	FeeProfileWholesale,
}

// String implements fmt.Stringer.
func (f FeeProfile) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FeeProfile.
func (f FeeProfile) IsValid() bool {
	for _, candidate := range validFeeProfiles {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFeeProfile converts raw input into a FeeProfile. Matching ignores case
// and surrounding whitespace.
func ParseFeeProfile(value string) (FeeProfile, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validFeeProfiles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fee profile %q", value)
}
