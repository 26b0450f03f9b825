package pricing

import (
	"fmt"
	"time"

	"github.com/angelmondragon/grocer-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// FeeQuote is the final price breakdown of an order.
type FeeQuote struct {
	Subtotal    decimal.Decimal
	PickingFee  decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// ComposeQuote sums the three components. Only Total is rounded, to 2 places.
func ComposeQuote(subtotal, pickingFee, deliveryFee decimal.Decimal) FeeQuote {
	return FeeQuote{
		Subtotal:    subtotal,
		PickingFee:  pickingFee,
		DeliveryFee: deliveryFee,
		Total:       subtotal.Add(pickingFee).Add(deliveryFee).Round(2),
	}
}

// Rounded returns the presentation copy with every component at 2 places.
func (q FeeQuote) Rounded() FeeQuote {
	return FeeQuote{
		Subtotal:    q.Subtotal.Round(2),
		PickingFee:  q.PickingFee.Round(2),
		DeliveryFee: q.DeliveryFee.Round(2),
		Total:       q.Total.Round(2),
	}
}

// Warning is a non-fatal problem found while pricing.
type Warning struct {
	Type    enums.QuoteWarningType
	ItemID  string
	Message string
}

// Quote bundles everything produced for one pricing run.
type Quote struct {
	FeeQuote FeeQuote
	Totals   Totals
	Fees     Fees
	Profile  enums.FeeProfile
	PricedAt time.Time
	Warnings []Warning
}

// Price runs the full pipeline: aggregate, fees, compose.
func Price(lines []LineItem, distance Distance, profile FeeProfile, now time.Time) Quote {
	totals := Aggregate(lines, now)
	fees := ComputeFees(totals, distance, profile)

	quote := Quote{
		FeeQuote: ComposeQuote(totals.Subtotal, fees.PickingFee, fees.DeliveryFee),
		Totals:   totals,
		Fees:     fees,
		Profile:  profile.Name,
		PricedAt: now,
	}

	for _, line := range totals.Lines {
		if line.Weight.Known {
			continue
		}
		quote.Warnings = append(quote.Warnings, Warning{
			Type:    enums.QuoteWarningTypeUnitUnrecognized,
			ItemID:  line.Item.ItemID,
			Message: fmt.Sprintf("unit %q has no conversion; weight used as-is", line.Item.Unit),
		})
	}
	if !fees.DistanceAvailable {
		quote.Warnings = append(quote.Warnings, Warning{
			Type:    enums.QuoteWarningTypeDistanceUnavailable,
			Message: "delivery distance unavailable; delivery fee not included",
		})
	}

	return quote
}

// ProfileSet resolves the fee profile configured for a supermarket.
type ProfileSet struct {
	profiles map[enums.FeeProfile]FeeProfile
	fallback enums.FeeProfile
}

// NewProfileSet indexes profiles by name. fallback must be one of them.
func NewProfileSet(fallback enums.FeeProfile, profiles ...FeeProfile) (*ProfileSet, error) {
	set := &ProfileSet{profiles: make(map[enums.FeeProfile]FeeProfile, len(profiles)), fallback: fallback}
	for _, p := range profiles {
		set.profiles[p.Name] = p
	}
	if _, ok := set.profiles[fallback]; !ok {
		return nil, fmt.Errorf("fallback fee profile %q is not configured", fallback)
	}
	return set, nil
}

// For returns the named profile, or the fallback when name is empty or unknown.
func (s *ProfileSet) For(name enums.FeeProfile) FeeProfile {
	if p, ok := s.profiles[name]; ok {
		return p
	}
	return s.profiles[s.fallback]
}
