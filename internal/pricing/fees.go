package pricing

import (
	"github.com/angelmondragon/grocer-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// FeeProfile carries the constants of the picking and delivery fee formulas.
type FeeProfile struct {
	Name              enums.FeeProfile
	PerUnitLabor      decimal.Decimal
	WeightRate        decimal.Decimal
	WeightThresholdKg decimal.Decimal
	QuantityThreshold int
	BaseRatePerKm     decimal.Decimal
	HeavyRatePerKm    decimal.Decimal
}

// StandardProfile is the retail storefront profile.
func StandardProfile() FeeProfile {
	return FeeProfile{
		Name:              enums.FeeProfileStandard,
		PerUnitLabor:      decimal.RequireFromString("0.25"),
		WeightRate:        decimal.RequireFromString("0.25"),
		WeightThresholdKg: decimal.NewFromInt(30),
		QuantityThreshold: 100,
		BaseRatePerKm:     decimal.NewFromInt(2),
		HeavyRatePerKm:    decimal.NewFromInt(4),
	}
}

// WholesaleProfile is the bulk storefront profile: a lighter weight surcharge
// and a higher weight threshold before the heavy delivery tier.
func WholesaleProfile() FeeProfile {
	p := StandardProfile()
	p.Name = enums.FeeProfileWholesale
	p.WeightRate = decimal.RequireFromString("0.03")
	p.WeightThresholdKg = decimal.NewFromInt(150)
	return p
}

// Distance is the route length to the customer, or unavailable when the
// lookup failed.
type Distance struct {
	Km        decimal.Decimal
	Available bool
}

func DistanceKm(km decimal.Decimal) Distance {
	return Distance{Km: km, Available: true}
}

func DistanceUnavailable() Distance {
	return Distance{Km: decimal.Zero}
}

// Fees is the output of the fee engine. Values are unrounded.
type Fees struct {
	PickingFee        decimal.Decimal
	DeliveryFee       decimal.Decimal
	RatePerKm         decimal.Decimal
	HeavyTier         bool
	DistanceAvailable bool
}

// ComputeFees derives the picking and delivery fees for aggregated totals.
// An unavailable distance yields a zero delivery fee and DistanceAvailable=false.
func ComputeFees(totals Totals, distance Distance, profile FeeProfile) Fees {
	picking := decimal.Zero
	for _, line := range totals.Lines {
		qty := decimal.NewFromInt(int64(line.Item.Quantity))
		labor := qty.Mul(profile.PerUnitLabor)
		surcharge := line.Weight.Value.Mul(qty).Mul(profile.WeightRate)
		picking = picking.Add(labor).Add(surcharge)
	}

	rate, heavy := DeliveryRate(totals.TotalQuantity, totals.TotalWeight, profile)
	fees := Fees{
		PickingFee:        picking,
		DeliveryFee:       decimal.Zero,
		RatePerKm:         rate,
		HeavyTier:         heavy,
		DistanceAvailable: distance.Available,
	}
	if distance.Available {
		fees.DeliveryFee = distance.Km.Mul(rate)
	}
	return fees
}

// DeliveryRate picks the per-km rate. The heavy tier applies when the order
// exceeds the quantity threshold or the weight threshold.
func DeliveryRate(totalQuantity int, totalWeight decimal.Decimal, profile FeeProfile) (decimal.Decimal, bool) {
	if totalQuantity > profile.QuantityThreshold || totalWeight.GreaterThan(profile.WeightThresholdKg) {
		return profile.HeavyRatePerKm, true
	}
	return profile.BaseRatePerKm, false
}
