package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one cart entry joined with the catalog data needed to price it.
type LineItem struct {
	ItemID          string
	Name            string
	UnitPrice       decimal.Decimal
	DiscountPercent *decimal.Decimal
	PromotionEndsAt *time.Time
	Weight          decimal.Decimal
	Unit            string
	QuantityOffers  []QuantityOffer
	Quantity        int
}

// PricedLine is a line item after price resolution and unit normalization.
type PricedLine struct {
	Item       LineItem
	Resolution Resolution
	LineTotal  decimal.Decimal
	Weight     NormalizedWeight
	LineWeight decimal.Decimal
}

// Totals is the fold of a cart. Values are unrounded.
type Totals struct {
	Subtotal      decimal.Decimal
	TotalWeight   decimal.Decimal
	TotalQuantity int
	Lines         []PricedLine
	// UnknownUnits lists item ids whose unit had no conversion.
	UnknownUnits []string
}

// Aggregate prices every line at now and sums subtotal, weight and quantity.
// Lines with a non-positive quantity are not part of a cart and are skipped.
func Aggregate(lines []LineItem, now time.Time) Totals {
	totals := Totals{
		Subtotal:    decimal.Zero,
		TotalWeight: decimal.Zero,
		Lines:       make([]PricedLine, 0, len(lines)),
	}

	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		qty := decimal.NewFromInt(int64(line.Quantity))

		resolution := ResolvePrice(line, line.Quantity, now)
		weight := Normalize(line.Weight, line.Unit)
		priced := PricedLine{
			Item:       line,
			Resolution: resolution,
			LineTotal:  resolution.UnitPrice.Mul(qty),
			Weight:     weight,
			LineWeight: weight.Value.Mul(qty),
		}

		totals.Subtotal = totals.Subtotal.Add(priced.LineTotal)
		totals.TotalWeight = totals.TotalWeight.Add(priced.LineWeight)
		totals.TotalQuantity += line.Quantity
		totals.Lines = append(totals.Lines, priced)
		if !weight.Known {
			totals.UnknownUnits = append(totals.UnknownUnits, line.ItemID)
		}
	}

	return totals
}
