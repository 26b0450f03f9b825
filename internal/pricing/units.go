// Package pricing turns a cart snapshot and a delivery distance into a fee quote.
// Everything here is a pure function of its inputs.
package pricing

import (
	"strings"

	"github.com/angelmondragon/grocer-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

var gramsPerKilogram = decimal.NewFromInt(1000)

// NormalizedWeight is a weight expressed in kilograms (or liters). Known is
// false when the source unit had no conversion and the value passed through.
type NormalizedWeight struct {
	Value decimal.Decimal
	Known bool
}

// Normalize converts weight in unit into the standard unit.
func Normalize(weight decimal.Decimal, unit string) NormalizedWeight {
	switch enums.WeightUnit(strings.TrimSpace(unit)) {
	case enums.WeightUnitGram:
		return NormalizedWeight{Value: weight.Div(gramsPerKilogram), Known: true}
	case enums.WeightUnitKilogram, enums.WeightUnitLiter:
		return NormalizedWeight{Value: weight, Known: true}
	default:
		return NormalizedWeight{Value: weight, Known: false}
	}
}

// NormalizeValue is Normalize without the Known flag.
func NormalizeValue(weight decimal.Decimal, unit string) decimal.Decimal {
	return Normalize(weight, unit).Value
}
