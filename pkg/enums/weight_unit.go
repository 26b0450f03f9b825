package enums

// WeightUnit is the unit an item's weight is expressed in. Items may carry
// units outside this list; those are priced as-is and flagged.
type WeightUnit string

const (
	WeightUnitGram     WeightUnit = "g"
	WeightUnitKilogram WeightUnit = "kg"
	WeightUnitLiter    WeightUnit = "L"
)

var knownWeightUnits = []WeightUnit{
	WeightUnitGram,
	WeightUnitKilogram,
	WeightUnitLiter,
}

// String implements fmt.Stringer.
func (w WeightUnit) String() string {
	return string(w)
}

// IsKnown reports whether the unit has a defined conversion to kilograms.
func (w WeightUnit) IsKnown() bool {
	for _, candidate := range knownWeightUnits {
		if candidate == w {
			return true
		}
	}
	return false
}
