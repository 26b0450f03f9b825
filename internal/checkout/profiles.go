package checkout

import (
	"fmt"

	"github.com/angelmondragon/grocer-backend/internal/pricing"
	"github.com/angelmondragon/grocer-backend/pkg/config"
	"github.com/angelmondragon/grocer-backend/pkg/enums"
)

// ProfilesFromConfig builds the fee profile set from the checkout config.
func ProfilesFromConfig(cfg config.CheckoutConfig) (*pricing.ProfileSet, error) {
	fallback, err := enums.ParseFeeProfile(cfg.DefaultFeeProfile)
	if err != nil {
		return nil, fmt.Errorf("default fee profile: %w", err)
	}
	return pricing.NewProfileSet(
		fallback,
		feeProfile(enums.FeeProfileStandard, cfg.StandardProfile()),
		feeProfile(enums.FeeProfileWholesale, cfg.WholesaleProfile()),
	)
}

func feeProfile(name enums.FeeProfile, c config.FeeProfileConfig) pricing.FeeProfile {
	return pricing.FeeProfile{
		Name:              name,
		PerUnitLabor:      c.PerUnitLabor,
		WeightRate:        c.WeightRate,
		WeightThresholdKg: c.WeightThresholdKg,
		QuantityThreshold: c.QuantityThreshold,
		BaseRatePerKm:     c.BaseRatePerKm,
		HeavyRatePerKm:    c.HeavyRatePerKm,
	}
}
