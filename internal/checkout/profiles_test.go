package checkout

import (
	"testing"

	"github.com/angelmondragon/grocer-backend/pkg/config"
	"github.com/angelmondragon/grocer-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

func TestProfilesFromConfig(t *testing.T) {
	var cfg config.CheckoutConfig
	cfg.DefaultFeeProfile = "Wholesale"
	cfg.Standard.PerUnitLabor = decimal.RequireFromString("0.25")
	cfg.Standard.WeightRate = decimal.RequireFromString("0.25")
	cfg.Standard.WeightThresholdKg = decimal.NewFromInt(30)
	cfg.Standard.QuantityThreshold = 100
	cfg.Wholesale.WeightRate = decimal.RequireFromString("0.03")
	cfg.Wholesale.WeightThresholdKg = decimal.NewFromInt(150)

	set, err := ProfilesFromConfig(cfg)
	if err != nil {
		t.Fatalf("profiles: %v", err)
	}
	standard := set.For(enums.FeeProfileStandard)
	if standard.Name != enums.FeeProfileStandard || !standard.WeightThresholdKg.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected standard profile %+v", standard)
	}
	if got := set.For(""); got.Name != enums.FeeProfileWholesale {
		t.Fatalf("fallback = %s, want wholesale", got.Name)
	}
}

func TestProfilesFromConfigRejectsUnknownDefault(t *testing.T) {
	var cfg config.CheckoutConfig
	cfg.DefaultFeeProfile = "express"
	if _, err := ProfilesFromConfig(cfg); err == nil {
		t.Fatal("expected error")
	}
}
