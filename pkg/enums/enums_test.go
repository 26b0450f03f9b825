package enums

import "testing"

func TestParseFeeProfile(t *testing.T) {
	cases := map[string]FeeProfile{
		"standard":    FeeProfileStandard,
		" Wholesale ": FeeProfileWholesale,
	}
	for in, want := range cases {
		got, err := ParseFeeProfile(in)
		if err != nil {
			t.Fatalf("ParseFeeProfile(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseFeeProfile(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseFeeProfile("express"); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestRoleHelpers(t *testing.T) {
	if !RoleOwner.CanManageSupermarkets() || !RoleAdmin.CanManageSupermarkets() {
		t.Fatal("owner and admin should manage supermarkets")
	}
	if RoleCustomer.CanManageSupermarkets() {
		t.Fatal("customers should not manage supermarkets")
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if Role("owner").IsValid() != true {
		t.Fatal("owner should be valid")
	}
}

func TestWeightUnitIsKnown(t *testing.T) {
	for _, unit := range []WeightUnit{"g", "kg", "L"} {
		if !unit.IsKnown() {
			t.Fatalf("%q should be known", unit)
		}
	}
	for _, unit := range []WeightUnit{"lb", "l", ""} {
		if unit.IsKnown() {
			t.Fatalf("%q should be unknown", unit)
		}
	}
}

func TestQuoteWarningTypeParse(t *testing.T) {
	got, err := ParseQuoteWarningType("distance_unavailable")
	if err != nil || got != QuoteWarningTypeDistanceUnavailable {
		t.Fatalf("unexpected parse result %q, %v", got, err)
	}
	if QuoteWarningType("nope").IsValid() {
		t.Fatal("unknown warning should be invalid")
	}
}
