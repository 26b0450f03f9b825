package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func tp(t time.Time) *time.Time {
	return &t
}

func assertDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Fatalf("%s = %s, want %s", label, got.String(), want)
	}
}

// bananas is the reference cart line: 1.99 with 10% off, 500 g, qty 3.
func bananas() LineItem {
	return LineItem{
		ItemID:          "item-bananas",
		Name:            "Bananas",
		UnitPrice:       d("1.99"),
		DiscountPercent: dp("10"),
		PromotionEndsAt: tp(testNow.Add(48 * time.Hour)),
		Weight:          d("500"),
		Unit:            "g",
		Quantity:        3,
	}
}
