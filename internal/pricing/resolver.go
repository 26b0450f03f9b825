package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// QuantityOffer is a bulk tier: buying at least MinQuantity units prices every
// unit at PricePerUnit.
type QuantityOffer struct {
	MinQuantity  int
	PricePerUnit decimal.Decimal
}

// PriceSource names the rule that produced a resolved unit price.
type PriceSource string

const (
	PriceSourceBase          PriceSource = "base"
	PriceSourcePromotion     PriceSource = "promotion"
	PriceSourceQuantityOffer PriceSource = "quantity_offer"
)

// Resolution is the effective unit price for a quantity plus the rule that won.
type Resolution struct {
	UnitPrice decimal.Decimal
	Source    PriceSource
	Offer     *QuantityOffer
}

// PromotionActive reports whether the item's discount applies at now. The
// discount needs both a percentage and an end date that has not passed.
func PromotionActive(item LineItem, now time.Time) bool {
	if item.DiscountPercent == nil || item.PromotionEndsAt == nil {
		return false
	}
	return now.Before(*item.PromotionEndsAt)
}

// ResolvePrice returns the unit price of item when buying quantity units.
// A qualifying quantity offer overrides an active promotion, even when the
// offer price is higher than the discounted price.
func ResolvePrice(item LineItem, quantity int, now time.Time) Resolution {
	if offer := SelectOffer(item.QuantityOffers, quantity); offer != nil {
		return Resolution{
			UnitPrice: offer.PricePerUnit,
			Source:    PriceSourceQuantityOffer,
			Offer:     offer,
		}
	}

	if PromotionActive(item, now) {
		factor := decimal.NewFromInt(1).Sub(item.DiscountPercent.Div(hundred))
		return Resolution{
			UnitPrice: item.UnitPrice.Mul(factor),
			Source:    PriceSourcePromotion,
		}
	}

	return Resolution{UnitPrice: item.UnitPrice, Source: PriceSourceBase}
}

// SelectOffer picks the offer with the largest MinQuantity not above quantity.
// Offers sharing a MinQuantity keep their input order, so the first listed wins.
// The input slice is not modified.
func SelectOffer(offers []QuantityOffer, quantity int) *QuantityOffer {
	if len(offers) == 0 {
		return nil
	}

	sorted := make([]QuantityOffer, len(offers))
	copy(sorted, offers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity > sorted[j].MinQuantity
	})

	for i := range sorted {
		if sorted[i].MinQuantity <= quantity {
			selected := sorted[i]
			return &selected
		}
	}
	return nil
}
