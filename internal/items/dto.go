package items

import (
	"time"

	"github.com/angelmondragon/grocer-backend/internal/pricing"
	"github.com/angelmondragon/grocer-backend/pkg/db/models"
	"github.com/angelmondragon/grocer-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuantityOfferDTO is one bulk tier in API payloads.
type QuantityOfferDTO struct {
	MinQuantity  int             `json:"min_quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
}

// ItemDTO is the storefront view of an item.
type ItemDTO struct {
	ID              uuid.UUID          `json:"id"`
	SupermarketID   uuid.UUID          `json:"supermarket_id"`
	CategoryID      *uuid.UUID         `json:"category_id"`
	Name            string             `json:"name"`
	Description     *string            `json:"description,omitempty"`
	Price           decimal.Decimal    `json:"price"`
	DiscountPercent *decimal.Decimal   `json:"discount_percent,omitempty"`
	PromotionEndsAt *time.Time         `json:"promotion_ends_at,omitempty"`
	PromotionActive bool               `json:"promotion_active"`
	EffectivePrice  decimal.Decimal    `json:"effective_price"`
	Weight          decimal.Decimal    `json:"weight"`
	Unit            string             `json:"unit"`
	UnitKnown       bool               `json:"unit_known"`
	ImageURL        *string            `json:"image_url,omitempty"`
	IsActive        bool               `json:"is_active"`
	QuantityOffers  []QuantityOfferDTO `json:"quantity_offers"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// OfferInput is a requested bulk tier.
type OfferInput struct {
	MinQuantity  int
	PricePerUnit decimal.Decimal
}

// CreateInput holds the fields of a new item.
type CreateInput struct {
	CategoryID      *uuid.UUID
	Name            string
	Description     *string
	Price           decimal.Decimal
	DiscountPercent *decimal.Decimal
	PromotionEndsAt *time.Time
	Weight          decimal.Decimal
	Unit            string
	ImageURL        *string
	IsActive        *bool
	QuantityOffers  []OfferInput
}

// UpdateInput holds mutable fields; nil means unchanged. A non-nil
// QuantityOffers replaces the whole offer list. ClearPromotion removes the
// discount and its end date.
type UpdateInput struct {
	CategoryID      *uuid.UUID
	ClearCategory   bool
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	DiscountPercent *decimal.Decimal
	PromotionEndsAt *time.Time
	ClearPromotion  bool
	Weight          *decimal.Decimal
	Unit            *string
	ImageURL        *string
	IsActive        *bool
	QuantityOffers  *[]OfferInput
}

// LineItem joins a stored item with a cart quantity for pricing.
func LineItem(m *models.Item, quantity int) pricing.LineItem {
	offers := make([]pricing.QuantityOffer, 0, len(m.QuantityOffers))
	for _, o := range m.QuantityOffers {
		offers = append(offers, pricing.QuantityOffer{MinQuantity: o.MinQuantity, PricePerUnit: o.PricePerUnit})
	}
	return pricing.LineItem{
		ItemID:          m.ID.String(),
		Name:            m.Name,
		UnitPrice:       m.Price,
		DiscountPercent: m.DiscountPercent,
		PromotionEndsAt: m.PromotionEndsAt,
		Weight:          m.Weight,
		Unit:            m.Unit,
		QuantityOffers:  offers,
		Quantity:        quantity,
	}
}

// FromModel maps the persisted item into a DTO priced for a single unit at now.
func FromModel(m *models.Item, now time.Time) *ItemDTO {
	if m == nil {
		return nil
	}
	line := LineItem(m, 1)
	offers := make([]QuantityOfferDTO, 0, len(m.QuantityOffers))
	for _, o := range m.QuantityOffers {
		offers = append(offers, QuantityOfferDTO{MinQuantity: o.MinQuantity, PricePerUnit: o.PricePerUnit})
	}
	return &ItemDTO{
		ID:              m.ID,
		SupermarketID:   m.SupermarketID,
		CategoryID:      m.CategoryID,
		Name:            m.Name,
		Description:     m.Description,
		Price:           m.Price,
		DiscountPercent: m.DiscountPercent,
		PromotionEndsAt: m.PromotionEndsAt,
		PromotionActive: pricing.PromotionActive(line, now),
		EffectivePrice:  pricing.ResolvePrice(line, 1, now).UnitPrice.Round(2),
		Weight:          m.Weight,
		Unit:            m.Unit,
		UnitKnown:       enums.WeightUnit(m.Unit).IsKnown(),
		ImageURL:        m.ImageURL,
		IsActive:        m.IsActive,
		QuantityOffers:  offers,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
