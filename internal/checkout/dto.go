package checkout

import (
	"time"

	"github.com/angelmondragon/grocer-backend/internal/distance"
	"github.com/angelmondragon/grocer-backend/internal/pricing"
	"github.com/google/uuid"
)

// QuoteInput identifies the cart to price and where it is delivered.
type QuoteInput struct {
	SessionID string   `json:"session_id" validate:"required"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// SubmitInput adds the customer block printed on the order summary.
type SubmitInput struct {
	QuoteInput
	CustomerName  string `json:"customer_name" validate:"required"`
	Phone         string `json:"phone"`
	Note          string `json:"note"`
	PaymentMethod string `json:"payment_method"`
}

type QuoteLineDTO struct {
	ItemID      string `json:"item_id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	PriceSource string `json:"price_source"`
	LineTotal   string `json:"line_total"`
	WeightKg    string `json:"weight_kg"`
	UnitKnown   bool   `json:"unit_known"`
}

type WarningDTO struct {
	Type    string `json:"type"`
	ItemID  string `json:"item_id,omitempty"`
	Message string `json:"message"`
}

// QuoteDTO is the presented quote. Money is serialized with 2 decimals.
type QuoteDTO struct {
	SupermarketID     uuid.UUID      `json:"supermarket_id"`
	Profile           string         `json:"fee_profile"`
	Subtotal          string         `json:"subtotal"`
	PickingFee        string         `json:"picking_fee"`
	DeliveryFee       string         `json:"delivery_fee"`
	Total             string         `json:"total"`
	TotalQuantity     int            `json:"total_quantity"`
	TotalWeightKg     string         `json:"total_weight_kg"`
	DistanceAvailable bool           `json:"distance_available"`
	DistanceKm        *string        `json:"distance_km"`
	HeavyTier         bool           `json:"heavy_tier"`
	Lines             []QuoteLineDTO `json:"lines"`
	Warnings          []WarningDTO   `json:"warnings"`
	PricedAt          time.Time      `json:"priced_at"`
}

// SubmissionDTO is what the storefront needs to hand the order to WhatsApp.
type SubmissionDTO struct {
	Quote       QuoteDTO `json:"quote"`
	Summary     string   `json:"summary"`
	WhatsAppURL string   `json:"whatsapp_url"`
}

// OrderSubmittedEvent is published when a customer submits an order.
type OrderSubmittedEvent struct {
	SupermarketID uuid.UUID      `json:"supermarket_id"`
	SessionID     string         `json:"session_id"`
	CustomerName  string         `json:"customer_name"`
	Phone         string         `json:"phone,omitempty"`
	Address       string         `json:"address"`
	PaymentMethod string         `json:"payment_method,omitempty"`
	FeeProfile    string         `json:"fee_profile"`
	Subtotal      string         `json:"subtotal"`
	PickingFee    string         `json:"picking_fee"`
	DeliveryFee   string         `json:"delivery_fee"`
	Total         string         `json:"total"`
	Lines         []QuoteLineDTO `json:"lines"`
	SubmittedAt   time.Time      `json:"submitted_at"`
}

func quoteDTO(supermarketID uuid.UUID, q pricing.Quote, dist distance.Result) QuoteDTO {
	fq := q.FeeQuote.Rounded()
	out := QuoteDTO{
		SupermarketID:     supermarketID,
		Profile:           q.Profile.String(),
		Subtotal:          fq.Subtotal.StringFixed(2),
		PickingFee:        fq.PickingFee.StringFixed(2),
		DeliveryFee:       fq.DeliveryFee.StringFixed(2),
		Total:             fq.Total.StringFixed(2),
		TotalQuantity:     q.Totals.TotalQuantity,
		TotalWeightKg:     q.Totals.TotalWeight.StringFixed(3),
		DistanceAvailable: q.Fees.DistanceAvailable,
		HeavyTier:         q.Fees.HeavyTier,
		Lines:             make([]QuoteLineDTO, 0, len(q.Totals.Lines)),
		Warnings:          make([]WarningDTO, 0, len(q.Warnings)),
		PricedAt:          q.PricedAt,
	}
	if dist.Available {
		km := dist.Km.StringFixed(2)
		out.DistanceKm = &km
	}
	for _, line := range q.Totals.Lines {
		out.Lines = append(out.Lines, QuoteLineDTO{
			ItemID:      line.Item.ItemID,
			Name:        line.Item.Name,
			Quantity:    line.Item.Quantity,
			UnitPrice:   line.Resolution.UnitPrice.StringFixed(2),
			PriceSource: string(line.Resolution.Source),
			LineTotal:   line.LineTotal.StringFixed(2),
			WeightKg:    line.LineWeight.StringFixed(3),
			UnitKnown:   line.Weight.Known,
		})
	}
	for _, w := range q.Warnings {
		out.Warnings = append(out.Warnings, WarningDTO{Type: w.Type.String(), ItemID: w.ItemID, Message: w.Message})
	}
	return out
}
