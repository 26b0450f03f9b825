package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/grocer-backend/api/responses"
	"github.com/angelmondragon/grocer-backend/api/validators"
	"github.com/angelmondragon/grocer-backend/internal/items"
	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/angelmondragon/grocer-backend/pkg/logger"
	"github.com/angelmondragon/grocer-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type offerRequest struct {
	MinQuantity  int    `json:"min_quantity" validate:"required,min=1"`
	PricePerUnit string `json:"price_per_unit" validate:"required,money"`
}

// Amounts travel as strings so they keep their exact decimal value.
type itemCreateRequest struct {
	CategoryID      *uuid.UUID     `json:"category_id,omitempty"`
	Name            string         `json:"name" validate:"required,max=200"`
	Description     *string        `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price           string         `json:"price" validate:"required,money"`
	DiscountPercent *string        `json:"discount_percent,omitempty" validate:"omitempty,numeric"`
	PromotionEndsAt *time.Time     `json:"promotion_ends_at,omitempty"`
	Weight          string         `json:"weight" validate:"required,numeric"`
	Unit            string         `json:"unit" validate:"required,max=16"`
	ImageURL        *string        `json:"image_url,omitempty" validate:"omitempty,url"`
	IsActive        *bool          `json:"is_active,omitempty"`
	QuantityOffers  []offerRequest `json:"quantity_offers,omitempty" validate:"omitempty,max=20,dive"`
}

func (r itemCreateRequest) toInput() (items.CreateInput, error) {
	price, err := parseDecimal("price", r.Price)
	if err != nil {
		return items.CreateInput{}, err
	}
	weight, err := parseDecimal("weight", r.Weight)
	if err != nil {
		return items.CreateInput{}, err
	}
	discount, err := parseOptionalDecimal("discount_percent", r.DiscountPercent)
	if err != nil {
		return items.CreateInput{}, err
	}
	offers, err := offerInputs(r.QuantityOffers)
	if err != nil {
		return items.CreateInput{}, err
	}
	return items.CreateInput{
		CategoryID:      r.CategoryID,
		Name:            r.Name,
		Description:     r.Description,
		Price:           price,
		DiscountPercent: discount,
		PromotionEndsAt: r.PromotionEndsAt,
		Weight:          weight,
		Unit:            r.Unit,
		ImageURL:        r.ImageURL,
		IsActive:        r.IsActive,
		QuantityOffers:  offers,
	}, nil
}

type itemUpdateRequest struct {
	CategoryID      *uuid.UUID      `json:"category_id,omitempty"`
	ClearCategory   bool            `json:"clear_category,omitempty"`
	Name            *string         `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description     *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price           *string         `json:"price,omitempty" validate:"omitempty,money"`
	DiscountPercent *string         `json:"discount_percent,omitempty" validate:"omitempty,numeric"`
	PromotionEndsAt *time.Time      `json:"promotion_ends_at,omitempty"`
	ClearPromotion  bool            `json:"clear_promotion,omitempty"`
	Weight          *string         `json:"weight,omitempty" validate:"omitempty,numeric"`
	Unit            *string         `json:"unit,omitempty" validate:"omitempty,min=1,max=16"`
	ImageURL        *string         `json:"image_url,omitempty" validate:"omitempty,url"`
	IsActive        *bool           `json:"is_active,omitempty"`
	QuantityOffers  *[]offerRequest `json:"quantity_offers,omitempty" validate:"omitempty,max=20,dive"`
}

func (r itemUpdateRequest) toInput() (items.UpdateInput, error) {
	input := items.UpdateInput{
		CategoryID:      r.CategoryID,
		ClearCategory:   r.ClearCategory,
		Name:            r.Name,
		Description:     r.Description,
		PromotionEndsAt: r.PromotionEndsAt,
		ClearPromotion:  r.ClearPromotion,
		Unit:            r.Unit,
		ImageURL:        r.ImageURL,
		IsActive:        r.IsActive,
	}
	var err error
	if input.Price, err = parseOptionalDecimal("price", r.Price); err != nil {
		return items.UpdateInput{}, err
	}
	if input.DiscountPercent, err = parseOptionalDecimal("discount_percent", r.DiscountPercent); err != nil {
		return items.UpdateInput{}, err
	}
	if input.Weight, err = parseOptionalDecimal("weight", r.Weight); err != nil {
		return items.UpdateInput{}, err
	}
	if r.QuantityOffers != nil {
		offers, err := offerInputs(*r.QuantityOffers)
		if err != nil {
			return items.UpdateInput{}, err
		}
		input.QuantityOffers = &offers
	}
	return input, nil
}

func offerInputs(reqs []offerRequest) ([]items.OfferInput, error) {
	out := make([]items.OfferInput, 0, len(reqs))
	for _, o := range reqs {
		price, err := parseDecimal("price_per_unit", o.PricePerUnit)
		if err != nil {
			return nil, err
		}
		out = append(out, items.OfferInput{MinQuantity: o.MinQuantity, PricePerUnit: price})
	}
	return out, nil
}

func parseDecimal(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{field: "must be a decimal number"})
	}
	return d, nil
}

func parseOptionalDecimal(field string, raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := parseDecimal(field, *raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func listInput(r *http.Request, supermarketID uuid.UUID) (items.ListInput, error) {
	categoryID, err := validators.ParseQueryUUID(r, "category_id")
	if err != nil {
		return items.ListInput{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return items.ListInput{}, err
	}
	return items.ListInput{
		SupermarketID: supermarketID,
		CategoryID:    categoryID,
		Pagination: pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		},
	}, nil
}

// ListItems pages through the active catalog, optionally within one category.
func ListItems(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "item")
			return
		}
		supermarketID, r, err := supermarketScope(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := listInput(r, supermarketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetItem(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "item")
			return
		}
		supermarketID, r, err := supermarketScope(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseUUIDParam(r, paramItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), supermarketID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// DashboardListItems includes inactive items for the owner.
func DashboardListItems(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "item")
			return
		}
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supermarketID, r, err := supermarketScope(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := listInput(r, supermarketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListOwned(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func DashboardCreateItem(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "item")
			return
		}
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supermarketID, r, err := supermarketScope(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload itemCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), userID, supermarketID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func DashboardUpdateItem(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "item")
			return
		}
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supermarketID, r, err := supermarketScope(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseUUIDParam(r, paramItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload itemUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), userID, supermarketID, itemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func DashboardDeleteItem(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "item")
			return
		}
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supermarketID, r, err := supermarketScope(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseUUIDParam(r, paramItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, supermarketID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
