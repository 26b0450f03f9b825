package items

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/grocer-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/angelmondragon/grocer-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type itemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	List(ctx context.Context, query ListQuery) ([]models.Item, string, error)
	CategoryInSupermarket(ctx context.Context, categoryID, supermarketID uuid.UUID) (bool, error)
	CreateWithTx(tx *gorm.DB, item *models.Item) error
	UpdateWithTx(tx *gorm.DB, item *models.Item) error
	ReplaceOffersWithTx(tx *gorm.DB, itemID uuid.UUID, offers []models.ItemQuantityOffer) error
	DeleteWithTx(tx *gorm.DB, itemID uuid.UUID) error
}

type ownership interface {
	RequireOwner(ctx context.Context, userID, supermarketID uuid.UUID) (*models.Supermarket, error)
}

// ListInput is a catalog listing request.
type ListInput struct {
	SupermarketID   uuid.UUID
	CategoryID      *uuid.UUID
	IncludeInactive bool
	Pagination      pagination.Params
}

// Service exposes catalog operations.
type Service interface {
	Create(ctx context.Context, userID, supermarketID uuid.UUID, input CreateInput) (*ItemDTO, error)
	Update(ctx context.Context, userID, supermarketID, itemID uuid.UUID, input UpdateInput) (*ItemDTO, error)
	Delete(ctx context.Context, userID, supermarketID, itemID uuid.UUID) error
	Get(ctx context.Context, supermarketID, itemID uuid.UUID) (*ItemDTO, error)
	List(ctx context.Context, input ListInput) (*pagination.Page[ItemDTO], error)
	ListOwned(ctx context.Context, userID uuid.UUID, input ListInput) (*pagination.Page[ItemDTO], error)
}

type service struct {
	tx     txRunner
	repo   itemRepository
	owners ownership
	now    func() time.Time
}

// NewService builds the catalog service.
func NewService(tx txRunner, repo itemRepository, owners ownership) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if owners == nil {
		return nil, fmt.Errorf("ownership checker required")
	}
	return &service{tx: tx, repo: repo, owners: owners, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, userID, supermarketID uuid.UUID, input CreateInput) (*ItemDTO, error) {
	if _, err := s.owners.RequireOwner(ctx, userID, supermarketID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit is required")
	}
	if err := validateAmounts(input.Price, input.Weight, input.DiscountPercent); err != nil {
		return nil, err
	}
	offers, err := buildOffers(input.QuantityOffers)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, supermarketID, input.CategoryID); err != nil {
		return nil, err
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	item := &models.Item{
		SupermarketID:   supermarketID,
		CategoryID:      input.CategoryID,
		Name:            name,
		Description:     trimmedPtr(input.Description),
		Price:           input.Price,
		DiscountPercent: input.DiscountPercent,
		PromotionEndsAt: input.PromotionEndsAt,
		Weight:          input.Weight,
		Unit:            unit,
		ImageURL:        trimmedPtr(input.ImageURL),
		IsActive:        active,
		QuantityOffers:  offers,
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.CreateWithTx(tx, item)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}
	return FromModel(item, s.now()), nil
}

func (s *service) Update(ctx context.Context, userID, supermarketID, itemID uuid.UUID, input UpdateInput) (*ItemDTO, error) {
	if _, err := s.owners.RequireOwner(ctx, userID, supermarketID); err != nil {
		return nil, err
	}
	item, err := s.load(ctx, supermarketID, itemID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		item.Name = name
	}
	if input.Description != nil {
		item.Description = trimmedPtr(input.Description)
	}
	if input.Price != nil {
		item.Price = *input.Price
	}
	if input.Weight != nil {
		item.Weight = *input.Weight
	}
	if input.Unit != nil {
		unit := strings.TrimSpace(*input.Unit)
		if unit == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit is required")
		}
		item.Unit = unit
	}
	if input.ClearPromotion {
		item.DiscountPercent = nil
		item.PromotionEndsAt = nil
	}
	if input.DiscountPercent != nil {
		item.DiscountPercent = input.DiscountPercent
	}
	if input.PromotionEndsAt != nil {
		item.PromotionEndsAt = input.PromotionEndsAt
	}
	if err := validateAmounts(item.Price, item.Weight, item.DiscountPercent); err != nil {
		return nil, err
	}
	if input.ClearCategory {
		item.CategoryID = nil
	} else if input.CategoryID != nil {
		if err := s.checkCategory(ctx, supermarketID, input.CategoryID); err != nil {
			return nil, err
		}
		item.CategoryID = input.CategoryID
	}
	if input.ImageURL != nil {
		item.ImageURL = trimmedPtr(input.ImageURL)
	}
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}

	var offers []models.ItemQuantityOffer
	if input.QuantityOffers != nil {
		if offers, err = buildOffers(*input.QuantityOffers); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpdateWithTx(tx, item); err != nil {
			return err
		}
		if input.QuantityOffers != nil {
			return s.repo.ReplaceOffersWithTx(tx, item.ID, offers)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
	}
	if input.QuantityOffers != nil {
		item.QuantityOffers = offers
	}
	return FromModel(item, s.now()), nil
}

func (s *service) Delete(ctx context.Context, userID, supermarketID, itemID uuid.UUID) error {
	if _, err := s.owners.RequireOwner(ctx, userID, supermarketID); err != nil {
		return err
	}
	if _, err := s.load(ctx, supermarketID, itemID); err != nil {
		return err
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.DeleteWithTx(tx, itemID)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete item")
	}
	return nil
}

// Get returns an active item of the storefront.
func (s *service) Get(ctx context.Context, supermarketID, itemID uuid.UUID) (*ItemDTO, error) {
	item, err := s.load(ctx, supermarketID, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return FromModel(item, s.now()), nil
}

func (s *service) List(ctx context.Context, input ListInput) (*pagination.Page[ItemDTO], error) {
	input.IncludeInactive = false
	return s.list(ctx, input)
}

// ListOwned lists the catalog for its owner, inactive items included.
func (s *service) ListOwned(ctx context.Context, userID uuid.UUID, input ListInput) (*pagination.Page[ItemDTO], error) {
	if _, err := s.owners.RequireOwner(ctx, userID, input.SupermarketID); err != nil {
		return nil, err
	}
	input.IncludeInactive = true
	return s.list(ctx, input)
}

func (s *service) list(ctx context.Context, input ListInput) (*pagination.Page[ItemDTO], error) {
	rows, next, err := s.repo.List(ctx, ListQuery(input))
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidCursor) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	now := s.now()
	page := &pagination.Page[ItemDTO]{Items: make([]ItemDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		page.Items = append(page.Items, *FromModel(&rows[i], now))
	}
	return page, nil
}

func (s *service) load(ctx context.Context, supermarketID, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if item.SupermarketID != supermarketID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return item, nil
}

func (s *service) checkCategory(ctx context.Context, supermarketID uuid.UUID, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	ok, err := s.repo.CategoryInSupermarket(ctx, *categoryID, supermarketID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func validateAmounts(price, weight decimal.Decimal, discount *decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if weight.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "weight must be non-negative")
	}
	if discount != nil && (discount.IsNegative() || discount.GreaterThan(hundred)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}
	return nil
}

// buildOffers keeps the submitted order as Position so equal minimums resolve
// the same way every time.
func buildOffers(inputs []OfferInput) ([]models.ItemQuantityOffer, error) {
	offers := make([]models.ItemQuantityOffer, 0, len(inputs))
	for i, in := range inputs {
		if in.MinQuantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer min quantity must be positive")
		}
		if in.PricePerUnit.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer price must be non-negative")
		}
		offers = append(offers, models.ItemQuantityOffer{
			MinQuantity:  in.MinQuantity,
			PricePerUnit: in.PricePerUnit,
			Position:     i,
		})
	}
	return offers, nil
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
