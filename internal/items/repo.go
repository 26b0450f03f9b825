package items

import (
	"context"
	"fmt"

	"github.com/angelmondragon/grocer-backend/pkg/db/models"
	"github.com/angelmondragon/grocer-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles item and quantity offer persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to item operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func preloadOffers(db *gorm.DB) *gorm.DB {
	return db.Preload("QuantityOffers", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// FindByID loads an item with its quantity offers.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := preloadOffers(r.db.WithContext(ctx)).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDs loads the requested items of one supermarket. Missing ids are
// simply absent from the result.
func (r *Repository) FindByIDs(ctx context.Context, supermarketID uuid.UUID, ids []uuid.UUID) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Item
	err := preloadOffers(r.db.WithContext(ctx)).
		Where("supermarket_id = ? AND id IN ?", supermarketID, ids).
		Find(&rows).Error
	return rows, err
}

// ListQuery filters a catalog listing.
type ListQuery struct {
	SupermarketID   uuid.UUID
	CategoryID      *uuid.UUID
	IncludeInactive bool
	Pagination      pagination.Params
}

// List returns one page of items, newest first.
func (r *Repository) List(ctx context.Context, query ListQuery) ([]models.Item, string, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := preloadOffers(r.db.WithContext(ctx)).Where("supermarket_id = ?", query.SupermarketID)
	if query.CategoryID != nil {
		qb = qb.Where("category_id = ?", *query.CategoryID)
	}
	if !query.IncludeInactive {
		qb = qb.Where("is_active = ?", true)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Item
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(pagination.LimitWithBuffer(query.Pagination.Limit)).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// CategoryInSupermarket reports whether categoryID belongs to supermarketID.
func (r *Repository) CategoryInSupermarket(ctx context.Context, categoryID, supermarketID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ? AND supermarket_id = ?", categoryID, supermarketID).
		Count(&count).Error
	return count > 0, err
}

// CreateWithTx inserts an item and its offers inside tx.
func (r *Repository) CreateWithTx(tx *gorm.DB, item *models.Item) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if item == nil {
		return fmt.Errorf("item is required")
	}
	return tx.Create(item).Error
}

// UpdateWithTx saves the item columns, leaving offers untouched.
func (r *Repository) UpdateWithTx(tx *gorm.DB, item *models.Item) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if item == nil {
		return fmt.Errorf("item is required")
	}
	return tx.Omit(clause.Associations).Save(item).Error
}

// ReplaceOffersWithTx swaps the full offer list of an item.
func (r *Repository) ReplaceOffersWithTx(tx *gorm.DB, itemID uuid.UUID, offers []models.ItemQuantityOffer) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if err := tx.Where("item_id = ?", itemID).Delete(&models.ItemQuantityOffer{}).Error; err != nil {
		return err
	}
	if len(offers) == 0 {
		return nil
	}
	for i := range offers {
		offers[i].ItemID = itemID
	}
	return tx.Create(&offers).Error
}

// DeleteWithTx removes an item and its offers.
func (r *Repository) DeleteWithTx(tx *gorm.DB, itemID uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if err := tx.Where("item_id = ?", itemID).Delete(&models.ItemQuantityOffer{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", itemID).Delete(&models.Item{}).Error
}
