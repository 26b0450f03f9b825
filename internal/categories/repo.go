package categories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/grocer-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// errVersionConflict signals that a row changed since it was read.
var errVersionConflict = errors.New("category version conflict")

// Repository handles category persistence. Writes take the caller's
// transaction so a hierarchy change commits or rolls back as one unit.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to category operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListBySupermarket returns every category of a supermarket.
func (r *Repository) ListBySupermarket(ctx context.Context, supermarketID uuid.UUID) ([]models.Category, error) {
	return r.ListBySupermarketWithTx(r.db.WithContext(ctx), supermarketID)
}

// ListBySupermarketWithTx is ListBySupermarket inside tx.
func (r *Repository) ListBySupermarketWithTx(tx *gorm.DB, supermarketID uuid.UUID) ([]models.Category, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var rows []models.Category
	if err := tx.
		Where("supermarket_id = ?", supermarketID).
		Order("name ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByIDWithTx loads one category inside tx.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Category, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var category models.Category
	if err := tx.Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateWithTx inserts a category inside tx.
func (r *Repository) CreateWithTx(tx *gorm.DB, category *models.Category) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if category == nil {
		return fmt.Errorf("category is required")
	}
	return tx.Create(category).Error
}

// SaveVersionedWithTx writes name, image and parent of category when the
// stored version still equals category.Version, then increments it.
func (r *Repository) SaveVersionedWithTx(tx *gorm.DB, category *models.Category) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	var parent any
	if category.ParentCategoryID != nil {
		parent = *category.ParentCategoryID
	}
	var image any
	if category.ImageURL != nil {
		image = *category.ImageURL
	}
	now := time.Now().UTC()
	res := tx.Model(&models.Category{}).
		Where("id = ? AND version = ?", category.ID, category.Version).
		Updates(map[string]any{
			"name":               category.Name,
			"image_url":          image,
			"parent_category_id": parent,
			"version":            category.Version + 1,
			"updated_at":         now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errVersionConflict
	}
	category.Version++
	category.UpdatedAt = now
	return nil
}

// TouchWithTx bumps the version of a category whose set of children changed.
func (r *Repository) TouchWithTx(tx *gorm.DB, id uuid.UUID, version int) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.Category{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]any{"version": version + 1, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errVersionConflict
	}
	return nil
}

// DeleteVersionedWithTx removes one category when its version is unchanged.
func (r *Repository) DeleteVersionedWithTx(tx *gorm.DB, id uuid.UUID, version int) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	res := tx.Where("id = ? AND version = ?", id, version).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errVersionConflict
	}
	return nil
}

// DetachItemsWithTx clears the category of every item filed under ids.
func (r *Repository) DetachItemsWithTx(tx *gorm.DB, ids []uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := tx.Model(&models.Item{}).
		Where("category_id IN ?", ids).
		Updates(map[string]any{"category_id": nil, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}
