package supermarkets

import (
	"context"
	"fmt"

	"github.com/angelmondragon/grocer-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles supermarket persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to supermarket operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new supermarket row.
func (r *Repository) Create(ctx context.Context, supermarket *models.Supermarket) error {
	if supermarket == nil {
		return fmt.Errorf("supermarket is required")
	}
	return r.db.WithContext(ctx).Create(supermarket).Error
}

// FindByID loads a supermarket by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Supermarket, error) {
	var supermarket models.Supermarket
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&supermarket).Error; err != nil {
		return nil, err
	}
	return &supermarket, nil
}

// FindByOwner returns all supermarkets owned by the provided user.
func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Supermarket, error) {
	var supermarkets []models.Supermarket
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&supermarkets).Error; err != nil {
		return nil, err
	}
	return supermarkets, nil
}

// ListActive returns the storefront directory.
func (r *Repository) ListActive(ctx context.Context) ([]models.Supermarket, error) {
	var supermarkets []models.Supermarket
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&supermarkets).Error; err != nil {
		return nil, err
	}
	return supermarkets, nil
}

// Update saves the provided supermarket.
func (r *Repository) Update(ctx context.Context, supermarket *models.Supermarket) error {
	if supermarket == nil {
		return fmt.Errorf("supermarket is required")
	}
	return r.db.WithContext(ctx).Save(supermarket).Error
}
