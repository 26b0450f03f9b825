package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a node in a supermarket's category tree. Only the parent
// pointer is stored; children are found by querying parent_category_id.
type Category struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SupermarketID    uuid.UUID  `gorm:"column:supermarket_id;type:uuid;not null;index"`
	OwnerID          uuid.UUID  `gorm:"column:owner_id;type:uuid;not null"`
	ParentCategoryID *uuid.UUID `gorm:"column:parent_category_id;type:uuid;index"`
	Name             string     `gorm:"column:name;not null"`
	ImageURL         *string    `gorm:"column:image_url"`
	Version          int        `gorm:"column:version;not null;default:1"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	return nil
}
