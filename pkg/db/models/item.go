package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item is a catalog listing of a supermarket.
type Item struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SupermarketID   uuid.UUID           `gorm:"column:supermarket_id;type:uuid;not null;index"`
	CategoryID      *uuid.UUID          `gorm:"column:category_id;type:uuid;index"`
	Name            string              `gorm:"column:name;not null"`
	Description     *string             `gorm:"column:description"`
	Price           decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPercent *decimal.Decimal    `gorm:"column:discount_percent;type:numeric(5,2)"`
	PromotionEndsAt *time.Time          `gorm:"column:promotion_ends_at"`
	Weight          decimal.Decimal     `gorm:"column:weight;type:numeric(12,3);not null"`
	Unit            string              `gorm:"column:unit;not null"`
	ImageURL        *string             `gorm:"column:image_url"`
	IsActive        bool                `gorm:"column:is_active;not null"`
	QuantityOffers  []ItemQuantityOffer `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
