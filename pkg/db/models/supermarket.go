package models

import (
	"time"

	"github.com/angelmondragon/grocer-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Supermarket is a tenant of the marketplace. Orders are handed off to
// WhatsAppPhone and priced with FeeProfile.
type Supermarket struct {
	ID             uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID        uuid.UUID        `gorm:"column:owner_id;type:uuid;not null"`
	Name           string           `gorm:"column:name;not null"`
	Description    *string          `gorm:"column:description"`
	Address        string           `gorm:"column:address;not null"`
	Latitude       *float64         `gorm:"column:latitude"`
	Longitude      *float64         `gorm:"column:longitude"`
	WhatsAppPhone  string           `gorm:"column:whatsapp_phone;not null"`
	FeeProfile     enums.FeeProfile `gorm:"column:fee_profile;type:text;not null;default:'standard'"`
	PaymentMethods pq.StringArray   `gorm:"column:payment_methods;type:text[]"`
	ImageURL       *string          `gorm:"column:image_url"`
	IsActive       bool             `gorm:"column:is_active;not null"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Supermarket) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// HasCoordinates reports whether the store location is geocoded.
func (s *Supermarket) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}
