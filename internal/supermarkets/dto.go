package supermarkets

import (
	"time"

	"github.com/angelmondragon/grocer-backend/pkg/db/models"
	"github.com/angelmondragon/grocer-backend/pkg/enums"
	"github.com/google/uuid"
)

// SupermarketDTO exposes tenant data in API responses.
type SupermarketDTO struct {
	ID             uuid.UUID        `json:"id"`
	OwnerID        uuid.UUID        `json:"owner_id"`
	Name           string           `json:"name"`
	Description    *string          `json:"description,omitempty"`
	Address        string           `json:"address"`
	Latitude       *float64         `json:"latitude,omitempty"`
	Longitude      *float64         `json:"longitude,omitempty"`
	WhatsAppPhone  string           `json:"whatsapp_phone"`
	FeeProfile     enums.FeeProfile `json:"fee_profile"`
	PaymentMethods []string         `json:"payment_methods"`
	ImageURL       *string          `json:"image_url,omitempty"`
	IsActive       bool             `json:"is_active"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CreateInput holds creation-time data for a new supermarket.
type CreateInput struct {
	Name           string
	Description    *string
	Address        string
	Latitude       *float64
	Longitude      *float64
	WhatsAppPhone  string
	FeeProfile     string
	PaymentMethods []string
	ImageURL       *string
}

// UpdateInput captures the mutable fields; nil means unchanged.
type UpdateInput struct {
	Name           *string
	Description    *string
	Address        *string
	Latitude       *float64
	Longitude      *float64
	WhatsAppPhone  *string
	FeeProfile     *string
	PaymentMethods *[]string
	ImageURL       *string
	IsActive       *bool
}

// FromModel maps the persisted supermarket into a DTO.
func FromModel(m *models.Supermarket) *SupermarketDTO {
	if m == nil {
		return nil
	}
	methods := make([]string, len(m.PaymentMethods))
	copy(methods, m.PaymentMethods)
	return &SupermarketDTO{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		Name:           m.Name,
		Description:    m.Description,
		Address:        m.Address,
		Latitude:       m.Latitude,
		Longitude:      m.Longitude,
		WhatsAppPhone:  m.WhatsAppPhone,
		FeeProfile:     m.FeeProfile,
		PaymentMethods: methods,
		ImageURL:       m.ImageURL,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func fromModels(rows []models.Supermarket) []SupermarketDTO {
	out := make([]SupermarketDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
