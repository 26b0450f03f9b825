package controllers

import (
	"net/http"

	"github.com/angelmondragon/grocer-backend/api/responses"
	"github.com/angelmondragon/grocer-backend/api/validators"
	"github.com/angelmondragon/grocer-backend/internal/supermarkets"
	"github.com/angelmondragon/grocer-backend/pkg/logger"
)

type supermarketCreateRequest struct {
	Name           string   `json:"name" validate:"required,max=120"`
	Description    *string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	Address        string   `json:"address" validate:"required,max=300"`
	Latitude       *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	WhatsAppPhone  string   `json:"whatsapp_phone" validate:"required,max=32"`
	FeeProfile     string   `json:"fee_profile,omitempty"`
	PaymentMethods []string `json:"payment_methods,omitempty" validate:"omitempty,max=20,dive,required,max=60"`
	ImageURL       *string  `json:"image_url,omitempty" validate:"omitempty,url"`
}

func (r supermarketCreateRequest) toInput() supermarkets.CreateInput {
	return supermarkets.CreateInput{
		Name:           r.Name,
		Description:    r.Description,
		Address:        r.Address,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		WhatsAppPhone:  r.WhatsAppPhone,
		FeeProfile:     r.FeeProfile,
		PaymentMethods: r.PaymentMethods,
		ImageURL:       r.ImageURL,
	}
}

type supermarketUpdateRequest struct {
	Name           *string   `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description    *string   `json:"description,omitempty" validate:"omitempty,max=1000"`
	Address        *string   `json:"address,omitempty" validate:"omitempty,min=1,max=300"`
	Latitude       *float64  `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude      *float64  `json:"longitude,omitempty" validate:"omitempty,longitude"`
	WhatsAppPhone  *string   `json:"whatsapp_phone,omitempty" validate:"omitempty,min=1,max=32"`
	FeeProfile     *string   `json:"fee_profile,omitempty"`
	PaymentMethods *[]string `json:"payment_methods,omitempty" validate:"omitempty,max=20,dive,required,max=60"`
	ImageURL       *string   `json:"image_url,omitempty" validate:"omitempty,url"`
	IsActive       *bool     `json:"is_active,omitempty"`
}

func (r supermarketUpdateRequest) toInput() supermarkets.UpdateInput {
	return supermarkets.UpdateInput{
		Name:           r.Name,
		Description:    r.Description,
		Address:        r.Address,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		WhatsAppPhone:  r.WhatsAppPhone,
		FeeProfile:     r.FeeProfile,
		PaymentMethods: r.PaymentMethods,
		ImageURL:       r.ImageURL,
		IsActive:       r.IsActive,
	}
}

// ListSupermarkets returns every active storefront.
func ListSupermarkets(svc supermarkets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "supermarket")
			return
		}

		list, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetSupermarket(svc supermarkets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "supermarket")
			return
		}

		id, r, err := supermarketScope(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// DashboardListSupermarkets returns the caller's supermarkets, inactive ones included.
func DashboardListSupermarkets(svc supermarkets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "supermarket")
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOwned(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func DashboardCreateSupermarket(svc supermarkets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "supermarket")
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload supermarketCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), userID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func DashboardUpdateSupermarket(svc supermarkets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "supermarket")
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

		var payload supermarketUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), userID, supermarketID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
