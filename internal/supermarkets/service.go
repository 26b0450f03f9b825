package supermarkets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/angelmondragon/grocer-backend/pkg/db/models"
	"github.com/angelmondragon/grocer-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/angelmondragon/grocer-backend/pkg/logger"
	"github.com/angelmondragon/grocer-backend/pkg/maps"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const minPhoneDigits = 7

type supermarketRepository interface {
	Create(ctx context.Context, supermarket *models.Supermarket) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supermarket, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Supermarket, error)
	ListActive(ctx context.Context) ([]models.Supermarket, error)
	Update(ctx context.Context, supermarket *models.Supermarket) error
}

type geocoder interface {
	Geocode(ctx context.Context, address string) (*maps.GeocodeResult, error)
}

// Service exposes supermarket operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*SupermarketDTO, error)
	Update(ctx context.Context, userID, supermarketID uuid.UUID, input UpdateInput) (*SupermarketDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*SupermarketDTO, error)
	ListActive(ctx context.Context) ([]SupermarketDTO, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID) ([]SupermarketDTO, error)
	Load(ctx context.Context, id uuid.UUID) (*models.Supermarket, error)
	RequireOwner(ctx context.Context, userID, supermarketID uuid.UUID) (*models.Supermarket, error)
}

type service struct {
	repo     supermarketRepository
	geocoder geocoder
	logg     *logger.Logger
}

// NewService builds a supermarket service. geocoder may be nil, in which case
// supermarkets without explicit coordinates stay ungeocoded.
func NewService(repo supermarketRepository, geo geocoder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("supermarket repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, geocoder: geo, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*SupermarketDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}
	phone, err := normalizePhone(input.WhatsAppPhone)
	if err != nil {
		return nil, err
	}
	profile := enums.FeeProfileStandard
	if strings.TrimSpace(input.FeeProfile) != "" {
		if profile, err = enums.ParseFeeProfile(input.FeeProfile); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fee profile")
		}
	}
	if err := validateCoordinates(input.Latitude, input.Longitude); err != nil {
		return nil, err
	}

	supermarket := &models.Supermarket{
		OwnerID:        ownerID,
		Name:           name,
		Description:    trimmedPtr(input.Description),
		Address:        address,
		Latitude:       input.Latitude,
		Longitude:      input.Longitude,
		WhatsAppPhone:  phone,
		FeeProfile:     profile,
		PaymentMethods: normalizePaymentMethods(input.PaymentMethods),
		ImageURL:       trimmedPtr(input.ImageURL),
		IsActive:       true,
	}
	s.locate(ctx, supermarket)

	if err := s.repo.Create(ctx, supermarket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supermarket")
	}
	return FromModel(supermarket), nil
}

func (s *service) Update(ctx context.Context, userID, supermarketID uuid.UUID, input UpdateInput) (*SupermarketDTO, error) {
	supermarket, err := s.RequireOwner(ctx, userID, supermarketID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		supermarket.Name = name
	}
	if input.Description != nil {
		supermarket.Description = trimmedPtr(input.Description)
	}
	addressChanged := false
	if input.Address != nil {
		address := strings.TrimSpace(*input.Address)
		if address == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
		}
		addressChanged = address != supermarket.Address
		supermarket.Address = address
	}
	if input.Latitude != nil || input.Longitude != nil {
		if err := validateCoordinates(input.Latitude, input.Longitude); err != nil {
			return nil, err
		}
		supermarket.Latitude = input.Latitude
		supermarket.Longitude = input.Longitude
	} else if addressChanged {
		supermarket.Latitude, supermarket.Longitude = nil, nil
		s.locate(ctx, supermarket)
	}
	if input.WhatsAppPhone != nil {
		phone, err := normalizePhone(*input.WhatsAppPhone)
		if err != nil {
			return nil, err
		}
		supermarket.WhatsAppPhone = phone
	}
	if input.FeeProfile != nil {
		profile, err := enums.ParseFeeProfile(*input.FeeProfile)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fee profile")
		}
		supermarket.FeeProfile = profile
	}
	if input.PaymentMethods != nil {
		supermarket.PaymentMethods = normalizePaymentMethods(*input.PaymentMethods)
	}
	if input.ImageURL != nil {
		supermarket.ImageURL = trimmedPtr(input.ImageURL)
	}
	if input.IsActive != nil {
		supermarket.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, supermarket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update supermarket")
	}
	return FromModel(supermarket), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SupermarketDTO, error) {
	supermarket, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(supermarket), nil
}

// Load returns the stored supermarket, hiding inactive ones from the storefront.
func (s *service) Load(ctx context.Context, id uuid.UUID) (*models.Supermarket, error) {
	supermarket, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !supermarket.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supermarket not found")
	}
	return supermarket, nil
}

func (s *service) ListActive(ctx context.Context) ([]SupermarketDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list supermarkets")
	}
	return fromModels(rows), nil
}

func (s *service) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]SupermarketDTO, error) {
	rows, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list owned supermarkets")
	}
	return fromModels(rows), nil
}

// RequireOwner loads the supermarket and fails with FORBIDDEN unless userID owns it.
func (s *service) RequireOwner(ctx context.Context, userID, supermarketID uuid.UUID) (*models.Supermarket, error) {
	supermarket, err := s.find(ctx, supermarketID)
	if err != nil {
		return nil, err
	}
	if supermarket.OwnerID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the supermarket owner")
	}
	return supermarket, nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Supermarket, error) {
	supermarket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supermarket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supermarket")
	}
	return supermarket, nil
}

// locate fills missing coordinates from the address. Failures are logged and
// leave the supermarket ungeocoded; delivery fees then fall back to unavailable.
func (s *service) locate(ctx context.Context, supermarket *models.Supermarket) {
	if s.geocoder == nil || supermarket.HasCoordinates() {
		return
	}
	result, err := s.geocoder.Geocode(ctx, supermarket.Address)
	if err != nil {
		s.logg.Warn(ctx, "supermarket geocode failed: "+err.Error())
		return
	}
	lat, lng := result.Location.Latitude, result.Location.Longitude
	supermarket.Latitude = &lat
	supermarket.Longitude = &lng
}

func validateCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return pkgerrors.New(pkgerrors.CodeValidation, "latitude and longitude must be set together")
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		return pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}
	return nil
}

func normalizePhone(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	digits := 0
	for _, r := range trimmed {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < minPhoneDigits {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "whatsapp phone must contain at least 7 digits")
	}
	return trimmed, nil
}

func normalizePaymentMethods(values []string) pq.StringArray {
	seen := make(map[string]struct{}, len(values))
	out := make(pq.StringArray, 0, len(values))
	for _, v := range values {
		label := strings.TrimSpace(v)
		if label == "" {
			continue
		}
		key := strings.ToLower(label)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, label)
	}
	return out
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
