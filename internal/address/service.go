package address

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/angelmondragon/grocer-backend/pkg/maps"
)

const (
	minQueryLength = 3
	maxQueryLength = 200
)

type placesClient interface {
	Autocomplete(ctx context.Context, input string) ([]maps.AutocompleteSuggestion, error)
	Geocode(ctx context.Context, address string) (*maps.GeocodeResult, error)
}

// Suggestion is one autocomplete candidate shown to the customer.
type Suggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// Location is a geocoded delivery address.
type Location struct {
	PlaceID          string  `json:"place_id"`
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

type Service interface {
	Suggest(ctx context.Context, query string) ([]Suggestion, error)
	Locate(ctx context.Context, address string) (*Location, error)
}

type service struct {
	maps placesClient
}

// NewService accepts a nil client; every call then fails with a dependency error.
func NewService(client placesClient) Service {
	return &service{maps: client}
}

func (s *service) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	if s.maps == nil {
		return nil, errors.New(errors.CodeDependency, "maps client unavailable")
	}
	query, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}

	resp, err := s.maps.Autocomplete(ctx, query)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(resp))
	for _, item := range resp {
		if strings.TrimSpace(item.Description) == "" {
			continue
		}
		suggestions = append(suggestions, Suggestion{PlaceID: item.PlaceID, Description: item.Description})
	}
	return suggestions, nil
}

func (s *service) Locate(ctx context.Context, address string) (*Location, error) {
	if s.maps == nil {
		return nil, errors.New(errors.CodeDependency, "maps client unavailable")
	}
	address, err := normalizeQuery(address)
	if err != nil {
		return nil, err
	}
	res, err := s.maps.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}
	return &Location{
		PlaceID:          res.PlaceID,
		FormattedAddress: res.FormattedAddress,
		Latitude:         res.Location.Latitude,
		Longitude:        res.Location.Longitude,
	}, nil
}

func normalizeQuery(raw string) (string, error) {
	q := strings.Join(strings.Fields(raw), " ")
	switch n := utf8.RuneCountInString(q); {
	case n == 0:
		return "", errors.New(errors.CodeValidation, "query is required")
	case n < minQueryLength:
		return "", errors.New(errors.CodeValidation, "query is too short")
	case n > maxQueryLength:
		return "", errors.New(errors.CodeValidation, "query is too long")
	}
	return q, nil
}
