package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
)

const (
	defaultPlacesBaseURL         = "https://places.googleapis.com/v1"
	defaultRoutesBaseURL         = "https://routes.googleapis.com"
	autocompleteFieldMask        = "suggestions.placePrediction.placeId,suggestions.placePrediction.text"
	searchTextFieldMask          = "places.id,places.formattedAddress,places.location"
	computeRoutesFieldMask       = "routes.distanceMeters"
	responseBodyReadLimit  int64 = 1024
)

var errAPIKeyRequired = errors.New("google maps api key is required")

// Client wraps the Google Places and Routes APIs used by checkout.
type Client struct {
	httpClient    *http.Client
	placesBaseURL string
	routesBaseURL string
	apiKey        string
	regionCode    string
	languageCode  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Places base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.placesBaseURL = trimmed
		}
	}
}

// WithRoutesBaseURL overrides the Routes base URL.
func WithRoutesBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.routesBaseURL = trimmed
		}
	}
}

// WithLocale sets the region and language hints sent with place queries.
func WithLocale(regionCode, languageCode string) Option {
	return func(c *Client) {
		c.regionCode = strings.TrimSpace(regionCode)
		c.languageCode = strings.TrimSpace(languageCode)
	}
}

// NewClient builds the Google Maps client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:        trimmedKey,
		placesBaseURL: defaultPlacesBaseURL,
		routesBaseURL: defaultRoutesBaseURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// LatLng is the latitude/longitude pair returned by Google.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String renders the pair with fixed precision, stable enough for cache keys.
func (l LatLng) String() string {
	return fmt.Sprintf("%.5f,%.5f", l.Latitude, l.Longitude)
}

// AutocompleteSuggestion holds the mapped data returned by the autocomplete API.
type AutocompleteSuggestion struct {
	PlaceID     string
	Description string
}

// GeocodeResult is the best match for a free-form address.
type GeocodeResult struct {
	PlaceID          string
	FormattedAddress string
	Location         LatLng
}

// Autocomplete queries suggested places based on partial input.
func (c *Client) Autocomplete(ctx context.Context, input string) ([]AutocompleteSuggestion, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}
	if strings.TrimSpace(input) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "autocomplete input is required")
	}

	body := map[string]any{"input": input}
	if c.regionCode != "" {
		body["includedRegionCodes"] = []string{c.regionCode}
	}
	if c.languageCode != "" {
		body["languageCode"] = c.languageCode
	}

	var apiResp struct {
		Suggestions []struct {
			Prediction struct {
				PlaceID string `json:"placeId"`
				Text    struct {
					Text string `json:"text"`
				} `json:"text"`
			} `json:"placePrediction"`
		} `json:"suggestions"`
	}
	if err := c.post(ctx, joinURL(c.placesBaseURL, "places:autocomplete"), autocompleteFieldMask, body, &apiResp, "autocomplete"); err != nil {
		return nil, err
	}

	suggestions := make([]AutocompleteSuggestion, 0, len(apiResp.Suggestions))
	for _, s := range apiResp.Suggestions {
		suggestions = append(suggestions, AutocompleteSuggestion{
			PlaceID:     s.Prediction.PlaceID,
			Description: s.Prediction.Text.Text,
		})
	}
	return suggestions, nil
}

// Geocode resolves a free-form address to coordinates using Places text search.
// An address with no match returns a NOT_FOUND error.
func (c *Client) Geocode(ctx context.Context, address string) (*GeocodeResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}
	if strings.TrimSpace(address) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}

	body := map[string]any{"textQuery": address, "pageSize": 1}
	if c.regionCode != "" {
		body["regionCode"] = c.regionCode
	}
	if c.languageCode != "" {
		body["languageCode"] = c.languageCode
	}

	var apiResp struct {
		Places []struct {
			ID               string `json:"id"`
			FormattedAddress string `json:"formattedAddress"`
			Location         LatLng `json:"location"`
		} `json:"places"`
	}
	if err := c.post(ctx, joinURL(c.placesBaseURL, "places:searchText"), searchTextFieldMask, body, &apiResp, "geocode"); err != nil {
		return nil, err
	}
	if len(apiResp.Places) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address could not be geocoded")
	}

	best := apiResp.Places[0]
	return &GeocodeResult{
		PlaceID:          best.ID,
		FormattedAddress: best.FormattedAddress,
		Location:         best.Location,
	}, nil
}

// RouteDistanceMeters returns the driving distance between two points.
func (c *Client) RouteDistanceMeters(ctx context.Context, origin, destination LatLng) (int64, error) {
	if c == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}

	waypoint := func(p LatLng) map[string]any {
		return map[string]any{"location": map[string]any{"latLng": p}}
	}
	body := map[string]any{
		"origin":      waypoint(origin),
		"destination": waypoint(destination),
		"travelMode":  "DRIVE",
	}

	var apiResp struct {
		Routes []struct {
			DistanceMeters int64 `json:"distanceMeters"`
		} `json:"routes"`
	}
	if err := c.post(ctx, joinURL(c.routesBaseURL, "directions/v2:computeRoutes"), computeRoutesFieldMask, body, &apiResp, "compute routes"); err != nil {
		return 0, err
	}
	if len(apiResp.Routes) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "no route between supermarket and address")
	}
	return apiResp.Routes[0].DistanceMeters, nil
}

// post sends a JSON request and decodes the JSON response into out. Transport
// failures, 429 and 5xx map to DEPENDENCY_ERROR; other non-200 statuses map to
// VALIDATION_ERROR since repeating them cannot succeed.
func (c *Client) post(ctx context.Context, url, fieldMask string, body, out any, op string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal "+op+" request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build "+op+" request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+op+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		code := pkgerrors.CodeValidation
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			code = pkgerrors.CodeDependency
		}
		return pkgerrors.Wrap(code, cause, op+" request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+op+" response")
	}
	return nil
}

func joinURL(base, path string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(path, "/"))
}
