package maps

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient("test-key",
		WithBaseURL("http://places.test/v1"),
		WithRoutesBaseURL("http://routes.test"),
		WithLocale("US", "en"),
		WithHTTPClient(&http.Client{Transport: rt}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func decodeBody(t *testing.T, req *http.Request) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("read request body: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	return payload
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("  "); !errors.Is(err, errAPIKeyRequired) {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestClientAutocompleteRequest(t *testing.T) {
	var capturedURL string
	var capturedHeaders http.Header

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()
		payload := decodeBody(t, req)
		if payload["input"] != "12 market st" || payload["languageCode"] != "en" {
			t.Fatalf("unexpected payload %v", payload)
		}
		return jsonResponse(http.StatusOK, `{"suggestions":[{"placePrediction":{"placeId":"place_123","text":{"text":"12 Market St"}}}]}`), nil
	})

	result, err := client.Autocomplete(context.Background(), "12 market st")
	if err != nil {
		t.Fatalf("autocomplete: %v", err)
	}
	if capturedURL != "http://places.test/v1/places:autocomplete" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("X-Goog-Api-Key") != "test-key" {
		t.Fatalf("api key header missing")
	}
	if capturedHeaders.Get("X-Goog-FieldMask") != autocompleteFieldMask {
		t.Fatalf("unexpected field mask %q", capturedHeaders.Get("X-Goog-FieldMask"))
	}
	if len(result) != 1 || result[0].PlaceID != "place_123" || result[0].Description != "12 Market St" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestClientAutocompleteRequiresInput(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	_, err := client.Autocomplete(context.Background(), " ")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClientGeocode(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "http://places.test/v1/places:searchText" {
			t.Fatalf("unexpected URL %q", req.URL.String())
		}
		if req.Header.Get("X-Goog-FieldMask") != searchTextFieldMask {
			t.Fatalf("unexpected field mask %q", req.Header.Get("X-Goog-FieldMask"))
		}
		if payload := decodeBody(t, req); payload["textQuery"] != "12 Market St" {
			t.Fatalf("unexpected payload %v", payload)
		}
		return jsonResponse(http.StatusOK, `{"places":[{"id":"p1","formattedAddress":"12 Market St, Springfield","location":{"latitude":1.23,"longitude":-4.56}}]}`), nil
	})

	got, err := client.Geocode(context.Background(), "12 Market St")
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if got.PlaceID != "p1" || got.Location.Latitude != 1.23 || got.Location.Longitude != -4.56 {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestClientGeocodeNoMatchIsNotFound(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	_, err := client.Geocode(context.Background(), "nowhere")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClientRouteDistance(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "http://routes.test/directions/v2:computeRoutes" {
			t.Fatalf("unexpected URL %q", req.URL.String())
		}
		payload := decodeBody(t, req)
		if payload["travelMode"] != "DRIVE" {
			t.Fatalf("unexpected travel mode %v", payload["travelMode"])
		}
		origin := payload["origin"].(map[string]any)["location"].(map[string]any)["latLng"].(map[string]any)
		if origin["latitude"] != 10.5 {
			t.Fatalf("unexpected origin %v", origin)
		}
		return jsonResponse(http.StatusOK, `{"routes":[{"distanceMeters":5234}]}`), nil
	})

	meters, err := client.RouteDistanceMeters(context.Background(), LatLng{Latitude: 10.5, Longitude: -66.9}, LatLng{Latitude: 10.49, Longitude: -66.85})
	if err != nil {
		t.Fatalf("route distance: %v", err)
	}
	if meters != 5234 {
		t.Fatalf("meters = %d, want 5234", meters)
	}
}

func TestClientStatusMapping(t *testing.T) {
	tests := []struct {
		status    int
		code      pkgerrors.Code
		retryable bool
	}{
		{status: http.StatusServiceUnavailable, code: pkgerrors.CodeDependency, retryable: true},
		{status: http.StatusTooManyRequests, code: pkgerrors.CodeDependency, retryable: true},
		{status: http.StatusBadRequest, code: pkgerrors.CodeValidation},
		{status: http.StatusForbidden, code: pkgerrors.CodeValidation},
	}
	for _, tt := range tests {
		client := newTestClient(t, func(*http.Request) (*http.Response, error) {
			return jsonResponse(tt.status, `{"error":"nope"}`), nil
		})
		_, err := client.RouteDistanceMeters(context.Background(), LatLng{}, LatLng{})
		if !pkgerrors.IsCode(err, tt.code) {
			t.Fatalf("status %d: expected %s, got %v", tt.status, tt.code, err)
		}
		if pkgerrors.IsRetryable(err) != tt.retryable {
			t.Fatalf("status %d: retryable = %v", tt.status, pkgerrors.IsRetryable(err))
		}
	}
}

func TestClientTransportErrorIsDependency(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset")
	})
	_, err := client.Geocode(context.Background(), "12 Market St")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestLatLngString(t *testing.T) {
	if got := (LatLng{Latitude: 10.123456, Longitude: -66.9}).String(); got != "10.12346,-66.90000" {
		t.Fatalf("unexpected string %q", got)
	}
}
