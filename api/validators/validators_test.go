package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type priceBody struct {
	Name  string `json:"name" validate:"required"`
	Price string `json:"price" validate:"required,money"`
}

func TestDecodeJSONBody(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		ok    bool
		field string
	}{
		{"valid", `{"name":"Bananas","price":"1.99"}`, true, ""},
		{"three decimals", `{"name":"Bananas","price":"1.999"}`, false, "price"},
		{"negative", `{"name":"Bananas","price":"-1"}`, false, "price"},
		{"missing name", `{"price":"1"}`, false, "name"},
		{"unknown field", `{"name":"a","price":"1","extra":true}`, false, ""},
		{"malformed", `{`, false, ""},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
		var dest priceBody
		err := DecodeJSONBody(req, &dest)
		if tc.ok {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error got %v", tc.name, err)
		}
		if tc.field != "" {
			details, _ := pkgerrors.As(err).Details().(map[string]string)
			if _, ok := details[tc.field]; !ok {
				t.Fatalf("%s: expected details for %s, got %v", tc.name, tc.field, details)
			}
		}
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=30&bad=x&big=900", nil)
	if v, err := ParseQueryInt(req, "limit", 20, 1, 100); err != nil || v != 30 {
		t.Fatalf("expected 30 got %d (%v)", v, err)
	}
	if v, err := ParseQueryInt(req, "missing", 20, 1, 100); err != nil || v != 20 {
		t.Fatalf("expected default got %d (%v)", v, err)
	}
	if _, err := ParseQueryInt(req, "bad", 20, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for non-numeric")
	}
	if _, err := ParseQueryInt(req, "big", 20, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for out of range")
	}
}

func TestParseUUIDs(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/?category_id="+id.String()+"&bad=nope", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("supermarketId", id.String())
	rc.URLParams.Add("itemId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := ParseUUIDParam(req, "supermarketId")
	if err != nil || got != id {
		t.Fatalf("expected %s got %s (%v)", id, got, err)
	}
	if _, err := ParseUUIDParam(req, "itemId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for bad path uuid")
	}

	q, err := ParseQueryUUID(req, "category_id")
	if err != nil || q == nil || *q != id {
		t.Fatalf("unexpected query uuid %v (%v)", q, err)
	}
	if q, err := ParseQueryUUID(req, "absent"); err != nil || q != nil {
		t.Fatalf("expected nil for absent param")
	}
	if _, err := ParseQueryUUID(req, "bad"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for bad query uuid")
	}
}
