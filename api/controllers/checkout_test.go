package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/grocer-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/google/uuid"
)

type stubCheckoutService struct {
	err       error
	gotQuote  checkout.QuoteInput
	gotSubmit checkout.SubmitInput
	gotID     uuid.UUID
}

func (s *stubCheckoutService) Quote(_ context.Context, supermarketID uuid.UUID, input checkout.QuoteInput) (*checkout.QuoteDTO, error) {
	s.gotID = supermarketID
	s.gotQuote = input
	if s.err != nil {
		return nil, s.err
	}
	return &checkout.QuoteDTO{SupermarketID: supermarketID, Subtotal: "5.37", PickingFee: "1.13", DeliveryFee: "10.00", Total: "16.50"}, nil
}

func (s *stubCheckoutService) Submit(_ context.Context, supermarketID uuid.UUID, input checkout.SubmitInput) (*checkout.SubmissionDTO, error) {
	s.gotID = supermarketID
	s.gotSubmit = input
	if s.err != nil {
		return nil, s.err
	}
	return &checkout.SubmissionDTO{Summary: "order", WhatsAppURL: "https://wa.me/15550102030?text=order"}, nil
}

func TestCheckoutQuote(t *testing.T) {
	svc := &stubCheckoutService{}
	supermarketID := uuid.New()
	body := `{"session_id":"session-abc123","address":"12 Market St","latitude":40.7,"longitude":-73.9}`
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodPost, "/", strings.NewReader(body), map[string]string{paramSupermarketID: supermarketID.String()})
	CheckoutQuote(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.gotID != supermarketID || svc.gotQuote.SessionID != "session-abc123" || svc.gotQuote.Latitude == nil {
		t.Fatalf("unexpected quote input %+v", svc.gotQuote)
	}

	var quote checkout.QuoteDTO
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &quote); err != nil {
		t.Fatalf("decode quote: %v", err)
	}
	if quote.Total != "16.50" || quote.DeliveryFee != "10.00" {
		t.Fatalf("unexpected quote %+v", quote)
	}
}

func TestCheckoutQuoteRequiresSession(t *testing.T) {
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodPost, "/", strings.NewReader(`{"address":"12 Market St"}`), map[string]string{paramSupermarketID: uuid.NewString()})
	CheckoutQuote(&stubCheckoutService{}, nil).ServeHTTP(rec, req)
	expectErrorCode(t, rec, http.StatusBadRequest, string(pkgerrors.CodeValidation))
}

func TestCheckoutQuoteSuperseded(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeConflict, "superseded by a newer quote")}
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodPost, "/", strings.NewReader(`{"session_id":"session-abc123"}`), map[string]string{paramSupermarketID: uuid.NewString()})
	CheckoutQuote(svc, nil).ServeHTTP(rec, req)
	expectErrorCode(t, rec, http.StatusConflict, string(pkgerrors.CodeConflict))
}

func TestCheckoutSubmit(t *testing.T) {
	svc := &stubCheckoutService{}
	body := `{"session_id":"session-abc123","address":"12 Market St","customer_name":"Ana","phone":"+1 555","note":"ring twice","payment_method":"cash"}`
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodPost, "/", strings.NewReader(body), map[string]string{paramSupermarketID: uuid.NewString()})
	CheckoutSubmit(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	in := svc.gotSubmit
	if in.SessionID != "session-abc123" || in.Address != "12 Market St" || in.CustomerName != "Ana" || in.PaymentMethod != "cash" || in.Note != "ring twice" {
		t.Fatalf("unexpected submit input %+v", in)
	}

	var submission checkout.SubmissionDTO
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &submission); err != nil {
		t.Fatalf("decode submission: %v", err)
	}
	if !strings.HasPrefix(submission.WhatsAppURL, "https://wa.me/") {
		t.Fatalf("unexpected url %q", submission.WhatsAppURL)
	}
}

func TestCheckoutSubmitRequiresCustomerName(t *testing.T) {
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodPost, "/", strings.NewReader(`{"session_id":"session-abc123","address":"x"}`), map[string]string{paramSupermarketID: uuid.NewString()})
	CheckoutSubmit(&stubCheckoutService{}, nil).ServeHTTP(rec, req)
	expectErrorCode(t, rec, http.StatusBadRequest, string(pkgerrors.CodeValidation))
}
