package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/grocer-backend/internal/categories"
	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/google/uuid"
)

type stubCategoryService struct {
	dto       *categories.CategoryDTO
	err       error
	gotUpdate categories.UpdateInput
	gotCreate categories.CreateInput
	gotParent *uuid.UUID
	moved     bool
}

func (s *stubCategoryService) Create(_ context.Context, _, _ uuid.UUID, input categories.CreateInput) (*categories.CategoryDTO, error) {
	s.gotCreate = input
	return s.dto, s.err
}

func (s *stubCategoryService) Update(_ context.Context, _, _, _ uuid.UUID, input categories.UpdateInput) (*categories.CategoryDTO, error) {
	s.gotUpdate = input
	return s.dto, s.err
}

func (s *stubCategoryService) Reparent(_ context.Context, _, _, _ uuid.UUID, parentID *uuid.UUID) (*categories.CategoryDTO, error) {
	s.moved = true
	s.gotParent = parentID
	return s.dto, s.err
}

func (s *stubCategoryService) Delete(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (*categories.DeleteResult, error) {
	return &categories.DeleteResult{}, s.err
}

func (s *stubCategoryService) Get(context.Context, uuid.UUID, uuid.UUID) (*categories.CategoryDTO, error) {
	return s.dto, s.err
}

func (s *stubCategoryService) List(context.Context, uuid.UUID) ([]categories.CategoryDTO, error) {
	return nil, s.err
}

func (s *stubCategoryService) Tree(context.Context, uuid.UUID) ([]categories.TreeNode, error) {
	return []categories.TreeNode{}, s.err
}

func categoryParams() map[string]string {
	return map[string]string{paramSupermarketID: uuid.NewString(), paramCategoryID: uuid.NewString()}
}

func TestDashboardUpdateCategoryParentField(t *testing.T) {
	parent := uuid.New()
	cases := []struct {
		name    string
		body    string
		wantSet bool
		wantID  *uuid.UUID
	}{
		{"absent keeps parent", `{"name":"Fruit"}`, false, nil},
		{"null makes root", `{"parent_category_id":null}`, true, nil},
		{"id reparents", `{"parent_category_id":"` + parent.String() + `"}`, true, &parent},
	}

	for _, tc := range cases {
		svc := &stubCategoryService{dto: &categories.CategoryDTO{}}
		rec := httptest.NewRecorder()
		req := asUser(newRequest(http.MethodPatch, "/", strings.NewReader(tc.body), categoryParams()), uuid.New())
		DashboardUpdateCategory(svc, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d (%s)", tc.name, rec.Code, rec.Body.String())
		}
		if svc.gotUpdate.Parent.Set != tc.wantSet {
			t.Fatalf("%s: expected Set=%v", tc.name, tc.wantSet)
		}
		if (tc.wantID == nil) != (svc.gotUpdate.Parent.ID == nil) {
			t.Fatalf("%s: unexpected parent id %v", tc.name, svc.gotUpdate.Parent.ID)
		}
		if tc.wantID != nil && *svc.gotUpdate.Parent.ID != *tc.wantID {
			t.Fatalf("%s: expected parent %s", tc.name, tc.wantID)
		}
	}
}

func TestDashboardCreateCategory(t *testing.T) {
	parent := uuid.New()
	svc := &stubCategoryService{dto: &categories.CategoryDTO{Name: "Citrus"}}
	rec := httptest.NewRecorder()
	body := `{"name":"Citrus","parent_category_id":"` + parent.String() + `"}`
	req := asUser(newRequest(http.MethodPost, "/", strings.NewReader(body), categoryParams()), uuid.New())
	DashboardCreateCategory(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if svc.gotCreate.ParentCategoryID == nil || *svc.gotCreate.ParentCategoryID != parent {
		t.Fatalf("expected parent to be forwarded")
	}
}

func TestDashboardCreateCategoryMissingParent(t *testing.T) {
	svc := &stubCategoryService{err: pkgerrors.New(pkgerrors.CodeNotFound, "parent category not found")}
	rec := httptest.NewRecorder()
	body := `{"name":"Citrus","parent_category_id":"` + uuid.NewString() + `"}`
	req := asUser(newRequest(http.MethodPost, "/", strings.NewReader(body), categoryParams()), uuid.New())
	DashboardCreateCategory(svc, nil).ServeHTTP(rec, req)

	expectErrorCode(t, rec, http.StatusNotFound, string(pkgerrors.CodeNotFound))
	if env := decodeEnvelope(t, rec); env.Error.Message != "parent category not found" {
		t.Fatalf("unexpected message %q", env.Error.Message)
	}
}

func TestDashboardMoveCategoryToRoot(t *testing.T) {
	svc := &stubCategoryService{dto: &categories.CategoryDTO{}}
	rec := httptest.NewRecorder()
	req := asUser(newRequest(http.MethodPost, "/", strings.NewReader(`{"parent_category_id":null}`), categoryParams()), uuid.New())
	DashboardMoveCategory(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !svc.moved || svc.gotParent != nil {
		t.Fatalf("expected a move to root, got %v", svc.gotParent)
	}
}

func TestDashboardMoveCategoryCycle(t *testing.T) {
	svc := &stubCategoryService{err: pkgerrors.New(pkgerrors.CodeValidation, "category cannot be moved under its own subtree")}
	rec := httptest.NewRecorder()
	req := asUser(newRequest(http.MethodPost, "/", strings.NewReader(`{"parent_category_id":"`+uuid.NewString()+`"}`), categoryParams()), uuid.New())
	DashboardMoveCategory(svc, nil).ServeHTTP(rec, req)
	expectErrorCode(t, rec, http.StatusBadRequest, string(pkgerrors.CodeValidation))
}

func TestGetCategoryRejectsBadCategoryID(t *testing.T) {
	rec := httptest.NewRecorder()
	params := map[string]string{paramSupermarketID: uuid.NewString(), paramCategoryID: "x"}
	GetCategory(&stubCategoryService{}, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/", nil, params))
	expectErrorCode(t, rec, http.StatusBadRequest, string(pkgerrors.CodeValidation))
}

func TestCategoryTree(t *testing.T) {
	rec := httptest.NewRecorder()
	CategoryTree(&stubCategoryService{}, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/", nil, categoryParams()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"data":[]}` {
		t.Fatalf("unexpected body %s", got)
	}
}
