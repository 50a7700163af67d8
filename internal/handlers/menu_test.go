package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	domain "github.com/savora/api/internal/domain"
	"github.com/savora/api/internal/services"
)

type stubCatalogService struct {
	items map[string]domain.MenuItem

	listErr error
	getErr  error
	upErr   error
	delErr  error

	upserts []services.MenuItemInput
	deletes []string
}

func (s *stubCatalogService) ListItems(ctx context.Context) ([]domain.MenuItem, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.MenuItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	return out, nil
}

func (s *stubCatalogService) GetItem(ctx context.Context, itemID string) (domain.MenuItem, error) {
	if s.getErr != nil {
		return domain.MenuItem{}, s.getErr
	}
	item, ok := s.items[itemID]
	if !ok {
		return domain.MenuItem{}, services.ErrCatalogNotFound
	}
	return item, nil
}

func (s *stubCatalogService) UpsertItem(ctx context.Context, input services.MenuItemInput) (domain.MenuItem, error) {
	s.upserts = append(s.upserts, input)
	if s.upErr != nil {
		return domain.MenuItem{}, s.upErr
	}
	id := input.ID
	if id == "" {
		id = "new-item"
	}
	return domain.MenuItem{
		ID:        id,
		Name:      input.Name,
		Price:     input.Price,
		Available: input.Available,
	}, nil
}

func (s *stubCatalogService) DeleteItem(ctx context.Context, itemID string) error {
	s.deletes = append(s.deletes, itemID)
	return s.delErr
}

func (s *stubCatalogService) PriceOf(ctx context.Context, itemID string) (int64, bool, error) {
	item, ok := s.items[itemID]
	if !ok {
		return 0, false, nil
	}
	return item.Price, true, nil
}

func newMenuRouter(svc services.CatalogService) http.Handler {
	menuHandlers := NewMenuHandlers(newTestAuthenticator(), svc)
	return NewRouter(
		WithMenuRoutes(menuHandlers.PublicRoutes),
		WithAdminRoutes(menuHandlers.AdminRoutes),
	)
}

func TestMenuListIsPublic(t *testing.T) {
	svc := &stubCatalogService{items: map[string]domain.MenuItem{
		"item-1": {ID: "item-1", Name: "Ramen", Price: 980, Available: true},
	}}
	router := newMenuRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/menu", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Items []struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Price int64  `json:"price"`
		} `json:"items"`
	}
	decodeJSON(t, rec, &payload)
	if len(payload.Items) != 1 || payload.Items[0].Name != "Ramen" || payload.Items[0].Price != 980 {
		t.Fatalf("unexpected items %+v", payload.Items)
	}
}

func TestMenuGetItemNotFound(t *testing.T) {
	router := newMenuRouter(&stubCatalogService{items: map[string]domain.MenuItem{}})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/menu/ghost", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "menu_item_not_found" {
		t.Fatalf("unexpected error code %q", code)
	}
}

func TestAdminMenuRequiresAdminRole(t *testing.T) {
	router := newMenuRouter(&stubCatalogService{items: map[string]domain.MenuItem{}})
	body := `{"name":"Ramen","price":980}`

	rec := doRequest(t, router, http.MethodPost, "/api/v1/admin/menu", "", strings.NewReader(body))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/admin/menu", "user-token", strings.NewReader(body))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-admin, got %d", rec.Code)
	}
}

func TestAdminMenuCreate(t *testing.T) {
	svc := &stubCatalogService{items: map[string]domain.MenuItem{}}
	router := newMenuRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/admin/menu", "admin-token",
		strings.NewReader(`{"name":"Ramen","price":980,"category":"noodles"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(svc.upserts) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(svc.upserts))
	}
	input := svc.upserts[0]
	if input.ID != "" || input.Name != "Ramen" || input.Price != 980 {
		t.Fatalf("unexpected input %+v", input)
	}
	if !input.Available {
		t.Fatal("expected availability to default to true")
	}

	var payload struct {
		ID string `json:"id"`
	}
	decodeJSON(t, rec, &payload)
	if payload.ID != "new-item" {
		t.Fatalf("unexpected id %q", payload.ID)
	}
}

func TestAdminMenuUpdateCarriesItemID(t *testing.T) {
	svc := &stubCatalogService{items: map[string]domain.MenuItem{}}
	router := newMenuRouter(svc)

	rec := doRequest(t, router, http.MethodPut, "/api/v1/admin/menu/item-1", "admin-token",
		strings.NewReader(`{"name":"Ramen","price":1080,"available":false}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(svc.upserts) != 1 || svc.upserts[0].ID != "item-1" {
		t.Fatalf("expected upsert for item-1, got %+v", svc.upserts)
	}
	if svc.upserts[0].Available {
		t.Fatal("expected explicit available=false to be honoured")
	}
}

func TestAdminMenuDelete(t *testing.T) {
	svc := &stubCatalogService{items: map[string]domain.MenuItem{}}
	router := newMenuRouter(svc)

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/admin/menu/item-1", "admin-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.deletes) != 1 || svc.deletes[0] != "item-1" {
		t.Fatalf("expected delete for item-1, got %v", svc.deletes)
	}
}

func TestAdminMenuInvalidInputMapsTo400(t *testing.T) {
	svc := &stubCatalogService{items: map[string]domain.MenuItem{}, upErr: services.ErrCatalogInvalidInput}
	router := newMenuRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/admin/menu", "admin-token",
		strings.NewReader(`{"name":"","price":-5}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "invalid_request" {
		t.Fatalf("unexpected error code %q", code)
	}
}

func TestMenuUnavailableMapsTo503(t *testing.T) {
	svc := &stubCatalogService{listErr: services.ErrCatalogUnavailable}
	router := newMenuRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/menu", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "catalog_unavailable" {
		t.Fatalf("unexpected error code %q", code)
	}
}
