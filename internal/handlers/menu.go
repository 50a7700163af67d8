package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/savora/api/internal/domain"
	"github.com/savora/api/internal/platform/auth"
	"github.com/savora/api/internal/platform/httpx"
	"github.com/savora/api/internal/services"
)

const maxMenuBodySize = 32 * 1024

// MenuHandlers serves the public catalog along with the admin management surface.
type MenuHandlers struct {
	authn   *auth.Authenticator
	catalog services.CatalogService
}

// NewMenuHandlers constructs handlers backed by the catalog service. The
// authenticator guards only the admin routes; public menu reads stay anonymous.
func NewMenuHandlers(authn *auth.Authenticator, catalog services.CatalogService) *MenuHandlers {
	return &MenuHandlers{
		authn:   authn,
		catalog: catalog,
	}
}

// PublicRoutes wires the anonymous menu browsing endpoints.
func (h *MenuHandlers) PublicRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listItems)
	r.Get("/{itemID}", h.getItem)
}

// AdminRoutes wires the menu management endpoints behind the admin role.
func (h *MenuHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth(auth.RoleAdmin))
	}
	r.Post("/menu", h.createItem)
	r.Put("/menu/{itemID}", h.updateItem)
	r.Delete("/menu/{itemID}", h.deleteItem)
}

type menuItemPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Price       int64  `json:"price"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Available   bool   `json:"available"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

type menuItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	ImageURL    string `json:"imageUrl"`
	Available   *bool  `json:"available"`
}

type menuListResponse struct {
	Items []menuItemPayload `json:"items"`
}

func (h *MenuHandlers) listItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ensureCatalog(ctx, w) {
		return
	}

	items, err := h.catalog.ListItems(ctx)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	payload := menuListResponse{Items: make([]menuItemPayload, 0, len(items))}
	for _, item := range items {
		payload.Items = append(payload.Items, buildMenuItemPayload(item))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *MenuHandlers) getItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ensureCatalog(ctx, w) {
		return
	}

	itemID := chi.URLParam(r, "itemID")
	item, err := h.catalog.GetItem(ctx, itemID)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildMenuItemPayload(item))
}

func (h *MenuHandlers) createItem(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, "")
}

func (h *MenuHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, chi.URLParam(r, "itemID"))
}

func (h *MenuHandlers) upsert(w http.ResponseWriter, r *http.Request, itemID string) {
	ctx := r.Context()
	if !h.ensureCatalog(ctx, w) {
		return
	}

	body, err := readLimitedBody(r, maxMenuBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return
	}

	var req menuItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return
	}

	input := services.MenuItemInput{
		ID:          strings.TrimSpace(itemID),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Available:   true,
	}
	if req.Available != nil {
		input.Available = *req.Available
	}

	item, err := h.catalog.UpsertItem(ctx, input)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if itemID == "" {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, buildMenuItemPayload(item))
}

func (h *MenuHandlers) deleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ensureCatalog(ctx, w) {
		return
	}

	if err := h.catalog.DeleteItem(ctx, chi.URLParam(r, "itemID")); err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func (h *MenuHandlers) ensureCatalog(ctx context.Context, w http.ResponseWriter) bool {
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return false
	}
	return true
}

func (h *MenuHandlers) writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid menu item input", http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("menu_item_not_found", "menu item not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
	}
}

func buildMenuItemPayload(item domain.MenuItem) menuItemPayload {
	return menuItemPayload{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		Price:       item.Price,
		ImageURL:    item.ImageURL,
		Available:   item.Available,
		CreatedAt:   formatTime(item.CreatedAt),
		UpdatedAt:   formatTime(item.UpdatedAt),
	}
}
