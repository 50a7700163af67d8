package services

import (
	"context"
	"time"

	domain "github.com/savora/api/internal/domain"
)

// Cart is the service-level cart view returned to transport layers. Entries
// are raw item/quantity pairs; pricing is joined at display or checkout time.
type Cart struct {
	OwnerID   string
	Entries   []domain.CartEntry
	UpdatedAt time.Time
}

// CartService coordinates cart mutations and reads for an authenticated owner.
// Every operation requires a non-empty owner ID extracted from a verified
// identity; an absent owner yields ErrCartUnauthorized before any store access.
type CartService interface {
	// AddItem accumulates one unit of the item onto the owner's cart.
	AddItem(ctx context.Context, ownerID, itemID string) error
	// RemoveItem decrements the item by one unit, floored at zero. Removing
	// an absent item is a no-op.
	RemoveItem(ctx context.Context, ownerID, itemID string) error
	// FetchCart returns the owner's current entries. A missing cart is an
	// empty cart, never an error.
	FetchCart(ctx context.Context, ownerID string) (Cart, error)
	// ClearCart removes every entry. Clearing an empty cart succeeds.
	ClearCart(ctx context.Context, ownerID string) error
}

// MenuItemInput carries the fields accepted when creating or updating a menu item.
type MenuItemInput struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       int64
	ImageURL    string
	Available   bool
}

// CatalogService exposes menu browsing, administration, and price lookup.
type CatalogService interface {
	ListItems(ctx context.Context) ([]domain.MenuItem, error)
	GetItem(ctx context.Context, itemID string) (domain.MenuItem, error)
	UpsertItem(ctx context.Context, input MenuItemInput) (domain.MenuItem, error)
	DeleteItem(ctx context.Context, itemID string) error
	// PriceOf resolves the unit price for an item. The bool reports whether
	// the item could be resolved; unresolvable items are not an error.
	PriceOf(ctx context.Context, itemID string) (int64, bool, error)
}

// OrderService converts carts into committed orders.
type OrderService interface {
	// PlaceOrder snapshots the owner's cart into an order and clears the
	// cart only after the order is durably recorded.
	PlaceOrder(ctx context.Context, ownerID string) (domain.Order, error)
	// ListOrders returns the owner's order history, newest first.
	ListOrders(ctx context.Context, ownerID string) ([]domain.Order, error)
}

// OrderEventPublisher emits order lifecycle events after commit. Publication
// is best effort and never blocks order placement.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order domain.Order) error
}
