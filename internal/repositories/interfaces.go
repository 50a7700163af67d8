package repositories

import (
	"context"

	domain "github.com/savora/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Carts() CartRepository
	Catalog() CatalogRepository
	Orders() OrderRepository
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CartRepository persists per-owner cart snapshots. A missing cart document is
// equivalent to an empty cart; only backend faults are surfaced as errors.
type CartRepository interface {
	// Get returns the owner's cart, or an empty cart when none exists.
	Get(ctx context.Context, ownerID string) (domain.Cart, error)
	// AddEntry atomically accumulates delta onto the item's quantity. A
	// resulting quantity of zero or below removes the entry.
	AddEntry(ctx context.Context, ownerID, itemID string, delta int64) error
	// SetEntry sets the item's quantity wholesale; zero or below removes it.
	SetEntry(ctx context.Context, ownerID, itemID string, quantity int64) error
	// Clear removes every entry from the owner's cart. Clearing an already
	// empty or missing cart succeeds.
	Clear(ctx context.Context, ownerID string) error
}

// CatalogRepository stores the menu items browsable by customers.
type CatalogRepository interface {
	List(ctx context.Context) ([]domain.MenuItem, error)
	GetItem(ctx context.Context, itemID string) (domain.MenuItem, error)
	UpsertItem(ctx context.Context, item domain.MenuItem) error
	DeleteItem(ctx context.Context, itemID string) error
}

// OrderRepository persists committed orders.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Order, error)
}

// HealthRepository verifies backend connectivity for readiness probes.
type HealthRepository interface {
	Ping(ctx context.Context) error
}
