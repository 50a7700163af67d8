package domain

import (
	"sort"
	"time"
)

// Order lifecycle states.
const (
	OrderStatusPlaced    = "placed"
	OrderStatusPreparing = "preparing"
	OrderStatusDelivered = "delivered"
)

// MenuItem describes a purchasable dish in the storefront catalog. Price is
// expressed in minor currency units so arithmetic stays exact.
type MenuItem struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       int64
	ImageURL    string
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CartEntry pairs an item identifier with its accumulated quantity. Quantities
// are always positive; an entry that would drop to zero is removed instead.
type CartEntry struct {
	ItemID   string
	Quantity int64
}

// Cart is the durable per-owner cart snapshot. Entries map item IDs to
// quantities and carry no pricing data.
type Cart struct {
	OwnerID   string
	Entries   map[string]int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsEmpty reports whether the cart holds no entries.
func (c Cart) IsEmpty() bool {
	return len(c.Entries) == 0
}

// SortedEntries returns the cart contents as a deterministic slice for
// serialisation and order assembly.
func (c Cart) SortedEntries() []CartEntry {
	if len(c.Entries) == 0 {
		return nil
	}
	out := make([]CartEntry, 0, len(c.Entries))
	for itemID, qty := range c.Entries {
		out = append(out, CartEntry{ItemID: itemID, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

// OrderLine captures an ordered item with the unit price captured at checkout
// time. Items that can no longer be resolved against the catalog are carried
// with a zero unit price.
type OrderLine struct {
	ItemID    string
	Name      string
	Quantity  int64
	UnitPrice int64
}

// Subtotal returns the exact line amount in minor units.
func (l OrderLine) Subtotal() int64 {
	return l.UnitPrice * l.Quantity
}

// Order is the immutable record produced when a cart is committed.
type Order struct {
	ID       string
	OwnerID  string
	Lines    []OrderLine
	Total    int64
	Currency string
	Status   string
	PlacedAt time.Time
}
