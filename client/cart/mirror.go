// Package cart provides a client-side mirror of the server cart for Go
// consumers of the storefront API. The mirror never mutates state locally:
// every change goes through the server and is reconciled by a wholesale
// re-fetch, so the server copy stays authoritative.
package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// State describes the mirror lifecycle.
type State int

const (
	// StateEmpty means no snapshot is held (no identity, or a reset).
	StateEmpty State = iota
	// StateLoading means a fetch is in flight.
	StateLoading
	// StatePopulated means the mirror holds the last applied snapshot.
	StatePopulated
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StatePopulated:
		return "populated"
	default:
		return "unknown"
	}
}

// Snapshot is the cart contents as returned by the server.
type Snapshot struct {
	Entries   map[string]int64
	UpdatedAt time.Time
}

// CartAPI abstracts the server cart endpoints so the mirror can be exercised
// against stubs.
type CartAPI interface {
	FetchCart(ctx context.Context, token string) (Snapshot, error)
	AddItem(ctx context.Context, token, itemID string) error
	RemoveItem(ctx context.Context, token, itemID string) error
	ClearCart(ctx context.Context, token string) error
}

var (
	errAPIRequired = errors.New("cart mirror: api client is required")

	// ErrNoIdentity indicates a mutation was attempted without a token.
	ErrNoIdentity = errors.New("cart mirror: identity token is required")
	// ErrItemRequired indicates a mutation was attempted with an empty item ID.
	ErrItemRequired = errors.New("cart mirror: item id is required")
)

// Mirror holds a local copy of the authenticated user's cart. Snapshots are
// replaced wholesale; concurrent fetches are serialised by a generation
// counter so only the most recently started fetch applies.
type Mirror struct {
	api CartAPI

	mu         sync.Mutex
	state      State
	entries    map[string]int64
	token      string
	generation uint64
}

// NewMirror constructs a mirror in the empty state.
func NewMirror(api CartAPI) (*Mirror, error) {
	if api == nil {
		return nil, errAPIRequired
	}
	return &Mirror{api: api}, nil
}

// SetToken installs the identity token. Switching to an absent token clears
// the mirror without touching the network; switching to a present token
// clears the stale snapshot and fetches the new owner's cart.
func (m *Mirror) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)

	m.mu.Lock()
	if token == m.token {
		m.mu.Unlock()
		return nil
	}
	m.token = token
	m.generation++ // invalidate any in-flight fetch for the previous identity
	m.entries = nil
	m.state = StateEmpty
	m.mu.Unlock()

	if token == "" {
		return nil
	}
	return m.refresh(ctx)
}

// Add records one unit of the item on the server, then reconciles.
func (m *Mirror) Add(ctx context.Context, itemID string) error {
	return m.mutate(ctx, itemID, m.api.AddItem)
}

// Remove decrements the item by one unit on the server, then reconciles.
func (m *Mirror) Remove(ctx context.Context, itemID string) error {
	return m.mutate(ctx, itemID, m.api.RemoveItem)
}

func (m *Mirror) mutate(ctx context.Context, itemID string, call func(ctx context.Context, token, itemID string) error) error {
	item := strings.TrimSpace(itemID)
	if item == "" {
		return ErrItemRequired
	}
	token, err := m.currentToken()
	if err != nil {
		return err
	}
	if err := call(ctx, token, item); err != nil {
		return err
	}
	return m.refresh(ctx)
}

// Clear empties the cart on the server, then reconciles.
func (m *Mirror) Clear(ctx context.Context) error {
	token, err := m.currentToken()
	if err != nil {
		return err
	}
	if err := m.api.ClearCart(ctx, token); err != nil {
		return err
	}
	return m.refresh(ctx)
}

// Refresh re-fetches the snapshot for the current identity.
func (m *Mirror) Refresh(ctx context.Context) error {
	if _, err := m.currentToken(); err != nil {
		return err
	}
	return m.refresh(ctx)
}

// State reports the current lifecycle state.
func (m *Mirror) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Entries returns a copy of the held snapshot.
func (m *Mirror) Entries() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.entries))
	for itemID, qty := range m.entries {
		out[itemID] = qty
	}
	return out
}

// Quantity returns the held quantity for an item, zero when absent.
func (m *Mirror) Quantity(itemID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[itemID]
}

// Total computes the cart total against the supplied price lookup.
func (m *Mirror) Total(prices PriceLookup) int64 {
	m.mu.Lock()
	entries := make(map[string]int64, len(m.entries))
	for itemID, qty := range m.entries {
		entries[itemID] = qty
	}
	m.mu.Unlock()
	return Total(entries, prices)
}

func (m *Mirror) currentToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNoIdentity
	}
	return m.token, nil
}

// refresh fetches the server snapshot and applies it wholesale. A fetch that
// has been superseded by a newer generation discards its result; a failed
// fetch resets the mirror to empty and surfaces the error.
func (m *Mirror) refresh(ctx context.Context) error {
	m.mu.Lock()
	token := m.token
	if token == "" {
		m.entries = nil
		m.state = StateEmpty
		m.mu.Unlock()
		return nil
	}
	m.generation++
	gen := m.generation
	m.state = StateLoading
	m.mu.Unlock()

	snap, err := m.api.FetchCart(ctx, token)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		// A newer fetch or identity change owns the mirror now.
		return nil
	}
	if err != nil {
		m.entries = nil
		m.state = StateEmpty
		return err
	}

	entries := make(map[string]int64, len(snap.Entries))
	for itemID, qty := range snap.Entries {
		if qty <= 0 {
			continue
		}
		entries[itemID] = qty
	}
	m.entries = entries
	m.state = StatePopulated
	return nil
}
