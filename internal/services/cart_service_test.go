package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domain "github.com/savora/api/internal/domain"
)

type stubCartRepository struct {
	carts map[string]domain.Cart

	getErr   error
	addErr   error
	clearErr error

	addCalls   []cartAddCall
	clearCalls []string
}

type cartAddCall struct {
	ownerID string
	itemID  string
	delta   int64
}

func newStubCartRepository() *stubCartRepository {
	return &stubCartRepository{carts: make(map[string]domain.Cart)}
}

func (s *stubCartRepository) Get(ctx context.Context, ownerID string) (domain.Cart, error) {
	if s.getErr != nil {
		return domain.Cart{}, s.getErr
	}
	cart, ok := s.carts[ownerID]
	if !ok {
		return domain.Cart{OwnerID: ownerID, Entries: map[string]int64{}}, nil
	}
	return cart, nil
}

func (s *stubCartRepository) AddEntry(ctx context.Context, ownerID, itemID string, delta int64) error {
	s.addCalls = append(s.addCalls, cartAddCall{ownerID: ownerID, itemID: itemID, delta: delta})
	if s.addErr != nil {
		return s.addErr
	}
	cart, ok := s.carts[ownerID]
	if !ok {
		cart = domain.Cart{OwnerID: ownerID, Entries: map[string]int64{}}
	}
	next := cart.Entries[itemID] + delta
	if next <= 0 {
		delete(cart.Entries, itemID)
	} else {
		cart.Entries[itemID] = next
	}
	s.carts[ownerID] = cart
	return nil
}

func (s *stubCartRepository) SetEntry(ctx context.Context, ownerID, itemID string, quantity int64) error {
	cart, ok := s.carts[ownerID]
	if !ok {
		cart = domain.Cart{OwnerID: ownerID, Entries: map[string]int64{}}
	}
	if quantity <= 0 {
		delete(cart.Entries, itemID)
	} else {
		cart.Entries[itemID] = quantity
	}
	s.carts[ownerID] = cart
	return nil
}

func (s *stubCartRepository) Clear(ctx context.Context, ownerID string) error {
	s.clearCalls = append(s.clearCalls, ownerID)
	if s.clearErr != nil {
		return s.clearErr
	}
	delete(s.carts, ownerID)
	return nil
}

func newTestCartService(t *testing.T, repo *stubCartRepository) CartService {
	t.Helper()
	svc, err := NewCartService(CartServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	return svc
}

func TestNewCartServiceRequiresRepository(t *testing.T) {
	if _, err := NewCartService(CartServiceDeps{}); err == nil {
		t.Fatal("expected error for missing repository")
	}
}

func TestCartServiceAddItemAccumulates(t *testing.T) {
	repo := newStubCartRepository()
	svc := newTestCartService(t, repo)
	ctx := context.Background()

	if err := svc.AddItem(ctx, "user-1", "item-1"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := svc.AddItem(ctx, "user-1", "item-1"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if len(repo.addCalls) != 2 {
		t.Fatalf("expected 2 add calls, got %d", len(repo.addCalls))
	}
	for _, call := range repo.addCalls {
		if call.delta != 1 {
			t.Fatalf("expected delta +1, got %d", call.delta)
		}
	}

	cart, err := svc.FetchCart(ctx, "user-1")
	if err != nil {
		t.Fatalf("FetchCart: %v", err)
	}
	if len(cart.Entries) != 1 || cart.Entries[0].Quantity != 2 {
		t.Fatalf("unexpected entries %v", cart.Entries)
	}
}

func TestCartServiceRemoveItemDecrements(t *testing.T) {
	repo := newStubCartRepository()
	repo.carts["user-1"] = domain.Cart{OwnerID: "user-1", Entries: map[string]int64{"item-1": 2}}
	svc := newTestCartService(t, repo)
	ctx := context.Background()

	if err := svc.RemoveItem(ctx, "user-1", "item-1"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if got := repo.addCalls[0].delta; got != -1 {
		t.Fatalf("expected delta -1, got %d", got)
	}

	cart, err := svc.FetchCart(ctx, "user-1")
	if err != nil {
		t.Fatalf("FetchCart: %v", err)
	}
	if len(cart.Entries) != 1 || cart.Entries[0].Quantity != 1 {
		t.Fatalf("unexpected entries %v", cart.Entries)
	}
}

func TestCartServiceRemoveAbsentItemIsNoOp(t *testing.T) {
	repo := newStubCartRepository()
	svc := newTestCartService(t, repo)
	ctx := context.Background()

	if err := svc.RemoveItem(ctx, "user-1", "ghost"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}

	cart, err := svc.FetchCart(ctx, "user-1")
	if err != nil {
		t.Fatalf("FetchCart: %v", err)
	}
	if len(cart.Entries) != 0 {
		t.Fatalf("expected empty cart, got %v", cart.Entries)
	}
}

func TestCartServiceFetchMissingCartIsEmpty(t *testing.T) {
	repo := newStubCartRepository()
	svc := newTestCartService(t, repo)

	cart, err := svc.FetchCart(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("FetchCart: %v", err)
	}
	if cart.OwnerID != "nobody" || len(cart.Entries) != 0 {
		t.Fatalf("expected empty cart for new owner, got %+v", cart)
	}
}

func TestCartServiceFetchSortsEntries(t *testing.T) {
	repo := newStubCartRepository()
	repo.carts["user-1"] = domain.Cart{
		OwnerID:   "user-1",
		Entries:   map[string]int64{"zeta": 1, "alpha": 2, "mid": 3},
		UpdatedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	svc := newTestCartService(t, repo)

	cart, err := svc.FetchCart(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("FetchCart: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(cart.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(cart.Entries))
	}
	for i, entry := range cart.Entries {
		if entry.ItemID != want[i] {
			t.Fatalf("expected entry %d to be %q, got %q", i, want[i], entry.ItemID)
		}
	}
	if cart.UpdatedAt.IsZero() {
		t.Fatal("expected UpdatedAt to carry over")
	}
}

func TestCartServiceRejectsMissingOwnerBeforeStoreAccess(t *testing.T) {
	repo := newStubCartRepository()
	svc := newTestCartService(t, repo)
	ctx := context.Background()

	if err := svc.AddItem(ctx, "  ", "item-1"); !errors.Is(err, ErrCartUnauthorized) {
		t.Fatalf("expected ErrCartUnauthorized, got %v", err)
	}
	if _, err := svc.FetchCart(ctx, ""); !errors.Is(err, ErrCartUnauthorized) {
		t.Fatalf("expected ErrCartUnauthorized, got %v", err)
	}
	if err := svc.ClearCart(ctx, ""); !errors.Is(err, ErrCartUnauthorized) {
		t.Fatalf("expected ErrCartUnauthorized, got %v", err)
	}
	if len(repo.addCalls) != 0 || len(repo.clearCalls) != 0 {
		t.Fatal("expected no repository access for unauthorized calls")
	}
}

func TestCartServiceRejectsEmptyItemID(t *testing.T) {
	svc := newTestCartService(t, newStubCartRepository())

	if err := svc.AddItem(context.Background(), "user-1", "  "); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected ErrCartInvalidInput, got %v", err)
	}
	if err := svc.RemoveItem(context.Background(), "user-1", ""); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected ErrCartInvalidInput, got %v", err)
	}
}

func TestCartServiceTranslatesBackendFaults(t *testing.T) {
	repo := newStubCartRepository()
	repo.addErr = errors.New("firestore unavailable")
	repo.getErr = errors.New("firestore unavailable")
	repo.clearErr = errors.New("firestore unavailable")
	svc := newTestCartService(t, repo)
	ctx := context.Background()

	if err := svc.AddItem(ctx, "user-1", "item-1"); !errors.Is(err, ErrCartUnavailable) {
		t.Fatalf("expected ErrCartUnavailable, got %v", err)
	}
	if _, err := svc.FetchCart(ctx, "user-1"); !errors.Is(err, ErrCartUnavailable) {
		t.Fatalf("expected ErrCartUnavailable, got %v", err)
	}
	if err := svc.ClearCart(ctx, "user-1"); !errors.Is(err, ErrCartUnavailable) {
		t.Fatalf("expected ErrCartUnavailable, got %v", err)
	}
}

type lockedCartRepository struct {
	mu sync.Mutex
	stubCartRepository
}

func (s *lockedCartRepository) AddEntry(ctx context.Context, ownerID, itemID string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stubCartRepository.AddEntry(ctx, ownerID, itemID, delta)
}

func (s *lockedCartRepository) Get(ctx context.Context, ownerID string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stubCartRepository.Get(ctx, ownerID)
}

func TestCartServiceConcurrentDeltasAccumulate(t *testing.T) {
	repo := &lockedCartRepository{stubCartRepository: *newStubCartRepository()}
	svc, err := NewCartService(CartServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	ctx := context.Background()

	const adds, removes = 30, 10
	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.AddItem(ctx, "user-1", "item-1"); err != nil {
				t.Errorf("AddItem: %v", err)
			}
		}()
	}
	for i := 0; i < removes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.RemoveItem(ctx, "user-1", "item-1"); err != nil {
				t.Errorf("RemoveItem: %v", err)
			}
		}()
	}
	wg.Wait()

	cart, err := svc.FetchCart(ctx, "user-1")
	if err != nil {
		t.Fatalf("FetchCart: %v", err)
	}
	var got int64
	for _, entry := range cart.Entries {
		if entry.ItemID == "item-1" {
			got = entry.Quantity
		}
	}
	if got < adds-removes {
		t.Fatalf("expected at least net quantity %d, got %d", adds-removes, got)
	}
}

func TestCartServiceClearIsIdempotent(t *testing.T) {
	repo := newStubCartRepository()
	svc := newTestCartService(t, repo)
	ctx := context.Background()

	if err := svc.ClearCart(ctx, "user-1"); err != nil {
		t.Fatalf("ClearCart on empty cart: %v", err)
	}
	if err := svc.ClearCart(ctx, "user-1"); err != nil {
		t.Fatalf("ClearCart repeated: %v", err)
	}
	if len(repo.clearCalls) != 2 {
		t.Fatalf("expected 2 clear calls, got %d", len(repo.clearCalls))
	}
}
