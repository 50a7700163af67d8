package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/savora/api/internal/domain"
)

type stubOrderRepository struct {
	orders map[string]domain.Order

	insertErr error
	listErr   error

	inserts []domain.Order
}

func newStubOrderRepository() *stubOrderRepository {
	return &stubOrderRepository{orders: make(map[string]domain.Order)}
}

func (s *stubOrderRepository) Insert(ctx context.Context, order domain.Order) error {
	s.inserts = append(s.inserts, order)
	if s.insertErr != nil {
		return s.insertErr
	}
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, &stubRepoError{notFound: true}
	}
	return order, nil
}

func (s *stubOrderRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Order, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.Order, 0)
	for _, order := range s.orders {
		if order.OwnerID == ownerID {
			out = append(out, order)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	err       error
	published []domain.Order
}

func (p *recordingPublisher) PublishOrderPlaced(ctx context.Context, order domain.Order) error {
	p.published = append(p.published, order)
	return p.err
}

type orderTestEnv struct {
	orders    *stubOrderRepository
	carts     *stubCartRepository
	catalog   *stubCatalogRepository
	publisher *recordingPublisher
	svc       OrderService
}

func newOrderTestEnv(t *testing.T) *orderTestEnv {
	t.Helper()

	env := &orderTestEnv{
		orders:    newStubOrderRepository(),
		carts:     newStubCartRepository(),
		catalog:   newStubCatalogRepository(),
		publisher: &recordingPublisher{},
	}

	catalogSvc, err := NewCatalogService(CatalogServiceDeps{Repository: env.catalog})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}

	env.svc, err = NewOrderService(OrderServiceDeps{
		Orders:      env.orders,
		Carts:       env.carts,
		Catalog:     catalogSvc,
		Publisher:   env.publisher,
		Clock:       func() time.Time { return time.Date(2026, 7, 4, 18, 30, 0, 0, time.UTC) },
		IDGenerator: func() string { return "order-1" },
		Currency:    "usd",
	})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return env
}

func TestNewOrderServiceValidatesDeps(t *testing.T) {
	catalogSvc, err := NewCatalogService(CatalogServiceDeps{Repository: newStubCatalogRepository()})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}

	cases := []struct {
		name string
		deps OrderServiceDeps
	}{
		{name: "missing orders", deps: OrderServiceDeps{Carts: newStubCartRepository(), Catalog: catalogSvc}},
		{name: "missing carts", deps: OrderServiceDeps{Orders: newStubOrderRepository(), Catalog: catalogSvc}},
		{name: "missing catalog", deps: OrderServiceDeps{Orders: newStubOrderRepository(), Carts: newStubCartRepository()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewOrderService(tc.deps); err == nil {
				t.Fatal("expected dependency validation error")
			}
		})
	}
}

func TestOrderServicePlaceOrderSnapshotsCart(t *testing.T) {
	env := newOrderTestEnv(t)
	env.catalog.items["item-1"] = domain.MenuItem{ID: "item-1", Name: "Ramen", Price: 980}
	env.catalog.items["item-2"] = domain.MenuItem{ID: "item-2", Name: "Gyoza", Price: 450}
	env.carts.carts["user-1"] = domain.Cart{
		OwnerID: "user-1",
		Entries: map[string]int64{"item-1": 2, "item-2": 1},
	}

	order, err := env.svc.PlaceOrder(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if order.ID != "order-1" {
		t.Fatalf("unexpected order id %q", order.ID)
	}
	if order.Status != domain.OrderStatusPlaced {
		t.Fatalf("expected status placed, got %q", order.Status)
	}
	if order.Currency != "USD" {
		t.Fatalf("expected normalised currency USD, got %q", order.Currency)
	}
	if want := int64(2*980 + 450); order.Total != want {
		t.Fatalf("expected total %d, got %d", want, order.Total)
	}
	if len(order.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(order.Lines))
	}
	// SortedEntries yields deterministic line order.
	if order.Lines[0].ItemID != "item-1" || order.Lines[1].ItemID != "item-2" {
		t.Fatalf("unexpected line order %v", order.Lines)
	}
	if order.Lines[0].Name != "Ramen" || order.Lines[0].UnitPrice != 980 {
		t.Fatalf("unexpected first line %+v", order.Lines[0])
	}

	if len(env.carts.clearCalls) != 1 || env.carts.clearCalls[0] != "user-1" {
		t.Fatalf("expected cart cleared once, got %v", env.carts.clearCalls)
	}
	if len(env.publisher.published) != 1 || env.publisher.published[0].ID != "order-1" {
		t.Fatalf("expected order event published, got %v", env.publisher.published)
	}
}

func TestOrderServiceRejectsEmptyCart(t *testing.T) {
	env := newOrderTestEnv(t)

	if _, err := env.svc.PlaceOrder(context.Background(), "user-1"); !errors.Is(err, ErrOrderEmptyCart) {
		t.Fatalf("expected ErrOrderEmptyCart, got %v", err)
	}
	if len(env.orders.inserts) != 0 {
		t.Fatal("expected no insert attempt for empty cart")
	}
	if len(env.carts.clearCalls) != 0 {
		t.Fatal("expected no clear attempt for empty cart")
	}
}

func TestOrderServiceRejectsMissingOwner(t *testing.T) {
	env := newOrderTestEnv(t)

	if _, err := env.svc.PlaceOrder(context.Background(), "  "); !errors.Is(err, ErrOrderUnauthorized) {
		t.Fatalf("expected ErrOrderUnauthorized, got %v", err)
	}
	if _, err := env.svc.ListOrders(context.Background(), ""); !errors.Is(err, ErrOrderUnauthorized) {
		t.Fatalf("expected ErrOrderUnauthorized, got %v", err)
	}
}

func TestOrderServiceFailedInsertLeavesCartUntouched(t *testing.T) {
	env := newOrderTestEnv(t)
	env.catalog.items["item-1"] = domain.MenuItem{ID: "item-1", Name: "Ramen", Price: 980}
	env.carts.carts["user-1"] = domain.Cart{
		OwnerID: "user-1",
		Entries: map[string]int64{"item-1": 1},
	}
	env.orders.insertErr = errors.New("firestore write failed")

	if _, err := env.svc.PlaceOrder(context.Background(), "user-1"); !errors.Is(err, ErrOrderUnavailable) {
		t.Fatalf("expected ErrOrderUnavailable, got %v", err)
	}
	if len(env.carts.clearCalls) != 0 {
		t.Fatal("expected cart untouched after failed insert")
	}
	if len(env.publisher.published) != 0 {
		t.Fatal("expected no event after failed insert")
	}

	cart := env.carts.carts["user-1"]
	if cart.Entries["item-1"] != 1 {
		t.Fatalf("expected cart entries preserved, got %v", cart.Entries)
	}
}

func TestOrderServiceUnresolvableItemBecomesZeroPricedLine(t *testing.T) {
	env := newOrderTestEnv(t)
	env.catalog.items["item-1"] = domain.MenuItem{ID: "item-1", Name: "Ramen", Price: 980}
	env.carts.carts["user-1"] = domain.Cart{
		OwnerID: "user-1",
		Entries: map[string]int64{"item-1": 1, "vanished": 3},
	}

	order, err := env.svc.PlaceOrder(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if order.Total != 980 {
		t.Fatalf("expected unresolvable item to contribute zero, total %d", order.Total)
	}
	if len(order.Lines) != 2 {
		t.Fatalf("expected both lines retained, got %d", len(order.Lines))
	}
	var ghost domain.OrderLine
	for _, line := range order.Lines {
		if line.ItemID == "vanished" {
			ghost = line
		}
	}
	if ghost.ItemID == "" {
		t.Fatalf("expected zero-priced line for vanished item, lines %v", order.Lines)
	}
	if ghost.UnitPrice != 0 || ghost.Quantity != 3 {
		t.Fatalf("unexpected zero-priced line %+v", ghost)
	}
}

func TestOrderServicePublishFailureDoesNotBlockOrder(t *testing.T) {
	env := newOrderTestEnv(t)
	env.catalog.items["item-1"] = domain.MenuItem{ID: "item-1", Name: "Ramen", Price: 980}
	env.carts.carts["user-1"] = domain.Cart{
		OwnerID: "user-1",
		Entries: map[string]int64{"item-1": 1},
	}
	env.publisher.err = errors.New("pubsub unavailable")

	order, err := env.svc.PlaceOrder(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.ID == "" {
		t.Fatal("expected committed order despite publish failure")
	}
	if len(env.carts.clearCalls) != 1 {
		t.Fatal("expected cart cleared despite publish failure")
	}
}

func TestOrderServiceCartClearFailureStillReturnsOrder(t *testing.T) {
	env := newOrderTestEnv(t)
	env.catalog.items["item-1"] = domain.MenuItem{ID: "item-1", Name: "Ramen", Price: 980}
	env.carts.carts["user-1"] = domain.Cart{
		OwnerID: "user-1",
		Entries: map[string]int64{"item-1": 1},
	}
	env.carts.clearErr = errors.New("firestore unavailable")

	order, err := env.svc.PlaceOrder(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.ID != "order-1" {
		t.Fatalf("expected committed order, got %+v", order)
	}
}

func TestOrderServiceListOrders(t *testing.T) {
	env := newOrderTestEnv(t)
	env.orders.orders["o1"] = domain.Order{ID: "o1", OwnerID: "user-1"}
	env.orders.orders["o2"] = domain.Order{ID: "o2", OwnerID: "someone-else"}

	orders, err := env.svc.ListOrders(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "o1" {
		t.Fatalf("unexpected orders %v", orders)
	}
}
