package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/savora/api/internal/domain"
	"github.com/savora/api/internal/repositories"
)

var (
	errOrderRepositoryRequired = errors.New("order service: order repository is required")
	errOrderCartsRequired      = errors.New("order service: cart repository is required")
	errOrderCatalogRequired    = errors.New("order service: catalog service is required")
)

// ErrOrderUnauthorized indicates the caller has no verified identity.
var ErrOrderUnauthorized = errors.New("order service: unauthorized")

// ErrOrderEmptyCart indicates the cart held no entries at commit time.
var ErrOrderEmptyCart = errors.New("order service: cart is empty")

// ErrOrderNotFound indicates the requested order does not exist.
var ErrOrderNotFound = errors.New("order service: not found")

// ErrOrderUnavailable indicates a backend fault prevented the operation.
var ErrOrderUnavailable = errors.New("order service: unavailable")

// OrderServiceDeps wires the repositories and collaborators for order placement.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Carts       repositories.CartRepository
	Catalog     CatalogService
	Publisher   OrderEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Currency    string
	Logger      func(context.Context, string, map[string]any)
}

type orderService struct {
	orders    repositories.OrderRepository
	carts     repositories.CartRepository
	catalog   CatalogService
	publisher OrderEventPublisher
	now       func() time.Time
	newID     func() string
	currency  string
	logger    func(context.Context, string, map[string]any)
}

// NewOrderService constructs an OrderService enforcing dependency validation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errOrderRepositoryRequired
	}
	if deps.Carts == nil {
		return nil, errOrderCartsRequired
	}
	if deps.Catalog == nil {
		return nil, errOrderCatalogRequired
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	currency := strings.ToUpper(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = "USD"
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:    deps.Orders,
		carts:     deps.Carts,
		catalog:   deps.Catalog,
		publisher: deps.Publisher,
		now:       func() time.Time { return clock().UTC() },
		newID:     idGen,
		currency:  currency,
		logger:    logger,
	}, nil
}

// PlaceOrder snapshots the owner's cart into an order. The cart is cleared
// only after the order document is durably written; a failed write leaves the
// cart untouched so the caller can retry.
func (s *orderService) PlaceOrder(ctx context.Context, ownerID string) (domain.Order, error) {
	if s == nil || s.orders == nil {
		return domain.Order{}, ErrOrderUnavailable
	}
	uid := strings.TrimSpace(ownerID)
	if uid == "" {
		return domain.Order{}, ErrOrderUnauthorized
	}

	cart, err := s.carts.Get(ctx, uid)
	if err != nil {
		return domain.Order{}, s.translateRepoError(err)
	}
	if cart.IsEmpty() {
		return domain.Order{}, ErrOrderEmptyCart
	}

	lines, total, err := s.assembleLines(ctx, cart)
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:       s.newID(),
		OwnerID:  uid,
		Lines:    lines,
		Total:    total,
		Currency: s.currency,
		Status:   domain.OrderStatusPlaced,
		PlacedAt: s.now(),
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return domain.Order{}, s.translateRepoError(err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
			s.logger(ctx, "order.event_publish_failed", map[string]any{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	if err := s.carts.Clear(ctx, uid); err != nil {
		// The order is committed; a failed clear leaves a stale cart that the
		// owner can clear on their next fetch cycle.
		s.logger(ctx, "order.cart_clear_failed", map[string]any{
			"order_id": order.ID,
			"owner_id": uid,
			"error":    err.Error(),
		})
	}

	s.logger(ctx, "order.placed", map[string]any{
		"order_id": order.ID,
		"owner_id": uid,
		"total":    order.Total,
		"lines":    len(order.Lines),
	})
	return order, nil
}

// ListOrders returns the owner's order history, newest first.
func (s *orderService) ListOrders(ctx context.Context, ownerID string) ([]domain.Order, error) {
	if s == nil || s.orders == nil {
		return nil, ErrOrderUnavailable
	}
	uid := strings.TrimSpace(ownerID)
	if uid == "" {
		return nil, ErrOrderUnauthorized
	}

	orders, err := s.orders.ListByOwner(ctx, uid)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	return orders, nil
}

// assembleLines joins cart entries against catalog prices. Items that no
// longer resolve contribute zero to the total but are retained as zero-priced
// lines so the order record reflects what the cart held.
func (s *orderService) assembleLines(ctx context.Context, cart domain.Cart) ([]domain.OrderLine, int64, error) {
	entries := cart.SortedEntries()
	lines := make([]domain.OrderLine, 0, len(entries))
	var total int64

	for _, entry := range entries {
		line := domain.OrderLine{
			ItemID:   entry.ItemID,
			Quantity: entry.Quantity,
		}

		item, err := s.catalog.GetItem(ctx, entry.ItemID)
		switch {
		case err == nil:
			line.Name = item.Name
			line.UnitPrice = item.Price
			total += line.Subtotal()
		case errors.Is(err, ErrCatalogNotFound):
			// Item vanished from the catalog; carry the quantity with a
			// zero price rather than dropping the line.
		default:
			return nil, 0, ErrOrderUnavailable
		}

		lines = append(lines, line)
	}
	return lines, total, nil
}

func (s *orderService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return ErrOrderNotFound
	}
	return ErrOrderUnavailable
}
