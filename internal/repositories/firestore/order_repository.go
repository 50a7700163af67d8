package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/savora/api/internal/domain"
	pfirestore "github.com/savora/api/internal/platform/firestore"
	"github.com/savora/api/internal/repositories"
)

const ordersCollection = "orders"

type orderDocument struct {
	OwnerID  string              `firestore:"ownerId"`
	Lines    []orderLineDocument `firestore:"lines"`
	Total    int64               `firestore:"total"`
	Currency string              `firestore:"currency"`
	Status   string              `firestore:"status"`
	PlacedAt time.Time           `firestore:"placedAt"`
}

type orderLineDocument struct {
	ItemID    string `firestore:"itemId"`
	Name      string `firestore:"name,omitempty"`
	Quantity  int64  `firestore:"quantity"`
	UnitPrice int64  `firestore:"unitPrice"`
}

// OrderRepository persists committed orders within Firestore.
type OrderRepository struct {
	base *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil)
	return &OrderRepository{base: base}, nil
}

// Insert writes the order document keyed by its ULID.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	if strings.TrimSpace(order.OwnerID) == "" {
		return errors.New("order repository: owner id is required")
	}

	placedAt := order.PlacedAt.UTC()
	if placedAt.IsZero() {
		placedAt = time.Now().UTC()
	}

	lines := make([]orderLineDocument, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineDocument{
			ItemID:    line.ItemID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	doc := orderDocument{
		OwnerID:  strings.TrimSpace(order.OwnerID),
		Lines:    lines,
		Total:    order.Total,
		Currency: strings.ToUpper(strings.TrimSpace(order.Currency)),
		Status:   order.Status,
		PlacedAt: placedAt,
	}

	_, err := r.base.Set(ctx, id, doc)
	return err
}

// FindByID loads a single order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return orderFromDocument(doc.ID, doc.Data), nil
}

// ListByOwner returns the owner's orders, newest first.
func (r *OrderRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	uid := strings.TrimSpace(ownerID)
	if uid == "" {
		return nil, errors.New("order repository: owner id is required")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("ownerId", "==", uid).OrderBy("placedAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, orderFromDocument(doc.ID, doc.Data))
	}
	return orders, nil
}

func orderFromDocument(id string, doc orderDocument) domain.Order {
	lines := make([]domain.OrderLine, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		lines = append(lines, domain.OrderLine{
			ItemID:    line.ItemID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return domain.Order{
		ID:       id,
		OwnerID:  doc.OwnerID,
		Lines:    lines,
		Total:    doc.Total,
		Currency: doc.Currency,
		Status:   doc.Status,
		PlacedAt: doc.PlacedAt,
	}
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
