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

const menuItemsCollection = "menu_items"

type menuItemDocument struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description,omitempty"`
	Category    string    `firestore:"category,omitempty"`
	Price       int64     `firestore:"price"`
	ImageURL    string    `firestore:"imageUrl,omitempty"`
	Available   bool      `firestore:"available"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

// CatalogRepository stores menu items within Firestore.
type CatalogRepository struct {
	base *pfirestore.BaseRepository[menuItemDocument]
}

// NewCatalogRepository constructs a Firestore-backed catalog repository.
func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[menuItemDocument](provider, menuItemsCollection, nil, nil)
	return &CatalogRepository{base: base}, nil
}

// List returns every menu item ordered by category then name.
func (r *CatalogRepository) List(ctx context.Context) ([]domain.MenuItem, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("catalog repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.OrderBy("category", firestore.Asc).OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.MenuItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, menuItemFromDocument(doc.ID, doc.Data))
	}
	return items, nil
}

// GetItem loads a single menu item by identifier.
func (r *CatalogRepository) GetItem(ctx context.Context, itemID string) (domain.MenuItem, error) {
	if r == nil || r.base == nil {
		return domain.MenuItem{}, errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.MenuItem{}, errors.New("catalog repository: item id is required")
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.MenuItem{}, err
	}
	return menuItemFromDocument(doc.ID, doc.Data), nil
}

// UpsertItem persists the menu item document using its ID as the document key.
func (r *CatalogRepository) UpsertItem(ctx context.Context, item domain.MenuItem) error {
	if r == nil || r.base == nil {
		return errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(item.ID)
	if id == "" {
		return errors.New("catalog repository: item id is required")
	}

	now := time.Now().UTC()
	createdAt := item.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = now
	}

	doc := menuItemDocument{
		Name:        strings.TrimSpace(item.Name),
		Description: strings.TrimSpace(item.Description),
		Category:    strings.TrimSpace(item.Category),
		Price:       item.Price,
		ImageURL:    strings.TrimSpace(item.ImageURL),
		Available:   item.Available,
		CreatedAt:   createdAt,
		UpdatedAt:   now,
	}

	_, err := r.base.Set(ctx, id, doc)
	return err
}

// DeleteItem removes the menu item. Deleting a missing item succeeds.
func (r *CatalogRepository) DeleteItem(ctx context.Context, itemID string) error {
	if r == nil || r.base == nil {
		return errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(itemID)
	if id == "" {
		return errors.New("catalog repository: item id is required")
	}
	return r.base.Delete(ctx, id)
}

func menuItemFromDocument(id string, doc menuItemDocument) domain.MenuItem {
	return domain.MenuItem{
		ID:          id,
		Name:        doc.Name,
		Description: doc.Description,
		Category:    doc.Category,
		Price:       doc.Price,
		ImageURL:    doc.ImageURL,
		Available:   doc.Available,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)
