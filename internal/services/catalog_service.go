package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/savora/api/internal/domain"
	"github.com/savora/api/internal/repositories"
)

var errCatalogRepositoryRequired = errors.New("catalog service: repository is required")

// ErrCatalogInvalidInput indicates the caller supplied invalid item data.
var ErrCatalogInvalidInput = errors.New("catalog service: invalid input")

// ErrCatalogNotFound indicates the requested menu item does not exist.
var ErrCatalogNotFound = errors.New("catalog service: not found")

// ErrCatalogUnavailable indicates the catalog store cannot fulfil the request.
var ErrCatalogUnavailable = errors.New("catalog service: unavailable")

const (
	maxMenuItemNameLength        = 120
	maxMenuItemDescriptionLength = 2000
)

// CatalogServiceDeps wires the repository and ambient dependencies for catalog operations.
type CatalogServiceDeps struct {
	Repository  repositories.CatalogRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type catalogService struct {
	repo      repositories.CatalogRepository
	now       func() time.Time
	newID     func() string
	sanitizer *bluemonday.Policy
	logger    func(context.Context, string, map[string]any)
}

// NewCatalogService constructs a CatalogService enforcing dependency validation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Repository == nil {
		return nil, errCatalogRepositoryRequired
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &catalogService{
		repo:      deps.Repository,
		now:       func() time.Time { return clock().UTC() },
		newID:     idGen,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}, nil
}

// ListItems returns the full menu.
func (s *catalogService) ListItems(ctx context.Context) ([]domain.MenuItem, error) {
	if s == nil || s.repo == nil {
		return nil, ErrCatalogUnavailable
	}
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	return items, nil
}

// GetItem loads a single menu item.
func (s *catalogService) GetItem(ctx context.Context, itemID string) (domain.MenuItem, error) {
	if s == nil || s.repo == nil {
		return domain.MenuItem{}, ErrCatalogUnavailable
	}
	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.MenuItem{}, ErrCatalogInvalidInput
	}

	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return domain.MenuItem{}, s.translateRepoError(err)
	}
	return item, nil
}

// UpsertItem creates or updates a menu item after sanitising user-facing text.
func (s *catalogService) UpsertItem(ctx context.Context, input MenuItemInput) (domain.MenuItem, error) {
	if s == nil || s.repo == nil {
		return domain.MenuItem{}, ErrCatalogUnavailable
	}

	name := s.sanitizeText(input.Name, maxMenuItemNameLength)
	if name == "" {
		return domain.MenuItem{}, ErrCatalogInvalidInput
	}
	if input.Price < 0 {
		return domain.MenuItem{}, ErrCatalogInvalidInput
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = s.newID()
	}

	item := domain.MenuItem{
		ID:          id,
		Name:        name,
		Description: s.sanitizeText(input.Description, maxMenuItemDescriptionLength),
		Category:    s.sanitizeText(input.Category, maxMenuItemNameLength),
		Price:       input.Price,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Available:   input.Available,
		UpdatedAt:   s.now(),
	}

	if err := s.repo.UpsertItem(ctx, item); err != nil {
		return domain.MenuItem{}, s.translateRepoError(err)
	}

	s.logger(ctx, "catalog.item_upserted", map[string]any{
		"item_id":  item.ID,
		"category": item.Category,
	})
	return item, nil
}

// DeleteItem removes a menu item from the catalog.
func (s *catalogService) DeleteItem(ctx context.Context, itemID string) error {
	if s == nil || s.repo == nil {
		return ErrCatalogUnavailable
	}
	id := strings.TrimSpace(itemID)
	if id == "" {
		return ErrCatalogInvalidInput
	}

	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return s.translateRepoError(err)
	}

	s.logger(ctx, "catalog.item_deleted", map[string]any{
		"item_id": id,
	})
	return nil
}

// PriceOf resolves the unit price for an item. Unresolvable or unavailable
// items are reported through the bool, not as errors.
func (s *catalogService) PriceOf(ctx context.Context, itemID string) (int64, bool, error) {
	if s == nil || s.repo == nil {
		return 0, false, ErrCatalogUnavailable
	}
	id := strings.TrimSpace(itemID)
	if id == "" {
		return 0, false, nil
	}

	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return 0, false, nil
		}
		return 0, false, s.translateRepoError(err)
	}
	return item.Price, true, nil
}

func (s *catalogService) sanitizeText(value string, limit int) string {
	cleaned := strings.TrimSpace(s.sanitizer.Sanitize(value))
	if limit > 0 && len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return cleaned
}

func (s *catalogService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrCatalogNotFound
		case repoErr.IsUnavailable():
			return ErrCatalogUnavailable
		}
	}
	return ErrCatalogUnavailable
}
