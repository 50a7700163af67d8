package services

import (
	"context"
	"errors"
	"strings"

	"github.com/savora/api/internal/repositories"
)

var errCartRepositoryRequired = errors.New("cart service: repository is required")

// ErrCartUnauthorized indicates the caller has no verified identity.
var ErrCartUnauthorized = errors.New("cart service: unauthorized")

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartUnavailable indicates the cart store cannot fulfil the request due to backend issues.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// CartServiceDeps wires the repository and ambient dependencies for cart operations.
type CartServiceDeps struct {
	Repository repositories.CartRepository
	Logger     func(context.Context, string, map[string]any)
}

type cartService struct {
	repo   repositories.CartRepository
	logger func(context.Context, string, map[string]any)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Repository == nil {
		return nil, errCartRepositoryRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		repo:   deps.Repository,
		logger: logger,
	}, nil
}

// AddItem accumulates one unit of the item onto the owner's cart.
func (s *cartService) AddItem(ctx context.Context, ownerID, itemID string) error {
	if s == nil || s.repo == nil {
		return ErrCartUnavailable
	}
	uid, err := requireOwner(ownerID)
	if err != nil {
		return err
	}
	item := strings.TrimSpace(itemID)
	if item == "" {
		return ErrCartInvalidInput
	}

	if err := s.repo.AddEntry(ctx, uid, item, 1); err != nil {
		return s.translateRepoError(err)
	}

	s.logger(ctx, "cart.item_added", map[string]any{
		"owner_id": uid,
		"item_id":  item,
	})
	return nil
}

// RemoveItem decrements the item by one unit, floored at zero.
func (s *cartService) RemoveItem(ctx context.Context, ownerID, itemID string) error {
	if s == nil || s.repo == nil {
		return ErrCartUnavailable
	}
	uid, err := requireOwner(ownerID)
	if err != nil {
		return err
	}
	item := strings.TrimSpace(itemID)
	if item == "" {
		return ErrCartInvalidInput
	}

	if err := s.repo.AddEntry(ctx, uid, item, -1); err != nil {
		return s.translateRepoError(err)
	}

	s.logger(ctx, "cart.item_removed", map[string]any{
		"owner_id": uid,
		"item_id":  item,
	})
	return nil
}

// FetchCart returns the owner's current entries without joining prices.
func (s *cartService) FetchCart(ctx context.Context, ownerID string) (Cart, error) {
	if s == nil || s.repo == nil {
		return Cart{}, ErrCartUnavailable
	}
	uid, err := requireOwner(ownerID)
	if err != nil {
		return Cart{}, err
	}

	cart, err := s.repo.Get(ctx, uid)
	if err != nil {
		return Cart{}, s.translateRepoError(err)
	}

	return Cart{
		OwnerID:   uid,
		Entries:   cart.SortedEntries(),
		UpdatedAt: cart.UpdatedAt,
	}, nil
}

// ClearCart removes every entry from the owner's cart.
func (s *cartService) ClearCart(ctx context.Context, ownerID string) error {
	if s == nil || s.repo == nil {
		return ErrCartUnavailable
	}
	uid, err := requireOwner(ownerID)
	if err != nil {
		return err
	}

	if err := s.repo.Clear(ctx, uid); err != nil {
		return s.translateRepoError(err)
	}

	s.logger(ctx, "cart.cleared", map[string]any{
		"owner_id": uid,
	})
	return nil
}

func requireOwner(ownerID string) (string, error) {
	uid := strings.TrimSpace(ownerID)
	if uid == "" {
		return "", ErrCartUnauthorized
	}
	return uid, nil
}

// translateRepoError maps persistence failures onto service sentinels.
// Missing carts never surface here: the repository treats them as empty, so
// every error left over is a backend fault.
func (s *cartService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	return ErrCartUnavailable
}
