package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/savora/api/internal/domain"
	pfirestore "github.com/savora/api/internal/platform/firestore"
	"github.com/savora/api/internal/repositories"
)

const cartCollection = "carts"

type cartDocument struct {
	Entries   map[string]int64 `firestore:"entries"`
	CreatedAt time.Time        `firestore:"createdAt"`
	UpdatedAt time.Time        `firestore:"updatedAt"`
}

// CartRepository persists per-owner cart documents within Firestore. Each
// owner maps to a single document keyed by owner ID; concurrent quantity
// deltas serialise through optimistic transactions.
type CartRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[cartDocument]
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[cartDocument](provider, cartCollection, nil, nil)
	return &CartRepository{
		provider: provider,
		base:     base,
	}, nil
}

// Get loads the owner's cart. A missing document yields an empty cart.
func (r *CartRepository) Get(ctx context.Context, ownerID string) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(ownerID)
	if uid == "" {
		return domain.Cart{}, errors.New("cart repository: owner id is required")
	}

	doc, err := r.base.Get(ctx, uid)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.Cart{OwnerID: uid, Entries: map[string]int64{}}, nil
		}
		return domain.Cart{}, err
	}

	entries := make(map[string]int64, len(doc.Data.Entries))
	for itemID, qty := range doc.Data.Entries {
		if qty <= 0 {
			continue
		}
		entries[itemID] = qty
	}

	return domain.Cart{
		OwnerID:   uid,
		Entries:   entries,
		CreatedAt: doc.Data.CreatedAt,
		UpdatedAt: doc.UpdateTime,
	}, nil
}

// AddEntry atomically accumulates delta onto the item's quantity inside a
// transaction. Quantities that drop to zero or below remove the entry.
func (r *CartRepository) AddEntry(ctx context.Context, ownerID, itemID string, delta int64) error {
	return r.mutateEntry(ctx, ownerID, itemID, func(current int64) int64 {
		return current + delta
	})
}

// SetEntry sets the item's quantity wholesale. Zero or below removes the entry.
func (r *CartRepository) SetEntry(ctx context.Context, ownerID, itemID string, quantity int64) error {
	return r.mutateEntry(ctx, ownerID, itemID, func(int64) int64 {
		return quantity
	})
}

func (r *CartRepository) mutateEntry(ctx context.Context, ownerID, itemID string, apply func(current int64) int64) error {
	if r == nil || r.provider == nil {
		return errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(ownerID)
	if uid == "" {
		return errors.New("cart repository: owner id is required")
	}
	item := strings.TrimSpace(itemID)
	if item == "" {
		return errors.New("cart repository: item id is required")
	}

	now := time.Now().UTC()

	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, uid)
		if err != nil {
			return err
		}

		snapshot, err := tx.Get(ref)
		switch status.Code(err) {
		case codes.NotFound:
			next := apply(0)
			if next <= 0 {
				// Removing from a missing cart is a no-op.
				return nil
			}
			doc := cartDocument{
				Entries:   map[string]int64{item: next},
				CreatedAt: now,
				UpdatedAt: now,
			}
			return tx.Create(ref, doc)
		case codes.OK:
			// proceed
		default:
			return err
		}

		var doc cartDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return fmt.Errorf("firestore carts decode %s: %w", uid, err)
		}
		if doc.Entries == nil {
			doc.Entries = map[string]int64{}
		}

		next := apply(doc.Entries[item])
		if next <= 0 {
			delete(doc.Entries, item)
		} else {
			doc.Entries[item] = next
		}
		doc.UpdatedAt = now
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}

		// Full replace so removed entry keys do not linger in the document.
		return tx.Set(ref, doc)
	})
}

// Clear deletes the owner's cart document. Deleting a missing cart succeeds.
func (r *CartRepository) Clear(ctx context.Context, ownerID string) error {
	if r == nil || r.base == nil {
		return errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(ownerID)
	if uid == "" {
		return errors.New("cart repository: owner id is required")
	}
	return r.base.Delete(ctx, uid)
}

var _ repositories.CartRepository = (*CartRepository)(nil)
