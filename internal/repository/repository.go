package repository

import (
	"context"
	"errors"
	"fmt"

	"rentbook/internal/docstore"
)

// maxBatchWrites stays below Firestore's 500 writes per transaction.
const maxBatchWrites = 400

// ErrPartialBatch means some chunks of a chunked batch were committed before
// one failed. Each chunk is atomic on its own.
var ErrPartialBatch = errors.New("batch partially applied")

// Repository maps the domain collections onto a docstore.Store.
type Repository struct {
	store docstore.Store
}

func New(store docstore.Store) *Repository {
	return &Repository{store: store}
}

func getDoc[T any](ctx context.Context, store docstore.Store, collection, id string) (*T, error) {
	snap, err := store.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := snap.DataTo(&v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return &v, nil
}

func findDocs[T any](ctx context.Context, store docstore.Store, collection string, q docstore.Query) ([]*T, error) {
	snaps, err := store.Find(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(snaps))
	for _, snap := range snaps {
		var v T
		if err := snap.DataTo(&v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, snap.ID(), err)
		}
		out = append(out, &v)
	}
	return out, nil
}

// batch commits writes in chunks of maxBatchWrites and returns how many were
// applied. A failure after the first chunk wraps ErrPartialBatch.
func (r *Repository) batch(ctx context.Context, writes []docstore.Write) (int, error) {
	applied := 0
	for start := 0; start < len(writes); start += maxBatchWrites {
		end := min(start+maxBatchWrites, len(writes))
		if err := r.store.Batch(ctx, writes[start:end]); err != nil {
			if applied > 0 {
				return applied, fmt.Errorf("%w: %d of %d writes applied: %w", ErrPartialBatch, applied, len(writes), err)
			}
			return 0, err
		}
		applied = end
	}
	return applied, nil
}
