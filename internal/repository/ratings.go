package repository

import (
	"context"

	"rentbook/internal/docstore"
	"rentbook/internal/models"
)

func (r *Repository) CreateRating(ctx context.Context, rating *models.Rating) error {
	return r.store.Create(ctx, models.CollectionRatings, rating.ID, rating)
}

func (r *Repository) GetRating(ctx context.Context, id string) (*models.Rating, error) {
	return getDoc[models.Rating](ctx, r.store, models.CollectionRatings, id)
}

func (r *Repository) UpdateRating(ctx context.Context, id string, fields map[string]any) error {
	return r.store.Update(ctx, models.CollectionRatings, id, fields)
}

func (r *Repository) DeleteRating(ctx context.Context, id string) error {
	return r.store.Delete(ctx, models.CollectionRatings, id)
}

func (r *Repository) ListRatingsByProduct(ctx context.Context, productID string) ([]*models.Rating, error) {
	return findDocs[models.Rating](ctx, r.store, models.CollectionRatings, newestFirst(docstore.Eq("productId", productID)))
}

func (r *Repository) ListRatingsByUser(ctx context.Context, userID string) ([]*models.Rating, error) {
	return findDocs[models.Rating](ctx, r.store, models.CollectionRatings, newestFirst(docstore.Eq("userId", userID)))
}

func (r *Repository) DeleteRatingsByProduct(ctx context.Context, productID string) (int, error) {
	snaps, err := r.store.Find(ctx, models.CollectionRatings, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("productId", productID)},
	})
	if err != nil {
		return 0, err
	}

	writes := make([]docstore.Write, 0, len(snaps))
	for _, snap := range snaps {
		writes = append(writes, docstore.DeleteWrite(models.CollectionRatings, snap.ID()))
	}
	return r.batch(ctx, writes)
}
