package repository

import (
	"context"

	"rentbook/internal/models"
)

func (r *Repository) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.store.Create(ctx, models.CollectionProducts, p.ID, p)
}

// SaveProduct upserts the whole product document.
func (r *Repository) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.store.Set(ctx, models.CollectionProducts, p.ID, p)
}

func (r *Repository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return getDoc[models.Product](ctx, r.store, models.CollectionProducts, id)
}

func (r *Repository) UpdateProduct(ctx context.Context, id string, fields map[string]any) error {
	return r.store.Update(ctx, models.CollectionProducts, id, fields)
}

func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	return r.store.Delete(ctx, models.CollectionProducts, id)
}

func (r *Repository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return findDocs[models.Product](ctx, r.store, models.CollectionProducts, newestFirst())
}
