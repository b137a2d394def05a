package repository

import (
	"context"

	"rentbook/internal/models"
)

func (r *Repository) GetUser(ctx context.Context, uid string) (*models.User, error) {
	return getDoc[models.User](ctx, r.store, models.CollectionUsers, uid)
}

func (r *Repository) SaveUser(ctx context.Context, user *models.User) error {
	return r.store.Set(ctx, models.CollectionUsers, user.UID, user)
}
