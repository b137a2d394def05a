package repository

import (
	"context"
	"time"

	"rentbook/internal/docstore"
	"rentbook/internal/models"
)

func (r *Repository) CreateNotification(ctx context.Context, n *models.Notification) error {
	return r.store.Create(ctx, models.CollectionNotifications, n.ID, n)
}

func (r *Repository) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	return getDoc[models.Notification](ctx, r.store, models.CollectionNotifications, id)
}

func (r *Repository) ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	q := newestFirst(docstore.Eq("userId", userID))
	q.Limit = limit
	return findDocs[models.Notification](ctx, r.store, models.CollectionNotifications, q)
}

func (r *Repository) CountUnread(ctx context.Context, userID string) (int, error) {
	return r.store.Count(ctx, models.CollectionNotifications,
		docstore.Eq("userId", userID), docstore.Eq("isRead", false))
}

func (r *Repository) MarkRead(ctx context.Context, id string, at time.Time) error {
	return r.store.Update(ctx, models.CollectionNotifications, id, map[string]any{
		"isRead":    true,
		"updatedAt": at,
	})
}

// MarkAllRead flips every unread notification of the user in batched writes.
func (r *Repository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	unread, err := r.store.Find(ctx, models.CollectionNotifications, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("userId", userID), docstore.Eq("isRead", false)},
	})
	if err != nil {
		return 0, err
	}

	writes := make([]docstore.Write, 0, len(unread))
	for _, snap := range unread {
		writes = append(writes, docstore.UpdateWrite(models.CollectionNotifications, snap.ID(), map[string]any{
			"isRead":    true,
			"updatedAt": at,
		}))
	}
	return r.batch(ctx, writes)
}
