package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rentbook/internal/docstore"
	"rentbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestBookingQueries(t *testing.T) {
	repo := New(docstore.NewMemoryStore())
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	bookings := []*models.Booking{
		{ID: "b1", UID: "C", OwnerUID: "S", ServiceName: "Dress A", CreatedAt: base, Version: 1, ProductImage: strPtr("a.png")},
		{ID: "b2", UID: "C", OwnerUID: "T", ServiceName: "Suit B", CreatedAt: base.Add(time.Hour), Version: 1},
		{ID: "b3", UID: "D", OwnerUID: "S", ServiceName: "Dress A", CreatedAt: base.Add(2 * time.Hour), Version: 3, ProductImage: strPtr("a.png")},
	}
	for _, b := range bookings {
		require.NoError(t, repo.CreateBooking(ctx, b))
	}

	t.Run("ListNewestFirst", func(t *testing.T) {
		all, err := repo.ListBookings(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"b3", "b2", "b1"}, bookingIDs(all))
	})

	t.Run("ByCustomerAndSeller", func(t *testing.T) {
		byCustomer, err := repo.ListBookingsByCustomer(ctx, "C")
		require.NoError(t, err)
		assert.Equal(t, []string{"b2", "b1"}, bookingIDs(byCustomer))

		bySeller, err := repo.ListBookingsBySeller(ctx, "S")
		require.NoError(t, err)
		assert.Equal(t, []string{"b3", "b1"}, bookingIDs(bySeller))
	})

	t.Run("VersionedUpdate", func(t *testing.T) {
		err := repo.UpdateBookingWithVersion(ctx, "b2", 1, map[string]any{"status": models.StatusConfirmed})
		require.NoError(t, err)

		err = repo.UpdateBookingWithVersion(ctx, "b2", 1, map[string]any{"status": models.StatusCancelled})
		assert.ErrorIs(t, err, docstore.ErrVersionMismatch)

		got, err := repo.GetBooking(ctx, "b2")
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, got.Status)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("MarkProductUnavailable", func(t *testing.T) {
		n, err := repo.MarkProductUnavailable(ctx, "Dress A")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		for _, id := range []string{"b1", "b3"} {
			got, err := repo.GetBooking(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, models.ProductNotAvailable, got.ServiceName)
			assert.Nil(t, got.ProductImage)
		}
		b3, _ := repo.GetBooking(ctx, "b3")
		assert.Equal(t, int64(4), b3.Version)

		untouched, err := repo.GetBooking(ctx, "b2")
		require.NoError(t, err)
		assert.Equal(t, "Suit B", untouched.ServiceName)
	})

	t.Run("DeleteAndGetMissing", func(t *testing.T) {
		require.NoError(t, repo.DeleteBooking(ctx, "b1"))
		_, err := repo.GetBooking(ctx, "b1")
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})
}

func TestNotificationQueries(t *testing.T) {
	repo := New(docstore.NewMemoryStore())
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreateNotification(ctx, &models.Notification{
			ID:        fmt.Sprintf("n%d", i),
			UserID:    "U",
			Type:      models.NotificationNewBooking,
			IsRead:    i == 0,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.CreateNotification(ctx, &models.Notification{ID: "other", UserID: "V", CreatedAt: base}))

	list, err := repo.ListNotifications(ctx, "U", 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "n4", list[0].ID)
	assert.Equal(t, "n2", list[2].ID)

	unread, err := repo.CountUnread(ctx, "U")
	require.NoError(t, err)
	assert.Equal(t, 4, unread)

	require.NoError(t, repo.MarkRead(ctx, "n1", base))
	unread, _ = repo.CountUnread(ctx, "U")
	assert.Equal(t, 3, unread)

	n, err := repo.MarkAllRead(ctx, "U", base)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	unread, _ = repo.CountUnread(ctx, "U")
	assert.Equal(t, 0, unread)

	otherUnread, _ := repo.CountUnread(ctx, "V")
	assert.Equal(t, 1, otherUnread)

	assert.ErrorIs(t, repo.MarkRead(ctx, "missing", base), docstore.ErrNotFound)
}

func TestRatingQueries(t *testing.T) {
	repo := New(docstore.NewMemoryStore())
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateRating(ctx, &models.Rating{ID: "r1", ProductID: "P", UserID: "U", Rating: 3, CreatedAt: base}))
	require.NoError(t, repo.CreateRating(ctx, &models.Rating{ID: "r2", ProductID: "P", UserID: "V", Rating: 5, CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.CreateRating(ctx, &models.Rating{ID: "r3", ProductID: "Q", UserID: "U", Rating: 4, CreatedAt: base}))

	byProduct, err := repo.ListRatingsByProduct(ctx, "P")
	require.NoError(t, err)
	require.Len(t, byProduct, 2)
	assert.Equal(t, "r2", byProduct[0].ID)

	byUser, err := repo.ListRatingsByUser(ctx, "U")
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	n, err := repo.DeleteRatingsByProduct(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	byProduct, err = repo.ListRatingsByProduct(ctx, "P")
	require.NoError(t, err)
	assert.Empty(t, byProduct)
}

func TestProductAndUserQueries(t *testing.T) {
	repo := New(docstore.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, repo.CreateProduct(ctx, &models.Product{ID: "p1", Name: "Dress", SellerName: "transient"}))
	require.NoError(t, repo.UpdateProduct(ctx, "p1", map[string]any{"price": 25.5}))
	p, err := repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 25.5, p.Price)

	require.NoError(t, repo.SaveProduct(ctx, &models.Product{ID: "p1", Name: "Dress v2"}))
	list, err := repo.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Dress v2", list[0].Name)

	require.NoError(t, repo.SaveUser(ctx, &models.User{UID: "U", Username: "alice", Role: models.RoleAdmin}))
	u, err := repo.GetUser(ctx, "U")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	_, err = repo.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func bookingIDs(bs []*models.Booking) []string {
	ids := make([]string, 0, len(bs))
	for _, b := range bs {
		ids = append(ids, b.ID)
	}
	return ids
}

// failingBatchStore fails every Batch call after the first okBatches.
type failingBatchStore struct {
	docstore.Store
	okBatches int
	calls     int
}

func (s *failingBatchStore) Batch(ctx context.Context, writes []docstore.Write) error {
	s.calls++
	if s.calls > s.okBatches {
		return errors.New("deadline exceeded")
	}
	return s.Store.Batch(ctx, writes)
}

func TestMarkAllReadLargeInbox(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	total := maxBatchWrites + 50

	seed := func(t *testing.T, store docstore.Store) {
		t.Helper()
		repo := New(store)
		for i := 0; i < total; i++ {
			require.NoError(t, repo.CreateNotification(ctx, &models.Notification{
				ID: fmt.Sprintf("n%04d", i), UserID: "U", CreatedAt: base,
			}))
		}
	}

	t.Run("AllChunksCommitted", func(t *testing.T) {
		store := docstore.NewMemoryStore()
		seed(t, store)
		repo := New(store)

		n, err := repo.MarkAllRead(ctx, "U", base)
		require.NoError(t, err)
		assert.Equal(t, total, n)
		unread, err := repo.CountUnread(ctx, "U")
		require.NoError(t, err)
		assert.Zero(t, unread)
	})

	t.Run("SecondChunkFails", func(t *testing.T) {
		mem := docstore.NewMemoryStore()
		seed(t, mem)
		repo := New(&failingBatchStore{Store: mem, okBatches: 1})

		n, err := repo.MarkAllRead(ctx, "U", base)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPartialBatch)
		assert.Equal(t, maxBatchWrites, n)

		unread, err := repo.CountUnread(ctx, "U")
		require.NoError(t, err)
		assert.Equal(t, total-maxBatchWrites, unread)
	})

	t.Run("FirstChunkFails", func(t *testing.T) {
		mem := docstore.NewMemoryStore()
		seed(t, mem)
		repo := New(&failingBatchStore{Store: mem})

		n, err := repo.MarkAllRead(ctx, "U", base)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrPartialBatch)
		assert.Zero(t, n)
	})
}
