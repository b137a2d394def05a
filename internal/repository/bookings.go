package repository

import (
	"context"

	"rentbook/internal/docstore"
	"rentbook/internal/models"
)

func newestFirst(filters ...docstore.Filter) docstore.Query {
	return docstore.Query{Filters: filters, OrderBy: "createdAt", Desc: true}
}

func (r *Repository) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return getDoc[models.Booking](ctx, r.store, models.CollectionBookings, id)
}

func (r *Repository) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	return findDocs[models.Booking](ctx, r.store, models.CollectionBookings, newestFirst())
}

func (r *Repository) ListBookingsByCustomer(ctx context.Context, uid string) ([]*models.Booking, error) {
	return findDocs[models.Booking](ctx, r.store, models.CollectionBookings, newestFirst(docstore.Eq("uid", uid)))
}

func (r *Repository) ListBookingsBySeller(ctx context.Context, uid string) ([]*models.Booking, error) {
	return findDocs[models.Booking](ctx, r.store, models.CollectionBookings, newestFirst(docstore.Eq("ownerUid", uid)))
}

func (r *Repository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return r.store.Create(ctx, models.CollectionBookings, booking.ID, booking)
}

func (r *Repository) UpdateBookingWithVersion(ctx context.Context, id string, version int64, fields map[string]any) error {
	return r.store.UpdateIfVersion(ctx, models.CollectionBookings, id, version, fields)
}

func (r *Repository) DeleteBooking(ctx context.Context, id string) error {
	return r.store.Delete(ctx, models.CollectionBookings, id)
}

// MarkProductUnavailable rewrites bookings that reference a deleted product
// by its service name and drops their image.
func (r *Repository) MarkProductUnavailable(ctx context.Context, serviceName string) (int, error) {
	bookings, err := findDocs[models.Booking](ctx, r.store, models.CollectionBookings, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("serviceName", serviceName)},
	})
	if err != nil {
		return 0, err
	}

	writes := make([]docstore.Write, 0, len(bookings))
	for _, b := range bookings {
		writes = append(writes, docstore.UpdateWrite(models.CollectionBookings, b.ID, map[string]any{
			"serviceName":         models.ProductNotAvailable,
			"productImage":        nil,
			docstore.VersionField: b.Version + 1,
		}))
	}
	return r.batch(ctx, writes)
}
