package domain

import (
	"context"
	"io"
	"time"

	"rentbook/internal/models"
)

// Repositories return docstore.ErrNotFound for missing documents and
// docstore.ErrVersionMismatch when a versioned update loses a race.

type BookingRepository interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context) ([]*models.Booking, error)
	ListBookingsByCustomer(ctx context.Context, uid string) ([]*models.Booking, error)
	ListBookingsBySeller(ctx context.Context, uid string) ([]*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingWithVersion(ctx context.Context, id string, version int64, fields map[string]any) error
	DeleteBooking(ctx context.Context, id string) error
	MarkProductUnavailable(ctx context.Context, serviceName string) (int, error)
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
}

type RatingRepository interface {
	CreateRating(ctx context.Context, r *models.Rating) error
	GetRating(ctx context.Context, id string) (*models.Rating, error)
	UpdateRating(ctx context.Context, id string, fields map[string]any) error
	DeleteRating(ctx context.Context, id string) error
	ListRatingsByProduct(ctx context.Context, productID string) ([]*models.Rating, error)
	ListRatingsByUser(ctx context.Context, userID string) ([]*models.Rating, error)
	DeleteRatingsByProduct(ctx context.Context, productID string) (int, error)
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, fields map[string]any) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context) ([]*models.Product, error)
	SaveProduct(ctx context.Context, p *models.Product) error
}

type UserRepository interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

// UserDirectory answers the identity questions other services ask.
type UserDirectory interface {
	IsAdmin(ctx context.Context, uid string) (bool, error)
	Username(ctx context.Context, uid string) string
	GetUser(ctx context.Context, uid string) (*models.User, error)
}

// Notifier emits the booking lifecycle notifications. Callers treat every
// error as non-fatal.
type Notifier interface {
	NotifyNewBooking(ctx context.Context, booking *models.Booking) error
	NotifyBookingAccepted(ctx context.Context, booking *models.Booking) error
	NotifyBookingRejected(ctx context.Context, booking *models.Booking, reason string) error
	NotifyBookingCancelled(ctx context.Context, booking *models.Booking, cancelledBy string) error
	NotifyBookingCompleted(ctx context.Context, booking *models.Booking) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// TokenVerifier resolves a bearer token to the caller's uid.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type ImageStore interface {
	Upload(ctx context.Context, filename string, r io.Reader, folder string) (*models.Image, error)
	Delete(ctx context.Context, fileID string) error
}

type RateLimitStore interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
