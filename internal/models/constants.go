package models

const (
	// ProductNotAvailable replaces the service name of bookings whose product was deleted.
	ProductNotAvailable = "Product not Available"

	// UnknownOwnerUsername is shown when the seller record cannot be resolved.
	UnknownOwnerUsername = "Unknown"

	// DefaultPageSize is the catalog page size when none is requested.
	DefaultPageSize = 8

	// MaxPageSize caps the catalog page size.
	MaxPageSize = 100

	// NotificationListLimit is the number of newest notifications returned per user.
	NotificationListLimit = 50
)

// Document collections.
const (
	CollectionBookings      = "bookings"
	CollectionNotifications = "notifications"
	CollectionRatings       = "ratings"
	CollectionProducts      = "products"
	CollectionUsers         = "users"
)
