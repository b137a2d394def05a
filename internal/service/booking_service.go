package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"rentbook/internal/domain"
	"rentbook/internal/events"
	"rentbook/internal/logging"
	"rentbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.BookingRepository
	users    domain.UserDirectory
	notifier domain.Notifier
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(repo domain.BookingRepository, users domain.UserDirectory, notifier domain.Notifier, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		users:    users,
		notifier: notifier,
		eventBus: eventBus,
		logger:   logging.Component(logger, "booking_service"),
		now:      time.Now,
	}
}

func (s *BookingService) log(ctx context.Context) *zerolog.Logger {
	return logging.FromContext(ctx, s.logger, "booking_service")
}

// CreateBookingInput is everything a customer sends when requesting a booking.
type CreateBookingInput struct {
	CustomerName   string  `json:"customerName"`
	ServiceName    string  `json:"serviceName"`
	ProductID      string  `json:"productId"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	Price          float64 `json:"price"`
	Notes          string  `json:"notes"`
	UID            string  `json:"uid"`
	OwnerUID       string  `json:"ownerUid"`
	SellerLocation string  `json:"sellerLocation"`
	ProductImage   *string `json:"productImage"`
	EventDate      string  `json:"eventDate"`
	EventTime      string  `json:"eventTime"`
	FittingDate    string  `json:"fittingDate"`
	FittingTime    string  `json:"fittingTime"`
	Quantity       int     `json:"quantity"`
	IncludeMakeup  bool    `json:"includeMakeup"`
	SelectedSize   string  `json:"selectedSize"`
}

// List returns every booking for admins, otherwise the bookings where the
// principal is customer or seller.
func (s *BookingService) List(ctx context.Context, principal string) ([]*models.Booking, error) {
	admin, err := s.users.IsAdmin(ctx, principal)
	if err != nil {
		return nil, err
	}
	if admin {
		all, err := s.repo.ListBookings(ctx)
		if err != nil {
			return nil, internalError(s.log(ctx), "list bookings", err)
		}
		return all, nil
	}

	asCustomer, err := s.repo.ListBookingsByCustomer(ctx, principal)
	if err != nil {
		return nil, internalError(s.log(ctx), "list customer bookings", err)
	}
	asSeller, err := s.repo.ListBookingsBySeller(ctx, principal)
	if err != nil {
		return nil, internalError(s.log(ctx), "list seller bookings", err)
	}
	return mergeBookings(asCustomer, asSeller), nil
}

func (s *BookingService) ListByCustomer(ctx context.Context, uid string) ([]*models.Booking, error) {
	list, err := s.repo.ListBookingsByCustomer(ctx, uid)
	if err != nil {
		return nil, internalError(s.log(ctx), "list customer bookings", err)
	}
	return list, nil
}

func (s *BookingService) ListBySeller(ctx context.Context, uid string) ([]*models.Booking, error) {
	list, err := s.repo.ListBookingsBySeller(ctx, uid)
	if err != nil {
		return nil, internalError(s.log(ctx), "list seller bookings", err)
	}
	return list, nil
}

// ListCreatedBetween returns bookings created in [from, to) for admins.
func (s *BookingService) ListCreatedBetween(ctx context.Context, principal string, from, to time.Time) ([]*models.Booking, error) {
	if !to.After(from) {
		return nil, validationError("range end must be after its start")
	}
	admin, err := s.users.IsAdmin(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, forbidden("admin access required")
	}

	all, err := s.repo.ListBookings(ctx)
	if err != nil {
		return nil, internalError(s.log(ctx), "list bookings", err)
	}
	out := make([]*models.Booking, 0, len(all))
	for _, b := range all {
		if !b.CreatedAt.Before(from) && b.CreatedAt.Before(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Get returns a booking visible to the principal with the seller's
// username resolved.
func (s *BookingService) Get(ctx context.Context, id, principal string) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError(s.log(ctx), "get booking", err, "booking not found")
	}
	if !booking.IsParty(principal) {
		return nil, forbidden("you are not allowed to view this booking")
	}
	booking.OwnerUsername = s.users.Username(ctx, booking.OwnerUID)
	return booking, nil
}

func (s *BookingService) Create(ctx context.Context, principal string, in CreateBookingInput) (*models.Booking, error) {
	if strings.TrimSpace(in.OwnerUID) == "" {
		return nil, validationError("ownerUid is required")
	}
	if in.UID != principal {
		return nil, forbidden("cannot create booking for another user")
	}
	if strings.TrimSpace(in.ServiceName) == "" {
		return nil, validationError("serviceName is required")
	}
	if in.Price < 0 {
		return nil, validationError("price must not be negative")
	}
	if in.Quantity < 0 {
		return nil, validationError("quantity must not be negative")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}

	now := s.now().UTC()
	booking := &models.Booking{
		ID:             uuid.NewString(),
		CustomerName:   in.CustomerName,
		ServiceName:    in.ServiceName,
		ProductID:      in.ProductID,
		Date:           in.Date,
		Time:           in.Time,
		Status:         models.StatusPending,
		Price:          in.Price,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
		UID:            in.UID,
		OwnerUID:       in.OwnerUID,
		SellerLocation: in.SellerLocation,
		ProductImage:   in.ProductImage,
		EventDate:      in.EventDate,
		EventTime:      in.EventTime,
		FittingDate:    in.FittingDate,
		FittingTime:    in.FittingTime,
		Quantity:       in.Quantity,
		IncludeMakeup:  in.IncludeMakeup,
		SelectedSize:   in.SelectedSize,
		Version:        1,
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, internalError(s.log(ctx), "create booking", err)
	}

	if err := s.notifier.NotifyNewBooking(ctx, booking); err != nil {
		s.log(ctx).Error().Err(err).Str("booking_id", booking.ID).Msg("new booking notification failed")
	}
	s.publishEvent(ctx, events.EventBookingCreated, booking, principal, "")

	s.log(ctx).Info().
		Str("booking_id", booking.ID).
		Str("uid", booking.UID).
		Str("owner_uid", booking.OwnerUID).
		Msg("booking created")
	return booking, nil
}

// UpdateStatus moves a booking through its lifecycle. Sellers confirm and
// reject, either party cancels. Completion is reserved for Complete.
func (s *BookingService) UpdateStatus(ctx context.Context, id, principal string, status models.BookingStatus, message string) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError(s.log(ctx), "get booking", err, "booking not found")
	}
	if !booking.IsParty(principal) {
		return nil, forbidden("you are not allowed to update this booking")
	}
	if !status.Valid() {
		return nil, validationError("invalid status %q", status)
	}
	if status == models.StatusCompleted {
		return nil, validationError("bookings cannot be completed through a status update")
	}
	if (status == models.StatusConfirmed || status == models.StatusRejected) && principal != booking.OwnerUID {
		return nil, forbidden("only the seller can confirm or reject a booking")
	}
	if !booking.Status.CanTransitionTo(status) {
		return nil, validationError("cannot change status from %s to %s", booking.Status, status)
	}

	fields := map[string]any{
		"status":    status,
		"updatedAt": s.now().UTC(),
	}
	if status == models.StatusRejected && message != "" {
		fields["rejectionMessage"] = message
	}
	if err := s.repo.UpdateBookingWithVersion(ctx, id, booking.Version, fields); err != nil {
		return nil, storeError(s.log(ctx), "update booking status", err, "booking not found")
	}

	previous := booking.Status
	s.notifyStatusChange(ctx, booking, principal, status, message)
	booking.Status = status
	s.publishEvent(ctx, events.EventBookingStatusChanged, booking, principal, previous)

	s.log(ctx).Info().
		Str("booking_id", id).
		Str("from", string(previous)).
		Str("to", string(status)).
		Str("by", principal).
		Msg("booking status changed")
	return s.reload(ctx, id)
}

// Cancel is UpdateStatus with the cancelled status.
func (s *BookingService) Cancel(ctx context.Context, id, principal string) (*models.Booking, error) {
	return s.UpdateStatus(ctx, id, principal, models.StatusCancelled, "")
}

// Complete closes a confirmed booking once the rental is over and tells
// the customer.
func (s *BookingService) Complete(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError(s.log(ctx), "get booking", err, "booking not found")
	}
	if !booking.Status.CanTransitionTo(models.StatusCompleted) {
		return nil, validationError("cannot change status from %s to %s", booking.Status, models.StatusCompleted)
	}

	fields := map[string]any{
		"status":    models.StatusCompleted,
		"updatedAt": s.now().UTC(),
	}
	if err := s.repo.UpdateBookingWithVersion(ctx, id, booking.Version, fields); err != nil {
		return nil, storeError(s.log(ctx), "complete booking", err, "booking not found")
	}

	if err := s.notifier.NotifyBookingCompleted(ctx, booking); err != nil {
		s.log(ctx).Error().Err(err).Str("booking_id", id).Msg("completed notification failed")
	}
	previous := booking.Status
	booking.Status = models.StatusCompleted
	s.publishEvent(ctx, events.EventBookingStatusChanged, booking, "system", previous)
	return s.reload(ctx, id)
}

// Rate stores the customer's review on a confirmed booking. Rating again
// replaces the review and keeps its creation time.
func (s *BookingService) Rate(ctx context.Context, id, principal string, rating float64, comment string) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError(s.log(ctx), "get booking", err, "booking not found")
	}
	if booking.UID != principal {
		return nil, forbidden("only the customer can rate this booking")
	}
	if booking.Status != models.StatusConfirmed {
		return nil, forbidden("can only rate confirmed bookings")
	}
	if !models.ValidRating(rating) {
		return nil, validationError("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}

	now := s.now().UTC()
	review := models.BookingRating{Rating: rating, Comment: comment, CreatedAt: now, UpdatedAt: now}
	if booking.Rating != nil {
		review.CreatedAt = booking.Rating.CreatedAt
	}
	fields := map[string]any{
		"rating":    review,
		"updatedAt": now,
	}
	if err := s.repo.UpdateBookingWithVersion(ctx, id, booking.Version, fields); err != nil {
		return nil, storeError(s.log(ctx), "rate booking", err, "booking not found")
	}

	booking.Rating = &review
	s.publishEvent(ctx, events.EventBookingRated, booking, principal, "")
	return s.reload(ctx, id)
}

func (s *BookingService) Delete(ctx context.Context, id, principal string) error {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return storeError(s.log(ctx), "get booking", err, "booking not found")
	}
	if !booking.IsParty(principal) {
		return forbidden("you are not allowed to delete this booking")
	}
	if err := s.repo.DeleteBooking(ctx, id); err != nil {
		return storeError(s.log(ctx), "delete booking", err, "booking not found")
	}

	s.publishEvent(ctx, events.EventBookingDeleted, booking, principal, "")
	s.log(ctx).Info().Str("booking_id", id).Str("by", principal).Msg("booking deleted")
	return nil
}

// notifyStatusChange tells the other party about a transition. Nobody is
// notified about their own action.
func (s *BookingService) notifyStatusChange(ctx context.Context, booking *models.Booking, principal string, status models.BookingStatus, message string) {
	var err error
	switch {
	case status == models.StatusConfirmed && principal != booking.UID:
		err = s.notifier.NotifyBookingAccepted(ctx, booking)
	case status == models.StatusRejected && principal != booking.UID:
		err = s.notifier.NotifyBookingRejected(ctx, booking, message)
	case status == models.StatusCancelled && principal != booking.OwnerUID:
		err = s.notifier.NotifyBookingCancelled(ctx, booking, principal)
	default:
		return
	}
	if err != nil {
		s.log(ctx).Error().Err(err).
			Str("booking_id", booking.ID).
			Str("status", string(status)).
			Msg("status notification failed")
	}
}

func (s *BookingService) reload(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError(s.log(ctx), "reload booking", err, "booking not found")
	}
	return booking, nil
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, booking *models.Booking, changedBy string, previous models.BookingStatus) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:      booking.ID,
		CustomerUID:    booking.UID,
		SellerUID:      booking.OwnerUID,
		ServiceName:    booking.ServiceName,
		Status:         string(booking.Status),
		PreviousStatus: string(previous),
		ChangedBy:      changedBy,
		OccurredAt:     s.now().UTC(),
	}
	if booking.Rating != nil {
		payload.Rating = booking.Rating.Rating
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.log(ctx).Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

// mergeBookings unions the lists by id, newest first.
func mergeBookings(lists ...[]*models.Booking) []*models.Booking {
	seen := make(map[string]struct{})
	merged := make([]*models.Booking, 0)
	for _, list := range lists {
		for _, b := range list {
			if _, ok := seen[b.ID]; ok {
				continue
			}
			seen[b.ID] = struct{}{}
			merged = append(merged, b)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].ID < merged[j].ID
		}
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged
}
