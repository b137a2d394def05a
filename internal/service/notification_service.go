package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentbook/internal/docstore"
	"rentbook/internal/domain"
	"rentbook/internal/logging"
	"rentbook/internal/metrics"
	"rentbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NotificationService stores in-app notifications and emits the booking
// lifecycle ones. It implements domain.Notifier.
type NotificationService struct {
	repo   domain.NotificationRepository
	limit  int
	logger *zerolog.Logger
	now    func() time.Time
}

func NewNotificationService(repo domain.NotificationRepository, limit int, logger *zerolog.Logger) *NotificationService {
	if limit <= 0 {
		limit = models.NotificationListLimit
	}
	return &NotificationService{repo: repo, limit: limit, logger: logging.Component(logger, "notification_service"), now: time.Now}
}

func (s *NotificationService) log(ctx context.Context) *zerolog.Logger {
	return logging.FromContext(ctx, s.logger, "notification_service")
}

type CreateNotificationInput struct {
	UserID           string
	Title            string
	Message          string
	Type             models.NotificationType
	RelatedBookingID string
	RelatedProductID string
	Data             *models.NotificationPayload
}

// Create persists an unread notification. Empty optional fields are omitted.
func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (*models.Notification, error) {
	switch {
	case strings.TrimSpace(in.UserID) == "":
		return nil, validationError("userId is required")
	case in.Title == "" || in.Message == "":
		return nil, validationError("title and message are required")
	case in.Type == "":
		return nil, validationError("type is required")
	}
	if err := in.Data.ValidateFor(in.Type); err != nil {
		return nil, validationError("%s", err.Error())
	}

	now := s.now().UTC()
	n := &models.Notification{
		ID:               uuid.NewString(),
		UserID:           in.UserID,
		Title:            in.Title,
		Message:          in.Message,
		Type:             in.Type,
		IsRead:           false,
		RelatedBookingID: in.RelatedBookingID,
		RelatedProductID: in.RelatedProductID,
		Data:             in.Data,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return nil, internalError(s.log(ctx), "create notification", err)
	}
	return n, nil
}

// List returns the newest notifications of the user.
func (s *NotificationService) List(ctx context.Context, uid string) ([]*models.Notification, error) {
	list, err := s.repo.ListNotifications(ctx, uid, s.limit)
	if err != nil {
		return nil, internalError(s.log(ctx), "list notifications", err)
	}
	return list, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, uid string) (int, error) {
	n, err := s.repo.CountUnread(ctx, uid)
	if err != nil {
		return 0, internalError(s.log(ctx), "count unread", err)
	}
	return n, nil
}

// MarkRead marks one of the caller's notifications as read. Marking an
// already-read notification is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, id, principal string) (*models.Notification, error) {
	n, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		return nil, storeError(s.log(ctx), "get notification", err, "notification not found")
	}
	if n.UserID != principal {
		return nil, forbidden("you can only update your own notifications")
	}
	if n.IsRead {
		return n, nil
	}

	now := s.now().UTC()
	if err := s.repo.MarkRead(ctx, id, now); err != nil {
		return nil, storeError(s.log(ctx), "mark read", err, "notification not found")
	}
	n.IsRead = true
	n.UpdatedAt = now
	return n, nil
}

// MarkAllRead marks every unread notification of the caller. Up to 400 are
// written atomically; larger inboxes are committed in several batches.
func (s *NotificationService) MarkAllRead(ctx context.Context, principal string) (int, error) {
	n, err := s.repo.MarkAllRead(ctx, principal, s.now().UTC())
	if err != nil {
		if n > 0 {
			s.log(ctx).Warn().Str("user_id", principal).Int("applied", n).Msg("mark all read partially applied")
		}
		return 0, internalError(s.log(ctx), "mark all read", err)
	}
	return n, nil
}

func (s *NotificationService) NotifyNewBooking(ctx context.Context, b *models.Booking) error {
	return s.emit(ctx, CreateNotificationInput{
		UserID:           b.OwnerUID,
		Title:            "New Booking Request",
		Message:          fmt.Sprintf("%s has requested to book %s", b.CustomerName, b.ServiceName),
		Type:             models.NotificationNewBooking,
		RelatedBookingID: b.ID,
		RelatedProductID: b.ProductID,
		Data: models.NewBookingPayload(models.NewBookingData{
			CustomerName: b.CustomerName,
			ServiceName:  b.ServiceName,
			Date:         b.Date,
			Time:         b.Time,
		}),
	})
}

func (s *NotificationService) NotifyBookingAccepted(ctx context.Context, b *models.Booking) error {
	return s.emit(ctx, CreateNotificationInput{
		UserID:           b.UID,
		Title:            "Booking Accepted",
		Message:          fmt.Sprintf("Your booking for %s has been accepted", b.ServiceName),
		Type:             models.NotificationBookingAccepted,
		RelatedBookingID: b.ID,
		RelatedProductID: b.ProductID,
		Data:             models.BookingAcceptedPayload(models.BookingAcceptedData{ServiceName: b.ServiceName}),
	})
}

func (s *NotificationService) NotifyBookingRejected(ctx context.Context, b *models.Booking, reason string) error {
	message := fmt.Sprintf("Your booking for %s has been rejected", b.ServiceName)
	if reason != "" {
		message += ". Reason: " + reason
	}
	return s.emit(ctx, CreateNotificationInput{
		UserID:           b.UID,
		Title:            "Booking Rejected",
		Message:          message,
		Type:             models.NotificationBookingRejected,
		RelatedBookingID: b.ID,
		RelatedProductID: b.ProductID,
		Data: models.BookingRejectedPayload(models.BookingRejectedData{
			ServiceName: b.ServiceName,
			Reason:      reason,
		}),
	})
}

func (s *NotificationService) NotifyBookingCancelled(ctx context.Context, b *models.Booking, cancelledBy string) error {
	return s.emit(ctx, CreateNotificationInput{
		UserID:           b.OwnerUID,
		Title:            "Booking Cancelled",
		Message:          fmt.Sprintf("The booking for %s has been cancelled", b.ServiceName),
		Type:             models.NotificationBookingCancelled,
		RelatedBookingID: b.ID,
		RelatedProductID: b.ProductID,
		Data: models.BookingCancelledPayload(models.BookingCancelledData{
			ServiceName: b.ServiceName,
			CancelledBy: cancelledBy,
		}),
	})
}

func (s *NotificationService) NotifyBookingCompleted(ctx context.Context, b *models.Booking) error {
	return s.emit(ctx, CreateNotificationInput{
		UserID:           b.UID,
		Title:            "Booking Completed",
		Message:          fmt.Sprintf("Your booking for %s has been completed", b.ServiceName),
		Type:             models.NotificationBookingCompleted,
		RelatedBookingID: b.ID,
		RelatedProductID: b.ProductID,
		Data:             models.BookingCompletedPayload(models.BookingCompletedData{ServiceName: b.ServiceName}),
	})
}

func (s *NotificationService) emit(ctx context.Context, in CreateNotificationInput) error {
	_, err := s.Create(ctx, in)
	if err != nil {
		metrics.IncNotification(string(in.Type), "error")
		return err
	}
	metrics.IncNotification(string(in.Type), "ok")
	return nil
}

// IsNotFound reports whether err is a missing-record domain error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, docstore.ErrNotFound)
}
