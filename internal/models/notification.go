package models

import (
	"errors"
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationNewBooking       NotificationType = "new_booking"
	NotificationBookingAccepted  NotificationType = "booking_accepted"
	NotificationBookingRejected  NotificationType = "booking_rejected"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
	NotificationBookingCompleted NotificationType = "booking_completed"
)

type Notification struct {
	ID               string               `json:"id" firestore:"id"`
	UserID           string               `json:"userId" firestore:"userId"`
	Title            string               `json:"title" firestore:"title"`
	Message          string               `json:"message" firestore:"message"`
	Type             NotificationType     `json:"type" firestore:"type"`
	IsRead           bool                 `json:"isRead" firestore:"isRead"`
	RelatedBookingID string               `json:"relatedBookingId,omitempty" firestore:"relatedBookingId,omitempty"`
	RelatedProductID string               `json:"relatedProductId,omitempty" firestore:"relatedProductId,omitempty"`
	Data             *NotificationPayload `json:"data,omitempty" firestore:"data,omitempty"`
	CreatedAt        time.Time            `json:"createdAt" firestore:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt" firestore:"updatedAt"`
}

type NewBookingData struct {
	CustomerName string `json:"customerName" firestore:"customerName"`
	ServiceName  string `json:"serviceName" firestore:"serviceName"`
	Date         string `json:"date" firestore:"date"`
	Time         string `json:"time" firestore:"time"`
}

type BookingAcceptedData struct {
	ServiceName string `json:"serviceName" firestore:"serviceName"`
}

type BookingRejectedData struct {
	ServiceName string `json:"serviceName" firestore:"serviceName"`
	Reason      string `json:"reason,omitempty" firestore:"reason,omitempty"`
}

type BookingCancelledData struct {
	ServiceName string `json:"serviceName" firestore:"serviceName"`
	CancelledBy string `json:"cancelledBy" firestore:"cancelledBy"`
}

type BookingCompletedData struct {
	ServiceName string `json:"serviceName" firestore:"serviceName"`
}

// NotificationPayload carries exactly one typed variant matching the
// notification type. Build it with the New*Payload constructors.
type NotificationPayload struct {
	NewBooking *NewBookingData       `json:"newBooking,omitempty" firestore:"newBooking,omitempty"`
	Accepted   *BookingAcceptedData  `json:"accepted,omitempty" firestore:"accepted,omitempty"`
	Rejected   *BookingRejectedData  `json:"rejected,omitempty" firestore:"rejected,omitempty"`
	Cancelled  *BookingCancelledData `json:"cancelled,omitempty" firestore:"cancelled,omitempty"`
	Completed  *BookingCompletedData `json:"completed,omitempty" firestore:"completed,omitempty"`
}

var ErrInvalidPayload = errors.New("invalid notification payload")

func NewBookingPayload(d NewBookingData) *NotificationPayload {
	return &NotificationPayload{NewBooking: &d}
}

func BookingAcceptedPayload(d BookingAcceptedData) *NotificationPayload {
	return &NotificationPayload{Accepted: &d}
}

func BookingRejectedPayload(d BookingRejectedData) *NotificationPayload {
	return &NotificationPayload{Rejected: &d}
}

func BookingCancelledPayload(d BookingCancelledData) *NotificationPayload {
	return &NotificationPayload{Cancelled: &d}
}

func BookingCompletedPayload(d BookingCompletedData) *NotificationPayload {
	return &NotificationPayload{Completed: &d}
}

// Kind returns the notification type implied by the populated variant,
// or an empty string when zero or several variants are set.
func (p *NotificationPayload) Kind() NotificationType {
	if p == nil {
		return ""
	}
	var kind NotificationType
	set := 0
	if p.NewBooking != nil {
		kind, set = NotificationNewBooking, set+1
	}
	if p.Accepted != nil {
		kind, set = NotificationBookingAccepted, set+1
	}
	if p.Rejected != nil {
		kind, set = NotificationBookingRejected, set+1
	}
	if p.Cancelled != nil {
		kind, set = NotificationBookingCancelled, set+1
	}
	if p.Completed != nil {
		kind, set = NotificationBookingCompleted, set+1
	}
	if set != 1 {
		return ""
	}
	return kind
}

// ValidateFor checks that the payload is a single variant matching t.
// A nil payload is allowed for any type.
func (p *NotificationPayload) ValidateFor(t NotificationType) error {
	if p == nil {
		return nil
	}
	kind := p.Kind()
	if kind == "" {
		return fmt.Errorf("%w: exactly one variant must be set", ErrInvalidPayload)
	}
	if kind != t {
		return fmt.Errorf("%w: %s payload for %s notification", ErrInvalidPayload, kind, t)
	}
	return nil
}
