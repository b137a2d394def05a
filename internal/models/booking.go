package models

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusRejected  BookingStatus = "rejected"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// bookingTransitions lists the statuses reachable from each state.
// Rejected, cancelled and completed are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

// Valid reports whether s is one of the known booking statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s BookingStatus) Terminal() bool {
	return s.Valid() && len(bookingTransitions[s]) == 0
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BookingRating is the review a customer embeds into a confirmed booking.
type BookingRating struct {
	Rating    float64   `json:"rating" firestore:"rating"`
	Comment   string    `json:"comment,omitempty" firestore:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

type Booking struct {
	ID               string         `json:"id" firestore:"id"`
	CustomerName     string         `json:"customerName" firestore:"customerName"`
	ServiceName      string         `json:"serviceName" firestore:"serviceName"`
	ProductID        string         `json:"productId,omitempty" firestore:"productId,omitempty"`
	Date             string         `json:"date" firestore:"date"`
	Time             string         `json:"time" firestore:"time"`
	Status           BookingStatus  `json:"status" firestore:"status"`
	Price            float64        `json:"price" firestore:"price"`
	Notes            string         `json:"notes,omitempty" firestore:"notes,omitempty"`
	CreatedAt        time.Time      `json:"createdAt" firestore:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt" firestore:"updatedAt"`
	UID              string         `json:"uid" firestore:"uid"`
	OwnerUID         string         `json:"ownerUid" firestore:"ownerUid"`
	SellerLocation   string         `json:"sellerLocation,omitempty" firestore:"sellerLocation,omitempty"`
	ProductImage     *string        `json:"productImage" firestore:"productImage"`
	OwnerUsername    string         `json:"ownerUsername" firestore:"ownerUsername"`
	Rating           *BookingRating `json:"rating,omitempty" firestore:"rating,omitempty"`
	EventDate        string         `json:"eventDate,omitempty" firestore:"eventDate,omitempty"`
	EventTime        string         `json:"eventTime,omitempty" firestore:"eventTime,omitempty"`
	FittingDate      string         `json:"fittingDate,omitempty" firestore:"fittingDate,omitempty"`
	FittingTime      string         `json:"fittingTime,omitempty" firestore:"fittingTime,omitempty"`
	RejectionMessage string         `json:"rejectionMessage,omitempty" firestore:"rejectionMessage,omitempty"`
	Quantity         int            `json:"quantity" firestore:"quantity"`
	IncludeMakeup    bool           `json:"includeMakeup" firestore:"includeMakeup"`
	SelectedSize     string         `json:"selectedSize,omitempty" firestore:"selectedSize,omitempty"`
	Version          int64          `json:"version" firestore:"version"`
}

// IsParty reports whether uid is the customer or the seller of the booking.
func (b *Booking) IsParty(uid string) bool {
	return uid != "" && (b.UID == uid || b.OwnerUID == uid)
}
