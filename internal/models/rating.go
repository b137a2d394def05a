package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Rating is a standalone product review.
type Rating struct {
	ID        string    `json:"id" firestore:"id"`
	ProductID string    `json:"productId" firestore:"productId"`
	UserID    string    `json:"userId" firestore:"userId"`
	UserName  string    `json:"userName" firestore:"userName"`
	BookingID string    `json:"bookingId,omitempty" firestore:"bookingId,omitempty"`
	Rating    float64   `json:"rating" firestore:"rating"`
	Comment   string    `json:"comment,omitempty" firestore:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// ValidRating reports whether r lies in the accepted 1..5 range.
func ValidRating(r float64) bool {
	return r >= MinRating && r <= MaxRating
}
