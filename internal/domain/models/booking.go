package models

import "time"

// Booking records a purchased tour seat.
type Booking struct {
	ID        int64     `json:"id"`
	TourID    int64     `json:"tour"`
	UserID    int64     `json:"user"`
	Price     float64   `json:"price"`
	Paid      bool      `json:"paid"`
	TourName  string    `json:"tourName,omitempty"`
	UserEmail string    `json:"userEmail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
