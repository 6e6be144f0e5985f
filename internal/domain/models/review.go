package models

import "time"

// Review is a user's rating of a tour. One review per (tour, user) pair.
type Review struct {
	ID        int64     `json:"id"`
	Review    string    `json:"review"`
	Rating    float64   `json:"rating"`
	TourID    int64     `json:"tour"`
	UserID    int64     `json:"user"`
	UserName  string    `json:"userName,omitempty"`
	UserPhoto string    `json:"userPhoto,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
