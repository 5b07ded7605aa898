package models

import "time"

type Booking struct {
	ID        int       `json:"id"`
	CourtID   int       `json:"court_id"`
	UserID    int       `json:"user_id"`
	Date      time.Time `json:"date"`
	TimeSlot  string    `json:"time_slot"`
	CreatedAt time.Time `json:"created_at"`

	Court *FutsalCourt `json:"court,omitempty"`
	User  *User        `json:"user,omitempty"`
}
