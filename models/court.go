package models

import "time"

type FutsalCourt struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Locations   []string  `json:"locations"`
	OpeningDate time.Time `json:"opening_date"`
	WebsiteURL  string    `json:"website_url"`
	Featured    bool      `json:"featured"`
	PhotoKey    *string   `json:"-"`
	PhotoURL    *string   `json:"photo_url,omitempty"`
	AdminID     int       `json:"admin_id"`
	CreatedAt   time.Time `json:"created_at"`

	// Optional related entities, populated by the service layer.
	Admin    *Admin    `json:"admin,omitempty"`
	Bookings []Booking `json:"bookings,omitempty"`
}
