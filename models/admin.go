package models

import "time"

type Admin struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`

	// Courts owned by this admin, populated on demand.
	Courts []FutsalCourt `json:"courts,omitempty"`
}
