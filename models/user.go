package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash *string   `json:"-"`
	GoogleID     *string   `json:"-"`
	Phone        *string   `json:"phone,omitempty"`
	Bio          *string   `json:"bio,omitempty"`
	PhotoKey     *string   `json:"-"`
	PhotoURL     *string   `json:"photo_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
