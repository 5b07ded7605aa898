package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusUpcoming   TournamentStatus = "upcoming"
	StatusOpen       TournamentStatus = "open"
	StatusClosed     TournamentStatus = "closed"
	StatusInProgress TournamentStatus = "in_progress"
	StatusCompleted  TournamentStatus = "completed"
)

// Tournament представляет турнир.
type Tournament struct {
	ID              int              `json:"id"`
	Name            string           `json:"name"`
	Description     *string          `json:"description,omitempty"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	MaxTeams        int              `json:"max_teams"`
	PrizePool       int64            `json:"prize_pool"`
	RegistrationFee int64            `json:"registration_fee"`
	CreatorID       int              `json:"creator_id"`
	Status          TournamentStatus `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`

	// Сколько команд уже заявлено. Заполняется подзапросом при чтении.
	RegistrationCount int `json:"registration_count"`

	// Опциональные связанные сущности (не мапятся напрямую).
	Creator       *User                    `json:"creator,omitempty"`
	Registrations []TournamentRegistration `json:"registrations,omitempty"`
}

type TournamentRegistration struct {
	ID               int       `json:"id"`
	TournamentID     int       `json:"tournament_id"`
	UserID           int       `json:"user_id"`
	TeamName         string    `json:"team_name"`
	CaptainName      string    `json:"captain_name"`
	CaptainPhone     string    `json:"captain_phone"`
	PlayerCount      int       `json:"player_count"`
	PaymentReference string    `json:"payment_reference,omitempty"`
	RegistrationDate time.Time `json:"registration_date"`
}
