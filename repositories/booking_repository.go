package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/afras1234/futsal-booking-system/models"
	"github.com/lib/pq"
)

var (
	ErrBookingNotFound     = errors.New("booking not found")
	ErrBookingUserInvalid  = errors.New("booking user conflict or invalid")
	ErrBookingCourtInvalid = errors.New("booking court conflict or invalid")
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id int) (*models.Booking, error)
	ListByUser(ctx context.Context, userID int) ([]models.Booking, error)
	ListByCourt(ctx context.Context, courtID int) ([]models.Booking, error)
	Delete(ctx context.Context, id int) error
}

type postgresBookingRepository struct {
	db *sql.DB
}

func NewPostgresBookingRepository(db *sql.DB) BookingRepository {
	return &postgresBookingRepository{db: db}
}

func (r *postgresBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (court_id, user_id, date, time_slot)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		b.CourtID,
		b.UserID,
		b.Date,
		b.TimeSlot,
	).Scan(&b.ID, &b.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			switch pqErr.Constraint {
			case "bookings_user_id_fkey":
				return ErrBookingUserInvalid
			case "bookings_court_id_fkey":
				return ErrBookingCourtInvalid
			}
		}
		return err
	}
	return nil
}

// GetByID возвращает бронь вместе с пользователем и площадкой.
func (r *postgresBookingRepository) GetByID(ctx context.Context, id int) (*models.Booking, error) {
	query := `
		SELECT
			b.id, b.court_id, b.user_id, b.date, b.time_slot, b.created_at,
			u.id, u.name, u.email,
			c.id, c.title, c.description, c.locations, c.website_url, c.featured, c.admin_id
		FROM bookings b
		JOIN users u ON b.user_id = u.id
		JOIN futsal_courts c ON b.court_id = c.id
		WHERE b.id = $1`

	var b models.Booking
	var user models.User
	var court models.FutsalCourt

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.CourtID, &b.UserID, &b.Date, &b.TimeSlot, &b.CreatedAt,
		&user.ID, &user.Name, &user.Email,
		&court.ID, &court.Title, &court.Description, pq.Array(&court.Locations),
		&court.WebsiteURL, &court.Featured, &court.AdminID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	b.User = &user
	b.Court = &court
	return &b, nil
}

// ListByUser возвращает брони пользователя с заполненной площадкой.
func (r *postgresBookingRepository) ListByUser(ctx context.Context, userID int) ([]models.Booking, error) {
	query := `
		SELECT
			b.id, b.court_id, b.user_id, b.date, b.time_slot, b.created_at,
			c.id, c.title, c.description, c.locations, c.website_url, c.featured, c.admin_id
		FROM bookings b
		JOIN futsal_courts c ON b.court_id = c.id
		WHERE b.user_id = $1
		ORDER BY b.date ASC, b.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		var b models.Booking
		var court models.FutsalCourt
		if scanErr := rows.Scan(
			&b.ID, &b.CourtID, &b.UserID, &b.Date, &b.TimeSlot, &b.CreatedAt,
			&court.ID, &court.Title, &court.Description, pq.Array(&court.Locations),
			&court.WebsiteURL, &court.Featured, &court.AdminID,
		); scanErr != nil {
			return nil, scanErr
		}
		b.Court = &court
		bookings = append(bookings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListByCourt возвращает брони площадки с заполненным пользователем.
func (r *postgresBookingRepository) ListByCourt(ctx context.Context, courtID int) ([]models.Booking, error) {
	query := `
		SELECT
			b.id, b.court_id, b.user_id, b.date, b.time_slot, b.created_at,
			u.id, u.name, u.email
		FROM bookings b
		JOIN users u ON b.user_id = u.id
		WHERE b.court_id = $1
		ORDER BY b.date ASC, b.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, courtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		var b models.Booking
		var user models.User
		if scanErr := rows.Scan(
			&b.ID, &b.CourtID, &b.UserID, &b.Date, &b.TimeSlot, &b.CreatedAt,
			&user.ID, &user.Name, &user.Email,
		); scanErr != nil {
			return nil, scanErr
		}
		b.User = &user
		bookings = append(bookings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *postgresBookingRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM bookings WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrBookingNotFound)
}
