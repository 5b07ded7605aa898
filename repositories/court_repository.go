package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/afras1234/futsal-booking-system/models"
	"github.com/lib/pq"
)

var (
	ErrCourtNotFound     = errors.New("futsal court not found")
	ErrCourtAdminInvalid = errors.New("invalid admin reference")
	ErrCourtInUse        = errors.New("futsal court is in use (bookings exist)")
)

type ListCourtsFilter struct {
	AdminID  *int
	Featured *bool
}

type CourtRepository interface {
	Create(ctx context.Context, court *models.FutsalCourt) error
	GetByID(ctx context.Context, id int) (*models.FutsalCourt, error)
	List(ctx context.Context, filter ListCourtsFilter) ([]models.FutsalCourt, error)
	Update(ctx context.Context, court *models.FutsalCourt) error
	UpdatePhotoKey(ctx context.Context, courtID int, photoKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) Create(ctx context.Context, c *models.FutsalCourt) error {
	query := `
		INSERT INTO futsal_courts (title, description, locations, opening_date, website_url, featured, admin_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		c.Title,
		c.Description,
		pq.Array(c.Locations),
		c.OpeningDate,
		c.WebsiteURL,
		c.Featured,
		c.AdminID,
	).Scan(&c.ID, &c.CreatedAt)

	return r.handleCourtError(err)
}

func (r *postgresCourtRepository) GetByID(ctx context.Context, id int) (*models.FutsalCourt, error) {
	query := `
		SELECT id, title, description, locations, opening_date, website_url, featured, photo_key, admin_id, created_at
		FROM futsal_courts
		WHERE id = $1`

	c := &models.FutsalCourt{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Title, &c.Description, pq.Array(&c.Locations), &c.OpeningDate,
		&c.WebsiteURL, &c.Featured, &c.PhotoKey, &c.AdminID, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresCourtRepository) List(ctx context.Context, filter ListCourtsFilter) ([]models.FutsalCourt, error) {
	query := `
		SELECT id, title, description, locations, opening_date, website_url, featured, photo_key, admin_id, created_at
		FROM futsal_courts
		WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.AdminID != nil {
		query += fmt.Sprintf(" AND admin_id = $%d", argID)
		args = append(args, *filter.AdminID)
		argID++
	}
	if filter.Featured != nil {
		query += fmt.Sprintf(" AND featured = $%d", argID)
		args = append(args, *filter.Featured)
		argID++
	}

	query += " ORDER BY featured DESC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courts := make([]models.FutsalCourt, 0)
	for rows.Next() {
		var c models.FutsalCourt
		if scanErr := rows.Scan(
			&c.ID, &c.Title, &c.Description, pq.Array(&c.Locations), &c.OpeningDate,
			&c.WebsiteURL, &c.Featured, &c.PhotoKey, &c.AdminID, &c.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		courts = append(courts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return courts, nil
}

func (r *postgresCourtRepository) Update(ctx context.Context, c *models.FutsalCourt) error {
	// admin_id намеренно не обновляется: владелец площадки неизменяем.
	query := `
		UPDATE futsal_courts SET
			title = $1,
			description = $2,
			locations = $3,
			opening_date = $4,
			website_url = $5,
			featured = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		c.Title, c.Description, pq.Array(c.Locations), c.OpeningDate,
		c.WebsiteURL, c.Featured, c.ID,
	)
	if err != nil {
		return r.handleCourtError(err)
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func (r *postgresCourtRepository) UpdatePhotoKey(ctx context.Context, courtID int, photoKey *string) error {
	query := `UPDATE futsal_courts SET photo_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, photoKey, courtID)
	if err != nil {
		return fmt.Errorf("failed to update court photo key: %w", err)
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func (r *postgresCourtRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM futsal_courts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleCourtError(err)
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func (r *postgresCourtRepository) handleCourtError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "futsal_courts_admin_id_fkey" {
				return ErrCourtAdminInvalid
			}
			// FK со стороны bookings при удалении площадки.
			return ErrCourtInUse
		}
	}
	return err
}
