package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/afras1234/futsal-booking-system/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserEmailConflict  = errors.New("user email conflict")
	ErrUserGoogleConflict = errors.New("user google id conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePhotoKey(ctx context.Context, userID int, photoKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, google_id, phone, bio)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.GoogleID,
		user.Phone,
		user.Bio,
	).Scan(&user.ID, &user.CreatedAt)

	return handleUserError(err)
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, google_id, phone, bio, photo_key, created_at
		FROM users
		WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, google_id, phone, bio, photo_key, created_at
		FROM users
		WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

func (r *postgresUserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, google_id, phone, bio, photo_key, created_at
		FROM users
		WHERE google_id = $1`
	return r.scanUser(ctx, query, googleID)
}

func (r *postgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			name = $1,
			email = $2,
			password_hash = $3,
			google_id = $4,
			phone = $5,
			bio = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.GoogleID,
		user.Phone,
		user.Bio,
		user.ID,
	)
	if err != nil {
		return handleUserError(err)
	}

	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdatePhotoKey(ctx context.Context, userID int, photoKey *string) error {
	query := `UPDATE users SET photo_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, photoKey, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) Delete(ctx context.Context, id int) error {
	// Брони пользователя удаляются каскадом (ON DELETE CASCADE на bookings.user_id).
	query := `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) scanUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.GoogleID,
		&user.Phone,
		&user.Bio,
		&user.PhotoKey,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func handleUserError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" { // unique_violation
			switch pqErr.Constraint {
			case "users_email_key":
				return ErrUserEmailConflict
			case "users_google_id_key":
				return ErrUserGoogleConflict
			}
		}
	}
	return err
}
