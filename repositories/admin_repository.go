package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/afras1234/futsal-booking-system/models"
	"github.com/lib/pq"
)

var (
	ErrAdminNotFound      = errors.New("admin not found")
	ErrAdminEmailConflict = errors.New("admin email conflict")
)

type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByID(ctx context.Context, id int) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
}

type postgresAdminRepository struct {
	db *sql.DB
}

func NewPostgresAdminRepository(db *sql.DB) AdminRepository {
	return &postgresAdminRepository{db: db}
}

func (r *postgresAdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	query := `
		INSERT INTO admins (name, email, password_hash, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		admin.Name,
		admin.Email,
		admin.PasswordHash,
		admin.Phone,
	).Scan(&admin.ID, &admin.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" && pqErr.Constraint == "admins_email_key" {
				return ErrAdminEmailConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresAdminRepository) GetByID(ctx context.Context, id int) (*models.Admin, error) {
	query := `
		SELECT id, name, email, password_hash, phone, created_at
		FROM admins
		WHERE id = $1`
	return r.scanAdmin(ctx, query, id)
}

func (r *postgresAdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := `
		SELECT id, name, email, password_hash, phone, created_at
		FROM admins
		WHERE email = $1`
	return r.scanAdmin(ctx, query, email)
}

func (r *postgresAdminRepository) scanAdmin(ctx context.Context, query string, args ...interface{}) (*models.Admin, error) {
	admin := &models.Admin{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&admin.ID,
		&admin.Name,
		&admin.Email,
		&admin.PasswordHash,
		&admin.Phone,
		&admin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return admin, nil
}
