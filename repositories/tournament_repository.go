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
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentInvalidCreator = errors.New("invalid creator reference")
	ErrTournamentFull           = errors.New("tournament registration is full")
	ErrRegistrationNotOpen      = errors.New("tournament registration is not open")
	ErrRegistrationConflict     = errors.New("user is already registered for this tournament")
)

type ListTournamentsFilter struct {
	CreatorID *int
	Status    *models.TournamentStatus
	Limit     int
	Offset    int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	Delete(ctx context.Context, id int) error

	FindRegistration(ctx context.Context, tournamentID, userID int) (*models.TournamentRegistration, error)
	ListRegistrations(ctx context.Context, tournamentID int) ([]models.TournamentRegistration, error)
	AdmitRegistration(ctx context.Context, reg *models.TournamentRegistration) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	t.id, t.name, t.description, t.start_date, t.end_date, t.max_teams,
	t.prize_pool, t.registration_fee, t.creator_id, t.status, t.created_at,
	(SELECT COUNT(*) FROM tournament_registrations tr WHERE tr.tournament_id = t.id)`

func scanTournament(row interface{ Scan(...interface{}) error }, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Name, &t.Description, &t.StartDate, &t.EndDate, &t.MaxTeams,
		&t.PrizePool, &t.RegistrationFee, &t.CreatorID, &t.Status, &t.CreatedAt,
		&t.RegistrationCount,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, description, start_date, end_date, max_teams, prize_pool, registration_fee, creator_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.Description, t.StartDate, t.EndDate, t.MaxTeams,
		t.PrizePool, t.RegistrationFee, t.CreatorID, t.Status,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments t WHERE t.id = $1`

	t := &models.Tournament{}
	err := scanTournament(r.db.QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments t WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.CreatorID != nil {
		query += fmt.Sprintf(" AND t.creator_id = $%d", argID)
		args = append(args, *filter.CreatorID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND t.status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY t.start_date ASC, t.created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1,
			description = $2,
			start_date = $3,
			end_date = $4,
			max_teams = $5,
			prize_pool = $6,
			registration_fee = $7,
			status = $8
		WHERE id = $9`

	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.Description, t.StartDate, t.EndDate, t.MaxTeams,
		t.PrizePool, t.RegistrationFee, t.Status, t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	// Заявки удаляются каскадом (ON DELETE CASCADE на tournament_registrations).
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) FindRegistration(ctx context.Context, tournamentID, userID int) (*models.TournamentRegistration, error) {
	query := `
		SELECT id, tournament_id, user_id, team_name, captain_name, captain_phone, player_count, payment_reference, registration_date
		FROM tournament_registrations
		WHERE tournament_id = $1 AND user_id = $2`

	reg := &models.TournamentRegistration{}
	err := r.db.QueryRowContext(ctx, query, tournamentID, userID).Scan(
		&reg.ID, &reg.TournamentID, &reg.UserID, &reg.TeamName, &reg.CaptainName,
		&reg.CaptainPhone, &reg.PlayerCount, &reg.PaymentReference, &reg.RegistrationDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return reg, nil
}

func (r *postgresTournamentRepository) ListRegistrations(ctx context.Context, tournamentID int) ([]models.TournamentRegistration, error) {
	query := `
		SELECT id, tournament_id, user_id, team_name, captain_name, captain_phone, player_count, payment_reference, registration_date
		FROM tournament_registrations
		WHERE tournament_id = $1
		ORDER BY registration_date ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]models.TournamentRegistration, 0)
	for rows.Next() {
		var reg models.TournamentRegistration
		if scanErr := rows.Scan(
			&reg.ID, &reg.TournamentID, &reg.UserID, &reg.TeamName, &reg.CaptainName,
			&reg.CaptainPhone, &reg.PlayerCount, &reg.PaymentReference, &reg.RegistrationDate,
		); scanErr != nil {
			return nil, scanErr
		}
		regs = append(regs, reg)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return regs, nil
}

// AdmitRegistration выполняет допуск команды в одной транзакции: строка турнира
// блокируется FOR UPDATE, вместимость проверяется под блокировкой, и если после
// вставки мест не осталось — статус сразу переводится в closed. Две конкурентные
// регистрации сериализуются на блокировке строки и не могут превысить max_teams.
func (r *postgresTournamentRepository) AdmitRegistration(ctx context.Context, reg *models.TournamentRegistration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin admission transaction: %w", err)
	}
	defer tx.Rollback()

	lockQuery := `
		SELECT t.status, t.max_teams,
			(SELECT COUNT(*) FROM tournament_registrations tr WHERE tr.tournament_id = t.id)
		FROM tournaments t
		WHERE t.id = $1
		FOR UPDATE`

	var status models.TournamentStatus
	var maxTeams, count int
	err = tx.QueryRowContext(ctx, lockQuery, reg.TournamentID).Scan(&status, &maxTeams, &count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTournamentNotFound
		}
		return err
	}

	if status != models.StatusUpcoming && status != models.StatusOpen {
		return ErrRegistrationNotOpen
	}
	if count >= maxTeams {
		return ErrTournamentFull
	}

	insertQuery := `
		INSERT INTO tournament_registrations (tournament_id, user_id, team_name, captain_name, captain_phone, player_count, payment_reference, registration_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err = tx.QueryRowContext(ctx, insertQuery,
		reg.TournamentID, reg.UserID, reg.TeamName, reg.CaptainName,
		reg.CaptainPhone, reg.PlayerCount, reg.PaymentReference, reg.RegistrationDate,
	).Scan(&reg.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "tournament_registrations_tournament_id_user_id_key" {
				return ErrRegistrationConflict
			}
		}
		return err
	}

	// Последнее место занято — турнир закрывается в той же транзакции.
	if count+1 >= maxTeams {
		if _, err = tx.ExecContext(ctx,
			`UPDATE tournaments SET status = $1 WHERE id = $2`,
			models.StatusClosed, reg.TournamentID,
		); err != nil {
			return fmt.Errorf("failed to close tournament after final admission: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23503" && pqErr.Constraint == "tournaments_creator_id_fkey" {
			return ErrTournamentInvalidCreator
		}
	}
	return err
}
