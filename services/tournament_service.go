package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/afras1234/futsal-booking-system/models"
	"github.com/afras1234/futsal-booking-system/payments"
	"github.com/afras1234/futsal-booking-system/repositories"
	"golang.org/x/sync/errgroup"
)

const statusSweepConcurrency = 4

type TournamentService interface {
	Create(ctx context.Context, creatorID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, requesterID, id int, input UpdateTournamentInput) (*models.Tournament, error)
	Delete(ctx context.Context, requesterID, id int) error
	RegisterTeam(ctx context.Context, tournamentID, userID int, input RegisterTeamInput) (*models.TournamentRegistration, error)
	UpdateAllStatuses(ctx context.Context) error
}

type CreateTournamentInput struct {
	Name            string    `json:"name" validate:"required"`
	Description     *string   `json:"description,omitempty"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required"`
	MaxTeams        int       `json:"max_teams" validate:"required,min=1"`
	PrizePool       int64     `json:"prize_pool"`
	RegistrationFee int64     `json:"registration_fee"`
}

type UpdateTournamentInput struct {
	Name            *string    `json:"name,omitempty"`
	Description     *string    `json:"description,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	MaxTeams        *int       `json:"max_teams,omitempty"`
	PrizePool       *int64     `json:"prize_pool,omitempty"`
	RegistrationFee *int64     `json:"registration_fee,omitempty"`
	Status          *models.TournamentStatus `json:"status,omitempty"`
}

type RegisterTeamInput struct {
	TeamName         string `json:"team_name" validate:"required"`
	CaptainName      string `json:"captain_name" validate:"required"`
	CaptainPhone     string `json:"captain_phone" validate:"required"`
	PlayerCount      int    `json:"player_count" validate:"required"`
	CardToken        string `json:"card_token,omitempty"`
	PaymentReference string `json:"payment_reference,omitempty"`
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	userRepo       repositories.UserRepository
	gateway        payments.Gateway
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	gateway payments.Gateway,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		userRepo:       userRepo,
		gateway:        gateway,
		logger:         logger,
	}
}

// ComputeStatus выводит статус турнира из вместимости и дат.
// Правила, в порядке приоритета:
//  1. мест нет — closed, даже если даты говорят иное;
//  2. до начала — upcoming (явно открытая регистрация сохраняется);
//  3. между началом и концом — in_progress;
//  4. после конца — completed.
func ComputeStatus(t *models.Tournament, now time.Time) models.TournamentStatus {
	if t.RegistrationCount >= t.MaxTeams {
		return models.StatusClosed
	}
	if now.Before(t.StartDate) {
		if t.Status == models.StatusOpen {
			return models.StatusOpen
		}
		return models.StatusUpcoming
	}
	if !now.After(t.EndDate) {
		return models.StatusInProgress
	}
	return models.StatusCompleted
}

func (s *tournamentService) Create(ctx context.Context, creatorID int, input CreateTournamentInput) (*models.Tournament, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrValidationFailed
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() || !input.StartDate.Before(input.EndDate) {
		return nil, ErrTournamentInvalidDateRange
	}
	if input.MaxTeams <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}

	if _, err := s.userRepo.GetByID(ctx, creatorID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	t := &models.Tournament{
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		MaxTeams:        input.MaxTeams,
		PrizePool:       input.PrizePool,
		RegistrationFee: input.RegistrationFee,
		CreatorID:       creatorID,
	}
	t.Status = ComputeStatus(t, time.Now())

	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentInvalidCreator) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return t, nil
}

// GetByID пересчитывает статус при чтении и сохраняет его, если он разошёлся.
func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	if next := ComputeStatus(t, time.Now()); next != t.Status {
		if err := s.tournamentRepo.UpdateStatus(ctx, nil, t.ID, next); err != nil {
			return nil, fmt.Errorf("failed to persist recomputed status: %w", err)
		}
		t.Status = next
	}

	regs, err := s.tournamentRepo.ListRegistrations(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	t.Registrations = regs
	return t, nil
}

// List прогоняет массовый пересчёт статусов перед чтением.
func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	if err := s.UpdateAllStatuses(ctx); err != nil {
		// Чтение полезнее свежести: не валим запрос из-за сбоя пересчёта.
		s.logger.Warn("status sweep before listing failed", slog.Any("error", err))
	}
	return s.tournamentRepo.List(ctx, filter)
}

func (s *tournamentService) Update(ctx context.Context, requesterID, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	t, err := s.loadOwnedTournament(ctx, requesterID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrValidationFailed
		}
		t.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		t.Description = input.Description
	}
	if input.StartDate != nil {
		t.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		t.EndDate = *input.EndDate
	}
	if !t.StartDate.Before(t.EndDate) {
		return nil, ErrTournamentInvalidDateRange
	}
	if input.MaxTeams != nil {
		if *input.MaxTeams <= 0 {
			return nil, ErrTournamentInvalidCapacity
		}
		t.MaxTeams = *input.MaxTeams
	}
	if input.PrizePool != nil {
		t.PrizePool = *input.PrizePool
	}
	if input.RegistrationFee != nil {
		t.RegistrationFee = *input.RegistrationFee
	}
	if input.Status != nil {
		switch *input.Status {
		case models.StatusUpcoming, models.StatusOpen, models.StatusClosed,
			models.StatusInProgress, models.StatusCompleted:
			t.Status = *input.Status
		default:
			return nil, ErrTournamentInvalidStatus
		}
	}

	// Вместимость и даты имеют приоритет над тем, что запросил создатель.
	t.Status = ComputeStatus(t, time.Now())

	if err := s.tournamentRepo.Update(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to update tournament: %w", err)
	}
	return t, nil
}

func (s *tournamentService) Delete(ctx context.Context, requesterID, id int) error {
	if _, err := s.loadOwnedTournament(ctx, requesterID, id); err != nil {
		return err
	}
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	return nil
}

func (s *tournamentService) RegisterTeam(ctx context.Context, tournamentID, userID int, input RegisterTeamInput) (*models.TournamentRegistration, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	status := ComputeStatus(t, time.Now())
	if status != models.StatusUpcoming && status != models.StatusOpen {
		return nil, ErrRegistrationClosed
	}

	existing, err := s.tournamentRepo.FindRegistration(ctx, tournamentID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing registration: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	if strings.TrimSpace(input.TeamName) == "" ||
		strings.TrimSpace(input.CaptainName) == "" ||
		strings.TrimSpace(input.CaptainPhone) == "" {
		return nil, ErrTeamFieldsRequired
	}
	if input.PlayerCount < 5 {
		return nil, ErrPlayerCountTooSmall
	}

	paymentReference := input.PaymentReference
	if t.RegistrationFee > 0 {
		if s.gateway == nil {
			return nil, ErrPaymentGatewayFailure
		}
		description := fmt.Sprintf("registration fee, tournament %d, team %s", t.ID, input.TeamName)
		reference, chargeErr := s.gateway.Charge(ctx, t.RegistrationFee, input.CardToken, description)
		if chargeErr != nil {
			s.logger.Error("registration fee charge failed",
				slog.Int("tournament_id", t.ID),
				slog.Int("user_id", userID),
				slog.Any("error", chargeErr),
			)
			return nil, ErrPaymentGatewayFailure
		}
		paymentReference = reference
	}

	reg := &models.TournamentRegistration{
		TournamentID:     tournamentID,
		UserID:           userID,
		TeamName:         strings.TrimSpace(input.TeamName),
		CaptainName:      strings.TrimSpace(input.CaptainName),
		CaptainPhone:     strings.TrimSpace(input.CaptainPhone),
		PlayerCount:      input.PlayerCount,
		PaymentReference: paymentReference,
		RegistrationDate: time.Now(),
	}

	if err := s.tournamentRepo.AdmitRegistration(ctx, reg); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, ErrTournamentNotFound
		case errors.Is(err, repositories.ErrRegistrationNotOpen),
			errors.Is(err, repositories.ErrTournamentFull):
			return nil, ErrRegistrationClosed
		case errors.Is(err, repositories.ErrRegistrationConflict):
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to admit registration: %w", err)
	}
	return reg, nil
}

// UpdateAllStatuses пересчитывает статусы всех турниров и сохраняет только
// изменившиеся. Повторный прогон без сдвига времени не пишет ничего.
func (s *tournamentService) UpdateAllStatuses(ctx context.Context) error {
	tournaments, err := s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{})
	if err != nil {
		return fmt.Errorf("failed to list tournaments for status sweep: %w", err)
	}

	now := time.Now()
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(statusSweepConcurrency)

	for i := range tournaments {
		t := tournaments[i]
		next := ComputeStatus(&t, now)
		if next == t.Status {
			continue
		}
		g.Go(func() error {
			if err := s.tournamentRepo.UpdateStatus(gCtx, nil, t.ID, next); err != nil {
				return fmt.Errorf("tournament %d: %w", t.ID, err)
			}
			s.logger.Info("tournament status updated",
				slog.Int("tournament_id", t.ID),
				slog.String("from", string(t.Status)),
				slog.String("to", string(next)),
			)
			return nil
		})
	}

	return g.Wait()
}

func (s *tournamentService) loadOwnedTournament(ctx context.Context, requesterID, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	// Чужой турнир выглядит как несуществующий.
	if t.CreatorID != requesterID {
		return nil, ErrTournamentNotFound
	}
	return t, nil
}
