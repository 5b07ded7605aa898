package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/afras1234/futsal-booking-system/models"
	"github.com/afras1234/futsal-booking-system/repositories"
)

type BookingService interface {
	Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error)
	GetByID(ctx context.Context, id int) (*models.Booking, error)
	ListForUser(ctx context.Context, userID int) ([]models.Booking, error)
	ListForCourt(ctx context.Context, courtID int) ([]models.Booking, error)
	Delete(ctx context.Context, id int) error
}

type CreateBookingInput struct {
	CourtID  int       `json:"court_id" validate:"required"`
	UserID   int       `json:"user_id" validate:"required"`
	Date     time.Time `json:"date" validate:"required"`
	TimeSlot string    `json:"time_slot" validate:"required"`
}

type bookingService struct {
	bookingRepo repositories.BookingRepository
	userRepo    repositories.UserRepository
	courtRepo   repositories.CourtRepository
}

func NewBookingService(
	bookingRepo repositories.BookingRepository,
	userRepo repositories.UserRepository,
	courtRepo repositories.CourtRepository,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		courtRepo:   courtRepo,
	}
}

// Create проверяет обе связанные сущности и создаёт бронь. Проверка
// двойного бронирования (площадка, дата, слот) намеренно отсутствует.
func (s *bookingService) Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	if input.Date.IsZero() || strings.TrimSpace(input.TimeSlot) == "" {
		return nil, ErrBookingSlotRequired
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to check booking user: %w", err)
	}

	court, err := s.courtRepo.GetByID(ctx, input.CourtID)
	if err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to check booking court: %w", err)
	}

	booking := &models.Booking{
		CourtID:  input.CourtID,
		UserID:   input.UserID,
		Date:     input.Date,
		TimeSlot: strings.TrimSpace(input.TimeSlot),
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		// Конкурентное удаление пользователя или площадки между проверкой
		// и вставкой ловится внешним ключом.
		switch {
		case errors.Is(err, repositories.ErrBookingUserInvalid):
			return nil, ErrUserNotFound
		case errors.Is(err, repositories.ErrBookingCourtInvalid):
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	user.PasswordHash = nil
	booking.User = user
	booking.Court = court
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id int) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) ListForUser(ctx context.Context, userID int) ([]models.Booking, error) {
	return s.bookingRepo.ListByUser(ctx, userID)
}

func (s *bookingService) ListForCourt(ctx context.Context, courtID int) ([]models.Booking, error) {
	return s.bookingRepo.ListByCourt(ctx, courtID)
}

func (s *bookingService) Delete(ctx context.Context, id int) error {
	if err := s.bookingRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrBookingNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	return nil
}
