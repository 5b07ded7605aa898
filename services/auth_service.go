package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/afras1234/futsal-booking-system/models"
	"github.com/afras1234/futsal-booking-system/repositories"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type AuthService interface {
	SignUp(ctx context.Context, input SignUpInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	GoogleLogin(ctx context.Context, input GoogleLoginInput) (*models.User, error)
}

type SignUpInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type GoogleLoginInput struct {
	GoogleID string `json:"google_id" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
}

type authService struct {
	userRepo repositories.UserRepository
}

func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) SignUp(ctx context.Context, input SignUpInput) (*models.User, error) {
	if !isValidEmail(input.Email) {
		return nil, ErrEmailInvalid
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hash := string(hashedPassword)

	user := &models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: &hash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrEmailNotRegistered
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	// Аккаунты, созданные через Google, не имеют пароля.
	if user.PasswordHash == nil {
		return nil, ErrPasswordMismatch
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrPasswordMismatch
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	user.PasswordHash = nil
	return user, nil
}

// GoogleLogin создаёт аккаунт при первом входе через Google либо
// привязывает google_id к уже существующему аккаунту с тем же email.
func (s *authService) GoogleLogin(ctx context.Context, input GoogleLoginInput) (*models.User, error) {
	if !isValidEmail(input.Email) {
		return nil, ErrEmailInvalid
	}

	user, err := s.userRepo.GetByGoogleID(ctx, input.GoogleID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to find user by google id: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	user, err = s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		user.GoogleID = &input.GoogleID
		if updateErr := s.userRepo.Update(ctx, user); updateErr != nil {
			return nil, fmt.Errorf("failed to link google account: %w", updateErr)
		}
		return user, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	user = &models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		GoogleID: &input.GoogleID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("failed to create google user: %w", err)
	}
	return user, nil
}
