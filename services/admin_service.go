package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/afras1234/futsal-booking-system/models"
	"github.com/afras1234/futsal-booking-system/repositories"
	"golang.org/x/crypto/bcrypt"
)

type AdminService interface {
	SignUp(ctx context.Context, input AdminSignUpInput) (*models.Admin, error)
	Login(ctx context.Context, input LoginInput) (*models.Admin, error)
	GetByID(ctx context.Context, id int) (*models.Admin, error)
}

type AdminSignUpInput struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	SignupKey string `json:"signup_key" validate:"required"`
}

type adminService struct {
	adminRepo repositories.AdminRepository
	courtRepo repositories.CourtRepository
	signupKey string
}

func NewAdminService(adminRepo repositories.AdminRepository, courtRepo repositories.CourtRepository, signupKey string) AdminService {
	return &adminService{
		adminRepo: adminRepo,
		courtRepo: courtRepo,
		signupKey: signupKey,
	}
}

func (s *adminService) SignUp(ctx context.Context, input AdminSignUpInput) (*models.Admin, error) {
	// Регистрация администратора закрыта ключом из окружения.
	if subtle.ConstantTimeCompare([]byte(input.SignupKey), []byte(s.signupKey)) != 1 {
		return nil, ErrAdminSignupKeyWrong
	}
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

	admin := &models.Admin{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hashedPassword),
		Phone:        strings.TrimSpace(input.Phone),
	}

	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrAdminEmailConflict) {
			return nil, ErrAdminEmailConflict
		}
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return admin, nil
}

func (s *adminService) Login(ctx context.Context, input LoginInput) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return nil, ErrEmailNotRegistered
		}
		return nil, fmt.Errorf("failed to find admin by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrPasswordMismatch
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	admin.PasswordHash = ""
	return admin, nil
}

// GetByID возвращает администратора вместе с его площадками.
func (s *adminService) GetByID(ctx context.Context, id int) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}

	courts, err := s.courtRepo.List(ctx, repositories.ListCourtsFilter{AdminID: &id})
	if err != nil {
		return nil, fmt.Errorf("failed to list admin courts: %w", err)
	}
	admin.Courts = courts
	admin.PasswordHash = ""
	return admin, nil
}
