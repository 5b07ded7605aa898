package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/afras1234/futsal-booking-system/models"
	"github.com/afras1234/futsal-booking-system/repositories"
	"github.com/afras1234/futsal-booking-system/storage"
)

type UserService interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error)
	UploadPhoto(ctx context.Context, userID int, contentType string, r io.Reader) (*models.User, error)
	Delete(ctx context.Context, id int) error
}

type UpdateProfileInput struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Bio   *string `json:"bio,omitempty"`
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader) UserService {
	return &userService{
		userRepo: userRepo,
		uploader: uploader,
	}
}

func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.populatePhotoURL(user)
	user.PasswordHash = nil
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, ErrValidationFailed
		}
		user.Name = trimmed
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if input.Bio != nil {
		user.Bio = input.Bio
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.populatePhotoURL(user)
	user.PasswordHash = nil
	return user, nil
}

func (s *userService) UploadPhoto(ctx context.Context, userID int, contentType string, r io.Reader) (*models.User, error) {
	if s.uploader == nil {
		return nil, ErrStorageNotConfigured
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	key := fmt.Sprintf("avatars/%d/%d", userID, time.Now().UnixNano())
	result, err := s.uploader.Upload(ctx, key, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	oldKey := user.PhotoKey
	if err := s.userRepo.UpdatePhotoKey(ctx, userID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store avatar key: %w", err)
	}
	if oldKey != nil {
		// Старый файл больше не нужен; ошибка удаления не фатальна.
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	user.PhotoKey = &result.Key
	s.populatePhotoURL(user)
	user.PasswordHash = nil
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id int) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *userService) populatePhotoURL(user *models.User) {
	if user.PhotoKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*user.PhotoKey)
		user.PhotoURL = &url
	}
}
