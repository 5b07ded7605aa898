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

type CourtService interface {
	Create(ctx context.Context, adminID int, input CreateCourtInput) (*models.FutsalCourt, error)
	GetByID(ctx context.Context, id int) (*models.FutsalCourt, error)
	List(ctx context.Context, featured *bool) ([]models.FutsalCourt, error)
	Update(ctx context.Context, adminID, courtID int, input UpdateCourtInput) (*models.FutsalCourt, error)
	UploadPhoto(ctx context.Context, adminID, courtID int, contentType string, r io.Reader) (*models.FutsalCourt, error)
	Delete(ctx context.Context, adminID, courtID int) error
}

type CreateCourtInput struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	WebsiteURL  string    `json:"website_url" validate:"required"`
	OpeningDate time.Time `json:"opening_date" validate:"required"`
	Locations   []string  `json:"locations"`
	Featured    bool      `json:"featured"`
}

type UpdateCourtInput struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	WebsiteURL  *string    `json:"website_url,omitempty"`
	OpeningDate *time.Time `json:"opening_date,omitempty"`
	Locations   []string   `json:"locations,omitempty"`
	Featured    *bool      `json:"featured,omitempty"`
}

type courtService struct {
	courtRepo repositories.CourtRepository
	adminRepo repositories.AdminRepository
	uploader  storage.FileUploader
}

func NewCourtService(courtRepo repositories.CourtRepository, adminRepo repositories.AdminRepository, uploader storage.FileUploader) CourtService {
	return &courtService{
		courtRepo: courtRepo,
		adminRepo: adminRepo,
		uploader:  uploader,
	}
}

func (s *courtService) Create(ctx context.Context, adminID int, input CreateCourtInput) (*models.FutsalCourt, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	websiteURL := strings.TrimSpace(input.WebsiteURL)
	if title == "" || description == "" || websiteURL == "" {
		return nil, ErrCourtFieldsRequired
	}

	if _, err := s.adminRepo.GetByID(ctx, adminID); err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}

	court := &models.FutsalCourt{
		Title:       title,
		Description: description,
		Locations:   input.Locations,
		OpeningDate: input.OpeningDate,
		WebsiteURL:  normalizeWebsiteURL(websiteURL),
		Featured:    input.Featured,
		AdminID:     adminID,
	}

	if err := s.courtRepo.Create(ctx, court); err != nil {
		if errors.Is(err, repositories.ErrCourtAdminInvalid) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to create court: %w", err)
	}

	s.populatePhotoURL(court)
	return court, nil
}

func (s *courtService) GetByID(ctx context.Context, id int) (*models.FutsalCourt, error) {
	court, err := s.courtRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	s.populatePhotoURL(court)
	return court, nil
}

func (s *courtService) List(ctx context.Context, featured *bool) ([]models.FutsalCourt, error) {
	courts, err := s.courtRepo.List(ctx, repositories.ListCourtsFilter{Featured: featured})
	if err != nil {
		return nil, err
	}
	for i := range courts {
		s.populatePhotoURL(&courts[i])
	}
	return courts, nil
}

func (s *courtService) Update(ctx context.Context, adminID, courtID int, input UpdateCourtInput) (*models.FutsalCourt, error) {
	court, err := s.loadOwnedCourt(ctx, adminID, courtID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrCourtFieldsRequired
		}
		court.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, ErrCourtFieldsRequired
		}
		court.Description = strings.TrimSpace(*input.Description)
	}
	if input.WebsiteURL != nil {
		if strings.TrimSpace(*input.WebsiteURL) == "" {
			return nil, ErrCourtFieldsRequired
		}
		court.WebsiteURL = normalizeWebsiteURL(*input.WebsiteURL)
	}
	if input.OpeningDate != nil {
		court.OpeningDate = *input.OpeningDate
	}
	if input.Locations != nil {
		court.Locations = input.Locations
	}
	if input.Featured != nil {
		court.Featured = *input.Featured
	}

	if err := s.courtRepo.Update(ctx, court); err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to update court: %w", err)
	}

	s.populatePhotoURL(court)
	return court, nil
}

func (s *courtService) UploadPhoto(ctx context.Context, adminID, courtID int, contentType string, r io.Reader) (*models.FutsalCourt, error) {
	if s.uploader == nil {
		return nil, ErrStorageNotConfigured
	}
	court, err := s.loadOwnedCourt(ctx, adminID, courtID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("courts/%d/%d", courtID, time.Now().UnixNano())
	result, err := s.uploader.Upload(ctx, key, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("failed to upload court photo: %w", err)
	}

	oldKey := court.PhotoKey
	if err := s.courtRepo.UpdatePhotoKey(ctx, courtID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store court photo key: %w", err)
	}
	if oldKey != nil {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	court.PhotoKey = &result.Key
	s.populatePhotoURL(court)
	return court, nil
}

func (s *courtService) Delete(ctx context.Context, adminID, courtID int) error {
	if _, err := s.loadOwnedCourt(ctx, adminID, courtID); err != nil {
		return err
	}
	if err := s.courtRepo.Delete(ctx, courtID); err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return ErrCourtNotFound
		}
		return err
	}
	return nil
}

// loadOwnedCourt отдаёт NotFound и для чужой площадки, чтобы не раскрывать её существование.
func (s *courtService) loadOwnedCourt(ctx context.Context, adminID, courtID int) (*models.FutsalCourt, error) {
	court, err := s.courtRepo.GetByID(ctx, courtID)
	if err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	if court.AdminID != adminID {
		return nil, ErrCourtNotFound
	}
	return court, nil
}

func (s *courtService) populatePhotoURL(court *models.FutsalCourt) {
	if court.PhotoKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*court.PhotoKey)
		court.PhotoURL = &url
	}
}
