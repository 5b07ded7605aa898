package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/afras1234/futsal-booking-system/models"
	"github.com/afras1234/futsal-booking-system/repositories"
)

type fakeCourtRepo struct {
	courts map[int]*models.FutsalCourt
	nextID int
}

func newFakeCourtRepo() *fakeCourtRepo {
	return &fakeCourtRepo{courts: make(map[int]*models.FutsalCourt), nextID: 1}
}

func (f *fakeCourtRepo) add(c models.FutsalCourt) *models.FutsalCourt {
	c.ID = f.nextID
	f.nextID++
	f.courts[c.ID] = &c
	return &c
}

func (f *fakeCourtRepo) Create(_ context.Context, court *models.FutsalCourt) error {
	created := f.add(*court)
	*court = *created
	return nil
}

func (f *fakeCourtRepo) GetByID(_ context.Context, id int) (*models.FutsalCourt, error) {
	c, ok := f.courts[id]
	if !ok {
		return nil, repositories.ErrCourtNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCourtRepo) List(_ context.Context, filter repositories.ListCourtsFilter) ([]models.FutsalCourt, error) {
	var out []models.FutsalCourt
	for _, c := range f.courts {
		if filter.AdminID != nil && c.AdminID != *filter.AdminID {
			continue
		}
		if filter.Featured != nil && c.Featured != *filter.Featured {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCourtRepo) Update(_ context.Context, court *models.FutsalCourt) error {
	stored, ok := f.courts[court.ID]
	if !ok {
		return repositories.ErrCourtNotFound
	}
	*stored = *court
	return nil
}

func (f *fakeCourtRepo) UpdatePhotoKey(_ context.Context, courtID int, photoKey *string) error {
	c, ok := f.courts[courtID]
	if !ok {
		return repositories.ErrCourtNotFound
	}
	c.PhotoKey = photoKey
	return nil
}

func (f *fakeCourtRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.courts[id]; !ok {
		return repositories.ErrCourtNotFound
	}
	delete(f.courts, id)
	return nil
}

type fakeAdminRepo struct {
	admins map[int]*models.Admin
}

func newFakeAdminRepo(ids ...int) *fakeAdminRepo {
	f := &fakeAdminRepo{admins: make(map[int]*models.Admin)}
	for _, id := range ids {
		f.admins[id] = &models.Admin{ID: id, Name: "admin", Email: "admin@example.com"}
	}
	return f
}

func (f *fakeAdminRepo) Create(_ context.Context, admin *models.Admin) error {
	admin.ID = len(f.admins) + 1
	f.admins[admin.ID] = admin
	return nil
}

func (f *fakeAdminRepo) GetByID(_ context.Context, id int) (*models.Admin, error) {
	a, ok := f.admins[id]
	if !ok {
		return nil, repositories.ErrAdminNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*models.Admin, error) {
	for _, a := range f.admins {
		if a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repositories.ErrAdminNotFound
}

func validCourtInput() CreateCourtInput {
	return CreateCourtInput{
		Title:       "Arena One",
		Description: "Indoor futsal arena",
		WebsiteURL:  "arena-one.example.com",
		OpeningDate: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		Locations:   []string{"Colombo"},
	}
}

func TestNormalizeWebsiteURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare host gets https", "example.com", "https://example.com"},
		{"existing https kept", "https://example.com", "https://example.com"},
		{"existing http kept", "http://example.com", "http://example.com"},
		{"scheme case insensitive", "HTTPS://example.com", "HTTPS://example.com"},
		{"surrounding whitespace trimmed", "  example.com  ", "https://example.com"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeWebsiteURL(tt.in); got != tt.want {
				t.Errorf("normalizeWebsiteURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCreateCourt(t *testing.T) {
	ctx := context.Background()

	t.Run("successful create normalizes url", func(t *testing.T) {
		svc := NewCourtService(newFakeCourtRepo(), newFakeAdminRepo(1), nil)

		court, err := svc.Create(ctx, 1, validCourtInput())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if court.WebsiteURL != "https://arena-one.example.com" {
			t.Errorf("website url = %q, want https prefix added", court.WebsiteURL)
		}
		if court.AdminID != 1 {
			t.Errorf("admin id = %d, want 1", court.AdminID)
		}
	})

	t.Run("blank fields rejected", func(t *testing.T) {
		svc := NewCourtService(newFakeCourtRepo(), newFakeAdminRepo(1), nil)

		input := validCourtInput()
		input.Description = "   "
		_, err := svc.Create(ctx, 1, input)
		if !errors.Is(err, ErrCourtFieldsRequired) {
			t.Errorf("Create() error = %v, want ErrCourtFieldsRequired", err)
		}
	})

	t.Run("unknown admin rejected", func(t *testing.T) {
		svc := NewCourtService(newFakeCourtRepo(), newFakeAdminRepo(1), nil)

		_, err := svc.Create(ctx, 99, validCourtInput())
		if !errors.Is(err, ErrAdminNotFound) {
			t.Errorf("Create() error = %v, want ErrAdminNotFound", err)
		}
	})
}

func TestCourtOwnership(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCourtRepo()
	court := repo.add(models.FutsalCourt{Title: "Arena", Description: "d", WebsiteURL: "https://a", AdminID: 1})
	svc := NewCourtService(repo, newFakeAdminRepo(1, 2), nil)

	// Чужая площадка выглядит как несуществующая.
	title := "Taken Over"
	_, err := svc.Update(ctx, 2, court.ID, UpdateCourtInput{Title: &title})
	if !errors.Is(err, ErrCourtNotFound) {
		t.Errorf("Update() by non-owner error = %v, want ErrCourtNotFound", err)
	}

	if err := svc.Delete(ctx, 2, court.ID); !errors.Is(err, ErrCourtNotFound) {
		t.Errorf("Delete() by non-owner error = %v, want ErrCourtNotFound", err)
	}

	updated, err := svc.Update(ctx, 1, court.ID, UpdateCourtInput{Title: &title})
	if err != nil {
		t.Fatalf("Update() by owner error = %v", err)
	}
	if updated.Title != "Taken Over" {
		t.Errorf("title = %q, want %q", updated.Title, "Taken Over")
	}
}

func TestListCourtsFeaturedFilter(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCourtRepo()
	repo.add(models.FutsalCourt{Title: "Plain", Description: "d", WebsiteURL: "https://a", AdminID: 1})
	repo.add(models.FutsalCourt{Title: "Star", Description: "d", WebsiteURL: "https://b", AdminID: 1, Featured: true})
	svc := NewCourtService(repo, newFakeAdminRepo(1), nil)

	featured := true
	courts, err := svc.List(ctx, &featured)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(courts) != 1 || courts[0].Title != "Star" {
		t.Errorf("List(featured) = %+v, want only the featured court", courts)
	}

	all, err := svc.List(ctx, nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List(nil) returned %d courts, want 2", len(all))
	}
}
