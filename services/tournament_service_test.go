package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/afras1234/futsal-booking-system/models"
	"github.com/afras1234/futsal-booking-system/payments"
	"github.com/afras1234/futsal-booking-system/repositories"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeTournamentRepo повторяет семантику Postgres-реализации в памяти,
// включая условную вставку заявки с проверкой вместимости.
type fakeTournamentRepo struct {
	tournaments   map[int]*models.Tournament
	registrations []models.TournamentRegistration
	nextID        int
	statusWrites  int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament), nextID: 1}
}

func (f *fakeTournamentRepo) add(t models.Tournament) *models.Tournament {
	t.ID = f.nextID
	f.nextID++
	f.tournaments[t.ID] = &t
	return &t
}

func (f *fakeTournamentRepo) countRegistrations(tournamentID int) int {
	n := 0
	for _, reg := range f.registrations {
		if reg.TournamentID == tournamentID {
			n++
		}
	}
	return n
}

func (f *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	created := f.add(*t)
	*t = *created
	return nil
}

func (f *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	copied.RegistrationCount = f.countRegistrations(id)
	return &copied, nil
}

func (f *fakeTournamentRepo) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	var out []models.Tournament
	for _, t := range f.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		copied := *t
		copied.RegistrationCount = f.countRegistrations(t.ID)
		out = append(out, copied)
	}
	return out, nil
}

func (f *fakeTournamentRepo) Update(_ context.Context, t *models.Tournament) error {
	stored, ok := f.tournaments[t.ID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	*stored = *t
	return nil
}

func (f *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	f.statusWrites++
	return nil
}

func (f *fakeTournamentRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(f.tournaments, id)
	return nil
}

func (f *fakeTournamentRepo) FindRegistration(_ context.Context, tournamentID, userID int) (*models.TournamentRegistration, error) {
	for i := range f.registrations {
		if f.registrations[i].TournamentID == tournamentID && f.registrations[i].UserID == userID {
			reg := f.registrations[i]
			return &reg, nil
		}
	}
	return nil, nil
}

func (f *fakeTournamentRepo) ListRegistrations(_ context.Context, tournamentID int) ([]models.TournamentRegistration, error) {
	var out []models.TournamentRegistration
	for _, reg := range f.registrations {
		if reg.TournamentID == tournamentID {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (f *fakeTournamentRepo) AdmitRegistration(_ context.Context, reg *models.TournamentRegistration) error {
	t, ok := f.tournaments[reg.TournamentID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.Status != models.StatusUpcoming && t.Status != models.StatusOpen {
		return repositories.ErrRegistrationNotOpen
	}
	count := f.countRegistrations(reg.TournamentID)
	if count >= t.MaxTeams {
		return repositories.ErrTournamentFull
	}
	for _, existing := range f.registrations {
		if existing.TournamentID == reg.TournamentID && existing.UserID == reg.UserID {
			return repositories.ErrRegistrationConflict
		}
	}
	reg.ID = len(f.registrations) + 1
	f.registrations = append(f.registrations, *reg)
	if count+1 >= t.MaxTeams {
		t.Status = models.StatusClosed
	}
	return nil
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func newFakeUserRepo(ids ...int) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[int]*models.User)}
	for _, id := range ids {
		f.users[id] = &models.User{ID: id, Name: "user", Email: "user@example.com"}
	}
	return f
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = len(f.users) + 1
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) GetByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	for _, u := range f.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpdatePhotoKey(_ context.Context, userID int, photoKey *string) error {
	u, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.PhotoKey = photoKey
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeGateway struct {
	charged int
	fail    bool
}

func (f *fakeGateway) Charge(_ context.Context, _ int64, _, _ string) (string, error) {
	if f.fail {
		return "", errors.New("card declined")
	}
	f.charged++
	return "chrg_test_001", nil
}

func TestComputeStatus(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name       string
		tournament models.Tournament
		want       models.TournamentStatus
	}{
		{
			name: "before start is upcoming",
			tournament: models.Tournament{
				StartDate: now.Add(day), EndDate: now.Add(3 * day),
				MaxTeams: 8, Status: models.StatusUpcoming,
			},
			want: models.StatusUpcoming,
		},
		{
			name: "explicitly opened stays open before start",
			tournament: models.Tournament{
				StartDate: now.Add(day), EndDate: now.Add(3 * day),
				MaxTeams: 8, Status: models.StatusOpen,
			},
			want: models.StatusOpen,
		},
		{
			name: "full capacity wins over dates",
			tournament: models.Tournament{
				StartDate: now.Add(day), EndDate: now.Add(3 * day),
				MaxTeams: 8, RegistrationCount: 8, Status: models.StatusOpen,
			},
			want: models.StatusClosed,
		},
		{
			name: "between start and end is in_progress",
			tournament: models.Tournament{
				StartDate: now.Add(-day), EndDate: now.Add(day),
				MaxTeams: 8, Status: models.StatusOpen,
			},
			want: models.StatusInProgress,
		},
		{
			name: "start boundary counts as started",
			tournament: models.Tournament{
				StartDate: now, EndDate: now.Add(day),
				MaxTeams: 8, Status: models.StatusUpcoming,
			},
			want: models.StatusInProgress,
		},
		{
			name: "after end is completed",
			tournament: models.Tournament{
				StartDate: now.Add(-3 * day), EndDate: now.Add(-day),
				MaxTeams: 8, Status: models.StatusInProgress,
			},
			want: models.StatusCompleted,
		},
		{
			name: "full and finished is still closed",
			tournament: models.Tournament{
				StartDate: now.Add(-3 * day), EndDate: now.Add(-day),
				MaxTeams: 4, RegistrationCount: 4, Status: models.StatusInProgress,
			},
			want: models.StatusClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStatus(&tt.tournament, now)
			if got != tt.want {
				t.Errorf("ComputeStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func newTestTournamentService(repo *fakeTournamentRepo, users *fakeUserRepo, gateway *fakeGateway) TournamentService {
	// Типизированный nil в интерфейсе не считался бы nil, поэтому ветвление.
	var gw payments.Gateway
	if gateway != nil {
		gw = gateway
	}
	return NewTournamentService(repo, users, gw, testLogger)
}

func upcomingTournament(repo *fakeTournamentRepo, maxTeams int, fee int64) *models.Tournament {
	now := time.Now()
	return repo.add(models.Tournament{
		Name:            "Spring Cup",
		StartDate:       now.Add(48 * time.Hour),
		EndDate:         now.Add(96 * time.Hour),
		MaxTeams:        maxTeams,
		RegistrationFee: fee,
		CreatorID:       1,
		Status:          models.StatusUpcoming,
	})
}

func validTeamInput() RegisterTeamInput {
	return RegisterTeamInput{
		TeamName:     "FC Test",
		CaptainName:  "Alex",
		CaptainPhone: "+10000000000",
		PlayerCount:  5,
	}
}

func TestRegisterTeam(t *testing.T) {
	ctx := context.Background()

	t.Run("successful registration", func(t *testing.T) {
		repo := newFakeTournamentRepo()
		tournament := upcomingTournament(repo, 8, 0)
		svc := newTestTournamentService(repo, newFakeUserRepo(1, 2), nil)

		reg, err := svc.RegisterTeam(ctx, tournament.ID, 2, validTeamInput())
		if err != nil {
			t.Fatalf("RegisterTeam() error = %v", err)
		}
		if reg.ID == 0 || reg.TeamName != "FC Test" {
			t.Errorf("unexpected registration: %+v", reg)
		}
	})

	t.Run("duplicate registration rejected", func(t *testing.T) {
		repo := newFakeTournamentRepo()
		tournament := upcomingTournament(repo, 8, 0)
		svc := newTestTournamentService(repo, newFakeUserRepo(1, 2), nil)

		if _, err := svc.RegisterTeam(ctx, tournament.ID, 2, validTeamInput()); err != nil {
			t.Fatalf("first RegisterTeam() error = %v", err)
		}
		_, err := svc.RegisterTeam(ctx, tournament.ID, 2, validTeamInput())
		if !errors.Is(err, ErrAlreadyRegistered) {
			t.Errorf("RegisterTeam() error = %v, want ErrAlreadyRegistered", err)
		}
	})

	t.Run("closed tournament rejects registration", func(t *testing.T) {
		repo := newFakeTournamentRepo()
		tournament := repo.add(models.Tournament{
			Name:      "Closed Cup",
			StartDate: time.Now().Add(48 * time.Hour),
			EndDate:   time.Now().Add(96 * time.Hour),
			MaxTeams:  8,
			CreatorID: 1,
			Status:    models.StatusClosed,
		})
		svc := newTestTournamentService(repo, newFakeUserRepo(1, 2), nil)

		_, err := svc.RegisterTeam(ctx, tournament.ID, 2, validTeamInput())
		if !errors.Is(err, ErrRegistrationClosed) {
			t.Errorf("RegisterTeam() error = %v, want ErrRegistrationClosed", err)
		}
	})

	t.Run("last slot closes the tournament", func(t *testing.T) {
		repo := newFakeTournamentRepo()
		tournament := upcomingTournament(repo, 2, 0)
		svc := newTestTournamentService(repo, newFakeUserRepo(1, 2, 3, 4), nil)

		if _, err := svc.RegisterTeam(ctx, tournament.ID, 2, validTeamInput()); err != nil {
			t.Fatalf("first RegisterTeam() error = %v", err)
		}
		if _, err := svc.RegisterTeam(ctx, tournament.ID, 3, validTeamInput()); err != nil {
			t.Fatalf("second RegisterTeam() error = %v", err)
		}

		stored, _ := repo.GetByID(ctx, tournament.ID)
		if stored.Status != models.StatusClosed {
			t.Errorf("tournament status = %q, want closed after filling capacity", stored.Status)
		}

		_, err := svc.RegisterTeam(ctx, tournament.ID, 4, validTeamInput())
		if !errors.Is(err, ErrRegistrationClosed) {
			t.Errorf("RegisterTeam() on full tournament error = %v, want ErrRegistrationClosed", err)
		}
	})

	t.Run("too few players rejected", func(t *testing.T) {
		repo := newFakeTournamentRepo()
		tournament := upcomingTournament(repo, 8, 0)
		svc := newTestTournamentService(repo, newFakeUserRepo(1, 2), nil)

		input := validTeamInput()
		input.PlayerCount = 4
		_, err := svc.RegisterTeam(ctx, tournament.ID, 2, input)
		if !errors.Is(err, ErrPlayerCountTooSmall) {
			t.Errorf("RegisterTeam() error = %v, want ErrPlayerCountTooSmall", err)
		}
	})

	t.Run("blank team fields rejected", func(t *testing.T) {
		repo := newFakeTournamentRepo()
		tournament := upcomingTournament(repo, 8, 0)
		svc := newTestTournamentService(repo, newFakeUserRepo(1, 2), nil)

		input := validTeamInput()
		input.CaptainPhone = "   "
		_, err := svc.RegisterTeam(ctx, tournament.ID, 2, input)
		if !errors.Is(err, ErrTeamFieldsRequired) {
			t.Errorf("RegisterTeam() error = %v, want ErrTeamFieldsRequired", err)
		}
	})

	t.Run("paid tournament charges before admitting", func(t *testing.T) {
		repo := newFakeTournamentRepo()
		tournament := upcomingTournament(repo, 8, 50000)
		gateway := &fakeGateway{}
		svc := newTestTournamentService(repo, newFakeUserRepo(1, 2), gateway)

		reg, err := svc.RegisterTeam(ctx, tournament.ID, 2, validTeamInput())
		if err != nil {
			t.Fatalf("RegisterTeam() error = %v", err)
		}
		if gateway.charged != 1 {
			t.Errorf("gateway charged %d times, want 1", gateway.charged)
		}
		if reg.PaymentReference != "chrg_test_001" {
			t.Errorf("payment reference = %q, want gateway charge id", reg.PaymentReference)
		}
	})

	t.Run("declined charge blocks registration", func(t *testing.T) {
		repo := newFakeTournamentRepo()
		tournament := upcomingTournament(repo, 8, 50000)
		svc := newTestTournamentService(repo, newFakeUserRepo(1, 2), &fakeGateway{fail: true})

		_, err := svc.RegisterTeam(ctx, tournament.ID, 2, validTeamInput())
		if !errors.Is(err, ErrPaymentGatewayFailure) {
			t.Errorf("RegisterTeam() error = %v, want ErrPaymentGatewayFailure", err)
		}
		if regs, _ := repo.ListRegistrations(ctx, tournament.ID); len(regs) != 0 {
			t.Errorf("registrations stored after failed charge: %d", len(regs))
		}
	})
}

func TestUpdateAllStatuses(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTournamentRepo()
	now := time.Now()

	// Должен стать completed.
	ended := repo.add(models.Tournament{
		Name: "Ended", StartDate: now.Add(-96 * time.Hour), EndDate: now.Add(-48 * time.Hour),
		MaxTeams: 8, CreatorID: 1, Status: models.StatusInProgress,
	})
	// Должен стать in_progress.
	running := repo.add(models.Tournament{
		Name: "Running", StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour),
		MaxTeams: 8, CreatorID: 1, Status: models.StatusOpen,
	})
	// Уже корректный, записи быть не должно.
	repo.add(models.Tournament{
		Name: "Future", StartDate: now.Add(48 * time.Hour), EndDate: now.Add(96 * time.Hour),
		MaxTeams: 8, CreatorID: 1, Status: models.StatusUpcoming,
	})

	svc := newTestTournamentService(repo, newFakeUserRepo(1), nil)

	if err := svc.UpdateAllStatuses(ctx); err != nil {
		t.Fatalf("UpdateAllStatuses() error = %v", err)
	}
	if got := repo.tournaments[ended.ID].Status; got != models.StatusCompleted {
		t.Errorf("ended tournament status = %q, want completed", got)
	}
	if got := repo.tournaments[running.ID].Status; got != models.StatusInProgress {
		t.Errorf("running tournament status = %q, want in_progress", got)
	}
	if repo.statusWrites != 2 {
		t.Errorf("status writes = %d, want 2", repo.statusWrites)
	}

	// Повторный прогон ничего не меняет.
	if err := svc.UpdateAllStatuses(ctx); err != nil {
		t.Fatalf("second UpdateAllStatuses() error = %v", err)
	}
	if repo.statusWrites != 2 {
		t.Errorf("status writes after idempotent rerun = %d, want 2", repo.statusWrites)
	}
}

func TestTournamentOwnership(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTournamentRepo()
	tournament := upcomingTournament(repo, 8, 0)
	svc := newTestTournamentService(repo, newFakeUserRepo(1, 2), nil)

	// Чужой турнир выглядит как несуществующий.
	newName := "Renamed"
	_, err := svc.Update(ctx, 2, tournament.ID, UpdateTournamentInput{Name: &newName})
	if !errors.Is(err, ErrTournamentNotFound) {
		t.Errorf("Update() by non-creator error = %v, want ErrTournamentNotFound", err)
	}

	if err := svc.Delete(ctx, 2, tournament.ID); !errors.Is(err, ErrTournamentNotFound) {
		t.Errorf("Delete() by non-creator error = %v, want ErrTournamentNotFound", err)
	}

	if err := svc.Delete(ctx, 1, tournament.ID); err != nil {
		t.Errorf("Delete() by creator error = %v", err)
	}
}

func TestCreateTournamentValidation(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name  string
		input CreateTournamentInput
		want  error
	}{
		{
			name: "blank name",
			input: CreateTournamentInput{
				Name: "  ", StartDate: now.Add(time.Hour), EndDate: now.Add(2 * time.Hour), MaxTeams: 8,
			},
			want: ErrValidationFailed,
		},
		{
			name: "end before start",
			input: CreateTournamentInput{
				Name: "Cup", StartDate: now.Add(2 * time.Hour), EndDate: now.Add(time.Hour), MaxTeams: 8,
			},
			want: ErrTournamentInvalidDateRange,
		},
		{
			name: "zero capacity",
			input: CreateTournamentInput{
				Name: "Cup", StartDate: now.Add(time.Hour), EndDate: now.Add(2 * time.Hour), MaxTeams: 0,
			},
			want: ErrTournamentInvalidCapacity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestTournamentService(newFakeTournamentRepo(), newFakeUserRepo(1), nil)
			_, err := svc.Create(ctx, 1, tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
}
