package coach

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gymplanner/internal/config"
	"gymplanner/internal/database"
	"gymplanner/internal/domain"
	"gymplanner/internal/pkg/lock"
	"gymplanner/internal/repository"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	return newLockedService(t, lock.NewKeyedMutex())
}

func newLockedService(t *testing.T, locker lock.Locker) (*Service, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{DSN: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, zap.NewNop()))
	return NewService(NewRepository(db), repository.NewUserRepository(db), locker, zap.NewNop()), db
}

func TestValidateSpecialties(t *testing.T) {
	tests := []struct {
		name string
		in   []domain.Specialty
		want error
	}{
		{"one", []domain.Specialty{domain.SpecialtyYoga}, nil},
		{"two", []domain.Specialty{domain.SpecialtyYoga, domain.SpecialtyPilates}, nil},
		{"none", nil, ErrNoSpecialty},
		{"three", []domain.Specialty{domain.SpecialtyYoga, domain.SpecialtyBoxe, domain.SpecialtyZumba}, ErrTooManySpecialties},
		{"duplicate", []domain.Specialty{domain.SpecialtyBoxe, domain.SpecialtyBoxe}, ErrDuplicateSpecialty},
		{"unknown", []domain.Specialty{"Karate"}, ErrUnknownSpecialty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpecialties(tt.in)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestService_CreateAndLoad(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateCoachRequest{
		Name:        " Sami Trabelsi ",
		Specialties: []domain.Specialty{domain.SpecialtyMusculation, domain.SpecialtyBoxe},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sami Trabelsi", created.Name)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Specialty{domain.SpecialtyMusculation, domain.SpecialtyBoxe}, got.SpecialtyNames())

	specialties, err := svc.GetSpecialties(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, specialties, 2)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrCoachNotFound)
}

func TestService_CreateLinkedUser(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db)

	member := &domain.User{ID: uuid.NewString(), Email: "m@gym.tn", PasswordHash: "x", Role: domain.RoleMember}
	coachUser := &domain.User{ID: uuid.NewString(), Email: "c@gym.tn", PasswordHash: "x", Role: domain.RoleCoach}
	require.NoError(t, users.Create(ctx, member))
	require.NoError(t, users.Create(ctx, coachUser))

	_, err := svc.Create(ctx, &CreateCoachRequest{Name: "M", UserID: &member.ID, Specialties: []domain.Specialty{domain.SpecialtyYoga}})
	assert.ErrorIs(t, err, ErrUserNotCoach)

	c, err := svc.Create(ctx, &CreateCoachRequest{Name: "C", UserID: &coachUser.ID, Specialties: []domain.Specialty{domain.SpecialtyYoga}})
	require.NoError(t, err)

	byUser, err := svc.GetByUserID(ctx, coachUser.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, byUser.ID)

	_, err = svc.Create(ctx, &CreateCoachRequest{Name: "C2", UserID: &coachUser.ID, Specialties: []domain.Specialty{domain.SpecialtyZumba}})
	assert.ErrorIs(t, err, ErrUserAlreadyLinked)
}

func TestService_ReplaceAvailability(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, &CreateCoachRequest{Name: "Leila", Specialties: []domain.Specialty{domain.SpecialtyYoga}})
	require.NoError(t, err)

	windows, err := svc.ReplaceAvailability(ctx, c.ID, []WindowRequest{
		{Weekday: 3, Start: "14:00", End: "18:00"},
		{Weekday: 1, Start: "08:00", End: "12:00"},
	})
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, 1, windows[0].Weekday, "ordered by weekday")
	assert.Equal(t, "08:00", windows[0].Start.String())

	windows, err = svc.ReplaceAvailability(ctx, c.ID, []WindowRequest{{Weekday: 5, Start: "09:00", End: "10:00"}})
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, 5, windows[0].Weekday)

	_, err = svc.ReplaceAvailability(ctx, c.ID, []WindowRequest{{Weekday: 7, Start: "09:00", End: "10:00"}})
	assert.ErrorIs(t, err, ErrInvalidWindow)
	_, err = svc.ReplaceAvailability(ctx, c.ID, []WindowRequest{{Weekday: 2, Start: "10:00", End: "09:00"}})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	windows, err = svc.GetAvailability(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, windows, 1, "a rejected replacement leaves the plan untouched")

	windows, err = svc.ReplaceAvailability(ctx, c.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, windows)

	_, err = svc.ReplaceAvailability(ctx, uuid.NewString(), nil)
	assert.ErrorIs(t, err, ErrCoachNotFound)
}

func TestService_ReplaceAvailabilityWaitsForCoachLock(t *testing.T) {
	locker := lock.NewKeyedMutex()
	svc, _ := newLockedService(t, locker)
	ctx := context.Background()

	c, err := svc.Create(ctx, &CreateCoachRequest{Name: "Karim", Specialties: []domain.Specialty{domain.SpecialtyBoxe}})
	require.NoError(t, err)

	// A session being scheduled for this coach holds the key.
	unlock, err := locker.Lock(ctx, lock.CoachKey(c.ID))
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = svc.ReplaceAvailability(short, c.ID, []WindowRequest{{Weekday: 1, Start: "08:00", End: "12:00"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	windows, err := svc.GetAvailability(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, windows)

	unlock()
	windows, err = svc.ReplaceAvailability(ctx, c.ID, []WindowRequest{{Weekday: 1, Start: "08:00", End: "12:00"}})
	require.NoError(t, err)
	assert.Len(t, windows, 1)
}
