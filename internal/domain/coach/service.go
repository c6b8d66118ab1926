package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gymplanner/internal/domain"
	"gymplanner/internal/domain/scheduling"
	"gymplanner/internal/pkg/lock"
	"gymplanner/internal/pkg/timeslot"
	"gymplanner/internal/repository"
)

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Service is the coach directory. Availability changes take the same coach
// lock as session scheduling.
type Service struct {
	repo   *Repository
	users  UserLookup
	locker lock.Locker
	logger *zap.Logger
}

func NewService(repo *Repository, users UserLookup, locker lock.Locker, logger *zap.Logger) *Service {
	return &Service{repo: repo, users: users, locker: locker, logger: logger}
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Coach, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByUserID(ctx context.Context, userID string) (*domain.Coach, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) List(ctx context.Context) ([]domain.Coach, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetSpecialties(ctx context.Context, coachID string) ([]domain.Specialty, error) {
	return s.repo.GetSpecialties(ctx, coachID)
}

func (s *Service) GetAvailability(ctx context.Context, coachID string) ([]domain.AvailabilityWindow, error) {
	if _, err := s.repo.GetByID(ctx, coachID); err != nil {
		return nil, err
	}
	return s.repo.GetAvailability(ctx, coachID)
}

// ValidateSpecialties enforces one or two distinct names from the vocabulary.
func ValidateSpecialties(specialties []domain.Specialty) error {
	if len(specialties) == 0 {
		return ErrNoSpecialty
	}
	if len(specialties) > domain.MaxCoachSpecialties {
		return ErrTooManySpecialties
	}
	seen := make(map[domain.Specialty]bool, len(specialties))
	for _, sp := range specialties {
		if !sp.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownSpecialty, sp)
		}
		if seen[sp] {
			return ErrDuplicateSpecialty
		}
		seen[sp] = true
	}
	return nil
}

func (s *Service) Create(ctx context.Context, req *CreateCoachRequest) (*domain.Coach, error) {
	if err := ValidateSpecialties(req.Specialties); err != nil {
		return nil, err
	}

	if req.UserID != nil {
		u, err := s.users.GetByID(ctx, *req.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, ErrUserNotCoach
			}
			return nil, err
		}
		if u.Role != domain.RoleCoach {
			return nil, ErrUserNotCoach
		}
	}

	c := &domain.Coach{
		ID:     uuid.NewString(),
		UserID: req.UserID,
		Name:   strings.TrimSpace(req.Name),
		Phone:  req.Phone,
	}
	for _, sp := range req.Specialties {
		c.Specialties = append(c.Specialties, domain.CoachSpecialty{CoachID: c.ID, Specialty: sp})
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("coach created", zap.String("coach_id", c.ID), zap.Any("specialties", req.Specialties))
	return c, nil
}

// ReplaceAvailability validates every window before touching the store.
func (s *Service) ReplaceAvailability(ctx context.Context, coachID string, req []WindowRequest) ([]domain.AvailabilityWindow, error) {
	windows := make([]domain.AvailabilityWindow, 0, len(req))
	for i, w := range req {
		if w.Weekday < 0 || w.Weekday > 6 {
			return nil, fmt.Errorf("%w #%d: weekday must be 0-6", ErrInvalidWindow, i)
		}
		start, err := timeslot.ParseClock(w.Start)
		if err != nil {
			return nil, fmt.Errorf("%w #%d: %v", ErrInvalidWindow, i, err)
		}
		end, err := timeslot.ParseClock(w.End)
		if err != nil {
			return nil, fmt.Errorf("%w #%d: %v", ErrInvalidWindow, i, err)
		}
		if err := scheduling.ValidateRange(start, end); err != nil {
			return nil, fmt.Errorf("%w #%d: %v", ErrInvalidWindow, i, err)
		}
		windows = append(windows, domain.AvailabilityWindow{
			ID:      uuid.NewString(),
			CoachID: coachID,
			Weekday: w.Weekday,
			Start:   start,
			End:     end,
		})
	}

	unlock, err := s.locker.Lock(ctx, lock.CoachKey(coachID))
	if err != nil {
		return nil, fmt.Errorf("lock coach %s: %w", coachID, err)
	}
	defer unlock()

	if err := s.repo.ReplaceAvailability(ctx, coachID, windows); err != nil {
		return nil, err
	}

	s.logger.Info("coach availability replaced", zap.String("coach_id", coachID), zap.Int("windows", len(windows)))
	return s.repo.GetAvailability(ctx, coachID)
}
