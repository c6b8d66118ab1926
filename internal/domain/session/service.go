package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gymplanner/internal/domain"
	"gymplanner/internal/domain/coach"
	"gymplanner/internal/domain/scheduling"
	"gymplanner/internal/events"
	"gymplanner/internal/pkg/lock"
	"gymplanner/internal/pkg/timeslot"
)

// Store is the session persistence the orchestrator needs.
type Store interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	ListForCoachOnDate(ctx context.Context, coachID string, date timeslot.Date) ([]domain.Session, error)
	List(ctx context.Context, f Filter) ([]domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	Update(ctx context.Context, s *domain.Session) error
	MarkCompleted(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// CoachDirectory resolves a coach with its specialties and availability.
type CoachDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.Coach, error)
}

// EnrollmentGuard vets a rescheduled session against the other reservations
// of the members already booked on it. moved carries the new date and times.
type EnrollmentGuard interface {
	CheckReschedule(ctx context.Context, moved *domain.Session) error
}

// Candidate is a proposed session, new or edited.
type Candidate struct {
	Activity domain.Activity
	CoachID  string
	Room     string
	Date     timeslot.Date
	Start    timeslot.Clock
	End      timeslot.Clock
	// Capacity 0 keeps the current capacity on edit and uses the default on
	// create.
	Capacity int
}

func (c Candidate) slot() scheduling.Slot {
	return scheduling.Slot{CoachID: c.CoachID, Date: c.Date, Start: c.Start, End: c.End}
}

type Service struct {
	store     Store
	coaches   CoachDirectory
	locker    lock.Locker
	publisher events.Publisher
	guard     EnrollmentGuard
	logger    *zap.Logger

	loc             *time.Location
	now             func() time.Time
	defaultCapacity int
}

type Option func(*Service)

func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithDefaultCapacity(n int) Option {
	return func(s *Service) { s.defaultCapacity = n }
}

// WithEnrollmentGuard makes edits that move a booked session check its
// members for overlapping reservations.
func WithEnrollmentGuard(g EnrollmentGuard) Option {
	return func(s *Service) { s.guard = g }
}

func NewService(store Store, coaches CoachDirectory, locker lock.Locker, publisher events.Publisher, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:           store,
		coaches:         coaches,
		locker:          locker,
		publisher:       publisher,
		logger:          logger,
		loc:             time.UTC,
		now:             time.Now,
		defaultCapacity: domain.DefaultSessionCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	return s
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id)
	}
	return sess, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]domain.Session, error) {
	return s.store.List(ctx, f)
}

// Create schedules a new session.
func (s *Service) Create(ctx context.Context, c Candidate) (*domain.Session, error) {
	return s.schedule(ctx, c, "")
}

// Update re-validates the edited values, ignoring the session's own prior
// occupancy of its coach.
func (s *Service) Update(ctx context.Context, id string, c Candidate) (*domain.Session, error) {
	return s.schedule(ctx, c, id)
}

func (s *Service) schedule(ctx context.Context, c Candidate, excludeID string) (*domain.Session, error) {
	c.CoachID = strings.TrimSpace(c.CoachID)
	c.Room = strings.TrimSpace(c.Room)

	if err := s.validateInput(&c); err != nil {
		return nil, err
	}

	today := timeslot.Today(s.now(), s.loc)
	if c.Date.Before(today) {
		return nil, scheduling.Validation(scheduling.RulePastDate,
			"Sessions cannot be scheduled in the past (%s is before %s).", c.Date, today)
	}

	keys := []string{lock.CoachKey(c.CoachID)}
	if excludeID != "" {
		keys = append(keys, lock.SessionKey(excludeID))
	}
	unlock, err := s.locker.Lock(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("lock coach %s: %w", c.CoachID, err)
	}
	defer unlock()

	var existing *domain.Session
	if excludeID != "" {
		existing, err = s.store.GetByID(ctx, excludeID)
		if err != nil {
			return nil, mapStoreError(err, excludeID)
		}
		if c.Capacity == 0 {
			c.Capacity = existing.Capacity
		}
		if c.Capacity < existing.EnrolledCount {
			return nil, scheduling.Validation(scheduling.RuleInvalidCapacity,
				"Capacity %d is below the %d members already enrolled.", c.Capacity, existing.EnrolledCount)
		}
	}

	if err := s.checkCoach(ctx, c); err != nil {
		return nil, err
	}

	booked, err := s.store.ListForCoachOnDate(ctx, c.CoachID, c.Date)
	if err != nil {
		return nil, fmt.Errorf("list coach sessions: %w", err)
	}
	if err := scheduling.DetectCoachConflict(booked, c.slot(), excludeID); err != nil {
		return nil, err
	}

	if existing == nil {
		if c.Capacity == 0 {
			c.Capacity = s.defaultCapacity
		}
		return s.create(ctx, c)
	}

	if s.guard != nil && existing.EnrolledCount > 0 && movesSlot(existing, c) {
		moved := *existing
		moved.Date, moved.Start, moved.End = c.Date, c.Start, c.End
		if err := s.guard.CheckReschedule(ctx, &moved); err != nil {
			return nil, err
		}
	}
	return s.update(ctx, existing, c)
}

func movesSlot(existing *domain.Session, c Candidate) bool {
	return existing.Date != c.Date || existing.Start != c.Start || existing.End != c.End
}

// validateInput checks the candidate on its own, before any store read.
func (s *Service) validateInput(c *Candidate) error {
	switch {
	case c.CoachID == "":
		return scheduling.Validation(scheduling.RuleRequiredField, "A coach is required.")
	case c.Room == "":
		return scheduling.Validation(scheduling.RuleRequiredField, "A room is required.")
	case c.Date.IsZero():
		return scheduling.Validation(scheduling.RuleRequiredField, "A date is required.")
	}
	if !c.Activity.Valid() {
		return scheduling.Validation(scheduling.RuleInvalidActivity, "Unknown activity %q.", c.Activity)
	}
	if err := scheduling.ValidateRange(c.Start, c.End); err != nil {
		return err
	}
	if c.Capacity < 0 {
		return scheduling.Validation(scheduling.RuleInvalidCapacity, "Capacity must be positive.")
	}
	return nil
}

func (s *Service) checkCoach(ctx context.Context, c Candidate) error {
	co, err := s.coaches.GetByID(ctx, c.CoachID)
	if err != nil {
		if errors.Is(err, coach.ErrCoachNotFound) {
			return scheduling.NotFound("Coach %s does not exist.", c.CoachID)
		}
		return fmt.Errorf("load coach: %w", err)
	}

	held := co.SpecialtyNames()
	if !scheduling.CoachHasSpecialty(held, c.Activity) {
		required, _ := scheduling.RequiredSpecialty(c.Activity)
		return scheduling.Conflict(scheduling.RuleSpecialtyMismatch, "",
			"%s holds %s; a %s session requires %s.",
			co.Name, joinSpecialties(held), c.Activity.DisplayName(), required)
	}

	if !scheduling.CoachIsAvailable(co.Availability, c.Date, c.Start, c.End) {
		return scheduling.Conflict(scheduling.RuleUnavailable, "",
			"%s is not available on %s from %s to %s.",
			co.Name, weekdayDate(c.Date), c.Start, c.End)
	}
	return nil
}

func (s *Service) create(ctx context.Context, c Candidate) (*domain.Session, error) {
	sess := &domain.Session{
		ID:       uuid.NewString(),
		Activity: c.Activity,
		CoachID:  c.CoachID,
		Room:     c.Room,
		Date:     c.Date,
		Start:    c.Start,
		End:      c.End,
		Capacity: c.Capacity,
		Version:  1,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("session scheduled",
		zap.String("session_id", sess.ID),
		zap.String("coach_id", sess.CoachID),
		zap.Stringer("date", sess.Date),
		zap.Stringer("start", sess.Start),
	)
	s.publish(ctx, events.SessionScheduled, sess)
	return sess, nil
}

func (s *Service) update(ctx context.Context, existing *domain.Session, c Candidate) (*domain.Session, error) {
	next := *existing
	next.Activity = c.Activity
	next.CoachID = c.CoachID
	next.Room = c.Room
	next.Date = c.Date
	next.Start = c.Start
	next.End = c.End
	next.Capacity = c.Capacity
	next.Coach = nil

	if err := s.store.Update(ctx, &next); err != nil {
		if errors.Is(err, ErrCapacityBelowEnrolled) {
			return nil, scheduling.Validation(scheduling.RuleInvalidCapacity,
				"Capacity %d is below the members already enrolled.", c.Capacity)
		}
		return nil, mapStoreError(err, existing.ID)
	}

	updated, err := s.store.GetByID(ctx, existing.ID)
	if err != nil {
		return nil, mapStoreError(err, existing.ID)
	}

	s.logger.Info("session updated", zap.String("session_id", updated.ID), zap.Int("version", updated.Version))
	s.publish(ctx, events.SessionUpdated, updated)
	return updated, nil
}

// Complete finalizes attendance once the session is over in gym time.
func (s *Service) Complete(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id)
	}
	if sess.Completed {
		return sess, nil
	}

	endsAt := sess.Date.At(sess.End, s.loc)
	if s.now().Before(endsAt) {
		return nil, scheduling.Validation(scheduling.RuleNotFinished,
			"The session on %s ends at %s and cannot be completed yet.", sess.Date, sess.End)
	}

	if err := s.store.MarkCompleted(ctx, id); err != nil {
		return nil, mapStoreError(err, id)
	}
	sess.Completed = true

	s.logger.Info("session completed", zap.String("session_id", id))
	s.publish(ctx, events.SessionCompleted, sess)
	return sess, nil
}

// Delete removes the session together with its reservations.
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock, err := s.locker.Lock(ctx, lock.SessionKey(id))
	if err != nil {
		return fmt.Errorf("lock session %s: %w", id, err)
	}
	defer unlock()

	sess, err := s.store.GetByID(ctx, id)
	if err != nil {
		return mapStoreError(err, id)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return mapStoreError(err, id)
	}

	s.logger.Info("session deleted", zap.String("session_id", id), zap.Int("reservations", sess.EnrolledCount))
	sess.EnrolledCount = 0
	s.publish(ctx, events.SessionDeleted, sess)
	return nil
}

func (s *Service) publish(ctx context.Context, t events.Type, sess *domain.Session) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:          t,
		SessionID:     sess.ID,
		CoachID:       sess.CoachID,
		EnrolledCount: sess.EnrolledCount,
		Capacity:      sess.Capacity,
		At:            s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(t)), zap.String("session_id", sess.ID), zap.Error(err))
	}
}

func mapStoreError(err error, id string) error {
	if errors.Is(err, ErrSessionNotFound) {
		return scheduling.NotFound("Session %s does not exist.", id)
	}
	return err
}

func weekdayDate(d timeslot.Date) string {
	return time.Weekday(d.Weekday()).String() + " " + d.String()
}

func joinSpecialties(sp []domain.Specialty) string {
	if len(sp) == 0 {
		return "no specialty"
	}
	names := make([]string, len(sp))
	for i, s := range sp {
		names[i] = string(s)
	}
	return strings.Join(names, " and ")
}
