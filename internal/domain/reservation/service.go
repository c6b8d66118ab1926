package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gymplanner/internal/domain"
	"gymplanner/internal/domain/coach"
	"gymplanner/internal/domain/scheduling"
	"gymplanner/internal/domain/session"
	"gymplanner/internal/events"
	"gymplanner/internal/pkg/lock"
	"gymplanner/internal/repository"
)

// Store is the reservation persistence the lifecycle manager needs. Book and
// Cancel change the session's enrolled count in the same transaction and
// return the count after the change.
type Store interface {
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	FindByMemberAndSession(ctx context.Context, memberID, sessionID string) (*domain.Reservation, error)
	ListForMember(ctx context.Context, memberID string) ([]domain.Reservation, error)
	ListForSession(ctx context.Context, sessionID string) ([]domain.Reservation, error)
	Book(ctx context.Context, r *domain.Reservation) (int, error)
	Cancel(ctx context.Context, r *domain.Reservation) (int, error)
	MarkAttendance(ctx context.Context, id string, present bool) error
	Roster(ctx context.Context, sessionID string) ([]RosterEntry, error)
}

// SessionReader resolves live sessions. *session.Repository satisfies it.
type SessionReader interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Session, error)
}

type CoachLookup interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Coach, error)
}

type MemberLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// DefaultCancelNotice is how long before a session starts members can still
// cancel their own reservation.
const DefaultCancelNotice = 24 * time.Hour

// Actor is the authenticated caller as set by the auth middleware.
type Actor struct {
	UserID string
	Role   domain.UserRole
}

func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

type Service struct {
	store     Store
	sessions  SessionReader
	coaches   CoachLookup
	members   MemberLookup
	locker    lock.Locker
	publisher events.Publisher
	logger    *zap.Logger

	loc          *time.Location
	now          func() time.Time
	cancelNotice time.Duration
}

type Option func(*Service)

func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithCancelNotice(d time.Duration) Option {
	return func(s *Service) { s.cancelNotice = d }
}

func NewService(store Store, sessions SessionReader, coaches CoachLookup, members MemberLookup, locker lock.Locker, publisher events.Publisher, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:        store,
		sessions:     sessions,
		coaches:      coaches,
		members:      members,
		locker:       locker,
		publisher:    publisher,
		logger:       logger,
		loc:          time.UTC,
		now:          time.Now,
		cancelNotice: DefaultCancelNotice,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	return s
}

// BookFor resolves who the reservation is for. Members always book for
// themselves; an admin must name the member.
func (s *Service) BookFor(ctx context.Context, actor Actor, memberID, sessionID string) (*domain.Reservation, error) {
	switch {
	case actor.IsAdmin():
		if memberID == "" {
			return nil, scheduling.Validation(scheduling.RuleRequiredField, "A member is required.")
		}
		u, err := s.members.GetByID(ctx, memberID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, scheduling.NotFound("Member %s does not exist.", memberID)
			}
			return nil, fmt.Errorf("load member: %w", err)
		}
		if u.Role != domain.RoleMember {
			return nil, scheduling.Validation(scheduling.RuleRequiredField, "User %s is not a member.", memberID)
		}
	case actor.Role == domain.RoleMember:
		if memberID != "" && memberID != actor.UserID {
			return nil, scheduling.Ownership("Members can only book for themselves.")
		}
		memberID = actor.UserID
	default:
		return nil, scheduling.Ownership("Only members can book sessions.")
	}
	return s.Book(ctx, memberID, sessionID)
}

// Book reserves a seat on sessionID for memberID. Checks run in order:
// session exists, not already booked, not full, no overlapping reservation.
func (s *Service) Book(ctx context.Context, memberID, sessionID string) (*domain.Reservation, error) {
	if sessionID == "" {
		return nil, scheduling.Validation(scheduling.RuleRequiredField, "A session is required.")
	}

	unlock, err := s.locker.Lock(ctx, lock.MemberKey(memberID), lock.SessionKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("lock booking: %w", err)
	}
	defer unlock()

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, mapSessionError(err, sessionID)
	}
	if sess.Completed || !s.now().Before(sess.Date.At(sess.End, s.loc)) {
		return nil, scheduling.Conflict(scheduling.RuleSessionClosed, sess.ID,
			"The %s session on %s at %s is over.", sess.Activity.DisplayName(), sess.Date, sess.Start)
	}

	if _, err := s.store.FindByMemberAndSession(ctx, memberID, sessionID); err == nil {
		return nil, alreadyBooked(sess)
	} else if !errors.Is(err, ErrReservationNotFound) {
		return nil, fmt.Errorf("find reservation: %w", err)
	}

	if scheduling.IsFull(sess) {
		return nil, sessionFull(sess)
	}

	if err := s.checkMemberConflict(ctx, memberID, sess); err != nil {
		return nil, err
	}

	res := &domain.Reservation{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		SessionID: sess.ID,
		BookedAt:  s.now().UTC(),
	}
	coachName := ""
	if sess.Coach != nil {
		coachName = sess.Coach.Name
	}
	res.Snapshot(sess, coachName)

	enrolled, err := s.store.Book(ctx, res)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionFull):
			return nil, sessionFull(sess)
		case errors.Is(err, ErrAlreadyBooked):
			return nil, alreadyBooked(sess)
		case errors.Is(err, ErrSessionMissing):
			return nil, scheduling.NotFound("Session %s does not exist.", sessionID)
		}
		return nil, fmt.Errorf("book session: %w", err)
	}

	s.logger.Info("reservation booked",
		zap.String("reservation_id", res.ID),
		zap.String("member_id", memberID),
		zap.String("session_id", sess.ID),
		zap.Int("enrolled", enrolled),
		zap.Int("capacity", sess.Capacity),
	)
	s.publish(ctx, events.ReservationBooked, res, sess, enrolled)
	return res, nil
}

// checkMemberConflict resolves the live sessions behind the member's
// reservations; the snapshot fields are never used for the check.
func (s *Service) checkMemberConflict(ctx context.Context, memberID string, candidate *domain.Session) error {
	held, err := s.store.ListForMember(ctx, memberID)
	if err != nil {
		return fmt.Errorf("list member reservations: %w", err)
	}
	if len(held) == 0 {
		return nil
	}

	ids := make([]string, 0, len(held))
	for _, r := range held {
		ids = append(ids, r.SessionID)
	}
	live, err := s.sessions.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load reserved sessions: %w", err)
	}
	live = append(live, *candidate)

	return scheduling.DetectReservationConflict(live, held, memberID, candidate.ID)
}

// Cancel removes a reservation. Members may only cancel their own, and only
// up to the cancel notice before the session starts; admins may cancel any at
// any time.
func (s *Service) Cancel(ctx context.Context, actor Actor, reservationID string) error {
	res, err := s.store.GetByID(ctx, reservationID)
	if err != nil {
		return mapReservationError(err, reservationID)
	}
	if !actor.IsAdmin() {
		if res.MemberID != actor.UserID {
			return scheduling.Ownership("Reservation %s belongs to another member.", reservationID)
		}
		if err := s.checkCancelWindow(ctx, res); err != nil {
			return err
		}
	}

	unlock, err := s.locker.Lock(ctx, lock.MemberKey(res.MemberID), lock.SessionKey(res.SessionID))
	if err != nil {
		return fmt.Errorf("lock cancellation: %w", err)
	}
	defer unlock()

	enrolled, err := s.store.Cancel(ctx, res)
	if err != nil {
		return mapReservationError(err, reservationID)
	}

	s.logger.Info("reservation cancelled",
		zap.String("reservation_id", res.ID),
		zap.String("member_id", res.MemberID),
		zap.String("session_id", res.SessionID),
		zap.Int("enrolled", enrolled),
		zap.Bool("by_admin", actor.IsAdmin() && actor.UserID != res.MemberID),
	)
	sess, err := s.sessions.GetByID(ctx, res.SessionID)
	if err != nil {
		sess = &domain.Session{ID: res.SessionID}
	}
	s.publish(ctx, events.ReservationCancelled, res, sess, enrolled)
	return nil
}

func (s *Service) checkCancelWindow(ctx context.Context, res *domain.Reservation) error {
	sess, err := s.sessions.GetByID(ctx, res.SessionID)
	if err != nil {
		return mapSessionError(err, res.SessionID)
	}
	startsAt := sess.Date.At(sess.Start, s.loc)
	if startsAt.Sub(s.now()) < s.cancelNotice {
		return scheduling.Validation(scheduling.RuleCancelWindow,
			"Reservations can only be cancelled up to %.0f hours before the session (%s at %s).",
			s.cancelNotice.Hours(), sess.Date, sess.Start)
	}
	return nil
}

// CheckReschedule reports the first member booked on moved whose other
// reservations overlap its new slot. Callers hold the session lock.
func (s *Service) CheckReschedule(ctx context.Context, moved *domain.Session) error {
	booked, err := s.store.ListForSession(ctx, moved.ID)
	if err != nil {
		return fmt.Errorf("list session reservations: %w", err)
	}
	for _, r := range booked {
		err := s.checkMemberConflict(ctx, r.MemberID, moved)
		var se *scheduling.Error
		if errors.As(err, &se) && se.Rule == scheduling.RuleMemberConflict {
			return scheduling.Conflict(scheduling.RuleMemberConflict, se.SessionID,
				"Member %s already has a reservation on %s that overlaps %s to %s.",
				r.MemberID, moved.Date, moved.Start, moved.End)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) ListForMember(ctx context.Context, memberID string) ([]domain.Reservation, error) {
	return s.store.ListForMember(ctx, memberID)
}

func (s *Service) ListForSession(ctx context.Context, actor Actor, sessionID string) ([]domain.Reservation, error) {
	if _, err := s.authorizeSession(ctx, actor, sessionID); err != nil {
		return nil, err
	}
	return s.store.ListForSession(ctx, sessionID)
}

// Roster is the attendee list of a session, for its coach or an admin.
func (s *Service) Roster(ctx context.Context, actor Actor, sessionID string) (*domain.Session, []RosterEntry, error) {
	sess, err := s.authorizeSession(ctx, actor, sessionID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.store.Roster(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return sess, entries, nil
}

// MarkAttendance records presence once the session has started.
func (s *Service) MarkAttendance(ctx context.Context, actor Actor, reservationID string, present bool) (*domain.Reservation, error) {
	res, err := s.store.GetByID(ctx, reservationID)
	if err != nil {
		return nil, mapReservationError(err, reservationID)
	}
	sess, err := s.authorizeSession(ctx, actor, res.SessionID)
	if err != nil {
		return nil, err
	}

	startsAt := sess.Date.At(sess.Start, s.loc)
	if s.now().Before(startsAt) {
		return nil, scheduling.Validation(scheduling.RuleNotFinished,
			"Attendance opens when the session starts on %s at %s.", sess.Date, sess.Start)
	}

	if err := s.store.MarkAttendance(ctx, res.ID, present); err != nil {
		return nil, mapReservationError(err, reservationID)
	}
	res.Present = &present

	s.logger.Info("attendance marked", zap.String("reservation_id", res.ID), zap.Bool("present", present))
	s.publish(ctx, events.AttendanceMarked, res, sess, sess.EnrolledCount)
	return res, nil
}

// authorizeSession loads the session and lets through admins and the coach
// the session is assigned to.
func (s *Service) authorizeSession(ctx context.Context, actor Actor, sessionID string) (*domain.Session, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, mapSessionError(err, sessionID)
	}
	if actor.IsAdmin() {
		return sess, nil
	}
	if actor.Role == domain.RoleCoach {
		co, err := s.coaches.GetByUserID(ctx, actor.UserID)
		if err != nil && !errors.Is(err, coach.ErrCoachNotFound) {
			return nil, fmt.Errorf("load coach: %w", err)
		}
		if co != nil && co.ID == sess.CoachID {
			return sess, nil
		}
	}
	return nil, scheduling.Ownership("Only the session's coach or an admin can do this.")
}

func (s *Service) publish(ctx context.Context, t events.Type, res *domain.Reservation, sess *domain.Session, enrolled int) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:          t,
		SessionID:     res.SessionID,
		CoachID:       sess.CoachID,
		ReservationID: res.ID,
		MemberID:      res.MemberID,
		EnrolledCount: enrolled,
		Capacity:      sess.Capacity,
		At:            s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(t)), zap.String("reservation_id", res.ID), zap.Error(err))
	}
}

func alreadyBooked(sess *domain.Session) error {
	return scheduling.Conflict(scheduling.RuleAlreadyBooked, sess.ID,
		"You already booked the %s session on %s at %s.", sess.Activity.DisplayName(), sess.Date, sess.Start)
}

func sessionFull(sess *domain.Session) error {
	return scheduling.Conflict(scheduling.RuleSessionFull, sess.ID,
		"The %s session on %s at %s is full (%d/%d).",
		sess.Activity.DisplayName(), sess.Date, sess.Start, sess.EnrolledCount, sess.Capacity)
}

func mapSessionError(err error, id string) error {
	if errors.Is(err, session.ErrSessionNotFound) {
		return scheduling.NotFound("Session %s does not exist.", id)
	}
	return fmt.Errorf("load session: %w", err)
}

func mapReservationError(err error, id string) error {
	if errors.Is(err, ErrReservationNotFound) {
		return scheduling.NotFound("Reservation %s does not exist.", id)
	}
	return err
}
