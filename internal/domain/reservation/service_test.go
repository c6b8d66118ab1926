package reservation

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gymplanner/internal/config"
	"gymplanner/internal/database"
	"gymplanner/internal/domain"
	"gymplanner/internal/domain/coach"
	"gymplanner/internal/domain/scheduling"
	"gymplanner/internal/domain/session"
	"gymplanner/internal/events"
	"gymplanner/internal/pkg/lock"
	"gymplanner/internal/pkg/timeslot"
	"gymplanner/internal/repository"
)

// Wednesday 14 October 2026, 10:00 UTC.
var fixedNow = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

var monday = timeslot.MustDate("2026-10-19")

type fixture struct {
	db       *gorm.DB
	svc      *Service
	store    *Repository
	sessions *session.Repository
	users    *repository.UserRepository
	coaches  *coach.Service
	coach    *domain.Coach
	events   *recorder
}

type recorder struct {
	mu  sync.Mutex
	got []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, e)
	return nil
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.got))
	for _, e := range r.got {
		out = append(out, e.Type)
	}
	return out
}

// noLock leaves serialization to the store's conditional update.
type noLock struct{}

func (noLock) Lock(context.Context, ...string) (func(), error) { return func() {}, nil }

func newFixture(t *testing.T, locker lock.Locker) *fixture {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{DSN: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, zap.NewNop()))

	f := &fixture{
		db:       db,
		sessions: session.NewRepository(db),
		users:    repository.NewUserRepository(db),
		events:   &recorder{},
	}
	f.store, err = NewRepository(db)
	require.NoError(t, err)
	f.coaches = coach.NewService(coach.NewRepository(db), f.users, locker, zap.NewNop())

	coachUser := f.user(t, domain.RoleCoach, "Leila", "Ben Salah")
	f.coach, err = f.coaches.Create(context.Background(), &coach.CreateCoachRequest{
		Name:        "Leila Ben Salah",
		UserID:      &coachUser.ID,
		Specialties: []domain.Specialty{domain.SpecialtyYoga},
	})
	require.NoError(t, err)

	f.svc = NewService(f.store, f.sessions, f.coaches, f.users, locker, f.events, zap.NewNop(),
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
	)
	return f
}

func (f *fixture) user(t *testing.T, role domain.UserRole, first, last string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        fmt.Sprintf("%s.%s@gym.test", first, uuid.NewString()[:8]),
		PasswordHash: "x",
		Role:         role,
		FirstName:    first,
		LastName:     last,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) member(t *testing.T) string {
	t.Helper()
	return f.user(t, domain.RoleMember, "Member", uuid.NewString()[:6]).ID
}

func (f *fixture) session(t *testing.T, date timeslot.Date, start, end string, capacity int) *domain.Session {
	t.Helper()
	return f.sessionFor(t, f.coach.ID, date, start, end, capacity)
}

func (f *fixture) sessionFor(t *testing.T, coachID string, date timeslot.Date, start, end string, capacity int) *domain.Session {
	t.Helper()
	s := &domain.Session{
		ID:       uuid.NewString(),
		Activity: domain.ActivityYoga,
		CoachID:  coachID,
		Room:     "Studio A",
		Date:     date,
		Start:    timeslot.MustClock(start),
		End:      timeslot.MustClock(end),
		Capacity: capacity,
		Version:  1,
	}
	require.NoError(t, f.sessions.Create(context.Background(), s))
	return s
}

func (f *fixture) enrolled(t *testing.T, sessionID string) int {
	t.Helper()
	s, err := f.sessions.GetByID(context.Background(), sessionID)
	require.NoError(t, err)
	return s.EnrolledCount
}

func (f *fixture) setEnrolled(t *testing.T, sessionID string, n int) {
	t.Helper()
	require.NoError(t, f.db.Model(&domain.Session{}).Where("id = ?", sessionID).Update("enrolled_count", n).Error)
}

func TestBook_Success(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())
	s := f.session(t, monday, "09:00", "10:00", 20)
	m := f.member(t)

	res, err := f.svc.Book(context.Background(), m, s.ID)
	require.NoError(t, err)

	assert.Equal(t, m, res.MemberID)
	assert.Equal(t, domain.ActivityYoga, res.SessionActivity)
	assert.Equal(t, "Leila Ben Salah", res.SessionCoach)
	assert.Equal(t, monday, res.SessionDate)
	assert.Equal(t, 1, f.enrolled(t, s.ID))
	assert.Equal(t, []events.Type{events.ReservationBooked}, f.events.types())
}

func TestBook_LastSeatThenFull(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())
	s := f.session(t, monday, "09:00", "10:00", 20)
	f.setEnrolled(t, s.ID, 19)

	_, err := f.svc.Book(context.Background(), f.member(t), s.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, f.enrolled(t, s.ID))

	_, err = f.svc.Book(context.Background(), f.member(t), s.ID)
	assert.ErrorIs(t, err, scheduling.ErrConflict)
	assert.Equal(t, scheduling.RuleSessionFull, scheduling.RuleOf(err))
	assert.Equal(t, 20, f.enrolled(t, s.ID))
}

func TestBook_AlreadyBooked(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())
	s := f.session(t, monday, "09:00", "10:00", 20)
	m := f.member(t)

	_, err := f.svc.Book(context.Background(), m, s.ID)
	require.NoError(t, err)

	_, err = f.svc.Book(context.Background(), m, s.ID)
	assert.Equal(t, scheduling.RuleAlreadyBooked, scheduling.RuleOf(err))
	assert.Equal(t, 1, f.enrolled(t, s.ID))
}

func TestBook_AlreadyBookedWinsOverFull(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())
	s := f.session(t, monday, "09:00", "10:00", 1)
	m := f.member(t)

	_, err := f.svc.Book(context.Background(), m, s.ID)
	require.NoError(t, err)

	_, err = f.svc.Book(context.Background(), m, s.ID)
	assert.Equal(t, scheduling.RuleAlreadyBooked, scheduling.RuleOf(err))
}

func TestBook_UnknownSession(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())

	_, err := f.svc.Book(context.Background(), f.member(t), "ghost")
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
}

func TestBook_MemberConflict(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())
	a := f.session(t, monday, "09:00", "10:00", 20)
	b := f.session(t, monday, "09:30", "10:30", 20)
	c := f.session(t, monday, "10:00", "11:00", 20)
	tuesday := f.session(t, monday.AddDays(1), "09:00", "10:00", 20)
	m := f.member(t)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, m, a.ID)
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, m, b.ID)
	require.Error(t, err)
	assert.Equal(t, scheduling.RuleMemberConflict, scheduling.RuleOf(err))
	assert.Contains(t, err.Error(), "09:00")
	assert.Contains(t, err.Error(), "10:00")
	assert.Equal(t, 0, f.enrolled(t, b.ID))

	_, err = f.svc.Book(ctx, m, c.ID)
	assert.NoError(t, err, "back-to-back sessions do not overlap")

	_, err = f.svc.Book(ctx, m, tuesday.ID)
	assert.NoError(t, err)
}

func TestBook_ConflictUsesLiveSession(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())
	a := f.session(t, monday, "09:00", "10:00", 20)
	b := f.session(t, monday, "14:00", "15:00", 20)
	m := f.member(t)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, m, a.ID)
	require.NoError(t, err)

	// Session a moves onto b's slot after the booking; the snapshot still
	// says 09:00.
	a.Start, a.End = timeslot.MustClock("14:30"), timeslot.MustClock("15:30")
	require.NoError(t, f.sessions.Update(ctx, a))

	_, err = f.svc.Book(ctx, m, b.ID)
	assert.Equal(t, scheduling.RuleMemberConflict, scheduling.RuleOf(err))
}

func TestCancelThenRebook(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())
	s := f.session(t, monday, "09:00", "10:00", 20)
	m := f.member(t)
	actor := Actor{UserID: m, Role: domain.RoleMember}
	ctx := context.Background()

	res, err := f.svc.Book(ctx, m, s.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(ctx, actor, res.ID))
	assert.Equal(t, 0, f.enrolled(t, s.ID))

	_, err = f.svc.Book(ctx, m, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.enrolled(t, s.ID))

	assert.Equal(t, []events.Type{events.ReservationBooked, events.ReservationCancelled, events.ReservationBooked}, f.events.types())
}

func TestCancel_FloorsAtZero(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())
	s := f.session(t, monday, "09:00", "10:00", 20)
	m := f.member(t)
	ctx := context.Background()

	res, err := f.svc.Book(ctx, m, s.ID)
	require.NoError(t, err)
	f.setEnrolled(t, s.ID, 0)

	require.NoError(t, f.svc.Cancel(ctx, Actor{UserID: m, Role: domain.RoleMember}, res.ID))
	assert.Equal(t, 0, f.enrolled(t, s.ID))
}

func TestCancel_Ownership(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())
	s := f.session(t, monday, "09:00", "10:00", 20)
	owner := f.member(t)
	ctx := context.Background()

	res, err := f.svc.Book(ctx, owner, s.ID)
	require.NoError(t, err)

	err = f.svc.Cancel(ctx, Actor{UserID: f.member(t), Role: domain.RoleMember}, res.ID)
	assert.ErrorIs(t, err, scheduling.ErrOwnership)
	assert.Equal(t, 1, f.enrolled(t, s.ID))

	err = f.svc.Cancel(ctx, Actor{UserID: owner, Role: domain.RoleMember}, "missing")
	assert.ErrorIs(t, err, scheduling.ErrNotFound)

	require.NoError(t, f.svc.Cancel(ctx, Actor{UserID: "admin-1", Role: domain.RoleAdmin}, res.ID))
	assert.Equal(t, 0, f.enrolled(t, s.ID))
}

func TestBookFor(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())
	s := f.session(t, monday, "09:00", "10:00", 20)
	m := f.member(t)
	ctx := context.Background()
	admin := Actor{UserID: "admin-1", Role: domain.RoleAdmin}

	_, err := f.svc.BookFor(ctx, admin, "", s.ID)
	assert.Equal(t, scheduling.RuleRequiredField, scheduling.RuleOf(err))

	_, err = f.svc.BookFor(ctx, admin, uuid.NewString(), s.ID)
	assert.ErrorIs(t, err, scheduling.ErrNotFound)

	_, err = f.svc.BookFor(ctx, Actor{UserID: m, Role: domain.RoleMember}, f.member(t), s.ID)
	assert.ErrorIs(t, err, scheduling.ErrOwnership)

	_, err = f.svc.BookFor(ctx, Actor{UserID: "x", Role: domain.RoleCoach}, "", s.ID)
	assert.ErrorIs(t, err, scheduling.ErrOwnership)

	res, err := f.svc.BookFor(ctx, admin, m, s.ID)
	require.NoError(t, err)
	assert.Equal(t, m, res.MemberID)
}

func TestBook_ConcurrentRaceNearCapacity(t *testing.T) {
	lockers := map[string]lock.Locker{
		"keyed mutex":        lock.NewKeyedMutex(),
		"conditional update": noLock{},
	}
	for name, locker := range lockers {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, locker)
			s := f.session(t, monday, "09:00", "10:00", 3)

			members := make([]string, 10)
			for i := range members {
				members[i] = f.member(t)
			}

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				ok      int
				full    int
				unknown []error
			)
			for _, m := range members {
				wg.Add(1)
				go func(m string) {
					defer wg.Done()
					_, err := f.svc.Book(context.Background(), m, s.ID)
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						ok++
					case scheduling.RuleOf(err) == scheduling.RuleSessionFull:
						full++
					default:
						unknown = append(unknown, err)
					}
				}(m)
			}
			wg.Wait()

			assert.Empty(t, unknown)
			assert.Equal(t, 3, ok)
			assert.Equal(t, 7, full)
			assert.Equal(t, 3, f.enrolled(t, s.ID))

			list, err := f.store.ListForSession(context.Background(), s.ID)
			require.NoError(t, err)
			assert.Len(t, list, 3)
		})
	}
}

func TestRosterAndAttendance(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())
	ctx := context.Background()
	started := f.session(t, timeslot.DateOf(fixedNow), "09:00", "11:00", 20)
	later := f.session(t, monday, "09:00", "10:00", 20)

	zoe := f.user(t, domain.RoleMember, "Zoe", "Ayari")
	adam := f.user(t, domain.RoleMember, "Adam", "Zouari")
	r1, err := f.svc.Book(ctx, adam.ID, started.ID)
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, zoe.ID, started.ID)
	require.NoError(t, err)
	r3, err := f.svc.Book(ctx, zoe.ID, later.ID)
	require.NoError(t, err)

	coachActor := Actor{UserID: *f.coach.UserID, Role: domain.RoleCoach}
	otherCoach := f.user(t, domain.RoleCoach, "Other", "Coach")

	_, entries, err := f.svc.Roster(ctx, coachActor, started.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Ayari", entries[0].LastName)
	assert.Equal(t, "Zouari", entries[1].LastName)
	assert.Nil(t, entries[0].Present)

	_, _, err = f.svc.Roster(ctx, Actor{UserID: otherCoach.ID, Role: domain.RoleCoach}, started.ID)
	assert.ErrorIs(t, err, scheduling.ErrOwnership)
	_, _, err = f.svc.Roster(ctx, Actor{UserID: zoe.ID, Role: domain.RoleMember}, started.ID)
	assert.ErrorIs(t, err, scheduling.ErrOwnership)

	marked, err := f.svc.MarkAttendance(ctx, coachActor, r1.ID, true)
	require.NoError(t, err)
	require.NotNil(t, marked.Present)
	assert.True(t, *marked.Present)

	_, err = f.svc.MarkAttendance(ctx, coachActor, r3.ID, false)
	assert.Equal(t, scheduling.RuleNotFinished, scheduling.RuleOf(err))

	sess, entries, err := f.svc.Roster(ctx, Actor{UserID: "admin-1", Role: domain.RoleAdmin}, started.ID)
	require.NoError(t, err)
	require.NotNil(t, entries[1].Present)
	assert.True(t, *entries[1].Present)

	buf, err := WriteRosterWorkbook(sess, entries)
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer book.Close()

	v, err := book.GetCellValue(rosterSheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Ayari", v)
	v, err = book.GetCellValue(rosterSheet, "F4")
	require.NoError(t, err)
	assert.Equal(t, "yes", v)
}

// scheduler is the session service with this fixture's reservations as its
// enrollment guard.
func (f *fixture) scheduler() *session.Service {
	return session.NewService(f.sessions, f.coaches, lock.NewKeyedMutex(), nil, zap.NewNop(),
		session.WithClock(func() time.Time { return fixedNow }),
		session.WithLocation(time.UTC),
		session.WithEnrollmentGuard(f.svc),
	)
}

func TestReschedule_RejectsOverlapForBookedMember(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())
	ctx := context.Background()

	otherUser := f.user(t, domain.RoleCoach, "Sonia", "Mansour")
	other, err := f.coaches.Create(ctx, &coach.CreateCoachRequest{
		Name:        "Sonia Mansour",
		UserID:      &otherUser.ID,
		Specialties: []domain.Specialty{domain.SpecialtyYoga},
	})
	require.NoError(t, err)

	a := f.session(t, monday, "09:00", "10:00", 20)
	b := f.sessionFor(t, other.ID, monday, "11:00", "12:00", 20)
	m := f.member(t)
	_, err = f.svc.Book(ctx, m, a.ID)
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, m, b.ID)
	require.NoError(t, err)

	move := func(start, end string, date timeslot.Date) error {
		_, err := f.scheduler().Update(ctx, b.ID, session.Candidate{
			Activity: domain.ActivityYoga,
			CoachID:  other.ID,
			Room:     "Studio A",
			Date:     date,
			Start:    timeslot.MustClock(start),
			End:      timeslot.MustClock(end),
		})
		return err
	}

	err = move("09:30", "10:30", monday)
	require.Error(t, err)
	assert.ErrorIs(t, err, scheduling.ErrConflict)
	assert.Equal(t, scheduling.RuleMemberConflict, scheduling.RuleOf(err))
	var se *scheduling.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, a.ID, se.SessionID)

	stored, err := f.sessions.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "11:00", stored.Start.String(), "rejected edit leaves the session in place")

	assert.NoError(t, move("10:00", "11:00", monday), "back to back is fine")
	assert.NoError(t, move("09:00", "10:00", monday.AddDays(1)), "another day is fine")
}

func TestReschedule_EmptySessionMovesFreely(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())
	ctx := context.Background()

	a := f.session(t, monday, "09:00", "10:00", 20)
	_, err := f.svc.Book(ctx, f.member(t), a.ID)
	require.NoError(t, err)
	empty := f.session(t, monday, "14:00", "15:00", 20)

	_, err = f.scheduler().Update(ctx, empty.ID, session.Candidate{
		Activity: domain.ActivityYoga,
		CoachID:  f.coach.ID,
		Room:     "Studio A",
		Date:     monday,
		Start:    timeslot.MustClock("11:00"),
		End:      timeslot.MustClock("12:00"),
	})
	assert.NoError(t, err)
}

func TestCancel_NoticeWindow(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())
	ctx := context.Background()
	thursday := timeslot.DateOf(fixedNow).AddDays(1)

	// fixedNow is Wednesday 10:00: 09:00 Thursday is 23h away, 11:00 is 25h.
	soon := f.session(t, thursday, "09:00", "10:00", 20)
	later := f.session(t, thursday, "11:00", "12:00", 20)
	m := f.member(t)
	member := Actor{UserID: m, Role: domain.RoleMember}

	resSoon, err := f.svc.Book(ctx, m, soon.ID)
	require.NoError(t, err)
	resLater, err := f.svc.Book(ctx, m, later.ID)
	require.NoError(t, err)

	err = f.svc.Cancel(ctx, member, resSoon.ID)
	assert.ErrorIs(t, err, scheduling.ErrValidation)
	assert.Equal(t, scheduling.RuleCancelWindow, scheduling.RuleOf(err))
	assert.Equal(t, 1, f.enrolled(t, soon.ID), "a refused cancel keeps the seat")

	require.NoError(t, f.svc.Cancel(ctx, member, resLater.ID))
	assert.Equal(t, 0, f.enrolled(t, later.ID))

	require.NoError(t, f.svc.Cancel(ctx, Actor{UserID: "admin-1", Role: domain.RoleAdmin}, resSoon.ID), "admins are not bound by the notice")
	assert.Equal(t, 0, f.enrolled(t, soon.ID))
}

func TestBook_ClosedSession(t *testing.T) {
	f := newFixture(t, lock.NewKeyedMutex())
	ctx := context.Background()
	today := timeslot.DateOf(fixedNow)

	finished := f.session(t, timeslot.MustDate("2026-10-01"), "09:00", "10:00", 20)
	require.NoError(t, f.sessions.MarkCompleted(ctx, finished.ID))
	endedToday := f.session(t, today, "08:00", "09:00", 20)
	completedEarly := f.session(t, monday, "09:00", "10:00", 20)
	require.NoError(t, f.sessions.MarkCompleted(ctx, completedEarly.ID))
	running := f.session(t, today, "09:30", "10:30", 20)

	for _, s := range []*domain.Session{finished, endedToday, completedEarly} {
		_, err := f.svc.Book(ctx, f.member(t), s.ID)
		assert.ErrorIs(t, err, scheduling.ErrConflict)
		assert.Equal(t, scheduling.RuleSessionClosed, scheduling.RuleOf(err))
		assert.Equal(t, 0, f.enrolled(t, s.ID))
	}

	_, err := f.svc.Book(ctx, f.member(t), running.ID)
	assert.NoError(t, err, "a session in progress still takes bookings")
}
