package scheduling

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymplanner/internal/domain"
	"gymplanner/internal/pkg/timeslot"
)

var monday = timeslot.MustDate("2026-10-19")

func session(id, coach, room string, date timeslot.Date, start, end string) domain.Session {
	return domain.Session{
		ID:       id,
		Activity: domain.ActivityYoga,
		CoachID:  coach,
		Room:     room,
		Date:     date,
		Start:    timeslot.MustClock(start),
		End:      timeslot.MustClock(end),
		Capacity: 20,
	}
}

func slot(coach string, date timeslot.Date, start, end string) Slot {
	return Slot{CoachID: coach, Date: date, Start: timeslot.MustClock(start), End: timeslot.MustClock(end)}
}

func TestDetectCoachConflict_DoubleBookingRejected(t *testing.T) {
	sessions := []domain.Session{
		session("s1", "coach-c", "Salle 1", monday, "10:00", "11:00"),
	}

	err := DetectCoachConflict(sessions, slot("coach-c", monday, "10:30", "11:30"), "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, RuleCoachConflict, RuleOf(err))

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "s1", se.SessionID)
	assert.Contains(t, se.Message, "10:00")
	assert.Contains(t, se.Message, "11:00")
	assert.Contains(t, se.Message, "Salle 1")
}

func TestDetectCoachConflict_NoSelfConflictOnEdit(t *testing.T) {
	sessions := []domain.Session{
		session("s1", "coach-c", "Salle 1", monday, "10:00", "11:00"),
	}

	err := DetectCoachConflict(sessions, slot("coach-c", monday, "10:00", "11:00"), "s1")
	assert.NoError(t, err)
}

func TestDetectCoachConflict_Ignores(t *testing.T) {
	sessions := []domain.Session{
		session("s1", "coach-c", "Salle 1", monday, "10:00", "11:00"),
		session("s2", "coach-d", "Salle 2", monday, "11:00", "12:00"),
		session("s3", "coach-c", "Salle 1", monday.AddDays(1), "11:00", "12:00"),
	}

	tests := []struct {
		name      string
		candidate Slot
	}{
		{"back to back", slot("coach-c", monday, "11:00", "12:00")},
		{"other coach same time", slot("coach-e", monday, "10:00", "11:00")},
		{"same coach other day", slot("coach-c", monday.AddDays(2), "10:00", "11:00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, DetectCoachConflict(sessions, tt.candidate, ""))
		})
	}
}

func TestDetectCoachConflict_FirstMatchWins(t *testing.T) {
	sessions := []domain.Session{
		session("s1", "coach-c", "Salle 1", monday, "09:00", "10:00"),
		session("s2", "coach-c", "Salle 2", monday, "10:00", "11:00"),
	}

	err := DetectCoachConflict(sessions, slot("coach-c", monday, "09:30", "10:30"), "")

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "s1", se.SessionID)
}

func TestDetectCoachConflict_InvalidRangeIsValidation(t *testing.T) {
	err := DetectCoachConflict(nil, slot("coach-c", monday, "11:00", "11:00"), "")

	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, RuleInvalidRange, RuleOf(err))
}

func TestDetectReservationConflict(t *testing.T) {
	a := session("A", "coach-1", "1", monday, "09:00", "10:00")
	b := session("B", "coach-2", "2", monday, "09:30", "10:30")
	c := session("C", "coach-3", "3", monday, "10:00", "11:00")
	d := session("D", "coach-4", "4", monday.AddDays(1), "09:00", "10:00")
	sessions := []domain.Session{a, b, c, d}

	reservations := []domain.Reservation{
		{ID: "r1", MemberID: "m", SessionID: "A"},
		{ID: "r2", MemberID: "other", SessionID: "C"},
	}

	t.Run("overlapping session on the same day", func(t *testing.T) {
		err := DetectReservationConflict(sessions, reservations, "m", "B")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, RuleMemberConflict, RuleOf(err))
		assert.Contains(t, err.Error(), "09:00")
		assert.Contains(t, err.Error(), "10:00")

		var se *Error
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "A", se.SessionID)
	})

	t.Run("back to back", func(t *testing.T) {
		assert.NoError(t, DetectReservationConflict(sessions, reservations, "m", "C"))
	})

	t.Run("other day", func(t *testing.T) {
		assert.NoError(t, DetectReservationConflict(sessions, reservations, "m", "D"))
	})

	t.Run("reservation for the candidate itself is skipped", func(t *testing.T) {
		assert.NoError(t, DetectReservationConflict(sessions, reservations, "m", "A"))
	})

	t.Run("other members do not count", func(t *testing.T) {
		assert.NoError(t, DetectReservationConflict(sessions, reservations, "m2", "B"))
	})

	t.Run("unknown candidate is a no-op", func(t *testing.T) {
		assert.NoError(t, DetectReservationConflict(sessions, reservations, "m", "missing"))
	})
}

func TestCoachHasSpecialty(t *testing.T) {
	yogaOnly := []domain.Specialty{domain.SpecialtyYoga}
	twoFold := []domain.Specialty{domain.SpecialtyMusculation, domain.SpecialtyBoxe}

	assert.True(t, CoachHasSpecialty(yogaOnly, domain.ActivityYoga))
	assert.False(t, CoachHasSpecialty(yogaOnly, domain.ActivityBoxe))
	assert.True(t, CoachHasSpecialty(twoFold, domain.ActivityBoxe))
	assert.True(t, CoachHasSpecialty(twoFold, domain.ActivityMusculation))
	assert.False(t, CoachHasSpecialty(twoFold, domain.ActivityPilates))
	assert.False(t, CoachHasSpecialty(nil, domain.ActivityPilates))
}

func TestCoachIsAvailable(t *testing.T) {
	c := timeslot.MustClock
	windows := []domain.AvailabilityWindow{
		{Weekday: 1, Start: c("08:00"), End: c("12:00")},
		{Weekday: 1, Start: c("14:00"), End: c("18:00")},
		{Weekday: 3, Start: c("08:00"), End: c("12:00")},
	}
	wednesday := monday.AddDays(2)
	tuesday := monday.AddDays(1)

	tests := []struct {
		name       string
		date       timeslot.Date
		start, end string
		want       bool
	}{
		{"inside morning window", monday, "08:00", "09:00", true},
		{"exactly the window", monday, "14:00", "18:00", true},
		{"second window of the day", monday, "15:00", "16:30", true},
		{"straddles the gap", monday, "11:30", "14:30", false},
		{"starts before window", monday, "07:30", "08:30", false},
		{"ends after window", wednesday, "11:00", "12:30", false},
		{"no window that weekday", tuesday, "09:00", "10:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoachIsAvailable(windows, tt.date, c(tt.start), c(tt.end)))
		})
	}

	assert.True(t, CoachIsAvailable(nil, tuesday, c("22:00"), c("23:00")), "no declared windows means available")
}

func TestCapacity(t *testing.T) {
	s := &domain.Session{Capacity: 20, EnrolledCount: 19}
	assert.Equal(t, 1, RemainingCapacity(s))
	assert.False(t, IsFull(s))

	s.EnrolledCount = 20
	assert.Equal(t, 0, RemainingCapacity(s))
	assert.True(t, IsFull(s))
}

func TestRuleOf(t *testing.T) {
	assert.Equal(t, RuleSessionFull, RuleOf(Conflict(RuleSessionFull, "s", "full")))
	assert.Equal(t, Rule(""), RuleOf(errors.New("boom")))
	assert.ErrorIs(t, Ownership("nope"), ErrOwnership)
	assert.ErrorIs(t, NotFound("missing"), ErrNotFound)
}
