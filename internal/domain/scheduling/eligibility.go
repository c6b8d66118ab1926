package scheduling

import (
	"gymplanner/internal/domain"
	"gymplanner/internal/pkg/timeslot"
)

var requiredSpecialty = map[domain.Activity]domain.Specialty{
	domain.ActivityMusculation: domain.SpecialtyMusculation,
	domain.ActivityCrossFit:    domain.SpecialtyCrossFit,
	domain.ActivityYoga:        domain.SpecialtyYoga,
	domain.ActivityZumba:       domain.SpecialtyZumba,
	domain.ActivityBoxe:        domain.SpecialtyBoxe,
	domain.ActivityPilates:     domain.SpecialtyPilates,
}

// RequiredSpecialty maps an activity to the specialty its coach must hold.
func RequiredSpecialty(a domain.Activity) (domain.Specialty, bool) {
	s, ok := requiredSpecialty[a]
	return s, ok
}

// CoachHasSpecialty reports whether the coach's declared specialties cover
// activity. An activity without a mapped specialty is open to every coach.
func CoachHasSpecialty(specialties []domain.Specialty, activity domain.Activity) bool {
	required, ok := RequiredSpecialty(activity)
	if !ok {
		return true
	}
	for _, s := range specialties {
		if s == required {
			return true
		}
	}
	return false
}

// CoachIsAvailable reports whether [start, end) on date fits entirely inside
// one of the coach's weekly windows for that weekday. A coach with no windows
// at all is treated as available everywhere.
func CoachIsAvailable(windows []domain.AvailabilityWindow, date timeslot.Date, start, end timeslot.Clock) bool {
	if len(windows) == 0 {
		return true
	}
	weekday := date.Weekday()
	for _, w := range windows {
		if w.Weekday == weekday && timeslot.Contains(w.Start, w.End, start, end) {
			return true
		}
	}
	return false
}
