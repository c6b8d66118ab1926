package domain

import (
	"time"

	"gymplanner/internal/pkg/timeslot"
)

// Activity is the class category a session belongs to.
type Activity string

const (
	ActivityMusculation Activity = "musculation"
	ActivityCrossFit    Activity = "crossfit"
	ActivityYoga        Activity = "yoga"
	ActivityZumba       Activity = "zumba"
	ActivityBoxe        Activity = "boxe"
	ActivityPilates     Activity = "pilates"
)

var activityNames = map[Activity]string{
	ActivityMusculation: "Musculation",
	ActivityCrossFit:    "CrossFit",
	ActivityYoga:        "Yoga",
	ActivityZumba:       "Zumba",
	ActivityBoxe:        "Boxe",
	ActivityPilates:     "Pilates",
}

func (a Activity) Valid() bool {
	_, ok := activityNames[a]
	return ok
}

// DisplayName falls back to the raw value for unknown activities.
func (a Activity) DisplayName() string {
	if n, ok := activityNames[a]; ok {
		return n
	}
	return string(a)
}

const DefaultSessionCapacity = 20

// Session is one scheduled occurrence of a class. It is a passive record: the
// enrolled count is kept consistent by the reservation flow, not by the entity.
type Session struct {
	ID            string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Activity      Activity       `json:"activity" gorm:"type:varchar(30);not null"`
	CoachID       string         `json:"coach_id" gorm:"type:varchar(36);not null;index:idx_sessions_coach_date"`
	Room          string         `json:"room" gorm:"type:varchar(100);not null"`
	Date          timeslot.Date  `json:"date" gorm:"type:varchar(10);not null;index:idx_sessions_coach_date"`
	Start         timeslot.Clock `json:"start_time" gorm:"column:start_time;type:varchar(5);not null"`
	End           timeslot.Clock `json:"end_time" gorm:"column:end_time;type:varchar(5);not null"`
	Capacity      int            `json:"capacity" gorm:"not null"`
	EnrolledCount int            `json:"enrolled_count" gorm:"not null;default:0"`
	Completed     bool           `json:"completed" gorm:"not null;default:false"`
	Version       int            `json:"-" gorm:"not null;default:1"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	Coach *Coach `json:"coach,omitempty" gorm:"foreignKey:CoachID"`
}
