package domain

import (
	"time"

	"gymplanner/internal/pkg/timeslot"
)

// Specialty is one of the fixed domains of competence a coach can declare.
type Specialty string

const (
	SpecialtyMusculation Specialty = "Musculation"
	SpecialtyCrossFit    Specialty = "CrossFit"
	SpecialtyYoga        Specialty = "Yoga"
	SpecialtyZumba       Specialty = "Zumba"
	SpecialtyBoxe        Specialty = "Boxe"
	SpecialtyPilates     Specialty = "Pilates"
)

// Specialties lists the vocabulary in display order.
var Specialties = []Specialty{
	SpecialtyMusculation,
	SpecialtyCrossFit,
	SpecialtyYoga,
	SpecialtyZumba,
	SpecialtyBoxe,
	SpecialtyPilates,
}

func (s Specialty) Valid() bool {
	for _, v := range Specialties {
		if v == s {
			return true
		}
	}
	return false
}

const MaxCoachSpecialties = 2

type Coach struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    *string   `json:"user_id,omitempty" gorm:"type:varchar(36);uniqueIndex"`
	Name      string    `json:"name" gorm:"type:varchar(200);not null"`
	Phone     string    `json:"phone,omitempty" gorm:"type:varchar(30)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Specialties  []CoachSpecialty     `json:"specialties,omitempty" gorm:"foreignKey:CoachID;constraint:OnDelete:CASCADE"`
	Availability []AvailabilityWindow `json:"availability,omitempty" gorm:"foreignKey:CoachID;constraint:OnDelete:CASCADE"`
}

// SpecialtyNames flattens the loaded specialty rows.
func (c *Coach) SpecialtyNames() []Specialty {
	out := make([]Specialty, 0, len(c.Specialties))
	for _, s := range c.Specialties {
		out = append(out, s.Specialty)
	}
	return out
}

type CoachSpecialty struct {
	CoachID   string    `json:"-" gorm:"primaryKey;type:varchar(36)"`
	Specialty Specialty `json:"specialty" gorm:"primaryKey;type:varchar(30)"`
}

func (CoachSpecialty) TableName() string { return "coach_specialties" }

// AvailabilityWindow is a recurring weekly range in which the coach may be
// scheduled. Weekday follows time.Weekday: 0 is Sunday.
type AvailabilityWindow struct {
	ID      string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CoachID string         `json:"coach_id" gorm:"type:varchar(36);index;not null"`
	Weekday int            `json:"weekday" gorm:"not null"`
	Start   timeslot.Clock `json:"start_time" gorm:"column:start_time;type:varchar(5);not null"`
	End     timeslot.Clock `json:"end_time" gorm:"column:end_time;type:varchar(5);not null"`
}

func (AvailabilityWindow) TableName() string { return "availability_windows" }
