package session

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gymplanner/internal/domain"
	"gymplanner/internal/pkg/timeslot"
)

// Filter narrows List. Zero values mean no filter.
type Filter struct {
	Date    *timeslot.Date
	From    *timeslot.Date
	CoachID string
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).Preload("Coach").Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListForCoachOnDate returns the coach's sessions on date in start order.
func (r *Repository) ListForCoachOnDate(ctx context.Context, coachID string, date timeslot.Date) ([]domain.Session, error) {
	var out []domain.Session
	err := r.db.WithContext(ctx).
		Where("coach_id = ? AND date = ?", coachID, date).
		Order("start_time ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *Repository) ListByIDs(ctx context.Context, ids []string) ([]domain.Session, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []domain.Session
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("date ASC, start_time ASC").
		Find(&out).Error
	return out, err
}

// List orders by date then start time. Dates are stored as YYYY-MM-DD text,
// so lexical order is calendar order.
func (r *Repository) List(ctx context.Context, f Filter) ([]domain.Session, error) {
	q := r.db.WithContext(ctx).Preload("Coach")
	if f.Date != nil {
		q = q.Where("date = ?", *f.Date)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.CoachID != "" {
		q = q.Where("coach_id = ?", f.CoachID)
	}

	var out []domain.Session
	err := q.Order("date ASC, start_time ASC, id ASC").Find(&out).Error
	return out, err
}

func (r *Repository) Create(ctx context.Context, s *domain.Session) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
}

// Update writes the schedulable fields of s. The write only happens while the
// stored enrolled count still fits the new capacity; enrolled count and the
// completed flag are never taken from s.
func (r *Repository) Update(ctx context.Context, s *domain.Session) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Session{}).
			Where("id = ? AND enrolled_count <= ?", s.ID, s.Capacity).
			Updates(map[string]any{
				"activity":   s.Activity,
				"coach_id":   s.CoachID,
				"room":       s.Room,
				"date":       s.Date,
				"start_time": s.Start,
				"end_time":   s.End,
				"capacity":   s.Capacity,
				"version":    gorm.Expr("version + 1"),
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&domain.Session{}).Where("id = ?", s.ID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrSessionNotFound
			}
			return ErrCapacityBelowEnrolled
		}
		return nil
	})
}

func (r *Repository) MarkCompleted(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"completed":  true,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes the session and every reservation made for it.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&domain.Reservation{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Session{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
}
