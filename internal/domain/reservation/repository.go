package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"gymplanner/internal/database"
	"gymplanner/internal/domain"
	"gymplanner/internal/repository"
)

// RosterEntry is one line of a session's attendee list.
type RosterEntry struct {
	ReservationID string    `db:"reservation_id" json:"reservation_id"`
	MemberID      string    `db:"member_id" json:"member_id"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	Email         string    `db:"email" json:"email"`
	Phone         string    `db:"phone" json:"phone,omitempty"`
	BookedAt      time.Time `db:"booked_at" json:"booked_at"`
	Present       *bool     `db:"present" json:"present,omitempty"`
}

// Repository keeps reservations and the enrolled count of their session in
// step. Writes go through gorm, the roster join through sqlx.
type Repository struct {
	db   *gorm.DB
	sqlx *sqlx.DB
}

func NewRepository(db *gorm.DB) (*Repository, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	return &Repository{
		db:   db,
		sqlx: sqlx.NewDb(sqlDB, database.Dialect(db)),
	}, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&res).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *Repository) FindByMemberAndSession(ctx context.Context, memberID, sessionID string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND session_id = ?", memberID, sessionID).
		First(&res).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *Repository) ListForMember(ctx context.Context, memberID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("session_date ASC, session_start ASC").
		Find(&out).Error
	return out, err
}

func (r *Repository) ListForSession(ctx context.Context, sessionID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("booked_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// Book takes a seat and inserts res in one transaction and returns the new
// enrolled count. The seat is only taken while enrolled_count < capacity.
func (r *Repository) Book(ctx context.Context, res *domain.Reservation) (int, error) {
	var enrolled int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upd := tx.Model(&domain.Session{}).
			Where("id = ? AND enrolled_count < capacity", res.SessionID).
			Updates(map[string]any{
				"enrolled_count": gorm.Expr("enrolled_count + 1"),
				"version":        gorm.Expr("version + 1"),
			})
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			if err := sessionExists(tx, res.SessionID); err != nil {
				return err
			}
			return ErrSessionFull
		}

		if err := tx.Create(res).Error; err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrAlreadyBooked
			}
			return err
		}
		return enrolledCount(tx, res.SessionID, &enrolled)
	})
	return enrolled, err
}

// Cancel deletes res and gives its seat back in one transaction. The count
// never drops below zero.
func (r *Repository) Cancel(ctx context.Context, res *domain.Reservation) (int, error) {
	var enrolled int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("id = ?", res.ID).Delete(&domain.Reservation{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			return ErrReservationNotFound
		}

		upd := tx.Model(&domain.Session{}).
			Where("id = ? AND enrolled_count > 0", res.SessionID).
			Updates(map[string]any{
				"enrolled_count": gorm.Expr("enrolled_count - 1"),
				"version":        gorm.Expr("version + 1"),
			})
		if upd.Error != nil {
			return upd.Error
		}
		err := enrolledCount(tx, res.SessionID, &enrolled)
		if errors.Is(err, ErrSessionMissing) {
			return nil
		}
		return err
	})
	return enrolled, err
}

func (r *Repository) MarkAttendance(ctx context.Context, id string, present bool) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("id = ?", id).
		Update("present", present)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReservationNotFound
	}
	return nil
}

const rosterQuery = `
	SELECT r.id AS reservation_id,
	       r.member_id,
	       COALESCE(u.first_name, '') AS first_name,
	       COALESCE(u.last_name, '') AS last_name,
	       COALESCE(u.email, '') AS email,
	       COALESCE(u.phone, '') AS phone,
	       r.booked_at,
	       r.present
	FROM reservations r
	LEFT JOIN users u ON u.id = r.member_id
	WHERE r.session_id = ?
	ORDER BY last_name ASC, first_name ASC, r.booked_at ASC`

// Roster lists the members booked on a session, by name.
func (r *Repository) Roster(ctx context.Context, sessionID string) ([]RosterEntry, error) {
	out := []RosterEntry{}
	if err := r.sqlx.SelectContext(ctx, &out, r.sqlx.Rebind(rosterQuery), sessionID); err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	return out, nil
}

func sessionExists(tx *gorm.DB, id string) error {
	var n int64
	if err := tx.Model(&domain.Session{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionMissing
	}
	return nil
}

func enrolledCount(tx *gorm.DB, sessionID string, dst *int) error {
	var row struct{ EnrolledCount int }
	err := tx.Model(&domain.Session{}).Select("enrolled_count").Where("id = ?", sessionID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionMissing
		}
		return err
	}
	*dst = row.EnrolledCount
	return nil
}
