package coach

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gymplanner/internal/domain"
	"gymplanner/internal/repository"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func preloadWindows(db *gorm.DB) *gorm.DB {
	return db.Order("weekday ASC, start_time ASC")
}

// GetByID loads the coach with specialties and availability.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Coach, error) {
	var c domain.Coach
	err := r.db.WithContext(ctx).
		Preload("Specialties").
		Preload("Availability", preloadWindows).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) GetByUserID(ctx context.Context, userID string) (*domain.Coach, error) {
	var c domain.Coach
	err := r.db.WithContext(ctx).
		Preload("Specialties").
		Where("user_id = ?", userID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Coach, error) {
	var out []domain.Coach
	err := r.db.WithContext(ctx).
		Preload("Specialties").
		Order("name ASC").
		Find(&out).Error
	return out, err
}

func (r *Repository) GetSpecialties(ctx context.Context, coachID string) ([]domain.Specialty, error) {
	var out []domain.Specialty
	err := r.db.WithContext(ctx).
		Model(&domain.CoachSpecialty{}).
		Where("coach_id = ?", coachID).
		Order("specialty ASC").
		Pluck("specialty", &out).Error
	return out, err
}

func (r *Repository) GetAvailability(ctx context.Context, coachID string) ([]domain.AvailabilityWindow, error) {
	var out []domain.AvailabilityWindow
	err := preloadWindows(r.db.WithContext(ctx)).
		Where("coach_id = ?", coachID).
		Find(&out).Error
	return out, err
}

// Create inserts the coach together with its specialty rows.
func (r *Repository) Create(ctx context.Context, c *domain.Coach) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(c).Error
	})
	if repository.IsUniqueViolation(err) {
		return ErrUserAlreadyLinked
	}
	return err
}

// ReplaceAvailability swaps the coach's weekly windows in one transaction.
func (r *Repository) ReplaceAvailability(ctx context.Context, coachID string, windows []domain.AvailabilityWindow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Coach{}).Where("id = ?", coachID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrCoachNotFound
		}

		if err := tx.Where("coach_id = ?", coachID).Delete(&domain.AvailabilityWindow{}).Error; err != nil {
			return err
		}
		if len(windows) == 0 {
			return nil
		}
		return tx.Create(&windows).Error
	})
}
