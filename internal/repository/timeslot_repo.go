package repository

import (
	"context"

	"github.com/workshophub/workshop-booking/internal/models"
	"gorm.io/gorm"
)

// TimeSlotRepository is the only code path allowed to touch available_spots.
// Reserve and Release are conditional single-row updates: the WHERE clause
// carries the capacity bound, so the counter can never leave [0, capacity]
// no matter how many requests race.
type TimeSlotRepository interface {
	Create(ctx context.Context, slot *models.TimeSlot) error
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	List(ctx context.Context, workshopID string) ([]models.TimeSlot, error)
	UpdateTimes(ctx context.Context, id, startTime, endTime string) error
	Resize(ctx context.Context, id string, newCapacity int) error
	SoftDelete(ctx context.Context, id string) error
	ReserveSpot(ctx context.Context, tx *gorm.DB, id string) (bool, error)
	ReleaseSpot(ctx context.Context, tx *gorm.DB, id string) (bool, error)
	SumAvailableSpots(ctx context.Context) (int64, error)
	GetDB() *gorm.DB
}

type timeSlotRepository struct {
	db *gorm.DB
}

func NewTimeSlotRepository(db *gorm.DB) TimeSlotRepository {
	return &timeSlotRepository{db: db}
}

func (r *timeSlotRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *timeSlotRepository) Create(ctx context.Context, slot *models.TimeSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *timeSlotRepository) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	if err := r.db.WithContext(ctx).Preload("Workshop").First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *timeSlotRepository) List(ctx context.Context, workshopID string) ([]models.TimeSlot, error) {
	var slots []models.TimeSlot
	q := r.db.WithContext(ctx).Preload("Workshop").Order("created_at DESC")
	if workshopID != "" {
		q = q.Where("workshop_id = ?", workshopID)
	}
	if err := q.Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *timeSlotRepository) UpdateTimes(ctx context.Context, id, startTime, endTime string) error {
	return r.db.WithContext(ctx).
		Model(&models.TimeSlot{}).
		Where("id = ?", id).
		Updates(map[string]any{"start_time": startTime, "end_time": endTime}).Error
}

// Resize shifts capacity and available_spots by the same delta in a single
// statement, clamped to [0, newCapacity], so it cannot race with the
// ledger's reserve/release updates.
func (r *timeSlotRepository) Resize(ctx context.Context, id string, newCapacity int) error {
	return r.db.WithContext(ctx).
		Model(&models.TimeSlot{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"available_spots": gorm.Expr(
				"LEAST(GREATEST(available_spots + ? - capacity, 0), ?)",
				newCapacity, newCapacity,
			),
			"capacity": newCapacity,
		}).Error
}

func (r *timeSlotRepository) SoftDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.TimeSlot{}, "id = ?", id).Error
}

// ReserveSpot decrements available_spots iff at least one spot remains.
// Returns false when the slot is full, deleted, or missing.
func (r *timeSlotRepository) ReserveSpot(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.TimeSlot{}).
		Where("id = ? AND available_spots > 0", id).
		UpdateColumn("available_spots", gorm.Expr("available_spots - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReleaseSpot increments available_spots iff it is below the slot's capacity,
// so repeated releases cannot overshoot the initial capacity. Unscoped: a
// cancellation must return the spot even after the slot was soft-deleted.
func (r *timeSlotRepository) ReleaseSpot(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	res := tx.WithContext(ctx).Unscoped().
		Model(&models.TimeSlot{}).
		Where("id = ? AND available_spots < capacity", id).
		UpdateColumn("available_spots", gorm.Expr("available_spots + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *timeSlotRepository) SumAvailableSpots(ctx context.Context) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&models.TimeSlot{}).
		Select("COALESCE(SUM(available_spots), 0)").
		Scan(&sum).Error
	return sum, err
}
