package repository

import (
	"context"
	"time"

	"github.com/workshophub/workshop-booking/internal/models"
	"gorm.io/gorm"
)

// BookingFilter narrows the admin listing. Zero values mean "no filter".
type BookingFilter struct {
	Search     string
	Status     models.BookingStatus
	WorkshopID string
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	Limit      int
}

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	FindByCode(ctx context.Context, code string) (*models.Booking, error)
	FindByUser(ctx context.Context, userID string) ([]models.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]models.Booking, int64, error)
	ListRecent(ctx context.Context, limit int) ([]models.Booking, error)
	TransitionStatus(ctx context.Context, tx *gorm.DB, id string, from, to models.BookingStatus) (bool, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]any) (bool, error)
	MoveToSlot(ctx context.Context, tx *gorm.DB, id, oldSlotID, newSlotID string) (bool, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	CountAll(ctx context.Context) (int64, error)
	CountByStatusInRange(ctx context.Context, status models.BookingStatus, column string, from, to time.Time) (int64, error)
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByCode(ctx context.Context, code string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Workshop").
		Preload("TimeSlot").
		Preload("User").
		First(&booking, "booking_code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Workshop").
		Preload("TimeSlot").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) ([]models.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{})

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.WorkshopID != "" {
		q = q.Where("workshop_id = ?", filter.WorkshopID)
	}
	if filter.StartDate != nil && filter.EndDate != nil {
		q = q.Where("created_at BETWEEN ? AND ?", *filter.StartDate, *filter.EndDate)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(
			"attendee_name ILIKE ? OR attendee_email ILIKE ? OR booking_code ILIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	var bookings []models.Booking
	err := q.
		Preload("User").
		Preload("Workshop").
		Preload("TimeSlot").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *bookingRepository) ListRecent(ctx context.Context, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Workshop").
		Preload("TimeSlot").
		Order("created_at DESC").
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// TransitionStatus is a compare-and-swap on the status column: the update
// only lands if the booking is still in the expected prior state, which
// serializes racing transitions without a row lock.
func (r *bookingRepository) TransitionStatus(ctx context.Context, tx *gorm.DB, id string, from, to models.BookingStatus) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateFields applies field edits but never past the terminal state.
func (r *bookingRepository) UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]any) (bool, error) {
	fields["updated_at"] = time.Now()
	res := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status <> ?", id, models.StatusCanceled).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *bookingRepository) MoveToSlot(ctx context.Context, tx *gorm.DB, id, oldSlotID, newSlotID string) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND time_slot_id = ? AND status = ?", id, oldSlotID, models.StatusConfirmed).
		Updates(map[string]any{"time_slot_id": newSlotID, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *bookingRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("booking_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

func (r *bookingRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).Count(&count).Error
	return count, err
}

// CountByStatusInRange counts bookings in a time window; column selects
// which timestamp the window applies to (created_at for new bookings,
// updated_at for cancellations).
func (r *bookingRepository) CountByStatusInRange(ctx context.Context, status models.BookingStatus, column string, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("status = ?", status).
		Where(column+" >= ? AND "+column+" < ?", from, to).
		Count(&count).Error
	return count, err
}
