package repository

import (
	"context"

	"github.com/workshophub/workshop-booking/internal/models"
	"gorm.io/gorm"
)

type WorkshopFilter struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

type WorkshopRepository interface {
	Create(ctx context.Context, workshop *models.Workshop) error
	FindByID(ctx context.Context, id string) (*models.Workshop, error)
	List(ctx context.Context, filter WorkshopFilter) ([]models.Workshop, int64, error)
	Update(ctx context.Context, workshop *models.Workshop) error
	SoftDelete(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context) ([]CategoryCount, error)
	SumBookedRevenue(ctx context.Context) (float64, error)
}

type CategoryCount struct {
	Category string
	Count    int64
}

type workshopRepository struct {
	db *gorm.DB
}

func NewWorkshopRepository(db *gorm.DB) WorkshopRepository {
	return &workshopRepository{db: db}
}

func (r *workshopRepository) Create(ctx context.Context, workshop *models.Workshop) error {
	return r.db.WithContext(ctx).Create(workshop).Error
}

func (r *workshopRepository) FindByID(ctx context.Context, id string) (*models.Workshop, error) {
	var workshop models.Workshop
	err := r.db.WithContext(ctx).
		Preload("TimeSlots").
		First(&workshop, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &workshop, nil
}

func (r *workshopRepository) List(ctx context.Context, filter WorkshopFilter) ([]models.Workshop, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Workshop{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 8
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	var workshops []models.Workshop
	err := q.
		Preload("TimeSlots").
		Order("date ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&workshops).Error
	if err != nil {
		return nil, 0, err
	}
	return workshops, total, nil
}

func (r *workshopRepository) Update(ctx context.Context, workshop *models.Workshop) error {
	return r.db.WithContext(ctx).Save(workshop).Error
}

func (r *workshopRepository) SoftDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Workshop{}, "id = ?", id).Error
}

func (r *workshopRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Workshop{}).Count(&count).Error
	return count, err
}

func (r *workshopRepository) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.db.WithContext(ctx).
		Model(&models.Workshop{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Scan(&rows).Error
	return rows, err
}

// SumBookedRevenue totals the price of workshops that have at least one booking.
func (r *workshopRepository) SumBookedRevenue(ctx context.Context) (float64, error) {
	var revenue float64
	err := r.db.WithContext(ctx).
		Model(&models.Workshop{}).
		Select("COALESCE(SUM(price), 0)").
		Where("id IN (?)", r.db.Model(&models.Booking{}).Select("DISTINCT workshop_id")).
		Scan(&revenue).Error
	return revenue, err
}
