package repository

import (
	"context"

	"github.com/workshophub/workshop-booking/internal/models"
	"gorm.io/gorm"
)

type SubscriberRepository interface {
	Create(ctx context.Context, sub *models.Subscriber) error
	EmailExists(ctx context.Context, email string) (bool, error)
}

type subscriberRepository struct {
	db *gorm.DB
}

func NewSubscriberRepository(db *gorm.DB) SubscriberRepository {
	return &subscriberRepository{db: db}
}

func (r *subscriberRepository) Create(ctx context.Context, sub *models.Subscriber) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriberRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Subscriber{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}
