package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/workshophub/workshop-booking/internal/dto"
	"github.com/workshophub/workshop-booking/internal/models"
	"github.com/workshophub/workshop-booking/internal/repository"
	"gorm.io/gorm"
)

type WorkshopService interface {
	Create(ctx context.Context, req dto.WorkshopRequest) (*models.Workshop, error)
	Get(ctx context.Context, id string) (*models.Workshop, error)
	List(ctx context.Context, filter repository.WorkshopFilter) ([]models.Workshop, int64, error)
	Update(ctx context.Context, id string, req dto.WorkshopRequest) (*models.Workshop, error)
	Delete(ctx context.Context, id string) error
}

type workshopService struct {
	workshops repository.WorkshopRepository
	validate  *validator.Validate
}

func NewWorkshopService(workshops repository.WorkshopRepository) WorkshopService {
	return &workshopService{workshops: workshops, validate: validator.New()}
}

func (s *workshopService) Create(ctx context.Context, req dto.WorkshopRequest) (*models.Workshop, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	workshop := &models.Workshop{
		Title:       req.Title,
		Description: req.Description,
		Instructor:  req.Instructor,
		Category:    req.Category,
		Price:       req.Price,
		Capacity:    req.Capacity,
		Status:      models.WorkshopActive,
	}
	if req.Status != nil {
		workshop.Status = *req.Status
	}
	if req.Date != "" {
		date, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date", ErrValidation)
		}
		workshop.Date = &date
	}

	if err := s.workshops.Create(ctx, workshop); err != nil {
		return nil, err
	}
	return workshop, nil
}

func (s *workshopService) Get(ctx context.Context, id string) (*models.Workshop, error) {
	workshop, err := s.workshops.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkshopNotFound
		}
		return nil, err
	}
	return workshop, nil
}

func (s *workshopService) List(ctx context.Context, filter repository.WorkshopFilter) ([]models.Workshop, int64, error) {
	return s.workshops.List(ctx, filter)
}

func (s *workshopService) Update(ctx context.Context, id string, req dto.WorkshopRequest) (*models.Workshop, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	workshop, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	workshop.Title = req.Title
	workshop.Description = req.Description
	workshop.Instructor = req.Instructor
	workshop.Category = req.Category
	workshop.Price = req.Price
	workshop.Capacity = req.Capacity
	if req.Status != nil {
		workshop.Status = *req.Status
	}
	if req.Date != "" {
		date, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date", ErrValidation)
		}
		workshop.Date = &date
	}

	if err := s.workshops.Update(ctx, workshop); err != nil {
		return nil, err
	}
	return workshop, nil
}

func (s *workshopService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.workshops.SoftDelete(ctx, id)
}
