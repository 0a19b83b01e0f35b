package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/workshophub/workshop-booking/internal/dto"
	"github.com/workshophub/workshop-booking/internal/models"
	"github.com/workshophub/workshop-booking/internal/repository"
	"gorm.io/gorm"
)

// TimeSlotFilter narrows the admin slot listing. Status accepts
// "Available" / "Booked".
type TimeSlotFilter struct {
	Search     string
	WorkshopID string
	Status     string
}

type TimeSlotService interface {
	Create(ctx context.Context, req dto.TimeSlotRequest) (*models.TimeSlot, error)
	List(ctx context.Context, filter TimeSlotFilter) ([]models.TimeSlot, error)
	Update(ctx context.Context, id string, req dto.TimeSlotRequest) (*models.TimeSlot, error)
	Delete(ctx context.Context, id string) error
}

type timeSlotService struct {
	slots     repository.TimeSlotRepository
	workshops repository.WorkshopRepository
	validate  *validator.Validate
}

func NewTimeSlotService(slots repository.TimeSlotRepository, workshops repository.WorkshopRepository) TimeSlotService {
	return &timeSlotService{slots: slots, workshops: workshops, validate: validator.New()}
}

func (s *timeSlotService) Create(ctx context.Context, req dto.TimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := s.workshops.FindByID(ctx, req.WorkshopID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkshopNotFound
		}
		return nil, err
	}

	slot := &models.TimeSlot{
		WorkshopID:     req.WorkshopID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Capacity:       req.Capacity,
		AvailableSpots: req.Capacity,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}
	return s.slots.FindByID(ctx, slot.ID)
}

func (s *timeSlotService) List(ctx context.Context, filter TimeSlotFilter) ([]models.TimeSlot, error) {
	slots, err := s.slots.List(ctx, filter.WorkshopID)
	if err != nil {
		return nil, err
	}

	out := slots[:0]
	for _, slot := range slots {
		if filter.Status == "Available" && slot.AvailableSpots == 0 {
			continue
		}
		if filter.Status == "Booked" && slot.AvailableSpots > 0 {
			continue
		}
		if filter.Search != "" && !slotMatches(&slot, filter.Search) {
			continue
		}
		out = append(out, slot)
	}
	return out, nil
}

func slotMatches(slot *models.TimeSlot, search string) bool {
	search = strings.ToLower(search)
	if slot.Workshop != nil && strings.Contains(strings.ToLower(slot.Workshop.Title), search) {
		return true
	}
	return strings.Contains(strings.ToLower(slot.StartTime), search) ||
		strings.Contains(strings.ToLower(slot.EndTime), search)
}

// Update edits the slot's times and capacity. The capacity change goes
// through Resize so available_spots shifts by the same delta without ever
// clobbering concurrent ledger writes.
func (s *timeSlotService) Update(ctx context.Context, id string, req dto.TimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	slot.StartTime = req.StartTime
	slot.EndTime = req.EndTime
	if err := s.slots.UpdateTimes(ctx, id, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if req.Capacity != slot.Capacity {
		if err := s.slots.Resize(ctx, id, req.Capacity); err != nil {
			return nil, err
		}
	}
	return s.slots.FindByID(ctx, id)
}

func (s *timeSlotService) Delete(ctx context.Context, id string) error {
	if _, err := s.slots.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSlotNotFound
		}
		return err
	}
	return s.slots.SoftDelete(ctx, id)
}
