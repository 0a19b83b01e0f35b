package service

import (
	"context"
	"time"

	"github.com/workshophub/workshop-booking/internal/dto"
	"github.com/workshophub/workshop-booking/internal/models"
	"github.com/workshophub/workshop-booking/internal/repository"
)

type StatsService interface {
	Overview(ctx context.Context) (*dto.StatsOverviewResponse, error)
	Monthly(ctx context.Context) ([]dto.MonthlyStatsEntry, error)
	Popularity(ctx context.Context) ([]dto.CategoryStatsEntry, error)
	RecentBookings(ctx context.Context) ([]dto.RecentBookingEntry, error)
}

type statsService struct {
	bookings  repository.BookingRepository
	workshops repository.WorkshopRepository
	slots     repository.TimeSlotRepository
}

func NewStatsService(bookings repository.BookingRepository, workshops repository.WorkshopRepository, slots repository.TimeSlotRepository) StatsService {
	return &statsService{bookings: bookings, workshops: workshops, slots: slots}
}

func (s *statsService) Overview(ctx context.Context) (*dto.StatsOverviewResponse, error) {
	totalBookings, err := s.bookings.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	activeWorkshops, err := s.workshops.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	availableSlots, err := s.slots.SumAvailableSpots(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.workshops.SumBookedRevenue(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.StatsOverviewResponse{
		TotalBookings:   totalBookings,
		ActiveWorkshops: activeWorkshops,
		AvailableSlots:  availableSlots,
		Revenue:         revenue,
	}, nil
}

// Monthly returns confirmed bookings and cancellations per month for the
// last six months. Cancellations are windowed on updated_at since that is
// when the terminal transition happened.
func (s *statsService) Monthly(ctx context.Context) ([]dto.MonthlyStatsEntry, error) {
	now := time.Now()
	entries := make([]dto.MonthlyStatsEntry, 0, 6)

	for i := 5; i >= 0; i-- {
		from := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, time.Local)
		to := from.AddDate(0, 1, 0)

		bookings, err := s.bookings.CountByStatusInRange(ctx, models.StatusConfirmed, "created_at", from, to)
		if err != nil {
			return nil, err
		}
		cancellations, err := s.bookings.CountByStatusInRange(ctx, models.StatusCanceled, "updated_at", from, to)
		if err != nil {
			return nil, err
		}

		entries = append(entries, dto.MonthlyStatsEntry{
			Month:         from.Format("Jan"),
			Bookings:      bookings,
			Cancellations: cancellations,
		})
	}
	return entries, nil
}

func (s *statsService) Popularity(ctx context.Context) ([]dto.CategoryStatsEntry, error) {
	counts, err := s.workshops.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]dto.CategoryStatsEntry, len(counts))
	for i, c := range counts {
		entries[i] = dto.CategoryStatsEntry{Name: c.Category, Value: c.Count}
	}
	return entries, nil
}

func (s *statsService) RecentBookings(ctx context.Context) ([]dto.RecentBookingEntry, error) {
	bookings, err := s.bookings.ListRecent(ctx, 8)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.RecentBookingEntry, len(bookings))
	for i, b := range bookings {
		entry := dto.RecentBookingEntry{
			ID:       b.BookingCode,
			Customer: b.AttendeeName,
			Status:   b.Status,
		}
		if entry.Customer == "" && b.User != nil {
			entry.Customer = b.User.Name
		}
		if b.Workshop != nil {
			entry.Workshop = b.Workshop.Title
		}
		if b.TimeSlot != nil {
			entry.Time = b.TimeSlot.StartTime
		}
		entries[i] = entry
	}
	return entries, nil
}
