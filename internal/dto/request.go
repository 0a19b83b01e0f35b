package dto

import "github.com/workshophub/workshop-booking/internal/models"

type CreateBookingRequest struct {
	WorkshopID    string `json:"workshopId" validate:"required"`
	TimeSlotID    string `json:"timeSlotId" validate:"required"`
	AttendeeName  string `json:"attendeeName" validate:"required,min=2"`
	AttendeeEmail string `json:"attendeeEmail" validate:"required,email"`
}

// UpdateBookingRequest uses pointers so "absent" and "empty" stay distinct.
// Status and NumAttendees are admin-only; the ledger enforces that.
type UpdateBookingRequest struct {
	AttendeeName  *string               `json:"attendeeName,omitempty" validate:"omitempty,min=2"`
	AttendeeEmail *string               `json:"attendeeEmail,omitempty" validate:"omitempty,email"`
	Status        *models.BookingStatus `json:"status,omitempty"`
	NumAttendees  *int                  `json:"numAttendees,omitempty" validate:"omitempty,gt=0"`
}

type ReassignTimeSlotRequest struct {
	TimeSlotID string `json:"timeSlotId" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type WorkshopRequest struct {
	Title       string                 `json:"title" validate:"required,min=2"`
	Description string                 `json:"description"`
	Instructor  string                 `json:"instructor"`
	Category    string                 `json:"category"`
	Price       float64                `json:"price" validate:"gte=0"`
	Capacity    int                    `json:"maxCapacity" validate:"required,gt=0"`
	Date        string                 `json:"date,omitempty"`
	Status      *models.WorkshopStatus `json:"status,omitempty" validate:"omitempty,oneof=Active Completed Draft"`
}

type TimeSlotRequest struct {
	WorkshopID string `json:"workshopId" validate:"required"`
	StartTime  string `json:"startTime" validate:"required"`
	EndTime    string `json:"endTime" validate:"required"`
	Capacity   int    `json:"availableSpots" validate:"required,gte=0"`
}
