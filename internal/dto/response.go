package dto

import (
	"time"

	"github.com/workshophub/workshop-booking/internal/models"
)

type ConfirmationResponse struct {
	ConfirmationID string `json:"confirmationId"`
}

type BookingResponse struct {
	ID            string               `json:"id"`
	BookingCode   string               `json:"booking_code"`
	UserID        string               `json:"user_id"`
	WorkshopID    string               `json:"workshop_id"`
	TimeSlotID    string               `json:"time_slot_id"`
	AttendeeName  string               `json:"attendee_name"`
	AttendeeEmail string               `json:"attendee_email"`
	NumAttendees  int                  `json:"num_attendees"`
	Status        models.BookingStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`

	Workshop *models.Workshop `json:"workshop,omitempty"`
	TimeSlot *models.TimeSlot `json:"time_slot,omitempty"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int64             `json:"total"`
}

type WorkshopListResponse struct {
	Workshops []models.Workshop `json:"workshops"`
	Total     int64             `json:"total"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

type UserInfo struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Email  string            `json:"email"`
	Role   models.Role       `json:"role"`
	Status models.UserStatus `json:"status"`
}

type StatsOverviewResponse struct {
	TotalBookings   int64   `json:"totalBookings"`
	ActiveWorkshops int64   `json:"activeWorkshops"`
	AvailableSlots  int64   `json:"availableSlots"`
	Revenue         float64 `json:"revenue"`
}

type MonthlyStatsEntry struct {
	Month         string `json:"month"`
	Bookings      int64  `json:"bookings"`
	Cancellations int64  `json:"cancellations"`
}

type CategoryStatsEntry struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

type RecentBookingEntry struct {
	ID       string               `json:"id"`
	Customer string               `json:"customer"`
	Workshop string               `json:"workshop"`
	Time     string               `json:"time"`
	Status   models.BookingStatus `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		BookingCode:   b.BookingCode,
		UserID:        b.UserID,
		WorkshopID:    b.WorkshopID,
		TimeSlotID:    b.TimeSlotID,
		AttendeeName:  b.AttendeeName,
		AttendeeEmail: b.AttendeeEmail,
		NumAttendees:  b.NumAttendees,
		Status:        b.Status,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
		Workshop:      b.Workshop,
		TimeSlot:      b.TimeSlot,
	}
}

func ToUserInfo(u *models.User) UserInfo {
	return UserInfo{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Status: u.Status,
	}
}
