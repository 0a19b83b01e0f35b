package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusPending   BookingStatus = "PENDING"
	StatusCanceled  BookingStatus = "CANCELED"
	StatusCompleted BookingStatus = "COMPLETED"
)

// Bookings are never hard-deleted: CANCELED is the terminal state and the
// row keeps its place in the ledger.
type Booking struct {
	ID            string        `gorm:"type:uuid;primaryKey" json:"id"`
	BookingCode   string        `gorm:"uniqueIndex;not null" json:"booking_code"`
	UserID        string        `gorm:"type:uuid;not null;index" json:"user_id"`
	WorkshopID    string        `gorm:"type:uuid;not null;index" json:"workshop_id"`
	TimeSlotID    string        `gorm:"type:uuid;not null;index" json:"time_slot_id"`
	AttendeeName  string        `gorm:"not null" json:"attendee_name"`
	AttendeeEmail string        `gorm:"not null" json:"attendee_email"`
	NumAttendees  int           `gorm:"not null;default:1" json:"num_attendees"`
	Status        BookingStatus `gorm:"type:varchar(20);not null;default:'CONFIRMED'" json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Workshop *Workshop `gorm:"foreignKey:WorkshopID" json:"workshop,omitempty"`
	TimeSlot *TimeSlot `gorm:"foreignKey:TimeSlotID" json:"time_slot,omitempty"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
