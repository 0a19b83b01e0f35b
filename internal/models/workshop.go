package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkshopStatus string

const (
	WorkshopActive    WorkshopStatus = "Active"
	WorkshopCompleted WorkshopStatus = "Completed"
	WorkshopDraft     WorkshopStatus = "Draft"
)

type Workshop struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Instructor  string         `json:"instructor"`
	Category    string         `json:"category"`
	Price       float64        `json:"price"`
	Capacity    int            `gorm:"not null" json:"capacity"`
	Date        *time.Time     `json:"date,omitempty"`
	Status      WorkshopStatus `gorm:"type:varchar(20);not null;default:'Active'" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	TimeSlots []TimeSlot `gorm:"foreignKey:WorkshopID" json:"time_slots,omitempty"`
}

func (w *Workshop) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// TimeSlot carries both the initial capacity and the live counter so the
// ledger can enforce 0 <= available_spots <= capacity in SQL.
type TimeSlot struct {
	ID             string         `gorm:"type:uuid;primaryKey" json:"id"`
	WorkshopID     string         `gorm:"type:uuid;not null;index" json:"workshop_id"`
	StartTime      string         `gorm:"not null" json:"start_time"`
	EndTime        string         `gorm:"not null" json:"end_time"`
	Capacity       int            `gorm:"not null" json:"capacity"`
	AvailableSpots int            `gorm:"not null" json:"available_spots"`
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Workshop *Workshop `gorm:"foreignKey:WorkshopID" json:"workshop,omitempty"`
	Bookings []Booking `gorm:"foreignKey:TimeSlotID" json:"bookings,omitempty"`
}

func (s *TimeSlot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
