package database

import (
	"log"

	"github.com/workshophub/workshop-booking/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Workshop{},
		&models.TimeSlot{},
		&models.Booking{},
		&models.Notification{},
		&models.Subscriber{},
	); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// available_spots must stay within [0, capacity] even if a write
	// slips past the ledger's conditional updates
	db.Exec(`ALTER TABLE time_slots DROP CONSTRAINT IF EXISTS chk_available_spots_range`)
	db.Exec(`
		ALTER TABLE time_slots
		ADD CONSTRAINT chk_available_spots_range
		CHECK (available_spots >= 0 AND available_spots <= capacity)
	`)

	return db
}
