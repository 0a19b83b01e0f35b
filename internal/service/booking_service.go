package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/workshophub/workshop-booking/internal/dto"
	"github.com/workshophub/workshop-booking/internal/models"
	"github.com/workshophub/workshop-booking/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrValidation           = errors.New("invalid input")
	ErrWorkshopNotFound     = errors.New("workshop not found")
	ErrSlotNotFound         = errors.New("time slot not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrForbidden            = errors.New("forbidden")
	ErrCapacityExhausted    = errors.New("no spots available for this time slot")
	ErrAlreadyCanceled      = errors.New("booking already canceled")
	ErrImmutableAfterCancel = errors.New("canceled bookings cannot be modified")
	ErrConflict             = errors.New("booking conflict, please retry")
)

// maxTxRetries bounds re-runs of a transaction that failed on a
// serialization error or deadlock before ErrConflict surfaces.
const maxTxRetries = 3

const maxCodeAttempts = 5

// EventPublisher emits booking events after a successful commit. A nil
// publisher disables emission; failures are logged, never propagated.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// BookingEvent is the payload for booking.created / booking.canceled.
type BookingEvent struct {
	BookingID     string `json:"booking_id"`
	BookingCode   string `json:"booking_code"`
	AttendeeName  string `json:"attendee_name"`
	WorkshopID    string `json:"workshop_id"`
	WorkshopTitle string `json:"workshop_title"`
}

// BookingService is the booking-slot ledger: every mutation of a time
// slot's available_spots counter goes through one of these operations,
// each all-or-nothing with respect to the store.
type BookingService interface {
	CreateBooking(ctx context.Context, userID string, req dto.CreateBookingRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID, actingUserID string, isAdmin bool) error
	EditBooking(ctx context.Context, bookingID, actingUserID string, isAdmin bool, req dto.UpdateBookingRequest) (*models.Booking, error)
	ReassignTimeSlot(ctx context.Context, bookingID, actingUserID string, isAdmin bool, newSlotID string) (*models.Booking, error)
	GetByCode(ctx context.Context, code string) (*models.Booking, error)
	ListForUser(ctx context.Context, userID string) ([]models.Booking, error)
	List(ctx context.Context, filter repository.BookingFilter) ([]models.Booking, int64, error)
}

type bookingService struct {
	bookings  repository.BookingRepository
	slots     repository.TimeSlotRepository
	publisher EventPublisher
	validate  *validator.Validate
}

func NewBookingService(bookings repository.BookingRepository, slots repository.TimeSlotRepository, publisher EventPublisher) BookingService {
	return &bookingService{
		bookings:  bookings,
		slots:     slots,
		publisher: publisher,
		validate:  validator.New(),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, userID string, req dto.CreateBookingRequest) (*models.Booking, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	slot, err := s.slots.FindByID(ctx, req.TimeSlotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	if slot.WorkshopID != req.WorkshopID {
		return nil, fmt.Errorf("%w: time slot does not belong to the given workshop", ErrValidation)
	}
	// Fast-path check; the conditional decrement below is authoritative.
	if slot.AvailableSpots < 1 {
		return nil, ErrCapacityExhausted
	}

	booking := &models.Booking{
		UserID:        userID,
		WorkshopID:    req.WorkshopID,
		TimeSlotID:    req.TimeSlotID,
		AttendeeName:  req.AttendeeName,
		AttendeeEmail: req.AttendeeEmail,
		NumAttendees:  1,
		Status:        models.StatusConfirmed,
	}

	// The CodeExists pre-check keeps collisions rare; the unique index on
	// booking_code is authoritative. Losing that race rolls back the whole
	// transaction (reserve included), so we roll a new code and go again.
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.uniqueBookingCode(ctx)
		if err != nil {
			return nil, err
		}
		booking.BookingCode = code

		err = s.inTx(ctx, func(tx *gorm.DB) error {
			reserved, err := s.slots.ReserveSpot(ctx, tx, req.TimeSlotID)
			if err != nil {
				return err
			}
			if !reserved {
				return ErrCapacityExhausted
			}
			return s.bookings.Create(ctx, tx, booking)
		})
		if duplicateCodeError(err) {
			booking.ID = ""
			continue
		}
		if err != nil {
			return nil, err
		}

		created, err := s.bookings.FindByCode(ctx, booking.BookingCode)
		if err != nil {
			return nil, err
		}

		s.emit(ctx, "booking.created", created)
		return created, nil
	}
	return nil, errors.New("could not generate a unique booking code")
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID, actingUserID string, isAdmin bool) error {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	if !isAdmin && booking.UserID != actingUserID {
		return ErrForbidden
	}
	if booking.Status == models.StatusCanceled {
		return ErrAlreadyCanceled
	}

	err = s.inTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.bookings.TransitionStatus(ctx, tx, bookingID, booking.Status, models.StatusCanceled)
		if err != nil {
			return err
		}
		if !moved {
			// Another request changed the status since our read.
			return ErrAlreadyCanceled
		}
		// Only a CONFIRMED booking holds a reserved spot.
		if booking.Status == models.StatusConfirmed {
			released, err := s.slots.ReleaseSpot(ctx, tx, booking.TimeSlotID)
			if err != nil {
				return err
			}
			if !released {
				return fmt.Errorf("time slot %s counter out of bounds on release", booking.TimeSlotID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, "booking.canceled", booking)
	return nil
}

func (s *bookingService) EditBooking(ctx context.Context, bookingID, actingUserID string, isAdmin bool, req dto.UpdateBookingRequest) (*models.Booking, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !isAdmin && booking.UserID != actingUserID {
		return nil, ErrForbidden
	}
	if booking.Status == models.StatusCanceled {
		return nil, ErrImmutableAfterCancel
	}
	if !isAdmin && (req.Status != nil || req.NumAttendees != nil) {
		return nil, ErrForbidden
	}

	fields := map[string]any{}
	if req.AttendeeName != nil {
		fields["attendee_name"] = *req.AttendeeName
	}
	if req.AttendeeEmail != nil {
		fields["attendee_email"] = *req.AttendeeEmail
	}
	if req.NumAttendees != nil {
		fields["num_attendees"] = *req.NumAttendees
	}

	var newStatus *models.BookingStatus
	if req.Status != nil && *req.Status != booking.Status {
		switch *req.Status {
		case models.StatusConfirmed, models.StatusPending, models.StatusCanceled, models.StatusCompleted:
			newStatus = req.Status
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
		}
	}

	err = s.inTx(ctx, func(tx *gorm.DB) error {
		// Field edits go first: the guard on UpdateFields still sees the
		// pre-transition status.
		if len(fields) > 0 {
			ok, err := s.bookings.UpdateFields(ctx, tx, bookingID, fields)
			if err != nil {
				return err
			}
			if !ok {
				return ErrImmutableAfterCancel
			}
		}

		if newStatus == nil {
			return nil
		}

		moved, err := s.bookings.TransitionStatus(ctx, tx, bookingID, booking.Status, *newStatus)
		if err != nil {
			return err
		}
		if !moved {
			return ErrConflict
		}

		// Status changes touching CONFIRMED route through the same counter
		// logic as create/cancel; no bare status write may move a seat.
		switch {
		case booking.Status == models.StatusConfirmed && *newStatus == models.StatusCanceled:
			released, err := s.slots.ReleaseSpot(ctx, tx, booking.TimeSlotID)
			if err != nil {
				return err
			}
			if !released {
				return fmt.Errorf("time slot %s counter out of bounds on release", booking.TimeSlotID)
			}
		case booking.Status != models.StatusConfirmed && *newStatus == models.StatusConfirmed:
			reserved, err := s.slots.ReserveSpot(ctx, tx, booking.TimeSlotID)
			if err != nil {
				return err
			}
			if !reserved {
				return ErrCapacityExhausted
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if newStatus != nil && *newStatus == models.StatusCanceled {
		s.emit(ctx, "booking.canceled", updated)
	}
	return updated, nil
}

func (s *bookingService) ReassignTimeSlot(ctx context.Context, bookingID, actingUserID string, isAdmin bool, newSlotID string) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !isAdmin && booking.UserID != actingUserID {
		return nil, ErrForbidden
	}
	if booking.Status == models.StatusCanceled {
		return nil, ErrImmutableAfterCancel
	}
	if booking.Status != models.StatusConfirmed {
		return nil, fmt.Errorf("%w: only confirmed bookings can change time slot", ErrValidation)
	}
	if newSlotID == booking.TimeSlotID {
		return booking, nil
	}

	newSlot, err := s.slots.FindByID(ctx, newSlotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	if newSlot.WorkshopID != booking.WorkshopID {
		return nil, fmt.Errorf("%w: time slot belongs to a different workshop", ErrValidation)
	}

	oldSlotID := booking.TimeSlotID
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		// Claim the new spot first so a full target rolls everything back.
		// Opposite-direction reassignments can deadlock on row locks; that
		// surfaces as 40P01 and is retried by inTx.
		reserved, err := s.slots.ReserveSpot(ctx, tx, newSlotID)
		if err != nil {
			return err
		}
		if !reserved {
			return ErrCapacityExhausted
		}
		released, err := s.slots.ReleaseSpot(ctx, tx, oldSlotID)
		if err != nil {
			return err
		}
		if !released {
			return fmt.Errorf("time slot %s counter out of bounds on release", oldSlotID)
		}
		moved, err := s.bookings.MoveToSlot(ctx, tx, bookingID, oldSlotID, newSlotID)
		if err != nil {
			return err
		}
		if !moved {
			return ErrConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.bookings.FindByID(ctx, bookingID)
}

func (s *bookingService) GetByCode(ctx context.Context, code string) (*models.Booking, error) {
	booking, err := s.bookings.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) ListForUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.bookings.FindByUser(ctx, userID)
}

func (s *bookingService) List(ctx context.Context, filter repository.BookingFilter) ([]models.Booking, int64, error) {
	return s.bookings.List(ctx, filter)
}

// inTx runs fn in a transaction, retrying serialization failures and
// deadlocks up to maxTxRetries before surfacing ErrConflict.
func (s *bookingService) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = s.bookings.GetDB().WithContext(ctx).Transaction(fn)
		if err == nil || !retryableTxError(err) {
			return err
		}
		log.Printf("[Ledger] transaction conflict (attempt %d/%d): %v", attempt+1, maxTxRetries, err)
	}
	return fmt.Errorf("%w: %v", ErrConflict, err)
}

func retryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// duplicateCodeError reports whether err is a unique violation on the
// booking_code index, i.e. a concurrent insert won the same random code.
func duplicateCodeError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "booking_code")
	}
	return false
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func newBookingCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate booking code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return "WB-" + string(buf), nil
}

func (s *bookingService) uniqueBookingCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := newBookingCode()
		if err != nil {
			return "", err
		}
		exists, err := s.bookings.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique booking code")
}

func (s *bookingService) emit(ctx context.Context, routingKey string, booking *models.Booking) {
	if s.publisher == nil {
		return
	}
	event := BookingEvent{
		BookingID:    booking.ID,
		BookingCode:  booking.BookingCode,
		AttendeeName: booking.AttendeeName,
		WorkshopID:   booking.WorkshopID,
	}
	if booking.Workshop != nil {
		event.WorkshopTitle = booking.Workshop.Title
	}
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		log.Printf("[Ledger] failed to publish %s for %s: %v", routingKey, booking.BookingCode, err)
	}
}
