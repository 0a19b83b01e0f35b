package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workshophub/workshop-booking/internal/dto"
	"github.com/workshophub/workshop-booking/internal/models"
	"github.com/workshophub/workshop-booking/internal/repository"
	"gorm.io/gorm"
)

// --- Mock BookingRepository ---

type mockBookingRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*models.Booking, error)
	findByCodeFn func(ctx context.Context, code string) (*models.Booking, error)
	codeExistsFn func(ctx context.Context, code string) (bool, error)
}

func (m *mockBookingRepo) Create(ctx context.Context, tx *gorm.DB, b *models.Booking) error {
	return nil
}
func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockBookingRepo) FindByCode(ctx context.Context, code string) (*models.Booking, error) {
	if m.findByCodeFn != nil {
		return m.findByCodeFn(ctx, code)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockBookingRepo) FindByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return nil, nil
}
func (m *mockBookingRepo) List(ctx context.Context, filter repository.BookingFilter) ([]models.Booking, int64, error) {
	return nil, 0, nil
}
func (m *mockBookingRepo) ListRecent(ctx context.Context, limit int) ([]models.Booking, error) {
	return nil, nil
}
func (m *mockBookingRepo) TransitionStatus(ctx context.Context, tx *gorm.DB, id string, from, to models.BookingStatus) (bool, error) {
	return true, nil
}
func (m *mockBookingRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]any) (bool, error) {
	return true, nil
}
func (m *mockBookingRepo) MoveToSlot(ctx context.Context, tx *gorm.DB, id, oldSlotID, newSlotID string) (bool, error) {
	return true, nil
}
func (m *mockBookingRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	if m.codeExistsFn != nil {
		return m.codeExistsFn(ctx, code)
	}
	return false, nil
}
func (m *mockBookingRepo) CountAll(ctx context.Context) (int64, error) { return 0, nil }
func (m *mockBookingRepo) CountByStatusInRange(ctx context.Context, status models.BookingStatus, column string, from, to time.Time) (int64, error) {
	return 0, nil
}
func (m *mockBookingRepo) GetDB() *gorm.DB { return nil }

// --- Mock TimeSlotRepository ---

type mockSlotRepo struct {
	findByIDFn func(ctx context.Context, id string) (*models.TimeSlot, error)
}

func (m *mockSlotRepo) Create(ctx context.Context, slot *models.TimeSlot) error { return nil }
func (m *mockSlotRepo) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockSlotRepo) List(ctx context.Context, workshopID string) ([]models.TimeSlot, error) {
	return nil, nil
}
func (m *mockSlotRepo) UpdateTimes(ctx context.Context, id, startTime, endTime string) error {
	return nil
}
func (m *mockSlotRepo) Resize(ctx context.Context, id string, newCapacity int) error { return nil }
func (m *mockSlotRepo) SoftDelete(ctx context.Context, id string) error              { return nil }
func (m *mockSlotRepo) ReserveSpot(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	return true, nil
}
func (m *mockSlotRepo) ReleaseSpot(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	return true, nil
}
func (m *mockSlotRepo) SumAvailableSpots(ctx context.Context) (int64, error) { return 0, nil }
func (m *mockSlotRepo) GetDB() *gorm.DB                                      { return nil }

// --- Helpers ---

func validCreateReq() dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		WorkshopID:    "ws-1",
		TimeSlotID:    "slot-1",
		AttendeeName:  "Ada Lovelace",
		AttendeeEmail: "ada@example.com",
	}
}

func slotFor(workshopID string, spots int) *models.TimeSlot {
	return &models.TimeSlot{
		ID:             "slot-1",
		WorkshopID:     workshopID,
		StartTime:      "10:00",
		EndTime:        "12:00",
		Capacity:       10,
		AvailableSpots: spots,
	}
}

// --- CreateBooking preconditions ---

func TestCreateBooking_RejectsShortName(t *testing.T) {
	svc := NewBookingService(&mockBookingRepo{}, &mockSlotRepo{}, nil)

	req := validCreateReq()
	req.AttendeeName = "A"
	_, err := svc.CreateBooking(context.Background(), "user-1", req)

	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateBooking_RejectsMalformedEmail(t *testing.T) {
	svc := NewBookingService(&mockBookingRepo{}, &mockSlotRepo{}, nil)

	req := validCreateReq()
	req.AttendeeEmail = "not-an-email"
	_, err := svc.CreateBooking(context.Background(), "user-1", req)

	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateBooking_SlotNotFound(t *testing.T) {
	svc := NewBookingService(&mockBookingRepo{}, &mockSlotRepo{}, nil)

	_, err := svc.CreateBooking(context.Background(), "user-1", validCreateReq())

	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestCreateBooking_SlotFromDifferentWorkshop(t *testing.T) {
	slots := &mockSlotRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.TimeSlot, error) {
			return slotFor("ws-other", 5), nil
		},
	}
	svc := NewBookingService(&mockBookingRepo{}, slots, nil)

	_, err := svc.CreateBooking(context.Background(), "user-1", validCreateReq())

	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateBooking_FullSlot(t *testing.T) {
	slots := &mockSlotRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.TimeSlot, error) {
			return slotFor("ws-1", 0), nil
		},
	}
	svc := NewBookingService(&mockBookingRepo{}, slots, nil)

	_, err := svc.CreateBooking(context.Background(), "user-1", validCreateReq())

	assert.ErrorIs(t, err, ErrCapacityExhausted)
}

// --- CancelBooking preconditions ---

func TestCancelBooking_NotFound(t *testing.T) {
	svc := NewBookingService(&mockBookingRepo{}, &mockSlotRepo{}, nil)

	err := svc.CancelBooking(context.Background(), "missing", "user-1", false)

	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelBooking_NonOwnerForbidden(t *testing.T) {
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: "owner", Status: models.StatusConfirmed}, nil
		},
	}
	svc := NewBookingService(bookings, &mockSlotRepo{}, nil)

	err := svc.CancelBooking(context.Background(), "b-1", "intruder", false)

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCancelBooking_AdminBypassesOwnership(t *testing.T) {
	// Admin passes ownership and lands on the already-canceled check,
	// proving the Forbidden gate was skipped.
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: "owner", Status: models.StatusCanceled}, nil
		},
	}
	svc := NewBookingService(bookings, &mockSlotRepo{}, nil)

	err := svc.CancelBooking(context.Background(), "b-1", "admin-1", true)

	assert.ErrorIs(t, err, ErrAlreadyCanceled)
}

func TestCancelBooking_AlreadyCanceledIsTerminal(t *testing.T) {
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: "user-1", Status: models.StatusCanceled}, nil
		},
	}
	svc := NewBookingService(bookings, &mockSlotRepo{}, nil)

	err := svc.CancelBooking(context.Background(), "b-1", "user-1", false)

	assert.ErrorIs(t, err, ErrAlreadyCanceled)
}

// --- EditBooking preconditions ---

func TestEditBooking_CanceledIsImmutable(t *testing.T) {
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: "user-1", Status: models.StatusCanceled}, nil
		},
	}
	svc := NewBookingService(bookings, &mockSlotRepo{}, nil)

	name := "New Name"
	_, err := svc.EditBooking(context.Background(), "b-1", "user-1", false, dto.UpdateBookingRequest{AttendeeName: &name})

	assert.ErrorIs(t, err, ErrImmutableAfterCancel)
}

func TestEditBooking_StatusChangeIsAdminOnly(t *testing.T) {
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: "user-1", Status: models.StatusConfirmed}, nil
		},
	}
	svc := NewBookingService(bookings, &mockSlotRepo{}, nil)

	status := models.StatusCompleted
	_, err := svc.EditBooking(context.Background(), "b-1", "user-1", false, dto.UpdateBookingRequest{Status: &status})

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEditBooking_NonOwnerForbidden(t *testing.T) {
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: "owner", Status: models.StatusConfirmed}, nil
		},
	}
	svc := NewBookingService(bookings, &mockSlotRepo{}, nil)

	name := "New Name"
	_, err := svc.EditBooking(context.Background(), "b-1", "intruder", false, dto.UpdateBookingRequest{AttendeeName: &name})

	assert.ErrorIs(t, err, ErrForbidden)
}

// --- ReassignTimeSlot preconditions ---

func TestReassignTimeSlot_RequiresConfirmed(t *testing.T) {
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: "user-1", Status: models.StatusPending, TimeSlotID: "slot-1"}, nil
		},
	}
	svc := NewBookingService(bookings, &mockSlotRepo{}, nil)

	_, err := svc.ReassignTimeSlot(context.Background(), "b-1", "user-1", false, "slot-2")

	assert.ErrorIs(t, err, ErrValidation)
}

func TestReassignTimeSlot_RejectsCrossWorkshopMove(t *testing.T) {
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return &models.Booking{ID: id, UserID: "user-1", WorkshopID: "ws-1", Status: models.StatusConfirmed, TimeSlotID: "slot-1"}, nil
		},
	}
	slots := &mockSlotRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.TimeSlot, error) {
			return &models.TimeSlot{ID: id, WorkshopID: "ws-other", Capacity: 5, AvailableSpots: 5}, nil
		},
	}
	svc := NewBookingService(bookings, slots, nil)

	_, err := svc.ReassignTimeSlot(context.Background(), "b-1", "user-1", false, "slot-2")

	assert.ErrorIs(t, err, ErrValidation)
}

func TestReassignTimeSlot_SameSlotIsNoop(t *testing.T) {
	booking := &models.Booking{ID: "b-1", UserID: "user-1", WorkshopID: "ws-1", Status: models.StatusConfirmed, TimeSlotID: "slot-1"}
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return booking, nil
		},
	}
	svc := NewBookingService(bookings, &mockSlotRepo{}, nil)

	got, err := svc.ReassignTimeSlot(context.Background(), "b-1", "user-1", false, "slot-1")

	require.NoError(t, err)
	assert.Equal(t, "slot-1", got.TimeSlotID)
}

// --- Booking codes ---

func TestNewBookingCode_Format(t *testing.T) {
	code, err := newBookingCode()
	require.NoError(t, err)

	assert.Len(t, code, 11)
	assert.Equal(t, "WB-", code[:3])
	for _, r := range code[3:] {
		assert.Contains(t, codeAlphabet, string(r))
	}
}

func TestUniqueBookingCode_RetriesOnCollision(t *testing.T) {
	calls := 0
	bookings := &mockBookingRepo{
		codeExistsFn: func(ctx context.Context, code string) (bool, error) {
			calls++
			return calls == 1, nil
		},
	}
	svc := &bookingService{bookings: bookings}

	code, err := svc.uniqueBookingCode(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "WB-", code[:3])
}

func TestUniqueBookingCode_GivesUpAfterMaxAttempts(t *testing.T) {
	bookings := &mockBookingRepo{
		codeExistsFn: func(ctx context.Context, code string) (bool, error) {
			return true, nil
		},
	}
	svc := &bookingService{bookings: bookings}

	_, err := svc.uniqueBookingCode(context.Background())

	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrValidation))
}

func TestDuplicateCodeError_Classification(t *testing.T) {
	assert.True(t, duplicateCodeError(&pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_bookings_booking_code",
	}))
	assert.True(t, duplicateCodeError(fmt.Errorf("create booking: %w", &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_bookings_booking_code",
	})))
	// Unique violations on other columns are real errors, not retries.
	assert.False(t, duplicateCodeError(&pgconn.PgError{
		Code:           "23505",
		ConstraintName: "users_email_key",
	}))
	assert.False(t, duplicateCodeError(&pgconn.PgError{Code: "40001"}))
	assert.False(t, duplicateCodeError(errors.New("duplicate key value")))
	assert.False(t, duplicateCodeError(nil))
}

func TestRetryableTxError_Classification(t *testing.T) {
	assert.True(t, retryableTxError(&pgconn.PgError{Code: "40001"}))
	assert.True(t, retryableTxError(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, retryableTxError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, retryableTxError(errors.New("connection reset")))
	assert.False(t, retryableTxError(nil))
}

type mockPublisher struct {
	publishFn func(ctx context.Context, routingKey string, payload any) error
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	return m.publishFn(ctx, routingKey, payload)
}

func TestEmit_PublishesBookingEvent(t *testing.T) {
	var gotKey string
	var gotEvent BookingEvent
	pub := &mockPublisher{
		publishFn: func(ctx context.Context, routingKey string, payload any) error {
			gotKey = routingKey
			gotEvent = payload.(BookingEvent)
			return nil
		},
	}
	svc := &bookingService{publisher: pub}

	svc.emit(context.Background(), "booking.created", &models.Booking{
		ID:           "b-1",
		BookingCode:  "WB-A1B2C3D4",
		AttendeeName: "Ada Lovelace",
		WorkshopID:   "ws-1",
		Workshop:     &models.Workshop{Title: "Pottery Basics"},
	})

	assert.Equal(t, "booking.created", gotKey)
	assert.Equal(t, "WB-A1B2C3D4", gotEvent.BookingCode)
	assert.Equal(t, "Pottery Basics", gotEvent.WorkshopTitle)
}

func TestEmit_NilPublisherIsNoop(t *testing.T) {
	svc := &bookingService{}
	svc.emit(context.Background(), "booking.created", &models.Booking{ID: "b-1"})
}
