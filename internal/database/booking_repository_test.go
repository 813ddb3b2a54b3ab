package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/offthegrid/booking-backend/internal/models"
)

const contactJSON = `{"fullName":"Jane Doe","email":"jane@example.com","phone":"+14155550123"}`

func bookingRow(booking *models.Booking) *sqlmock.Rows {
	var userID interface{}
	if booking.UserID != nil {
		userID = *booking.UserID
	}
	return sqlmock.NewRows([]string{
		"id", "user_id", "schedule_slot_id", "total_amount", "paid_amount",
		"status", "participants", "contact_info", "created_at", "updated_at",
	}).AddRow(
		booking.ID, userID, booking.ScheduleSlotID, booking.TotalAmount, booking.PaidAmount,
		booking.Status, booking.Participants, []byte(contactJSON), booking.CreatedAt, booking.UpdatedAt,
	)
}

func TestRecordPayment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	bookingID := uuid.New()

	t.Run("Applies Payment And Confirms", func(t *testing.T) {
		payment := &models.Payment{
			BookingID:     bookingID,
			Amount:        850,
			Method:        models.PaymentMethodPayPal,
			Status:        models.PaymentStatusCompleted,
			TransactionID: "TXN-001",
		}

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM payments`).
			WithArgs("TXN-001").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec(`INSERT INTO payments`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID, 850.0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		applied, err := repo.RecordPayment(payment)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Transaction Is NoOp", func(t *testing.T) {
		payment := &models.Payment{
			BookingID:     bookingID,
			Amount:        850,
			Method:        models.PaymentMethodPayPal,
			Status:        models.PaymentStatusCompleted,
			TransactionID: "TXN-001",
		}

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM payments`).
			WithArgs("TXN-001").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
		mock.ExpectRollback()

		applied, err := repo.RecordPayment(payment)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Overpayment Conflicts", func(t *testing.T) {
		payment := &models.Payment{
			BookingID:     bookingID,
			Amount:        5000,
			Method:        models.PaymentMethodPayPal,
			Status:        models.PaymentStatusCompleted,
			TransactionID: "TXN-002",
		}

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM payments`).
			WithArgs("TXN-002").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec(`INSERT INTO payments`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID, 5000.0).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		applied, err := repo.RecordPayment(payment)
		assert.ErrorIs(t, err, models.ErrConflict)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFinalizeCapture(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	slotID := uuid.New()
	order := &models.PayPalOrder{
		OrderID:        "ORDER-123",
		OfferingID:     uuid.New(),
		ScheduleSlotID: slotID,
		Amount:         850,
		Currency:       "USD",
		Participants:   2,
		ContactInfo: models.ContactInfo{
			FullName: "Jane Doe",
			Email:    "jane@example.com",
			Phone:    "+14155550123",
		},
	}

	t.Run("Creates And Confirms Booking", func(t *testing.T) {
		now := time.Now()
		confirmed := &models.Booking{
			ID:             uuid.New(),
			ScheduleSlotID: slotID,
			TotalAmount:    850,
			PaidAmount:     850,
			Status:         models.BookingStatusConfirmed,
			Participants:   2,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		mock.ExpectBegin()
		// No payment with this capture id yet.
		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE transaction_id`).
			WithArgs("CAPTURE-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		// The booking is built from the order itself, never adopted from
		// whatever else is pending on the slot.
		mock.ExpectExec(`INSERT INTO bookings`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT id FROM payments`).
			WithArgs("CAPTURE-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec(`INSERT INTO payments`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(sqlmock.AnyArg(), 850.0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE schedule_slots`).
			WithArgs(slotID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		// The shadow order is completed with the new booking linked.
		mock.ExpectExec(`UPDATE paypal_orders`).
			WithArgs("ORDER-123", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(bookingRow(confirmed))
		mock.ExpectCommit()

		outcome, err := repo.FinalizeCapture(order, "CAPTURE-1", 850, nil)
		require.NoError(t, err)
		assert.True(t, outcome.Applied)
		assert.Equal(t, models.BookingStatusConfirmed, outcome.Booking.Status)
		assert.Equal(t, 850.0, outcome.Booking.PaidAmount)
		assert.Equal(t, "Jane Doe", outcome.Booking.ContactInfo.FullName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Capture Returns First Booking", func(t *testing.T) {
		now := time.Now()
		existingBookingID := uuid.New()
		confirmed := &models.Booking{
			ID:             existingBookingID,
			ScheduleSlotID: slotID,
			TotalAmount:    850,
			PaidAmount:     850,
			Status:         models.BookingStatusConfirmed,
			Participants:   2,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE transaction_id`).
			WithArgs("CAPTURE-1").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "booking_id", "amount", "method", "status", "transaction_id", "notes", "created_at",
			}).AddRow(
				uuid.New(), existingBookingID, 850.0, models.PaymentMethodPayPal,
				models.PaymentStatusCompleted, "CAPTURE-1", nil, now,
			))
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(existingBookingID).
			WillReturnRows(bookingRow(confirmed))
		mock.ExpectRollback()

		outcome, err := repo.FinalizeCapture(order, "CAPTURE-1", 850, nil)
		require.NoError(t, err)
		assert.False(t, outcome.Applied)
		assert.Equal(t, existingBookingID, outcome.Booking.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Cancelled Slot Aborts Capture", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE transaction_id`).
			WithArgs("CAPTURE-2").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec(`INSERT INTO bookings`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT id FROM payments`).
			WithArgs("CAPTURE-2").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec(`INSERT INTO payments`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(sqlmock.AnyArg(), 850.0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE schedule_slots`).
			WithArgs(slotID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		outcome, err := repo.FinalizeCapture(order, "CAPTURE-2", 850, nil)
		assert.ErrorIs(t, err, models.ErrConflict)
		assert.Nil(t, outcome)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCancelBooking(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	bookingID := uuid.New()

	t.Run("Pending Booking Cancelled", func(t *testing.T) {
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Cancel(bookingID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Confirmed Booking Conflicts", func(t *testing.T) {
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Cancel(bookingID)
		assert.ErrorIs(t, err, models.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestExpireStalePending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Reports Expired Count", func(t *testing.T) {
		cutoff := time.Now().Add(-20 * time.Minute)
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(cutoff).
			WillReturnResult(sqlmock.NewResult(0, 2))

		expired, err := repo.ExpireStalePending(cutoff)
		require.NoError(t, err)
		assert.Equal(t, 2, expired)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
