package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/offthegrid/booking-backend/internal/models"
)

// BookingRepository handles booking and payment database operations
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, user_id, schedule_slot_id, total_amount, paid_amount, status, participants, contact_info, created_at, updated_at`

// CreatePending inserts a booking in PENDING status with nothing paid
func (r *BookingRepository) CreatePending(booking *models.Booking) error {
	booking.ID = uuid.New()
	booking.Status = models.BookingStatusPending
	booking.PaidAmount = 0
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt

	query := `
		INSERT INTO bookings (
			id, user_id, schedule_slot_id, total_amount, paid_amount,
			status, participants, contact_info, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query,
		booking.ID, booking.UserID, booking.ScheduleSlotID, booking.TotalAmount, booking.PaidAmount,
		booking.Status, booking.Participants, booking.ContactInfo, booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	err := r.db.Get(&booking, query, bookingID)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// ListByUser retrieves bookings owned by a user, newest first
func (r *BookingRepository) ListByUser(userID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	var bookings []models.Booking
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	if err := r.db.Select(&bookings, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// GetPaymentByTransactionID looks up a payment by its external transaction id
func (r *BookingRepository) GetPaymentByTransactionID(transactionID string) (*models.Payment, error) {
	var payment models.Payment
	query := `
		SELECT id, booking_id, amount, method, status, transaction_id, notes, created_at
		FROM payments
		WHERE transaction_id = $1`

	err := r.db.Get(&payment, query, transactionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

// ListPayments returns all payments recorded against a booking
func (r *BookingRepository) ListPayments(bookingID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	query := `
		SELECT id, booking_id, amount, method, status, transaction_id, notes, created_at
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at`

	if err := r.db.Select(&payments, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// RecordPayment atomically inserts a payment row and rolls the paid amount
// and status forward on the booking. A transaction id that was already
// recorded makes the call a no-op (applied = false). The paid amount can
// never exceed the booking total.
func (r *BookingRepository) RecordPayment(payment *models.Payment) (applied bool, err error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	applied, err = r.recordPaymentTx(tx, payment)
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit payment: %w", err)
	}
	return true, nil
}

// recordPaymentTx is the shared transactional body for payment recording,
// used by both RecordPayment and FinalizeCapture.
func (r *BookingRepository) recordPaymentTx(tx *sqlx.Tx, payment *models.Payment) (bool, error) {
	// Idempotency check inside the transaction; the unique index on
	// transaction_id is the backstop for callers racing past this read.
	var existingID uuid.UUID
	err := tx.Get(&existingID, `SELECT id FROM payments WHERE transaction_id = $1`, payment.TransactionID)
	if err == nil {
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to check transaction id: %w", err)
	}

	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	_, err = tx.Exec(`
		INSERT INTO payments (id, booking_id, amount, method, status, transaction_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		payment.ID, payment.BookingID, payment.Amount, payment.Method,
		payment.Status, payment.TransactionID, payment.Notes, payment.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert payment: %w", err)
	}

	if payment.Status != models.PaymentStatusCompleted {
		return true, nil
	}

	result, err := tx.Exec(`
		UPDATE bookings
		SET paid_amount = paid_amount + $2,
		    status = CASE WHEN paid_amount + $2 >= total_amount THEN 'CONFIRMED' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1
		  AND status IN ('PENDING', 'CONFIRMED')
		  AND paid_amount + $2 <= total_amount`,
		payment.BookingID, payment.Amount,
	)
	if err != nil {
		return false, fmt.Errorf("failed to apply payment to booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Terminal booking or the payment would overpay the total.
		return false, models.ErrConflict
	}

	return true, nil
}

// CaptureOutcome describes the result of finalizing a gateway capture
type CaptureOutcome struct {
	Booking *models.Booking
	// Applied is false when the capture was already recorded and the call
	// changed nothing.
	Applied bool
}

// FinalizeCapture performs the AwaitingPayment → Confirmed transition as a
// single transaction: booking insert from the order's own data, payment
// insert, slot to BOOKED, shadow order to COMPLETED with the booking linked.
// A duplicate external transaction id short-circuits to the booking that was
// confirmed by the first capture.
func (r *BookingRepository) FinalizeCapture(
	order *models.PayPalOrder,
	transactionID string,
	amount float64,
	userID *uuid.UUID,
) (*CaptureOutcome, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Duplicate capture callback: return the booking from the first one.
	var existing models.Payment
	err = tx.Get(&existing, `
		SELECT id, booking_id, amount, method, status, transaction_id, notes, created_at
		FROM payments WHERE transaction_id = $1`, transactionID)
	if err == nil {
		var booking models.Booking
		if err := tx.Get(&booking, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, existing.BookingID); err != nil {
			return nil, fmt.Errorf("failed to load booking for duplicate capture: %w", err)
		}
		return &CaptureOutcome{Booking: &booking, Applied: false}, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check transaction id: %w", err)
	}

	// The booking is created from the order's own data. A capture must
	// never attach to a booking another request placed on the same slot.
	booking := models.Booking{
		ID:             uuid.New(),
		UserID:         userID,
		ScheduleSlotID: order.ScheduleSlotID,
		TotalAmount:    amount,
		PaidAmount:     0,
		Status:         models.BookingStatusPending,
		Participants:   order.Participants,
		ContactInfo:    order.ContactInfo,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	_, err = tx.Exec(`
		INSERT INTO bookings (
			id, user_id, schedule_slot_id, total_amount, paid_amount,
			status, participants, contact_info, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		booking.ID, booking.UserID, booking.ScheduleSlotID, booking.TotalAmount, booking.PaidAmount,
		booking.Status, booking.Participants, booking.ContactInfo, booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking for capture: %w", err)
	}

	payment := &models.Payment{
		BookingID:     booking.ID,
		Amount:        amount,
		Method:        models.PaymentMethodPayPal,
		Status:        models.PaymentStatusCompleted,
		TransactionID: transactionID,
	}
	if _, err := r.recordPaymentTx(tx, payment); err != nil {
		return nil, err
	}

	result, err := tx.Exec(`
		UPDATE schedule_slots
		SET status = 'BOOKED', hold_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status IN ('PENDING', 'BOOKED')`, order.ScheduleSlotID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark slot booked: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, models.ErrConflict
	}

	_, err = tx.Exec(`
		UPDATE paypal_orders
		SET status = 'COMPLETED', booking_id = $2, updated_at = NOW()
		WHERE order_id = $1 AND status = 'CREATED'`, order.OrderID, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete paypal order: %w", err)
	}

	if err := tx.Get(&booking, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, booking.ID); err != nil {
		return nil, fmt.Errorf("failed to reload booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit capture: %w", err)
	}
	return &CaptureOutcome{Booking: &booking, Applied: true}, nil
}

// Cancel transitions a PENDING booking to CANCELLED
func (r *BookingRepository) Cancel(bookingID uuid.UUID) error {
	query := `
		UPDATE bookings
		SET status = 'CANCELLED', updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'`

	result, err := r.db.Exec(query, bookingID)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.ErrConflict
	}
	return nil
}

// ExpireStalePending cancels PENDING bookings older than the cutoff that
// have no payments; the sweep then reopens their slots. Returns the number
// of bookings expired.
func (r *BookingRepository) ExpireStalePending(cutoff time.Time) (int, error) {
	query := `
		UPDATE bookings
		SET status = 'CANCELLED', updated_at = NOW()
		WHERE status = 'PENDING'
		  AND created_at < $1
		  AND paid_amount = 0
		  AND NOT EXISTS (SELECT 1 FROM payments WHERE payments.booking_id = bookings.id)`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale bookings: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}
