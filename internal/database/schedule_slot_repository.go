package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/offthegrid/booking-backend/internal/models"
)

// ScheduleSlotRepository handles schedule slot database operations. All
// status transitions are single conditional UPDATEs so concurrent requests
// race in the database, not in application code.
type ScheduleSlotRepository struct {
	db DB
}

// NewScheduleSlotRepository creates a new ScheduleSlotRepository
func NewScheduleSlotRepository(db DB) *ScheduleSlotRepository {
	return &ScheduleSlotRepository{db: db}
}

const slotColumns = `id, offering_id, start_time, end_time, price_override, capacity, status, hold_expires_at, created_at, updated_at`

// Create inserts a new slot in OPEN status
func (r *ScheduleSlotRepository) Create(slot *models.ScheduleSlot) error {
	slot.ID = uuid.New()
	slot.Status = models.SlotStatusOpen
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = slot.CreatedAt

	query := `
		INSERT INTO schedule_slots (
			id, offering_id, start_time, end_time, price_override,
			capacity, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(query,
		slot.ID, slot.OfferingID, slot.StartTime, slot.EndTime, slot.PriceOverride,
		slot.Capacity, slot.Status, slot.CreatedAt, slot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule slot: %w", err)
	}
	return nil
}

// GetByID retrieves a slot by ID
func (r *ScheduleSlotRepository) GetByID(slotID uuid.UUID) (*models.ScheduleSlot, error) {
	var slot models.ScheduleSlot
	query := `SELECT ` + slotColumns + ` FROM schedule_slots WHERE id = $1`
	err := r.db.Get(&slot, query, slotID)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule slot: %w", err)
	}
	return &slot, nil
}

// GetBookableSlot returns the slot if it belongs to the offering and can
// still accept a reservation: OPEN, or PENDING with a lapsed hold.
func (r *ScheduleSlotRepository) GetBookableSlot(offeringID, slotID uuid.UUID) (*models.ScheduleSlot, error) {
	var slot models.ScheduleSlot
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE id = $1
		  AND offering_id = $2
		  AND (status = 'OPEN' OR (status = 'PENDING' AND hold_expires_at < NOW()))`

	err := r.db.Get(&slot, query, slotID, offeringID)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bookable slot: %w", err)
	}
	return &slot, nil
}

// ListByOffering returns all non-cancelled slots for an offering
func (r *ScheduleSlotRepository) ListByOffering(offeringID uuid.UUID) ([]models.ScheduleSlot, error) {
	var slots []models.ScheduleSlot
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE offering_id = $1 AND status != 'CANCELLED'
		ORDER BY start_time`

	if err := r.db.Select(&slots, query, offeringID); err != nil {
		return nil, fmt.Errorf("failed to list schedule slots: %w", err)
	}
	return slots, nil
}

// ListAllByOffering returns every slot for an offering, cancelled included
func (r *ScheduleSlotRepository) ListAllByOffering(offeringID uuid.UUID) ([]models.ScheduleSlot, error) {
	var slots []models.ScheduleSlot
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE offering_id = $1
		ORDER BY start_time`

	if err := r.db.Select(&slots, query, offeringID); err != nil {
		return nil, fmt.Errorf("failed to list schedule slots: %w", err)
	}
	return slots, nil
}

// Reserve atomically transitions OPEN → PENDING with a hold expiry.
// The WHERE clause is the concurrency guard: of two concurrent callers
// exactly one update matches, the other gets ErrConflict.
func (r *ScheduleSlotRepository) Reserve(slotID uuid.UUID, holdUntil time.Time) error {
	query := `
		UPDATE schedule_slots
		SET status = 'PENDING', hold_expires_at = $2, updated_at = NOW()
		WHERE id = $1
		  AND (status = 'OPEN' OR (status = 'PENDING' AND hold_expires_at < NOW()))`

	result, err := r.db.Exec(query, slotID, holdUntil)
	if err != nil {
		return fmt.Errorf("failed to reserve slot: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.ErrConflict
	}
	return nil
}

// Confirm transitions PENDING → BOOKED. Confirming an already BOOKED slot
// is a no-op so duplicate capture callbacks stay idempotent.
func (r *ScheduleSlotRepository) Confirm(slotID uuid.UUID) error {
	query := `
		UPDATE schedule_slots
		SET status = 'BOOKED', hold_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status IN ('PENDING', 'BOOKED')`

	result, err := r.db.Exec(query, slotID)
	if err != nil {
		return fmt.Errorf("failed to confirm slot: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.ErrConflict
	}
	return nil
}

// Release transitions PENDING → OPEN, the compensating action for a failed
// or abandoned payment
func (r *ScheduleSlotRepository) Release(slotID uuid.UUID) error {
	query := `
		UPDATE schedule_slots
		SET status = 'OPEN', hold_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'`

	if _, err := r.db.Exec(query, slotID); err != nil {
		return fmt.Errorf("failed to release slot: %w", err)
	}
	return nil
}

// Cancel transitions OPEN/PENDING → CANCELLED. BOOKED slots cannot be
// cancelled here; the booking has to be cancelled first.
func (r *ScheduleSlotRepository) Cancel(slotID uuid.UUID) error {
	query := `
		UPDATE schedule_slots
		SET status = 'CANCELLED', hold_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status IN ('OPEN', 'PENDING')`

	result, err := r.db.Exec(query, slotID)
	if err != nil {
		return fmt.Errorf("failed to cancel slot: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.ErrConflict
	}
	return nil
}

// ReleaseExpiredHolds reopens PENDING slots whose hold lapsed and which
// have no confirmed booking. Returns the number of slots released.
func (r *ScheduleSlotRepository) ReleaseExpiredHolds() (int, error) {
	query := `
		UPDATE schedule_slots
		SET status = 'OPEN', hold_expires_at = NULL, updated_at = NOW()
		WHERE status = 'PENDING'
		  AND hold_expires_at < NOW()
		  AND NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE bookings.schedule_slot_id = schedule_slots.id
			  AND bookings.status IN ('CONFIRMED', 'COMPLETED')
		  )`

	result, err := r.db.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("failed to release expired holds: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}
