package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/offthegrid/booking-backend/internal/models"
)

// PayPalOrderRepository handles the shadow records of gateway orders
type PayPalOrderRepository struct {
	db DB
}

// NewPayPalOrderRepository creates a new PayPalOrderRepository
func NewPayPalOrderRepository(db DB) *PayPalOrderRepository {
	return &PayPalOrderRepository{db: db}
}

const paypalOrderColumns = `order_id, offering_id, schedule_slot_id, user_id, amount, currency, participants, contact_info, status, booking_id, created_at, updated_at`

// Create inserts a shadow record for a freshly created gateway order
func (r *PayPalOrderRepository) Create(order *models.PayPalOrder) error {
	order.Status = models.PayPalOrderStatusCreated
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	query := `
		INSERT INTO paypal_orders (
			order_id, offering_id, schedule_slot_id, user_id, amount,
			currency, participants, contact_info, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(query,
		order.OrderID, order.OfferingID, order.ScheduleSlotID, order.UserID, order.Amount,
		order.Currency, order.Participants, order.ContactInfo, order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create paypal order record: %w", err)
	}
	return nil
}

// GetByOrderID retrieves a shadow record by the external order id
func (r *PayPalOrderRepository) GetByOrderID(orderID string) (*models.PayPalOrder, error) {
	var order models.PayPalOrder
	query := `SELECT ` + paypalOrderColumns + ` FROM paypal_orders WHERE order_id = $1`
	err := r.db.Get(&order, query, orderID)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get paypal order: %w", err)
	}
	return &order, nil
}

// MarkCancelled finalizes a CREATED order as cancelled
func (r *PayPalOrderRepository) MarkCancelled(orderID string) error {
	query := `
		UPDATE paypal_orders
		SET status = 'CANCELLED', updated_at = NOW()
		WHERE order_id = $1 AND status = 'CREATED'`

	if _, err := r.db.Exec(query, orderID); err != nil {
		return fmt.Errorf("failed to cancel paypal order: %w", err)
	}
	return nil
}

// CancelStaleCreated cancels CREATED orders older than the cutoff whose
// payment never arrived. Returns the slot ids whose holds should be
// reconsidered by the sweep.
func (r *PayPalOrderRepository) CancelStaleCreated(cutoff time.Time) (int, error) {
	query := `
		UPDATE paypal_orders
		SET status = 'CANCELLED', updated_at = NOW()
		WHERE status = 'CREATED' AND created_at < $1`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel stale paypal orders: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}
