package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the status of a single payment attempt
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// PaymentMethodPayPal is the only gateway method currently in use
const PaymentMethodPayPal = "PAYPAL"

// Payment is one external payment attempt tied to a booking. TransactionID
// is the gateway capture id and is unique per completed capture; it is the
// idempotency boundary for duplicate capture callbacks. A COMPLETED payment
// is never mutated.
type Payment struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	BookingID     uuid.UUID     `json:"booking_id" db:"booking_id"`
	Amount        float64       `json:"amount" db:"amount"`
	Method        string        `json:"method" db:"method"`
	Status        PaymentStatus `json:"status" db:"status"`
	TransactionID string        `json:"transaction_id" db:"transaction_id"`
	Notes         *string       `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}
