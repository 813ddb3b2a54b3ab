package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the reservation flow
const (
	AuditActionCreate        = "CREATE"
	AuditActionPayment       = "PAYMENT"
	AuditActionPaymentFailed = "PAYMENT_FAILED"
	AuditActionCancel        = "CANCEL"
	AuditActionRelease       = "RELEASE"
)

// Audit entity types
const (
	AuditEntityBooking      = "BOOKING"
	AuditEntityPayPalOrder  = "PAYPAL_ORDER"
	AuditEntityScheduleSlot = "SCHEDULE_SLOT"
	AuditEntityOffering     = "OFFERING"
)

// AuditLog is an immutable record of a state-changing action. UserID is nil
// for system and guest actions. Rows are never updated or deleted.
type AuditLog struct {
	ID         uuid.UUID              `json:"id" db:"id"`
	UserID     *uuid.UUID             `json:"user_id,omitempty" db:"user_id"`
	Action     string                 `json:"action" db:"action"`
	EntityType string                 `json:"entity_type" db:"entity_type"`
	EntityID   string                 `json:"entity_id" db:"entity_id"`
	Details    map[string]interface{} `json:"details" db:"details"`
	CreatedAt  time.Time              `json:"created_at" db:"created_at"`
}
