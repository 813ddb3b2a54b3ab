package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusRefunded  BookingStatus = "REFUNDED"
)

// ContactInfo is the customer contact block captured at checkout
type ContactInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Value implements driver.Valuer so contact info is stored as JSONB
func (c ContactInfo) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB contact info columns
func (c *ContactInfo) Scan(src interface{}) error {
	if src == nil {
		*c = ContactInfo{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported contact_info type %T", src)
	}
	return json.Unmarshal(b, c)
}

// Booking represents a customer reservation against exactly one schedule slot.
// UserID is nil for guest checkouts; the contact block is then the only
// customer reference.
type Booking struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	UserID         *uuid.UUID    `json:"user_id,omitempty" db:"user_id"`
	ScheduleSlotID uuid.UUID     `json:"schedule_slot_id" db:"schedule_slot_id"`
	TotalAmount    float64       `json:"total_amount" db:"total_amount"`
	PaidAmount     float64       `json:"paid_amount" db:"paid_amount"`
	Status         BookingStatus `json:"status" db:"status"`
	Participants   int           `json:"participants" db:"participants"`
	ContactInfo    ContactInfo   `json:"contact_info" db:"contact_info"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// CreateBookingRequest represents the request to book a schedule slot
type CreateBookingRequest struct {
	ScheduleID   string      `json:"scheduleId" binding:"required"`
	Participants int         `json:"participants"`
	TotalPrice   float64     `json:"totalPrice"`
	ContactInfo  ContactInfo `json:"contactInfo"`
}

// CancelBookingRequest represents the request to cancel a booking
type CancelBookingRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// RecordPaymentRequest attaches an externally processed payment to a booking
type RecordPaymentRequest struct {
	TransactionID string  `json:"transactionId" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
	Method        string  `json:"method" binding:"required"`
	Notes         *string `json:"notes,omitempty"`
}

// Validate checks the structural parts of the request. Contact fields are
// validated separately so the error can enumerate every bad field.
func (r *CreateBookingRequest) Validate() error {
	if r.ScheduleID == "" {
		return errors.New("scheduleId is required")
	}
	if _, err := uuid.Parse(r.ScheduleID); err != nil {
		return errors.New("scheduleId must be a valid UUID")
	}
	if r.Participants < 1 {
		return errors.New("participants must be at least 1")
	}
	return nil
}

// IsTerminal reports whether the booking has reached a final state
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusRefunded:
		return true
	}
	return false
}

// IsFullyPaid reports whether payments cover the total amount
func (b *Booking) IsFullyPaid() bool {
	return b.PaidAmount >= b.TotalAmount
}

// BelongsTo reports whether the booking is owned by the given user
func (b *Booking) BelongsTo(userID uuid.UUID) bool {
	return b.UserID != nil && *b.UserID == userID
}
