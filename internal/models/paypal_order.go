package models

import (
	"time"

	"github.com/google/uuid"
)

// PayPalOrderStatus tracks the shadow record of a gateway order
type PayPalOrderStatus string

const (
	PayPalOrderStatusCreated   PayPalOrderStatus = "CREATED"
	PayPalOrderStatusCompleted PayPalOrderStatus = "COMPLETED"
	PayPalOrderStatusCancelled PayPalOrderStatus = "CANCELLED"
)

// PayPalOrder mirrors a gateway order before capture. The slot hold taken at
// order creation guarantees at most one CREATED order per slot at a time.
type PayPalOrder struct {
	OrderID        string            `json:"order_id" db:"order_id"`
	OfferingID     uuid.UUID         `json:"offering_id" db:"offering_id"`
	ScheduleSlotID uuid.UUID         `json:"schedule_slot_id" db:"schedule_slot_id"`
	UserID         *uuid.UUID        `json:"user_id,omitempty" db:"user_id"`
	Amount         float64           `json:"amount" db:"amount"`
	Currency       string            `json:"currency" db:"currency"`
	Participants   int               `json:"participants" db:"participants"`
	ContactInfo    ContactInfo       `json:"contact_info" db:"contact_info"`
	Status         PayPalOrderStatus `json:"status" db:"status"`
	// BookingID links a COMPLETED order to the booking its capture confirmed
	BookingID *uuid.UUID `json:"booking_id,omitempty" db:"booking_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateOrderRequest represents the checkout request to create a gateway order
type CreateOrderRequest struct {
	OfferingID   string      `json:"offeringId" binding:"required"`
	ScheduleID   string      `json:"scheduleId" binding:"required"`
	Participants int         `json:"participants"`
	Currency     string      `json:"currency"`
	ContactInfo  ContactInfo `json:"contactInfo"`
}

// CreateOrderResponse is returned to the client for gateway redirection
type CreateOrderResponse struct {
	OrderID    string  `json:"orderId"`
	ApproveURL string  `json:"approveUrl"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
}
