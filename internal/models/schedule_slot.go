package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SlotStatus represents the lifecycle status of a schedule slot.
// Transitions are monotonic: OPEN → PENDING → BOOKED, with
// OPEN/PENDING → CANCELLED as the only side exit. A PENDING slot whose
// hold expires is swept back to OPEN.
type SlotStatus string

const (
	SlotStatusOpen      SlotStatus = "OPEN"
	SlotStatusPending   SlotStatus = "PENDING"
	SlotStatusBooked    SlotStatus = "BOOKED"
	SlotStatusCancelled SlotStatus = "CANCELLED"
)

// ScheduleSlot represents a dated occurrence of an offering that can be reserved
type ScheduleSlot struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	OfferingID uuid.UUID  `json:"offering_id" db:"offering_id"`
	StartTime  time.Time  `json:"start_time" db:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty" db:"end_time"`
	// PriceOverride, when set, replaces the offering base price for this slot
	PriceOverride *float64   `json:"price_override,omitempty" db:"price_override"`
	Capacity      int        `json:"capacity" db:"capacity"`
	Status        SlotStatus `json:"status" db:"status"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty" db:"hold_expires_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateSlotRequest represents the request to schedule a new slot
type CreateSlotRequest struct {
	StartTime     time.Time  `json:"start_time" binding:"required"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	PriceOverride *float64   `json:"price_override,omitempty"`
	Capacity      int        `json:"capacity"`
}

// Validate validates the create slot request
func (r *CreateSlotRequest) Validate() error {
	if r.StartTime.Before(time.Now()) {
		return errors.New("start_time must be in the future")
	}
	if r.EndTime != nil && !r.EndTime.After(r.StartTime) {
		return errors.New("end_time must be after start_time")
	}
	if r.Capacity < 0 {
		return errors.New("capacity cannot be negative")
	}
	if r.PriceOverride != nil && *r.PriceOverride <= 0 {
		return errors.New("price_override must be positive")
	}
	return nil
}

// IsBookable reports whether a new reservation may be taken against the slot.
// A PENDING slot counts once its hold has lapsed; the sweep will reopen it.
func (s *ScheduleSlot) IsBookable() bool {
	switch s.Status {
	case SlotStatusOpen:
		return true
	case SlotStatusPending:
		return s.HoldExpiresAt != nil && s.HoldExpiresAt.Before(time.Now())
	default:
		return false
	}
}

// Price returns the effective slot price: override if set, base price otherwise
func (s *ScheduleSlot) Price(offering *Offering) float64 {
	if s.PriceOverride != nil {
		return *s.PriceOverride
	}
	return offering.BasePrice
}
