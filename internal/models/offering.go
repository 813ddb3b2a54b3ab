package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// OfferingType distinguishes per-participant tours from flat-fee packages
type OfferingType string

const (
	OfferingTypeTour    OfferingType = "TOUR"
	OfferingTypePackage OfferingType = "PACKAGE"
)

// Offering represents a bookable product (tour or photography package)
type Offering struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	Type        OfferingType `json:"type" db:"type"`
	Name        string       `json:"name" db:"name"`
	Description *string      `json:"description,omitempty" db:"description"`
	BasePrice   float64      `json:"base_price" db:"base_price"`
	// PerParticipant offerings multiply the slot price by participant count;
	// flat-fee offerings charge once per slot.
	PerParticipant bool      `json:"per_participant" db:"per_participant"`
	Deleted        bool      `json:"-" db:"deleted"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// CreateOfferingRequest represents the request to create an offering
type CreateOfferingRequest struct {
	Type        OfferingType `json:"type" binding:"required"`
	Name        string       `json:"name" binding:"required"`
	Description *string      `json:"description,omitempty"`
	BasePrice   float64      `json:"base_price" binding:"required"`
}

// Validate validates the create offering request
func (r *CreateOfferingRequest) Validate() error {
	if r.Type != OfferingTypeTour && r.Type != OfferingTypePackage {
		return errors.New("type must be TOUR or PACKAGE")
	}
	if r.BasePrice <= 0 {
		return errors.New("base_price must be positive")
	}
	return nil
}

// IsPerParticipant reports whether pricing scales with participant count.
// Tours are per-participant; packages are flat-fee.
func (o *Offering) IsPerParticipant() bool {
	return o.PerParticipant || o.Type == OfferingTypeTour
}
