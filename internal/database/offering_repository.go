package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/offthegrid/booking-backend/internal/models"
)

// OfferingRepository handles offering database operations
type OfferingRepository struct {
	db DB
}

// NewOfferingRepository creates a new OfferingRepository
func NewOfferingRepository(db DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

const offeringColumns = `id, type, name, description, base_price, per_participant, deleted, created_at, updated_at`

// Create inserts a new offering
func (r *OfferingRepository) Create(offering *models.Offering) error {
	offering.ID = uuid.New()
	offering.CreatedAt = time.Now()
	offering.UpdatedAt = offering.CreatedAt

	query := `
		INSERT INTO offerings (
			id, type, name, description, base_price, per_participant, deleted, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, false, $7, $8)`

	_, err := r.db.Exec(query,
		offering.ID, offering.Type, offering.Name, offering.Description,
		offering.BasePrice, offering.PerParticipant, offering.CreatedAt, offering.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create offering: %w", err)
	}
	return nil
}

// GetByID retrieves a non-deleted offering by ID
func (r *OfferingRepository) GetByID(offeringID uuid.UUID) (*models.Offering, error) {
	var offering models.Offering
	query := `SELECT ` + offeringColumns + ` FROM offerings WHERE id = $1 AND deleted = false`
	err := r.db.Get(&offering, query, offeringID)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offering: %w", err)
	}
	return &offering, nil
}

// List retrieves all non-deleted offerings
func (r *OfferingRepository) List() ([]models.Offering, error) {
	var offerings []models.Offering
	query := `SELECT ` + offeringColumns + ` FROM offerings WHERE deleted = false ORDER BY name`
	if err := r.db.Select(&offerings, query); err != nil {
		return nil, fmt.Errorf("failed to list offerings: %w", err)
	}
	return offerings, nil
}

// SoftDelete marks an offering as deleted without touching its bookings
func (r *OfferingRepository) SoftDelete(offeringID uuid.UUID) error {
	query := `UPDATE offerings SET deleted = true, updated_at = NOW() WHERE id = $1 AND deleted = false`
	result, err := r.db.Exec(query, offeringID)
	if err != nil {
		return fmt.Errorf("failed to delete offering: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}
