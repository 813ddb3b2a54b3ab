package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/offthegrid/booking-backend/internal/database"
	"github.com/offthegrid/booking-backend/internal/models"
)

// AuditService appends entries to the audit trail. Recording is best effort:
// a failed insert is logged and swallowed so the action that triggered it
// still succeeds.
type AuditService struct {
	auditRepo *database.AuditLogRepository
	logger    *logrus.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo *database.AuditLogRepository, logger *logrus.Logger) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Record appends one audit entry. actorID is nil for guest and system actions.
func (s *AuditService) Record(actorID *uuid.UUID, action, entityType, entityID string, details map[string]interface{}) {
	entry := &models.AuditLog{
		UserID:     actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}

	if err := s.auditRepo.Insert(entry); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action":      action,
			"entity_type": entityType,
			"entity_id":   entityID,
		}).Error("Failed to record audit entry")
	}
}

// ListRecent returns the most recent audit entries for the admin view
func (s *AuditService) ListRecent(limit, offset int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.auditRepo.ListRecent(limit, offset)
}

// ListForEntity returns the audit history of one entity, newest first
func (s *AuditService) ListForEntity(entityType, entityID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.auditRepo.ListForEntity(entityType, entityID, limit)
}
