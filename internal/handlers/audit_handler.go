package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/offthegrid/booking-backend/internal/services"
)

// AuditHandler exposes the audit trail to administrators
type AuditHandler struct {
	auditSvc *services.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditSvc *services.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// ListAuditLogs lists recent audit entries
// @Summary List audit log entries
// @Tags Admin
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Param entity_type query string false "Filter by entity type"
// @Param entity_id query string false "Filter by entity id (requires entity_type)"
// @Success 200 {array} models.AuditLog
// @Security BearerAuth
// @Router /api/v1/admin/audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entityType := c.Query("entity_type")
	entityID := c.Query("entity_id")

	if entityType != "" && entityID != "" {
		entries, err := h.auditSvc.ListForEntity(entityType, entityID, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"audit_logs": entries, "count": len(entries)})
		return
	}

	entries, err := h.auditSvc.ListRecent(limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": entries, "count": len(entries)})
}
