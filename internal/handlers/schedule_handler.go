package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/offthegrid/booking-backend/internal/database"
	"github.com/offthegrid/booking-backend/internal/middleware"
	"github.com/offthegrid/booking-backend/internal/models"
	"github.com/offthegrid/booking-backend/internal/services"
)

// ScheduleHandler handles offering and schedule slot management
type ScheduleHandler struct {
	offeringRepo *database.OfferingRepository
	slotRepo     *database.ScheduleSlotRepository
	audit        *services.AuditService
}

// NewScheduleHandler creates a new ScheduleHandler
func NewScheduleHandler(
	offeringRepo *database.OfferingRepository,
	slotRepo *database.ScheduleSlotRepository,
	audit *services.AuditService,
) *ScheduleHandler {
	return &ScheduleHandler{
		offeringRepo: offeringRepo,
		slotRepo:     slotRepo,
		audit:        audit,
	}
}

// ListOfferings lists all active offerings
// @Summary List offerings
// @Tags Offerings
// @Produce json
// @Success 200 {array} models.Offering
// @Router /api/v1/offerings [get]
func (h *ScheduleHandler) ListOfferings(c *gin.Context) {
	offerings, err := h.offeringRepo.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offerings": offerings, "count": len(offerings)})
}

// GetOffering retrieves one offering with its bookable slots
// @Summary Get an offering and its slots
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{} "Not found"
// @Router /api/v1/offerings/{id} [get]
func (h *ScheduleHandler) GetOffering(c *gin.Context) {
	offeringID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offering id"})
		return
	}

	offering, err := h.offeringRepo.GetByID(offeringID)
	if err != nil {
		respondError(c, err)
		return
	}
	slots, err := h.slotRepo.ListByOffering(offeringID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offering": offering, "slots": slots})
}

// CreateOffering creates a new offering
// @Summary Create an offering
// @Tags Offerings
// @Accept json
// @Produce json
// @Param request body models.CreateOfferingRequest true "Offering"
// @Success 201 {object} models.Offering
// @Security BearerAuth
// @Router /api/v1/admin/offerings [post]
func (h *ScheduleHandler) CreateOffering(c *gin.Context) {
	var req models.CreateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offering := &models.Offering{
		Type:           req.Type,
		Name:           req.Name,
		Description:    req.Description,
		BasePrice:      req.BasePrice,
		PerParticipant: req.Type == models.OfferingTypeTour,
	}
	if err := h.offeringRepo.Create(offering); err != nil {
		respondError(c, err)
		return
	}

	h.audit.Record(middleware.OptionalUserID(c), models.AuditActionCreate, models.AuditEntityOffering, offering.ID.String(), map[string]interface{}{
		"name": offering.Name,
		"type": offering.Type,
	})
	c.JSON(http.StatusCreated, offering)
}

// DeleteOffering soft deletes an offering
// @Summary Delete an offering
// @Tags Offerings
// @Param id path string true "Offering ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/admin/offerings/{id} [delete]
func (h *ScheduleHandler) DeleteOffering(c *gin.Context) {
	offeringID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offering id"})
		return
	}
	if err := h.offeringRepo.SoftDelete(offeringID); err != nil {
		respondError(c, err)
		return
	}
	h.audit.Record(middleware.OptionalUserID(c), models.AuditActionCancel, models.AuditEntityOffering, offeringID.String(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Offering deleted"})
}

// CreateSlot schedules a new slot for an offering
// @Summary Create a schedule slot
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Param request body models.CreateSlotRequest true "Slot"
// @Success 201 {object} models.ScheduleSlot
// @Security BearerAuth
// @Router /api/v1/admin/offerings/{id}/slots [post]
func (h *ScheduleHandler) CreateSlot(c *gin.Context) {
	offeringID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offering id"})
		return
	}
	if _, err := h.offeringRepo.GetByID(offeringID); err != nil {
		respondError(c, err)
		return
	}

	var req models.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slot := &models.ScheduleSlot{
		OfferingID:    offeringID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		PriceOverride: req.PriceOverride,
		Capacity:      req.Capacity,
	}
	if err := h.slotRepo.Create(slot); err != nil {
		respondError(c, err)
		return
	}

	h.audit.Record(middleware.OptionalUserID(c), models.AuditActionCreate, models.AuditEntityScheduleSlot, slot.ID.String(), map[string]interface{}{
		"offering_id": offeringID.String(),
		"start_time":  slot.StartTime,
	})
	c.JSON(http.StatusCreated, slot)
}

// ListSlots lists every slot for an offering, cancelled included
// @Summary List schedule slots for an offering
// @Tags Schedule
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {array} models.ScheduleSlot
// @Security BearerAuth
// @Router /api/v1/admin/offerings/{id}/slots [get]
func (h *ScheduleHandler) ListSlots(c *gin.Context) {
	offeringID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offering id"})
		return
	}
	slots, err := h.slotRepo.ListAllByOffering(offeringID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots, "count": len(slots)})
}

// CancelSlot cancels an OPEN or PENDING slot
// @Summary Cancel a schedule slot
// @Tags Schedule
// @Param id path string true "Slot ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Slot is booked"
// @Security BearerAuth
// @Router /api/v1/admin/slots/{id}/cancel [post]
func (h *ScheduleHandler) CancelSlot(c *gin.Context) {
	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot id"})
		return
	}
	if err := h.slotRepo.Cancel(slotID); err != nil {
		respondError(c, err)
		return
	}
	h.audit.Record(middleware.OptionalUserID(c), models.AuditActionCancel, models.AuditEntityScheduleSlot, slotID.String(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Slot cancelled"})
}
