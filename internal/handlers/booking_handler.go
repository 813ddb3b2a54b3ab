package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/offthegrid/booking-backend/internal/middleware"
	"github.com/offthegrid/booking-backend/internal/models"
	"github.com/offthegrid/booking-backend/internal/services"
)

// BookingHandler handles booking lifecycle endpoints
type BookingHandler struct {
	reservationSvc *services.ReservationService
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(reservationSvc *services.ReservationService) *BookingHandler {
	return &BookingHandler{reservationSvc: reservationSvc}
}

// CreateBooking books a schedule slot for an offering
// @Summary Book a schedule slot
// @Description Places a hold on the slot and creates a PENDING booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Param request body models.CreateBookingRequest true "Booking request"
// @Success 201 {object} map[string]interface{} "Booking created"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 404 {object} map[string]interface{} "Offering or slot not found"
// @Failure 409 {object} map[string]interface{} "Slot no longer available"
// @Router /api/v1/offerings/{id}/bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	offeringID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offering id"})
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.reservationSvc.CreateBooking(c.Request.Context(), middleware.OptionalUserID(c), offeringID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"bookingId": booking.ID,
		"status":    booking.Status,
		"total":     booking.TotalAmount,
	})
}

// GetBooking retrieves a booking
// @Summary Get a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 403 {object} map[string]interface{} "Not the owner"
// @Failure 404 {object} map[string]interface{} "Not found"
// @Security BearerAuth
// @Router /api/v1/bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	userCtx, isAdmin := requesterInfo(c)
	booking, err := h.reservationSvc.GetBooking(bookingID, userCtx, isAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// ListBookings lists the authenticated user's bookings
// @Summary List own bookings
// @Tags Bookings
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Booking
// @Security BearerAuth
// @Router /api/v1/bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	bookings, err := h.reservationSvc.ListBookings(userCtx.UserID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// RecordPayment records an externally processed payment against a booking
// @Summary Record a payment
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body models.RecordPaymentRequest true "Payment details"
// @Success 200 {object} models.Booking
// @Failure 409 {object} map[string]interface{} "Duplicate transaction or overpayment"
// @Security BearerAuth
// @Router /api/v1/bookings/{id}/payment [post]
func (h *BookingHandler) RecordPayment(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	var req models.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	booking, err := h.reservationSvc.RecordPayment(bookingID, middleware.OptionalUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// ListPayments lists the payments recorded against a booking
// @Summary List booking payments
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {array} models.Payment
// @Security BearerAuth
// @Router /api/v1/bookings/{id}/payments [get]
func (h *BookingHandler) ListPayments(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	userCtx, isAdmin := requesterInfo(c)
	payments, err := h.reservationSvc.ListPayments(bookingID, userCtx, isAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments, "count": len(payments)})
}

// CancelBooking cancels a PENDING booking and releases its slot
// @Summary Cancel a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body models.CancelBookingRequest false "Cancellation reason"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Booking is not cancellable"
// @Security BearerAuth
// @Router /api/v1/bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	var req models.CancelBookingRequest
	// Body is optional; ignore bind errors on an empty body.
	_ = c.ShouldBindJSON(&req)

	userCtx, isAdmin := requesterInfo(c)
	if err := h.reservationSvc.CancelBooking(bookingID, userCtx, isAdmin, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled"})
}

// requesterInfo extracts the optional user id and admin flag from the
// request context
func requesterInfo(c *gin.Context) (*uuid.UUID, bool) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		return nil, false
	}
	id := userCtx.UserID
	return &id, userCtx.Role == models.RoleAdmin
}
