package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/offthegrid/booking-backend/internal/config"
	"github.com/offthegrid/booking-backend/internal/middleware"
	"github.com/offthegrid/booking-backend/internal/models"
	"github.com/offthegrid/booking-backend/internal/services"
)

// CheckoutHandler handles the gateway checkout flow
type CheckoutHandler struct {
	reservationSvc *services.ReservationService
	cfg            *config.Config
	logger         *logrus.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(reservationSvc *services.ReservationService, cfg *config.Config, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		reservationSvc: reservationSvc,
		cfg:            cfg,
		logger:         logger,
	}
}

// CreateOrder creates a gateway order for a slot
// @Summary Start a gateway checkout
// @Description Holds the slot and creates a PayPal order; the client redirects the customer to the returned approval URL
// @Tags Checkout
// @Accept json
// @Produce json
// @Param request body models.CreateOrderRequest true "Checkout request"
// @Success 201 {object} models.CreateOrderResponse
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 409 {object} map[string]interface{} "Slot no longer available"
// @Router /api/v1/checkout/orders [post]
func (h *CheckoutHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.reservationSvc.CreateOrder(c.Request.Context(), middleware.OptionalUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Capture is the gateway return URL. The customer lands here after approving
// payment; the order id arrives as the token query parameter. The response
// is always a redirect so the customer never sees raw JSON.
// @Summary Gateway return URL
// @Tags Checkout
// @Param token query string true "Gateway order ID"
// @Success 302 "Redirect to the frontend success or failure page"
// @Router /api/v1/checkout/capture [get]
func (h *CheckoutHandler) Capture(c *gin.Context) {
	orderID := c.Query("token")
	if orderID == "" {
		c.Redirect(http.StatusFound, h.frontendURL("/booking/failed", nil))
		return
	}

	booking, err := h.reservationSvc.CapturePayment(c.Request.Context(), orderID)
	if err != nil {
		h.logger.WithError(err).WithField("order_id", orderID).Error("Capture failed")
		c.Redirect(http.StatusFound, h.frontendURL("/booking/failed", url.Values{"orderId": {orderID}}))
		return
	}

	c.Redirect(http.StatusFound, h.frontendURL("/booking/success", url.Values{"bookingId": {booking.ID.String()}}))
}

// Cancel is the gateway cancel URL. The customer abandoned checkout; the
// shadow order is cancelled and the slot hold released before redirecting.
// @Summary Gateway cancel URL
// @Tags Checkout
// @Param token query string false "Gateway order ID"
// @Success 302 "Redirect to the frontend cancelled page"
// @Router /api/v1/checkout/cancel [get]
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	orderID := c.Query("token")
	if orderID != "" {
		if err := h.reservationSvc.CancelOrder(orderID); err != nil {
			h.logger.WithError(err).WithField("order_id", orderID).Error("Failed to cancel abandoned order")
		}
	}
	c.Redirect(http.StatusFound, h.frontendURL("/booking/cancelled", nil))
}

func (h *CheckoutHandler) frontendURL(path string, query url.Values) string {
	if len(query) == 0 {
		return h.cfg.Server.FrontendBaseURL + path
	}
	return fmt.Sprintf("%s%s?%s", h.cfg.Server.FrontendBaseURL, path, query.Encode())
}
