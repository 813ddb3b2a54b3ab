package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/offthegrid/booking-backend/internal/config"
	"github.com/offthegrid/booking-backend/internal/database"
	"github.com/offthegrid/booking-backend/internal/models"
	"github.com/offthegrid/booking-backend/internal/utils"
	"github.com/offthegrid/booking-backend/pkg/validator"
)

// ReservationService drives the booking lifecycle: slot holds, pending
// bookings, checkout orders, capture, and the compensating releases.
type ReservationService struct {
	offeringRepo *database.OfferingRepository
	slotRepo     *database.ScheduleSlotRepository
	bookingRepo  *database.BookingRepository
	orderRepo    *database.PayPalOrderRepository
	paypal       *PayPalService
	audit        *AuditService
	contact      *validator.ContactValidator
	cfg          *config.Config
	logger       *logrus.Logger
}

// NewReservationService creates a new ReservationService
func NewReservationService(
	offeringRepo *database.OfferingRepository,
	slotRepo *database.ScheduleSlotRepository,
	bookingRepo *database.BookingRepository,
	orderRepo *database.PayPalOrderRepository,
	paypal *PayPalService,
	audit *AuditService,
	cfg *config.Config,
	logger *logrus.Logger,
) *ReservationService {
	return &ReservationService{
		offeringRepo: offeringRepo,
		slotRepo:     slotRepo,
		bookingRepo:  bookingRepo,
		orderRepo:    orderRepo,
		paypal:       paypal,
		audit:        audit,
		contact:      validator.NewContactValidator(),
		cfg:          cfg,
		logger:       logger,
	}
}

// validateContact enumerates every invalid contact field before touching
// any state, so a rejected request leaves the slot untouched.
func (s *ReservationService) validateContact(info models.ContactInfo) error {
	fields := s.contact.InvalidFields(info.FullName, info.Email, info.Phone)
	if len(fields) > 0 {
		return &models.ValidationError{Fields: fields}
	}
	return nil
}

// withClient copies the request's client device summary into audit details
// when one was attached by the request logger.
func (s *ReservationService) withClient(ctx context.Context, details map[string]interface{}) map[string]interface{} {
	if client, ok := utils.ClientInfoFromContext(ctx); ok {
		details["client"] = client
	}
	return details
}

// quote computes the server-side price for a slot: override or base price,
// multiplied by participants for per-participant offerings.
func quote(offering *models.Offering, slot *models.ScheduleSlot, participants int) float64 {
	price := slot.Price(offering)
	if offering.IsPerParticipant() {
		return price * float64(participants)
	}
	return price
}

// checkCapacity rejects reservations the slot cannot seat. Flat-fee
// packages book the whole slot, so only per-participant offerings are
// bounded by the seat count.
func checkCapacity(offering *models.Offering, slot *models.ScheduleSlot, participants int) error {
	if !offering.IsPerParticipant() {
		return nil
	}
	if slot.Capacity <= 0 {
		return models.ErrConflict
	}
	if participants > slot.Capacity {
		return &models.ValidationError{Fields: []string{"participants"}}
	}
	return nil
}

// CreateBooking places a hold on the slot and creates a PENDING booking.
// The price is computed server-side; the client-sent total is advisory only.
func (s *ReservationService) CreateBooking(ctx context.Context, userID *uuid.UUID, offeringID uuid.UUID, req *models.CreateBookingRequest) (*models.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateContact(req.ContactInfo); err != nil {
		return nil, err
	}
	slotID := uuid.MustParse(req.ScheduleID)

	offering, err := s.offeringRepo.GetByID(offeringID)
	if err != nil {
		return nil, err
	}
	slot, err := s.slotRepo.GetBookableSlot(offeringID, slotID)
	if err != nil {
		return nil, err
	}
	if err := checkCapacity(offering, slot, req.Participants); err != nil {
		return nil, err
	}

	total := quote(offering, slot, req.Participants)
	if req.TotalPrice > 0 && req.TotalPrice != total {
		s.logger.WithFields(logrus.Fields{
			"slot_id":      slotID,
			"client_total": req.TotalPrice,
			"server_total": total,
		}).Warn("Client total differs from server quote, using server quote")
	}

	holdUntil := time.Now().Add(s.cfg.Booking.HoldTTL)
	if err := s.slotRepo.Reserve(slot.ID, holdUntil); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		UserID:         userID,
		ScheduleSlotID: slot.ID,
		TotalAmount:    total,
		Participants:   req.Participants,
		ContactInfo:    req.ContactInfo,
	}
	if err := s.bookingRepo.CreatePending(booking); err != nil {
		// The hold was taken but the booking row failed; release so the
		// slot does not stay locked until the sweep.
		if relErr := s.slotRepo.Release(slot.ID); relErr != nil {
			s.logger.WithError(relErr).WithField("slot_id", slot.ID).Error("Failed to release slot after booking insert failure")
		}
		return nil, err
	}

	s.audit.Record(userID, models.AuditActionCreate, models.AuditEntityBooking, booking.ID.String(), s.withClient(ctx, map[string]interface{}{
		"offering_id":  offeringID.String(),
		"slot_id":      slot.ID.String(),
		"total_amount": total,
		"participants": req.Participants,
	}))

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"slot_id":    slot.ID,
		"total":      total,
	}).Info("Booking created")

	return booking, nil
}

// CreateOrder starts a gateway checkout: holds the slot, creates the gateway
// order with embedded correlation data, and persists the shadow record.
// A gateway failure releases the hold before returning.
func (s *ReservationService) CreateOrder(ctx context.Context, userID *uuid.UUID, req *models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	verr := &models.ValidationError{}
	offeringID, err := uuid.Parse(req.OfferingID)
	if err != nil {
		verr.AddField("offeringId")
	}
	slotID, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		verr.AddField("scheduleId")
	}
	if verr.HasErrors() {
		return nil, verr
	}
	if req.Participants < 1 {
		req.Participants = 1
	}
	if err := s.validateContact(req.ContactInfo); err != nil {
		return nil, err
	}

	offering, err := s.offeringRepo.GetByID(offeringID)
	if err != nil {
		return nil, err
	}
	slot, err := s.slotRepo.GetBookableSlot(offeringID, slotID)
	if err != nil {
		return nil, err
	}
	if err := checkCapacity(offering, slot, req.Participants); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = s.cfg.PayPal.Currency
	}
	amount := quote(offering, slot, req.Participants)

	holdUntil := time.Now().Add(s.cfg.Booking.HoldTTL)
	if err := s.slotRepo.Reserve(slot.ID, holdUntil); err != nil {
		return nil, err
	}

	result, err := s.paypal.CreateOrder(ctx, &CreateOrderParams{
		Amount:      amount,
		Currency:    currency,
		Description: offering.Name,
		Correlation: CorrelationData{
			ScheduleID:   slot.ID.String(),
			OfferingID:   offering.ID.String(),
			Participants: req.Participants,
			ContactInfo:  req.ContactInfo,
			UserID:       UserIDString(userID),
		},
	}, s.redirectURLs())
	if err != nil {
		if relErr := s.slotRepo.Release(slot.ID); relErr != nil {
			s.logger.WithError(relErr).WithField("slot_id", slot.ID).Error("Failed to release slot after gateway failure")
		}
		return nil, err
	}

	order := &models.PayPalOrder{
		OrderID:        result.OrderID,
		OfferingID:     offering.ID,
		ScheduleSlotID: slot.ID,
		UserID:         userID,
		Amount:         amount,
		Currency:       currency,
		Participants:   req.Participants,
		ContactInfo:    req.ContactInfo,
	}
	if err := s.orderRepo.Create(order); err != nil {
		if relErr := s.slotRepo.Release(slot.ID); relErr != nil {
			s.logger.WithError(relErr).WithField("slot_id", slot.ID).Error("Failed to release slot after order persist failure")
		}
		return nil, err
	}

	s.audit.Record(userID, models.AuditActionCreate, models.AuditEntityPayPalOrder, order.OrderID, s.withClient(ctx, map[string]interface{}{
		"offering_id": offering.ID.String(),
		"slot_id":     slot.ID.String(),
		"amount":      amount,
		"currency":    currency,
	}))

	return &models.CreateOrderResponse{
		OrderID:    result.OrderID,
		ApproveURL: result.ApproveURL,
		Amount:     amount,
		Currency:   currency,
	}, nil
}

// CapturePayment finalizes a gateway order after customer approval. The
// whole transition is idempotent: a capture id seen before returns the
// booking confirmed by the first callback. A rejected capture cancels the
// shadow order and releases the slot hold.
func (s *ReservationService) CapturePayment(ctx context.Context, orderID string) (*models.Booking, error) {
	order, err := s.orderRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case models.PayPalOrderStatusCompleted:
		// Replayed success redirect. The gateway rejects a second capture
		// attempt, so return the booking recorded by the first one.
		if order.BookingID == nil {
			return nil, models.ErrConflict
		}
		return s.bookingRepo.GetByID(*order.BookingID)
	case models.PayPalOrderStatusCancelled:
		return nil, models.ErrConflict
	}

	capture, err := s.paypal.CaptureOrder(ctx, orderID)
	if err != nil {
		var captureErr *CaptureError
		if errors.As(err, &captureErr) {
			s.failOrder(order, captureErr.Reason)
		}
		return nil, err
	}

	outcome, err := s.bookingRepo.FinalizeCapture(order, capture.CaptureID, capture.Amount, order.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize capture: %w", err)
	}

	if outcome.Applied {
		s.audit.Record(order.UserID, models.AuditActionPayment, models.AuditEntityBooking, outcome.Booking.ID.String(), map[string]interface{}{
			"order_id":       orderID,
			"transaction_id": capture.CaptureID,
			"amount":         capture.Amount,
			"currency":       capture.Currency,
		})
		s.logger.WithFields(logrus.Fields{
			"booking_id": outcome.Booking.ID,
			"order_id":   orderID,
			"amount":     capture.Amount,
		}).Info("Payment captured and booking confirmed")
	} else {
		s.logger.WithFields(logrus.Fields{
			"booking_id": outcome.Booking.ID,
			"order_id":   orderID,
		}).Info("Duplicate capture callback, returning existing booking")
	}

	return outcome.Booking, nil
}

// CancelOrder handles the customer abandoning checkout at the gateway:
// the shadow order is cancelled and the slot hold released.
func (s *ReservationService) CancelOrder(orderID string) error {
	order, err := s.orderRepo.GetByOrderID(orderID)
	if err != nil {
		return err
	}
	s.failOrder(order, "cancelled by customer")
	return nil
}

// failOrder cancels the shadow order, releases the slot, and records the
// failure. Used for both rejected captures and customer cancellations.
func (s *ReservationService) failOrder(order *models.PayPalOrder, reason string) {
	if err := s.orderRepo.MarkCancelled(order.OrderID); err != nil {
		s.logger.WithError(err).WithField("order_id", order.OrderID).Error("Failed to cancel order record")
	}
	if err := s.slotRepo.Release(order.ScheduleSlotID); err != nil {
		s.logger.WithError(err).WithField("slot_id", order.ScheduleSlotID).Error("Failed to release slot for failed order")
	}
	s.audit.Record(order.UserID, models.AuditActionPaymentFailed, models.AuditEntityPayPalOrder, order.OrderID, map[string]interface{}{
		"slot_id": order.ScheduleSlotID.String(),
		"reason":  reason,
	})
}

// GetBooking returns a booking if the requester owns it or is an admin
func (s *ReservationService) GetBooking(bookingID uuid.UUID, requesterID *uuid.UUID, isAdmin bool) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && (requesterID == nil || !booking.BelongsTo(*requesterID)) {
		return nil, models.ErrForbidden
	}
	return booking, nil
}

// ListBookings returns the requester's bookings, newest first
func (s *ReservationService) ListBookings(userID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookingRepo.ListByUser(userID, limit, offset)
}

// RecordPayment attaches an externally processed payment to a booking.
// Duplicate transaction ids are rejected with ErrConflict so the caller
// knows nothing changed.
func (s *ReservationService) RecordPayment(bookingID uuid.UUID, actorID *uuid.UUID, req *models.RecordPaymentRequest) (*models.Booking, error) {
	if req.Amount <= 0 {
		return nil, &models.ValidationError{Fields: []string{"amount"}}
	}
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.IsTerminal() {
		return nil, models.ErrConflict
	}

	payment := &models.Payment{
		BookingID:     booking.ID,
		Amount:        req.Amount,
		Method:        req.Method,
		Status:        models.PaymentStatusCompleted,
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
	}
	applied, err := s.bookingRepo.RecordPayment(payment)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, models.ErrConflict
	}

	booking, err = s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusConfirmed {
		if err := s.slotRepo.Confirm(booking.ScheduleSlotID); err != nil {
			s.logger.WithError(err).WithField("slot_id", booking.ScheduleSlotID).Error("Failed to confirm slot after payment")
		}
	}

	s.audit.Record(actorID, models.AuditActionPayment, models.AuditEntityBooking, booking.ID.String(), map[string]interface{}{
		"transaction_id": req.TransactionID,
		"amount":         req.Amount,
		"method":         req.Method,
	})
	return booking, nil
}

// ListPayments returns the payments recorded against a booking
func (s *ReservationService) ListPayments(bookingID uuid.UUID, requesterID *uuid.UUID, isAdmin bool) ([]models.Payment, error) {
	if _, err := s.GetBooking(bookingID, requesterID, isAdmin); err != nil {
		return nil, err
	}
	return s.bookingRepo.ListPayments(bookingID)
}

// CancelBooking cancels a PENDING booking and releases its slot hold
func (s *ReservationService) CancelBooking(bookingID uuid.UUID, requesterID *uuid.UUID, isAdmin bool, reason *string) error {
	booking, err := s.GetBooking(bookingID, requesterID, isAdmin)
	if err != nil {
		return err
	}
	if err := s.bookingRepo.Cancel(booking.ID); err != nil {
		return err
	}
	if err := s.slotRepo.Release(booking.ScheduleSlotID); err != nil {
		s.logger.WithError(err).WithField("slot_id", booking.ScheduleSlotID).Error("Failed to release slot for cancelled booking")
	}

	details := map[string]interface{}{"slot_id": booking.ScheduleSlotID.String()}
	if reason != nil {
		details["reason"] = *reason
	}
	s.audit.Record(requesterID, models.AuditActionCancel, models.AuditEntityBooking, booking.ID.String(), details)
	return nil
}

// redirectURLs builds the gateway return and cancel URLs from the public
// base URL of this server.
func (s *ReservationService) redirectURLs() RedirectURLs {
	base := s.cfg.Server.PublicBaseURL
	return RedirectURLs{
		ReturnURL: base + "/api/v1/checkout/capture",
		CancelURL: base + "/api/v1/checkout/cancel",
	}
}
