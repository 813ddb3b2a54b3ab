package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/offthegrid/booking-backend/internal/config"
	"github.com/offthegrid/booking-backend/internal/database"
)

// SweepService runs the background reconciliation jobs: reopening slots
// whose holds lapsed, cancelling gateway orders that never captured, and
// expiring pending bookings that never paid.
type SweepService struct {
	cron        *cron.Cron
	slotRepo    *database.ScheduleSlotRepository
	bookingRepo *database.BookingRepository
	orderRepo   *database.PayPalOrderRepository
	cfg         *config.BookingConfig
	logger      *logrus.Logger
}

// NewSweepService creates a new SweepService
func NewSweepService(
	slotRepo *database.ScheduleSlotRepository,
	bookingRepo *database.BookingRepository,
	orderRepo *database.PayPalOrderRepository,
	cfg *config.BookingConfig,
	logger *logrus.Logger,
) *SweepService {
	return &SweepService{
		cron:        cron.New(),
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
		orderRepo:   orderRepo,
		cfg:         cfg,
		logger:      logger,
	}
}

// Start schedules the sweep at the configured interval
func (s *SweepService) Start() error {
	spec := fmt.Sprintf("@every %s", s.cfg.SweepInterval)
	if _, err := s.cron.AddFunc(spec, s.RunSweep); err != nil {
		return fmt.Errorf("failed to schedule sweep job: %w", err)
	}
	s.cron.Start()
	s.logger.WithField("interval", s.cfg.SweepInterval.String()).Info("Sweep service started")
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *SweepService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Sweep service stopped")
}

// RunSweep executes one full sweep pass. Each step is independent; a
// failure in one does not stop the others.
func (s *SweepService) RunSweep() {
	start := time.Now()

	staleOrders, err := s.orderRepo.CancelStaleCreated(time.Now().Add(-s.cfg.PendingOrderTTL))
	if err != nil {
		s.logger.WithError(err).Error("Sweep failed to cancel stale orders")
	}

	expiredBookings, err := s.bookingRepo.ExpireStalePending(time.Now().Add(-s.cfg.HoldTTL))
	if err != nil {
		s.logger.WithError(err).Error("Sweep failed to expire stale bookings")
	}

	releasedSlots, err := s.slotRepo.ReleaseExpiredHolds()
	if err != nil {
		s.logger.WithError(err).Error("Sweep failed to release expired holds")
	}

	if staleOrders > 0 || expiredBookings > 0 || releasedSlots > 0 {
		s.logger.WithFields(logrus.Fields{
			"stale_orders":     staleOrders,
			"expired_bookings": expiredBookings,
			"released_slots":   releasedSlots,
			"duration":         time.Since(start).String(),
		}).Info("Sweep pass completed")
	}
}
