package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/offthegrid/booking-backend/internal/config"
	"github.com/offthegrid/booking-backend/internal/database"
	"github.com/offthegrid/booking-backend/internal/services"
)

func newTestCheckoutHandler(t *testing.T) (*CheckoutHandler, sqlmock.Sqlmock) {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })

	db := &database.PostgresDB{DB: sqlx.NewDb(rawDB, "sqlmock")}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Server: config.ServerConfig{
			PublicBaseURL:   "http://localhost:8080",
			FrontendBaseURL: "http://localhost:3000",
		},
		PayPal: config.PayPalConfig{Currency: "USD"},
		Booking: config.BookingConfig{
			HoldTTL:         20 * time.Minute,
			SweepInterval:   5 * time.Minute,
			PendingOrderTTL: time.Hour,
		},
	}

	auditService := services.NewAuditService(database.NewAuditLogRepository(db), logger)
	reservationService := services.NewReservationService(
		database.NewOfferingRepository(db),
		database.NewScheduleSlotRepository(db),
		database.NewBookingRepository(db),
		database.NewPayPalOrderRepository(db),
		services.NewPayPalService(&cfg.PayPal, logger),
		auditService,
		cfg,
		logger,
	)
	return NewCheckoutHandler(reservationService, cfg, logger), mock
}

func newCheckoutRouter(handler *CheckoutHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/v1/checkout/capture", handler.Capture)
	router.GET("/api/v1/checkout/cancel", handler.Cancel)
	return router
}

// The capture route always answers with a redirect; the customer arrives
// here from the gateway and must never see an API error body.
func TestCaptureAlwaysRedirects(t *testing.T) {
	t.Run("Missing Token", func(t *testing.T) {
		handler, _ := newTestCheckoutHandler(t)
		router := newCheckoutRouter(handler)

		req := httptest.NewRequest("GET", "/api/v1/checkout/capture", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "http://localhost:3000/booking/failed", w.Header().Get("Location"))
	})

	t.Run("Unknown Order", func(t *testing.T) {
		handler, mock := newTestCheckoutHandler(t)
		router := newCheckoutRouter(handler)

		mock.ExpectQuery(`SELECT (.+) FROM paypal_orders`).
			WithArgs("ORDER-404").
			WillReturnRows(sqlmock.NewRows([]string{"order_id"}))

		req := httptest.NewRequest("GET", "/api/v1/checkout/capture?token=ORDER-404", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "/booking/failed")
		assert.Contains(t, w.Header().Get("Location"), "ORDER-404")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCancelRedirects(t *testing.T) {
	t.Run("No Token", func(t *testing.T) {
		handler, _ := newTestCheckoutHandler(t)
		router := newCheckoutRouter(handler)

		req := httptest.NewRequest("GET", "/api/v1/checkout/cancel", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "http://localhost:3000/booking/cancelled", w.Header().Get("Location"))
	})
}
