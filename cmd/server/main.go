package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/offthegrid/booking-backend/internal/config"
	"github.com/offthegrid/booking-backend/internal/database"
	"github.com/offthegrid/booking-backend/internal/handlers"
	"github.com/offthegrid/booking-backend/internal/middleware"
	"github.com/offthegrid/booking-backend/internal/services"
	"github.com/offthegrid/booking-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Off The Grid Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	offeringRepo := database.NewOfferingRepository(db)
	slotRepo := database.NewScheduleSlotRepository(db)
	bookingRepo := database.NewBookingRepository(db)
	orderRepo := database.NewPayPalOrderRepository(db)
	auditRepo := database.NewAuditLogRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	auditService := services.NewAuditService(auditRepo, logger)
	authService := services.NewAuthService(userRepo, jwtService, logger)
	paypalService := services.NewPayPalService(&cfg.PayPal, logger)
	if !paypalService.IsConfigured() {
		logger.Warn("PayPal credentials not set, gateway checkout will be unavailable")
	}
	reservationService := services.NewReservationService(
		offeringRepo,
		slotRepo,
		bookingRepo,
		orderRepo,
		paypalService,
		auditService,
		cfg,
		logger,
	)

	// Start the background sweep
	sweepService := services.NewSweepService(slotRepo, bookingRepo, orderRepo, &cfg.Booking, logger)
	if err := sweepService.Start(); err != nil {
		logger.Fatalf("Failed to start sweep service: %v", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	bookingHandler := handlers.NewBookingHandler(reservationService)
	checkoutHandler := handlers.NewCheckoutHandler(reservationService, cfg, logger)
	scheduleHandler := handlers.NewScheduleHandler(offeringRepo, slotRepo, auditService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": version})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", authHandler.Login)

		// Public catalogue
		v1.GET("/offerings", scheduleHandler.ListOfferings)
		v1.GET("/offerings/:id", scheduleHandler.GetOffering)

		// Booking creation works for guests and logged-in users
		v1.POST("/offerings/:id/bookings", middleware.OptionalAuth(jwtService), bookingHandler.CreateBooking)

		// Gateway checkout
		v1.POST("/checkout/orders", middleware.OptionalAuth(jwtService), checkoutHandler.CreateOrder)
		v1.GET("/checkout/capture", checkoutHandler.Capture)
		v1.GET("/checkout/cancel", checkoutHandler.Cancel)

		// Booking management requires authentication
		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(jwtService))
		{
			authed.GET("/bookings", bookingHandler.ListBookings)
			authed.GET("/bookings/:id", bookingHandler.GetBooking)
			authed.GET("/bookings/:id/payments", bookingHandler.ListPayments)
			authed.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)
			authed.POST("/bookings/:id/payment",
				middleware.RequireCapability(middleware.CapRecordPayment),
				bookingHandler.RecordPayment)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService))
		{
			admin.POST("/offerings",
				middleware.RequireCapability(middleware.CapManageOfferings),
				scheduleHandler.CreateOffering)
			admin.DELETE("/offerings/:id",
				middleware.RequireCapability(middleware.CapManageOfferings),
				scheduleHandler.DeleteOffering)
			admin.POST("/offerings/:id/slots",
				middleware.RequireCapability(middleware.CapManageSlots),
				scheduleHandler.CreateSlot)
			admin.GET("/offerings/:id/slots",
				middleware.RequireCapability(middleware.CapManageSlots),
				scheduleHandler.ListSlots)
			admin.POST("/slots/:id/cancel",
				middleware.RequireCapability(middleware.CapManageSlots),
				scheduleHandler.CancelSlot)
			admin.GET("/audit-logs",
				middleware.RequireCapability(middleware.CapViewAuditLog),
				auditHandler.ListAuditLogs)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	sweepService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}
