package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	PayPal   PayPalConfig
	Booking  BookingConfig
	CORS     CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
	// PublicBaseURL is used to build gateway return/cancel URLs
	PublicBaseURL string
	// FrontendBaseURL is where capture redirects send the customer
	FrontendBaseURL string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// PayPalConfig holds PayPal REST API configuration
type PayPalConfig struct {
	Environment string // "sandbox" or "production"
	ClientID    string
	Secret      string // never expose to clients
	BrandName   string
	Currency    string
}

// BookingConfig holds reservation flow tuning
type BookingConfig struct {
	// HoldTTL is how long a PENDING slot is held before the sweep reopens it
	HoldTTL time.Duration
	// SweepInterval is how often expired holds and stale orders are swept
	SweepInterval time.Duration
	// PendingOrderTTL is how long a CREATED gateway order stays valid
	PendingOrderTTL time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
			FrontendBaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
		},
		PayPal: PayPalConfig{
			Environment: getEnv("PAYPAL_ENVIRONMENT", "sandbox"),
			ClientID:    getEnv("PAYPAL_CLIENT_ID", ""),
			Secret:      getEnv("PAYPAL_SECRET", ""),
			BrandName:   getEnv("PAYPAL_BRAND_NAME", "Off The Grid"),
			Currency:    getEnv("PAYPAL_CURRENCY", "USD"),
		},
		Booking: BookingConfig{
			HoldTTL:         time.Duration(getEnvAsInt("BOOKING_HOLD_TTL_MINUTES", 20)) * time.Minute,
			SweepInterval:   time.Duration(getEnvAsInt("BOOKING_SWEEP_INTERVAL_MINUTES", 5)) * time.Minute,
			PendingOrderTTL: time.Duration(getEnvAsInt("BOOKING_PENDING_ORDER_TTL_MINUTES", 60)) * time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Server.Environment == "production" {
		if c.PayPal.ClientID == "" {
			return fmt.Errorf("PAYPAL_CLIENT_ID is required in production")
		}
		if c.PayPal.Secret == "" {
			return fmt.Errorf("PAYPAL_SECRET is required in production")
		}
	}

	if c.Booking.HoldTTL < time.Minute {
		return fmt.Errorf("BOOKING_HOLD_TTL_MINUTES must be at least 1")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
