package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/offthegrid/booking-backend/internal/config"
	"github.com/offthegrid/booking-backend/internal/models"
)

// PayPalEnvironmentURLs maps environment names to REST API base URLs
var PayPalEnvironmentURLs = map[string]string{
	"sandbox":    "https://api-m.sandbox.paypal.com",
	"production": "https://api-m.paypal.com",
}

// tokenExpirySlack is how long before the reported expiry a cached token
// is considered stale.
const tokenExpirySlack = 60 * time.Second

// GatewayAuthError indicates missing credentials or a rejected token exchange
type GatewayAuthError struct {
	Reason string
}

func (e *GatewayAuthError) Error() string {
	return fmt.Sprintf("gateway auth error: %s", e.Reason)
}

// GatewayRequestError indicates a non-2xx response from the gateway
type GatewayRequestError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *GatewayRequestError) Error() string {
	return fmt.Sprintf("gateway %s failed with status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// CaptureError indicates an order that could not be captured
type CaptureError struct {
	OrderID string
	Reason  string
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture failed for order %s: %s", e.OrderID, e.Reason)
}

// CorrelationData is the opaque metadata embedded in a gateway order's
// custom_id so the booking context can be recovered on the capture callback.
// Field names match the wire format used by the checkout clients.
type CorrelationData struct {
	ScheduleID   string             `json:"scheduleId"`
	OfferingID   string             `json:"offeringId"`
	Participants int                `json:"participants,omitempty"`
	ContactInfo  models.ContactInfo `json:"contactInfo"`
	UserID       *string            `json:"userId,omitempty"`
}

// CreateOrderParams carries everything needed to create a gateway order
type CreateOrderParams struct {
	Amount      float64
	Currency    string
	Description string
	Correlation CorrelationData
}

// CreateOrderResult is the gateway-side order plus the user approval URL
type CreateOrderResult struct {
	OrderID    string
	ApproveURL string
}

// CaptureResult is a finalized payment with the recovered correlation data
type CaptureResult struct {
	CaptureID   string
	Amount      float64
	Currency    string
	Correlation CorrelationData
}

// PayPalService handles payment gateway integration with the PayPal REST API
type PayPalService struct {
	config  *config.PayPalConfig
	baseURL string
	logger  *logrus.Logger
	client  *http.Client

	mu          sync.Mutex
	cachedToken string
	tokenExpiry time.Time
}

// NewPayPalService creates a new PayPal payment service
func NewPayPalService(cfg *config.PayPalConfig, logger *logrus.Logger) *PayPalService {
	baseURL, ok := PayPalEnvironmentURLs[cfg.Environment]
	if !ok {
		baseURL = PayPalEnvironmentURLs["sandbox"]
	}
	return &PayPalService{
		config:  cfg,
		baseURL: baseURL,
		logger:  logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsConfigured returns true if gateway credentials are present
func (s *PayPalService) IsConfigured() bool {
	return s.config.ClientID != "" && s.config.Secret != ""
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// GetAccessToken exchanges client credentials for a bearer token. Tokens are
// cached until shortly before their reported expiry.
func (s *PayPalService) GetAccessToken(ctx context.Context) (string, error) {
	if !s.IsConfigured() {
		return "", &GatewayAuthError{Reason: "missing client credentials"}
	}

	s.mu.Lock()
	if s.cachedToken != "" && time.Now().Before(s.tokenExpiry) {
		token := s.cachedToken
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()

	basic := base64.StdEncoding.EncodeToString([]byte(s.config.ClientID + ":" + s.config.Secret))

	var body []byte
	var statusCode int
	err := s.withRetry(ctx, "token exchange", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			s.baseURL+"/v1/oauth2/token",
			strings.NewReader("grant_type=client_credentials"))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Basic "+basic)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		statusCode = resp.StatusCode
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to call token endpoint: %w", err)
	}

	if statusCode != http.StatusOK {
		s.logger.WithFields(logrus.Fields{
			"status_code": statusCode,
			"response":    string(body),
		}).Error("PayPal token exchange rejected")
		return "", &GatewayAuthError{Reason: fmt.Sprintf("token exchange returned status %d", statusCode)}
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", &GatewayAuthError{Reason: "token response missing access_token"}
	}

	s.mu.Lock()
	s.cachedToken = token.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenExpirySlack)
	s.mu.Unlock()

	return token.AccessToken, nil
}

type orderAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	Amount      orderAmount `json:"amount"`
	Description string      `json:"description,omitempty"`
	CustomID    string      `json:"custom_id,omitempty"`
}

type applicationContext struct {
	BrandName   string `json:"brand_name,omitempty"`
	LandingPage string `json:"landing_page,omitempty"`
	UserAction  string `json:"user_action,omitempty"`
	ReturnURL   string `json:"return_url,omitempty"`
	CancelURL   string `json:"cancel_url,omitempty"`
}

type createOrderRequest struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []purchaseUnit     `json:"purchase_units"`
	ApplicationContext applicationContext `json:"application_context"`
}

type orderLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type createOrderResponse struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Links  []orderLink `json:"links"`
}

// ReturnURL and CancelURL are where the gateway sends the customer after
// approval or abandonment; set by the checkout handler at startup.
type RedirectURLs struct {
	ReturnURL string
	CancelURL string
}

// CreateOrder creates a gateway-side order with intent CAPTURE, embedding
// the correlation data as an opaque custom_id.
func (s *PayPalService) CreateOrder(ctx context.Context, params *CreateOrderParams, redirects RedirectURLs) (*CreateOrderResult, error) {
	accessToken, err := s.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	customID, err := json.Marshal(params.Correlation)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal correlation data: %w", err)
	}

	orderReq := createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			Amount: orderAmount{
				CurrencyCode: params.Currency,
				Value:        formatAmount(params.Amount),
			},
			Description: params.Description,
			CustomID:    string(customID),
		}},
		ApplicationContext: applicationContext{
			BrandName:   s.config.BrandName,
			LandingPage: "NO_PREFERENCE",
			UserAction:  "PAY_NOW",
			ReturnURL:   redirects.ReturnURL,
			CancelURL:   redirects.CancelURL,
		},
	}

	jsonBody, err := json.Marshal(orderReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v2/checkout/orders", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call order endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read order response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		s.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(body),
		}).Error("PayPal order creation failed")
		return nil, &GatewayRequestError{Operation: "create order", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var order createOrderResponse
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to parse order response: %w", err)
	}
	if order.ID == "" {
		return nil, &GatewayRequestError{Operation: "create order", StatusCode: resp.StatusCode, Body: "response missing order id"}
	}

	result := &CreateOrderResult{OrderID: order.ID}
	for _, link := range order.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			result.ApproveURL = link.Href
			break
		}
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"amount":   params.Amount,
		"currency": params.Currency,
	}).Info("PayPal order created")

	return result, nil
}

type captureResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		CustomID string `json:"custom_id"`
		Payments struct {
			Captures []struct {
				ID     string      `json:"id"`
				Status string      `json:"status"`
				Amount orderAmount `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// CaptureOrder finalizes payment for a previously created order and returns
// the captured amount plus the correlation data embedded at creation time.
func (s *PayPalService) CaptureOrder(ctx context.Context, orderID string) (*CaptureResult, error) {
	accessToken, err := s.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var body []byte
	var statusCode int
	err = s.withRetry(ctx, "capture", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			fmt.Sprintf("%s/v2/checkout/orders/%s/capture", s.baseURL, orderID), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+accessToken)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		statusCode = resp.StatusCode
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call capture endpoint: %w", err)
	}

	if statusCode != http.StatusCreated && statusCode != http.StatusOK {
		s.logger.WithFields(logrus.Fields{
			"order_id":    orderID,
			"status_code": statusCode,
			"response":    string(body),
		}).Error("PayPal capture rejected")
		return nil, &CaptureError{OrderID: orderID, Reason: fmt.Sprintf("status %d", statusCode)}
	}

	var capture captureResponse
	if err := json.Unmarshal(body, &capture); err != nil {
		return nil, fmt.Errorf("failed to parse capture response: %w", err)
	}
	if capture.Status != "COMPLETED" {
		return nil, &CaptureError{OrderID: orderID, Reason: fmt.Sprintf("order status %s", capture.Status)}
	}
	if len(capture.PurchaseUnits) == 0 || len(capture.PurchaseUnits[0].Payments.Captures) == 0 {
		return nil, &CaptureError{OrderID: orderID, Reason: "response missing capture details"}
	}

	unit := capture.PurchaseUnits[0]
	captured := unit.Payments.Captures[0]

	amount, err := strconv.ParseFloat(captured.Amount.Value, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse captured amount %q: %w", captured.Amount.Value, err)
	}

	result := &CaptureResult{
		CaptureID: captured.ID,
		Amount:    amount,
		Currency:  captured.Amount.CurrencyCode,
	}
	if unit.CustomID != "" {
		if err := json.Unmarshal([]byte(unit.CustomID), &result.Correlation); err != nil {
			s.logger.WithError(err).WithField("order_id", orderID).Warn("Failed to decode correlation data from capture")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":   orderID,
		"capture_id": captured.ID,
		"amount":     amount,
		"currency":   captured.Amount.CurrencyCode,
	}).Info("PayPal order captured")

	return result, nil
}

// withRetry retries fn on transport-level failures with doubling backoff.
// HTTP error statuses are not retried; the caller decides what they mean.
func (s *PayPalService) withRetry(ctx context.Context, operation string, fn func() error) error {
	const maxAttempts = 3
	backoff := 500 * time.Millisecond

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		s.logger.WithError(err).WithFields(logrus.Fields{
			"operation": operation,
			"attempt":   attempt,
		}).Warn("Transient gateway failure, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

// formatAmount renders an amount the way the gateway expects (two decimals)
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// UserIDString converts an optional user id for correlation embedding
func UserIDString(userID *uuid.UUID) *string {
	if userID == nil {
		return nil
	}
	s := userID.String()
	return &s
}
