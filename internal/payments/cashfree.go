// Package payments drives payment orders against the Cashfree PG API and
// reconciles their status into local state.
package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/learnathon-live/backend/config"
)

// Gateway-reported order statuses.
const (
	OrderStatusPaid   = "PAID"
	OrderStatusFailed = "FAILED"
	OrderStatusActive = "ACTIVE" // created, awaiting payment
)

const cashfreeAPIVersion = "2023-08-01"

// ErrGatewayUnavailable means the gateway call errored or returned no usable
// order; the caller may retry with a fresh order.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// CustomerDetails identifies the paying representative on a gateway order.
type CustomerDetails struct {
	ID    string
	Email string
	Phone string
	Name  string
}

// CreateOrderParams is the input to CreateOrder.
type CreateOrderParams struct {
	Amount   float64
	Currency string
	Customer CustomerDetails
}

// GatewayOrder is a created gateway order. SessionID is the checkout session
// handle the browser needs to open the payment page.
type GatewayOrder struct {
	OrderID   string
	SessionID string
	Status    string
}

// CashfreeClient is a thin client for the Cashfree PG orders API.
type CashfreeClient struct {
	baseURL       string
	apiKey        string
	secretKey     string
	webhookSecret string
	returnURL     string
	notifyURL     string
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewCashfreeClient creates a Cashfree client from config.
func NewCashfreeClient(cfg config.CashfreeConfig, logger *zap.Logger) *CashfreeClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CashfreeClient{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		returnURL:     cfg.ReturnURL,
		notifyURL:     cfg.NotifyURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        logger,
	}
}

type orderRequest struct {
	OrderID         string          `json:"order_id"`
	OrderAmount     float64         `json:"order_amount"`
	OrderCurrency   string          `json:"order_currency"`
	CustomerDetails customerDetails `json:"customer_details"`
	OrderMeta       orderMeta       `json:"order_meta"`
}

type customerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	CustomerName  string `json:"customer_name,omitempty"`
}

type orderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
	NotifyURL string `json:"notify_url,omitempty"`
}

type orderResponse struct {
	OrderID          string `json:"order_id"`
	OrderStatus      string `json:"order_status"`
	PaymentSessionID string `json:"payment_session_id"`
}

// CreateOrder creates a gateway order with a locally generated order id and
// returns the order with its checkout session handle. Any non-2xx response or
// a response without a session handle is ErrGatewayUnavailable; the response
// body is logged for diagnosis, never surfaced to the client.
func (c *CashfreeClient) CreateOrder(ctx context.Context, params CreateOrderParams) (*GatewayOrder, error) {
	orderID := newOrderID()
	body := orderRequest{
		OrderID:       orderID,
		OrderAmount:   params.Amount,
		OrderCurrency: params.Currency,
		CustomerDetails: customerDetails{
			CustomerID:    params.Customer.ID,
			CustomerEmail: params.Customer.Email,
			CustomerPhone: params.Customer.Phone,
			CustomerName:  params.Customer.Name,
		},
		OrderMeta: orderMeta{
			ReturnURL: appendOrderID(c.returnURL, orderID),
			NotifyURL: c.notifyURL,
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("cashfree create order failed", zap.Error(err), zap.String("order_id", orderID))
		return nil, ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("cashfree create order rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("order_id", orderID),
			zap.ByteString("body", respBody),
		)
		return nil, ErrGatewayUnavailable
	}

	var out orderResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		c.logger.Error("cashfree create order bad response", zap.Error(err), zap.ByteString("body", respBody))
		return nil, ErrGatewayUnavailable
	}
	if out.PaymentSessionID == "" {
		c.logger.Error("cashfree create order missing payment session", zap.ByteString("body", respBody))
		return nil, ErrGatewayUnavailable
	}
	if out.OrderID == "" {
		out.OrderID = orderID
	}
	return &GatewayOrder{OrderID: out.OrderID, SessionID: out.PaymentSessionID, Status: out.OrderStatus}, nil
}

// GetOrderStatus fetches the authoritative order status from the gateway.
// Callers must decide from the returned status field, never from HTTP success.
func (c *CashfreeClient) GetOrderStatus(ctx context.Context, orderID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/orders/"+orderID, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("cashfree get order failed", zap.Error(err), zap.String("order_id", orderID))
		return "", ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("cashfree get order rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("order_id", orderID),
			zap.ByteString("body", respBody),
		)
		return "", ErrGatewayUnavailable
	}

	var out orderResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode order: %w", err)
	}
	return out.OrderStatus, nil
}

// VerifyWebhookSignature checks the inbound webhook payload against the
// shared secret: base64(HMAC-SHA256(secret, raw body)). Payloads failing this
// check must be rejected, not processed.
func (c *CashfreeClient) VerifyWebhookSignature(payload []byte, signature string) bool {
	if c.webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *CashfreeClient) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-version", cashfreeAPIVersion)
	req.Header.Set("x-client-id", c.apiKey)
	req.Header.Set("x-client-secret", c.secretKey)
}

// newOrderID generates a locally unique order id: order_<unix-ms>_<random>.
func newOrderID() string {
	b := make([]byte, 7)
	_, _ = rand.Read(b)
	suffix := base64.RawURLEncoding.EncodeToString(b)[:9]
	return fmt.Sprintf("order_%d_%s", time.Now().UnixMilli(), suffix)
}

func appendOrderID(url, orderID string) string {
	if url == "" {
		return ""
	}
	return url + "?order_id=" + orderID
}
