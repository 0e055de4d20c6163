package payments

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/learnathon-live/backend/pkg/response"
)

// CreateOrderRequest is the body for POST /payments/orders.
type CreateOrderRequest struct {
	RegistrationID string  `json:"registrationId" binding:"required,uuid"`
	Amount         float64 `json:"amount" binding:"required,gt=0"`
	Currency       string  `json:"currency"`
	Customer       struct {
		ID    string `json:"id"`
		Email string `json:"email" binding:"required,email"`
		Phone string `json:"phone" binding:"required"`
		Name  string `json:"name"`
	} `json:"customer" binding:"required"`
}

// WebhookPayload is the inbound gateway webhook body.
type WebhookPayload struct {
	EventType string `json:"event_type"`
	OrderID   string `json:"order_id"`
}

// Handler handles payment HTTP endpoints.
type Handler struct {
	service         *Service
	gateway         *CashfreeClient
	defaultCurrency string
	logger          *zap.Logger
}

// NewHandler creates a payments handler.
func NewHandler(service *Service, gateway *CashfreeClient, defaultCurrency string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, gateway: gateway, defaultCurrency: defaultCurrency, logger: logger}
}

// CreateOrder handles POST /payments/orders. Creates a gateway order and the
// local pending payment record.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	registrationID, err := uuid.Parse(req.RegistrationID)
	if err != nil {
		response.BadRequest(c, "invalid registrationId")
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = h.defaultCurrency
	}

	order, sessionID, err := h.service.Initiate(c.Request.Context(), registrationID, req.Amount, currency, CustomerDetails{
		ID:    req.Customer.ID,
		Email: req.Customer.Email,
		Phone: req.Customer.Phone,
		Name:  req.Customer.Name,
	})
	if err != nil {
		if errors.Is(err, ErrGatewayUnavailable) {
			response.Internal(c, "failed to create order")
			return
		}
		h.logger.Error("initiate payment failed", zap.Error(err), zap.String("registration_id", req.RegistrationID))
		response.Internal(c, "failed to create order")
		return
	}

	response.OK(c, gin.H{
		"order_id":           order.OrderID,
		"payment_session_id": sessionID,
		"order_status":       OrderStatusActive,
	})
}

// VerifyOrder handles GET /payments/orders/:orderId (also accepts ?order_id=).
// Polls the gateway, reconciles local state and returns the order status.
func (h *Handler) VerifyOrder(c *gin.Context) {
	orderID := c.Param("orderId")
	if orderID == "" {
		orderID = c.Query("order_id")
	}
	if orderID == "" {
		response.BadRequest(c, "order id is required")
		return
	}

	status, err := h.service.Reconcile(c.Request.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			response.NotFound(c, "payment record not found")
		case errors.Is(err, ErrGatewayUnavailable):
			response.Internal(c, "failed to verify payment")
		default:
			h.logger.Error("reconcile failed", zap.Error(err), zap.String("order_id", orderID))
			response.Internal(c, "failed to verify payment")
		}
		return
	}
	response.OK(c, gin.H{"order_status": status})
}

// Webhook handles POST /payments/webhook. The signature is verified against
// the raw body before anything else; authenticated payloads always get 200,
// with processing failures logged rather than surfaced so the gateway does
// not redeliver into a retry storm. Reconciliation re-polls the gateway
// instead of trusting the delivered event type.
func (h *Handler) Webhook(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "could not read body")
		return
	}

	signature := c.GetHeader("x-webhook-signature")
	if signature == "" {
		response.BadRequest(c, "missing signature")
		return
	}
	if !h.gateway.VerifyWebhookSignature(raw, signature) {
		h.logger.Warn("webhook signature rejected")
		response.Unauthorized(c, "invalid signature")
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.OrderID == "" {
		h.logger.Warn("webhook payload unusable", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	status, err := h.service.Reconcile(c.Request.Context(), payload.OrderID)
	if err != nil {
		h.logger.Error("webhook reconcile failed",
			zap.Error(err),
			zap.String("order_id", payload.OrderID),
			zap.String("event_type", payload.EventType),
		)
		c.JSON(http.StatusOK, gin.H{"status": "deferred"})
		return
	}

	h.logger.Info("webhook processed",
		zap.String("order_id", payload.OrderID),
		zap.String("event_type", payload.EventType),
		zap.String("order_status", status),
	)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
