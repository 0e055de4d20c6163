package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnathon-live/backend/config"
)

func newTestClient(baseURL string) *CashfreeClient {
	return NewCashfreeClient(config.CashfreeConfig{
		BaseURL:       baseURL,
		APIKey:        "test-client-id",
		SecretKey:     "test-client-secret",
		WebhookSecret: "test-webhook-secret",
		ReturnURL:     "https://example.com/register/status",
		NotifyURL:     "https://example.com/payments/webhook",
	}, nil)
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("sends credentials and returns the session handle", func(t *testing.T) {
		var got orderRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/orders", r.URL.Path)
			assert.Equal(t, "2023-08-01", r.Header.Get("x-api-version"))
			assert.Equal(t, "test-client-id", r.Header.Get("x-client-id"))
			assert.Equal(t, "test-client-secret", r.Header.Get("x-client-secret"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			json.NewEncoder(w).Encode(orderResponse{
				OrderID:          got.OrderID,
				OrderStatus:      OrderStatusActive,
				PaymentSessionID: "session_abc",
			})
		}))
		defer srv.Close()

		client := newTestClient(srv.URL)
		order, err := client.CreateOrder(ctx, CreateOrderParams{
			Amount:   25000,
			Currency: "INR",
			Customer: CustomerDetails{ID: "cust_1", Email: "rep@iitm.ac.in", Phone: "9876543210", Name: "Asha Rao"},
		})
		require.NoError(t, err)
		assert.Equal(t, "session_abc", order.SessionID)
		assert.Equal(t, OrderStatusActive, order.Status)
		assert.Equal(t, got.OrderID, order.OrderID)
		assert.Equal(t, 25000.0, got.OrderAmount)
		assert.Equal(t, "https://example.com/register/status?order_id="+got.OrderID, got.OrderMeta.ReturnURL)
		assert.Equal(t, "https://example.com/payments/webhook", got.OrderMeta.NotifyURL)
	})

	t.Run("non-2xx is gateway unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"authentication failed"}`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).CreateOrder(ctx, CreateOrderParams{Amount: 100, Currency: "INR"})
		require.ErrorIs(t, err, ErrGatewayUnavailable)
	})

	t.Run("missing session handle is gateway unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(orderResponse{OrderID: "order_1", OrderStatus: OrderStatusActive})
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).CreateOrder(ctx, CreateOrderParams{Amount: 100, Currency: "INR"})
		require.ErrorIs(t, err, ErrGatewayUnavailable)
	})
}

func TestGetOrderStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the gateway status field", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/orders/order_1_a", r.URL.Path)
			json.NewEncoder(w).Encode(orderResponse{OrderID: "order_1_a", OrderStatus: OrderStatusPaid})
		}))
		defer srv.Close()

		status, err := newTestClient(srv.URL).GetOrderStatus(ctx, "order_1_a")
		require.NoError(t, err)
		assert.Equal(t, OrderStatusPaid, status)
	})

	t.Run("non-2xx is gateway unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).GetOrderStatus(ctx, "order_missing")
		require.ErrorIs(t, err, ErrGatewayUnavailable)
	})
}

func TestVerifyWebhookSignature(t *testing.T) {
	client := newTestClient("http://unused")
	payload := []byte(`{"event_type":"PAYMENT_SUCCESS_WEBHOOK","order_id":"order_1_a"}`)

	sign := func(secret string, body []byte) string {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		return base64.StdEncoding.EncodeToString(mac.Sum(nil))
	}

	t.Run("accepts a correctly signed payload", func(t *testing.T) {
		assert.True(t, client.VerifyWebhookSignature(payload, sign("test-webhook-secret", payload)))
	})

	t.Run("rejects a wrong secret", func(t *testing.T) {
		assert.False(t, client.VerifyWebhookSignature(payload, sign("other-secret", payload)))
	})

	t.Run("rejects a tampered payload", func(t *testing.T) {
		signature := sign("test-webhook-secret", payload)
		tampered := []byte(`{"event_type":"PAYMENT_SUCCESS_WEBHOOK","order_id":"order_2_b"}`)
		assert.False(t, client.VerifyWebhookSignature(tampered, signature))
	})

	t.Run("rejects an empty signature", func(t *testing.T) {
		assert.False(t, client.VerifyWebhookSignature(payload, ""))
	})

	t.Run("rejects everything when no secret is configured", func(t *testing.T) {
		unconfigured := NewCashfreeClient(config.CashfreeConfig{}, nil)
		assert.False(t, unconfigured.VerifyWebhookSignature(payload, sign("", payload)))
	})
}

func TestNewOrderID(t *testing.T) {
	pattern := regexp.MustCompile(`^order_\d+_[A-Za-z0-9_-]{9}$`)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := newOrderID()
		assert.Regexp(t, pattern, id)
		assert.False(t, seen[id], "order ids must not repeat")
		seen[id] = true
	}
}
