package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/learnathon-live/backend/internal/models"
)

// ErrOrderNotFound means no local payment order exists for the order id.
var ErrOrderNotFound = errors.New("payment order not found")

// Gateway is the external payment processor contract.
type Gateway interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (*GatewayOrder, error)
	GetOrderStatus(ctx context.Context, orderID string) (string, error)
}

// OrderStore persists payment orders keyed by gateway order id.
type OrderStore interface {
	Create(ctx context.Context, order *models.PaymentOrder) error
	GetByOrderID(ctx context.Context, orderID string) (*models.PaymentOrder, error)
	UpdateStatus(ctx context.Context, orderID, status string) error
}

// RegistrationStore is the registration-side state touched by reconciliation.
type RegistrationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	MarkPaid(ctx context.Context, id uuid.UUID) error
	MarkPaymentFailed(ctx context.Context, id uuid.UUID) error
}

// Notifier dispatches the payment-failed notice to the representative.
type Notifier interface {
	PaymentFailed(ctx context.Context, registrationID uuid.UUID, email string) error
}

// Service implements the payment leg of the registration workflow: order
// creation and webhook/poll reconciliation.
type Service struct {
	gateway       Gateway
	orders        OrderStore
	registrations RegistrationStore
	notifier      Notifier
	logger        *zap.Logger
}

// NewService creates the payment service.
func NewService(gateway Gateway, orders OrderStore, registrations RegistrationStore, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gateway:       gateway,
		orders:        orders,
		registrations: registrations,
		notifier:      notifier,
		logger:        logger,
	}
}

// Initiate creates a gateway order and persists it locally in state pending.
// Order creation precedes the local record because the order id is
// gateway-composed; a gateway failure leaves the registration untouched and
// retryable. Returns the stored order and the checkout session handle.
func (s *Service) Initiate(ctx context.Context, registrationID uuid.UUID, amount float64, currency string, customer CustomerDetails) (*models.PaymentOrder, string, error) {
	gw, err := s.gateway.CreateOrder(ctx, CreateOrderParams{
		Amount:   amount,
		Currency: currency,
		Customer: customer,
	})
	if err != nil {
		return nil, "", err
	}

	order := &models.PaymentOrder{
		OrderID:        gw.OrderID,
		RegistrationID: registrationID,
		Amount:         amount,
		Currency:       currency,
		PaymentStatus:  models.PaymentStatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, "", fmt.Errorf("persist order: %w", err)
	}
	s.logger.Info("payment order created",
		zap.String("order_id", order.OrderID),
		zap.String("registration_id", registrationID.String()),
		zap.Float64("amount", amount),
	)
	return order, gw.SessionID, nil
}

// Reconcile fetches the authoritative status for an order and writes terminal
// outcomes back: payment order first, then the registration, so a crash
// between the two writes leaves a detectable half-state that the next replay
// repairs. Already-terminal orders return their stored status without a
// gateway call and without re-firing notifications, which makes concurrent
// webhook+poll delivery safe. Returns the gateway-vocabulary order status.
func (s *Service) Reconcile(ctx context.Context, orderID string) (string, error) {
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("load order: %w", err)
	}
	if order == nil {
		return "", ErrOrderNotFound
	}

	if order.Terminal() {
		// Replay: re-assert the registration side in case a previous run
		// crashed between the order write and the registration write. The
		// registration updates are one-way ratchets, so this is idempotent.
		if order.PaymentStatus == models.PaymentStatusPaid {
			if err := s.registrations.MarkPaid(ctx, order.RegistrationID); err != nil {
				return "", fmt.Errorf("repair registration: %w", err)
			}
			return OrderStatusPaid, nil
		}
		if err := s.registrations.MarkPaymentFailed(ctx, order.RegistrationID); err != nil {
			return "", fmt.Errorf("repair registration: %w", err)
		}
		return OrderStatusFailed, nil
	}

	status, err := s.gateway.GetOrderStatus(ctx, orderID)
	if err != nil {
		return "", err
	}

	switch status {
	case OrderStatusPaid:
		if err := s.orders.UpdateStatus(ctx, orderID, models.PaymentStatusPaid); err != nil {
			return "", fmt.Errorf("mark order paid: %w", err)
		}
		if err := s.registrations.MarkPaid(ctx, order.RegistrationID); err != nil {
			return "", fmt.Errorf("mark registration paid: %w", err)
		}
		s.logger.Info("payment reconciled paid",
			zap.String("order_id", orderID),
			zap.String("registration_id", order.RegistrationID.String()),
		)
		return OrderStatusPaid, nil

	case OrderStatusFailed:
		if err := s.orders.UpdateStatus(ctx, orderID, models.PaymentStatusFailed); err != nil {
			return "", fmt.Errorf("mark order failed: %w", err)
		}
		if err := s.registrations.MarkPaymentFailed(ctx, order.RegistrationID); err != nil {
			return "", fmt.Errorf("mark registration failed: %w", err)
		}
		s.notifyFailure(ctx, order)
		return OrderStatusFailed, nil

	default:
		// Non-terminal: leave pending for a future reconciliation attempt.
		return status, nil
	}
}

func (s *Service) notifyFailure(ctx context.Context, order *models.PaymentOrder) {
	reg, err := s.registrations.GetByID(ctx, order.RegistrationID)
	if err != nil || reg == nil {
		s.logger.Error("payment-failed notice skipped, registration unavailable",
			zap.Error(err),
			zap.String("order_id", order.OrderID),
		)
		return
	}
	if err := s.notifier.PaymentFailed(ctx, reg.ID, reg.RepEmail); err != nil {
		s.logger.Error("payment-failed notice dispatch failed",
			zap.Error(err),
			zap.String("order_id", order.OrderID),
			zap.String("rep_email", reg.RepEmail),
		)
	}
}
