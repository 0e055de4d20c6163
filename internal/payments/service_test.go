package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnathon-live/backend/internal/models"
)

type fakeGateway struct {
	order      *GatewayOrder
	createErr  error
	status     string
	statusErr  error
	statusGets int
}

func (f *fakeGateway) CreateOrder(context.Context, CreateOrderParams) (*GatewayOrder, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.order, nil
}

func (f *fakeGateway) GetOrderStatus(context.Context, string) (string, error) {
	f.statusGets++
	return f.status, f.statusErr
}

type fakeOrderStore struct {
	orders map[string]*models.PaymentOrder
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[string]*models.PaymentOrder{}}
}

func (f *fakeOrderStore) Create(_ context.Context, order *models.PaymentOrder) error {
	f.orders[order.OrderID] = order
	return nil
}

func (f *fakeOrderStore) GetByOrderID(_ context.Context, orderID string) (*models.PaymentOrder, error) {
	return f.orders[orderID], nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, orderID, status string) error {
	if order, ok := f.orders[orderID]; ok && order.PaymentStatus == models.PaymentStatusPending {
		order.PaymentStatus = status
	}
	return nil
}

type fakeRegStore struct {
	regs        map[uuid.UUID]*models.Registration
	paidCalls   int
	failedCalls int
}

func newFakeRegStore() *fakeRegStore {
	return &fakeRegStore{regs: map[uuid.UUID]*models.Registration{}}
}

func (f *fakeRegStore) GetByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	return f.regs[id], nil
}

func (f *fakeRegStore) MarkPaid(_ context.Context, id uuid.UUID) error {
	f.paidCalls++
	if reg, ok := f.regs[id]; ok && reg.PaymentStatus != models.PaymentStatusPaid {
		reg.PaymentStatus = models.PaymentStatusPaid
	}
	return nil
}

func (f *fakeRegStore) MarkPaymentFailed(_ context.Context, id uuid.UUID) error {
	f.failedCalls++
	if reg, ok := f.regs[id]; ok && reg.PaymentStatus == models.PaymentStatusPending {
		reg.PaymentStatus = models.PaymentStatusFailed
	}
	return nil
}

type fakeNotifier struct {
	failures int
}

func (f *fakeNotifier) PaymentFailed(context.Context, uuid.UUID, string) error {
	f.failures++
	return nil
}

func seedOrder(orders *fakeOrderStore, regs *fakeRegStore, status string) *models.PaymentOrder {
	regID := uuid.New()
	regs.regs[regID] = &models.Registration{
		ID:            regID,
		CollegeName:   "IIT Madras",
		RepEmail:      "rep@iitm.ac.in",
		PaymentStatus: models.PaymentStatusPending,
	}
	order := &models.PaymentOrder{
		OrderID:        "order_1700000000000_abc123xyz",
		RegistrationID: regID,
		Amount:         25000,
		Currency:       "INR",
		PaymentStatus:  status,
	}
	orders.orders[order.OrderID] = order
	return order
}

func TestInitiate(t *testing.T) {
	ctx := context.Background()

	t.Run("persists a pending order after the gateway accepts", func(t *testing.T) {
		orders := newFakeOrderStore()
		gw := &fakeGateway{order: &GatewayOrder{OrderID: "order_1_a", SessionID: "session_xyz", Status: OrderStatusActive}}
		svc := NewService(gw, orders, newFakeRegStore(), &fakeNotifier{}, nil)

		order, session, err := svc.Initiate(ctx, uuid.New(), 25000, "INR", CustomerDetails{Email: "rep@iitm.ac.in", Phone: "9876543210"})
		require.NoError(t, err)
		assert.Equal(t, "session_xyz", session)
		assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
		assert.Contains(t, orders.orders, "order_1_a")
	})

	t.Run("gateway failure writes nothing locally", func(t *testing.T) {
		orders := newFakeOrderStore()
		gw := &fakeGateway{createErr: ErrGatewayUnavailable}
		svc := NewService(gw, orders, newFakeRegStore(), &fakeNotifier{}, nil)

		_, _, err := svc.Initiate(ctx, uuid.New(), 25000, "INR", CustomerDetails{})
		require.ErrorIs(t, err, ErrGatewayUnavailable)
		assert.Empty(t, orders.orders)
	})
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown order id", func(t *testing.T) {
		svc := NewService(&fakeGateway{}, newFakeOrderStore(), newFakeRegStore(), &fakeNotifier{}, nil)
		_, err := svc.Reconcile(ctx, "order_0_missing")
		require.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("paid gateway status marks order and registration", func(t *testing.T) {
		orders := newFakeOrderStore()
		regs := newFakeRegStore()
		order := seedOrder(orders, regs, models.PaymentStatusPending)
		gw := &fakeGateway{status: OrderStatusPaid}
		svc := NewService(gw, orders, regs, &fakeNotifier{}, nil)

		status, err := svc.Reconcile(ctx, order.OrderID)
		require.NoError(t, err)
		assert.Equal(t, OrderStatusPaid, status)
		assert.Equal(t, models.PaymentStatusPaid, orders.orders[order.OrderID].PaymentStatus)
		assert.Equal(t, models.PaymentStatusPaid, regs.regs[order.RegistrationID].PaymentStatus)
	})

	t.Run("failed gateway status notifies the representative once", func(t *testing.T) {
		orders := newFakeOrderStore()
		regs := newFakeRegStore()
		notifier := &fakeNotifier{}
		order := seedOrder(orders, regs, models.PaymentStatusPending)
		gw := &fakeGateway{status: OrderStatusFailed}
		svc := NewService(gw, orders, regs, notifier, nil)

		status, err := svc.Reconcile(ctx, order.OrderID)
		require.NoError(t, err)
		assert.Equal(t, OrderStatusFailed, status)
		assert.Equal(t, models.PaymentStatusFailed, regs.regs[order.RegistrationID].PaymentStatus)
		assert.Equal(t, 1, notifier.failures)

		// Replay, as a concurrent poll or webhook redelivery would.
		status, err = svc.Reconcile(ctx, order.OrderID)
		require.NoError(t, err)
		assert.Equal(t, OrderStatusFailed, status)
		assert.Equal(t, 1, notifier.failures, "terminal replay must not re-notify")
	})

	t.Run("terminal order skips the gateway", func(t *testing.T) {
		orders := newFakeOrderStore()
		regs := newFakeRegStore()
		order := seedOrder(orders, regs, models.PaymentStatusPaid)
		gw := &fakeGateway{status: OrderStatusPaid}
		svc := NewService(gw, orders, regs, &fakeNotifier{}, nil)

		status, err := svc.Reconcile(ctx, order.OrderID)
		require.NoError(t, err)
		assert.Equal(t, OrderStatusPaid, status)
		assert.Zero(t, gw.statusGets)
	})

	t.Run("terminal replay repairs a half-committed registration", func(t *testing.T) {
		orders := newFakeOrderStore()
		regs := newFakeRegStore()
		// Order was marked paid but the process died before the registration write.
		order := seedOrder(orders, regs, models.PaymentStatusPaid)
		svc := NewService(&fakeGateway{}, orders, regs, &fakeNotifier{}, nil)

		status, err := svc.Reconcile(ctx, order.OrderID)
		require.NoError(t, err)
		assert.Equal(t, OrderStatusPaid, status)
		assert.Equal(t, models.PaymentStatusPaid, regs.regs[order.RegistrationID].PaymentStatus)
	})

	t.Run("concurrent paid reconciliation is idempotent", func(t *testing.T) {
		orders := newFakeOrderStore()
		regs := newFakeRegStore()
		order := seedOrder(orders, regs, models.PaymentStatusPending)
		gw := &fakeGateway{status: OrderStatusPaid}
		svc := NewService(gw, orders, regs, &fakeNotifier{}, nil)

		// Webhook then poll for the same order.
		for i := 0; i < 2; i++ {
			status, err := svc.Reconcile(ctx, order.OrderID)
			require.NoError(t, err)
			assert.Equal(t, OrderStatusPaid, status)
		}
		assert.Equal(t, 1, gw.statusGets, "second pass sees a terminal order and skips the gateway")
		assert.Equal(t, models.PaymentStatusPaid, regs.regs[order.RegistrationID].PaymentStatus)
	})

	t.Run("non-terminal status leaves the order pending", func(t *testing.T) {
		orders := newFakeOrderStore()
		regs := newFakeRegStore()
		order := seedOrder(orders, regs, models.PaymentStatusPending)
		gw := &fakeGateway{status: OrderStatusActive}
		svc := NewService(gw, orders, regs, &fakeNotifier{}, nil)

		status, err := svc.Reconcile(ctx, order.OrderID)
		require.NoError(t, err)
		assert.Equal(t, OrderStatusActive, status)
		assert.Equal(t, models.PaymentStatusPending, orders.orders[order.OrderID].PaymentStatus)
		assert.Equal(t, models.PaymentStatusPending, regs.regs[order.RegistrationID].PaymentStatus)
	})

	t.Run("gateway error surfaces without local writes", func(t *testing.T) {
		orders := newFakeOrderStore()
		regs := newFakeRegStore()
		order := seedOrder(orders, regs, models.PaymentStatusPending)
		gw := &fakeGateway{statusErr: errors.New("timeout")}
		svc := NewService(gw, orders, regs, &fakeNotifier{}, nil)

		_, err := svc.Reconcile(ctx, order.OrderID)
		require.Error(t, err)
		assert.Equal(t, models.PaymentStatusPending, orders.orders[order.OrderID].PaymentStatus)
	})
}
