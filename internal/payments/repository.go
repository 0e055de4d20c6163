package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnathon-live/backend/internal/models"
)

// Repository handles payment order persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a payments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a payment order in state pending.
func (r *Repository) Create(ctx context.Context, order *models.PaymentOrder) error {
	const q = `INSERT INTO payments (order_id, registration_id, amount, currency, payment_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		order.OrderID, order.RegistrationID, order.Amount, order.Currency, order.PaymentStatus).
		Scan(&order.CreatedAt, &order.UpdatedAt)
}

// GetByOrderID returns a payment order, or (nil, nil) when absent.
func (r *Repository) GetByOrderID(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	const q = `SELECT order_id, registration_id, amount, currency, payment_status, created_at, updated_at
		FROM payments WHERE order_id = $1`
	var order models.PaymentOrder
	err := r.pool.QueryRow(ctx, q, orderID).
		Scan(&order.OrderID, &order.RegistrationID, &order.Amount, &order.Currency, &order.PaymentStatus, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// UpdateStatus moves a pending order to a terminal status. Terminal orders
// are immutable, enforced by the WHERE clause.
func (r *Repository) UpdateStatus(ctx context.Context, orderID, status string) error {
	const q = `UPDATE payments SET payment_status = $2, updated_at = NOW()
		WHERE order_id = $1 AND payment_status = 'pending'`
	_, err := r.pool.Exec(ctx, q, orderID, status)
	return err
}

// LatestByRegistration returns the most recent order for a registration, or
// (nil, nil). The latest order determines the displayed payment status.
func (r *Repository) LatestByRegistration(ctx context.Context, registrationID uuid.UUID) (*models.PaymentOrder, error) {
	const q = `SELECT order_id, registration_id, amount, currency, payment_status, created_at, updated_at
		FROM payments WHERE registration_id = $1 ORDER BY created_at DESC LIMIT 1`
	var order models.PaymentOrder
	err := r.pool.QueryRow(ctx, q, registrationID).
		Scan(&order.OrderID, &order.RegistrationID, &order.Amount, &order.Currency, &order.PaymentStatus, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}
