package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentOrder is one payment attempt against the gateway. Retries create new
// orders; the registration's own payment_status stays the source of truth.
type PaymentOrder struct {
	OrderID        string    `json:"order_id"` // gateway order id, also the local key
	RegistrationID uuid.UUID `json:"registration_id"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	PaymentStatus  string    `json:"payment_status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Terminal reports whether the order reached a final status. Terminal orders
// are never updated again.
func (p *PaymentOrder) Terminal() bool {
	return p.PaymentStatus == PaymentStatusPaid || p.PaymentStatus == PaymentStatusFailed
}
