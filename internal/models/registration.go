package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus values for registrations and payment orders.
// Transitions are one-way: pending -> paid or pending -> failed.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Registration is a college's enrollment record driving the step workflow.
type Registration struct {
	ID            uuid.UUID `json:"id"`
	CollegeName   string    `json:"college_name"`
	RepName       string    `json:"rep_name"`
	RepEmail      string    `json:"rep_email"`
	RepContact    string    `json:"rep_contact"`
	Role          string    `json:"role"`
	UploadLater   bool      `json:"upload_later"`
	PaymentStatus string    `json:"payment_status"`
	Coupon        string    `json:"coupon,omitempty"`
	Price         *float64  `json:"price,omitempty"`
	RosterKey     string    `json:"-"` // S3 key of the archived roster file, if any
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UnitPrice returns the per-participant price, falling back to def when the
// registration has no negotiated price.
func (r *Registration) UnitPrice(def float64) float64 {
	if r.Price != nil {
		return *r.Price
	}
	return def
}
