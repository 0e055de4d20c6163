package registrations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnathon-live/backend/internal/models"
)

const registrationColumns = `id, college_name, rep_name, rep_email, rep_contact, role,
	upload_later, payment_status, COALESCE(coupon,''), price, COALESCE(roster_key,''), created_at, updated_at`

// Repository handles registration persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(&reg.ID, &reg.CollegeName, &reg.RepName, &reg.RepEmail, &reg.RepContact, &reg.Role,
		&reg.UploadLater, &reg.PaymentStatus, &reg.Coupon, &reg.Price, &reg.RosterKey, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &reg, nil
}

// GetByID returns a registration by ID, or (nil, nil) when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	return scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
}

// GetByRepEmail returns the registration for a representative email, or (nil, nil).
func (r *Repository) GetByRepEmail(ctx context.Context, email string) (*models.Registration, error) {
	return scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE rep_email = $1`, email))
}

// Exists reports whether a registration already uses the college name or
// representative email.
func (r *Repository) Exists(ctx context.Context, collegeName, repEmail string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM registrations WHERE college_name = $1 OR rep_email = $2)`
	var exists bool
	err := r.pool.QueryRow(ctx, q, collegeName, repEmail).Scan(&exists)
	return exists, err
}

// Create inserts a registration in its initial state.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO registrations (college_name, rep_name, rep_email, rep_contact, role, coupon, upload_later, payment_status)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7, $8)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		reg.CollegeName, reg.RepName, reg.RepEmail, reg.RepContact, reg.Role, reg.Coupon, reg.UploadLater, reg.PaymentStatus).
		Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
}

// SetUploadLater updates the uploadLater flag. Writing the current value is a no-op.
func (r *Repository) SetUploadLater(ctx context.Context, id uuid.UUID, uploadLater bool) error {
	const q = `UPDATE registrations SET upload_later = $2, updated_at = NOW() WHERE id = $1 AND upload_later <> $2`
	_, err := r.pool.Exec(ctx, q, id, uploadLater)
	return err
}

// MarkPaid ratchets payment_status to paid. Safe to replay; never downgrades.
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE registrations SET payment_status = 'paid', updated_at = NOW()
		WHERE id = $1 AND payment_status <> 'paid'`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// MarkPaymentFailed moves payment_status pending -> failed. A paid
// registration is never touched.
func (r *Repository) MarkPaymentFailed(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE registrations SET payment_status = 'failed', updated_at = NOW()
		WHERE id = $1 AND payment_status = 'pending'`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// SetRosterKey records the S3 key of the archived roster file.
func (r *Repository) SetRosterKey(ctx context.Context, id uuid.UUID, key string) error {
	const q = `UPDATE registrations SET roster_key = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, key)
	return err
}

// List returns all registrations, newest first (admin view).
func (r *Repository) List(ctx context.Context) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+registrationColumns+` FROM registrations ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.CollegeName, &reg.RepName, &reg.RepEmail, &reg.RepContact, &reg.Role,
			&reg.UploadLater, &reg.PaymentStatus, &reg.Coupon, &reg.Price, &reg.RosterKey, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}
