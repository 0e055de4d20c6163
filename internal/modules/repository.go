package modules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnathon-live/backend/internal/models"
)

// Repository handles training module persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a modules repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const moduleColumns = `id, registration_id, representative, status, batches, financials, dates, mou_signed, notes, trainer_ids, created_at, updated_at`

func scanModule(row pgx.Row) (*models.TrainingModule, error) {
	var m models.TrainingModule
	var batches []byte
	var trainerIDs []string
	err := row.Scan(&m.ID, &m.RegistrationID, &m.Representative, &m.Status, &batches,
		&m.Financials, &m.Dates, &m.MouSigned, &m.Notes, &trainerIDs, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(batches, &m.Batches); err != nil {
		return nil, fmt.Errorf("decode batches: %w", err)
	}
	m.TrainerIDs = make([]uuid.UUID, 0, len(trainerIDs))
	for _, raw := range trainerIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("decode trainer id: %w", err)
		}
		m.TrainerIDs = append(m.TrainerIDs, id)
	}
	return &m, nil
}

func trainerIDStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// List returns all training modules, newest first.
func (r *Repository) List(ctx context.Context) ([]models.TrainingModule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+moduleColumns+` FROM training_modules ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.TrainingModule
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// GetByID returns a training module, or (nil, nil) when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.TrainingModule, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+moduleColumns+` FROM training_modules WHERE id = $1`, id)
	return scanModule(row)
}

// Create inserts a training module and fills in generated fields.
func (r *Repository) Create(ctx context.Context, m *models.TrainingModule) error {
	batches, err := json.Marshal(m.Batches)
	if err != nil {
		return fmt.Errorf("encode batches: %w", err)
	}
	const q = `INSERT INTO training_modules
		(registration_id, representative, status, batches, financials, dates, mou_signed, notes, trainer_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		m.RegistrationID, m.Representative, m.Status, batches, m.Financials,
		m.Dates, m.MouSigned, m.Notes, trainerIDStrings(m.TrainerIDs)).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

// Update replaces the mutable fields of a training module. Returns
// pgx.ErrNoRows when the module does not exist.
func (r *Repository) Update(ctx context.Context, m *models.TrainingModule) error {
	batches, err := json.Marshal(m.Batches)
	if err != nil {
		return fmt.Errorf("encode batches: %w", err)
	}
	const q = `UPDATE training_modules SET
		registration_id = $2, representative = $3, status = $4, batches = $5,
		financials = $6, dates = $7, mou_signed = $8, notes = $9, trainer_ids = $10,
		updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	return r.pool.QueryRow(ctx, q,
		m.ID, m.RegistrationID, m.Representative, m.Status, batches, m.Financials,
		m.Dates, m.MouSigned, m.Notes, trainerIDStrings(m.TrainerIDs)).
		Scan(&m.UpdatedAt)
}
