package trainers

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnathon-live/backend/internal/models"
)

// Repository handles trainer persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a trainers repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all trainers ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Trainer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, COALESCE(contact,''), COALESCE(expertise,''), created_at
		FROM trainers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Trainer
	for rows.Next() {
		var t models.Trainer
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Contact, &t.Expertise, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Create inserts a trainer.
func (r *Repository) Create(ctx context.Context, t *models.Trainer) error {
	const q = `INSERT INTO trainers (name, email, contact, expertise)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''))
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, t.Name, t.Email, t.Contact, t.Expertise).
		Scan(&t.ID, &t.CreatedAt)
}
