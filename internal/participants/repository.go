package participants

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/learnathon-live/backend/internal/models"
)

// insertBatchSize bounds one bulk write so an oversized roster never exceeds
// backend transaction limits.
const insertBatchSize = 500

// Repository handles participant persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a participants repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// BulkInsert writes all participants in parallel batches of insertBatchSize.
// The first failing batch cancels the rest; the overall insert succeeds only
// when every batch does.
func (r *Repository) BulkInsert(ctx context.Context, registrationID uuid.UUID, parts []models.Participant) error {
	columns := []string{"registration_id", "name", "email", "contact", "degree", "branch", "year", "percentage"}
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(parts); start += insertBatchSize {
		batch := parts[start:min(start+insertBatchSize, len(parts))]
		g.Go(func() error {
			_, err := r.pool.CopyFrom(gctx, pgx.Identifier{"participants"}, columns,
				pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
					p := batch[i]
					return []any{registrationID, p.Name, p.Email, p.Contact, p.Degree, p.Branch, p.Year, p.Percentage}, nil
				}))
			if err != nil {
				return fmt.Errorf("copy batch: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// CountByRegistration returns the number of ingested participants for a registration.
func (r *Repository) CountByRegistration(ctx context.Context, registrationID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM participants WHERE registration_id = $1`, registrationID).Scan(&count)
	return count, err
}

// ListFilter holds the admin participant list query.
type ListFilter struct {
	RegistrationID *uuid.UUID
	NamePrefix     string
	SortField      string // whitelisted; defaults to name
	SortDesc       bool
	Limit          int
	Offset         int
}

var sortableColumns = map[string]string{
	"name":       "name",
	"email":      "email",
	"degree":     "degree",
	"branch":     "branch",
	"year":       "year",
	"percentage": "percentage",
	"created_at": "created_at",
}

// List returns participants matching the filter (admin view).
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.Participant, error) {
	sortCol, ok := sortableColumns[f.SortField]
	if !ok {
		sortCol = "name"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 10
	}

	q := `SELECT id, registration_id, name, email, contact, degree, branch, year, percentage, created_at
		FROM participants WHERE 1=1`
	args := []any{}
	if f.RegistrationID != nil {
		args = append(args, *f.RegistrationID)
		q += fmt.Sprintf(" AND registration_id = $%d", len(args))
	}
	if f.NamePrefix != "" {
		args = append(args, f.NamePrefix+"%")
		q += fmt.Sprintf(" AND name LIKE $%d", len(args))
	}
	args = append(args, f.Limit, f.Offset)
	q += fmt.Sprintf(" ORDER BY %s %s LIMIT $%d OFFSET $%d", sortCol, dir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.RegistrationID, &p.Name, &p.Email, &p.Contact, &p.Degree, &p.Branch, &p.Year, &p.Percentage, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
