package postgres

import (
	"context"

	"github.com/gridhail/ridesim/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RiderRepository struct {
	pool *pgxpool.Pool
}

func NewRiderRepository(pool *pgxpool.Pool) *RiderRepository {
	return &RiderRepository{pool: pool}
}

func (r *RiderRepository) BulkCreate(ctx context.Context, riders []*models.Rider) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO riders (id, x, y, status) VALUES ($1, $2, $3, $4)`

	for _, rider := range riders {
		_, err = tx.Exec(ctx, query,
			rider.ID,
			rider.Position.X,
			rider.Position.Y,
			string(rider.Status),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *RiderRepository) GetAll(ctx context.Context) ([]*models.Rider, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, x, y, status FROM riders ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var riders []*models.Rider
	for rows.Next() {
		var rd models.Rider
		var status string
		if err := rows.Scan(&rd.ID, &rd.Position.X, &rd.Position.Y, &status); err != nil {
			return nil, err
		}
		rd.Status = models.RiderStatus(status)
		riders = append(riders, &rd)
	}

	return riders, rows.Err()
}

func (r *RiderRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM riders`).Scan(&count)
	return count, err
}

func (r *RiderRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM riders`)
	return err
}
