package postgres

import (
	"context"

	"github.com/gridhail/ridesim/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DriverRepository struct {
	pool *pgxpool.Pool
}

func NewDriverRepository(pool *pgxpool.Pool) *DriverRepository {
	return &DriverRepository{pool: pool}
}

func (r *DriverRepository) BulkCreate(ctx context.Context, drivers []*models.Driver) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO drivers (
            id, x, y, status, search_radius, idle_ticks,
            completed_rides, current_ride_id
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `

	for _, driver := range drivers {
		_, err = tx.Exec(ctx, query,
			driver.ID,
			driver.Position.X,
			driver.Position.Y,
			string(driver.Status),
			driver.SearchRadius,
			driver.IdleTicks,
			driver.CompletedRides,
			driver.CurrentRideID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *DriverRepository) GetAll(ctx context.Context) ([]*models.Driver, error) {
	query := `
        SELECT id, x, y, status, search_radius, idle_ticks,
               completed_rides, COALESCE(current_ride_id, '')
        FROM drivers
        ORDER BY id
    `
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*models.Driver
	for rows.Next() {
		var d models.Driver
		var status string
		err := rows.Scan(
			&d.ID,
			&d.Position.X,
			&d.Position.Y,
			&status,
			&d.SearchRadius,
			&d.IdleTicks,
			&d.CompletedRides,
			&d.CurrentRideID,
		)
		if err != nil {
			return nil, err
		}
		d.Status = models.DriverStatus(status)
		drivers = append(drivers, &d)
	}

	return drivers, rows.Err()
}

func (r *DriverRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM drivers`).Scan(&count)
	return count, err
}

func (r *DriverRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM drivers`)
	return err
}
