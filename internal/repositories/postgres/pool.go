package postgres

import (
	"context"
	"fmt"

	"github.com/gridhail/ridesim/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, config *models.DatabaseConfig) (*pgxpool.Pool, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("error creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the roster tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS drivers (
			id TEXT PRIMARY KEY,
			x INT NOT NULL,
			y INT NOT NULL,
			status TEXT NOT NULL,
			search_radius INT NOT NULL,
			idle_ticks INT NOT NULL,
			completed_rides INT NOT NULL,
			current_ride_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS riders (
			id TEXT PRIMARY KEY,
			x INT NOT NULL,
			y INT NOT NULL,
			status TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create roster table: %w", err)
		}
	}
	return nil
}
