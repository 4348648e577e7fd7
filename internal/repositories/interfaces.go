package repositories

import (
	"context"

	"github.com/gridhail/ridesim/internal/models"
)

// The fleet roster is an optional Postgres-backed inventory of drivers and
// riders used to seed a simulation instance at startup. A non-empty roster
// is loaded as-is so restarts resume with the same fleet; an empty one is
// seeded from the generated fleet and persisted. The engine itself stays
// in-memory and never reads the roster after bootstrap.

type DriverRepository interface {
	BulkCreate(ctx context.Context, drivers []*models.Driver) error
	GetAll(ctx context.Context) ([]*models.Driver, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

type RiderRepository interface {
	BulkCreate(ctx context.Context, riders []*models.Rider) error
	GetAll(ctx context.Context) ([]*models.Rider, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}
