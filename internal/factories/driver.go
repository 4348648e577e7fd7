package factories

import (
	"math/rand"

	"github.com/gridhail/ridesim/internal/models"
	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
)

var fake = faker.New()

// Seed makes factory output reproducible for a given simulation seed.
func Seed(seed int64) {
	fake = faker.NewWithSeed(rand.NewSource(seed))
}

type DriverFactory struct{}

func (df *DriverFactory) CreateDriver(config *models.Config) *models.Driver {
	return &models.Driver{
		ID: cuid.New(),
		Position: models.Point{
			X: fake.IntBetween(0, config.GridSize-1),
			Y: fake.IntBetween(0, config.GridSize-1),
		},
		Status:       models.DriverStatusAvailable,
		SearchRadius: config.InitialSearchRadius,
	}
}
