package factories

import (
	"github.com/gridhail/ridesim/internal/models"
	"github.com/lucsky/cuid"
)

type RiderFactory struct{}

func (rf *RiderFactory) CreateRider(config *models.Config) *models.Rider {
	return &models.Rider{
		ID: cuid.New(),
		Position: models.Point{
			X: fake.IntBetween(0, config.GridSize-1),
			Y: fake.IntBetween(0, config.GridSize-1),
		},
		Status: models.RiderStatusWaiting,
	}
}
