package simulator

import (
	"github.com/gridhail/ridesim/internal/models"
)

// directions are the four Manhattan-adjacent steps for idle wandering.
var directions = [4]models.Point{
	{X: 0, Y: 1},
	{X: 0, Y: -1},
	{X: -1, Y: 0},
	{X: 1, Y: 0},
}

// processMovement advances every driver one step for the current tick, in
// driver-id-ascending order. Caller holds the engine lock.
func (s *Simulator) processMovement() []models.Event {
	events := make([]models.Event, 0)
	for _, id := range s.sortedDriverIDs() {
		driver := s.drivers[id]
		switch driver.Status {
		case models.DriverStatusAvailable:
			s.moveDriverRandomly(driver)
			s.growSearchRadius(driver)
		case models.DriverStatusAssigned:
			events = append(events, s.moveTowardPickup(driver)...)
		case models.DriverStatusOnTrip:
			events = append(events, s.moveTowardDropoff(driver)...)
		}
	}
	return events
}

// moveDriverRandomly takes one random Manhattan-adjacent step, clipped to
// the grid. A step into the boundary leaves the driver in place.
func (s *Simulator) moveDriverRandomly(driver *models.Driver) {
	step := directions[s.rng.Intn(len(directions))]
	driver.Position = models.ClampToGrid(models.Point{
		X: driver.Position.X + step.X,
		Y: driver.Position.Y + step.Y,
	}, s.Config.GridSize)
}

// growSearchRadius counts an idle tick and widens the search radius by one
// every RadiusGrowthInterval idle ticks, capped at MaxSearchRadius.
func (s *Simulator) growSearchRadius(driver *models.Driver) {
	driver.IdleTicks++
	if driver.IdleTicks%s.Config.RadiusGrowthInterval == 0 {
		if driver.SearchRadius < s.Config.MaxSearchRadius {
			driver.SearchRadius++
		}
	}
}

// moveTowardPickup steps an assigned driver toward the pickup point. The
// ride shows the observable pickup sub-phase while en route; reaching the
// pickup starts the trip and picks up the rider.
func (s *Simulator) moveTowardPickup(driver *models.Driver) []models.Event {
	ride, ok := s.rideRequests[driver.CurrentRideID]
	if !ok {
		return nil
	}

	driver.Position = stepToward(driver.Position, ride.Pickup)

	if driver.Position != ride.Pickup {
		if ride.Status == models.RideStatusAssigned {
			ride.Status = models.RideStatusPickup
		}
		return nil
	}

	ride.Status = models.RideStatusOnTrip
	driver.Status = models.DriverStatusOnTrip
	if rider, ok := s.riders[ride.RiderID]; ok {
		rider.Status = models.RiderStatusPickedUp
		rider.Position = driver.Position
	}
	return []models.Event{s.rideEvent(models.EventRidePickup, ride)}
}

// moveTowardDropoff steps an on-trip driver (with its rider) toward the
// dropoff point; arriving there completes the ride.
func (s *Simulator) moveTowardDropoff(driver *models.Driver) []models.Event {
	ride, ok := s.rideRequests[driver.CurrentRideID]
	if !ok {
		return nil
	}

	driver.Position = stepToward(driver.Position, ride.Dropoff)
	rider, hasRider := s.riders[ride.RiderID]
	if hasRider {
		rider.Position = driver.Position
	}

	if driver.Position != ride.Dropoff {
		return nil
	}

	ride.Status = models.RideStatusCompleted
	driver.Status = models.DriverStatusAvailable
	driver.CurrentRideID = ""
	driver.CompletedRides++
	driver.ResetIdleState(s.Config.InitialSearchRadius)
	if hasRider {
		rider.Status = models.RiderStatusCompleted
		rider.Position = ride.Dropoff
	}
	event := s.rideEvent(models.EventRideCompleted, ride)
	// assigned_driver_id is only held while the ride is in flight.
	ride.AssignedDriverID = ""
	return []models.Event{event}
}

// stepToward moves exactly one unit along one axis toward the target:
// the x axis first while unaligned, then y. Never diagonal.
func stepToward(from, target models.Point) models.Point {
	if from == target {
		return from
	}
	if from.X != target.X {
		if from.X < target.X {
			from.X++
		} else {
			from.X--
		}
		return from
	}
	if from.Y < target.Y {
		from.Y++
	} else {
		from.Y--
	}
	return from
}
