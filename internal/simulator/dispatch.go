package simulator

import (
	"sort"

	"github.com/gridhail/ridesim/internal/models"
)

// dispatchRide runs one matching cycle for a waiting request: candidate
// filtering, fairness ranking, acceptance check and assignment, or the
// rejection bookkeeping (cooldown, retry bound, terminal failure) when no
// driver can take the ride. Caller holds the engine lock; the returned
// events are emitted after it is released.
func (s *Simulator) dispatchRide(ride *models.RideRequest) []models.Event {
	if ride.Status != models.RideStatusWaiting || ride.InCooldown(s.currentTick) {
		return nil
	}

	candidates := s.eligibleDrivers(ride)
	if len(candidates) == 0 {
		return s.recordDispatchFailure(ride, "")
	}

	s.rankCandidates(candidates, ride)
	best := candidates[0]

	// The radius criterion is the single acceptance rule. Filtering already
	// guarantees it, so this branch cannot reject today; it stays separate
	// as the documented extension point for richer acceptance models.
	if !s.shouldAccept(best, ride) {
		return s.recordDispatchFailure(ride, best.ID)
	}

	return []models.Event{s.assignDriver(ride, best)}
}

// eligibleDrivers returns every available driver whose search radius covers
// the pickup and who has not already rejected this request. Drivers are
// visited in id order so candidate lists are reproducible.
func (s *Simulator) eligibleDrivers(ride *models.RideRequest) []*models.Driver {
	eligible := make([]*models.Driver, 0)
	for _, id := range s.sortedDriverIDs() {
		driver := s.drivers[id]
		if !driver.IsAvailable() {
			continue
		}
		if ride.HasRejected(driver.ID) {
			continue
		}
		if !models.WithinRadius(driver.Position, ride.Pickup, driver.SearchRadius) {
			continue
		}
		eligible = append(eligible, driver)
	}
	return eligible
}

// rankCandidates orders candidates by the two-key fairness comparator:
// weighted completed rides ascending, then pickup distance ascending, then
// driver id as the stable final tie-break.
func (s *Simulator) rankCandidates(candidates []*models.Driver, ride *models.RideRequest) {
	penalty := s.Config.FairnessPenalty
	sort.Slice(candidates, func(i, j int) bool {
		si := float64(candidates[i].CompletedRides) * penalty
		sj := float64(candidates[j].CompletedRides) * penalty
		if si != sj {
			return si < sj
		}
		di := models.ManhattanDistance(candidates[i].Position, ride.Pickup)
		dj := models.ManhattanDistance(candidates[j].Position, ride.Pickup)
		if di != dj {
			return di < dj
		}
		return candidates[i].ID < candidates[j].ID
	})
}

// shouldAccept is the driver's acceptance decision for an offered ride.
func (s *Simulator) shouldAccept(driver *models.Driver, ride *models.RideRequest) bool {
	return models.WithinRadius(driver.Position, ride.Pickup, driver.SearchRadius)
}

func (s *Simulator) assignDriver(ride *models.RideRequest, driver *models.Driver) models.Event {
	ride.Status = models.RideStatusAssigned
	ride.AssignedDriverID = driver.ID
	driver.Status = models.DriverStatusAssigned
	driver.CurrentRideID = ride.ID
	driver.ResetIdleState(s.Config.InitialSearchRadius)
	return s.rideEvent(models.EventRideAssigned, ride)
}

// recordDispatchFailure handles a matching cycle that produced no
// assignment. rejectedID is the driver that explicitly declined, or empty
// when filtering produced no candidate at all. The request either enters
// cooldown for another attempt or, past the retry bound, fails terminally.
func (s *Simulator) recordDispatchFailure(ride *models.RideRequest, rejectedID string) []models.Event {
	ride.AddRejection(rejectedID)
	ride.RetryCount++

	if ride.RetryCount > s.Config.MaxRetries {
		ride.Status = models.RideStatusFailed
		ride.AssignedDriverID = ""
		ride.CooldownUntilTick = 0
		return []models.Event{s.rideEvent(models.EventRideFailed, ride)}
	}

	ride.CooldownUntilTick = s.currentTick + s.Config.RejectionCooldownTicks
	s.retryQueue.Enqueue(&models.Retry{
		DueTick:     ride.CooldownUntilTick,
		CreatedTick: ride.CreatedTick,
		RideID:      ride.ID,
	})
	return []models.Event{s.rideEvent(models.EventRideRejected, ride)}
}
