package simulator

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"

	"github.com/gridhail/ridesim/internal/models"
	"github.com/lucsky/cuid"
)

// Simulator owns the authoritative in-memory state of one simulation
// instance: entity store, clock, config and the retry schedule. Every
// operation is synchronous and runs to completion under a single mutex;
// iteration orders are fixed so identical input sequences always produce
// identical final state.
type Simulator struct {
	Config *models.Config

	mu           sync.Mutex
	drivers      map[string]*models.Driver
	riders       map[string]*models.Rider
	rideRequests map[string]*models.RideRequest
	currentTick  int
	retryQueue   *models.RetryQueue
	rng          *rand.Rand
	output       OutputDestination
	listeners    []func(*models.Snapshot)
}

func NewSimulator(config *models.Config) *Simulator {
	return &Simulator{
		Config:       config,
		drivers:      make(map[string]*models.Driver),
		riders:       make(map[string]*models.Rider),
		rideRequests: make(map[string]*models.RideRequest),
		retryQueue:   models.NewRetryQueue(),
		rng:          rand.New(rand.NewSource(config.Seed)),
	}
}

// SetOutput configures the event sink. Pass nil to disable emission.
func (s *Simulator) SetOutput(output OutputDestination) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = output
}

// Subscribe registers a callback invoked with a fresh snapshot after every
// tick. Used by the websocket hub; callbacks run outside the engine lock.
func (s *Simulator) Subscribe(fn func(*models.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// CreateDriver adds an available driver at the given position.
func (s *Simulator) CreateDriver(pos models.Point) (*models.Driver, error) {
	if err := models.ValidateCoordinates(pos, s.Config.GridSize); err != nil {
		return nil, err
	}

	s.mu.Lock()
	driver := &models.Driver{
		ID:           cuid.New(),
		Position:     pos,
		Status:       models.DriverStatusAvailable,
		SearchRadius: s.Config.InitialSearchRadius,
	}
	s.drivers[driver.ID] = driver
	tick := s.currentTick
	out := driver.Clone()
	s.mu.Unlock()

	s.emit(models.Event{Tick: tick, Type: models.EventDriverCreated, Data: models.EntityEventData{
		ID: driver.ID, X: int32(pos.X), Y: int32(pos.Y), Tick: int32(tick),
	}})
	return out, nil
}

// AddDriver inserts a pre-built driver, e.g. one loaded from the fleet
// roster. The id must be unique and the position in bounds.
func (s *Simulator) AddDriver(driver *models.Driver) error {
	if err := models.ValidateCoordinates(driver.Position, s.Config.GridSize); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drivers[driver.ID]; ok {
		return fmt.Errorf("%w: driver %s", models.ErrDuplicateID, driver.ID)
	}
	if driver.Status == "" {
		driver.Status = models.DriverStatusAvailable
	}
	if driver.SearchRadius == 0 {
		driver.SearchRadius = s.Config.InitialSearchRadius
	}
	s.drivers[driver.ID] = driver.Clone()
	return nil
}

// CreateRider adds a waiting rider at the given position.
func (s *Simulator) CreateRider(pos models.Point) (*models.Rider, error) {
	if err := models.ValidateCoordinates(pos, s.Config.GridSize); err != nil {
		return nil, err
	}

	s.mu.Lock()
	rider := &models.Rider{
		ID:       cuid.New(),
		Position: pos,
		Status:   models.RiderStatusWaiting,
	}
	s.riders[rider.ID] = rider
	tick := s.currentTick
	out := rider.Clone()
	s.mu.Unlock()

	s.emit(models.Event{Tick: tick, Type: models.EventRiderCreated, Data: models.EntityEventData{
		ID: rider.ID, X: int32(pos.X), Y: int32(pos.Y), Tick: int32(tick),
	}})
	return out, nil
}

// AddRider inserts a pre-built rider from the roster.
func (s *Simulator) AddRider(rider *models.Rider) error {
	if err := models.ValidateCoordinates(rider.Position, s.Config.GridSize); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.riders[rider.ID]; ok {
		return fmt.Errorf("%w: rider %s", models.ErrDuplicateID, rider.ID)
	}
	if rider.Status == "" {
		rider.Status = models.RiderStatusWaiting
	}
	s.riders[rider.ID] = rider.Clone()
	return nil
}

// RequestRide validates the request, stores it and immediately attempts a
// match before returning. All validation happens before any state change.
func (s *Simulator) RequestRide(riderID string, pickup, dropoff models.Point) (*models.RideRequest, error) {
	if err := models.ValidateCoordinates(pickup, s.Config.GridSize); err != nil {
		return nil, err
	}
	if err := models.ValidateCoordinates(dropoff, s.Config.GridSize); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if _, ok := s.riders[riderID]; !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownRider, riderID)
	}
	for _, existing := range s.rideRequests {
		if existing.RiderID == riderID && existing.IsActive() {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s has ride %s in status %s",
				models.ErrRiderBusy, riderID, existing.ID, existing.Status)
		}
	}

	ride := &models.RideRequest{
		ID:          cuid.New(),
		RiderID:     riderID,
		Pickup:      pickup,
		Dropoff:     dropoff,
		Status:      models.RideStatusWaiting,
		CreatedTick: s.currentTick,
	}
	s.rideRequests[ride.ID] = ride

	events := []models.Event{s.rideEvent(models.EventRideRequested, ride)}
	events = append(events, s.dispatchRide(ride)...)
	out := ride.Clone()
	s.mu.Unlock()

	for _, ev := range events {
		s.emit(ev)
	}
	return out, nil
}

// AdvanceTick increments the clock, runs the movement integrator over all
// drivers, then re-evaluates waiting requests whose cooldown has expired.
// Returns the new tick value.
func (s *Simulator) AdvanceTick() int {
	s.mu.Lock()
	s.currentTick++
	tick := s.currentTick

	events := s.processMovement()

	for _, retry := range s.retryQueue.PopDue(tick) {
		ride, ok := s.rideRequests[retry.RideID]
		if !ok || ride.Status != models.RideStatusWaiting {
			continue
		}
		events = append(events, s.dispatchRide(ride)...)
	}

	events = append(events, models.Event{Tick: tick, Type: models.EventTickAdvanced, Data: s.tickSummary()})
	snap := s.snapshotLocked()
	listeners := append(make([]func(*models.Snapshot), 0, len(s.listeners)), s.listeners...)
	s.mu.Unlock()

	for _, ev := range events {
		s.emit(ev)
	}
	for _, fn := range listeners {
		fn(snap)
	}
	return tick
}

// UpdateConfig mutates the runtime-adjustable dispatch knobs. The change
// takes effect on the next dispatch evaluation; in-flight state is untouched.
func (s *Simulator) UpdateConfig(t models.TunableConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Config.ApplyTunables(t)
}

// RejectAssignment processes an explicit driver rejection of its assigned
// ride: the driver returns to the available pool, the rejection is recorded,
// and a fallback dispatch excluding the rejected driver runs immediately.
func (s *Simulator) RejectAssignment(rideID, driverID string) error {
	s.mu.Lock()
	ride, ok := s.rideRequests[rideID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", models.ErrUnknownRide, rideID)
	}
	driver, ok := s.drivers[driverID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", models.ErrUnknownDriver, driverID)
	}
	if ride.AssignedDriverID != driverID ||
		(ride.Status != models.RideStatusAssigned && ride.Status != models.RideStatusPickup) {
		s.mu.Unlock()
		return fmt.Errorf("%w: driver %s, ride %s", models.ErrNotAssigned, driverID, rideID)
	}

	driver.Status = models.DriverStatusAvailable
	driver.CurrentRideID = ""
	ride.Status = models.RideStatusWaiting
	ride.AssignedDriverID = ""
	ride.AddRejection(driverID)

	events := s.dispatchRide(ride)
	s.mu.Unlock()

	for _, ev := range events {
		s.emit(ev)
	}
	return nil
}

// Snapshot returns a deep-copied, read-only projection of the entire state.
func (s *Simulator) Snapshot() *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// CurrentTick returns the clock value.
func (s *Simulator) CurrentTick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTick
}

// Reset clears all entities, drops pending retries and rewinds the clock to
// zero. The RNG is re-seeded so a reset instance replays identically.
func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers = make(map[string]*models.Driver)
	s.riders = make(map[string]*models.Rider)
	s.rideRequests = make(map[string]*models.RideRequest)
	s.retryQueue.Reset()
	s.currentTick = 0
	s.rng = rand.New(rand.NewSource(s.Config.Seed))
}

func (s *Simulator) snapshotLocked() *models.Snapshot {
	snap := &models.Snapshot{
		CurrentTick:  s.currentTick,
		Config:       *s.Config,
		Drivers:      make(map[string]*models.Driver, len(s.drivers)),
		Riders:       make(map[string]*models.Rider, len(s.riders)),
		RideRequests: make(map[string]*models.RideRequest, len(s.rideRequests)),
	}
	for id, d := range s.drivers {
		snap.Drivers[id] = d.Clone()
	}
	for id, r := range s.riders {
		snap.Riders[id] = r.Clone()
	}
	for id, r := range s.rideRequests {
		snap.RideRequests[id] = r.Clone()
	}
	snap.Summary = s.summaryLocked()
	return snap
}

func (s *Simulator) summaryLocked() models.Summary {
	sum := models.Summary{
		CurrentTick:  s.currentTick,
		TotalDrivers: len(s.drivers),
		TotalRiders:  len(s.riders),
		TotalRides:   len(s.rideRequests),
	}
	for _, d := range s.drivers {
		switch d.Status {
		case models.DriverStatusAvailable:
			sum.AvailableDrivers++
		case models.DriverStatusAssigned:
			sum.AssignedDrivers++
		case models.DriverStatusOnTrip:
			sum.OnTripDrivers++
		}
	}
	for _, r := range s.rideRequests {
		switch r.Status {
		case models.RideStatusWaiting:
			if !r.InCooldown(s.currentTick) {
				sum.WaitingRides++
			}
		case models.RideStatusCompleted:
			sum.CompletedRides++
		case models.RideStatusFailed:
			sum.FailedRides++
		}
	}
	return sum
}

func (s *Simulator) tickSummary() models.TickEventData {
	sum := s.summaryLocked()
	return models.TickEventData{
		Tick:             int32(sum.CurrentTick),
		Drivers:          int32(sum.TotalDrivers),
		AvailableDrivers: int32(sum.AvailableDrivers),
		WaitingRides:     int32(sum.WaitingRides),
		CompletedRides:   int32(sum.CompletedRides),
		FailedRides:      int32(sum.FailedRides),
	}
}

// sortedDriverIDs fixes the per-tick iteration order.
func (s *Simulator) sortedDriverIDs() []string {
	ids := make([]string, 0, len(s.drivers))
	for id := range s.drivers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Simulator) rideEvent(eventType string, ride *models.RideRequest) models.Event {
	return models.Event{
		Tick: s.currentTick,
		Type: eventType,
		Data: models.RideEventData{
			RideID:     ride.ID,
			RiderID:    ride.RiderID,
			DriverID:   ride.AssignedDriverID,
			Status:     string(ride.Status),
			PickupX:    int32(ride.Pickup.X),
			PickupY:    int32(ride.Pickup.Y),
			DropoffX:   int32(ride.Dropoff.X),
			DropoffY:   int32(ride.Dropoff.Y),
			RetryCount: int32(ride.RetryCount),
			Tick:       int32(s.currentTick),
		},
	}
}

func (s *Simulator) emit(event models.Event) {
	s.mu.Lock()
	output := s.output
	s.mu.Unlock()
	if output == nil {
		return
	}
	if err := WriteEvent(output, event); err != nil {
		log.Printf("failed to write %s event: %v", event.Type, err)
	}
}
