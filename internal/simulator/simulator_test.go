package simulator

import (
	"errors"
	"testing"

	"github.com/gridhail/ridesim/internal/models"
)

func TestRequestFailsAfterRetriesExhausted(t *testing.T) {
	sim := NewSimulator(testConfig())
	mustAddRider(t, sim, &models.Rider{ID: "r1", Position: models.Point{X: 10, Y: 10}})

	// No drivers exist: the initial attempt fails and schedules retry 1.
	ride := mustRequestRide(t, sim, "r1", models.Point{X: 10, Y: 10}, models.Point{X: 50, Y: 50})
	if ride.Status != models.RideStatusWaiting || ride.RetryCount != 1 {
		t.Fatalf("after request: status %s retries %d, want waiting/1", ride.Status, ride.RetryCount)
	}
	if ride.CooldownUntilTick != 5 {
		t.Fatalf("cooldown until %d, want 5", ride.CooldownUntilTick)
	}

	// Cooldown retries land at ticks 5, 10 and 15; the third one exceeds
	// max_retries and the request fails for good.
	checkpoints := map[int]int{5: 2, 10: 3}
	for tick := 1; tick <= 15; tick++ {
		sim.AdvanceTick()
		got := sim.Snapshot().RideRequests[ride.ID]
		if want, ok := checkpoints[tick]; ok {
			if got.RetryCount != want || got.Status != models.RideStatusWaiting {
				t.Fatalf("tick %d: status %s retries %d, want waiting/%d",
					tick, got.Status, got.RetryCount, want)
			}
		}
		if tick < 15 && got.Status == models.RideStatusFailed {
			t.Fatalf("tick %d: failed too early", tick)
		}
	}

	got := sim.Snapshot().RideRequests[ride.ID]
	if got.Status != models.RideStatusFailed {
		t.Fatalf("final status = %s, want failed", got.Status)
	}
	if got.RetryCount != 4 {
		t.Fatalf("final retry count = %d, want 4", got.RetryCount)
	}
}

func TestFailedRequestIsTerminal(t *testing.T) {
	cfg := testConfig()
	cfg.RejectionCooldownTicks = 1
	cfg.MaxRetries = 0
	sim := NewSimulator(cfg)
	mustAddRider(t, sim, &models.Rider{ID: "r1", Position: models.Point{X: 10, Y: 10}})

	ride := mustRequestRide(t, sim, "r1", models.Point{X: 10, Y: 10}, models.Point{X: 50, Y: 50})
	got := sim.Snapshot().RideRequests[ride.ID]
	if got.Status != models.RideStatusFailed {
		t.Fatalf("status = %s, want failed with max_retries 0", got.Status)
	}

	// A driver appearing later must not resurrect a terminal request.
	mustAddDriver(t, sim, &models.Driver{
		ID: "d1", Position: models.Point{X: 10, Y: 10},
		Status: models.DriverStatusAvailable, SearchRadius: 15,
	})
	for i := 0; i < 10; i++ {
		sim.AdvanceTick()
	}
	got = sim.Snapshot().RideRequests[ride.ID]
	if got.Status != models.RideStatusFailed {
		t.Fatalf("terminal request changed to %s", got.Status)
	}

	// The rider is free again and may request another ride.
	if _, err := sim.RequestRide("r1", models.Point{X: 10, Y: 10}, models.Point{X: 20, Y: 20}); err != nil {
		t.Fatalf("rider with only a failed request should be free: %v", err)
	}
}

func TestRequestRideValidation(t *testing.T) {
	sim := NewSimulator(testConfig())
	mustAddRider(t, sim, &models.Rider{ID: "r1", Position: models.Point{X: 10, Y: 10}})

	if _, err := sim.RequestRide("ghost", models.Point{X: 1, Y: 1}, models.Point{X: 2, Y: 2}); !errors.Is(err, models.ErrUnknownRider) {
		t.Fatalf("unknown rider: got %v, want ErrUnknownRider", err)
	}
	if _, err := sim.RequestRide("r1", models.Point{X: -1, Y: 1}, models.Point{X: 2, Y: 2}); !errors.Is(err, models.ErrOutOfBounds) {
		t.Fatalf("bad pickup: got %v, want ErrOutOfBounds", err)
	}
	if _, err := sim.RequestRide("r1", models.Point{X: 1, Y: 1}, models.Point{X: 2, Y: 100}); !errors.Is(err, models.ErrOutOfBounds) {
		t.Fatalf("bad dropoff: got %v, want ErrOutOfBounds", err)
	}

	// Failed validation must not leave a partial request behind.
	if n := len(sim.Snapshot().RideRequests); n != 0 {
		t.Fatalf("%d requests stored after rejected calls, want 0", n)
	}

	mustRequestRide(t, sim, "r1", models.Point{X: 10, Y: 10}, models.Point{X: 20, Y: 20})
	if _, err := sim.RequestRide("r1", models.Point{X: 10, Y: 10}, models.Point{X: 30, Y: 30}); !errors.Is(err, models.ErrRiderBusy) {
		t.Fatalf("second active request: got %v, want ErrRiderBusy", err)
	}
}

func TestCreateValidation(t *testing.T) {
	sim := NewSimulator(testConfig())
	if _, err := sim.CreateDriver(models.Point{X: 100, Y: 0}); !errors.Is(err, models.ErrOutOfBounds) {
		t.Fatalf("driver out of bounds: got %v", err)
	}
	if _, err := sim.CreateRider(models.Point{X: 0, Y: -1}); !errors.Is(err, models.ErrOutOfBounds) {
		t.Fatalf("rider out of bounds: got %v", err)
	}
	if err := sim.AddDriver(&models.Driver{ID: "d1", Position: models.Point{X: 1, Y: 1}}); err != nil {
		t.Fatalf("AddDriver: %v", err)
	}
	if err := sim.AddDriver(&models.Driver{ID: "d1", Position: models.Point{X: 2, Y: 2}}); !errors.Is(err, models.ErrDuplicateID) {
		t.Fatalf("duplicate driver id: got %v, want ErrDuplicateID", err)
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() *models.Snapshot {
		sim := NewSimulator(testConfig())
		for _, d := range []string{"d-a", "d-b", "d-c"} {
			mustAddDriver(t, sim, &models.Driver{
				ID: d, Position: models.Point{X: 20, Y: 20},
				Status: models.DriverStatusAvailable, SearchRadius: 15,
			})
		}
		mustAddRider(t, sim, &models.Rider{ID: "r1", Position: models.Point{X: 25, Y: 20}})
		mustRequestRide(t, sim, "r1", models.Point{X: 25, Y: 20}, models.Point{X: 30, Y: 30})
		for i := 0; i < 40; i++ {
			sim.AdvanceTick()
		}
		return sim.Snapshot()
	}

	first := run()
	second := run()

	if first.CurrentTick != second.CurrentTick {
		t.Fatalf("ticks diverged: %d vs %d", first.CurrentTick, second.CurrentTick)
	}
	for id, d1 := range first.Drivers {
		d2 := second.Drivers[id]
		if d2 == nil {
			t.Fatalf("driver %s missing from replay", id)
		}
		if *d1 != *d2 {
			t.Fatalf("driver %s diverged: %+v vs %+v", id, d1, d2)
		}
	}
	for _, r1 := range first.RideRequests {
		for _, r2 := range second.RideRequests {
			if r1.RiderID != r2.RiderID {
				continue
			}
			if r1.Status != r2.Status || r1.AssignedDriverID != r2.AssignedDriverID || r1.RetryCount != r2.RetryCount {
				t.Fatalf("ride for %s diverged: %+v vs %+v", r1.RiderID, r1, r2)
			}
		}
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	sim := NewSimulator(testConfig())
	mustAddDriver(t, sim, &models.Driver{
		ID: "d1", Position: models.Point{X: 10, Y: 10},
		Status: models.DriverStatusAvailable, SearchRadius: 15,
	})
	mustAddRider(t, sim, &models.Rider{ID: "r1", Position: models.Point{X: 12, Y: 10}})
	mustRequestRide(t, sim, "r1", models.Point{X: 12, Y: 10}, models.Point{X: 20, Y: 20})
	for i := 0; i < 5; i++ {
		sim.AdvanceTick()
	}

	sim.Reset()
	snap := sim.Snapshot()
	if snap.CurrentTick != 0 {
		t.Fatalf("tick after reset = %d, want 0", snap.CurrentTick)
	}
	if len(snap.Drivers) != 0 || len(snap.Riders) != 0 || len(snap.RideRequests) != 0 {
		t.Fatalf("entities survived reset: %d drivers, %d riders, %d rides",
			len(snap.Drivers), len(snap.Riders), len(snap.RideRequests))
	}
}

func TestResetReplaysIdentically(t *testing.T) {
	sim := NewSimulator(testConfig())

	run := func() models.Point {
		mustAddDriver(t, sim, &models.Driver{
			ID: "d1", Position: models.Point{X: 50, Y: 50},
			Status: models.DriverStatusAvailable, SearchRadius: 15,
		})
		for i := 0; i < 25; i++ {
			sim.AdvanceTick()
		}
		return sim.Snapshot().Drivers["d1"].Position
	}

	first := run()
	sim.Reset()
	second := run()
	if first != second {
		t.Fatalf("wander path diverged after reset: %v vs %v", first, second)
	}
}

func TestUpdateConfig(t *testing.T) {
	sim := NewSimulator(testConfig())
	cooldown := 9
	if err := sim.UpdateConfig(models.TunableConfig{RejectionCooldownTicks: &cooldown}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if sim.Config.RejectionCooldownTicks != 9 {
		t.Fatalf("cooldown = %d, want 9", sim.Config.RejectionCooldownTicks)
	}

	bad := -2
	if err := sim.UpdateConfig(models.TunableConfig{MaxRetries: &bad}); err == nil {
		t.Fatal("negative max_retries accepted")
	}
	if sim.Config.MaxRetries != 3 {
		t.Fatalf("rejected update changed max_retries to %d", sim.Config.MaxRetries)
	}

	// The new cooldown applies to the next dispatch failure.
	mustAddRider(t, sim, &models.Rider{ID: "r1", Position: models.Point{X: 10, Y: 10}})
	ride := mustRequestRide(t, sim, "r1", models.Point{X: 10, Y: 10}, models.Point{X: 20, Y: 20})
	if ride.CooldownUntilTick != 9 {
		t.Fatalf("cooldown until %d, want 9", ride.CooldownUntilTick)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	sim := NewSimulator(testConfig())
	mustAddDriver(t, sim, &models.Driver{
		ID: "d1", Position: models.Point{X: 10, Y: 10},
		Status: models.DriverStatusAvailable, SearchRadius: 15,
	})

	snap := sim.Snapshot()
	snap.Drivers["d1"].Position = models.Point{X: 99, Y: 99}
	snap.Drivers["d1"].Status = models.DriverStatusOffline

	fresh := sim.Snapshot().Drivers["d1"]
	if fresh.Position != (models.Point{X: 10, Y: 10}) || fresh.Status != models.DriverStatusAvailable {
		t.Fatalf("snapshot mutation reached engine state: %+v", fresh)
	}
}

func TestSubscribeReceivesTickSnapshots(t *testing.T) {
	sim := NewSimulator(testConfig())
	mustAddDriver(t, sim, &models.Driver{
		ID: "d1", Position: models.Point{X: 10, Y: 10},
		Status: models.DriverStatusAvailable, SearchRadius: 15,
	})

	var seen []int
	sim.Subscribe(func(snap *models.Snapshot) {
		seen = append(seen, snap.CurrentTick)
	})
	// Listeners run outside the engine lock, so calling back in is legal.
	var reentrant []int
	sim.Subscribe(func(snap *models.Snapshot) {
		reentrant = append(reentrant, sim.CurrentTick())
	})

	sim.AdvanceTick()
	sim.AdvanceTick()
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("listener saw ticks %v, want [1 2]", seen)
	}
	if len(reentrant) != 2 || reentrant[0] != 1 || reentrant[1] != 2 {
		t.Fatalf("re-entrant listener saw ticks %v, want [1 2]", reentrant)
	}
}
