package cmd

import (
	"context"
	"testing"

	"github.com/gridhail/ridesim/internal/models"
	"github.com/gridhail/ridesim/internal/simulator"
)

type fakeDriverRepo struct {
	stored      []*models.Driver
	bulkCreates int
	deletes     int
}

func (f *fakeDriverRepo) BulkCreate(ctx context.Context, drivers []*models.Driver) error {
	f.bulkCreates++
	f.stored = append(f.stored, drivers...)
	return nil
}

func (f *fakeDriverRepo) GetAll(ctx context.Context) ([]*models.Driver, error) {
	return f.stored, nil
}

func (f *fakeDriverRepo) Count(ctx context.Context) (int, error) {
	return len(f.stored), nil
}

func (f *fakeDriverRepo) DeleteAll(ctx context.Context) error {
	f.deletes++
	f.stored = nil
	return nil
}

type fakeRiderRepo struct {
	stored      []*models.Rider
	bulkCreates int
	deletes     int
}

func (f *fakeRiderRepo) BulkCreate(ctx context.Context, riders []*models.Rider) error {
	f.bulkCreates++
	f.stored = append(f.stored, riders...)
	return nil
}

func (f *fakeRiderRepo) GetAll(ctx context.Context) ([]*models.Rider, error) {
	return f.stored, nil
}

func (f *fakeRiderRepo) Count(ctx context.Context) (int, error) {
	return len(f.stored), nil
}

func (f *fakeRiderRepo) DeleteAll(ctx context.Context) error {
	f.deletes++
	f.stored = nil
	return nil
}

func bootstrapConfig() *models.Config {
	return &models.Config{
		Seed:                   42,
		GridSize:               100,
		InitialSearchRadius:    15,
		MaxSearchRadius:        100,
		RadiusGrowthInterval:   2,
		RejectionCooldownTicks: 5,
		MaxRetries:             3,
		FairnessPenalty:        1.0,
	}
}

func TestSeedFromRosterPersistsGeneratedFleet(t *testing.T) {
	sim := simulator.NewSimulator(bootstrapConfig())
	driverRepo := &fakeDriverRepo{}
	riderRepo := &fakeRiderRepo{}

	generated := []*models.Driver{
		{ID: "d1", Position: models.Point{X: 1, Y: 1}, Status: models.DriverStatusAvailable, SearchRadius: 15},
		{ID: "d2", Position: models.Point{X: 2, Y: 2}, Status: models.DriverStatusAvailable, SearchRadius: 15},
	}
	riders := []*models.Rider{
		{ID: "r1", Position: models.Point{X: 3, Y: 3}, Status: models.RiderStatusWaiting},
	}

	err := seedFromRoster(context.Background(), sim, driverRepo, riderRepo, generated, riders, false)
	if err != nil {
		t.Fatalf("seedFromRoster: %v", err)
	}

	if driverRepo.bulkCreates != 1 || riderRepo.bulkCreates != 1 {
		t.Fatalf("empty roster should be persisted once: %d driver, %d rider bulk creates",
			driverRepo.bulkCreates, riderRepo.bulkCreates)
	}
	if len(driverRepo.stored) != 2 || len(riderRepo.stored) != 1 {
		t.Fatalf("roster holds %d drivers, %d riders, want 2 and 1",
			len(driverRepo.stored), len(riderRepo.stored))
	}
	snap := sim.Snapshot()
	if len(snap.Drivers) != 2 || len(snap.Riders) != 1 {
		t.Fatalf("simulator seeded with %d drivers, %d riders, want 2 and 1",
			len(snap.Drivers), len(snap.Riders))
	}
}

func TestSeedFromRosterLoadsExistingFleet(t *testing.T) {
	sim := simulator.NewSimulator(bootstrapConfig())
	driverRepo := &fakeDriverRepo{stored: []*models.Driver{
		{ID: "d-stored", Position: models.Point{X: 7, Y: 7},
			Status: models.DriverStatusAvailable, SearchRadius: 20, CompletedRides: 3},
	}}
	riderRepo := &fakeRiderRepo{stored: []*models.Rider{
		{ID: "r-stored", Position: models.Point{X: 8, Y: 8}, Status: models.RiderStatusWaiting},
	}}

	generated := []*models.Driver{
		{ID: "d-generated", Position: models.Point{X: 1, Y: 1},
			Status: models.DriverStatusAvailable, SearchRadius: 15},
	}

	err := seedFromRoster(context.Background(), sim, driverRepo, riderRepo, generated, nil, false)
	if err != nil {
		t.Fatalf("seedFromRoster: %v", err)
	}

	if driverRepo.bulkCreates != 0 || riderRepo.bulkCreates != 0 {
		t.Fatal("a populated roster must not be overwritten")
	}
	snap := sim.Snapshot()
	if _, ok := snap.Drivers["d-stored"]; !ok {
		t.Fatal("stored driver not loaded into the simulator")
	}
	if _, ok := snap.Drivers["d-generated"]; ok {
		t.Fatal("generated driver used despite an existing roster")
	}
	if snap.Drivers["d-stored"].CompletedRides != 3 {
		t.Fatalf("stored driver state lost: completed rides = %d, want 3",
			snap.Drivers["d-stored"].CompletedRides)
	}
	if _, ok := snap.Riders["r-stored"]; !ok {
		t.Fatal("stored rider not loaded into the simulator")
	}
}

func TestSeedFromRosterResetDiscardsStoredFleet(t *testing.T) {
	sim := simulator.NewSimulator(bootstrapConfig())
	driverRepo := &fakeDriverRepo{stored: []*models.Driver{
		{ID: "d-old", Position: models.Point{X: 7, Y: 7},
			Status: models.DriverStatusAvailable, SearchRadius: 15},
	}}
	riderRepo := &fakeRiderRepo{}

	generated := []*models.Driver{
		{ID: "d-new", Position: models.Point{X: 1, Y: 1},
			Status: models.DriverStatusAvailable, SearchRadius: 15},
	}

	err := seedFromRoster(context.Background(), sim, driverRepo, riderRepo, generated, nil, true)
	if err != nil {
		t.Fatalf("seedFromRoster: %v", err)
	}

	if driverRepo.deletes != 1 || riderRepo.deletes != 1 {
		t.Fatalf("reset should clear both rosters: %d driver, %d rider deletes",
			driverRepo.deletes, riderRepo.deletes)
	}
	snap := sim.Snapshot()
	if _, ok := snap.Drivers["d-old"]; ok {
		t.Fatal("discarded driver survived the reset")
	}
	if _, ok := snap.Drivers["d-new"]; !ok {
		t.Fatal("regenerated driver not seeded after reset")
	}
	if len(driverRepo.stored) != 1 || driverRepo.stored[0].ID != "d-new" {
		t.Fatalf("roster after reset = %+v, want only d-new", driverRepo.stored)
	}
}
