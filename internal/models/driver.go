package models

type Driver struct {
	ID             string       `json:"id"`
	Position       Point        `json:"position"`
	Status         DriverStatus `json:"status"`
	SearchRadius   int          `json:"search_radius"`
	IdleTicks      int          `json:"idle_ticks"`
	CompletedRides int          `json:"completed_rides"`
	CurrentRideID  string       `json:"current_ride_id,omitempty"`
}

// ResetIdleState is called whenever a driver picks up work: the idle
// counter stops and the search radius returns to its configured floor.
func (d *Driver) ResetIdleState(initialRadius int) {
	d.IdleTicks = 0
	d.SearchRadius = initialRadius
}

func (d *Driver) IsAvailable() bool {
	return d.Status == DriverStatusAvailable
}

// Clone returns an independent copy for snapshots.
func (d *Driver) Clone() *Driver {
	c := *d
	return &c
}
