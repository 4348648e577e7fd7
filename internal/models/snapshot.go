package models

// Snapshot is a read-only projection of the whole simulation: entities,
// clock and config. Every contained value is a deep copy, so holding a
// snapshot never aliases live engine state.
type Snapshot struct {
	CurrentTick  int                     `json:"current_tick"`
	Config       Config                  `json:"config"`
	Drivers      map[string]*Driver      `json:"drivers"`
	Riders       map[string]*Rider       `json:"riders"`
	RideRequests map[string]*RideRequest `json:"ride_requests"`
	Summary      Summary                 `json:"summary"`
}

// Summary is the aggregate view served alongside the full snapshot.
type Summary struct {
	CurrentTick      int `json:"current_tick"`
	TotalDrivers     int `json:"total_drivers"`
	AvailableDrivers int `json:"available_drivers"`
	AssignedDrivers  int `json:"assigned_drivers"`
	OnTripDrivers    int `json:"on_trip_drivers"`
	TotalRiders      int `json:"total_riders"`
	TotalRides       int `json:"total_ride_requests"`
	WaitingRides     int `json:"waiting_rides"`
	CompletedRides   int `json:"completed_rides"`
	FailedRides      int `json:"failed_rides"`
}
