package models

type DriverStatus string

const (
	DriverStatusAvailable DriverStatus = "available"
	DriverStatusAssigned  DriverStatus = "assigned"
	DriverStatusOnTrip    DriverStatus = "on_trip"
	DriverStatusOffline   DriverStatus = "offline"
)

type RiderStatus string

const (
	RiderStatusWaiting   RiderStatus = "waiting"
	RiderStatusPickedUp  RiderStatus = "picked_up"
	RiderStatusCompleted RiderStatus = "completed"
)

type RideStatus string

const (
	RideStatusWaiting   RideStatus = "waiting"
	RideStatusAssigned  RideStatus = "assigned"
	RideStatusPickup    RideStatus = "pickup"
	RideStatusOnTrip    RideStatus = "on_trip"
	RideStatusCompleted RideStatus = "completed"
	RideStatusFailed    RideStatus = "failed"
)

// rideTransitions encodes the ride request state flow as code.
// waiting -> assigned -> pickup -> on_trip -> completed, with
// waiting -> failed as the only other terminal path. A rejection
// returns an assigned ride to waiting.
var rideTransitions = map[RideStatus][]RideStatus{
	RideStatusWaiting:  {RideStatusAssigned, RideStatusFailed},
	RideStatusAssigned: {RideStatusPickup, RideStatusOnTrip, RideStatusWaiting},
	RideStatusPickup:   {RideStatusOnTrip, RideStatusWaiting},
	RideStatusOnTrip:   {RideStatusCompleted},
}

// CanTransitionRide reports whether a ride may move between the two statuses.
func CanTransitionRide(from, to RideStatus) bool {
	for _, s := range rideTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalRideStatus reports whether a ride status admits no further change.
func IsTerminalRideStatus(s RideStatus) bool {
	return s == RideStatusCompleted || s == RideStatusFailed
}
