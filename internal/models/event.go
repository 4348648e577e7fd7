package models

const (
	EventDriverCreated = "DriverCreated"
	EventRiderCreated  = "RiderCreated"
	EventRideRequested = "RideRequested"
	EventRideAssigned  = "RideAssigned"
	EventRidePickup    = "RidePickup"
	EventRideCompleted = "RideCompleted"
	EventRideRejected  = "RideRejected"
	EventRideFailed    = "RideFailed"
	EventTickAdvanced  = "TickAdvanced"
)

// Event is an observable simulation event, emitted to the configured
// output destination after the operation that produced it commits.
type Event struct {
	Tick int         `json:"tick"`
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// RideEventData is the payload for ride lifecycle events.
type RideEventData struct {
	RideID     string `json:"ride_id" parquet:"name=ride_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	RiderID    string `json:"rider_id" parquet:"name=rider_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	DriverID   string `json:"driver_id,omitempty" parquet:"name=driver_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	Status     string `json:"status" parquet:"name=status,type=BYTE_ARRAY,convertedtype=UTF8"`
	PickupX    int32  `json:"pickup_x" parquet:"name=pickup_x,type=INT32"`
	PickupY    int32  `json:"pickup_y" parquet:"name=pickup_y,type=INT32"`
	DropoffX   int32  `json:"dropoff_x" parquet:"name=dropoff_x,type=INT32"`
	DropoffY   int32  `json:"dropoff_y" parquet:"name=dropoff_y,type=INT32"`
	RetryCount int32  `json:"retry_count" parquet:"name=retry_count,type=INT32"`
	Tick       int32  `json:"tick" parquet:"name=tick,type=INT32"`
}

// TickEventData summarises a tick for downstream consumers.
type TickEventData struct {
	Tick             int32 `json:"tick" parquet:"name=tick,type=INT32"`
	Drivers          int32 `json:"drivers" parquet:"name=drivers,type=INT32"`
	AvailableDrivers int32 `json:"available_drivers" parquet:"name=available_drivers,type=INT32"`
	WaitingRides     int32 `json:"waiting_rides" parquet:"name=waiting_rides,type=INT32"`
	CompletedRides   int32 `json:"completed_rides" parquet:"name=completed_rides,type=INT32"`
	FailedRides      int32 `json:"failed_rides" parquet:"name=failed_rides,type=INT32"`
}

// EntityEventData is the payload for driver/rider creation events.
type EntityEventData struct {
	ID   string `json:"id" parquet:"name=id,type=BYTE_ARRAY,convertedtype=UTF8"`
	X    int32  `json:"x" parquet:"name=x,type=INT32"`
	Y    int32  `json:"y" parquet:"name=y,type=INT32"`
	Tick int32  `json:"tick" parquet:"name=tick,type=INT32"`
}
