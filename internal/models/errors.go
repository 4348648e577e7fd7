package models

import "errors"

// Validation errors rejected synchronously at the engine boundary.
// A dispatch that exhausts its retries is a terminal ride state, not an error.
var (
	ErrOutOfBounds   = errors.New("coordinates out of grid bounds")
	ErrUnknownRider  = errors.New("rider not found")
	ErrUnknownDriver = errors.New("driver not found")
	ErrUnknownRide   = errors.New("ride request not found")
	ErrRiderBusy     = errors.New("rider already has an active ride request")
	ErrDuplicateID   = errors.New("entity with this id already exists")
	ErrNotAssigned   = errors.New("driver is not assigned to this ride")
)
