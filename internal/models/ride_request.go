package models

type RideRequest struct {
	ID                string     `json:"id"`
	RiderID           string     `json:"rider_id"`
	Pickup            Point      `json:"pickup"`
	Dropoff           Point      `json:"dropoff"`
	Status            RideStatus `json:"status"`
	AssignedDriverID  string     `json:"assigned_driver_id,omitempty"`
	RejectedDriverIDs []string   `json:"rejected_driver_ids"`
	CreatedTick       int        `json:"created_tick"`
	RetryCount        int        `json:"retry_count"`
	CooldownUntilTick int        `json:"cooldown_until_tick,omitempty"`
}

// InCooldown reports whether the request is dormant at the given tick.
func (r *RideRequest) InCooldown(currentTick int) bool {
	return currentTick < r.CooldownUntilTick
}

// HasRejected reports whether the driver was already tried for this request.
func (r *RideRequest) HasRejected(driverID string) bool {
	for _, id := range r.RejectedDriverIDs {
		if id == driverID {
			return true
		}
	}
	return false
}

// AddRejection records a tried-and-rejected driver. The set only grows.
func (r *RideRequest) AddRejection(driverID string) {
	if driverID != "" && !r.HasRejected(driverID) {
		r.RejectedDriverIDs = append(r.RejectedDriverIDs, driverID)
	}
}

func (r *RideRequest) IsTerminal() bool {
	return IsTerminalRideStatus(r.Status)
}

// IsActive reports whether the request still occupies its rider.
func (r *RideRequest) IsActive() bool {
	return !r.IsTerminal()
}

func (r *RideRequest) Clone() *RideRequest {
	c := *r
	c.RejectedDriverIDs = append([]string(nil), r.RejectedDriverIDs...)
	return &c
}
