package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gridhail/ridesim/internal/models"
)

type createEntityReq struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type requestRideReq struct {
	RiderID  string `json:"rider_id"`
	PickupX  int    `json:"pickup_x"`
	PickupY  int    `json:"pickup_y"`
	DropoffX int    `json:"dropoff_x"`
	DropoffY int    `json:"dropoff_y"`
}

type rejectRideReq struct {
	DriverID string `json:"driver_id"`
}

func (s *Server) handleCreateDriver(c *gin.Context) {
	var req createEntityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	driver, err := s.sim.CreateDriver(models.Point{X: req.X, Y: req.Y})
	if err != nil {
		writeSimError(c, err)
		return
	}
	c.JSON(http.StatusCreated, driver)
}

func (s *Server) handleCreateRider(c *gin.Context) {
	var req createEntityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	rider, err := s.sim.CreateRider(models.Point{X: req.X, Y: req.Y})
	if err != nil {
		writeSimError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rider)
}

func (s *Server) handleRequestRide(c *gin.Context) {
	var req requestRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.RiderID == "" {
		writeError(c, http.StatusBadRequest, "missing rider_id")
		return
	}
	ride, err := s.sim.RequestRide(req.RiderID,
		models.Point{X: req.PickupX, Y: req.PickupY},
		models.Point{X: req.DropoffX, Y: req.DropoffY},
	)
	if err != nil {
		writeSimError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ride)
}

func (s *Server) handleRejectRide(c *gin.Context) {
	var req rejectRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.DriverID == "" {
		writeError(c, http.StatusBadRequest, "missing driver_id")
		return
	}
	if err := s.sim.RejectAssignment(c.Param("id"), req.DriverID); err != nil {
		writeSimError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

func (s *Server) handleAdvanceTick(c *gin.Context) {
	tick := s.sim.AdvanceTick()
	c.JSON(http.StatusOK, gin.H{"current_tick": tick})
}

func (s *Server) handleUpdateConfig(c *gin.Context) {
	var req models.TunableConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.sim.UpdateConfig(req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (s *Server) handleGetState(c *gin.Context) {
	c.JSON(http.StatusOK, s.sim.Snapshot())
}

func (s *Server) handleReset(c *gin.Context) {
	s.sim.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

// writeSimError maps engine validation errors to HTTP statuses.
func writeSimError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrOutOfBounds):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrUnknownRider),
		errors.Is(err, models.ErrUnknownDriver),
		errors.Is(err, models.ErrUnknownRide):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrRiderBusy),
		errors.Is(err, models.ErrDuplicateID),
		errors.Is(err, models.ErrNotAssigned):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
