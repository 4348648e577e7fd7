package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gridhail/ridesim/internal/simulator"
)

const apiVersion = "1.0.0"

// Server is the thin request/response layer in front of one simulation
// instance. It holds no state of its own beyond the websocket hub.
type Server struct {
	sim *simulator.Simulator
	hub *Hub
}

func New(sim *simulator.Simulator) *Server {
	s := &Server{
		sim: sim,
		hub: NewHub(),
	}
	go s.hub.Run()
	sim.Subscribe(s.hub.BroadcastSnapshot)
	return s
}

// Router wires the REST routes and the websocket stream.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(Logging(), Recovery(), CORS())

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)

	router.POST("/drivers", s.handleCreateDriver)
	router.POST("/riders", s.handleCreateRider)
	router.POST("/rides", s.handleRequestRide)
	router.POST("/rides/:id/reject", s.handleRejectRide)
	router.POST("/tick", s.handleAdvanceTick)
	router.PUT("/config", s.handleUpdateConfig)
	router.GET("/state", s.handleGetState)
	router.POST("/reset", s.handleReset)

	router.GET("/ws", s.handleWebsocket)

	return router
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Ride Dispatch Simulator API",
		"status":  "operational",
		"version": apiVersion,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Run blocks serving the API on the given address.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}
