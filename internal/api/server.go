// Package api contains the HTTP handlers for the workflow builder service.
package api

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"

	"flowforge/internal/engine"
	"flowforge/internal/nodes"
	"flowforge/internal/repository"
)

// Server holds the dependencies for the REST API.
type Server struct {
	Store    repository.Store
	Engine   *engine.Engine
	Registry *nodes.Registry
	Logger   hclog.Logger
}

// NewServer creates a new Server.
func NewServer(store repository.Store, eng *engine.Engine, registry *nodes.Registry, logger hclog.Logger) *Server {
	return &Server{Store: store, Engine: eng, Registry: registry, Logger: logger.Named("api")}
}

// Register mounts all API routes on the given group.
func (s *Server) Register(g *echo.Group) {
	g.GET("/workflows", s.ListWorkflows)
	g.POST("/workflows", s.CreateWorkflow)
	g.GET("/workflows/:id", s.GetWorkflow)
	g.PUT("/workflows/:id", s.UpdateWorkflow)
	g.DELETE("/workflows/:id", s.DeleteWorkflow)

	g.POST("/workflows/:id/executions", s.StartExecution)
	g.GET("/workflows/:id/executions", s.ListExecutions)
	g.GET("/executions/:id", s.GetExecution)
	g.POST("/executions/:id/stop", s.StopExecution)

	g.GET("/node-types", s.ListNodeTypes)
}

// HealthStatus represents the health check response.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// HandleHealth returns basic health status (always returns 200 OK).
func (s *Server) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "flowforge",
		Version:   "1.0.0",
	})
}

// ListNodeTypes returns the metadata of every registered node type, used by
// the editor to build its palette and configuration forms.
// (GET /api/v1/node-types)
func (s *Server) ListNodeTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Registry.List())
}
