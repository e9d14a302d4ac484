package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"flowforge/internal/engine"
	"flowforge/internal/repository"
	"flowforge/pkg/models"
)

// StartExecutionRequest is the optional body of a start-run call.
type StartExecutionRequest struct {
	Payload map[string]any       `json:"payload,omitempty"`
	Mode    models.ExecutionMode `json:"mode,omitempty"`
}

// StartExecutionResponse acknowledges an accepted run.
type StartExecutionResponse struct {
	ExecutionID string                 `json:"execution_id"`
	Status      models.ExecutionStatus `json:"status"`
}

// StartExecution creates an execution record for a workflow and hands a
// frozen graph snapshot to the engine. The run proceeds asynchronously; the
// caller polls with the returned execution id.
// (POST /api/v1/workflows/:id/executions)
func (s *Server) StartExecution(c echo.Context) error {
	ctx := c.Request().Context()

	wf, err := s.Store.GetWorkflow(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "workflow not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req StartExecutionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	mode := req.Mode
	if mode == "" {
		mode = models.ExecutionModeManual
	}

	exec := &models.Execution{
		ID:         uuid.New().String(),
		WorkflowID: wf.ID,
		Status:     models.ExecutionStatusRunning,
		Mode:       mode,
		StartedAt:  time.Now(),
		Data:       models.ExecutionData{ResultData: map[string]models.NodeOutput{}},
		Workflow: models.WorkflowSnapshot{
			Nodes:       wf.Nodes,
			Connections: wf.Connections,
		},
	}
	if err := s.Store.CreateExecution(ctx, exec); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create execution: "+err.Error())
	}

	s.Engine.Start(ctx, engine.Run{Execution: exec, Payload: req.Payload})

	return c.JSON(http.StatusAccepted, StartExecutionResponse{
		ExecutionID: exec.ID,
		Status:      exec.Status,
	})
}

// GetExecution returns the current state of an execution. Safe to call at
// any time, including after the run has finished.
// (GET /api/v1/executions/:id)
func (s *Server) GetExecution(c echo.Context) error {
	exec, err := s.Store.GetExecution(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "execution not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, exec)
}

// ListExecutions returns the executions recorded for a workflow.
// (GET /api/v1/workflows/:id/executions)
func (s *Server) ListExecutions(c echo.Context) error {
	executions, err := s.Store.ListExecutions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, executions)
}

// StopExecution requests cancellation of a running execution.
// (POST /api/v1/executions/:id/stop)
func (s *Server) StopExecution(c echo.Context) error {
	exec, err := s.Engine.Stop(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "execution not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, exec)
}
