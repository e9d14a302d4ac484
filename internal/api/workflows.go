package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"flowforge/internal/repository"
	"flowforge/pkg/models"
)

// ListWorkflows returns all stored workflows.
// (GET /api/v1/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	workflows, err := s.Store.ListWorkflows(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, workflows)
}

// GetWorkflow returns a single workflow by id.
// (GET /api/v1/workflows/:id)
func (s *Server) GetWorkflow(c echo.Context) error {
	wf, err := s.Store.GetWorkflow(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "workflow not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, wf)
}

// CreateWorkflow stores a new workflow definition.
// (POST /api/v1/workflows)
func (s *Server) CreateWorkflow(c echo.Context) error {
	var wf models.Workflow
	if err := c.Bind(&wf); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if wf.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "workflow name is required")
	}
	if err := validateGraph(&wf); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if wf.ID == "" {
		wf.ID = uuid.New().String()
	}
	if wf.Status == "" {
		wf.Status = models.WorkflowStatusDraft
	}
	now := time.Now()
	wf.CreatedAt = now
	wf.UpdatedAt = now

	if err := s.Store.CreateWorkflow(c.Request().Context(), &wf); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save workflow: "+err.Error())
	}
	return c.JSON(http.StatusCreated, wf)
}

// UpdateWorkflow replaces an existing workflow definition.
// (PUT /api/v1/workflows/:id)
func (s *Server) UpdateWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	existing, err := s.Store.GetWorkflow(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "workflow not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var wf models.Workflow
	if err := c.Bind(&wf); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if err := validateGraph(&wf); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	wf.ID = existing.ID
	wf.CreatedAt = existing.CreatedAt
	wf.UpdatedAt = time.Now()
	if wf.Status == "" {
		wf.Status = existing.Status
	}

	if err := s.Store.UpdateWorkflow(ctx, &wf); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update workflow: "+err.Error())
	}
	return c.JSON(http.StatusOK, wf)
}

// DeleteWorkflow removes a workflow and its embedded graph.
// (DELETE /api/v1/workflows/:id)
func (s *Server) DeleteWorkflow(c echo.Context) error {
	err := s.Store.DeleteWorkflow(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "workflow not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// validateGraph enforces referential integrity before a workflow is stored:
// every connection endpoint must reference a node in the same workflow. The
// engine assumes this has already been checked.
func validateGraph(wf *models.Workflow) error {
	ids := make(map[string]bool, len(wf.Nodes))
	for _, n := range wf.Nodes {
		if n.ID == "" {
			return errors.New("node id must not be empty")
		}
		if ids[n.ID] {
			return errors.New("duplicate node id: " + n.ID)
		}
		ids[n.ID] = true
	}
	for i := range wf.Connections {
		conn := &wf.Connections[i]
		if !ids[conn.SourceNode] {
			return errors.New("connection references unknown source node: " + conn.SourceNode)
		}
		if !ids[conn.TargetNode] {
			return errors.New("connection references unknown target node: " + conn.TargetNode)
		}
		if conn.ID == "" {
			conn.ID = uuid.New().String()
		}
		conn.WorkflowID = wf.ID
	}
	return nil
}
