// Package repository provides persistence for workflows and executions.
package repository

import (
	"context"
	"errors"

	"flowforge/pkg/models"
)

// ErrNotFound is returned when a workflow or execution does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrExecutionFinished is returned when an update targets an execution that
// already reached a terminal status. Keeps status transitions monotonic at
// the storage boundary.
var ErrExecutionFinished = errors.New("repository: execution already finished")

// Store is the storage interface shared by the API layer and the execution
// engine. Implementations must be safe for concurrent use; the engine only
// communicates status and result changes through these update calls.
type Store interface {
	// CreateWorkflow persists a new workflow definition.
	CreateWorkflow(ctx context.Context, wf *models.Workflow) error
	// GetWorkflow retrieves a workflow by id.
	GetWorkflow(ctx context.Context, id string) (*models.Workflow, error)
	// ListWorkflows returns all stored workflows.
	ListWorkflows(ctx context.Context) ([]*models.Workflow, error)
	// UpdateWorkflow replaces an existing workflow definition.
	UpdateWorkflow(ctx context.Context, wf *models.Workflow) error
	// DeleteWorkflow removes a workflow. Embedded nodes and connections go
	// with it.
	DeleteWorkflow(ctx context.Context, id string) error

	// CreateExecution persists a new execution record.
	CreateExecution(ctx context.Context, ex *models.Execution) error
	// GetExecution retrieves an execution by id.
	GetExecution(ctx context.Context, id string) (*models.Execution, error)
	// ListExecutions returns the executions recorded for a workflow.
	ListExecutions(ctx context.Context, workflowID string) ([]*models.Execution, error)
	// UpdateExecution replaces an execution record. Returns
	// ErrExecutionFinished when the stored record is already terminal and the
	// update would change its status.
	UpdateExecution(ctx context.Context, ex *models.Execution) error
}
