// Package engine runs workflow graphs: it resolves trigger nodes, walks the
// graph dispatching each node to its registered handler, aggregates data
// flowing along connections, and tracks execution status and results.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"flowforge/internal/nodes"
	"flowforge/internal/repository"
	"flowforge/pkg/models"
)

// Engine executes workflow runs. Safe for concurrent use: separate runs
// share no mutable state beyond the read-only node registry and the store.
type Engine struct {
	store    repository.Store
	registry *nodes.Registry
	logger   hclog.Logger
	metrics  *engineMetrics

	mu      sync.Mutex
	running map[string]*runHandle
}

// New creates an Engine.
func New(store repository.Store, registry *nodes.Registry, logger hclog.Logger) *Engine {
	return &Engine{
		store:    store,
		registry: registry,
		logger:   logger.Named("engine"),
		metrics:  newEngineMetrics(),
		running:  make(map[string]*runHandle),
	}
}

// Start launches a run asynchronously and returns immediately. The run
// outlives the caller's request context.
func (e *Engine) Start(ctx context.Context, run Run) {
	go e.Execute(context.WithoutCancel(ctx), run)
}

// Execute runs a workflow to completion, updating the execution record as it
// progresses. It terminates in exactly one of the terminal states: success,
// error, or stopped.
func (e *Engine) Execute(ctx context.Context, run Run) {
	exec := run.Execution
	handle := e.track(exec.ID)
	defer e.untrack(exec.ID)

	started := time.Now()
	if exec.StartedAt.IsZero() {
		exec.StartedAt = started
	}
	exec.Status = models.ExecutionStatusRunning
	e.metrics.recordStart(ctx, exec.Mode)
	e.logger.Info("run started", "execution_id", exec.ID, "workflow_id", exec.WorkflowID, "mode", exec.Mode)

	rc := newRunContext(run, handle)
	err := e.traverse(ctx, rc)
	elapsed := time.Since(started)

	switch {
	case errors.Is(err, errStopped):
		e.finalize(ctx, rc, models.ExecutionStatusStopped, "", elapsed)
	case err != nil:
		e.finalize(ctx, rc, models.ExecutionStatusError, err.Error(), elapsed)
	default:
		e.finalize(ctx, rc, models.ExecutionStatusSuccess, "", elapsed)
	}
}

// Stop requests cancellation of a running execution and marks its record
// stopped. The engine observes the signal between node invocations, never
// mid-handler. Partial per-node results already recorded are retained.
func (e *Engine) Stop(ctx context.Context, executionID string) (*models.Execution, error) {
	e.mu.Lock()
	handle, active := e.running[executionID]
	e.mu.Unlock()
	if active {
		handle.requestStop()
	}

	exec, err := e.store.GetExecution(ctx, executionID)
	if err != nil {
		return nil, err
	}
	if exec.Status.Terminal() {
		return exec, nil
	}

	now := time.Now()
	exec.Status = models.ExecutionStatusStopped
	exec.Finished = true
	exec.StoppedAt = &now
	if err := e.store.UpdateExecution(ctx, exec); err != nil && !errors.Is(err, repository.ErrExecutionFinished) {
		return nil, err
	}
	e.logger.Info("run stop requested", "execution_id", executionID)
	return exec, nil
}

func (e *Engine) track(executionID string) *runHandle {
	handle := &runHandle{}
	e.mu.Lock()
	e.running[executionID] = handle
	e.mu.Unlock()
	return handle
}

func (e *Engine) untrack(executionID string) {
	e.mu.Lock()
	delete(e.running, executionID)
	e.mu.Unlock()
}

// traverse seeds one depth-first walk per trigger node, in workflow node
// declaration order. The walk is an explicit worklist rather than recursion
// so that long chains cannot exhaust the stack.
func (e *Engine) traverse(ctx context.Context, rc *runContext) error {
	var triggers []string
	for _, n := range rc.exec.Workflow.Nodes {
		if e.registry.IsTrigger(n) {
			triggers = append(triggers, n.ID)
		}
	}
	if len(triggers) == 0 {
		return ErrNoTrigger
	}

	for _, triggerID := range triggers {
		if err := e.walk(ctx, rc, triggerID); err != nil {
			return err
		}
	}
	return nil
}

// walk executes the subgraph reachable from rootID. Successors are visited
// in connection-declaration order; pushing them in reverse keeps the
// worklist's visit order identical to a recursive descent.
//
// Fan-in is eager, matching the original system: a join node runs the first
// time any of its predecessors finishes and consumes whatever predecessor
// outputs exist at that moment. The run-once membership check in rc.results
// prevents re-execution when later predecessors complete.
func (e *Engine) walk(ctx context.Context, rc *runContext, rootID string) error {
	stack := []string{rootID}
	for len(stack) > 0 {
		if rc.handle.stopped() || ctx.Err() != nil {
			return errStopped
		}

		nodeID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := findNode(rc.exec.Workflow.Nodes, nodeID)
		if node == nil {
			// Referential integrity is enforced before the engine sees the
			// graph; a dangling target is skipped rather than fatal.
			e.logger.Warn("connection references unknown node", "node_id", nodeID)
			continue
		}
		if node.Disabled {
			// Disabled nodes terminate their path: no output, no fan-out.
			continue
		}
		if rc.done(nodeID) {
			continue
		}

		output, err := e.dispatch(ctx, rc, node)
		if err != nil {
			rc.recordError(node, err)
			e.persist(ctx, rc)
			return &NodeError{NodeID: node.ID, NodeName: node.Name, Err: err}
		}
		rc.record(nodeID, output)
		e.persist(ctx, rc)

		succ := rc.successors(nodeID)
		for i := len(succ) - 1; i >= 0; i-- {
			stack = append(stack, succ[i])
		}
	}
	return nil
}

func (e *Engine) dispatch(ctx context.Context, rc *runContext, node *models.Node) (models.NodeOutput, error) {
	handler, ok := e.registry.Handler(node.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, node.Type)
	}

	input := rc.gatherInput(node.ID)
	e.logger.Debug("executing node",
		"execution_id", rc.exec.ID, "node_id", node.ID, "type", node.Type, "input_items", len(input))
	e.metrics.recordNode(ctx, node.Type)

	return handler.Execute(ctx, nodes.Request{
		Node:  *node,
		Input: input,
		Execution: nodes.ExecutionInfo{
			ExecutionID: rc.exec.ID,
			Mode:        rc.exec.Mode,
			Payload:     rc.payload,
		},
	})
}

// persist writes the current per-node results so pollers can watch progress
// and partial results survive a later failure. Mid-run persistence errors
// are logged, not fatal.
func (e *Engine) persist(ctx context.Context, rc *runContext) {
	rc.snapshotResults()
	if err := e.store.UpdateExecution(ctx, rc.exec); err != nil {
		if errors.Is(err, repository.ErrExecutionFinished) {
			return
		}
		e.logger.Warn("failed to persist run progress", "execution_id", rc.exec.ID, "error", err)
	}
}

func (e *Engine) finalize(ctx context.Context, rc *runContext, status models.ExecutionStatus, errMsg string, elapsed time.Duration) {
	exec := rc.exec
	exec.Status = status
	exec.Finished = true
	now := time.Now()
	if exec.StoppedAt == nil {
		exec.StoppedAt = &now
	}
	rc.snapshotResults()
	exec.Data.Error = errMsg
	exec.Data.ExecutionTimeMs = elapsed.Milliseconds()

	if err := e.store.UpdateExecution(ctx, exec); err != nil {
		if errors.Is(err, repository.ErrExecutionFinished) {
			// Stopped externally while we were finishing; the stored status
			// stands.
			e.logger.Debug("execution finalized externally", "execution_id", exec.ID)
		} else {
			e.logger.Error("failed to persist final execution state", "execution_id", exec.ID, "error", err)
		}
	}

	e.metrics.recordCompletion(ctx, status, elapsed)
	e.logger.Info("run finished",
		"execution_id", exec.ID, "status", status, "elapsed_ms", elapsed.Milliseconds(), "error", errMsg)
}

func findNode(nodes []models.Node, id string) *models.Node {
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i]
		}
	}
	return nil
}
