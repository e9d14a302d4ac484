package engine

import (
	"sync/atomic"

	"flowforge/pkg/models"
)

// Run describes one requested workflow execution. Execution must already be
// persisted in running state with a frozen workflow snapshot; Payload is the
// externally supplied trigger input, if any.
type Run struct {
	Execution *models.Execution
	Payload   map[string]any
}

// runHandle is the per-run cancellation flag shared between the engine
// goroutine and Stop callers. Checked before each node dispatch; never
// mid-handler.
type runHandle struct {
	stop atomic.Bool
}

func (h *runHandle) requestStop() {
	h.stop.Store(true)
}

func (h *runHandle) stopped() bool {
	return h.stop.Load()
}

// runContext is the mutable state of one traversal. It is owned exclusively
// by a single engine run; nothing outside the run ever touches it.
type runContext struct {
	exec    *models.Execution
	payload map[string]any
	handle  *runHandle

	// results holds each executed node's output, keyed by node id. A node
	// present here is never executed again in the same run, which is what
	// terminates cyclic or re-converging graphs.
	results map[string]models.NodeOutput
}

func newRunContext(run Run, handle *runHandle) *runContext {
	return &runContext{
		exec:    run.Execution,
		payload: run.Payload,
		handle:  handle,
		results: make(map[string]models.NodeOutput),
	}
}

func (rc *runContext) done(nodeID string) bool {
	_, ok := rc.results[nodeID]
	return ok
}

func (rc *runContext) record(nodeID string, out models.NodeOutput) {
	if out == nil {
		out = models.NodeOutput{}
	}
	rc.results[nodeID] = out
}

// recordError stores an error-shaped entry under the failing node's id so
// pollers can see which node broke the run.
func (rc *runContext) recordError(node *models.Node, err error) {
	rc.results[node.ID] = models.MainOutput([]models.NodeExecutionData{{
		JSON: map[string]any{
			"error":    err.Error(),
			"nodeId":   node.ID,
			"nodeName": node.Name,
		},
	}})
}

// gatherInput concatenates the already-computed outputs of every connection
// targeting nodeID, in connection-declaration order. Sources that have not
// produced output yet contribute nothing.
func (rc *runContext) gatherInput(nodeID string) []models.NodeExecutionData {
	var input []models.NodeExecutionData
	for _, conn := range rc.exec.Workflow.Connections {
		if conn.TargetNode != nodeID {
			continue
		}
		if out, ok := rc.results[conn.SourceNode]; ok {
			input = append(input, out[conn.SourceHandle()]...)
		}
	}
	return input
}

// successors returns the distinct, not-yet-executed targets of nodeID's
// outgoing connections, in connection-declaration order.
func (rc *runContext) successors(nodeID string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, conn := range rc.exec.Workflow.Connections {
		if conn.SourceNode != nodeID || seen[conn.TargetNode] {
			continue
		}
		seen[conn.TargetNode] = true
		if !rc.done(conn.TargetNode) {
			out = append(out, conn.TargetNode)
		}
	}
	return out
}

// snapshotResults copies the results table into the execution's data bag.
func (rc *runContext) snapshotResults() {
	copied := make(map[string]models.NodeOutput, len(rc.results))
	for id, out := range rc.results {
		copied[id] = out
	}
	rc.exec.Data.ResultData = copied
}
