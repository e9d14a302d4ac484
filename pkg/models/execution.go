package models

import (
	"time"
)

// ExecutionStatus represents the run state of a workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusRunning ExecutionStatus = "running"
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusError   ExecutionStatus = "error"
	ExecutionStatusStopped ExecutionStatus = "stopped"
	ExecutionStatusWaiting ExecutionStatus = "waiting"
)

// Terminal reports whether the status is one of the terminal states. Status
// transitions are monotonic: once terminal, an execution never returns to
// running.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionStatusSuccess, ExecutionStatusError, ExecutionStatusStopped:
		return true
	}
	return false
}

// ExecutionMode identifies how a run was initiated.
type ExecutionMode string

const (
	ExecutionModeManual  ExecutionMode = "manual"
	ExecutionModeTrigger ExecutionMode = "trigger"
	ExecutionModeWebhook ExecutionMode = "webhook"
)

// PairedItem back-references the input item that produced an output item,
// used to correlate items across transformations.
type PairedItem struct {
	Item  int `json:"item"`
	Input int `json:"input,omitempty"`
}

// NodeExecutionData is the atomic unit of data carried along a connection: a
// JSON-like payload, an optional binary attachment map, and an optional
// source-item back-reference.
type NodeExecutionData struct {
	JSON       map[string]any `json:"json"`
	Binary     map[string]any `json:"binary,omitempty"`
	PairedItem *PairedItem    `json:"pairedItem,omitempty"`
}

// NodeOutput holds a node's emitted item sequences grouped by output handle.
// Most node types emit on DefaultHandle only; the conditional node splits
// items across the "true" and "false" handles.
type NodeOutput map[string][]NodeExecutionData

// Main returns the item sequence on the default handle.
func (o NodeOutput) Main() []NodeExecutionData {
	return o[DefaultHandle]
}

// MainOutput wraps a single item sequence as a NodeOutput on the default
// handle.
func MainOutput(items []NodeExecutionData) NodeOutput {
	return NodeOutput{DefaultHandle: items}
}

// ExecutionData is the accumulated result bag of one run: per-node outputs
// keyed by node id plus engine-level metadata.
type ExecutionData struct {
	ResultData      map[string]NodeOutput `json:"resultData"`
	Error           string                `json:"error,omitempty"`
	ExecutionTimeMs int64                 `json:"executionTimeMs"`
}

// WorkflowSnapshot is the frozen copy of the graph an execution ran against.
type WorkflowSnapshot struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
}

// Execution is one run instance of a workflow. It is created in running
// state, mutated only by the execution engine during the run, and becomes
// immutable once Finished is true.
type Execution struct {
	ID         string           `json:"id" db:"id"`
	WorkflowID string           `json:"workflow_id" db:"workflow_id"`
	Status     ExecutionStatus  `json:"status" db:"status"`
	Mode       ExecutionMode    `json:"mode" db:"mode"`
	StartedAt  time.Time        `json:"started_at" db:"started_at"`
	StoppedAt  *time.Time       `json:"stopped_at,omitempty" db:"stopped_at"`
	Finished   bool             `json:"finished" db:"finished"`
	Data       ExecutionData    `json:"data"`
	Workflow   WorkflowSnapshot `json:"workflow"`
}
