// Package models defines the domain models for the workflow builder service.
package models

import (
	"time"
)

// WorkflowStatus represents the lifecycle state of a workflow definition.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"
	WorkflowStatusActive   WorkflowStatus = "active"
	WorkflowStatusInactive WorkflowStatus = "inactive"
)

// Workflow is a stored graph of typed nodes and the connections between them.
// The execution engine never mutates a Workflow; it receives a frozen
// WorkflowSnapshot at run start.
type Workflow struct {
	ID          string         `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description,omitempty" db:"description"`
	Status      WorkflowStatus `json:"status" db:"status"`
	Nodes       []Node         `json:"nodes"`
	Connections []Connection   `json:"connections"`
	Settings    map[string]any `json:"settings,omitempty"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Position is the node's 2D location on the editor canvas. Opaque to the
// engine; persisted only so the UI can restore layout.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a typed unit of work inside a workflow graph.
type Node struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	TypeVersion int               `json:"type_version"`
	Position    Position          `json:"position"`
	Parameters  map[string]any    `json:"parameters,omitempty"`
	Credentials map[string]string `json:"credentials,omitempty"`
	Disabled    bool              `json:"disabled"`
	Notes       string            `json:"notes,omitempty"`
}

// Connection is a directed edge from one node's output handle to another
// node's input handle. Multiple connections may share a source (fan-out) or a
// target (fan-in).
type Connection struct {
	ID           string `json:"id"`
	SourceNode   string `json:"source_node"`
	SourceOutput string `json:"source_output"`
	TargetNode   string `json:"target_node"`
	TargetInput  string `json:"target_input"`
	WorkflowID   string `json:"workflow_id,omitempty"`
}

// DefaultHandle is the output/input handle used when a connection does not
// name one explicitly.
const DefaultHandle = "main"

// SourceHandle returns the connection's source output handle, defaulting to
// DefaultHandle when unset.
func (c Connection) SourceHandle() string {
	if c.SourceOutput == "" {
		return DefaultHandle
	}
	return c.SourceOutput
}

// TargetHandle returns the connection's target input handle, defaulting to
// DefaultHandle when unset.
func (c Connection) TargetHandle() string {
	if c.TargetInput == "" {
		return DefaultHandle
	}
	return c.TargetInput
}

// FindNode returns the node with the given id, or nil if absent.
func (w *Workflow) FindNode(id string) *Node {
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i]
		}
	}
	return nil
}
