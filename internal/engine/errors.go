package engine

import (
	"errors"
	"fmt"
)

// ErrNoTrigger is returned when a workflow has no trigger-type node. A run
// cannot start without at least one entry point.
var ErrNoTrigger = errors.New("workflow has no trigger node")

// ErrUnknownNodeType is returned when a node's type identifier has no
// registered handler.
var ErrUnknownNodeType = errors.New("node type not found")

// errStopped aborts the traversal when an external stop request is observed.
// Not an error from the caller's point of view.
var errStopped = errors.New("run stopped")

// NodeError wraps a handler failure with the failing node's identity. A
// single node failure is fatal to the whole run.
type NodeError struct {
	NodeID   string
	NodeName string
	Err      error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q (%s) failed: %v", e.NodeName, e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
