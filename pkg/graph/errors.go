package graph

import (
	"errors"
	"fmt"
)

// Validation errors returned by graph commands. A failed command leaves the graph unchanged.
var (
	ErrNodeNotFound     = errors.New("node not found")
	ErrEdgeNotFound     = errors.New("edge not found")
	ErrUnknownNodeType  = errors.New("unknown node type")
	ErrReservedNodeType = errors.New("trigger and end nodes exist once per graph")
)

// Error wraps a graph command failure with context.
type Error struct {
	Op  string // Command name
	ID  string // Node or edge ID if applicable
	Err error  // Underlying sentinel
}

func (e *Error) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s failed for %s: %v", e.Op, e.ID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsNodeNotFound checks if an error indicates a node id did not resolve.
func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}
