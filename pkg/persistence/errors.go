package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrSequenceNotFound indicates a sequence was not found by the given identifier.
	ErrSequenceNotFound = errors.New("sequence not found")

	// ErrStepNotFound indicates a step id is not part of the sequence.
	ErrStepNotFound = errors.New("step not found")

	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrCampaignMismatch indicates a sequence was addressed through another campaign.
	ErrCampaignMismatch = errors.New("sequence belongs to another campaign")
)

// SequenceError wraps sequence-related errors with additional context.
type SequenceError struct {
	Op         string // Operation being performed (e.g., "ByID", "Save", "Approve")
	CampaignID string
	SequenceID string
	Err        error
}

func (e *SequenceError) Error() string {
	if e.CampaignID != "" {
		return fmt.Sprintf("%s operation failed for sequence %s in campaign %s: %v", e.Op, e.SequenceID, e.CampaignID, e.Err)
	}

	return fmt.Sprintf("%s operation failed for sequence %s: %v", e.Op, e.SequenceID, e.Err)
}

func (e *SequenceError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for sequence errors.
func (e *SequenceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewSequenceError creates a new sequence error with context.
func NewSequenceError(op, campaignID, sequenceID string, err error) *SequenceError {
	return &SequenceError{
		Op:         op,
		CampaignID: campaignID,
		SequenceID: sequenceID,
		Err:        err,
	}
}

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op         string
	WorkflowID string
	Err        error
	Message    string // Additional context message
}

func (e *WorkflowError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for workflow %s: %s (%v)", e.Op, e.WorkflowID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for workflow errors.
func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        err,
	}
}

// IsSequenceNotFound checks if an error indicates a sequence was not found.
func IsSequenceNotFound(err error) bool {
	return errors.Is(err, ErrSequenceNotFound)
}

// IsStepNotFound checks if an error indicates a step was not found.
func IsStepNotFound(err error) bool {
	return errors.Is(err, ErrStepNotFound)
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsNotFound reports any of the not-found conditions.
func IsNotFound(err error) bool {
	return IsSequenceNotFound(err) || IsStepNotFound(err) || IsWorkflowNotFound(err)
}
