// Package services implements the campaign store operations on top of persistence.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/cadence/pkg/persistence"
	"github.com/dukex/cadence/pkg/registry"
	"github.com/go-playground/validator/v10"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrSequenceNil          = errors.New("sequence cannot be nil")
	ErrWorkflowNil          = errors.New("workflow cannot be nil")
	ErrDuplicateStepID      = errors.New("duplicate step id")
	ErrDuplicateVariantID   = errors.New("duplicate variant id")
	ErrApprovalNotSupported = errors.New("step type does not require approval")
	ErrDuplicateNodeID      = errors.New("duplicate node id")
	ErrDuplicateEdgeID      = errors.New("duplicate edge id")

	// Not Found Errors (404 Not Found).
	ErrSequenceNotFound = persistence.ErrSequenceNotFound
	ErrStepNotFound     = persistence.ErrStepNotFound
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	var validationErrors validator.ValidationErrors

	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrSequenceNil) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrDuplicateStepID) ||
		errors.Is(err, ErrDuplicateVariantID) ||
		errors.Is(err, ErrApprovalNotSupported) ||
		errors.Is(err, ErrDuplicateNodeID) ||
		errors.Is(err, ErrDuplicateEdgeID) ||
		errors.Is(err, registry.ErrInvalidParameters) ||
		errors.Is(err, registry.ErrUnknownType) ||
		errors.As(err, &validationErrors)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return persistence.IsNotFound(err)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
