package sequence

import (
	"errors"
	"fmt"
)

// Validation errors returned by sequence commands. A failed command leaves the sequence unchanged.
var (
	ErrStepNotFound         = errors.New("step not found")
	ErrVariantNotFound      = errors.New("variant not found")
	ErrLimitExceeded        = errors.New("variant limit exceeded")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrInvalidStepType      = errors.New("invalid step type")
	ErrVariantsNotSupported = errors.New("step type does not support variants")
)

// Error wraps a command failure with the operation and step it concerns.
type Error struct {
	Op     string // Command name (e.g. "AddVariant")
	StepID string // Step ID if applicable
	Err    error  // Underlying sentinel
}

func (e *Error) Error() string {
	if e.StepID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s failed for step %s: %v", e.Op, e.StepID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newError(op, stepID string, err error) *Error {
	return &Error{Op: op, StepID: stepID, Err: err}
}

// IsStepNotFound checks if an error indicates a step id did not resolve.
func IsStepNotFound(err error) bool {
	return errors.Is(err, ErrStepNotFound)
}

// IsLimitExceeded checks if an error indicates the A/B variant cap was hit.
func IsLimitExceeded(err error) bool {
	return errors.Is(err, ErrLimitExceeded)
}

// IsValidationError checks if an error was raised by a sequence command.
func IsValidationError(err error) bool {
	var e *Error

	return errors.As(err, &e)
}
