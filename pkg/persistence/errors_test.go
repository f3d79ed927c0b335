package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dukex/cadence/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		t.Parallel()

		sequenceErr := persistence.NewSequenceError("ByID", "camp-1", "seq-1", persistence.ErrSequenceNotFound)
		workflowErr := persistence.NewWorkflowError("ByID", "wf-1", persistence.ErrWorkflowNotFound)
		stepErr := fmt.Errorf("approve: %w", persistence.NewSequenceError("Approve", "", "seq-1", persistence.ErrStepNotFound))

		assert.True(t, persistence.IsSequenceNotFound(sequenceErr))
		assert.True(t, persistence.IsWorkflowNotFound(workflowErr))
		assert.True(t, persistence.IsStepNotFound(stepErr))
		assert.False(t, persistence.IsWorkflowNotFound(sequenceErr))

		for _, err := range []error{sequenceErr, workflowErr, stepErr} {
			assert.True(t, persistence.IsNotFound(err))
		}

		assert.False(t, persistence.IsNotFound(errors.New("boom")))
		assert.ErrorIs(t, sequenceErr, persistence.ErrSequenceNotFound)
	})

	t.Run("sequence error contains context", func(t *testing.T) {
		t.Parallel()

		err := persistence.NewSequenceError("Update", "camp-9", "seq-3", persistence.ErrCampaignMismatch)

		assert.Contains(t, err.Error(), "Update")
		assert.Contains(t, err.Error(), "seq-3")
		assert.Contains(t, err.Error(), "camp-9")
		assert.Contains(t, err.Error(), "another campaign")
	})

	t.Run("workflow error contains context", func(t *testing.T) {
		t.Parallel()

		err := &persistence.WorkflowError{
			Op:         "Save",
			WorkflowID: "wf-7",
			Err:        persistence.ErrWorkflowNotFound,
			Message:    "graph rejected",
		}

		assert.Contains(t, err.Error(), "Save")
		assert.Contains(t, err.Error(), "wf-7")
		assert.Contains(t, err.Error(), "graph rejected")
		assert.Contains(t, err.Error(), "workflow not found")
	})
}
