// Package persistence provides the storage abstraction for sequences and workflows.
package persistence

import (
	"context"

	"github.com/dukex/cadence/pkg/models"
)

// Persistence stores campaign sequences and workflow graphs.
//
// Lookups by id return (nil, nil) when the record does not exist; callers
// translate that into ErrSequenceNotFound or ErrWorkflowNotFound.
type Persistence interface {
	// Sequences returns the sequences of one campaign, oldest first.
	Sequences(ctx context.Context, campaignID string) ([]*models.Sequence, error)
	AllSequences(ctx context.Context) ([]*models.Sequence, error)
	SequenceByID(ctx context.Context, id string) (*models.Sequence, error)
	SaveSequence(ctx context.Context, sequence *models.Sequence) error
	DeleteSequence(ctx context.Context, id string) error

	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
