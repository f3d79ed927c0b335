// Package adapter bridges in-memory campaign models and the remote store.
//
// Local mutations are coalesced by a Debouncer before a single write is sent,
// every remote call is retried under a RetryPolicy, and a Watcher turns
// invalidation signals into wholesale reloads.
package adapter

import (
	"context"

	"github.com/dukex/cadence/pkg/models"
)

// SequenceRemote is the remote store contract for outreach sequences.
type SequenceRemote interface {
	FetchSequences(ctx context.Context, campaignID string) ([]*models.Sequence, error)
	CreateSequence(ctx context.Context, sequence *models.Sequence) (*models.Sequence, error)
	// UpdateSequence replaces the whole document.
	UpdateSequence(ctx context.Context, campaignID, sequenceID string, sequence *models.Sequence) (*models.Sequence, error)
	ApproveEmail(ctx context.Context, campaignID, sequenceID, stepID string) error
}

// WorkflowRemote is the remote store contract for workflow graphs.
type WorkflowRemote interface {
	CreateWorkflow(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error)
	FetchWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error)
	UpdateWorkflow(ctx context.Context, workflowID string, workflow *models.Workflow) (*models.Workflow, error)
}

type Remote interface {
	SequenceRemote
	WorkflowRemote
}
