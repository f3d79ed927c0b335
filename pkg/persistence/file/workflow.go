package file

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dukex/cadence/pkg/models"
	"github.com/google/uuid"
)

// WorkflowRepository handles workflow-related file operations.
type WorkflowRepository struct {
	docs *documents[models.Workflow]
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{docs: &documents[models.Workflow]{root: root, dir: "workflows"}}
}

// GetAll returns every stored workflow, newest first.
func (wr *WorkflowRepository) GetAll(_ context.Context) ([]*models.Workflow, error) {
	workflows, err := wr.docs.all()
	if err != nil {
		return nil, err
	}

	slices.SortFunc(workflows, func(a, b *models.Workflow) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return workflows, nil
}

// GetByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) GetByID(_ context.Context, workflowID string) (*models.Workflow, error) {
	return wr.docs.get(workflowID)
}

// Save saves a workflow to the file system, assigning an id to new workflows.
func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	return wr.docs.put(workflow.ID, workflow)
}

// Delete removes a workflow by its ID.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	return wr.docs.remove(id)
}
