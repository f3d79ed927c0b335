// Package file provides file-based persistence for sequences and workflows.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/dukex/cadence/pkg/models"
	"github.com/dukex/cadence/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root         string
	sequenceRepo *SequenceRepository
	workflowRepo *WorkflowRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:         cleanRoot,
		sequenceRepo: NewSequenceRepository(cleanRoot),
		workflowRepo: NewWorkflowRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Sequences(ctx context.Context, campaignID string) ([]*models.Sequence, error) {
	return fp.sequenceRepo.GetByCampaign(ctx, campaignID)
}

func (fp *Persistence) AllSequences(ctx context.Context) ([]*models.Sequence, error) {
	return fp.sequenceRepo.GetAll(ctx)
}

func (fp *Persistence) SequenceByID(ctx context.Context, id string) (*models.Sequence, error) {
	return fp.sequenceRepo.GetByID(ctx, id)
}

func (fp *Persistence) SaveSequence(ctx context.Context, sequence *models.Sequence) error {
	return fp.sequenceRepo.Save(ctx, sequence)
}

func (fp *Persistence) DeleteSequence(ctx context.Context, id string) error {
	return fp.sequenceRepo.Delete(ctx, id)
}

func (fp *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	return fp.workflowRepo.GetAll(ctx)
}

func (fp *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	return fp.workflowRepo.GetByID(ctx, id)
}

func (fp *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return fp.workflowRepo.Save(ctx, workflow)
}

func (fp *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	return fp.workflowRepo.Delete(ctx, id)
}

var _ persistence.Persistence = (*Persistence)(nil)
