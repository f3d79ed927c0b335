package editor_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/cadence/pkg/adapter"
	"github.com/dukex/cadence/pkg/models"
)

// memoryRemote is an in-memory remote store.
type memoryRemote struct {
	mu        sync.Mutex
	sequences map[string]*models.Sequence
	workflows map[string]*models.Workflow
	approvals []string
	writes    int
	seq       int
}

func newMemoryRemote() *memoryRemote {
	return &memoryRemote{
		sequences: map[string]*models.Sequence{},
		workflows: map[string]*models.Workflow{},
	}
}

func (r *memoryRemote) FetchSequences(_ context.Context, campaignID string) ([]*models.Sequence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Sequence

	for _, s := range r.sequences {
		if s.CampaignID == campaignID {
			out = append(out, s.Clone())
		}
	}

	return out, nil
}

func (r *memoryRemote) CreateSequence(_ context.Context, sequence *models.Sequence) (*models.Sequence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	created := sequence.Clone()
	created.ID = fmt.Sprintf("seq-%d", r.seq)
	r.sequences[created.ID] = created

	return created.Clone(), nil
}

func (r *memoryRemote) UpdateSequence(_ context.Context, _, sequenceID string, sequence *models.Sequence) (*models.Sequence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writes++
	r.sequences[sequenceID] = sequence.Clone()

	return sequence.Clone(), nil
}

func (r *memoryRemote) ApproveEmail(_ context.Context, _, sequenceID, stepID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.approvals = append(r.approvals, sequenceID+"/"+stepID)

	return nil
}

func (r *memoryRemote) CreateWorkflow(_ context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	created := workflow.Clone()
	created.ID = fmt.Sprintf("wf-%d", r.seq)
	r.workflows[created.ID] = created

	return created.Clone(), nil
}

func (r *memoryRemote) FetchWorkflow(_ context.Context, workflowID string) (*models.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wf, ok := r.workflows[workflowID]
	if !ok {
		return nil, fmt.Errorf("workflow %s not found", workflowID)
	}

	return wf.Clone(), nil
}

func (r *memoryRemote) UpdateWorkflow(_ context.Context, workflowID string, workflow *models.Workflow) (*models.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writes++
	updated := workflow.Clone()
	updated.ID = workflowID
	r.workflows[workflowID] = updated

	return updated.Clone(), nil
}

// put replaces a stored document as another session would.
func (r *memoryRemote) putSequence(s *models.Sequence) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sequences[s.ID] = s.Clone()
}

func (r *memoryRemote) putWorkflow(wf *models.Workflow) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.workflows[wf.ID] = wf.Clone()
}

func (r *memoryRemote) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.writes
}

func (r *memoryRemote) storedSequence(id string) *models.Sequence {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sequences[id].Clone()
}

var _ adapter.Remote = (*memoryRemote)(nil)

func testOptions(extra ...adapter.Option) []adapter.Option {
	return append([]adapter.Option{
		adapter.WithRetryPolicy(adapter.RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}),
		adapter.WithLogger(slog.New(slog.DiscardHandler)),
	}, extra...)
}
