package adapter_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/cadence/pkg/adapter"
	"github.com/dukex/cadence/pkg/models"
)

var errUnavailable = errors.New("service unavailable")

type permanentError struct{}

func (permanentError) Error() string   { return "bad request" }
func (permanentError) Temporary() bool { return false }

// fakeRemote records every call and fails the first failures calls of each operation.
type fakeRemote struct {
	mu        sync.Mutex
	calls     map[string]int
	failures  map[string]int
	failWith  error
	updates   []*models.Sequence
	workflows []*models.Workflow
	stored    []*models.Sequence
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		calls:    map[string]int{},
		failures: map[string]int{},
		failWith: errUnavailable,
	}
}

func (f *fakeRemote) failNext(op string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures[op] = n
}

func (f *fakeRemote) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[op]++

	if f.failures[op] > 0 {
		f.failures[op]--

		return f.failWith
	}

	return nil
}

func (f *fakeRemote) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[op]
}

func (f *fakeRemote) lastUpdate() *models.Sequence {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.updates) == 0 {
		return nil
	}

	return f.updates[len(f.updates)-1]
}

func (f *fakeRemote) FetchSequences(_ context.Context, campaignID string) ([]*models.Sequence, error) {
	if err := f.record("fetch_sequences"); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*models.Sequence, 0, len(f.stored))
	for _, s := range f.stored {
		if s.CampaignID == campaignID {
			out = append(out, s.Clone())
		}
	}

	return out, nil
}

func (f *fakeRemote) CreateSequence(_ context.Context, sequence *models.Sequence) (*models.Sequence, error) {
	if err := f.record("create_sequence"); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	created := sequence.Clone()
	created.ID = "seq-created"
	f.stored = append(f.stored, created)

	return created.Clone(), nil
}

func (f *fakeRemote) UpdateSequence(_ context.Context, _, _ string, sequence *models.Sequence) (*models.Sequence, error) {
	if err := f.record("update_sequence"); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.updates = append(f.updates, sequence.Clone())

	return sequence.Clone(), nil
}

func (f *fakeRemote) ApproveEmail(context.Context, string, string, string) error {
	return f.record("approve_email")
}

func (f *fakeRemote) CreateWorkflow(_ context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if err := f.record("create_workflow"); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	created := workflow.Clone()
	created.ID = "wf-remote"
	f.workflows = append(f.workflows, created.Clone())

	return created, nil
}

func (f *fakeRemote) FetchWorkflow(_ context.Context, workflowID string) (*models.Workflow, error) {
	if err := f.record("fetch_workflow"); err != nil {
		return nil, err
	}

	return &models.Workflow{ID: workflowID, Name: "fetched"}, nil
}

func (f *fakeRemote) UpdateWorkflow(_ context.Context, workflowID string, workflow *models.Workflow) (*models.Workflow, error) {
	if err := f.record("update_workflow"); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	updated := workflow.Clone()
	updated.ID = workflowID
	f.workflows = append(f.workflows, updated.Clone())

	return updated, nil
}

var _ adapter.Remote = (*fakeRemote)(nil)

// notifications collects adapter notifications.
type notifications struct {
	mu  sync.Mutex
	got []adapter.Notification
}

func (n *notifications) Notify(notification adapter.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.got = append(n.got, notification)
}

func (n *notifications) all() []adapter.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]adapter.Notification(nil), n.got...)
}

func fastPolicy() adapter.RetryPolicy {
	return adapter.RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
