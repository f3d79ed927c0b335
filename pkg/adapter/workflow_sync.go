package adapter

import (
	"context"
	"sync"

	"github.com/dukex/cadence/pkg/models"
	"github.com/dukex/cadence/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

// WorkflowSync persists one workflow graph. The first write of an unsaved
// graph creates it; later writes replace it.
type WorkflowSync struct {
	config

	remote    WorkflowRemote
	debouncer *Debouncer
	cancel    context.CancelFunc

	writeMu   sync.Mutex
	mu        sync.Mutex
	id        string
	onCreated func(id string)
}

func NewWorkflowSync(remote WorkflowRemote, workflowID string, opts ...Option) *WorkflowSync {
	cfg := newConfig(opts)
	cfg.logger = cfg.logger.With("module", "workflow_sync")

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkflowSync{
		config:    cfg,
		remote:    remote,
		debouncer: NewDebouncer(ctx, cfg.window, cfg.clock),
		cancel:    cancel,
		id:        workflowID,
	}
}

// OnCreated registers a callback receiving the id assigned by the remote store.
func (s *WorkflowSync) OnCreated(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onCreated = fn
}

func (s *WorkflowSync) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.id
}

func (s *WorkflowSync) Load(ctx context.Context) (*models.Workflow, error) {
	id := s.ID()

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "adapter.fetch_workflow",
		attribute.String(otelhelper.WorkflowIDKey, id))

	workflow, err := Retry(ctx, s.policy, s.logger, "fetch_workflow", func(ctx context.Context) (*models.Workflow, error) {
		return s.remote.FetchWorkflow(ctx, id)
	})
	otelhelper.End(span, err)

	return workflow, err
}

func (s *WorkflowSync) ScheduleWrite(snapshot func() *models.Workflow) {
	s.debouncer.Schedule(func(ctx context.Context) {
		_, _ = s.Write(ctx, snapshot())
	})
}

// Write creates or replaces the workflow. Terminal failures go to the notifier.
func (s *WorkflowSync) Write(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := s.ID()

	op := "update_workflow"
	if id == "" {
		op = "create_workflow"
	}

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "adapter."+op,
		attribute.String(otelhelper.WorkflowIDKey, id),
		attribute.String(otelhelper.CampaignIDKey, workflow.CampaignID),
		attribute.Int("cadence.workflow.nodes", len(workflow.Nodes)),
		attribute.Int("cadence.workflow.edges", len(workflow.Edges)))

	saved, err := Retry(ctx, s.policy, s.logger, op, func(ctx context.Context) (*models.Workflow, error) {
		if id == "" {
			return s.remote.CreateWorkflow(ctx, workflow)
		}

		return s.remote.UpdateWorkflow(ctx, id, workflow)
	})
	otelhelper.End(span, err)

	if err != nil {
		s.notifier.Notify(Notification{
			Level:      LevelError,
			Op:         op,
			CampaignID: workflow.CampaignID,
			Message:    "Failed to save workflow",
			Err:        err,
			At:         s.clock.Now(),
		})

		return nil, err
	}

	if id == "" && saved != nil && saved.ID != "" {
		s.mu.Lock()
		s.id = saved.ID
		onCreated := s.onCreated
		s.mu.Unlock()

		s.logger.Info("workflow created", "workflow_id", saved.ID)

		if onCreated != nil {
			onCreated(saved.ID)
		}
	}

	return saved, nil
}

func (s *WorkflowSync) Pending() bool {
	return s.debouncer.Pending()
}

func (s *WorkflowSync) Flush(ctx context.Context) bool {
	return s.debouncer.Flush(ctx)
}

func (s *WorkflowSync) Close(ctx context.Context) {
	s.debouncer.Flush(ctx)
	s.cancel()
}
