package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dukex/cadence/pkg/events"
	"github.com/dukex/cadence/pkg/models"
	"github.com/dukex/cadence/pkg/otelhelper"
	"github.com/dukex/cadence/pkg/persistence"
	"github.com/dukex/cadence/pkg/registry"
	"go.opentelemetry.io/otel/attribute"
)

// Workflow serves workflow graphs.
type Workflow struct {
	base

	registry *registry.Registry
}

// NewWorkflow creates a new workflow service. Node parameters are checked
// against reg before anything is stored.
func NewWorkflow(p persistence.Persistence, reg *registry.Registry, opts ...Option) *Workflow {
	return &Workflow{
		base:     newBase(p, "workflow_service", opts),
		registry: reg,
	}
}

// Workflows lists every stored workflow, newest first.
func (w *Workflow) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchWorkflow returns a workflow by id.
func (w *Workflow) FetchWorkflow(ctx context.Context, workflowID string) (workflow *models.Workflow, err error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.fetch_workflow",
		attribute.String(otelhelper.WorkflowIDKey, workflowID))
	defer func() { otelhelper.End(span, err) }()

	workflow, err = w.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow: %w", err)
	}

	if workflow == nil {
		return nil, persistence.NewWorkflowError("fetch_workflow", workflowID, ErrWorkflowNotFound)
	}

	return workflow, nil
}

// CreateWorkflow stores a new workflow under a server-assigned id.
func (w *Workflow) CreateWorkflow(ctx context.Context, workflow *models.Workflow) (created *models.Workflow, err error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.create_workflow",
		attribute.String(otelhelper.CampaignIDKey, workflow.CampaignID),
		attribute.String(otelhelper.SessionIDKey, SessionFrom(ctx)))
	defer func() { otelhelper.End(span, err) }()

	created = workflow.Clone()
	created.ID = ""
	created.CreatedAt = time.Time{}
	created.UpdatedAt = time.Time{}

	err = w.validateWorkflow(created)
	if err != nil {
		return nil, err
	}

	err = w.persistence.SaveWorkflow(ctx, created)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "workflow created", "workflow_id", created.ID, "nodes", len(created.Nodes))
	w.announce(ctx, created.CampaignID, events.ResourceWorkflow, created.ID)

	return created, nil
}

// UpdateWorkflow replaces the stored graph wholesale.
func (w *Workflow) UpdateWorkflow(
	ctx context.Context, workflowID string, workflow *models.Workflow,
) (updated *models.Workflow, err error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.update_workflow",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.SessionIDKey, SessionFrom(ctx)))
	defer func() { otelhelper.End(span, err) }()

	existing, err := w.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow: %w", err)
	}

	if existing == nil {
		return nil, persistence.NewWorkflowError("update_workflow", workflowID, ErrWorkflowNotFound)
	}

	updated = workflow.Clone()
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	if updated.CampaignID == "" {
		updated.CampaignID = existing.CampaignID
	}

	err = w.validateWorkflow(updated)
	if err != nil {
		return nil, err
	}

	err = w.persistence.SaveWorkflow(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	w.announce(ctx, updated.CampaignID, events.ResourceWorkflow, updated.ID)

	return updated, nil
}

// DeleteWorkflow removes a workflow.
func (w *Workflow) DeleteWorkflow(ctx context.Context, workflowID string) error {
	existing, err := w.FetchWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}

	err = w.persistence.DeleteWorkflow(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	w.announce(ctx, existing.CampaignID, events.ResourceWorkflow, workflowID)

	return nil
}

// validateWorkflow checks structure and node parameters. Edges are not
// checked against the node set: a graph may carry edges whose endpoint was
// removed, and cycles are allowed.
func (w *Workflow) validateWorkflow(workflow *models.Workflow) error {
	if workflow.Nodes == nil {
		workflow.Nodes = []*models.Node{}
	}

	if workflow.Edges == nil {
		workflow.Edges = []*models.Edge{}
	}

	err := w.validate.Struct(workflow)
	if err != nil {
		return fmt.Errorf("invalid workflow: %w", err)
	}

	nodeIDs := make(map[string]struct{}, len(workflow.Nodes))
	for _, node := range workflow.Nodes {
		if _, ok := nodeIDs[node.ID]; ok {
			return NewValidationError("validate_workflow", "DUPLICATE_NODE", "duplicate node id "+node.ID, ErrDuplicateNodeID)
		}

		nodeIDs[node.ID] = struct{}{}
	}

	edgeIDs := make(map[string]struct{}, len(workflow.Edges))
	for _, edge := range workflow.Edges {
		if _, ok := edgeIDs[edge.ID]; ok {
			return NewValidationError("validate_workflow", "DUPLICATE_EDGE", "duplicate edge id "+edge.ID, ErrDuplicateEdgeID)
		}

		edgeIDs[edge.ID] = struct{}{}
	}

	if w.registry != nil {
		err = w.registry.ValidateWorkflow(workflow)
		if err != nil {
			return fmt.Errorf("invalid workflow: %w", err)
		}
	}

	return nil
}
