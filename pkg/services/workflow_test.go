package services_test

import (
	"testing"

	"github.com/dukex/cadence/pkg/adapter"
	"github.com/dukex/cadence/pkg/graph"
	"github.com/dukex/cadence/pkg/models"
	"github.com/dukex/cadence/pkg/registry"
	"github.com/dukex/cadence/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ adapter.Remote = services.Local{}

func newGraphWorkflow(t *testing.T, campaignID string) *models.Workflow {
	t.Helper()

	g := graph.New("qualification")

	delay, err := g.AddNode(models.NodeTypeDelay)
	require.NoError(t, err)
	require.NoError(t, g.UpdateNodeParameters(delay.ID, map[string]any{"delayDuration": 12}))

	g.ConnectNodes(graph.TriggerNodeID, delay.ID)
	g.ConnectNodes(delay.ID, graph.EndNodeID)

	wf := g.Snapshot()
	wf.CampaignID = campaignID

	return wf
}

func TestWorkflow_CreateAndFetch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	signals := f.subscribe(t, "camp-1")

	created, err := f.workflows.CreateWorkflow(services.WithSession(t.Context(), "session-b"), newGraphWorkflow(t, "camp-1"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	sig := receive(t, signals)
	assert.Equal(t, "workflow", sig.Resource)
	assert.Equal(t, created.ID, sig.ResourceID)
	assert.Equal(t, "session-b", sig.Origin)

	got, err := f.workflows.FetchWorkflow(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Nodes, 3)
	assert.Len(t, got.Edges, 2)
	assert.Equal(t, "qualification", got.Name)

	_, err = f.workflows.FetchWorkflow(t.Context(), "missing")
	require.ErrorIs(t, err, services.ErrWorkflowNotFound)
	assert.True(t, services.IsNotFoundError(err))
}

func TestWorkflow_CreateWithoutCampaignIsSilent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	signals := f.subscribe(t, "")

	created, err := f.workflows.CreateWorkflow(t.Context(), newGraphWorkflow(t, ""))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assertSilent(t, signals)

	workflows, err := f.workflows.Workflows(t.Context())
	require.NoError(t, err)
	assert.Len(t, workflows, 1)
}

func TestWorkflow_UpdateWorkflow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	created, err := f.workflows.CreateWorkflow(t.Context(), newGraphWorkflow(t, "camp-1"))
	require.NoError(t, err)

	g := graph.Load(created)
	node, err := g.AddNode(models.NodeTypeAction)
	require.NoError(t, err)
	require.NoError(t, g.UpdateNodeParameters(node.ID, map[string]any{"actionType": "send_email", "emailTemplateId": "tpl-1"}))
	require.NoError(t, g.RemoveNode(created.NodesOfType(models.NodeTypeDelay)[0].ID))

	next := g.Snapshot()
	next.CampaignID = ""

	updated, err := f.workflows.UpdateWorkflow(t.Context(), created.ID, next)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "camp-1", updated.CampaignID, "campaign is kept when omitted")
	assert.Len(t, updated.Edges, 2, "dangling edges are stored as sent")

	_, err = f.workflows.UpdateWorkflow(t.Context(), "missing", next)
	require.ErrorIs(t, err, services.ErrWorkflowNotFound)
}

func TestWorkflow_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	tests := []struct {
		name     string
		mutate   func(*models.Workflow)
		sentinel error
	}{
		{name: "missing name", mutate: func(w *models.Workflow) { w.Name = "" }},
		{name: "unknown node type", mutate: func(w *models.Workflow) {
			w.Nodes = append(w.Nodes, &models.Node{ID: "x", Type: models.NodeType("webhook")})
		}},
		{name: "invalid parameters", mutate: func(w *models.Workflow) {
			w.NodesOfType(models.NodeTypeDelay)[0].Data.Parameters = map[string]any{"delayDuration": 0}
		}, sentinel: registry.ErrInvalidParameters},
		{name: "duplicate node ids", mutate: func(w *models.Workflow) {
			w.Nodes = append(w.Nodes, w.Nodes[0].Clone())
		}, sentinel: services.ErrDuplicateNodeID},
		{name: "duplicate edge ids", mutate: func(w *models.Workflow) {
			edge := *w.Edges[0]
			w.Edges = append(w.Edges, &edge)
		}, sentinel: services.ErrDuplicateEdgeID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := newGraphWorkflow(t, "camp-1")
			tt.mutate(wf)

			_, err := f.workflows.CreateWorkflow(t.Context(), wf)
			require.Error(t, err)
			assert.True(t, services.IsValidationError(err), err.Error())

			if tt.sentinel != nil {
				require.ErrorIs(t, err, tt.sentinel)
			}
		})
	}

	_, err := f.workflows.CreateWorkflow(t.Context(), nil)
	require.ErrorIs(t, err, services.ErrWorkflowNil)
}

func TestWorkflow_DeleteWorkflow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	created, err := f.workflows.CreateWorkflow(t.Context(), newGraphWorkflow(t, "camp-1"))
	require.NoError(t, err)

	signals := f.subscribe(t, "camp-1")

	require.NoError(t, f.workflows.DeleteWorkflow(t.Context(), created.ID))
	receive(t, signals)

	require.ErrorIs(t, f.workflows.DeleteWorkflow(t.Context(), created.ID), services.ErrWorkflowNotFound)
}
