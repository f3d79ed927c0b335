package editor

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/dukex/cadence/pkg/adapter"
	"github.com/dukex/cadence/pkg/graph"
	"github.com/dukex/cadence/pkg/invalidation"
	"github.com/dukex/cadence/pkg/models"
	"github.com/dukex/cadence/pkg/registry"
)

// WorkflowConfig wires a WorkflowEditor to its collaborators.
type WorkflowConfig struct {
	// WorkflowID is empty for a new, not yet created workflow.
	WorkflowID  string
	CampaignID  string
	Name        string
	Description string
	Remote      adapter.WorkflowRemote
	Registry    *registry.Registry
	Source      invalidation.Source
	SessionID   string
	Logger      *slog.Logger
	Options     []adapter.Option
	// CascadeEdges removes incident edges together with a node.
	CascadeEdges bool
	IDs          graph.IDGenerator
}

// NodeForm is the parameter form of one node, built from the registry.
type NodeForm struct {
	NodeID string
	Type   models.NodeType
	Label  string
	Fields []models.Field
	Values map[string]any

	registry *registry.Registry
}

// Set stores a value and recomputes which fields apply, so dependent fields
// appear or disappear as the user edits.
func (f *NodeForm) Set(key string, value any) {
	f.Values[key] = value
	f.Fields = f.registry.ApplicableFields(f.Type, f.Values)
}

// WorkflowEditor edits one workflow graph on the canvas.
type WorkflowEditor struct {
	session

	cfg   WorkflowConfig
	sync  *adapter.WorkflowSync
	graph *graph.Graph
}

func NewWorkflowEditor(cfg WorkflowConfig) (*WorkflowEditor, error) {
	if cfg.Remote == nil {
		return nil, ErrMissingRemote
	}

	if cfg.Registry == nil {
		return nil, ErrMissingParameterSchema
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Name == "" {
		cfg.Name = "Lead qualification"
	}

	logger := cfg.Logger.With("module", "workflow_editor", "campaign_id", cfg.CampaignID)
	opts := append([]adapter.Option{adapter.WithLogger(cfg.Logger)}, cfg.Options...)

	e := &WorkflowEditor{
		session: session{logger: logger},
		cfg:     cfg,
		sync:    adapter.NewWorkflowSync(cfg.Remote, cfg.WorkflowID, opts...),
	}

	e.sync.OnCreated(func(id string) {
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.graph != nil {
			e.graph.SetID(id)
		}
	})

	return e, nil
}

func (e *WorkflowEditor) graphOptions() []graph.Option {
	opts := []graph.Option{graph.WithOnChange(e.scheduleWrite)}

	if e.cfg.CascadeEdges {
		opts = append(opts, graph.WithCascadeEdges())
	}

	if e.cfg.IDs != nil {
		opts = append(opts, graph.WithIDGenerator(e.cfg.IDs))
	}

	return opts
}

// Open loads the workflow, or seeds a new trigger/end graph and schedules its creation.
func (e *WorkflowEditor) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.graph != nil {
		return ErrAlreadyOpen
	}

	if e.sync.ID() == "" {
		e.graph = graph.New(e.cfg.Name, e.graphOptions()...)
		e.scheduleWrite()
		e.logger.Info("new workflow opened")
	} else {
		wf, err := e.sync.Load(ctx)
		if err != nil {
			return fmt.Errorf("load workflow: %w", err)
		}

		e.graph = graph.Load(wf, e.graphOptions()...)
		e.logger.Info("workflow opened", "workflow_id", wf.ID, "nodes", len(wf.Nodes), "edges", len(wf.Edges))
	}

	e.watch(e.cfg.Source, e.cfg.CampaignID, e.cfg.SessionID, e.Refresh, e.cfg.Options)

	return nil
}

func (e *WorkflowEditor) scheduleWrite() {
	e.sync.ScheduleWrite(e.snapshot)
}

func (e *WorkflowEditor) snapshot() *models.Workflow {
	e.mu.Lock()
	defer e.mu.Unlock()

	wf := e.graph.Snapshot()

	if wf.CampaignID == "" {
		wf.CampaignID = e.cfg.CampaignID
	}

	if wf.Description == "" {
		wf.Description = e.cfg.Description
	}

	return wf
}

func (e *WorkflowEditor) withGraph(fn func(g *graph.Graph) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.graph == nil {
		return ErrNotOpen
	}

	return fn(e.graph)
}

// Refresh replaces the graph with the remote copy. A workflow that was never
// created has nothing to reload.
func (e *WorkflowEditor) Refresh(ctx context.Context) error {
	if e.sync.ID() == "" {
		return nil
	}

	wf, err := e.sync.Load(ctx)
	if err != nil {
		return err
	}

	return e.withGraph(func(g *graph.Graph) error {
		g.Replace(wf)

		return nil
	})
}

// Graph returns a snapshot of the workflow.
func (e *WorkflowEditor) Graph() (*models.Workflow, error) {
	var wf *models.Workflow

	err := e.withGraph(func(g *graph.Graph) error {
		wf = g.Snapshot()

		return nil
	})

	return wf, err
}

func (e *WorkflowEditor) AddNode(nodeType models.NodeType) (*models.Node, error) {
	var node *models.Node

	err := e.withGraph(func(g *graph.Graph) error {
		var err error
		node, err = g.AddNode(nodeType)

		return err
	})

	return node, err
}

// Connect draws an edge. Cycles, self-loops and parallel edges are accepted.
func (e *WorkflowEditor) Connect(sourceID, targetID string) (*models.Edge, error) {
	var edge *models.Edge

	err := e.withGraph(func(g *graph.Graph) error {
		edge = g.ConnectNodes(sourceID, targetID)

		return nil
	})

	return edge, err
}

func (e *WorkflowEditor) RemoveNode(nodeID string) error {
	return e.withGraph(func(g *graph.Graph) error {
		return g.RemoveNode(nodeID)
	})
}

func (e *WorkflowEditor) RemoveEdge(edgeID string) error {
	return e.withGraph(func(g *graph.Graph) error {
		return g.RemoveEdge(edgeID)
	})
}

func (e *WorkflowEditor) MoveNode(nodeID string, position models.Position) error {
	return e.withGraph(func(g *graph.Graph) error {
		return g.MoveNode(nodeID, position)
	})
}

// OpenNodeEditor builds the parameter form of a node. Trigger and end nodes
// have no form.
func (e *WorkflowEditor) OpenNodeEditor(nodeID string) (*NodeForm, error) {
	var form *NodeForm

	err := e.withGraph(func(g *graph.Graph) error {
		node, err := g.Node(nodeID)
		if err != nil {
			return err
		}

		if !e.cfg.Registry.Editable(node.Type) {
			return fmt.Errorf("node %s (%s): %w", nodeID, node.Type, ErrNotEditable)
		}

		values := maps.Clone(node.Data.Parameters)
		if values == nil {
			values = map[string]any{}
		}

		form = &NodeForm{
			NodeID:   node.ID,
			Type:     node.Type,
			Label:    node.Data.Label,
			Fields:   e.cfg.Registry.ApplicableFields(node.Type, values),
			Values:   values,
			registry: e.cfg.Registry,
		}

		return nil
	})

	return form, err
}

// SaveNodeForm validates the form against the registry and merges it into the node.
func (e *WorkflowEditor) SaveNodeForm(form *NodeForm) error {
	err := e.cfg.Registry.Validate(form.Type, form.Values)
	if err != nil {
		return err
	}

	return e.withGraph(func(g *graph.Graph) error {
		node, err := g.Node(form.NodeID)
		if err != nil {
			return err
		}

		if node.Type != form.Type {
			return ErrStaleForm
		}

		if form.Label != "" && form.Label != node.Data.Label {
			if err := g.SetLabel(form.NodeID, form.Label); err != nil {
				return err
			}
		}

		return g.UpdateNodeParameters(form.NodeID, form.Values)
	})
}

func (e *WorkflowEditor) Pending() bool {
	return e.sync.Pending()
}

func (e *WorkflowEditor) Close(ctx context.Context) {
	e.stopWatching()
	e.sync.Close(ctx)
}
