// Package graph implements the in-memory model of a lead automation workflow graph.
package graph

import (
	"math/rand/v2"
	"slices"

	"github.com/dukex/cadence/pkg/models"
)

// Reserved node ids seeded at construction.
const (
	TriggerNodeID = "trigger"
	EndNodeID     = "end"
)

// Graph holds one workflow and applies editor commands to it.
// Commands are synchronous; callers serialize access.
type Graph struct {
	wf       *models.Workflow
	ids      IDGenerator
	cascade  bool
	position func() models.Position
	onChange func()
}

// Option configures a Graph.
type Option func(*Graph)

// WithIDGenerator overrides the node and edge id source.
func WithIDGenerator(ids IDGenerator) Option {
	return func(g *Graph) {
		g.ids = ids
	}
}

// WithCascadeEdges makes RemoveNode also remove incident edges.
func WithCascadeEdges() Option {
	return func(g *Graph) {
		g.cascade = true
	}
}

// WithPositioner overrides how default positions of new nodes are picked.
func WithPositioner(fn func() models.Position) Option {
	return func(g *Graph) {
		g.position = fn
	}
}

// WithOnChange registers the callback invoked after every mutation.
func WithOnChange(fn func()) Option {
	return func(g *Graph) {
		g.onChange = fn
	}
}

// New creates a graph seeded with exactly one trigger and one end node.
func New(name string, opts ...Option) *Graph {
	g := newGraph(opts)

	g.wf = &models.Workflow{
		Name: name,
		Nodes: []*models.Node{
			{
				ID:       TriggerNodeID,
				Type:     models.NodeTypeTrigger,
				Data:     models.NodeData{Label: "Trigger", Parameters: map[string]any{}},
				Position: models.Position{X: 250, Y: 0},
			},
			{
				ID:       EndNodeID,
				Type:     models.NodeTypeEnd,
				Data:     models.NodeData{Label: "End", Parameters: map[string]any{}},
				Position: models.Position{X: 250, Y: 500},
			},
		},
		Edges: []*models.Edge{},
	}

	return g
}

// Load creates a graph owning a deep copy of an existing workflow.
func Load(wf *models.Workflow, opts ...Option) *Graph {
	g := newGraph(opts)
	g.Replace(wf)

	return g
}

func newGraph(opts []Option) *Graph {
	g := &Graph{
		ids:      NewSequentialIDs(),
		position: randomPosition,
		onChange: func() {},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func randomPosition() models.Position {
	return models.Position{
		X: float64(rand.IntN(500)),
		Y: float64(50 + rand.IntN(400)),
	}
}

// Snapshot returns a deep copy of the workflow.
func (g *Graph) Snapshot() *models.Workflow {
	return g.wf.Clone()
}

// Replace swaps the whole workflow for a deep copy of wf. It does not trigger a write.
func (g *Graph) Replace(wf *models.Workflow) {
	if wf == nil {
		wf = &models.Workflow{}
	}

	g.wf = wf.Clone()
	g.wf.Compact()

	for _, n := range g.wf.Nodes {
		g.ids.Observe(n.ID)
	}

	for _, e := range g.wf.Edges {
		g.ids.Observe(e.ID)
	}
}

// ID returns the workflow id, empty until the workflow is first created remotely.
func (g *Graph) ID() string {
	return g.wf.ID
}

// SetID records the id assigned by the remote store.
func (g *Graph) SetID(id string) {
	g.wf.ID = id
}

// Nodes returns deep copies of every node.
func (g *Graph) Nodes() []*models.Node {
	return g.Snapshot().Nodes
}

// Edges returns copies of every edge.
func (g *Graph) Edges() []*models.Edge {
	return g.Snapshot().Edges
}

// Node returns a deep copy of a node.
func (g *Graph) Node(nodeID string) (*models.Node, error) {
	n := g.wf.Node(nodeID)
	if n == nil {
		return nil, &Error{Op: "Node", ID: nodeID, Err: ErrNodeNotFound}
	}

	return n.Clone(), nil
}

// AddNode creates a node of the given type with empty parameters at a default position.
func (g *Graph) AddNode(nodeType models.NodeType) (*models.Node, error) {
	if !nodeType.IsValid() {
		return nil, &Error{Op: "AddNode", Err: ErrUnknownNodeType}
	}

	if nodeType.IsReserved() {
		return nil, &Error{Op: "AddNode", Err: ErrReservedNodeType}
	}

	node := &models.Node{
		ID:       g.ids.NodeID(),
		Type:     nodeType,
		Data:     models.NodeData{Label: defaultLabel(nodeType), Parameters: map[string]any{}},
		Position: g.position(),
	}

	g.wf.Nodes = append(g.wf.Nodes, node)
	g.onChange()

	return node.Clone(), nil
}

// ConnectNodes appends an edge. Cycles, self-loops, duplicate edges and
// unknown endpoints are all accepted as-is.
func (g *Graph) ConnectNodes(sourceID, targetID string) *models.Edge {
	edge := &models.Edge{
		ID:     g.ids.EdgeID(),
		Source: sourceID,
		Target: targetID,
		Type:   models.DefaultEdgeType,
	}

	g.wf.Edges = append(g.wf.Edges, edge)
	g.onChange()

	c := *edge

	return &c
}

// UpdateNodeParameters merges partial into the node parameters.
func (g *Graph) UpdateNodeParameters(nodeID string, partial map[string]any) error {
	n := g.wf.Node(nodeID)
	if n == nil {
		return &Error{Op: "UpdateNodeParameters", ID: nodeID, Err: ErrNodeNotFound}
	}

	if n.Data.Parameters == nil {
		n.Data.Parameters = make(map[string]any, len(partial))
	}

	for k, v := range models.CloneParameters(partial) {
		n.Data.Parameters[k] = v
	}

	g.onChange()

	return nil
}

// SetLabel renames a node.
func (g *Graph) SetLabel(nodeID, label string) error {
	n := g.wf.Node(nodeID)
	if n == nil {
		return &Error{Op: "SetLabel", ID: nodeID, Err: ErrNodeNotFound}
	}

	n.Data.Label = label
	g.onChange()

	return nil
}

// MoveNode updates the canvas position of a node.
func (g *Graph) MoveNode(nodeID string, pos models.Position) error {
	n := g.wf.Node(nodeID)
	if n == nil {
		return &Error{Op: "MoveNode", ID: nodeID, Err: ErrNodeNotFound}
	}

	n.Position = pos
	g.onChange()

	return nil
}

// RemoveNode deletes a node. Incident edges are kept unless the graph was
// built WithCascadeEdges; use DanglingEdges to find them. The trigger and
// end nodes cannot be removed.
func (g *Graph) RemoveNode(nodeID string) error {
	idx := slices.IndexFunc(g.wf.Nodes, func(n *models.Node) bool { return n.ID == nodeID })
	if idx < 0 {
		return &Error{Op: "RemoveNode", ID: nodeID, Err: ErrNodeNotFound}
	}

	if g.wf.Nodes[idx].Type.IsReserved() {
		return &Error{Op: "RemoveNode", ID: nodeID, Err: ErrReservedNodeType}
	}

	g.wf.Nodes = slices.Delete(g.wf.Nodes, idx, idx+1)

	if g.cascade {
		g.wf.Edges = slices.DeleteFunc(g.wf.Edges, func(e *models.Edge) bool {
			return e.Source == nodeID || e.Target == nodeID
		})
	}

	g.onChange()

	return nil
}

// RemoveEdge deletes an edge.
func (g *Graph) RemoveEdge(edgeID string) error {
	idx := slices.IndexFunc(g.wf.Edges, func(e *models.Edge) bool { return e.ID == edgeID })
	if idx < 0 {
		return &Error{Op: "RemoveEdge", ID: edgeID, Err: ErrEdgeNotFound}
	}

	g.wf.Edges = slices.Delete(g.wf.Edges, idx, idx+1)
	g.onChange()

	return nil
}

// DanglingEdges returns edges referencing a node that no longer exists.
func (g *Graph) DanglingEdges() []*models.Edge {
	var dangling []*models.Edge

	for _, e := range g.wf.Edges {
		if g.wf.Node(e.Source) == nil || g.wf.Node(e.Target) == nil {
			c := *e
			dangling = append(dangling, &c)
		}
	}

	return dangling
}

func defaultLabel(nodeType models.NodeType) string {
	switch nodeType {
	case models.NodeTypeInput:
		return "Input"
	case models.NodeTypeAction:
		return "Action"
	case models.NodeTypeCondition:
		return "Condition"
	case models.NodeTypeDelay:
		return "Delay"
	case models.NodeTypeDataEnrichment:
		return "Data Enrichment"
	default:
		return string(nodeType)
	}
}
