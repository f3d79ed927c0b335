package models

import "slices"

// NodeType tags the kind of a workflow node. Parameters are shaped by the type.
type NodeType string

const (
	NodeTypeTrigger        NodeType = "trigger"
	NodeTypeInput          NodeType = "input"
	NodeTypeAction         NodeType = "action"
	NodeTypeCondition      NodeType = "condition"
	NodeTypeDelay          NodeType = "delay"
	NodeTypeDataEnrichment NodeType = "dataEnrichment"
	NodeTypeEnd            NodeType = "end"
)

// NodeTypes lists every node type in palette order.
var NodeTypes = []NodeType{
	NodeTypeTrigger,
	NodeTypeInput,
	NodeTypeAction,
	NodeTypeCondition,
	NodeTypeDelay,
	NodeTypeDataEnrichment,
	NodeTypeEnd,
}

// IsValid reports whether the node type is known.
func (t NodeType) IsValid() bool {
	return slices.Contains(NodeTypes, t)
}

// IsReserved reports whether the type exists exactly once per graph and is seeded at construction.
func (t NodeType) IsReserved() bool {
	return t == NodeTypeTrigger || t == NodeTypeEnd
}

// DefaultEdgeType is the routing hint used for new edges.
const DefaultEdgeType = "smoothstep"

// Position is the canvas location of a node. Presentation only.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData carries the label and type-specific parameters of a node.
type NodeData struct {
	Label      string         `json:"label"`
	Parameters map[string]any `json:"parameters"`
}

// Node is a typed unit of a workflow.
type Node struct {
	ID       string   `json:"id"       validate:"required"`
	Type     NodeType `json:"type"     validate:"required,oneof=trigger input action condition delay dataEnrichment end"`
	Data     NodeData `json:"data"`
	Position Position `json:"position"`
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	c := *n
	c.Data.Parameters = cloneMap(n.Data.Parameters)

	return &c
}

// Edge connects two nodes. Multiple edges between the same pair are allowed.
type Edge struct {
	ID     string `json:"id"     validate:"required"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
	Type   string `json:"type"`
}

// Clone returns a copy of the edge.
func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}

	c := *e

	return &c
}

// CloneParameters deep-copies a node parameter map.
func CloneParameters(params map[string]any) map[string]any {
	return cloneMap(params)
}
