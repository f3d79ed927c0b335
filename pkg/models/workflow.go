package models

import (
	"slices"
	"time"
)

// Workflow is a directed graph of typed nodes expressing lead automation.
type Workflow struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaignId,omitempty"`
	Name        string    `json:"name"                 validate:"required"`
	Description string    `json:"description"`
	Nodes       []*Node   `json:"nodes"                validate:"dive,required"`
	Edges       []*Edge   `json:"edges"                validate:"dive,required"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// Clone returns a deep copy of the workflow including node parameters.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}

	c := *w

	c.Nodes = make([]*Node, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		c.Nodes = append(c.Nodes, n.Clone())
	}

	c.Edges = make([]*Edge, 0, len(w.Edges))
	for _, e := range w.Edges {
		c.Edges = append(c.Edges, e.Clone())
	}

	return &c
}

// Compact drops nil nodes and nil edges in place.
func (w *Workflow) Compact() {
	w.Nodes = slices.DeleteFunc(w.Nodes, func(n *Node) bool { return n == nil })
	w.Edges = slices.DeleteFunc(w.Edges, func(e *Edge) bool { return e == nil })
}

// Node returns the node with the given id, or nil.
func (w *Workflow) Node(id string) *Node {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n
		}
	}

	return nil
}

// NodesOfType returns every node with the given type.
func (w *Workflow) NodesOfType(nodeType NodeType) []*Node {
	var nodes []*Node

	for _, n := range w.Nodes {
		if n.Type == nodeType {
			nodes = append(nodes, n)
		}
	}

	return nodes
}
