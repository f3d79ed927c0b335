package graph

import (
	"strconv"
	"strings"
	"sync"
)

// IDGenerator issues node and edge ids unique within one graph.
type IDGenerator interface {
	NodeID() string
	EdgeID() string
	// Observe tells the generator about ids loaded from elsewhere so it never reissues them.
	Observe(id string)
}

const (
	nodePrefix = "node-"
	edgePrefix = "edge-"
)

// SequentialIDs is a monotonic counter generator producing "node-N" and "edge-N".
type SequentialIDs struct {
	mu   sync.Mutex
	node int
	edge int
}

// NewSequentialIDs creates a generator starting at 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

func (g *SequentialIDs) NodeID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.node++

	return nodePrefix + strconv.Itoa(g.node)
}

func (g *SequentialIDs) EdgeID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edge++

	return edgePrefix + strconv.Itoa(g.edge)
}

func (g *SequentialIDs) Observe(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if n, ok := suffix(id, nodePrefix); ok && n > g.node {
		g.node = n
	}

	if n, ok := suffix(id, edgePrefix); ok && n > g.edge {
		g.edge = n
	}
}

func suffix(id, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok {
		return 0, false
	}

	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}

	return n, true
}
