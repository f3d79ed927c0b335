// Package delivery decides which sequence steps are due and announces them on the event bus.
package delivery

import (
	"strings"
	"sync"
	"time"

	"github.com/dukex/cadence/pkg/models"
)

// Planner selects due steps and remembers which ones were already dispatched.
// Markers live in memory, so a restart may dispatch a step again.
type Planner struct {
	mu         sync.Mutex
	dispatched map[string]struct{}
}

func NewPlanner() *Planner {
	return &Planner{dispatched: make(map[string]struct{})}
}

func dispatchKey(sequenceID, stepID string) string {
	return sequenceID + "/" + stepID
}

// Due returns the steps of seq that should go out at now, in sequence order.
// A step is due when it has no delivery time or its delivery time is not after now.
// Unapproved steps of approval-gated types are held back.
func (p *Planner) Due(seq *models.Sequence, now time.Time) []*models.Step {
	if seq == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var due []*models.Step

	for _, step := range seq.Steps {
		if step.Type.RequiresApproval() && !step.Approved {
			continue
		}

		if !step.IsImmediate() && step.DeliveryTime.After(now) {
			continue
		}

		if _, done := p.dispatched[dispatchKey(seq.ID, step.ID)]; done {
			continue
		}

		due = append(due, step)
	}

	return due
}

func (p *Planner) MarkDispatched(sequenceID, stepID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.dispatched[dispatchKey(sequenceID, stepID)] = struct{}{}
}

func (p *Planner) Dispatched(sequenceID, stepID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.dispatched[dispatchKey(sequenceID, stepID)]

	return ok
}

// Forget drops every marker of a sequence, e.g. after it was deleted.
func (p *Planner) Forget(sequenceID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prefix := sequenceID + "/"
	for key := range p.dispatched {
		if strings.HasPrefix(key, prefix) {
			delete(p.dispatched, key)
		}
	}
}
