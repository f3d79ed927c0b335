// Package sequence implements the in-memory model of a campaign outreach sequence.
package sequence

import (
	"time"

	"github.com/dukex/cadence/pkg/models"
	"github.com/google/uuid"
)

// Model holds one campaign sequence and applies editor commands to it.
// Commands are synchronous; callers serialize access.
type Model struct {
	seq      *models.Sequence
	newID    func() string
	onChange func()
}

// Option configures a Model.
type Option func(*Model)

// WithIDGenerator overrides the step and variant id source.
func WithIDGenerator(gen func() string) Option {
	return func(m *Model) {
		m.newID = gen
	}
}

// WithOnChange registers the callback invoked after every committed mutation.
func WithOnChange(fn func()) Option {
	return func(m *Model) {
		m.onChange = fn
	}
}

// New creates a model owning a deep copy of seq.
func New(seq *models.Sequence, opts ...Option) *Model {
	m := &Model{
		newID:    uuid.NewString,
		onChange: func() {},
	}

	for _, opt := range opts {
		opt(m)
	}

	m.Replace(seq)

	return m
}

// StepPatch carries the step dialog fields. Nil fields are left untouched.
type StepPatch struct {
	Title             *string
	Description       *string
	DeliveryTime      *time.Time
	ClearDeliveryTime bool
}

// Snapshot returns a deep copy of the current sequence.
func (m *Model) Snapshot() *models.Sequence {
	return m.seq.Clone()
}

// Replace swaps the whole sequence for a deep copy of seq. It does not trigger a write.
func (m *Model) Replace(seq *models.Sequence) {
	if seq == nil {
		seq = &models.Sequence{}
	}

	m.seq = seq.Clone()
	m.seq.Compact()
}

// ID returns the sequence id.
func (m *Model) ID() string {
	return m.seq.ID
}

// CampaignID returns the campaign the sequence belongs to.
func (m *Model) CampaignID() string {
	return m.seq.CampaignID
}

// Len returns the number of steps.
func (m *Model) Len() int {
	return len(m.seq.Steps)
}

// Steps returns deep copies of the steps in delivery order.
func (m *Model) Steps() []*models.Step {
	return m.Snapshot().Steps
}

// Step returns a deep copy of a step.
func (m *Model) Step(stepID string) (*models.Step, error) {
	_, step := m.find(stepID)
	if step == nil {
		return nil, newError("Step", stepID, ErrStepNotFound)
	}

	return step.Clone(), nil
}

// AddStep appends a new step. Email steps are seeded with one empty variant.
func (m *Model) AddStep(stepType models.StepType, title string, deliveryTime *time.Time) (*models.Step, error) {
	if !stepType.IsValid() {
		return nil, newError("AddStep", "", ErrInvalidStepType)
	}

	step := &models.Step{
		ID:         m.newID(),
		Type:       stepType,
		Title:      title,
		Variations: []*models.Variant{},
	}

	if deliveryTime != nil {
		t := *deliveryTime
		step.DeliveryTime = &t
	}

	if stepType.IsEmail() {
		step.Variations = append(step.Variations, &models.Variant{ID: m.newID()})
	}

	m.seq.Steps = append(m.seq.Steps, step)
	m.onChange()

	return step.Clone(), nil
}

// DeleteStep removes a step. An unknown id changes nothing and reports ErrStepNotFound.
func (m *Model) DeleteStep(stepID string) error {
	idx, _ := m.find(stepID)
	if idx < 0 {
		return newError("DeleteStep", stepID, ErrStepNotFound)
	}

	m.seq.Steps = append(m.seq.Steps[:idx], m.seq.Steps[idx+1:]...)
	m.onChange()

	return nil
}

// DuplicateStep appends a deep copy of a step under a new id. Variant ids are kept;
// they only need to be unique within their step.
func (m *Model) DuplicateStep(stepID string) (*models.Step, error) {
	_, source := m.find(stepID)
	if source == nil {
		return nil, newError("DuplicateStep", stepID, ErrStepNotFound)
	}

	dup := source.Clone()
	dup.ID = m.newID()

	m.seq.Steps = append(m.seq.Steps, dup)
	m.onChange()

	return dup.Clone(), nil
}

// ReorderStep moves the step at from to position to, shifting the steps in between.
func (m *Model) ReorderStep(from, to int) error {
	n := len(m.seq.Steps)
	if from < 0 || from >= n || to < 0 || to >= n {
		return newError("ReorderStep", "", ErrIndexOutOfRange)
	}

	if from == to {
		return nil
	}

	step := m.seq.Steps[from]
	steps := append(m.seq.Steps[:from:from], m.seq.Steps[from+1:]...)

	reordered := make([]*models.Step, 0, n)
	reordered = append(reordered, steps[:to]...)
	reordered = append(reordered, step)
	reordered = append(reordered, steps[to:]...)

	m.seq.Steps = reordered
	m.onChange()

	return nil
}

// SetApproval sets the approval flag of a step. Any direction is accepted here;
// the editor only exposes Draft to Approved.
func (m *Model) SetApproval(stepID string, approved bool) error {
	_, step := m.find(stepID)
	if step == nil {
		return newError("SetApproval", stepID, ErrStepNotFound)
	}

	step.Approved = approved
	m.onChange()

	return nil
}

// UpdateStep applies dialog edits to a step.
func (m *Model) UpdateStep(stepID string, patch StepPatch) (*models.Step, error) {
	_, step := m.find(stepID)
	if step == nil {
		return nil, newError("UpdateStep", stepID, ErrStepNotFound)
	}

	if patch.Title != nil {
		step.Title = *patch.Title
	}

	if patch.Description != nil {
		step.Description = *patch.Description
	}

	switch {
	case patch.ClearDeliveryTime:
		step.DeliveryTime = nil
	case patch.DeliveryTime != nil:
		t := *patch.DeliveryTime
		step.DeliveryTime = &t
	}

	m.onChange()

	return step.Clone(), nil
}

// CanAddVariant reports why a variant cannot be added to the step, or nil.
func (m *Model) CanAddVariant(stepID string) error {
	_, step := m.find(stepID)

	return checkVariantSlot("CanAddVariant", stepID, step)
}

// AddVariant appends an empty variant and returns a copy for editing.
// The variant is staged: no write is triggered until UpdateVariant commits its content.
func (m *Model) AddVariant(stepID string) (*models.Variant, error) {
	_, step := m.find(stepID)

	err := checkVariantSlot("AddVariant", stepID, step)
	if err != nil {
		return nil, err
	}

	variant := &models.Variant{ID: m.newID()}
	step.Variations = append(step.Variations, variant)

	return variant.Clone(), nil
}

// UpdateVariant replaces the content of a variant and commits it.
func (m *Model) UpdateVariant(stepID, variantID, subject, body string) error {
	_, step := m.find(stepID)
	if step == nil {
		return newError("UpdateVariant", stepID, ErrStepNotFound)
	}

	for _, v := range step.Variations {
		if v.ID == variantID {
			v.Subject = subject
			v.Body = body
			m.onChange()

			return nil
		}
	}

	return newError("UpdateVariant", stepID, ErrVariantNotFound)
}

func checkVariantSlot(op, stepID string, step *models.Step) error {
	switch {
	case step == nil:
		return newError(op, stepID, ErrStepNotFound)
	case !step.Type.IsEmail():
		return newError(op, stepID, ErrVariantsNotSupported)
	case len(step.Variations) >= models.MaxVariations:
		return newError(op, stepID, ErrLimitExceeded)
	}

	return nil
}

func (m *Model) find(stepID string) (int, *models.Step) {
	for i, step := range m.seq.Steps {
		if step.ID == stepID {
			return i, step
		}
	}

	return -1, nil
}
