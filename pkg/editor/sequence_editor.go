package editor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/cadence/pkg/adapter"
	"github.com/dukex/cadence/pkg/invalidation"
	"github.com/dukex/cadence/pkg/models"
	"github.com/dukex/cadence/pkg/sequence"
)

// SequenceConfig wires a SequenceEditor to its collaborators.
type SequenceConfig struct {
	CampaignID string
	// Name and Description seed the sequence created when the campaign has none.
	Name        string
	Description string
	Remote      adapter.SequenceRemote
	// Source is optional; without it the editor never refreshes on its own.
	Source    invalidation.Source
	SessionID string
	Logger    *slog.Logger
	Options   []adapter.Option
	// NewID overrides step and variant ids, mainly for tests.
	NewID func() string
}

// AddStepInput carries the add-step dialog.
type AddStepInput struct {
	Type         models.StepType
	Title        string
	Description  string
	DeliveryTime *time.Time
}

// VariantDraft is the content of the variant dialog, staged until SaveVariant.
// Dropping a draft discards it.
type VariantDraft struct {
	StepID    string
	VariantID string // empty until a new variant is first saved
	Subject   string
	Body      string
}

// SequenceEditor edits the outreach sequence of one campaign.
type SequenceEditor struct {
	session

	cfg   SequenceConfig
	sync  *adapter.SequenceSync
	model *sequence.Model
}

func NewSequenceEditor(cfg SequenceConfig) (*SequenceEditor, error) {
	if cfg.Remote == nil {
		return nil, ErrMissingRemote
	}

	if cfg.CampaignID == "" {
		return nil, ErrMissingCampaign
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Name == "" {
		cfg.Name = "Campaign sequence"
	}

	logger := cfg.Logger.With("module", "sequence_editor", "campaign_id", cfg.CampaignID)
	opts := append([]adapter.Option{adapter.WithLogger(cfg.Logger)}, cfg.Options...)

	return &SequenceEditor{
		session: session{logger: logger},
		cfg:     cfg,
		sync:    adapter.NewSequenceSync(cfg.Remote, cfg.CampaignID, opts...),
	}, nil
}

// Open loads the campaign's sequence, creating one when none exists, and
// starts listening for remote changes.
func (e *SequenceEditor) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model != nil {
		return ErrAlreadyOpen
	}

	sequences, err := e.sync.Load(ctx)
	if err != nil {
		return fmt.Errorf("load sequence: %w", err)
	}

	var current *models.Sequence
	if len(sequences) > 0 {
		current = sequences[0]
	} else {
		current, err = e.sync.Create(ctx, e.cfg.Name, e.cfg.Description)
		if err != nil {
			return fmt.Errorf("create sequence: %w", err)
		}
	}

	opts := []sequence.Option{sequence.WithOnChange(e.scheduleWrite)}
	if e.cfg.NewID != nil {
		opts = append(opts, sequence.WithIDGenerator(e.cfg.NewID))
	}

	e.model = sequence.New(current, opts...)
	e.logger.Info("sequence opened", "sequence_id", current.ID, "steps", len(current.Steps))

	e.watch(e.cfg.Source, e.cfg.CampaignID, e.cfg.SessionID, e.Refresh, e.cfg.Options)

	return nil
}

// scheduleWrite runs inside model commands, so e.mu is already held.
func (e *SequenceEditor) scheduleWrite() {
	e.sync.ScheduleWrite(e.snapshot)
}

func (e *SequenceEditor) snapshot() *models.Sequence {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.model.Snapshot()
}

func (e *SequenceEditor) withModel(fn func(m *sequence.Model) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model == nil {
		return ErrNotOpen
	}

	return fn(e.model)
}

// Refresh discards local state and reloads the sequence from the remote store.
// Unsaved local edits are overwritten.
func (e *SequenceEditor) Refresh(ctx context.Context) error {
	sequences, err := e.sync.Load(ctx)
	if err != nil {
		return err
	}

	return e.withModel(func(m *sequence.Model) error {
		for _, s := range sequences {
			if s.ID == m.ID() {
				m.Replace(s)

				return nil
			}
		}

		if len(sequences) > 0 {
			m.Replace(sequences[0])
		}

		return nil
	})
}

func (e *SequenceEditor) Sequence() (*models.Sequence, error) {
	var out *models.Sequence

	err := e.withModel(func(m *sequence.Model) error {
		out = m.Snapshot()

		return nil
	})

	return out, err
}

func (e *SequenceEditor) Steps() []*models.Step {
	var steps []*models.Step

	_ = e.withModel(func(m *sequence.Model) error {
		steps = m.Steps()

		return nil
	})

	return steps
}

func (e *SequenceEditor) AddStep(in AddStepInput) (*models.Step, error) {
	var step *models.Step

	err := e.withModel(func(m *sequence.Model) error {
		var err error

		step, err = m.AddStep(in.Type, in.Title, in.DeliveryTime)
		if err != nil {
			return err
		}

		if in.Description != "" {
			step, err = m.UpdateStep(step.ID, sequence.StepPatch{Description: &in.Description})
		}

		return err
	})

	return step, err
}

func (e *SequenceEditor) UpdateStep(stepID string, patch sequence.StepPatch) (*models.Step, error) {
	var step *models.Step

	err := e.withModel(func(m *sequence.Model) error {
		var err error
		step, err = m.UpdateStep(stepID, patch)

		return err
	})

	return step, err
}

func (e *SequenceEditor) DeleteStep(stepID string) error {
	return e.withModel(func(m *sequence.Model) error {
		return m.DeleteStep(stepID)
	})
}

func (e *SequenceEditor) DuplicateStep(stepID string) (*models.Step, error) {
	var step *models.Step

	err := e.withModel(func(m *sequence.Model) error {
		var err error
		step, err = m.DuplicateStep(stepID)

		return err
	})

	return step, err
}

// DragEnd applies the end of a drag gesture. Dropping an item where it
// started is ignored.
func (e *SequenceEditor) DragEnd(from, to int) error {
	return e.withModel(func(m *sequence.Model) error {
		return m.ReorderStep(from, to)
	})
}

// Approve moves a manual email step from draft to approved. The approval is
// also sent to the dedicated remote endpoint; already approved steps are left alone.
func (e *SequenceEditor) Approve(ctx context.Context, stepID string) error {
	var sequenceID string

	err := e.withModel(func(m *sequence.Model) error {
		step, err := m.Step(stepID)
		if err != nil {
			return err
		}

		if !step.Type.RequiresApproval() {
			return ErrApprovalNotSupported
		}

		if step.Approved {
			return nil
		}

		sequenceID = m.ID()

		return m.SetApproval(stepID, true)
	})
	if err != nil || sequenceID == "" {
		return err
	}

	return e.sync.ApproveEmail(ctx, sequenceID, stepID)
}

// OpenVariantDialog prepares a draft. An empty variantID opens a draft for a
// new variant; the model is untouched until SaveVariant.
func (e *SequenceEditor) OpenVariantDialog(stepID, variantID string) (*VariantDraft, error) {
	var draft *VariantDraft

	err := e.withModel(func(m *sequence.Model) error {
		if variantID == "" {
			err := m.CanAddVariant(stepID)
			if err != nil {
				return err
			}

			draft = &VariantDraft{StepID: stepID}

			return nil
		}

		step, err := m.Step(stepID)
		if err != nil {
			return err
		}

		for _, v := range step.Variations {
			if v.ID == variantID {
				draft = &VariantDraft{StepID: stepID, VariantID: v.ID, Subject: v.Subject, Body: v.Body}

				return nil
			}
		}

		return &sequence.Error{Op: "OpenVariantDialog", StepID: stepID, Err: sequence.ErrVariantNotFound}
	})

	return draft, err
}

// SaveVariant commits the dialog content and schedules a write. A draft for a
// new variant gets its id on the first save.
func (e *SequenceEditor) SaveVariant(draft *VariantDraft) error {
	return e.withModel(func(m *sequence.Model) error {
		if draft.VariantID == "" {
			v, err := m.AddVariant(draft.StepID)
			if err != nil {
				return err
			}

			draft.VariantID = v.ID
		}

		return m.UpdateVariant(draft.StepID, draft.VariantID, draft.Subject, draft.Body)
	})
}

// Pending reports whether a local change is waiting for its write.
func (e *SequenceEditor) Pending() bool {
	return e.sync.Pending()
}

// Close stops listening for remote changes and flushes a pending write.
func (e *SequenceEditor) Close(ctx context.Context) {
	e.stopWatching()
	e.sync.Close(ctx)
}
