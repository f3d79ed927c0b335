package services

import (
	"context"
	"fmt"

	"github.com/dukex/cadence/pkg/events"
	"github.com/dukex/cadence/pkg/models"
	"github.com/dukex/cadence/pkg/otelhelper"
	"github.com/dukex/cadence/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

// Sequence serves the outreach sequences of campaigns.
type Sequence struct {
	base
}

// NewSequence creates a new sequence service.
func NewSequence(p persistence.Persistence, opts ...Option) *Sequence {
	return &Sequence{base: newBase(p, "sequence_service", opts)}
}

// FetchSequences returns the campaign's sequences, oldest first.
func (s *Sequence) FetchSequences(ctx context.Context, campaignID string) (sequences []*models.Sequence, err error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.fetch_sequences",
		attribute.String(otelhelper.CampaignIDKey, campaignID))
	defer func() { otelhelper.End(span, err) }()

	if campaignID == "" {
		return nil, NewValidationError("fetch_sequences", "CAMPAIGN_REQUIRED", "campaign id is required", ErrInvalidRequest)
	}

	sequences, err = s.persistence.Sequences(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sequences: %w", err)
	}

	return sequences, nil
}

// CreateSequence stores a new, empty sequence. Any id or steps on the input are ignored.
func (s *Sequence) CreateSequence(ctx context.Context, sequence *models.Sequence) (created *models.Sequence, err error) {
	if sequence == nil {
		return nil, ErrSequenceNil
	}

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.create_sequence",
		attribute.String(otelhelper.CampaignIDKey, sequence.CampaignID),
		attribute.String(otelhelper.SessionIDKey, SessionFrom(ctx)))
	defer func() { otelhelper.End(span, err) }()

	created = &models.Sequence{
		CampaignID:  sequence.CampaignID,
		Name:        sequence.Name,
		Description: sequence.Description,
		Steps:       []*models.Step{},
	}

	err = s.validate.Struct(created)
	if err != nil {
		return nil, fmt.Errorf("invalid sequence: %w", err)
	}

	err = s.persistence.SaveSequence(ctx, created)
	if err != nil {
		return nil, fmt.Errorf("failed to create sequence: %w", err)
	}

	s.logger.InfoContext(ctx, "sequence created", "campaign_id", created.CampaignID, "sequence_id", created.ID)
	s.announce(ctx, created.CampaignID, events.ResourceSequence, created.ID)

	return created, nil
}

// UpdateSequence replaces the stored document wholesale. Step order is taken
// verbatim from the input.
func (s *Sequence) UpdateSequence(
	ctx context.Context, campaignID, sequenceID string, sequence *models.Sequence,
) (updated *models.Sequence, err error) {
	if sequence == nil {
		return nil, ErrSequenceNil
	}

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.update_sequence",
		attribute.String(otelhelper.CampaignIDKey, campaignID),
		attribute.String(otelhelper.SequenceIDKey, sequenceID),
		attribute.String(otelhelper.SessionIDKey, SessionFrom(ctx)))
	defer func() { otelhelper.End(span, err) }()

	existing, err := s.lookup(ctx, "update_sequence", campaignID, sequenceID)
	if err != nil {
		return nil, err
	}

	updated = sequence.Clone()
	updated.ID = existing.ID
	updated.CampaignID = existing.CampaignID
	updated.CreatedAt = existing.CreatedAt

	if updated.Steps == nil {
		updated.Steps = []*models.Step{}
	}

	err = s.validateSequence(updated)
	if err != nil {
		return nil, err
	}

	err = s.persistence.SaveSequence(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("failed to update sequence: %w", err)
	}

	s.logger.DebugContext(ctx, "sequence updated", "sequence_id", updated.ID, "steps", len(updated.Steps))
	s.announce(ctx, updated.CampaignID, events.ResourceSequence, updated.ID)

	return updated, nil
}

// ApproveEmail marks a manual email step as approved for sending.
// Approving an approved step is a no-op that still succeeds.
func (s *Sequence) ApproveEmail(ctx context.Context, campaignID, sequenceID, stepID string) (err error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.approve_email",
		attribute.String(otelhelper.CampaignIDKey, campaignID),
		attribute.String(otelhelper.SequenceIDKey, sequenceID),
		attribute.String(otelhelper.StepIDKey, stepID))
	defer func() { otelhelper.End(span, err) }()

	sequence, err := s.lookup(ctx, "approve_email", campaignID, sequenceID)
	if err != nil {
		return err
	}

	var step *models.Step

	for _, candidate := range sequence.Steps {
		if candidate.ID == stepID {
			step = candidate

			break
		}
	}

	if step == nil {
		return persistence.NewSequenceError("approve_email", campaignID, sequenceID, ErrStepNotFound)
	}

	if !step.Type.RequiresApproval() {
		return NewValidationError("approve_email", "APPROVAL_NOT_SUPPORTED",
			fmt.Sprintf("step %s of type %s cannot be approved", stepID, step.Type), ErrApprovalNotSupported)
	}

	if step.Approved {
		return nil
	}

	step.Approved = true

	err = s.persistence.SaveSequence(ctx, sequence)
	if err != nil {
		return fmt.Errorf("failed to approve step: %w", err)
	}

	s.logger.InfoContext(ctx, "email step approved", "sequence_id", sequenceID, "step_id", stepID)
	s.announce(ctx, sequence.CampaignID, events.ResourceSequence, sequence.ID)

	return nil
}

// DeleteSequence removes a sequence from its campaign.
func (s *Sequence) DeleteSequence(ctx context.Context, campaignID, sequenceID string) error {
	sequence, err := s.lookup(ctx, "delete_sequence", campaignID, sequenceID)
	if err != nil {
		return err
	}

	err = s.persistence.DeleteSequence(ctx, sequence.ID)
	if err != nil {
		return fmt.Errorf("failed to delete sequence: %w", err)
	}

	s.announce(ctx, sequence.CampaignID, events.ResourceSequence, sequence.ID)

	return nil
}

// lookup loads a sequence and checks it belongs to campaignID. A sequence of
// another campaign is reported as not found.
func (s *Sequence) lookup(ctx context.Context, op, campaignID, sequenceID string) (*models.Sequence, error) {
	sequence, err := s.persistence.SequenceByID(ctx, sequenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sequence: %w", err)
	}

	if sequence == nil {
		return nil, persistence.NewSequenceError(op, campaignID, sequenceID, ErrSequenceNotFound)
	}

	if sequence.CampaignID != campaignID {
		s.logger.WarnContext(ctx, "sequence addressed through wrong campaign",
			"sequence_id", sequenceID, "campaign_id", campaignID, "owner", sequence.CampaignID)

		return nil, persistence.NewSequenceError(op, campaignID, sequenceID,
			fmt.Errorf("%w: %w", ErrSequenceNotFound, persistence.ErrCampaignMismatch))
	}

	return sequence, nil
}

func (s *Sequence) validateSequence(sequence *models.Sequence) error {
	err := s.validate.Struct(sequence)
	if err != nil {
		return fmt.Errorf("invalid sequence: %w", err)
	}

	stepIDs := make(map[string]struct{}, len(sequence.Steps))

	for _, step := range sequence.Steps {
		if _, ok := stepIDs[step.ID]; ok {
			return NewValidationError("validate_sequence", "DUPLICATE_STEP", "duplicate step id "+step.ID, ErrDuplicateStepID)
		}

		stepIDs[step.ID] = struct{}{}

		variantIDs := make(map[string]struct{}, len(step.Variations))
		for _, variant := range step.Variations {
			if _, ok := variantIDs[variant.ID]; ok {
				return NewValidationError("validate_sequence", "DUPLICATE_VARIANT",
					fmt.Sprintf("duplicate variant id %s in step %s", variant.ID, step.ID), ErrDuplicateVariantID)
			}

			variantIDs[variant.ID] = struct{}{}
		}
	}

	return nil
}
