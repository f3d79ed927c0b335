// Package models defines the core domain models for campaign outreach automation.
package models

import (
	"slices"
	"time"
)

// StepType identifies the outreach channel of a sequence step.
type StepType string

const (
	StepTypeAutomaticEmail  StepType = "automatic_email"
	StepTypeManualEmail     StepType = "manual_email"
	StepTypePhoneCall       StepType = "phone_call"
	StepTypeLinkedInRequest StepType = "linkedin_request"
	StepTypeActionItem      StepType = "action_item"
)

// MaxVariations caps A/B content variants per step.
const MaxVariations = 2

// StepTypes lists every supported step type in dialog order.
var StepTypes = []StepType{
	StepTypeAutomaticEmail,
	StepTypeManualEmail,
	StepTypePhoneCall,
	StepTypeLinkedInRequest,
	StepTypeActionItem,
}

// IsValid reports whether the step type is known.
func (t StepType) IsValid() bool {
	return slices.Contains(StepTypes, t)
}

// IsEmail reports whether steps of this type carry subject/body variations.
func (t StepType) IsEmail() bool {
	return t == StepTypeAutomaticEmail || t == StepTypeManualEmail
}

// RequiresApproval reports whether steps of this type are gated on manual approval.
func (t StepType) RequiresApproval() bool {
	return t == StepTypeManualEmail
}

// Sequence is the ordered list of outreach steps for one campaign.
type Sequence struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaignId"          validate:"required"`
	Name        string    `json:"name"                validate:"required"`
	Description string    `json:"description"`
	Steps       []*Step   `json:"steps"               validate:"dive,required"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// Step is a single scheduled outreach action.
type Step struct {
	ID           string     `json:"id"                     validate:"required"`
	Type         StepType   `json:"type"                   validate:"required,oneof=automatic_email manual_email phone_call linkedin_request action_item"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	DeliveryTime *time.Time `json:"deliveryTime,omitempty"` // nil means "immediately"
	Approved     bool       `json:"approved"`
	Variations   []*Variant `json:"variations"             validate:"max=2,dive,required"`
}

// Variant is one subject/body candidate of an A/B test.
type Variant struct {
	ID      string `json:"id" validate:"required"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Clone returns a deep copy of the variant.
func (v *Variant) Clone() *Variant {
	if v == nil {
		return nil
	}

	c := *v

	return &c
}

// Clone returns a deep copy of the step. Variations are copied, never shared.
func (s *Step) Clone() *Step {
	if s == nil {
		return nil
	}

	c := *s

	if s.DeliveryTime != nil {
		t := *s.DeliveryTime
		c.DeliveryTime = &t
	}

	c.Variations = make([]*Variant, 0, len(s.Variations))
	for _, v := range s.Variations {
		c.Variations = append(c.Variations, v.Clone())
	}

	return &c
}

// IsImmediate reports whether the step has no scheduled delivery time.
func (s *Step) IsImmediate() bool {
	return s.DeliveryTime == nil
}

// Clone returns a deep copy of the sequence.
func (s *Sequence) Clone() *Sequence {
	if s == nil {
		return nil
	}

	c := *s

	c.Steps = make([]*Step, 0, len(s.Steps))
	for _, step := range s.Steps {
		c.Steps = append(c.Steps, step.Clone())
	}

	return &c
}

// Compact drops nil steps and nil variations in place.
func (s *Sequence) Compact() {
	s.Steps = slices.DeleteFunc(s.Steps, func(step *Step) bool { return step == nil })
	for _, step := range s.Steps {
		step.Variations = slices.DeleteFunc(step.Variations, func(v *Variant) bool { return v == nil })
	}
}

// StepIDs returns step ids in delivery order.
func (s *Sequence) StepIDs() []string {
	ids := make([]string, 0, len(s.Steps))
	for _, step := range s.Steps {
		ids = append(ids, step.ID)
	}

	return ids
}

// cloneValue deep-copies JSON-like values (maps, slices, scalars).
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}

		return out
	case []string:
		return slices.Clone(val)
	default:
		return val
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}

	return out
}
