// Package events defines the messages exchanged between the campaign services and their collaborators.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every campaign event on the bus.
const Topic = "cadence.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// CampaignInvalidatedEvent is published after any accepted write to a campaign's sequences or workflows.
	CampaignInvalidatedEvent EventType = "campaign.invalidated"

	// StepDueEvent is published by the delivery scheduler when a step reaches its delivery time.
	StepDueEvent EventType = "step.due"
)

// Resource names which part of a campaign changed.
type Resource string

const (
	ResourceSequence Resource = "sequence"
	ResourceWorkflow Resource = "workflow"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	CampaignID string         `json:"campaignId"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, campaignID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		CampaignID: campaignID,
	}
}

// CampaignInvalidated tells every viewer of a campaign that cached data is stale.
// Origin is the session id of the writer, empty when unknown.
type CampaignInvalidated struct {
	BaseEvent

	Resource   Resource `json:"resource"`
	ResourceID string   `json:"resourceId"`
	Origin     string   `json:"origin,omitempty"`
}

func (c CampaignInvalidated) GetType() EventType {
	return CampaignInvalidatedEvent
}

func NewCampaignInvalidated(campaignID string, resource Resource, resourceID, origin string) *CampaignInvalidated {
	return &CampaignInvalidated{
		BaseEvent:  NewBaseEvent(CampaignInvalidatedEvent, campaignID),
		Resource:   resource,
		ResourceID: resourceID,
		Origin:     origin,
	}
}

// StepDue asks the delivery workers to perform one outreach step.
type StepDue struct {
	BaseEvent

	SequenceID   string     `json:"sequenceId"`
	StepID       string     `json:"stepId"`
	StepType     string     `json:"stepType"`
	DeliveryTime *time.Time `json:"deliveryTime,omitempty"`
}

func (s StepDue) GetType() EventType {
	return StepDueEvent
}
