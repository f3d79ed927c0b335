package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignInvalidated_GetType(t *testing.T) {
	event := CampaignInvalidated{}
	assert.Equal(t, CampaignInvalidatedEvent, event.GetType())
}

func TestCampaignInvalidated_JSON(t *testing.T) {
	original := NewCampaignInvalidated("camp-1", ResourceSequence, "seq-9", "session-a")

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"campaign.invalidated"`)
	assert.Contains(t, string(data), `"campaignId":"camp-1"`)
	assert.Contains(t, string(data), `"resource":"sequence"`)
	assert.Contains(t, string(data), `"origin":"session-a"`)

	var decoded CampaignInvalidated
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, "seq-9", decoded.ResourceID)
	assert.Equal(t, "session-a", decoded.Origin)
}

func TestNewBaseEvent(t *testing.T) {
	a := NewBaseEvent(StepDueEvent, "camp-1")
	b := NewBaseEvent(StepDueEvent, "camp-1")

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, StepDueEvent, a.Type)
	assert.False(t, a.Timestamp.IsZero())
}

func TestStepDue_OmitsImmediateDeliveryTime(t *testing.T) {
	event := StepDue{BaseEvent: NewBaseEvent(StepDueEvent, "camp-1"), StepID: "s1"}

	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "deliveryTime")
	assert.Equal(t, StepDueEvent, event.GetType())
}
