package web

import "github.com/dukex/cadence/pkg/models"

// CreateSequenceRequest is the body of POST /campaigns/:campaignId/sequences.
// The campaign comes from the path.
type CreateSequenceRequest struct {
	Name        string `json:"name"        validate:"required"`
	Description string `json:"description"`
}

// UpdateSequenceRequest is the full document sent by PUT on a sequence.
type UpdateSequenceRequest struct {
	Name        string         `json:"name"        validate:"required"`
	Description string         `json:"description"`
	Steps       []*models.Step `json:"steps"       validate:"dive,required"`
}

func (r UpdateSequenceRequest) toModel() *models.Sequence {
	return &models.Sequence{
		Name:        r.Name,
		Description: r.Description,
		Steps:       r.Steps,
	}
}

// WorkflowRequest is the body of POST /workflows and PUT /workflows/:id.
type WorkflowRequest struct {
	CampaignID  string         `json:"campaignId,omitempty"`
	Name        string         `json:"name"                 validate:"required"`
	Description string         `json:"description"`
	Nodes       []*models.Node `json:"nodes"                validate:"dive,required"`
	Edges       []*models.Edge `json:"edges"                validate:"dive,required"`
}

func (r WorkflowRequest) toModel() *models.Workflow {
	return &models.Workflow{
		CampaignID:  r.CampaignID,
		Name:        r.Name,
		Description: r.Description,
		Nodes:       r.Nodes,
		Edges:       r.Edges,
	}
}
