package registry

import "github.com/dukex/cadence/pkg/models"

const (
	ActionSendEmail   = "send_email"
	ActionExportLeads = "export_leads"
	ActionRunCampaign = "run_campaign"
)

// RegisterDefaultNodes registers all built-in node types with the registry.
func (r *Registry) RegisterDefaultNodes() {
	r.RegisterNode(models.NodeTypeTrigger, "Trigger",
		"Entry point of the workflow. Seeded once per graph.")

	r.RegisterNode(models.NodeTypeInput, "Lead Input",
		"Selects the leads entering the workflow.",
		selectField("industry", "Industry",
			opt("technology", "Technology"),
			opt("healthcare", "Healthcare"),
			opt("finance", "Finance"),
			opt("retail", "Retail"),
			opt("manufacturing", "Manufacturing"),
			opt("education", "Education"),
		),
		selectField("location", "Location",
			opt("north_america", "North America"),
			opt("europe", "Europe"),
			opt("asia_pacific", "Asia Pacific"),
			opt("latin_america", "Latin America"),
			opt("middle_east_africa", "Middle East & Africa"),
		),
		selectField("companySize", "Company Size",
			opt("1-10", "1-10 employees"),
			opt("11-50", "11-50 employees"),
			opt("51-200", "51-200 employees"),
			opt("201-1000", "201-1000 employees"),
			opt("1000+", "1000+ employees"),
		),
	)

	r.RegisterNode(models.NodeTypeAction, "Action",
		"Performs an action on the qualified leads.",
		selectField("actionType", "Action Type",
			opt(ActionSendEmail, "Send Email"),
			opt(ActionExportLeads, "Export Leads"),
			opt(ActionRunCampaign, "Run Campaign"),
		),
		models.Field{
			Key:   "emailTemplateId",
			Label: "Email Template",
			Kind:  models.FieldKindText,
			When:  &models.Condition{Field: "actionType", Equals: ActionSendEmail},
		},
	)

	r.RegisterNode(models.NodeTypeCondition, "Condition",
		"Branches on lead engagement.",
		selectField("conditionType", "Condition",
			opt("if_opened", "If email opened"),
			opt("if_clicked", "If link clicked"),
		),
		selectField("outcome", "Outcome",
			opt("send_followup", "Send follow-up"),
			opt("create_task", "Create task"),
		),
	)

	minDelay := 1.0
	r.RegisterNode(models.NodeTypeDelay, "Delay",
		"Waits before continuing.",
		models.Field{
			Key:   "delayDuration",
			Label: "Delay Duration",
			Kind:  models.FieldKindNumber,
			Min:   &minDelay,
			Unit:  "hours",
		},
	)

	r.RegisterNode(models.NodeTypeDataEnrichment, "Data Enrichment",
		"Enriches lead records from an external provider.",
		selectField("enrichmentSource", "Enrichment Source",
			opt("clearbit", "Clearbit"),
			opt("hunter", "Hunter"),
		),
		models.Field{
			Key:   "fieldsToEnrich",
			Label: "Fields to Enrich",
			Kind:  models.FieldKindMultiSelect,
			Options: []models.Option{
				opt("phone_number", "Phone Number"),
				opt("linkedin_profile", "LinkedIn Profile"),
				opt("email", "Email"),
			},
		},
	)

	r.RegisterNode(models.NodeTypeEnd, "End",
		"Terminal node of the workflow. Seeded once per graph.")
}

func selectField(key, label string, options ...models.Option) models.Field {
	return models.Field{
		Key:     key,
		Label:   label,
		Kind:    models.FieldKindSingleSelect,
		Options: options,
	}
}

func opt(value, label string) models.Option {
	return models.Option{Value: value, Label: label}
}
