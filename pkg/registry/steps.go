package registry

import "github.com/dukex/cadence/pkg/models"

// RegisterDefaultSteps registers the add-step dialog fields of every sequence step type.
func (r *Registry) RegisterDefaultSteps() {
	r.RegisterStep(models.StepTypeAutomaticEmail, "Automatic Email",
		"Email sent automatically at the delivery time.",
		emailFields()...)

	r.RegisterStep(models.StepTypeManualEmail, "Manual Email",
		"Email that must be approved before it is sent.",
		emailFields()...)

	r.RegisterStep(models.StepTypePhoneCall, "Phone Call",
		"Call task for a sales rep.",
		append(commonStepFields(), textField("callScript", "Call Script"))...)

	r.RegisterStep(models.StepTypeLinkedInRequest, "LinkedIn Request",
		"LinkedIn connection request.",
		append(commonStepFields(), textField("connectionNote", "Connection Note"))...)

	r.RegisterStep(models.StepTypeActionItem, "Action Item",
		"Generic task.",
		commonStepFields()...)
}

func commonStepFields() []models.Field {
	return []models.Field{
		textField("title", "Title"),
		textField("description", "Description"),
		{
			Key:         "deliveryTime",
			Label:       "Delivery Time",
			Kind:        models.FieldKindDateTime,
			Description: "Leave empty to deliver immediately.",
		},
	}
}

func emailFields() []models.Field {
	return append(commonStepFields(),
		textField("subject", "Subject"),
		textField("body", "Body"),
	)
}

func textField(key, label string) models.Field {
	return models.Field{Key: key, Label: label, Kind: models.FieldKindText}
}
