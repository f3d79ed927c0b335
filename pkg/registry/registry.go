// Package registry provides the parameter schema registry for workflow node and sequence step types.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dukex/cadence/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrUnknownType is returned when a node or step type has no registered schema.
	ErrUnknownType = errors.New("type not registered")

	// ErrInvalidParameters is returned when parameters do not satisfy the type schema.
	ErrInvalidParameters = errors.New("invalid parameters")
)

// ValidationError lists schema violations for a set of parameters.
type ValidationError struct {
	Type   string
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameters for %s: %s", e.Type, strings.Join(e.Errors, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidParameters
}

type Registry struct {
	logger *slog.Logger
	nodes  map[models.NodeType]*models.RegisteredComponent
	steps  map[models.StepType]*models.RegisteredComponent
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger: log,
		nodes:  make(map[models.NodeType]*models.RegisteredComponent),
		steps:  make(map[models.StepType]*models.RegisteredComponent),
	}
}

// NewDefaultRegistry returns a registry with every built-in node and step type registered.
func NewDefaultRegistry(log *slog.Logger) *Registry {
	r := NewRegistry(log)
	r.RegisterDefaultNodes()
	r.RegisterDefaultSteps()

	return r
}

func (r *Registry) RegisterNode(nodeType models.NodeType, name, description string, fields ...models.Field) {
	r.nodes[nodeType] = &models.RegisteredComponent{
		Type:        string(nodeType),
		Name:        name,
		Description: description,
		Editable:    len(fields) > 0,
		Fields:      fields,
		Schema:      buildSchema(name, description, fields),
	}

	r.logger.Debug("Registered node type", "type", nodeType, "fields", len(fields))
}

func (r *Registry) RegisterStep(stepType models.StepType, name, description string, fields ...models.Field) {
	r.steps[stepType] = &models.RegisteredComponent{
		Type:        string(stepType),
		Name:        name,
		Description: description,
		Editable:    true,
		Fields:      fields,
		Schema:      buildSchema(name, description, fields),
	}

	r.logger.Debug("Registered step type", "type", stepType, "fields", len(fields))
}

// Node returns the registered component for a node type.
func (r *Registry) Node(nodeType models.NodeType) (*models.RegisteredComponent, bool) {
	c, ok := r.nodes[nodeType]

	return c, ok
}

// Step returns the registered component for a step type.
func (r *Registry) Step(stepType models.StepType) (*models.RegisteredComponent, bool) {
	c, ok := r.steps[stepType]

	return c, ok
}

// Nodes returns every registered node type in palette order.
func (r *Registry) Nodes() []*models.RegisteredComponent {
	components := make([]*models.RegisteredComponent, 0, len(r.nodes))
	for _, t := range models.NodeTypes {
		if c, ok := r.nodes[t]; ok {
			components = append(components, c)
		}
	}

	return components
}

// Steps returns every registered step type in dialog order.
func (r *Registry) Steps() []*models.RegisteredComponent {
	components := make([]*models.RegisteredComponent, 0, len(r.steps))
	for _, t := range models.StepTypes {
		if c, ok := r.steps[t]; ok {
			components = append(components, c)
		}
	}

	return components
}

// Fields returns the full field list of a node type. Reserved and unknown types have none.
func (r *Registry) Fields(nodeType models.NodeType) []models.Field {
	c, ok := r.nodes[nodeType]
	if !ok {
		return nil
	}

	return slices.Clone(c.Fields)
}

// StepFields returns the field list driving the add-step dialog for a step type.
func (r *Registry) StepFields(stepType models.StepType) []models.Field {
	c, ok := r.steps[stepType]
	if !ok {
		return nil
	}

	return slices.Clone(c.Fields)
}

// Editable reports whether a node type has an editor form.
func (r *Registry) Editable(nodeType models.NodeType) bool {
	c, ok := r.nodes[nodeType]

	return ok && c.Editable
}

// ApplicableFields returns the fields whose conditions hold for the given parameters.
func (r *Registry) ApplicableFields(nodeType models.NodeType, params map[string]any) []models.Field {
	fields := r.Fields(nodeType)

	applicable := make([]models.Field, 0, len(fields))
	for _, f := range fields {
		if f.When != nil {
			v, _ := params[f.When.Field].(string)
			if v != f.When.Equals {
				continue
			}
		}

		applicable = append(applicable, f)
	}

	return applicable
}

// Schema returns the JSON Schema for a node type.
func (r *Registry) Schema(nodeType models.NodeType) (*models.JSONSchema, error) {
	c, ok := r.nodes[nodeType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, nodeType)
	}

	return c.Schema, nil
}

// Validate checks node parameters against the node type schema.
// Keys without a field definition are accepted and ignored.
func (r *Registry) Validate(nodeType models.NodeType, params map[string]any) error {
	schema, err := r.Schema(nodeType)
	if err != nil {
		return err
	}

	if params == nil {
		params = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(params)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate %s parameters: %w", nodeType, err)
	}

	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}

		return &ValidationError{Type: string(nodeType), Errors: errs}
	}

	return nil
}

// ValidateWorkflow validates the parameters of every node in a workflow.
func (r *Registry) ValidateWorkflow(workflow *models.Workflow) error {
	var errs []error

	for _, node := range workflow.Nodes {
		err := r.Validate(node.Type, node.Data.Parameters)
		if err != nil {
			errs = append(errs, fmt.Errorf("node %s: %w", node.ID, err))
		}
	}

	return errors.Join(errs...)
}

func (r *Registry) HealthCheck() (string, bool) {
	if len(r.nodes) == 0 {
		return "Registry has no node types registered", false
	}

	return fmt.Sprintf("Registry has %d node types and %d step types", len(r.nodes), len(r.steps)), true
}

func buildSchema(title, description string, fields []models.Field) *models.JSONSchema {
	schema := &models.JSONSchema{
		Type:        "object",
		Title:       title,
		Description: description,
		Properties:  make(map[string]*models.Property, len(fields)),
	}

	for _, f := range fields {
		schema.Properties[f.Key] = fieldProperty(f)
	}

	return schema
}

func fieldProperty(f models.Field) *models.Property {
	prop := &models.Property{
		Title:       f.Label,
		Description: f.Description,
	}

	switch f.Kind {
	case models.FieldKindSingleSelect:
		prop.Type = "string"
		prop.Enum = enumOf(f)
	case models.FieldKindMultiSelect:
		prop.Type = "array"
		prop.UniqueItems = true
		prop.Items = &models.Property{Type: "string", Enum: enumOf(f)}
	case models.FieldKindNumber:
		prop.Type = "number"
		prop.Minimum = f.Min
	case models.FieldKindDateTime:
		prop.Type = "string"
		prop.Format = "date-time"
	default:
		prop.Type = "string"
	}

	return prop
}

func enumOf(f models.Field) []any {
	if len(f.Options) == 0 {
		return nil
	}

	values := make([]any, 0, len(f.Options))
	for _, v := range f.OptionValues() {
		values = append(values, v)
	}

	return values
}
