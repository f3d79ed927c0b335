package models

// FieldKind is the input kind of a parameter field.
type FieldKind string

const (
	FieldKindSingleSelect FieldKind = "single_select"
	FieldKindMultiSelect  FieldKind = "multi_select"
	FieldKindText         FieldKind = "text"
	FieldKindNumber       FieldKind = "number"
	FieldKindDateTime     FieldKind = "datetime"
)

// Option is one entry of a static option list.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Condition makes a field applicable only when another field holds a given value.
type Condition struct {
	Field  string `json:"field"`
	Equals string `json:"equals"`
}

// Field describes one editable parameter of a node or step type.
type Field struct {
	Key         string     `json:"key"`
	Label       string     `json:"label"`
	Kind        FieldKind  `json:"kind"`
	Description string     `json:"description,omitempty"`
	Options     []Option   `json:"options,omitempty"`
	Min         *float64   `json:"min,omitempty"`
	Unit        string     `json:"unit,omitempty"`
	When        *Condition `json:"when,omitempty"`
}

// OptionValues returns the raw values of the field options.
func (f Field) OptionValues() []string {
	values := make([]string, 0, len(f.Options))
	for _, o := range f.Options {
		values = append(values, o.Value)
	}

	return values
}

// JSONSchema represents a JSON Schema for parameter validation.
type JSONSchema struct {
	Type                 string               `json:"type"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	Required             []string             `json:"required,omitempty"`
	Title                string               `json:"title,omitempty"`
	Description          string               `json:"description,omitempty"`
	AdditionalProperties *bool                `json:"additionalProperties,omitempty"`
}

// Property represents a JSON Schema property.
type Property struct {
	Type        string    `json:"type"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Enum        []any     `json:"enum,omitempty"`
	Default     any       `json:"default,omitempty"`
	Format      string    `json:"format,omitempty"`
	Minimum     *float64  `json:"minimum,omitempty"`
	Items       *Property `json:"items,omitempty"`
	UniqueItems bool      `json:"uniqueItems,omitempty"`
}

// RegisteredComponent describes a node or step type exposed by the registry.
type RegisteredComponent struct {
	Type        string      `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Editable    bool        `json:"editable"`
	Fields      []Field     `json:"fields"`
	Schema      *JSONSchema `json:"schema"`
}
