// internal/models/form.go
package models

import (
	"fmt"
	"sort"

	"field-validation/internal/engine/rule"

	"github.com/go-playground/validator/v10"
)

// Field is one input of a form.
type Field struct {
	ID    string `json:"id" yaml:"id" validate:"required,max=128"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// FormDefinition is a form with its fields and validation rules, as loaded
// from a rule source.
type FormDefinition struct {
	ID     string      `json:"id" yaml:"id" validate:"required,max=128"`
	Name   string      `json:"name,omitempty" yaml:"name,omitempty"`
	Fields []Field     `json:"fields" yaml:"fields" validate:"dive"`
	Rules  []rule.Rule `json:"rules" yaml:"rules"`
}

// FieldIDs returns the sorted ids of the form's fields.
func (f *FormDefinition) FieldIDs() []string {
	ids := make([]string, len(f.Fields))
	for i, fld := range f.Fields {
		ids[i] = fld.ID
	}
	sort.Strings(ids)
	return ids
}

// HasField reports whether id is one of the form's fields.
func (f *FormDefinition) HasField(id string) bool {
	for _, fld := range f.Fields {
		if fld.ID == id {
			return true
		}
	}
	return false
}

// ruleShape is the minimal shape every stored rule must have before the
// engine accepts it. Semantic problems are left to the health checker.
type ruleShape struct {
	ID             int64  `validate:"gt=0"`
	TargetFieldID  string `validate:"required,max=128"`
	ValidationType string `validate:"required,max=64"`
}

var shapeValidator = validator.New()

// ValidateShape checks the structural shape of the form and its rules.
func ValidateShape(f *FormDefinition) error {
	if err := shapeValidator.Struct(f); err != nil {
		return fmt.Errorf("form %q: %w", f.ID, err)
	}
	for _, r := range f.Rules {
		s := ruleShape{ID: r.ID, TargetFieldID: r.TargetFieldID, ValidationType: r.ValidationType}
		if err := shapeValidator.Struct(s); err != nil {
			return fmt.Errorf("form %q rule %d: %w", f.ID, r.ID, err)
		}
	}
	return nil
}
