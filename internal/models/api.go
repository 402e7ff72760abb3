// internal/models/api.go
package models

import "field-validation/internal/engine/rule"

// ValidateFieldRequest is the body of POST /validate-field.
type ValidateFieldRequest struct {
	FormID          string           `json:"formId" binding:"omitempty,max=128"`
	FieldID         string           `json:"fieldId" binding:"required,max=128"`
	FieldValue      rule.Value       `json:"fieldValue"`
	FormContextData rule.FormContext `json:"formContextData"`
}

// ValidateFieldResponse is the body returned by POST /validate-field.
type ValidateFieldResponse struct {
	IsValid      bool              `json:"isValid"`
	Message      string            `json:"message"`
	Placeholders map[string]string `json:"placeholders"`
	IsBlocking   bool              `json:"isBlocking"`
	RuleID       int64             `json:"ruleId,omitempty"`
	Outcomes     any               `json:"outcomes,omitempty"`
}

// ValidateDependentsRequest is the body of POST /validate-field/dependents.
type ValidateDependentsRequest struct {
	FormID          string           `json:"formId" binding:"omitempty,max=128"`
	FieldID         string           `json:"fieldId" binding:"required,max=128"`
	FormContextData rule.FormContext `json:"formContextData"`
}

type ValidateDependentsResponse struct {
	Results map[string]ValidateFieldResponse `json:"results"`
}
