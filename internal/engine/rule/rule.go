// Package rule holds the immutable data shapes the validation engine works on:
// validation rules, candidate values and the form context they are checked
// against.
package rule

// Rule is one configured check on a form field.
type Rule struct {
	ID                       int64  `json:"id" yaml:"id"`
	TargetFieldID            string `json:"targetFieldId" yaml:"targetFieldId"`
	ValidationType           string `json:"validationType" yaml:"validationType"`
	DependsOnFieldID         string `json:"dependsOnFieldId,omitempty" yaml:"dependsOnFieldId,omitempty"`
	Config                   Config `json:"config,omitempty" yaml:"config,omitempty"`
	ErrorMessage             string `json:"errorMessage,omitempty" yaml:"errorMessage,omitempty"`
	SuccessMessage           string `json:"successMessage,omitempty" yaml:"successMessage,omitempty"`
	IsBlocking               bool   `json:"isBlocking" yaml:"isBlocking"`
	RequiresDependencyFilled bool   `json:"requiresDependencyFilled" yaml:"requiresDependencyFilled"`
}

// HasDependency reports whether the rule reads another field's value.
func (r Rule) HasDependency() bool {
	return r.DependsOnFieldID != ""
}

// SortKey is the deterministic tie-break key among rules.
func (r Rule) SortKey() int64 {
	return r.ID
}

// Less orders rules by target field, then id.
func Less(a, b Rule) bool {
	if a.TargetFieldID != b.TargetFieldID {
		return a.TargetFieldID < b.TargetFieldID
	}
	return a.ID < b.ID
}
