// pkg/bundle/schema.go
package bundle

import "field-validation/internal/models"

// Bundle is a file-based set of forms and their validation rules.
type Bundle struct {
	Version     string                  `json:"version" yaml:"version"`
	LastUpdated string                  `json:"lastUpdated,omitempty" yaml:"lastUpdated,omitempty"`
	Forms       []models.FormDefinition `json:"forms" yaml:"forms"`
}

// Form returns the form with id.
func (b *Bundle) Form(id string) (*models.FormDefinition, bool) {
	for i := range b.Forms {
		if b.Forms[i].ID == id {
			return &b.Forms[i], true
		}
	}
	return nil, false
}

// FormForField returns the id of the form that declares fieldID.
func (b *Bundle) FormForField(fieldID string) (string, bool) {
	for i := range b.Forms {
		if b.Forms[i].HasField(fieldID) {
			return b.Forms[i].ID, true
		}
	}
	return "", false
}
