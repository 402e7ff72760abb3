// Package rulesource loads form definitions and their validation rules from
// storage.
package rulesource

import (
	"context"
	"errors"

	"field-validation/internal/models"
)

var (
	ErrFormNotFound  = errors.New("FORM_NOT_FOUND")
	ErrFieldNotFound = errors.New("FIELD_NOT_FOUND")
)

// Source is a read-only provider of form definitions.
type Source interface {
	// LoadForm returns the form with its fields and rules, or an error
	// wrapping ErrFormNotFound.
	LoadForm(ctx context.Context, formID string) (*models.FormDefinition, error)
	// FormForField returns the id of the form declaring fieldID, or an error
	// wrapping ErrFieldNotFound.
	FormForField(ctx context.Context, fieldID string) (string, error)
	Ping(ctx context.Context) error
}
