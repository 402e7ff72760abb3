package rulesource

import (
	"context"
	"fmt"
	"sync"

	apperrors "field-validation/internal/common/errors"
	"field-validation/internal/models"
	"field-validation/pkg/bundle"

	"github.com/spf13/afero"
)

// Bundle serves forms from a bundle file. The file is read at construction
// and again on Reload.
type Bundle struct {
	fs   afero.Fs
	path string

	mu     sync.RWMutex
	bundle *bundle.Bundle
}

func NewBundle(fs afero.Fs, path string) (*Bundle, error) {
	b := &Bundle{fs: fs, path: path}
	if err := b.Reload(); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload re-reads the bundle file. On error the previous contents stay in
// place.
func (b *Bundle) Reload() error {
	loaded, err := bundle.Load(b.fs, b.path)
	if err != nil {
		return apperrors.NewBundleInvalidError(b.path, err)
	}
	b.mu.Lock()
	b.bundle = loaded
	b.mu.Unlock()
	return nil
}

func (b *Bundle) LoadForm(_ context.Context, formID string) (*models.FormDefinition, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	form, ok := b.bundle.Form(formID)
	if !ok {
		return nil, fmt.Errorf("form %s: %w", formID, ErrFormNotFound)
	}
	cp := *form
	return &cp, nil
}

func (b *Bundle) FormForField(_ context.Context, fieldID string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	id, ok := b.bundle.FormForField(fieldID)
	if !ok {
		return "", fmt.Errorf("field %s: %w", fieldID, ErrFieldNotFound)
	}
	return id, nil
}

func (b *Bundle) Ping(context.Context) error {
	if _, err := b.fs.Stat(b.path); err != nil {
		return apperrors.NewRuleSourceUnavailableError("bundle", err)
	}
	return nil
}

// FormIDs lists the form ids in bundle order.
func (b *Bundle) FormIDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, len(b.bundle.Forms))
	for i, f := range b.bundle.Forms {
		ids[i] = f.ID
	}
	return ids
}
