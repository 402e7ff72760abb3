package rulesource

import (
	"context"
	"testing"

	apperrors "field-validation/internal/common/errors"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBundle = `
version: "1"
forms:
  - id: signup
    fields:
      - id: email
    rules:
      - id: 1
        targetFieldId: email
        validationType: required
        isBlocking: true
`

func TestBundle_LoadAndReload(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "rules.yaml", []byte(testBundle), 0o644))

	src, err := NewBundle(fs, "rules.yaml")
	require.NoError(t, err)
	ctx := context.Background()

	form, err := src.LoadForm(ctx, "signup")
	require.NoError(t, err)
	assert.Len(t, form.Rules, 1)

	_, err = src.LoadForm(ctx, "other")
	assert.ErrorIs(t, err, ErrFormNotFound)

	id, err := src.FormForField(ctx, "email")
	require.NoError(t, err)
	assert.Equal(t, "signup", id)

	_, err = src.FormForField(ctx, "phone")
	assert.ErrorIs(t, err, ErrFieldNotFound)
	assert.NoError(t, src.Ping(ctx))
	assert.Equal(t, []string{"signup"}, src.FormIDs())

	// A broken file keeps the previous contents.
	require.NoError(t, afero.WriteFile(fs, "rules.yaml", []byte("forms: [::"), 0o644))
	err = src.Reload()
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeBundleInvalid))
	_, err = src.LoadForm(ctx, "signup")
	assert.NoError(t, err)

	require.NoError(t, fs.Remove("rules.yaml"))
	assert.Error(t, src.Ping(ctx))
}

func TestNewBundle_Missing(t *testing.T) {
	_, err := NewBundle(afero.NewMemMapFs(), "nope.json")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeBundleInvalid))
}
