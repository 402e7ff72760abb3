package bundle

import (
	"testing"

	"field-validation/internal/engine/rule"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlBundle = `
version: "1"
forms:
  - id: signup
    fields:
      - id: email
      - id: password
      - id: confirmPassword
    rules:
      - id: 1
        targetFieldId: email
        validationType: required
        isBlocking: true
        errorMessage: Email is required
      - id: 2
        targetFieldId: confirmPassword
        validationType: dependentEquals
        dependsOnFieldId: password
        requiresDependencyFilled: true
        isBlocking: true
        config:
          dependencyLabel: Password
        errorMessage: Must match {dependencyName}
`

const jsonBundle = `{
  "version": "1",
  "forms": [{
    "id": "profile",
    "fields": [{"id": "age"}],
    "rules": [{"id": 7, "targetFieldId": "age", "validationType": "range", "config": {"min": 18, "max": 120}, "isBlocking": true}]
  }]
}`

func TestLoad_YAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/rules/forms.yaml", []byte(yamlBundle), 0o644))

	b, err := Load(fs, "/rules/forms.yaml")
	require.NoError(t, err)

	form, ok := b.Form("signup")
	require.True(t, ok)
	assert.Equal(t, []string{"confirmPassword", "email", "password"}, form.FieldIDs())
	require.Len(t, form.Rules, 2)

	r := form.Rules[1]
	assert.Equal(t, int64(2), r.ID)
	assert.Equal(t, "password", r.DependsOnFieldID)
	assert.True(t, r.RequiresDependencyFilled)
	assert.Equal(t, "Password", r.Config.String("dependencyLabel"))

	id, ok := b.FormForField("password")
	assert.True(t, ok)
	assert.Equal(t, "signup", id)

	_, ok = b.FormForField("nope")
	assert.False(t, ok)
}

func TestLoad_JSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "forms.json", []byte(jsonBundle), 0o644))

	b, err := Load(fs, "forms.json")
	require.NoError(t, err)
	form, ok := b.Form("profile")
	require.True(t, ok)

	minVal, ok, err := form.Rules[0].Config.Float("min")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 18.0, minVal)
	assert.Equal(t, rule.Config{"min": 18.0, "max": 120.0}, form.Rules[0].Config)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		data string
	}{
		{"missing file", "absent.json", ""},
		{"bad yaml", "bad.yaml", "forms: [::"},
		{"unknown json field", "x.json", `{"forms": [], "extra": 1}`},
		{"duplicate form", "d.yaml", "forms:\n  - id: a\n  - id: a\n"},
		{"rule without type", "r.yaml", "forms:\n  - id: a\n    rules:\n      - id: 1\n        targetFieldId: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.data != "" {
				require.NoError(t, afero.WriteFile(fs, tt.path, []byte(tt.data), 0o644))
			}
			_, err := Load(fs, tt.path)
			assert.Error(t, err)
		})
	}
}
