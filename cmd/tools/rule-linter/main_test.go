package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lintBundle = `
version: "1"
forms:
  - id: clean
    fields:
      - id: age
    rules:
      - id: 1
        targetFieldId: age
        validationType: range
        config: {min: 18, max: 120}
        isBlocking: true
        errorMessage: Age must be between {min} and {max}
  - id: looped
    fields:
      - id: F1
      - id: F2
    rules:
      - id: 10
        targetFieldId: F1
        validationType: dependentEquals
        dependsOnFieldId: F2
        isBlocking: true
        errorMessage: F1 must match F2
      - id: 11
        targetFieldId: F2
        validationType: dependentEquals
        dependsOnFieldId: F1
        isBlocking: true
        errorMessage: F2 must match F1
  - id: warned
    fields:
      - id: nick
    rules:
      - id: 30
        targetFieldId: nick
        validationType: required
        isBlocking: true
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/rules.yaml", []byte(lintBundle), 0o644))

	cmd := newRootCmd(fs)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--bundle", "/rules.yaml"))
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCmd(t *testing.T) {
	t.Run("Clean Form", func(t *testing.T) {
		out, err := execute(t, "check", "--form", "clean")
		assert.NoError(t, err)
		assert.Contains(t, out, "clean: OK")
		assert.Contains(t, out, "0 error(s), 0 warning(s)")
	})

	t.Run("Cycle Fails", func(t *testing.T) {
		out, err := execute(t, "check")
		assert.Error(t, err)
		assert.Contains(t, out, "DEPENDENCY_CYCLE")
		assert.Contains(t, out, "1 error(s)")
	})

	t.Run("Warnings", func(t *testing.T) {
		out, err := execute(t, "check", "--form", "warned")
		assert.NoError(t, err)
		assert.Contains(t, out, "EMPTY_ERROR_MESSAGE")

		_, err = execute(t, "check", "--form", "warned", "--fail-on-warning")
		assert.Error(t, err)
	})

	t.Run("Missing Bundle", func(t *testing.T) {
		cmd := newRootCmd(afero.NewMemMapFs())
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"check", "--bundle", "/nope.yaml"})
		assert.Error(t, cmd.Execute())
	})
}

func TestEvaluateCmd(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantValid bool
		wantMsg   string
	}{
		{
			name:    "Out Of Range",
			args:    []string{"evaluate", "--field", "age", "--value", "12"},
			wantMsg: "Age must be between 18 and 120",
		},
		{
			name:      "In Range",
			args:      []string{"evaluate", "--form", "clean", "--field", "age", "--value", "30"},
			wantValid: true,
		},
		{
			name:    "Dependency From Context",
			args:    []string{"evaluate", "--form", "looped", "--field", "F1", "--value", "a", "--ctx", "F2=b"},
			wantMsg: "F1 must match F2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)

			var res struct {
				IsValid bool   `json:"isValid"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &res), out)
			assert.Equal(t, tt.wantValid, res.IsValid)
			assert.Equal(t, tt.wantMsg, res.Message)
		})
	}
}

func TestTypesCmd(t *testing.T) {
	out, err := execute(t, "types")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "dependentCompare")
	assert.Contains(t, out, "required")
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, "12", parseValue("12").String())
	b, ok := parseValue("true").AsBool()
	assert.True(t, ok)
	assert.True(t, b)
	assert.Equal(t, "hello world", parseValue("hello world").String())
}

func TestRemoteCheckCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/forms/good/config-health":
			_, _ = w.Write([]byte(`[]`))
		case "/forms/bad/config-health":
			_, _ = w.Write([]byte(`[{"severity":"Error","code":"DANGLING_TARGET","message":"gone","ruleId":4}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	out, err := execute(t, "remote-check", "good", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "good: 0 issue(s)")

	out, err = execute(t, "remote-check", "good", "bad", "--server", srv.URL)
	assert.Error(t, err)
	assert.Contains(t, out, "DANGLING_TARGET")
}
