package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "field-validation/internal/common/errors"
	"field-validation/internal/engine/rule"
	"field-validation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/validate-field", func(w http.ResponseWriter, r *http.Request) {
		var req models.ValidateFieldRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(models.ValidateFieldResponse{
			IsValid: false,
			Message: req.FieldValue.String() + " is not an email",
		})
	})
	mux.HandleFunc("/forms/signup/config-health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"severity":"Error","code":"DEPENDENCY_CYCLE","message":"cycle","ruleId":3}]`))
	})
	mux.HandleFunc("/forms/missing/config-health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": apperrors.NewFormNotFoundError("missing")})
	})
	mux.HandleFunc("/validation-types", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"types":[{"name":"required","requiresDependency":false}]}`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL+"/", 2*time.Second)
	ctx := context.Background()

	res, err := c.ValidateField(ctx, models.ValidateFieldRequest{FieldID: "email", FieldValue: rule.Text("bob@")})
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, "bob@ is not an email", res.Message)

	issues, err := c.ConfigHealth(ctx, "signup")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "DEPENDENCY_CYCLE", issues[0].Code)
	assert.Equal(t, int64(3), issues[0].RuleID)

	types, err := c.ValidationTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "required", types[0].Name)
}

func TestClient_Errors(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, 2*time.Second)
	ctx := context.Background()

	_, err := c.ConfigHealth(ctx, "missing")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeFormNotFound))

	err = c.do(ctx, http.MethodGet, "/broken", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")

	down := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err = down.ValidationTypes(ctx)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRuleSourceUnavailable))
}
