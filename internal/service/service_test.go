package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	apperrors "field-validation/internal/common/errors"
	"field-validation/internal/common/logger"
	"field-validation/internal/engine/catalog"
	"field-validation/internal/engine/health"
	"field-validation/internal/engine/rule"
	"field-validation/internal/models"
	"field-validation/internal/rulesource"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Source
// ==========================

type mockSource struct {
	mock.Mock
}

func (m *mockSource) LoadForm(ctx context.Context, formID string) (*models.FormDefinition, error) {
	args := m.Called(ctx, formID)
	form, _ := args.Get(0).(*models.FormDefinition)
	return form, args.Error(1)
}

func (m *mockSource) FormForField(ctx context.Context, fieldID string) (string, error) {
	args := m.Called(ctx, fieldID)
	return args.String(0), args.Error(1)
}

func (m *mockSource) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func signupForm() *models.FormDefinition {
	return &models.FormDefinition{
		ID:     "signup",
		Fields: []models.Field{{ID: "email"}, {ID: "password"}, {ID: "confirmPassword"}},
		Rules: []rule.Rule{
			{ID: 1, TargetFieldID: "email", ValidationType: catalog.TypeRequired, IsBlocking: true, ErrorMessage: "Email is required"},
			{ID: 2, TargetFieldID: "email", ValidationType: catalog.TypeFormat, Config: rule.Config{"format": "email"},
				IsBlocking: true, ErrorMessage: "{value} is not an email"},
			{ID: 3, TargetFieldID: "confirmPassword", ValidationType: catalog.TypeDependentEquals, DependsOnFieldID: "password",
				RequiresDependencyFilled: true, IsBlocking: true, ErrorMessage: "Passwords differ"},
			{ID: 4, TargetFieldID: "nickname", ValidationType: "telepathy"},
		},
	}
}

func newService(t *testing.T, src rulesource.Source, ttl time.Duration) *Service {
	return New(src, catalog.Default(), ttl, logger.NewTestLogger(t))
}

// ==========================
// Tests
// ==========================

func TestValidateField(t *testing.T) {
	src := &mockSource{}
	src.On("LoadForm", mock.Anything, "signup").Return(signupForm(), nil).Once()
	svc := newService(t, src, time.Minute)
	ctx := context.Background()

	res, err := svc.ValidateField(ctx, "signup", "email", rule.Text("bob@"), nil)
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, "bob@ is not an email", res.Message)

	res, err = svc.ValidateField(ctx, "signup", "email", rule.Text("bob@example.com"), nil)
	require.NoError(t, err)
	assert.True(t, res.IsValid)

	res, err = svc.ValidateField(ctx, "signup", "unknownField", rule.Text("x"), nil)
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Message)

	src.AssertExpectations(t)
}

func TestValidateField_ResolvesForm(t *testing.T) {
	src := &mockSource{}
	src.On("FormForField", mock.Anything, "email").Return("signup", nil)
	src.On("FormForField", mock.Anything, "ghost").Return("", fmt.Errorf("field ghost: %w", rulesource.ErrFieldNotFound))
	src.On("LoadForm", mock.Anything, "signup").Return(signupForm(), nil)
	svc := newService(t, src, time.Minute)

	res, err := svc.ValidateField(context.Background(), "", "email", rule.Absent(), nil)
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, "Email is required", res.Message)

	res, err = svc.ValidateField(context.Background(), "", "ghost", rule.Text("x"), nil)
	require.NoError(t, err)
	assert.True(t, res.IsValid, "fields outside every form are not validated")
}

func TestValidateField_UnknownFormIsValid(t *testing.T) {
	src := &mockSource{}
	src.On("LoadForm", mock.Anything, "nope").Return(nil, fmt.Errorf("form nope: %w", rulesource.ErrFormNotFound))
	svc := newService(t, src, time.Minute)

	res, err := svc.ValidateField(context.Background(), "nope", "email", rule.Text("x"), nil)
	require.NoError(t, err)
	assert.True(t, res.IsValid)
}

func TestValidateField_SourceError(t *testing.T) {
	src := &mockSource{}
	boom := apperrors.NewRuleSourceUnavailableError("postgres", errors.New("down"))
	src.On("LoadForm", mock.Anything, "signup").Return(nil, boom)
	svc := newService(t, src, time.Minute)

	_, err := svc.ValidateField(context.Background(), "signup", "email", rule.Text("x"), nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRuleSourceUnavailable))
}

func TestViewCache_TTLAndInvalidate(t *testing.T) {
	src := &mockSource{}
	src.On("LoadForm", mock.Anything, "signup").Return(signupForm(), nil)

	svc := newService(t, src, time.Hour)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.ValidateField(ctx, "signup", "email", rule.Text("a@b.co"), nil)
		require.NoError(t, err)
	}
	src.AssertNumberOfCalls(t, "LoadForm", 1)

	require.NoError(t, svc.Invalidate(ctx, "signup"))
	_, err := svc.ValidateField(ctx, "signup", "email", rule.Text("a@b.co"), nil)
	require.NoError(t, err)
	src.AssertNumberOfCalls(t, "LoadForm", 2)

	expired := newService(t, src, 0)
	_, _ = expired.ValidateField(ctx, "signup", "email", rule.Text("a@b.co"), nil)
	_, _ = expired.ValidateField(ctx, "signup", "email", rule.Text("a@b.co"), nil)
	src.AssertNumberOfCalls(t, "LoadForm", 4)
}

func TestValidateDependents(t *testing.T) {
	src := &mockSource{}
	src.On("LoadForm", mock.Anything, "signup").Return(signupForm(), nil)
	svc := newService(t, src, time.Minute)

	results, err := svc.ValidateDependents(context.Background(), "signup", "password", rule.FormContext{
		"password":        rule.Text("one"),
		"confirmPassword": rule.Text("two"),
	})
	require.NoError(t, err)
	require.Contains(t, results, "confirmPassword")
	assert.False(t, results["confirmPassword"].IsValid)
	assert.Equal(t, "Passwords differ", results["confirmPassword"].Message)
}

func TestConfigHealth(t *testing.T) {
	src := &mockSource{}
	src.On("LoadForm", mock.Anything, "signup").Return(signupForm(), nil)
	src.On("LoadForm", mock.Anything, "ghost").Return(nil, rulesource.ErrFormNotFound)
	svc := newService(t, src, time.Minute)

	issues, err := svc.ConfigHealth(context.Background(), "signup")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, health.CodeDanglingTarget, issues[0].Code)
	assert.Equal(t, "nickname", issues[0].FieldID)

	_, err = svc.ConfigHealth(context.Background(), "ghost")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeFormNotFound))
}

func TestValidationTypesAndReady(t *testing.T) {
	src := &mockSource{}
	src.On("Ping", mock.Anything).Return(nil)
	svc := newService(t, src, time.Minute)

	assert.Len(t, svc.ValidationTypes(), 12)
	assert.NoError(t, svc.Ready(context.Background()))
}

type cachingSource struct {
	*mockSource
	invalidated []string
	err         error
}

func (c *cachingSource) Invalidate(_ context.Context, formID string) error {
	c.invalidated = append(c.invalidated, formID)
	return c.err
}

func TestInvalidate_PropagatesToSourceCache(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"source cache cleared", nil, false},
		{"source cache failure", apperrors.NewRuleCacheFailedError("invalidate", errors.New("READONLY")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &mockSource{}
			inner.On("LoadForm", mock.Anything, "signup").Return(signupForm(), nil)
			src := &cachingSource{mockSource: inner, err: tt.err}
			svc := New(src, catalog.Default(), time.Hour, logger.NewTestLogger(t))
			ctx := context.Background()

			_, err := svc.ValidateField(ctx, "signup", "email", rule.Text("a@b.co"), nil)
			require.NoError(t, err)

			err = svc.Invalidate(ctx, "signup")
			assert.Equal(t, []string{"signup"}, src.invalidated)
			if tt.wantErr {
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRuleCacheFailed))
			} else {
				assert.NoError(t, err)
			}

			_, err = svc.ValidateField(ctx, "signup", "email", rule.Text("a@b.co"), nil)
			require.NoError(t, err)
			inner.AssertNumberOfCalls(t, "LoadForm", 2)
		})
	}
}
