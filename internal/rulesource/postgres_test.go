package rulesource

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	apperrors "field-validation/internal/common/errors"
	"field-validation/internal/engine/rule"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var ruleColumns = []string{
	"id", "target_field_id", "validation_type", "depends_on_field_id", "config",
	"error_message", "success_message", "is_blocking", "requires_dependency_filled",
}

// ==========================
// LoadForm
// ==========================

func TestPostgres_LoadForm(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, name\s+FROM forms`).
		WithArgs("signup").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("signup", "Sign up"))
	mock.ExpectQuery(`SELECT id, label\s+FROM form_fields`).
		WithArgs("signup").
		WillReturnRows(sqlmock.NewRows([]string{"id", "label"}).
			AddRow("email", "Email").
			AddRow("age", nil))
	mock.ExpectQuery(`FROM validation_rules`).
		WithArgs("signup").
		WillReturnRows(sqlmock.NewRows(ruleColumns).
			AddRow(1, "email", "required", nil, nil, "Email is required", nil, true, false).
			AddRow(2, "age", "range", "email", []byte(`{"min": 18}`), "Too young", "Welcome", false, true))

	form, err := NewPostgres(db).LoadForm(context.Background(), "signup")
	require.NoError(t, err)

	assert.Equal(t, "Sign up", form.Name)
	assert.Equal(t, []string{"age", "email"}, form.FieldIDs())
	require.Len(t, form.Rules, 2)

	assert.Equal(t, rule.Rule{
		ID: 1, TargetFieldID: "email", ValidationType: "required",
		ErrorMessage: "Email is required", IsBlocking: true,
	}, form.Rules[0])

	r := form.Rules[1]
	assert.Equal(t, "email", r.DependsOnFieldID)
	assert.Equal(t, rule.Config{"min": 18.0}, r.Config)
	assert.Equal(t, "Welcome", r.SuccessMessage)
	assert.True(t, r.RequiresDependencyFilled)
	assert.False(t, r.IsBlocking)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadForm_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`FROM forms`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := NewPostgres(db).LoadForm(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrFormNotFound)
}

func TestPostgres_LoadForm_Errors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(mock sqlmock.Sqlmock)
		wantCode apperrors.ErrorCode
	}{
		{
			name: "connection failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM forms`).WillReturnError(errors.New("connection refused"))
			},
			wantCode: apperrors.ErrCodeRuleSourceUnavailable,
		},
		{
			name: "bad config json",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM forms`).WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("f", ""))
				mock.ExpectQuery(`FROM form_fields`).WillReturnRows(sqlmock.NewRows([]string{"id", "label"}))
				mock.ExpectQuery(`FROM validation_rules`).WillReturnRows(sqlmock.NewRows(ruleColumns).
					AddRow(1, "a", "range", nil, []byte(`{not json`), nil, nil, true, false))
			},
			wantCode: apperrors.ErrCodeRuleDecodeFailed,
		},
		{
			name: "rule fails shape check",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM forms`).WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("f", ""))
				mock.ExpectQuery(`FROM form_fields`).WillReturnRows(sqlmock.NewRows([]string{"id", "label"}))
				mock.ExpectQuery(`FROM validation_rules`).WillReturnRows(sqlmock.NewRows(ruleColumns).
					AddRow(1, "a", "", nil, nil, nil, nil, true, false))
			},
			wantCode: apperrors.ErrCodeRuleDecodeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			tt.setup(mock)

			_, err := NewPostgres(db).LoadForm(context.Background(), "f")
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

// ==========================
// FormForField
// ==========================

func TestPostgres_FormForField(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT form_id\s+FROM form_fields`).
		WithArgs("email").
		WillReturnRows(sqlmock.NewRows([]string{"form_id"}).AddRow("signup"))
	mock.ExpectQuery(`SELECT form_id\s+FROM form_fields`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	p := NewPostgres(db)
	id, err := p.FormForField(context.Background(), "email")
	require.NoError(t, err)
	assert.Equal(t, "signup", id)

	_, err = p.FormForField(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrFieldNotFound)
}
