package rulesource

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "field-validation/internal/common/errors"
	"field-validation/internal/engine/rule"
	"field-validation/internal/models"
)

const (
	queryForm = `
		SELECT id, name
		FROM forms
		WHERE id = $1`

	queryFields = `
		SELECT id, label
		FROM form_fields
		WHERE form_id = $1
		ORDER BY id`

	queryRules = `
		SELECT id, target_field_id, validation_type, depends_on_field_id, config,
		       error_message, success_message, is_blocking, requires_dependency_filled
		FROM validation_rules
		WHERE form_id = $1
		ORDER BY id`

	queryFieldForm = `
		SELECT form_id
		FROM form_fields
		WHERE id = $1`
)

// Postgres reads forms from the forms, form_fields and validation_rules
// tables.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) LoadForm(ctx context.Context, formID string) (*models.FormDefinition, error) {
	form := &models.FormDefinition{ID: formID}

	var name sql.NullString
	err := p.db.QueryRowContext(ctx, queryForm, formID).Scan(&form.ID, &name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("form %s: %w", formID, ErrFormNotFound)
		}
		return nil, apperrors.NewRuleSourceUnavailableError("postgres", err)
	}
	form.Name = name.String

	if form.Fields, err = p.loadFields(ctx, formID); err != nil {
		return nil, err
	}
	if form.Rules, err = p.loadRules(ctx, formID); err != nil {
		return nil, err
	}

	if err := models.ValidateShape(form); err != nil {
		return nil, apperrors.NewRuleDecodeFailedError("shape check", err)
	}
	return form, nil
}

func (p *Postgres) loadFields(ctx context.Context, formID string) ([]models.Field, error) {
	rows, err := p.db.QueryContext(ctx, queryFields, formID)
	if err != nil {
		return nil, apperrors.NewRuleSourceUnavailableError("postgres", err)
	}
	defer rows.Close()

	var fields []models.Field
	for rows.Next() {
		var f models.Field
		var label sql.NullString
		if err := rows.Scan(&f.ID, &label); err != nil {
			return nil, apperrors.NewRuleDecodeFailedError("scan field", err)
		}
		f.Label = label.String
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRuleSourceUnavailableError("postgres", err)
	}
	return fields, nil
}

func (p *Postgres) loadRules(ctx context.Context, formID string) ([]rule.Rule, error) {
	rows, err := p.db.QueryContext(ctx, queryRules, formID)
	if err != nil {
		return nil, apperrors.NewRuleSourceUnavailableError("postgres", err)
	}
	defer rows.Close()

	var rules []rule.Rule
	for rows.Next() {
		var (
			r                        rule.Rule
			dependsOn, errMsg, okMsg sql.NullString
			cfg                      []byte
		)
		if err := rows.Scan(&r.ID, &r.TargetFieldID, &r.ValidationType, &dependsOn, &cfg,
			&errMsg, &okMsg, &r.IsBlocking, &r.RequiresDependencyFilled); err != nil {
			return nil, apperrors.NewRuleDecodeFailedError("scan rule", err)
		}
		r.DependsOnFieldID = dependsOn.String
		r.ErrorMessage = errMsg.String
		r.SuccessMessage = okMsg.String

		if len(cfg) > 0 {
			if err := json.Unmarshal(cfg, &r.Config); err != nil {
				return nil, apperrors.NewRuleDecodeFailedError(fmt.Sprintf("rule %d config", r.ID), err)
			}
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRuleSourceUnavailableError("postgres", err)
	}
	return rules, nil
}

func (p *Postgres) FormForField(ctx context.Context, fieldID string) (string, error) {
	var formID string
	err := p.db.QueryRowContext(ctx, queryFieldForm, fieldID).Scan(&formID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("field %s: %w", fieldID, ErrFieldNotFound)
		}
		return "", apperrors.NewRuleSourceUnavailableError("postgres", err)
	}
	return formID, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
