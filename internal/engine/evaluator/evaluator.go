// Package evaluator runs a field's validation rules against a candidate value
// and selects the single message shown to the user.
package evaluator

import (
	"errors"
	"fmt"
	"time"

	"field-validation/internal/common/logger"
	"field-validation/internal/common/metrics"
	"field-validation/internal/engine/catalog"
	"field-validation/internal/engine/message"
	"field-validation/internal/engine/rule"
	"field-validation/internal/engine/store"
)

// MisconfiguredRuleMessage is shown when a rule cannot run because its
// configuration is broken. The rule fails closed.
const MisconfiguredRuleMessage = "This field cannot be validated right now because its validation rules are misconfigured."

// Status is the per-rule outcome of one evaluation.
type Status string

const (
	StatusPassed        Status = metrics.OutcomePassed
	StatusFailed        Status = metrics.OutcomeFailed
	StatusSkipped       Status = metrics.OutcomeSkipped
	StatusMisconfigured Status = metrics.OutcomeMisconfigured
)

// RuleOutcome records what happened to one rule.
type RuleOutcome struct {
	RuleID         int64             `json:"ruleId"`
	ValidationType string            `json:"validationType"`
	Status         Status            `json:"status"`
	IsBlocking     bool              `json:"isBlocking"`
	Derived        map[string]string `json:"derived,omitempty"`
	Reason         string            `json:"reason,omitempty"`
}

// failed reports whether the outcome counts as a failure for selection.
func (o RuleOutcome) failed() bool {
	return o.Status == StatusFailed || o.Status == StatusMisconfigured
}

// Result is the aggregated outcome for one field and one candidate value.
type Result struct {
	IsValid      bool              `json:"isValid"`
	Message      string            `json:"message"`
	Placeholders map[string]string `json:"placeholders"`
	IsBlocking   bool              `json:"isBlocking"`
	RuleID       int64             `json:"ruleId,omitempty"`
	Outcomes     []RuleOutcome     `json:"outcomes,omitempty"`
}

// prepared caches the static config check for a rule so it runs once per
// view rather than once per keystroke.
type prepared struct {
	rule      rule.Rule
	validator catalog.Validator
	configErr error
}

// Evaluator is immutable after New and safe for concurrent use.
type Evaluator struct {
	view    *store.View
	catalog *catalog.Registry
	log     logger.Logger
	metrics bool

	byField map[string][]prepared
}

type Option func(*Evaluator)

// WithLogger sets the logger used to report misconfigured rules.
func WithLogger(log logger.Logger) Option {
	return func(e *Evaluator) { e.log = log }
}

// WithMetrics enables the prometheus collectors.
func WithMetrics() Option {
	return func(e *Evaluator) { e.metrics = true }
}

// New prepares an evaluator over view. Rules whose type is unknown or whose
// config is invalid are kept and fail closed at evaluation time.
func New(view *store.View, reg *catalog.Registry, opts ...Option) *Evaluator {
	e := &Evaluator{
		view:    view,
		catalog: reg,
		log:     logger.NewNoOpLogger(),
		byField: make(map[string][]prepared),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithFields(map[string]interface{}{"component": "evaluator"})

	for _, fieldID := range view.FieldIDs() {
		rules := view.RulesFor(fieldID)
		list := make([]prepared, 0, len(rules))
		for _, r := range rules {
			p := prepared{rule: r}
			if v, ok := reg.Lookup(r.ValidationType); ok {
				p.validator = v
			}
			p.configErr = reg.CheckConfig(r.ValidationType, r.Config)
			list = append(list, p)
		}
		e.byField[fieldID] = list
	}
	return e
}

// View returns the rule view the evaluator was built from.
func (e *Evaluator) View() *store.View {
	return e.view
}

// Evaluate runs every rule targeting fieldID. Fields without rules are
// valid with no message. Evaluate never panics on bad configuration.
func (e *Evaluator) Evaluate(fieldID string, value rule.Value, ctx rule.FormContext) Result {
	start := time.Now()
	rules := e.byField[fieldID]
	outcomes := make([]RuleOutcome, 0, len(rules))
	for _, p := range rules {
		outcomes = append(outcomes, e.run(p, value, ctx))
	}

	res := e.selectResult(rules, outcomes, value, ctx)
	res.Outcomes = outcomes

	if e.metrics {
		label := metrics.OutcomeValid
		switch {
		case !res.IsValid:
			label = metrics.OutcomeInvalid
		case hasFailure(outcomes):
			label = metrics.OutcomeAdvisory
		}
		metrics.FieldValidations.WithLabelValues(label).Inc()
		metrics.FieldValidationDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}
	return res
}

// EvaluateDependents re-validates every field whose rules depend on
// changedFieldID, using each field's current value from ctx. Fields that
// have not been filled yet are left out.
func (e *Evaluator) EvaluateDependents(changedFieldID string, ctx rule.FormContext) map[string]Result {
	out := make(map[string]Result)
	for _, r := range e.view.RulesDependingOn(changedFieldID) {
		if _, done := out[r.TargetFieldID]; done {
			continue
		}
		value, ok := ctx.Lookup(r.TargetFieldID)
		if !ok {
			continue
		}
		out[r.TargetFieldID] = e.Evaluate(r.TargetFieldID, value, ctx)
	}
	return out
}

func (e *Evaluator) run(p prepared, value rule.Value, ctx rule.FormContext) (out RuleOutcome) {
	r := p.rule
	out = RuleOutcome{RuleID: r.ID, ValidationType: r.ValidationType, IsBlocking: r.IsBlocking}
	defer func() {
		if rec := recover(); rec != nil {
			out = e.misconfigured(r, fmt.Errorf("validator panicked: %v", rec))
		}
		if e.metrics {
			metrics.RuleEvaluations.WithLabelValues(r.ValidationType, string(out.Status)).Inc()
		}
	}()

	dep := catalog.Dependency{FieldID: r.DependsOnFieldID}
	if r.HasDependency() {
		dep.Value, dep.Present = ctx.Lookup(r.DependsOnFieldID)
		if r.RequiresDependencyFilled && !dep.Present {
			out.Status = StatusSkipped
			return out
		}
	}

	if p.validator == nil || p.configErr != nil {
		return e.misconfigured(r, p.configErr)
	}

	res, err := p.validator.TryValidate(value, r.Config, dep)
	if err != nil {
		return e.misconfigured(r, err)
	}

	out.Derived = res.Placeholders
	if res.Passed {
		out.Status = StatusPassed
	} else {
		out.Status = StatusFailed
	}
	return out
}

func (e *Evaluator) misconfigured(r rule.Rule, err error) RuleOutcome {
	if err == nil {
		err = fmt.Errorf("%w: %q", catalog.ErrUnknownType, r.ValidationType)
	}
	e.log.Warn("Rule failed closed", map[string]interface{}{
		"ruleId":         r.ID,
		"fieldId":        r.TargetFieldID,
		"validationType": r.ValidationType,
		"unknownType":    errors.Is(err, catalog.ErrUnknownType),
		"error":          err.Error(),
	})
	return RuleOutcome{
		RuleID:         r.ID,
		ValidationType: r.ValidationType,
		Status:         StatusMisconfigured,
		IsBlocking:     true,
		Reason:         err.Error(),
	}
}

// selectResult applies the display policy: the lowest-id blocking failure,
// else the lowest-id advisory failure, else the lowest-id rule with a success
// message. Outcomes are already in id order.
func (e *Evaluator) selectResult(rules []prepared, outcomes []RuleOutcome, value rule.Value, ctx rule.FormContext) Result {
	pick := -1
	for i, o := range outcomes {
		if o.failed() && o.IsBlocking {
			pick = i
			break
		}
	}
	if pick >= 0 {
		return e.render(rules[pick].rule, outcomes[pick], false, value, ctx)
	}

	for i, o := range outcomes {
		if o.failed() {
			return e.render(rules[i].rule, o, true, value, ctx)
		}
	}

	for i, o := range outcomes {
		if o.Status == StatusPassed && rules[i].rule.SuccessMessage != "" {
			msg, ph := message.Render(rules[i].rule.SuccessMessage, rules[i].rule, value, ctx, o.Derived)
			return Result{IsValid: true, Message: msg, Placeholders: ph, RuleID: o.RuleID}
		}
	}
	return Result{IsValid: true, Placeholders: map[string]string{}}
}

func (e *Evaluator) render(r rule.Rule, o RuleOutcome, valid bool, value rule.Value, ctx rule.FormContext) Result {
	res := Result{IsValid: valid, IsBlocking: o.IsBlocking, RuleID: o.RuleID}
	if o.Status == StatusMisconfigured {
		res.Message = MisconfiguredRuleMessage
		res.Placeholders = map[string]string{}
		return res
	}
	res.Message, res.Placeholders = message.Render(r.ErrorMessage, r, value, ctx, o.Derived)
	return res
}

func hasFailure(outcomes []RuleOutcome) bool {
	for _, o := range outcomes {
		if o.failed() {
			return true
		}
	}
	return false
}
