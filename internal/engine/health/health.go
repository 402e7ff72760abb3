// Package health statically checks a form's rule set for structural defects,
// without looking at any live form data.
package health

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"field-validation/internal/engine/catalog"
	"field-validation/internal/engine/rule"
	"field-validation/internal/engine/store"
)

type Severity string

const (
	SeverityError   Severity = "Error"
	SeverityWarning Severity = "Warning"
)

// Issue codes.
const (
	CodeDanglingTarget        = "DANGLING_TARGET"
	CodeDanglingDependency    = "DANGLING_DEPENDENCY"
	CodeSelfDependency        = "SELF_DEPENDENCY"
	CodeDependencyCycle       = "DEPENDENCY_CYCLE"
	CodeUnknownValidationType = "UNKNOWN_VALIDATION_TYPE"
	CodeInvalidConfig         = "INVALID_CONFIG"
	CodeMissingDependency     = "MISSING_DEPENDENCY"
	CodeDuplicateRuleID       = "DUPLICATE_RULE_ID"
	CodeEmptyErrorMessage     = "EMPTY_ERROR_MESSAGE"
	CodeOrphanedSuccess       = "ORPHANED_SUCCESS_MESSAGE"
	CodeUnusedDependencyFlag  = "UNUSED_DEPENDENCY_FLAG"
)

// Issue is one reported configuration problem.
type Issue struct {
	Severity        Severity `json:"severity"`
	Code            string   `json:"code"`
	Message         string   `json:"message"`
	FieldID         string   `json:"fieldId,omitempty"`
	RuleID          int64    `json:"ruleId,omitempty"`
	RelatedFieldIDs []string `json:"relatedFieldIds,omitempty"`
}

// Checker runs the configuration checks against a catalog of validation
// types. It holds no mutable state.
type Checker struct {
	catalog *catalog.Registry
}

func New(reg *catalog.Registry) *Checker {
	return &Checker{catalog: reg}
}

// Check returns the issues found in view given the form's known field ids.
// Issues are ordered by field id, then rule id. Each call returns a new
// single-pass sequence that is computed as it is consumed.
func (c *Checker) Check(view *store.View, fieldIDs []string) iter.Seq[Issue] {
	known := make(map[string]bool, len(fieldIDs))
	for _, id := range fieldIDs {
		known[id] = true
	}

	return func(yield func(Issue) bool) {
		rules := view.Rules()
		cyclesAt := representatives(view, rules, known)
		duplicates := make(map[int64]bool)
		for _, id := range view.DuplicateIDs() {
			duplicates[id] = true
		}
		reportedDup := make(map[int64]bool)

		// rules is ordered by target field id then rule id.
		for i, r := range rules {
			issues := c.checkRule(r, known)
			// A rule with an unknown target carries only its dangling-target
			// error.
			if known[r.TargetFieldID] {
				if duplicates[r.ID] && !reportedDup[r.ID] {
					reportedDup[r.ID] = true
					issues = append(issues, Issue{
						Severity: SeverityError,
						Code:     CodeDuplicateRuleID,
						Message:  fmt.Sprintf("Rule id %d is used by more than one rule.", r.ID),
						FieldID:  r.TargetFieldID,
						RuleID:   r.ID,
					})
				}
				for _, cyc := range cyclesAt[i] {
					issues = append(issues, cycleIssue(r, cyc))
				}
			}
			for _, issue := range issues {
				if !yield(issue) {
					return
				}
			}
		}
	}
}

// representatives maps each cycle to the position in rules of the
// lowest-id rule on that cycle whose target field exists.
func representatives(view *store.View, rules []rule.Rule, known map[string]bool) map[int][]store.Cycle {
	out := make(map[int][]store.Cycle)
	for _, cyc := range view.Cycles() {
		best := -1
		for i, r := range rules {
			if !known[r.TargetFieldID] || !slices.Contains(cyc.RuleIDs, r.ID) {
				continue
			}
			if !slices.Contains(cyc.Fields, r.TargetFieldID) || !slices.Contains(cyc.Fields, r.DependsOnFieldID) {
				continue
			}
			if best < 0 || r.ID < rules[best].ID {
				best = i
			}
		}
		if best >= 0 {
			out[best] = append(out[best], cyc)
		}
	}
	return out
}

// Collect drains Check into a slice.
func (c *Checker) Collect(view *store.View, fieldIDs []string) []Issue {
	return slices.Collect(c.Check(view, fieldIDs))
}

// HasErrors reports whether any issue has Error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// checkRule runs the per-rule checks in their reporting order. A rule whose
// target is unknown gets only the dangling-target error; its other defects
// are moot until it points at a real field.
func (c *Checker) checkRule(r rule.Rule, known map[string]bool) []Issue {
	if !known[r.TargetFieldID] {
		return []Issue{{
			Severity: SeverityError,
			Code:     CodeDanglingTarget,
			Message:  fmt.Sprintf("Rule targets field %q which does not exist in this form.", r.TargetFieldID),
			FieldID:  r.TargetFieldID,
			RuleID:   r.ID,
		}}
	}

	var issues []Issue
	add := func(sev Severity, code, msg string) {
		issues = append(issues, Issue{Severity: sev, Code: code, Message: msg, FieldID: r.TargetFieldID, RuleID: r.ID})
	}

	if r.HasDependency() && !known[r.DependsOnFieldID] {
		add(SeverityError, CodeDanglingDependency,
			fmt.Sprintf("Rule depends on field %q which does not exist in this form.", r.DependsOnFieldID))
	}
	if r.HasDependency() && r.DependsOnFieldID == r.TargetFieldID {
		add(SeverityError, CodeSelfDependency, "Rule depends on its own target field.")
	}

	def, ok := c.catalog.Definition(r.ValidationType)
	if !ok {
		add(SeverityError, CodeUnknownValidationType,
			fmt.Sprintf("Validation type %q is not registered.", r.ValidationType))
	} else {
		if err := c.catalog.CheckConfig(r.ValidationType, r.Config); err != nil {
			add(SeverityError, CodeInvalidConfig, configMessage(r.ValidationType, err))
		}
		if def.RequiresDependency && !r.HasDependency() {
			add(SeverityError, CodeMissingDependency,
				fmt.Sprintf("Validation type %q needs a dependency field but none is configured.", r.ValidationType))
		}
	}

	if r.IsBlocking && strings.TrimSpace(r.ErrorMessage) == "" {
		add(SeverityWarning, CodeEmptyErrorMessage, "Blocking rule has no error message; users will not see why it failed.")
		if strings.TrimSpace(r.SuccessMessage) != "" {
			add(SeverityWarning, CodeOrphanedSuccess, "Blocking rule explains success but not failure.")
		}
	}
	if r.RequiresDependencyFilled && !r.HasDependency() {
		add(SeverityWarning, CodeUnusedDependencyFlag, "Rule requires its dependency to be filled but has no dependency field.")
	}
	return issues
}

func configMessage(vtype string, err error) string {
	detail := err.Error()
	if errors.Is(err, catalog.ErrInvalidConfig) {
		detail = strings.TrimPrefix(detail, catalog.ErrInvalidConfig.Error()+": ")
	}
	return fmt.Sprintf("Configuration for validation type %q is invalid: %s", vtype, detail)
}

func cycleIssue(r rule.Rule, cyc store.Cycle) Issue {
	return Issue{
		Severity:        SeverityError,
		Code:            CodeDependencyCycle,
		Message:         fmt.Sprintf("Fields depend on each other in a cycle: %s.", strings.Join(cyc.Fields, ", ")),
		FieldID:         r.TargetFieldID,
		RuleID:          r.ID,
		RelatedFieldIDs: slices.Clone(cyc.Fields),
	}
}
