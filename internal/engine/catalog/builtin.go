package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"field-validation/internal/common/validation"
	"field-validation/internal/engine/rule"

	"github.com/go-playground/validator/v10"
)

// Built-in validation type names.
const (
	TypeRequired           = "required"
	TypeRange              = "range"
	TypeLength             = "length"
	TypeRegex              = "regex"
	TypeFormat             = "format"
	TypeTag                = "tag"
	TypeOneOf              = "oneOf"
	TypeUniqueInScope      = "uniqueInScope"
	TypeDependentEquals    = "dependentEquals"
	TypeDependentNotEquals = "dependentNotEquals"
	TypeDependentCompare   = "dependentCompare"
	TypeRequiredIf         = "requiredIf"
)

// Default returns a registry holding every built-in validation type.
func Default() *Registry {
	r := New()
	r.MustRegister(TypeRequired, ValidatorFunc(validateRequired),
		WithDescription("value must be present and not blank"))
	r.MustRegister(TypeRange, rangeValidator{},
		WithSchema(rangeSchema),
		WithDescription("numeric value within [min, max]"))
	r.MustRegister(TypeLength, lengthValidator{},
		WithSchema(lengthSchema),
		WithDescription("text length in characters within [min, max]"))
	r.MustRegister(TypeRegex, &regexValidator{},
		WithSchema(regexSchema),
		WithDescription("text matches a regular expression"))
	r.MustRegister(TypeFormat, ValidatorFunc(validateFormat),
		WithSchema(formatSchema),
		WithDescription("text is a well-formed email, phone number or URL"))
	r.MustRegister(TypeTag, newTagValidator(),
		WithSchema(tagSchema),
		WithDescription("value satisfies a go-playground/validator tag expression"))
	r.MustRegister(TypeOneOf, ValidatorFunc(validateOneOf),
		WithSchema(oneOfSchema),
		WithDescription("value is one of the allowed values"))
	r.MustRegister(TypeUniqueInScope, ValidatorFunc(validateUniqueInScope),
		WithSchema(uniqueInScopeSchema),
		WithDescription("value is not already taken within the scope chosen by the dependency field"))
	r.MustRegister(TypeDependentEquals, ValidatorFunc(validateDependentEquals),
		WithSchema(dependentSchema), NeedsDependency(),
		WithDescription("value equals the dependency field's value"))
	r.MustRegister(TypeDependentNotEquals, ValidatorFunc(validateDependentNotEquals),
		WithSchema(dependentSchema), NeedsDependency(),
		WithDescription("value differs from the dependency field's value"))
	r.MustRegister(TypeDependentCompare, ValidatorFunc(validateDependentCompare),
		WithSchema(dependentCompareSchema), NeedsDependency(),
		WithDescription("value compares numerically against the dependency field's value"))
	r.MustRegister(TypeRequiredIf, ValidatorFunc(validateRequiredIf),
		WithSchema(requiredIfSchema), NeedsDependency(),
		WithDescription("value is required when the dependency field equals a configured value"))
	return r
}

func pass(ph map[string]string) Outcome { return Outcome{Passed: true, Placeholders: ph} }
func fail(ph map[string]string) Outcome { return Outcome{Passed: false, Placeholders: ph} }

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func dependencyPlaceholders(cfg rule.Config, dep Dependency) map[string]string {
	name := cfg.String("dependencyLabel")
	if name == "" {
		name = dep.FieldID
	}
	return map[string]string{
		"dependencyName":  name,
		"dependencyValue": dep.Value.String(),
	}
}

func validateRequired(value rule.Value, _ rule.Config, _ Dependency) (Outcome, error) {
	return Outcome{Passed: !value.IsEmpty()}, nil
}

// ==========================
// Numeric and length bounds
// ==========================

type bounds struct {
	min, max       float64
	hasMin, hasMax bool
}

func readBounds(cfg rule.Config) (bounds, error) {
	var b bounds
	var err error
	if b.min, b.hasMin, err = cfg.Float("min"); err != nil {
		return b, err
	}
	if b.max, b.hasMax, err = cfg.Float("max"); err != nil {
		return b, err
	}
	if b.hasMin && b.hasMax && b.min > b.max {
		return b, fmt.Errorf("min %s is greater than max %s", formatFloat(b.min), formatFloat(b.max))
	}
	return b, nil
}

func (b bounds) placeholders() map[string]string {
	ph := make(map[string]string, 2)
	if b.hasMin {
		ph["min"] = formatFloat(b.min)
	}
	if b.hasMax {
		ph["max"] = formatFloat(b.max)
	}
	return ph
}

func (b bounds) contains(f float64) bool {
	if b.hasMin && f < b.min {
		return false
	}
	if b.hasMax && f > b.max {
		return false
	}
	return true
}

type rangeValidator struct{}

func (rangeValidator) CheckConfig(cfg rule.Config) error {
	_, err := readBounds(cfg)
	return err
}

func (rangeValidator) TryValidate(value rule.Value, cfg rule.Config, _ Dependency) (Outcome, error) {
	b, err := readBounds(cfg)
	if err != nil {
		return Outcome{}, err
	}
	ph := b.placeholders()
	if value.IsEmpty() {
		return pass(ph), nil
	}
	n, ok := value.AsNumber()
	if !ok {
		return fail(ph), nil
	}
	return Outcome{Passed: b.contains(n), Placeholders: ph}, nil
}

type lengthValidator struct{}

func (lengthValidator) CheckConfig(cfg rule.Config) error {
	_, err := readBounds(cfg)
	return err
}

func (lengthValidator) TryValidate(value rule.Value, cfg rule.Config, _ Dependency) (Outcome, error) {
	b, err := readBounds(cfg)
	if err != nil {
		return Outcome{}, err
	}
	ph := b.placeholders()
	if value.IsEmpty() {
		return pass(ph), nil
	}
	n := utf8.RuneCountInString(value.String())
	ph["length"] = strconv.Itoa(n)
	return Outcome{Passed: b.contains(float64(n)), Placeholders: ph}, nil
}

// ==========================
// Pattern and format
// ==========================

// regexValidator caches compiled patterns; sync.Map keeps it safe for
// concurrent evaluations.
type regexValidator struct {
	compiled sync.Map
}

func (v *regexValidator) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := v.compiled.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	v.compiled.Store(pattern, re)
	return re, nil
}

func (v *regexValidator) CheckConfig(cfg rule.Config) error {
	_, err := v.compile(cfg.String("pattern"))
	return err
}

func (v *regexValidator) TryValidate(value rule.Value, cfg rule.Config, _ Dependency) (Outcome, error) {
	pattern := cfg.String("pattern")
	re, err := v.compile(pattern)
	if err != nil {
		return Outcome{}, err
	}
	ph := map[string]string{"pattern": pattern}
	if value.IsEmpty() {
		return pass(ph), nil
	}
	return Outcome{Passed: re.MatchString(value.String()), Placeholders: ph}, nil
}

func validateFormat(value rule.Value, cfg rule.Config, _ Dependency) (Outcome, error) {
	format := cfg.String("format")
	ph := map[string]string{"format": format}
	if value.IsEmpty() {
		return pass(ph), nil
	}
	ok, err := validation.Check(format, value.String())
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Passed: ok, Placeholders: ph}, nil
}

// tagValidator delegates to go-playground/validator. Unknown tags make the
// library panic, so calls are guarded and surfaced as config errors.
type tagValidator struct {
	validate *validator.Validate
}

func newTagValidator() *tagValidator {
	return &tagValidator{validate: validator.New()}
}

func (v *tagValidator) run(field any, tag string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("invalid tag %q: %v", tag, rec)
		}
	}()
	return v.validate.Var(field, tag)
}

func (v *tagValidator) CheckConfig(cfg rule.Config) error {
	tag := cfg.String("tag")
	err := v.run("", tag)
	var verrs validator.ValidationErrors
	if err != nil && !errors.As(err, &verrs) {
		return err
	}
	return nil
}

func (v *tagValidator) TryValidate(value rule.Value, cfg rule.Config, _ Dependency) (Outcome, error) {
	tag := cfg.String("tag")
	ph := map[string]string{"tag": tag}
	if value.IsEmpty() {
		return pass(ph), nil
	}
	err := v.run(value.Interface(), tag)
	if err == nil {
		return pass(ph), nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return fail(ph), nil
	}
	return Outcome{}, err
}

// ==========================
// Membership
// ==========================

func validateOneOf(value rule.Value, cfg rule.Config, _ Dependency) (Outcome, error) {
	allowed, err := cfg.Values("values")
	if err != nil {
		return Outcome{}, err
	}
	labels := make([]string, len(allowed))
	for i, a := range allowed {
		labels[i] = a.String()
	}
	ph := map[string]string{"allowed": strings.Join(labels, ", ")}
	if value.IsEmpty() {
		return pass(ph), nil
	}
	cs := cfg.Bool("caseSensitive", true)
	for _, a := range allowed {
		if value.Equal(a, cs) {
			return pass(ph), nil
		}
	}
	return fail(ph), nil
}

// validateUniqueInScope checks the value against values already taken. The
// "existing" payload is either a flat list or a map from scope (the
// dependency field's value) to list. Without a scope value every scope is
// checked.
func validateUniqueInScope(value rule.Value, cfg rule.Config, dep Dependency) (Outcome, error) {
	ph := map[string]string{}
	if label := cfg.String("scopeLabel"); label != "" {
		ph["scopeName"] = label
	}
	if dep.Present {
		ph["scope"] = dep.Value.String()
	}
	if value.IsEmpty() {
		return pass(ph), nil
	}

	var taken []string
	if scoped := cfg.Map("existing"); scoped != nil {
		if dep.Present {
			taken = toStrings(scoped[dep.Value.String()])
		} else {
			for _, list := range scoped {
				taken = append(taken, toStrings(list)...)
			}
		}
	} else {
		taken = cfg.Strings("existing")
	}

	cs := cfg.Bool("caseSensitive", false)
	for _, t := range taken {
		if value.Equal(rule.Text(t), cs) {
			return fail(ph), nil
		}
	}
	return pass(ph), nil
}

func toStrings(raw any) []string {
	return rule.Config{"v": raw}.Strings("v")
}

// ==========================
// Cross-field
// ==========================

func validateDependentEquals(value rule.Value, cfg rule.Config, dep Dependency) (Outcome, error) {
	ph := dependencyPlaceholders(cfg, dep)
	if value.IsEmpty() {
		return pass(ph), nil
	}
	return Outcome{Passed: value.Equal(dep.Value, cfg.Bool("caseSensitive", true)), Placeholders: ph}, nil
}

func validateDependentNotEquals(value rule.Value, cfg rule.Config, dep Dependency) (Outcome, error) {
	ph := dependencyPlaceholders(cfg, dep)
	if value.IsEmpty() || !dep.Present {
		return pass(ph), nil
	}
	return Outcome{Passed: !value.Equal(dep.Value, cfg.Bool("caseSensitive", true)), Placeholders: ph}, nil
}

// validateDependentCompare passes when either side is missing; ordering
// against a value that is not there yet is not applicable.
func validateDependentCompare(value rule.Value, cfg rule.Config, dep Dependency) (Outcome, error) {
	op := cfg.String("operator")
	ph := dependencyPlaceholders(cfg, dep)
	ph["operator"] = op
	if value.IsEmpty() || !dep.Present || dep.Value.IsEmpty() {
		return pass(ph), nil
	}

	a, okA := value.AsNumber()
	b, okB := dep.Value.AsNumber()
	if !okA || !okB {
		return fail(ph), nil
	}

	var ok bool
	switch op {
	case "lt":
		ok = a < b
	case "lte":
		ok = a <= b
	case "gt":
		ok = a > b
	case "gte":
		ok = a >= b
	default:
		return Outcome{}, fmt.Errorf("unknown operator %q", op)
	}
	return Outcome{Passed: ok, Placeholders: ph}, nil
}

func validateRequiredIf(value rule.Value, cfg rule.Config, dep Dependency) (Outcome, error) {
	ph := dependencyPlaceholders(cfg, dep)
	want, err := rule.FromInterface(cfg["equals"])
	if err != nil {
		return Outcome{}, fmt.Errorf("config \"equals\": %w", err)
	}
	ph["equals"] = want.String()

	if !dep.Present || !dep.Value.Equal(want, cfg.Bool("caseSensitive", true)) {
		return pass(ph), nil
	}
	return Outcome{Passed: !value.IsEmpty(), Placeholders: ph}, nil
}
