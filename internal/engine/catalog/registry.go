// Package catalog is the open registry of validation types. Each type is a
// named Validator with an optional JSON schema for its configuration payload;
// new kinds are added by registering them, never by changing the evaluator.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"field-validation/internal/engine/rule"

	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrUnknownType   = errors.New("UNKNOWN_VALIDATION_TYPE")
	ErrInvalidConfig = errors.New("INVALID_CONFIG")
)

// Dependency carries the dependency field's current value into a validator.
type Dependency struct {
	FieldID string
	Value   rule.Value
	Present bool
}

// Outcome is the result of running one validator.
type Outcome struct {
	Passed       bool
	Placeholders map[string]string
}

// Validator is the single contract every validation type implements.
type Validator interface {
	TryValidate(value rule.Value, cfg rule.Config, dep Dependency) (Outcome, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(value rule.Value, cfg rule.Config, dep Dependency) (Outcome, error)

func (f ValidatorFunc) TryValidate(value rule.Value, cfg rule.Config, dep Dependency) (Outcome, error) {
	return f(value, cfg, dep)
}

// ConfigChecker is implemented by validators that need semantic checks on
// their payload beyond the JSON schema (e.g. a regex that must compile).
type ConfigChecker interface {
	CheckConfig(cfg rule.Config) error
}

// Definition describes a registered validation type.
type Definition struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	RequiresDependency bool   `json:"requiresDependency"`
	ConfigSchema       string `json:"configSchema,omitempty"`
}

// Option customises a registration.
type Option func(*entry)

// WithSchema attaches a JSON schema the config payload must satisfy.
func WithSchema(schema string) Option {
	return func(e *entry) { e.def.ConfigSchema = schema }
}

// WithDescription sets the human-readable description.
func WithDescription(desc string) Option {
	return func(e *entry) { e.def.Description = desc }
}

// NeedsDependency marks a type that is meaningless without a dependency field.
func NeedsDependency() Option {
	return func(e *entry) { e.def.RequiresDependency = true }
}

type entry struct {
	def       Definition
	validator Validator
	schema    *gojsonschema.Schema
}

// Registry maps validation type names to validators.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a validation type. Names are unique.
func (r *Registry) Register(name string, v Validator, opts ...Option) error {
	if strings.TrimSpace(name) == "" || v == nil {
		return fmt.Errorf("validation type must have a non-empty name and a validator")
	}

	e := &entry{def: Definition{Name: name}, validator: v}
	for _, opt := range opts {
		opt(e)
	}
	if e.def.ConfigSchema != "" {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(e.def.ConfigSchema))
		if err != nil {
			return fmt.Errorf("validation type %s: compile config schema: %w", name, err)
		}
		e.schema = schema
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("validation type %s already registered", name)
	}
	r.entries[name] = e
	return nil
}

// MustRegister is Register for static catalogs; it panics on error.
func (r *Registry) MustRegister(name string, v Validator, opts ...Option) {
	if err := r.Register(name, v, opts...); err != nil {
		panic(err)
	}
}

// Lookup returns the validator registered under name.
func (r *Registry) Lookup(name string) (Validator, bool) {
	e, ok := r.get(name)
	if !ok {
		return nil, false
	}
	return e.validator, true
}

// Has reports whether name is a registered validation type.
func (r *Registry) Has(name string) bool {
	_, ok := r.get(name)
	return ok
}

// Definition returns the metadata for name.
func (r *Registry) Definition(name string) (Definition, bool) {
	e, ok := r.get(name)
	if !ok {
		return Definition{}, false
	}
	return e.def, true
}

// Names returns all registered type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns metadata for every registered type, sorted by name.
func (r *Registry) Definitions() []Definition {
	names := r.Names()
	out := make([]Definition, 0, len(names))
	for _, n := range names {
		def, _ := r.Definition(n)
		out = append(out, def)
	}
	return out
}

// CheckConfig verifies a rule's payload against the type's schema and
// semantic checks. The evaluator and the health checker both call it, so a
// payload that fails here fails closed at runtime and is reported at
// health-check time.
func (r *Registry) CheckConfig(name string, cfg rule.Config) error {
	e, ok := r.get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, name)
	}

	if e.schema != nil {
		doc := map[string]any(cfg)
		if doc == nil {
			doc = map[string]any{}
		}
		result, err := e.schema.Validate(gojsonschema.NewGoLoader(doc))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if !result.Valid() {
			msgs := make([]string, len(result.Errors()))
			for i, desc := range result.Errors() {
				msgs[i] = desc.String()
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
	}

	if checker, ok := e.validator.(ConfigChecker); ok {
		if err := checker.CheckConfig(cfg); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (r *Registry) get(name string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}
