package rule

import (
	"fmt"

	"github.com/spf13/cast"
)

// Config is the opaque, validation-type-specific payload of a rule. Only the
// validation type that owns the payload interprets its keys.
type Config map[string]any

// Has reports whether key is set to a non-nil value.
func (c Config) Has(key string) bool {
	if c == nil {
		return false
	}
	v, ok := c[key]
	return ok && v != nil
}

// String returns the key as a string, or "" when unset.
func (c Config) String(key string) string {
	if !c.Has(key) {
		return ""
	}
	return cast.ToString(c[key])
}

// Float returns the key as a float64. ok is false when the key is unset.
func (c Config) Float(key string) (value float64, ok bool, err error) {
	if !c.Has(key) {
		return 0, false, nil
	}
	f, err := cast.ToFloat64E(c[key])
	if err != nil {
		return 0, true, fmt.Errorf("config %q: %w", key, err)
	}
	return f, true, nil
}

// Int returns the key as an int. ok is false when the key is unset.
func (c Config) Int(key string) (value int, ok bool, err error) {
	if !c.Has(key) {
		return 0, false, nil
	}
	i, err := cast.ToIntE(c[key])
	if err != nil {
		return 0, true, fmt.Errorf("config %q: %w", key, err)
	}
	return i, true, nil
}

// Bool returns the key as a bool, falling back to def when unset or
// unparseable.
func (c Config) Bool(key string, def bool) bool {
	if !c.Has(key) {
		return def
	}
	b, err := cast.ToBoolE(c[key])
	if err != nil {
		return def
	}
	return b
}

// Strings returns the key as a string slice.
func (c Config) Strings(key string) []string {
	if !c.Has(key) {
		return nil
	}
	return cast.ToStringSlice(c[key])
}

// Values returns the key as a list of scalar values, keeping each item's
// kind.
func (c Config) Values(key string) ([]Value, error) {
	if !c.Has(key) {
		return nil, nil
	}
	raw, err := cast.ToSliceE(c[key])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	out := make([]Value, len(raw))
	for i, item := range raw {
		v, err := FromInterface(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Map returns the key as a nested map.
func (c Config) Map(key string) map[string]any {
	if !c.Has(key) {
		return nil
	}
	m, err := cast.ToStringMapE(c[key])
	if err != nil {
		return nil
	}
	return m
}
