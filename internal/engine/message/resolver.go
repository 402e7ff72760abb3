// Package message renders rule message templates.
package message

import (
	"regexp"

	"field-validation/internal/engine/rule"
)

var tokenPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_.-]*)\}`)

// Resolve substitutes {name} tokens in template. Each token is taken from
// derived first, then from the form context; tokens neither source provides
// stay in the output verbatim. The returned map holds only the placeholders
// that were substituted.
//
// Resolve has no state and is safe for concurrent use.
func Resolve(template string, ctx rule.FormContext, derived map[string]string) (string, map[string]string) {
	used := make(map[string]string)
	if template == "" {
		return "", used
	}

	out := tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		if v, ok := lookup(name, ctx, derived); ok {
			used[name] = v
			return v
		}
		return token
	})
	return out, used
}

// Render resolves a rule's template for a candidate value. The derived map
// is seeded with "value" and "fieldId"; keys supplied by the validation
// algorithm override the seed.
func Render(template string, r rule.Rule, value rule.Value, ctx rule.FormContext, derived map[string]string) (string, map[string]string) {
	if template == "" {
		return "", map[string]string{}
	}
	seeded := make(map[string]string, len(derived)+2)
	seeded["value"] = value.String()
	seeded["fieldId"] = r.TargetFieldID
	for k, v := range derived {
		seeded[k] = v
	}
	return Resolve(template, ctx, seeded)
}

// Tokens returns the distinct placeholder names in template, in order of
// first appearance.
func Tokens(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range tokenPattern.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

func lookup(name string, ctx rule.FormContext, derived map[string]string) (string, bool) {
	if v, ok := derived[name]; ok {
		return v, true
	}
	if v, ok := ctx.Lookup(name); ok {
		return v.String(), true
	}
	return "", false
}
