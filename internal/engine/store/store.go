// Package store provides a read-only, indexed view over the validation rules
// of one form.
package store

import (
	"slices"
	"sort"

	"field-validation/internal/engine/rule"
)

// View indexes a form's rules by target field and by dependency field. It is
// built once and never mutated, so it may be shared across goroutines.
type View struct {
	all          []rule.Rule
	byTarget     map[string][]rule.Rule
	byDependency map[string][]rule.Rule
	targets      []string

	// target -> dependsOn -> lowest rule id carrying that edge
	edges      map[string]map[string]int64
	cycles     []Cycle
	duplicates []int64
}

// Cycle is a set of fields that depend on each other, directly or through
// other members of the set.
type Cycle struct {
	// Fields lists the members of the cycle, sorted.
	Fields []string
	// RuleID is the lowest-id rule contributing an edge to the cycle.
	RuleID int64
	// RuleIDs lists every rule whose dependency edge lies on the cycle,
	// ascending.
	RuleIDs []int64
}

// New builds a view from an unordered rule collection. The input slice is
// copied.
func New(rules []rule.Rule) *View {
	v := &View{
		all:          slices.Clone(rules),
		byTarget:     make(map[string][]rule.Rule),
		byDependency: make(map[string][]rule.Rule),
		edges:        make(map[string]map[string]int64),
	}
	sort.SliceStable(v.all, func(i, j int) bool { return rule.Less(v.all[i], v.all[j]) })

	seen := make(map[int64]int, len(v.all))
	for _, r := range v.all {
		v.byTarget[r.TargetFieldID] = append(v.byTarget[r.TargetFieldID], r)
		seen[r.ID]++
		if seen[r.ID] == 2 {
			v.duplicates = append(v.duplicates, r.ID)
		}

		if !r.HasDependency() {
			continue
		}
		v.byDependency[r.DependsOnFieldID] = append(v.byDependency[r.DependsOnFieldID], r)

		// Self edges are reported separately as self-dependencies.
		if r.DependsOnFieldID == r.TargetFieldID {
			continue
		}
		out, ok := v.edges[r.TargetFieldID]
		if !ok {
			out = make(map[string]int64)
			v.edges[r.TargetFieldID] = out
		}
		if id, exists := out[r.DependsOnFieldID]; !exists || r.ID < id {
			out[r.DependsOnFieldID] = r.ID
		}
	}

	for target := range v.byTarget {
		v.targets = append(v.targets, target)
	}
	sort.Strings(v.targets)

	for dep := range v.byDependency {
		sort.SliceStable(v.byDependency[dep], func(i, j int) bool {
			return v.byDependency[dep][i].ID < v.byDependency[dep][j].ID
		})
	}
	slices.Sort(v.duplicates)

	v.cycles = v.findCycles()
	return v
}

// RulesFor returns the rules targeting fieldID, ordered by id ascending.
func (v *View) RulesFor(fieldID string) []rule.Rule {
	return v.byTarget[fieldID]
}

// RulesDependingOn returns the rules whose dependency is fieldID, ordered by
// id ascending.
func (v *View) RulesDependingOn(fieldID string) []rule.Rule {
	return v.byDependency[fieldID]
}

// Rules returns every rule ordered by target field id, then rule id.
func (v *View) Rules() []rule.Rule {
	return v.all
}

// FieldIDs returns the sorted ids of all fields that have rules.
func (v *View) FieldIDs() []string {
	return v.targets
}

// Len returns the number of rules in the view.
func (v *View) Len() int {
	return len(v.all)
}

// Cycles returns the dependency cycles detected when the view was built.
func (v *View) Cycles() []Cycle {
	return v.cycles
}

// DuplicateIDs returns rule ids that occur more than once.
func (v *View) DuplicateIDs() []int64 {
	return v.duplicates
}

// DependenciesOf returns the sorted fields that fieldID depends on.
func (v *View) DependenciesOf(fieldID string) []string {
	out := make([]string, 0, len(v.edges[fieldID]))
	for dep := range v.edges[fieldID] {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out
}

// findCycles groups the dependency graph into strongly connected components
// (Tarjan). Every component with more than one field is a cycle; every field
// that lies on any cycle belongs to exactly one such component.
func (v *View) findCycles() []Cycle {
	nodes := make([]string, 0, len(v.edges))
	for n := range v.edges {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	var (
		next    int
		index   = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		stack   []string
		cycles  []Cycle
	)

	var visit func(n string)
	visit = func(n string) {
		index[n] = next
		lowlink[n] = next
		next++
		stack = append(stack, n)
		onStack[n] = true

		for _, dep := range v.DependenciesOf(n) {
			if _, seen := index[dep]; !seen {
				visit(dep)
				lowlink[n] = min(lowlink[n], lowlink[dep])
			} else if onStack[dep] {
				lowlink[n] = min(lowlink[n], index[dep])
			}
		}

		if lowlink[n] != index[n] {
			return
		}
		var members []string
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			members = append(members, top)
			if top == n {
				break
			}
		}
		if len(members) > 1 {
			cycles = append(cycles, v.newCycle(members))
		}
	}

	for _, n := range nodes {
		if _, seen := index[n]; !seen {
			visit(n)
		}
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i].RuleID < cycles[j].RuleID })
	return cycles
}

// newCycle collects the rules whose dependency edge stays inside members.
func (v *View) newCycle(members []string) Cycle {
	slices.Sort(members)
	in := make(map[string]bool, len(members))
	for _, m := range members {
		in[m] = true
	}

	var ids []int64
	for _, r := range v.all {
		if in[r.TargetFieldID] && in[r.DependsOnFieldID] && r.TargetFieldID != r.DependsOnFieldID {
			ids = append(ids, r.ID)
		}
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)
	return Cycle{Fields: members, RuleID: ids[0], RuleIDs: ids}
}
