package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Action is what happens to an entity a rule selects.
type Action string

const (
	// ActionInclude maps the entity into the graph.
	ActionInclude Action = "include"

	// ActionExclude ignores the entity and everything below it.
	ActionExclude Action = "exclude"
)

// ParseAction parses a case-insensitive action name.
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionInclude:
		return ActionInclude, nil
	case ActionExclude:
		return ActionExclude, nil
	default:
		return "", fmt.Errorf("unknown action %q (valid: include, exclude)", s)
	}
}

// Rule pairs a selector with an action and the templates used on inclusion.
type Rule struct {
	Name      string
	Test      Test
	Action    Action
	Templates []MappingTemplate
}

// Validate checks the rule is usable.
func (r Rule) Validate() error {
	if err := r.Test.Validate(); err != nil {
		return fmt.Errorf("selector: %w", err)
	}
	switch r.Action {
	case ActionInclude, ActionExclude:
	default:
		return fmt.Errorf("unknown action %q", r.Action)
	}
	for i, tmpl := range r.Templates {
		if tmpl == nil {
			return fmt.Errorf("mapping template %d is nil", i)
		}
	}
	return nil
}

// Select reports whether every outcome of the selector holds for ctx.
func (r Rule) Select(ctx *Context) (bool, error) {
	outcomes, err := r.Test.Evaluate(ctx)
	if err != nil {
		return false, err
	}
	return allTrue(outcomes), nil
}

// Materialize returns the mappings the rule produces for ctx. When more than one
// mapping results, each carries a distinct specifier; a missing specifier defaults
// to the mapping's position.
func (r Rule) Materialize(ctx *Context) ([]Mapping, error) {
	var mappings []Mapping
	for _, tmpl := range r.Templates {
		ms, err := tmpl.Materialize(ctx)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, ms...)
	}
	if len(mappings) < 2 {
		return mappings, nil
	}

	seen := make(map[string]bool, len(mappings))
	for i := range mappings {
		if mappings[i].Specifier == "" {
			mappings[i].Specifier = strconv.Itoa(i)
		}
		if seen[mappings[i].Specifier] {
			return nil, fmt.Errorf("rule %q produced duplicate specifier %q", r.Name, mappings[i].Specifier)
		}
		seen[mappings[i].Specifier] = true
	}
	return mappings, nil
}

// RuleSet is an ordered list of rules.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet validates rules and keeps their order.
func NewRuleSet(rules ...Rule) (*RuleSet, error) {
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			name := r.Name
			if name == "" {
				name = "#" + strconv.Itoa(i)
			}
			return nil, &ConfigError{Rule: name, Err: err}
		}
	}
	return &RuleSet{rules: append([]Rule(nil), rules...)}, nil
}

// Rules returns the rules in declaration order.
func (s *RuleSet) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Len returns the number of rules.
func (s *RuleSet) Len() int { return len(s.rules) }

// Select returns the first rule matching ctx, or nil when none does. Rules after
// the match are not evaluated.
func (s *RuleSet) Select(ctx *Context) (*Rule, error) {
	if s == nil {
		return nil, errors.New("nil rule set")
	}
	for i := range s.rules {
		ok, err := s.rules[i].Select(ctx)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", s.rules[i].Name, err)
		}
		if ok {
			return &s.rules[i], nil
		}
	}
	return nil, nil
}
