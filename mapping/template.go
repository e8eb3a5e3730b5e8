// Package mapping provides the declarative mapping templates attached to include
// rules. A Template turns the entity under a rule into one resource description:
// its type, literal properties drawn from value sources and relationships to the
// resources of other entities.
package mapping

import (
	"fmt"

	"github.com/c360studio/contentgraph/rules"
)

// ValueSource yields literal values for a property. An empty result attaches nothing.
type ValueSource interface {
	Values(ctx *rules.Context) ([]string, error)
}

// TargetSource yields the entities a relationship points at.
type TargetSource interface {
	Targets(ctx *rules.Context) ([]rules.Target, error)
}

// Template describes one resource produced for a selected entity.
type Template struct {
	Type          string
	Specifier     string
	Properties    map[string][]ValueSource
	Relationships map[string][]TargetSource
}

// New creates a template for resources of the given type.
func New(resourceType string) *Template {
	return &Template{
		Type:          resourceType,
		Properties:    make(map[string][]ValueSource),
		Relationships: make(map[string][]TargetSource),
	}
}

// WithSpecifier sets the specifier distinguishing this resource from others produced
// for the same entity.
func (t *Template) WithSpecifier(s string) *Template {
	t.Specifier = s
	return t
}

// Property adds value sources for predicate.
func (t *Template) Property(predicate string, sources ...ValueSource) *Template {
	t.Properties[predicate] = append(t.Properties[predicate], sources...)
	return t
}

// Relationship adds target sources for predicate.
func (t *Template) Relationship(predicate string, sources ...TargetSource) *Template {
	t.Relationships[predicate] = append(t.Relationships[predicate], sources...)
	return t
}

// Validate checks the template can be materialized.
func (t *Template) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("mapping template has no type")
	}
	for pred, sources := range t.Properties {
		if pred == "" {
			return fmt.Errorf("mapping template %s: empty property predicate", t.Type)
		}
		for i, s := range sources {
			if s == nil {
				return fmt.Errorf("mapping template %s: property %s source %d is nil", t.Type, pred, i)
			}
		}
	}
	for pred, sources := range t.Relationships {
		if pred == "" {
			return fmt.Errorf("mapping template %s: empty relationship predicate", t.Type)
		}
		for i, s := range sources {
			if s == nil {
				return fmt.Errorf("mapping template %s: relationship %s target %d is nil", t.Type, pred, i)
			}
		}
	}
	return nil
}

// Materialize implements rules.MappingTemplate.
func (t *Template) Materialize(ctx *rules.Context) ([]rules.Mapping, error) {
	m := rules.NewMapping(t.Type)
	m.Specifier = t.Specifier

	for pred, sources := range t.Properties {
		for _, src := range sources {
			values, err := src.Values(ctx)
			if err != nil {
				return nil, fmt.Errorf("property %s of %s: %w", pred, t.Type, err)
			}
			if len(values) > 0 {
				m.AddProperty(pred, values...)
			}
		}
	}
	for pred, sources := range t.Relationships {
		for _, src := range sources {
			targets, err := src.Targets(ctx)
			if err != nil {
				return nil, fmt.Errorf("relationship %s of %s: %w", pred, t.Type, err)
			}
			if len(targets) > 0 {
				m.AddRelationship(pred, targets...)
			}
		}
	}
	return []rules.Mapping{m}, nil
}
