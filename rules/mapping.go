package rules

// Target names the resource a relationship points at: an entity path and, when
// that entity fans out into several resources, the specifier of one of them.
type Target struct {
	Path      string
	Specifier string
}

// Mapping is one logical resource produced for a matched entity.
type Mapping struct {
	// Type is the resource type, e.g. "Collection" or "DataFile".
	Type string

	// Specifier disambiguates the resources of an entity that yields more than one mapping.
	Specifier string

	// Properties maps a predicate to its literal values.
	Properties map[string][]string

	// Relationships maps a predicate to the resources it points at.
	Relationships map[string][]Target
}

// NewMapping returns an empty mapping of the given type.
func NewMapping(resourceType string) Mapping {
	return Mapping{
		Type:          resourceType,
		Properties:    make(map[string][]string),
		Relationships: make(map[string][]Target),
	}
}

// AddProperty appends literal values for predicate.
func (m *Mapping) AddProperty(predicate string, values ...string) {
	if m.Properties == nil {
		m.Properties = make(map[string][]string)
	}
	m.Properties[predicate] = append(m.Properties[predicate], values...)
}

// AddRelationship appends relationship targets for predicate.
func (m *Mapping) AddRelationship(predicate string, targets ...Target) {
	if m.Relationships == nil {
		m.Relationships = make(map[string][]Target)
	}
	m.Relationships[predicate] = append(m.Relationships[predicate], targets...)
}

// MappingTemplate materializes the mappings of a matched entity.
type MappingTemplate interface {
	Materialize(ctx *Context) ([]Mapping, error)
}

// MappingTemplateFunc adapts an ordinary function to a MappingTemplate.
type MappingTemplateFunc func(ctx *Context) ([]Mapping, error)

// Materialize calls f(ctx).
func (f MappingTemplateFunc) Materialize(ctx *Context) ([]Mapping, error) {
	return f(ctx)
}
