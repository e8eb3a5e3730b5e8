package rulespec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/contentgraph/rules"
	"github.com/c360studio/contentgraph/rules/predicates"
)

// TestSpec is a selector test as written in YAML: a mapping with exactly one key.
type TestSpec struct {
	Kind     string     `validate:"-"`
	Operands []TestSpec `validate:"-"`
	Arg      yaml.Node  `validate:"-"`
	Line     int        `validate:"-"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *TestSpec) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: test must be a mapping", n.Line)
	}
	if len(n.Content) != 2 {
		return fmt.Errorf("line %d: test must have exactly one key, got %d", n.Line, len(n.Content)/2)
	}
	t.Kind = n.Content[0].Value
	t.Line = n.Line
	val := n.Content[1]

	switch t.Kind {
	case "and", "or":
		if val.Kind != yaml.SequenceNode {
			return fmt.Errorf("line %d: %s takes a list of tests", val.Line, t.Kind)
		}
		return val.Decode(&t.Operands)
	case "not":
		if val.Kind == yaml.SequenceNode {
			return val.Decode(&t.Operands)
		}
		var one TestSpec
		if err := val.Decode(&one); err != nil {
			return err
		}
		t.Operands = []TestSpec{one}
		return nil
	default:
		t.Arg = *val
		return nil
	}
}

func buildTest(spec *TestSpec) (rules.Test, error) {
	switch spec.Kind {
	case "and", "or":
		ops := make([]rules.Test, 0, len(spec.Operands))
		for i := range spec.Operands {
			op, err := buildTest(&spec.Operands[i])
			if err != nil {
				return rules.Test{}, err
			}
			ops = append(ops, op)
		}
		if spec.Kind == "and" {
			return rules.And(ops...), nil
		}
		return rules.Or(ops...), nil
	case "not":
		if len(spec.Operands) != 1 {
			return rules.Test{}, fmt.Errorf("line %d: not takes exactly one test, got %d", spec.Line, len(spec.Operands))
		}
		op, err := buildTest(&spec.Operands[0])
		if err != nil {
			return rules.Test{}, err
		}
		return rules.Not(op), nil
	}

	p, err := buildPredicate(spec.Kind, &spec.Arg)
	if err != nil {
		return rules.Test{}, fmt.Errorf("line %d: %s: %w", spec.Line, spec.Kind, err)
	}
	return rules.Leaf(p), nil
}

func buildPredicate(kind string, arg *yaml.Node) (rules.Predicate, error) {
	switch kind {
	case "name":
		patterns, err := stringList(arg)
		if err != nil {
			return nil, err
		}
		return predicates.NewFileName(patterns...)
	case "path":
		patterns, err := stringList(arg)
		if err != nil {
			return nil, err
		}
		return predicates.NewPath(patterns...)
	case "directory", "hidden", "root":
		var b bool
		if err := arg.Decode(&b); err != nil {
			return nil, fmt.Errorf("want true or false: %w", err)
		}
		switch kind {
		case "directory":
			return predicates.Directory(b), nil
		case "hidden":
			return predicates.Hidden(b), nil
		default:
			return predicates.Root(b), nil
		}
	case "depth":
		return buildDepth(arg)
	case "size":
		return buildSize(arg)
	case "contains", "parent_contains":
		var s string
		if err := arg.Decode(&s); err != nil {
			return nil, err
		}
		return predicates.NewContains(predicates.EntryKind(s), kind == "parent_contains")
	default:
		return nil, fmt.Errorf("unknown test")
	}
}

func stringList(n *yaml.Node) ([]string, error) {
	if n.Kind == yaml.ScalarNode {
		return []string{n.Value}, nil
	}
	var out []string
	if err := n.Decode(&out); err != nil {
		return nil, fmt.Errorf("want a string or list of strings: %w", err)
	}
	return out, nil
}

// buildDepth accepts an exact depth or {min, max}; a missing max is unbounded.
func buildDepth(n *yaml.Node) (rules.Predicate, error) {
	if n.Kind == yaml.ScalarNode {
		d, err := strconv.Atoi(n.Value)
		if err != nil {
			return nil, fmt.Errorf("want an integer: %w", err)
		}
		return predicates.NewDepth(d, d)
	}
	bounds := struct {
		Min int  `yaml:"min"`
		Max *int `yaml:"max"`
	}{}
	if err := n.Decode(&bounds); err != nil {
		return nil, err
	}
	upper := -1
	if bounds.Max != nil {
		upper = *bounds.Max
	}
	return predicates.NewDepth(bounds.Min, upper)
}

// buildSize accepts {op, bytes} where bytes may be a human size such as "10MB".
func buildSize(n *yaml.Node) (rules.Predicate, error) {
	spec := struct {
		Op    string `yaml:"op"`
		Bytes string `yaml:"bytes"`
	}{}
	if err := n.Decode(&spec); err != nil {
		return nil, err
	}
	n64, err := units.FromHumanSize(strings.TrimSpace(spec.Bytes))
	if err != nil {
		return nil, fmt.Errorf("size %q: %w", spec.Bytes, err)
	}
	return predicates.NewSize(predicates.SizeOp(spec.Op), n64)
}
