package rules

import (
	"errors"
	"fmt"
)

// Predicate is a leaf test. It returns one outcome per check it represents.
type Predicate interface {
	Evaluate(ctx *Context) ([]bool, error)
}

// PredicateFunc adapts an ordinary function to a Predicate.
type PredicateFunc func(ctx *Context) ([]bool, error)

// Evaluate calls f(ctx).
func (f PredicateFunc) Evaluate(ctx *Context) ([]bool, error) {
	return f(ctx)
}

// TestKind enumerates the test variants.
type TestKind int

const (
	KindLeaf TestKind = iota
	KindAnd
	KindOr
	KindNot
)

func (k TestKind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindNot:
		return "not"
	default:
		return fmt.Sprintf("TestKind(%d)", int(k))
	}
}

// Test is a node of a boolean test tree.
type Test struct {
	kind      TestKind
	predicate Predicate
	operands  []Test
}

// Leaf returns a test evaluating p.
func Leaf(p Predicate) Test {
	return Test{kind: KindLeaf, predicate: p}
}

// And returns a test that is true when every outcome of every operand is true.
func And(operands ...Test) Test {
	return Test{kind: KindAnd, operands: operands}
}

// Or returns a test that is true when any outcome of any operand is true.
func Or(operands ...Test) Test {
	return Test{kind: KindOr, operands: operands}
}

// Not returns a test negating the single outcome of its operand.
func Not(operand Test) Test {
	return Test{kind: KindNot, operands: []Test{operand}}
}

// Kind returns the variant of t.
func (t Test) Kind() TestKind { return t.kind }

// Operands returns the child tests of a combinator.
func (t Test) Operands() []Test { return t.operands }

// Validate checks the shape of the tree.
func (t Test) Validate() error {
	switch t.kind {
	case KindLeaf:
		if t.predicate == nil {
			return errors.New("leaf test has no predicate")
		}
		return nil
	case KindAnd, KindOr:
		if len(t.operands) == 0 {
			return fmt.Errorf("%s test requires at least one operand", t.kind)
		}
	case KindNot:
		if len(t.operands) != 1 {
			return fmt.Errorf("not test requires exactly one operand, got %d", len(t.operands))
		}
	default:
		return fmt.Errorf("unknown test kind %s", t.kind)
	}
	for i, op := range t.operands {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("%s operand %d: %w", t.kind, i, err)
		}
	}
	return nil
}

// Evaluate runs the test against ctx. The result is never empty.
func (t Test) Evaluate(ctx *Context) ([]bool, error) {
	switch t.kind {
	case KindLeaf:
		return t.evaluateLeaf(ctx)
	case KindOr:
		for _, op := range t.operands {
			outcomes, err := op.Evaluate(ctx)
			if err != nil {
				return nil, err
			}
			for _, ok := range outcomes {
				if ok {
					return []bool{true}, nil
				}
			}
		}
		return []bool{false}, nil
	case KindAnd:
		for _, op := range t.operands {
			outcomes, err := op.Evaluate(ctx)
			if err != nil {
				return nil, err
			}
			for _, ok := range outcomes {
				if !ok {
					return []bool{false}, nil
				}
			}
		}
		return []bool{true}, nil
	case KindNot:
		if len(t.operands) != 1 {
			return nil, fmt.Errorf("not test requires exactly one operand, got %d", len(t.operands))
		}
		outcomes, err := t.operands[0].Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		if len(outcomes) != 1 {
			return nil, fmt.Errorf("not test operand produced %d outcomes, want 1", len(outcomes))
		}
		return []bool{!outcomes[0]}, nil
	default:
		return nil, fmt.Errorf("unknown test kind %s", t.kind)
	}
}

func (t Test) evaluateLeaf(ctx *Context) ([]bool, error) {
	if t.predicate == nil {
		return nil, errors.New("leaf test has no predicate")
	}
	outcomes, err := t.predicate.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if len(outcomes) == 0 {
		return nil, errors.New("leaf test produced no outcomes")
	}
	return outcomes, nil
}

// allTrue reports whether every outcome holds.
func allTrue(outcomes []bool) bool {
	for _, ok := range outcomes {
		if !ok {
			return false
		}
	}
	return len(outcomes) > 0
}
