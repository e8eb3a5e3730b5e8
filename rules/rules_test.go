package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLeaf returns fixed outcomes and records how often it ran.
type countingLeaf struct {
	outcomes []bool
	calls    int
}

func (l *countingLeaf) Evaluate(*Context) ([]bool, error) {
	l.calls++
	return l.outcomes, nil
}

func leaf(outcomes ...bool) *countingLeaf {
	return &countingLeaf{outcomes: outcomes}
}

func testContext() *Context {
	return NewContext(Entity{Path: "/data/content/a"}, "/data/content", false)
}

func TestOr_ShortCircuits(t *testing.T) {
	a, b, c := leaf(false), leaf(true), leaf(false)

	out, err := Or(Leaf(a), Leaf(b), Leaf(c)).Evaluate(testContext())
	require.NoError(t, err)

	assert.Equal(t, []bool{true}, out)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 0, c.calls, "operand after the first true outcome must not run")
}

func TestOr_AnyOutcomeWithinOperand(t *testing.T) {
	multi := leaf(false, false, true)
	after := leaf(true)

	out, err := Or(Leaf(multi), Leaf(after)).Evaluate(testContext())
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, out)
	assert.Equal(t, 0, after.calls)
}

func TestOr_NoTrueOutcome(t *testing.T) {
	out, err := Or(Leaf(leaf(false, false)), Leaf(leaf(false))).Evaluate(testContext())
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, out)
}

func TestAnd_ShortCircuits(t *testing.T) {
	a, b, c := leaf(true), leaf(false), leaf(true)

	out, err := And(Leaf(a), Leaf(b), Leaf(c)).Evaluate(testContext())
	require.NoError(t, err)

	assert.Equal(t, []bool{false}, out)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 0, c.calls, "operand after the first false outcome must not run")
}

func TestAnd_AllTrue(t *testing.T) {
	out, err := And(Leaf(leaf(true, true)), Leaf(leaf(true))).Evaluate(testContext())
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, out)
}

func TestNot(t *testing.T) {
	t.Run("negates single outcome", func(t *testing.T) {
		out, err := Not(Leaf(leaf(false))).Evaluate(testContext())
		require.NoError(t, err)
		assert.Equal(t, []bool{true}, out)
	})

	t.Run("negates combinator", func(t *testing.T) {
		out, err := Not(Or(Leaf(leaf(false)), Leaf(leaf(true)))).Evaluate(testContext())
		require.NoError(t, err)
		assert.Equal(t, []bool{false}, out)
	})

	t.Run("rejects multiple outcomes", func(t *testing.T) {
		_, err := Not(Leaf(leaf(true, false))).Evaluate(testContext())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 outcomes")
	})
}

func TestLeaf_Errors(t *testing.T) {
	t.Run("empty outcome vector", func(t *testing.T) {
		_, err := Leaf(leaf()).Evaluate(testContext())
		require.Error(t, err)
	})

	t.Run("predicate error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		failing := PredicateFunc(func(*Context) ([]bool, error) { return nil, boom })
		_, err := Or(Leaf(failing)).Evaluate(testContext())
		assert.ErrorIs(t, err, boom)
	})
}

func TestTest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		test    Test
		wantErr string
	}{
		{"valid leaf", Leaf(leaf(true)), ""},
		{"nil predicate", Leaf(nil), "no predicate"},
		{"empty or", Or(), "at least one operand"},
		{"empty and", And(), "at least one operand"},
		{"not arity", Test{kind: KindNot, operands: []Test{Leaf(leaf(true)), Leaf(leaf(true))}}, "exactly one operand"},
		{"nested invalid", And(Leaf(leaf(true)), Or()), "and operand 1"},
		{"zero value", Test{}, "no predicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.test.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRuleSet_FirstMatchWins(t *testing.T) {
	first := leaf(true)
	second := leaf(true)

	rs, err := NewRuleSet(
		Rule{Name: "first", Test: Leaf(first), Action: ActionExclude},
		Rule{Name: "second", Test: Leaf(second), Action: ActionInclude},
	)
	require.NoError(t, err)

	rule, err := rs.Select(testContext())
	require.NoError(t, err)
	require.NotNil(t, rule)

	assert.Equal(t, "first", rule.Name)
	assert.Equal(t, ActionExclude, rule.Action)
	assert.Equal(t, 0, second.calls)
}

func TestRuleSet_SelectorNeedsAllOutcomes(t *testing.T) {
	rs, err := NewRuleSet(
		Rule{Name: "partial", Test: Leaf(leaf(true, false)), Action: ActionInclude},
		Rule{Name: "full", Test: Leaf(leaf(true, true)), Action: ActionInclude},
	)
	require.NoError(t, err)

	rule, err := rs.Select(testContext())
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, "full", rule.Name)
}

func TestRuleSet_NoMatch(t *testing.T) {
	rs, err := NewRuleSet(Rule{Name: "never", Test: Leaf(leaf(false)), Action: ActionInclude})
	require.NoError(t, err)

	rule, err := rs.Select(testContext())
	require.NoError(t, err)
	assert.Nil(t, rule)
}

func TestNewRuleSet_ConfigErrors(t *testing.T) {
	t.Run("malformed selector", func(t *testing.T) {
		_, err := NewRuleSet(Rule{Name: "bad", Test: Not(Or()), Action: ActionInclude})
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "bad", cfgErr.Rule)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := NewRuleSet(Rule{Test: Leaf(leaf(true)), Action: "archive"})
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "#0", cfgErr.Rule)
	})

	t.Run("nil template", func(t *testing.T) {
		_, err := NewRuleSet(Rule{Name: "t", Test: Leaf(leaf(true)), Action: ActionInclude, Templates: []MappingTemplate{nil}})
		require.Error(t, err)
	})
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Include ")
	require.NoError(t, err)
	assert.Equal(t, ActionInclude, a)

	_, err = ParseAction("skip")
	assert.Error(t, err)
}

func TestRule_Materialize(t *testing.T) {
	fixed := func(ms ...Mapping) MappingTemplate {
		return MappingTemplateFunc(func(*Context) ([]Mapping, error) { return ms, nil })
	}

	t.Run("single mapping keeps empty specifier", func(t *testing.T) {
		r := Rule{Name: "one", Templates: []MappingTemplate{fixed(NewMapping("DataFile"))}}
		ms, err := r.Materialize(testContext())
		require.NoError(t, err)
		require.Len(t, ms, 1)
		assert.Empty(t, ms[0].Specifier)
	})

	t.Run("fan out defaults specifiers", func(t *testing.T) {
		r := Rule{Name: "pair", Templates: []MappingTemplate{fixed(NewMapping("DataItem")), fixed(NewMapping("DataFile"))}}
		ms, err := r.Materialize(testContext())
		require.NoError(t, err)
		require.Len(t, ms, 2)
		assert.Equal(t, "0", ms[0].Specifier)
		assert.Equal(t, "1", ms[1].Specifier)
	})

	t.Run("duplicate specifier rejected", func(t *testing.T) {
		a := NewMapping("DataItem")
		a.Specifier = "x"
		b := NewMapping("DataFile")
		b.Specifier = "x"
		r := Rule{Name: "dup", Templates: []MappingTemplate{fixed(a, b)}}
		_, err := r.Materialize(testContext())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate specifier")
	})
}

func TestContext_Paths(t *testing.T) {
	root := NewContext(Entity{Path: "/data/content"}, "/data/content", false)
	assert.Equal(t, ".", root.RelativePath())
	assert.Equal(t, 0, root.Depth())
	assert.True(t, root.IsRoot())

	nested := NewContext(Entity{Path: "/data/content/c1/item/file"}, "/data/content", true)
	assert.Equal(t, "c1/item/file", nested.RelativePath())
	assert.Equal(t, 3, nested.Depth())
	assert.Equal(t, "/data/content/c1/item", nested.Parent())
	assert.True(t, nested.Ignored())
	assert.False(t, nested.IsDir())
}
