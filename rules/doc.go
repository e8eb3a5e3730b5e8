// Package rules holds the rule model evaluated against every filesystem entity
// during a traversal: the entity context, the boolean test tree, rules with their
// include/exclude action, and the mappings a matched rule produces.
//
// Tests form a closed set of variants:
//   - Leaf wraps an externally supplied Predicate
//   - And, Or and Not combine other tests
//
// Every test evaluates to a non-empty vector of outcomes because a leaf may stand for
// several checks at once (a filename test with three patterns yields three outcomes).
// Or and And collapse their operands' vectors into a single outcome and stop as soon
// as the result is decided.
//
// A RuleSet selects the first rule whose selector matches. Malformed tests and rules
// are rejected with a *ConfigError when the RuleSet is built, never during a walk.
package rules
