package rules

import "fmt"

// ConfigError reports a rule that cannot be used. It is returned while a RuleSet
// is being built.
type ConfigError struct {
	Rule string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("invalid rule configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid rule %q: %v", e.Rule, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
