// Package rulespec loads rule sets from YAML.
//
// A rule file lists rules in evaluation order. Each rule has a selector test, an
// action and, for include rules, the resources produced for a selected entity:
//
//	rules:
//	  - name: data-file
//	    select:
//	      and:
//	        - directory: false
//	        - name: ["*.csv", "*.tsv"]
//	    action: include
//	    resources:
//	      - type: DataFile
//	        properties:
//	          packaging.file.size: [size]
//	          packaging.file.checksum: ["checksum:sha256"]
//	        relationships:
//	          packaging.membership.member_of: [parent]
//
// Tests are mappings with exactly one key: and, or, not, or one of the leaf tests
// name, path, directory, hidden, root, depth, size, contains, parent_contains.
// Every structural problem is reported when the file is loaded, as a
// *rules.ConfigError naming the rule.
package rulespec

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/contentgraph/mapping"
	"github.com/c360studio/contentgraph/rules"
)

//go:embed default-rules.yaml
var defaultRules []byte

// CurrentVersion is the rule file format version this package reads.
const CurrentVersion = 1

var validate = validator.New()

// File is the YAML document.
type File struct {
	Version int        `yaml:"version" validate:"gte=0,lte=1"`
	Rules   []RuleSpec `yaml:"rules" validate:"required,min=1"`
}

// RuleSpec is one rule as written in YAML.
type RuleSpec struct {
	Name      string         `yaml:"name" validate:"required"`
	Select    *TestSpec      `yaml:"select" validate:"required"`
	Action    string         `yaml:"action" validate:"required,oneof=include exclude"`
	Resources []ResourceSpec `yaml:"resources" validate:"dive"`
}

// ResourceSpec describes one resource produced by an include rule.
type ResourceSpec struct {
	Type          string              `yaml:"type" validate:"required"`
	Specifier     string              `yaml:"specifier,omitempty"`
	Properties    map[string][]string `yaml:"properties,omitempty"`
	Relationships map[string][]string `yaml:"relationships,omitempty"`
}

// DefaultYAML returns the embedded stock rules.
func DefaultYAML() []byte {
	return bytes.Clone(defaultRules)
}

// Default builds the embedded stock rule set.
func Default() (*rules.RuleSet, error) {
	return Parse(defaultRules)
}

// LoadFile reads and builds a rule file.
func LoadFile(path string) (*rules.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load rules %s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes YAML and builds the rule set.
func Parse(data []byte) (*rules.RuleSet, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Build(f)
}

// Decode decodes a rule file without building it. Unknown keys are rejected.
func Decode(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return &f, nil
}

// Build validates f and converts it into a rule set.
func Build(f *File) (*rules.RuleSet, error) {
	if err := validate.Struct(f); err != nil {
		return nil, &rules.ConfigError{Err: err}
	}

	built := make([]rules.Rule, 0, len(f.Rules))
	seen := make(map[string]bool, len(f.Rules))
	for i := range f.Rules {
		rs := &f.Rules[i]
		name := rs.Name
		if name == "" {
			name = "#" + strconv.Itoa(i)
		}
		if seen[name] {
			return nil, &rules.ConfigError{Rule: name, Err: fmt.Errorf("duplicate rule name")}
		}
		seen[name] = true

		r, err := buildRule(rs)
		if err != nil {
			return nil, &rules.ConfigError{Rule: name, Err: err}
		}
		built = append(built, r)
	}
	return rules.NewRuleSet(built...)
}

func buildRule(rs *RuleSpec) (rules.Rule, error) {
	if err := validate.Struct(rs); err != nil {
		return rules.Rule{}, err
	}
	action, err := rules.ParseAction(rs.Action)
	if err != nil {
		return rules.Rule{}, err
	}
	if action == rules.ActionExclude && len(rs.Resources) > 0 {
		return rules.Rule{}, fmt.Errorf("exclude rule must not declare resources")
	}

	test, err := buildTest(rs.Select)
	if err != nil {
		return rules.Rule{}, fmt.Errorf("select: %w", err)
	}

	r := rules.Rule{Name: rs.Name, Test: test, Action: action}
	for i := range rs.Resources {
		tmpl, err := buildTemplate(&rs.Resources[i])
		if err != nil {
			return rules.Rule{}, fmt.Errorf("resource %d: %w", i, err)
		}
		r.Templates = append(r.Templates, tmpl)
	}
	return r, nil
}

func buildTemplate(spec *ResourceSpec) (*mapping.Template, error) {
	tmpl := mapping.New(spec.Type).WithSpecifier(spec.Specifier)
	for pred, values := range spec.Properties {
		for _, v := range values {
			src, err := parseValueSource(v)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", pred, err)
			}
			tmpl.Property(pred, src)
		}
	}
	for pred, targets := range spec.Relationships {
		for _, v := range targets {
			src, err := parseTargetSource(v)
			if err != nil {
				return nil, fmt.Errorf("relationship %s: %w", pred, err)
			}
			tmpl.Relationship(pred, src)
		}
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return tmpl, nil
}
