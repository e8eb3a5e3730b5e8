package rulespec

import (
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/c360studio/contentgraph/inspect"
	"github.com/c360studio/contentgraph/mapping"
)

// parseValueSource reads a property value expression: name, relative_path, size,
// format, created, modified, checksum[:algorithm] or literal:<text>.
func parseValueSource(expr string) (mapping.ValueSource, error) {
	kind, arg, hasArg := strings.Cut(expr, ":")
	switch kind {
	case "literal":
		if !hasArg {
			return nil, fmt.Errorf("literal needs a value, e.g. literal:text")
		}
		return mapping.Const{arg}, nil
	case "checksum":
		alg := digest.Canonical
		if hasArg {
			a, err := inspect.ParseAlgorithm(arg)
			if err != nil {
				return nil, err
			}
			alg = a
		}
		return mapping.Checksum{Algorithm: alg}, nil
	}
	if hasArg {
		return nil, fmt.Errorf("value %q takes no argument", kind)
	}
	switch kind {
	case "name":
		return mapping.Name{}, nil
	case "relative_path":
		return mapping.RelativePath{}, nil
	case "size":
		return mapping.Size{}, nil
	case "format":
		return mapping.Format{}, nil
	case "created":
		return mapping.Created{}, nil
	case "modified":
		return mapping.Modified{}, nil
	default:
		return nil, fmt.Errorf("unknown value %q", expr)
	}
}

// parseTargetSource reads a relationship target expression: parent, self, root or
// sibling:<suffix>, each optionally followed by #specifier.
func parseTargetSource(expr string) (mapping.TargetSource, error) {
	base, specifier, _ := strings.Cut(expr, "#")
	kind, arg, hasArg := strings.Cut(base, ":")
	if kind == "sibling" {
		if !hasArg || arg == "" {
			return nil, fmt.Errorf("sibling needs a suffix, e.g. sibling:.md5")
		}
		return mapping.Sibling{Suffix: arg, Specifier: specifier}, nil
	}
	if hasArg {
		return nil, fmt.Errorf("target %q takes no argument", kind)
	}
	switch kind {
	case "parent":
		return mapping.Parent{Specifier: specifier}, nil
	case "self":
		return mapping.Self{Specifier: specifier}, nil
	case "root":
		return mapping.Root{Specifier: specifier}, nil
	default:
		return nil, fmt.Errorf("unknown target %q", expr)
	}
}
