package mapping

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/c360studio/contentgraph/inspect"
	"github.com/c360studio/contentgraph/rules"
)

// ValueFunc adapts a function to a ValueSource.
type ValueFunc func(ctx *rules.Context) ([]string, error)

// Values calls f(ctx).
func (f ValueFunc) Values(ctx *rules.Context) ([]string, error) { return f(ctx) }

// Const yields fixed values.
type Const []string

// Values implements ValueSource.
func (c Const) Values(*rules.Context) ([]string, error) { return []string(c), nil }

// Name yields the entity's base name.
type Name struct{}

// Values implements ValueSource.
func (Name) Values(ctx *rules.Context) ([]string, error) {
	return []string{ctx.Entity().Name()}, nil
}

// RelativePath yields the entity path relative to the traversal root.
type RelativePath struct{}

// Values implements ValueSource.
func (RelativePath) Values(ctx *rules.Context) ([]string, error) {
	return []string{ctx.RelativePath()}, nil
}

// Size yields the byte size of a file. Directories have none.
type Size struct{}

// Values implements ValueSource.
func (Size) Values(ctx *rules.Context) ([]string, error) {
	if ctx.Info() == nil || ctx.IsDir() {
		return nil, nil
	}
	return []string{inspect.Size(ctx.Info())}, nil
}

// Format yields the detected MIME type.
type Format struct{}

// Values implements ValueSource.
func (Format) Values(ctx *rules.Context) ([]string, error) {
	f, err := inspect.Format(ctx.Path())
	if err != nil {
		return nil, err
	}
	return []string{f}, nil
}

// Modified yields the modification timestamp.
type Modified struct{}

// Values implements ValueSource.
func (Modified) Values(ctx *rules.Context) ([]string, error) {
	if ctx.Info() == nil {
		return nil, nil
	}
	return []string{inspect.Modified(ctx.Info())}, nil
}

// Created yields the creation timestamp.
type Created struct{}

// Values implements ValueSource.
func (Created) Values(ctx *rules.Context) ([]string, error) {
	if ctx.Info() == nil {
		return nil, nil
	}
	return []string{inspect.Created(ctx.Info())}, nil
}

// Checksum yields the content digest of a file as "algorithm:hex". Directories have
// none.
type Checksum struct {
	Algorithm digest.Algorithm
}

// Values implements ValueSource.
func (c Checksum) Values(ctx *rules.Context) ([]string, error) {
	if ctx.IsDir() {
		return nil, nil
	}
	sum, err := inspect.Checksum(ctx.Path(), c.Algorithm)
	if err != nil {
		return nil, err
	}
	return []string{sum.String()}, nil
}

// TargetFunc adapts a function to a TargetSource.
type TargetFunc func(ctx *rules.Context) ([]rules.Target, error)

// Targets calls f(ctx).
func (f TargetFunc) Targets(ctx *rules.Context) ([]rules.Target, error) { return f(ctx) }

// Parent points at the entity's parent directory. The root has no parent inside the
// traversal, so it yields nothing.
type Parent struct {
	Specifier string
}

// Targets implements TargetSource.
func (p Parent) Targets(ctx *rules.Context) ([]rules.Target, error) {
	if ctx.IsRoot() {
		return nil, nil
	}
	return []rules.Target{{Path: ctx.Parent(), Specifier: p.Specifier}}, nil
}

// Self points at another resource of the same entity.
type Self struct {
	Specifier string
}

// Targets implements TargetSource.
func (s Self) Targets(ctx *rules.Context) ([]rules.Target, error) {
	return []rules.Target{{Path: ctx.Path(), Specifier: s.Specifier}}, nil
}

// Root points at the traversal root.
type Root struct {
	Specifier string
}

// Targets implements TargetSource.
func (r Root) Targets(ctx *rules.Context) ([]rules.Target, error) {
	return []rules.Target{{Path: ctx.Root(), Specifier: r.Specifier}}, nil
}

// Sibling points at the entry in the same directory whose name is this entity's name
// without Suffix, e.g. "data.csv" for "data.csv.md5". Names without the suffix
// yield nothing.
type Sibling struct {
	Suffix    string
	Specifier string
}

// Targets implements TargetSource.
func (s Sibling) Targets(ctx *rules.Context) ([]rules.Target, error) {
	if s.Suffix == "" {
		return nil, fmt.Errorf("sibling target requires a suffix")
	}
	name := ctx.Entity().Name()
	base, ok := strings.CutSuffix(name, s.Suffix)
	if !ok || base == "" {
		return nil, nil
	}
	return []rules.Target{{Path: filepath.Join(ctx.Parent(), base), Specifier: s.Specifier}}, nil
}
