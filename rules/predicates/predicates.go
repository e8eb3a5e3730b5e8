// Package predicates provides the leaf tests used by rule selectors: name and path
// globs, entity kind, hidden entries, depth, size and directory contents.
package predicates

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/contentgraph/rules"
)

// FileName matches the entity's base name against glob patterns. It yields one
// outcome per pattern.
type FileName struct {
	patterns []string
}

// NewFileName validates the patterns.
func NewFileName(patterns ...string) (*FileName, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("filename test requires at least one pattern")
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid filename pattern %q", p)
		}
	}
	return &FileName{patterns: patterns}, nil
}

// Evaluate implements rules.Predicate.
func (f *FileName) Evaluate(ctx *rules.Context) ([]bool, error) {
	name := ctx.Entity().Name()
	out := make([]bool, len(f.patterns))
	for i, p := range f.patterns {
		ok, err := doublestar.Match(p, name)
		if err != nil {
			return nil, fmt.Errorf("match %q: %w", p, err)
		}
		out[i] = ok
	}
	return out, nil
}

// Path matches the entity path relative to the traversal root against glob
// patterns such as "**/metadata/*.xml". It yields one outcome per pattern.
type Path struct {
	patterns []string
}

// NewPath validates the patterns.
func NewPath(patterns ...string) (*Path, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("path test requires at least one pattern")
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid path pattern %q", p)
		}
	}
	return &Path{patterns: patterns}, nil
}

// Evaluate implements rules.Predicate.
func (p *Path) Evaluate(ctx *rules.Context) ([]bool, error) {
	rel := ctx.RelativePath()
	out := make([]bool, len(p.patterns))
	for i, pattern := range p.patterns {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return nil, fmt.Errorf("match %q: %w", pattern, err)
		}
		out[i] = ok
	}
	return out, nil
}

// Directory is true for directories when want is true, for files otherwise.
type Directory bool

// Evaluate implements rules.Predicate.
func (d Directory) Evaluate(ctx *rules.Context) ([]bool, error) {
	return []bool{ctx.IsDir() == bool(d)}, nil
}

// Hidden is true for entries whose name starts with a dot when want is true.
type Hidden bool

// Evaluate implements rules.Predicate.
func (h Hidden) Evaluate(ctx *rules.Context) ([]bool, error) {
	name := ctx.Entity().Name()
	hidden := strings.HasPrefix(name, ".") && name != "." && name != ".."
	return []bool{hidden == bool(h)}, nil
}

// Root is true for the traversal root when want is true.
type Root bool

// Evaluate implements rules.Predicate.
func (r Root) Evaluate(ctx *rules.Context) ([]bool, error) {
	return []bool{ctx.IsRoot() == bool(r)}, nil
}

// Depth bounds how far below the root an entity sits. A negative Max means no
// upper bound.
type Depth struct {
	Min int
	Max int
}

// NewDepth validates the bounds.
func NewDepth(min, max int) (Depth, error) {
	if min < 0 {
		return Depth{}, fmt.Errorf("depth minimum must not be negative, got %d", min)
	}
	if max >= 0 && max < min {
		return Depth{}, fmt.Errorf("depth maximum %d is below minimum %d", max, min)
	}
	return Depth{Min: min, Max: max}, nil
}

// Evaluate implements rules.Predicate.
func (d Depth) Evaluate(ctx *rules.Context) ([]bool, error) {
	depth := ctx.Depth()
	ok := depth >= d.Min && (d.Max < 0 || depth <= d.Max)
	return []bool{ok}, nil
}

// SizeOp compares a file size with a threshold.
type SizeOp string

const (
	SizeLess    SizeOp = "lt"
	SizeAtMost  SizeOp = "le"
	SizeEqual   SizeOp = "eq"
	SizeAtLeast SizeOp = "ge"
	SizeGreater SizeOp = "gt"
)

// Size compares the entity size in bytes. Directories never match.
type Size struct {
	Op    SizeOp
	Bytes int64
}

// NewSize validates the comparison.
func NewSize(op SizeOp, bytes int64) (Size, error) {
	switch op {
	case SizeLess, SizeAtMost, SizeEqual, SizeAtLeast, SizeGreater:
	default:
		return Size{}, fmt.Errorf("unknown size comparison %q", op)
	}
	if bytes < 0 {
		return Size{}, fmt.Errorf("size threshold must not be negative, got %d", bytes)
	}
	return Size{Op: op, Bytes: bytes}, nil
}

// Evaluate implements rules.Predicate.
func (s Size) Evaluate(ctx *rules.Context) ([]bool, error) {
	info := ctx.Info()
	if info == nil || info.IsDir() {
		return []bool{false}, nil
	}
	n := info.Size()
	var ok bool
	switch s.Op {
	case SizeLess:
		ok = n < s.Bytes
	case SizeAtMost:
		ok = n <= s.Bytes
	case SizeEqual:
		ok = n == s.Bytes
	case SizeAtLeast:
		ok = n >= s.Bytes
	case SizeGreater:
		ok = n > s.Bytes
	default:
		return nil, fmt.Errorf("unknown size comparison %q", s.Op)
	}
	return []bool{ok}, nil
}

// EntryKind selects directory entries by kind.
type EntryKind string

const (
	EntryDirectory EntryKind = "directory"
	EntryFile      EntryKind = "file"
)

// Contains is true when a directory holds at least one visible entry of Kind.
// With Parent set the directory examined is the entity's parent, which lets a file
// rule ask what its siblings look like.
type Contains struct {
	Kind   EntryKind
	Parent bool
}

// NewContains validates the entry kind.
func NewContains(kind EntryKind, parent bool) (Contains, error) {
	switch kind {
	case EntryDirectory, EntryFile:
		return Contains{Kind: kind, Parent: parent}, nil
	default:
		return Contains{}, fmt.Errorf("unknown entry kind %q (valid: directory, file)", kind)
	}
}

// Evaluate implements rules.Predicate.
func (c Contains) Evaluate(ctx *rules.Context) ([]bool, error) {
	dir := ctx.Path()
	if c.Parent {
		dir = ctx.Parent()
	} else if !ctx.IsDir() {
		return []bool{false}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		isDir := e.IsDir()
		if e.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(dir, e.Name()))
			if err != nil {
				continue
			}
			isDir = info.IsDir()
		}
		if isDir == (c.Kind == EntryDirectory) {
			return []bool{true}, nil
		}
	}
	return []bool{false}, nil
}
