// Package engine walks a content tree once, classifies every entity with an ordered
// rule set and builds the resulting resource graph.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/c360studio/contentgraph/graph"
	"github.com/c360studio/contentgraph/resource"
	"github.com/c360studio/contentgraph/rules"
	"github.com/c360studio/contentgraph/vocabulary/packaging"
)

// DefaultSourceTag identifies triples produced by this engine.
const DefaultSourceTag = "contentgraph"

// Engine generates resource graphs. An Engine holds no per-run state, so concurrent
// GenerateGraph calls are independent.
type Engine struct {
	rules   *rules.RuleSet
	logger  *slog.Logger
	metrics *Metrics
	mint    resource.Minter
	source  string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics enables prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithMinter replaces the identifier minter.
func WithMinter(m resource.Minter) Option {
	return func(e *Engine) { e.mint = m }
}

// WithSourceTag sets the source recorded on triples derived from generated graphs.
func WithSourceTag(s string) Option {
	return func(e *Engine) {
		if s != "" {
			e.source = s
		}
	}
}

// New creates an engine for rs.
func New(rs *rules.RuleSet, opts ...Option) *Engine {
	e := &Engine{
		rules:  rs,
		logger: slog.Default(),
		mint:   resource.UUIDMinter,
		source: DefaultSourceTag,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SourceTag returns the source recorded on triples.
func (e *Engine) SourceTag() string { return e.source }

// GenerateGraph walks the tree under root and returns its resource graph. On error
// no graph is returned.
func (e *Engine) GenerateGraph(ctx context.Context, root string) (g *graph.Graph, err error) {
	start := time.Now()
	defer func() { e.metrics.run(start, err) }()

	root, err = validateRoot(root)
	if err != nil {
		return nil, err
	}
	if e.rules == nil {
		return nil, newError(KindRuleEvaluation, root, "no rule set configured", nil)
	}

	r := &run{
		engine:     e,
		root:       root,
		rootParent: filepath.Dir(root),
		visited:    make(map[string]string),
		registry:   resource.NewRegistry(e.mint),
		builder:    graph.NewBuilder(),
	}
	if err := r.walk(ctx); err != nil {
		e.logger.Warn("Graph generation failed", "root", root, "error", err)
		return nil, err
	}

	g = r.builder.Graph()
	e.metrics.resources(r.populated)
	e.logger.Info("Generated resource graph",
		"root", root,
		"entities", len(r.visited)+r.dangling,
		"resources", g.Len(),
		"edges", len(g.Edges()),
		"duration", time.Since(start))
	return g, nil
}

func validateRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", newError(KindInvalidRoot, "", "root directory must not be empty", nil)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", newError(KindInvalidRoot, root, "cannot resolve root directory", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", newError(KindInvalidRoot, abs, "root directory does not exist", err)
		}
		return "", newError(KindInvalidRoot, abs, "root directory cannot be read", err)
	}
	if info.IsDir() && filepath.Dir(abs) == abs {
		return "", &Error{
			Kind:       KindInvalidRoot,
			Path:       abs,
			Message:    "root directory must not be a filesystem root",
			Resolution: "Choose the directory holding the content, not the filesystem root.",
		}
	}
	if info.IsDir() {
		f, err := os.Open(abs)
		if err != nil {
			return "", newError(KindInvalidRoot, abs, "root directory cannot be read", err)
		}
		_, err = f.ReadDir(1)
		f.Close()
		if err != nil && !errors.Is(err, io.EOF) {
			return "", newError(KindInvalidRoot, abs, "root directory cannot be read", err)
		}
	}
	return abs, nil
}

// run holds the state of one GenerateGraph call.
type run struct {
	engine     *Engine
	root       string
	rootParent string

	// visited maps canonical paths to the path they were first reached by.
	visited   map[string]string
	registry  *resource.Registry
	builder   *graph.Builder
	populated int
	dangling  int
}

type frame struct {
	path    string
	ignored bool
}

func (r *run) walk(ctx context.Context) error {
	stack := []frame{{path: r.root}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		rc, err := r.enter(f)
		if err != nil {
			return err
		}
		if err := r.visit(rc); err != nil {
			return err
		}
		if !rc.IsDir() {
			continue
		}

		entries, err := os.ReadDir(f.path)
		if err != nil {
			return newError(KindEntityAccess, f.path, "cannot list directory", err)
		}
		for i := len(entries) - 1; i >= 0; i-- {
			stack = append(stack, frame{
				path:    filepath.Join(f.path, entries[i].Name()),
				ignored: rc.Ignored(),
			})
		}
	}
	return nil
}

// enter resolves an entity and records it as visited.
func (r *run) enter(f frame) (*rules.Context, error) {
	canonical, info, dangling, err := resolve(f.path)
	if err != nil {
		return nil, newError(KindEntityAccess, f.path, "cannot resolve path", err)
	}
	if dangling {
		// several links may point at the same missing target
		r.dangling++
		r.engine.logger.Debug("Dangling symbolic link", "path", f.path, "target", canonical)
	} else {
		if _, seen := r.visited[canonical]; seen {
			return nil, r.cycleError(f.path, canonical)
		}
		r.visited[canonical] = f.path
	}

	entity := rules.Entity{Path: f.path, CanonicalPath: canonical, Info: info}
	return rules.NewContext(entity, r.root, f.ignored), nil
}

// resolve returns the canonical path and file info of path. A dangling symbolic
// link resolves lexically to its target and is described by its own Lstat info, so
// it is treated as a file.
func resolve(path string) (canonical string, info fs.FileInfo, dangling bool, err error) {
	canonical, err = filepath.EvalSymlinks(path)
	if err == nil {
		info, err = os.Stat(path)
		if err != nil {
			return "", nil, false, err
		}
		return canonical, info, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", nil, false, err
	}

	lst, lerr := os.Lstat(path)
	if lerr != nil || lst.Mode()&os.ModeSymlink == 0 {
		return "", nil, false, err
	}
	target, lerr := os.Readlink(path)
	if lerr != nil {
		return "", nil, false, err
	}
	if !filepath.IsAbs(target) {
		parent, perr := filepath.EvalSymlinks(filepath.Dir(path))
		if perr != nil {
			return "", nil, false, err
		}
		target = filepath.Join(parent, target)
	}
	return filepath.Clean(target), lst, true, nil
}

func (r *run) cycleError(path, canonical string) *Error {
	e := newError(KindSymlinkCycle, path, "Symbolic link cycle detected", nil)
	if lst, err := os.Lstat(path); err == nil && lst.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			target = canonical
		}
		e.Resolution = fmt.Sprintf("Fix offending symbolic link at %s, which points to %s", path, target)
		return e
	}
	e.Resolution = fmt.Sprintf("There is a symbolic link under %s which points to %s. Find the link and remove it.", r.root, canonical)
	return e
}

// visit applies the rule set to one entity.
func (r *run) visit(rc *rules.Context) error {
	logger := r.engine.logger
	if rc.Ignored() {
		r.engine.metrics.entity(OutcomeIgnored)
		return nil
	}

	rule, err := r.engine.rules.Select(rc)
	if err != nil {
		return newError(KindRuleEvaluation, rc.Path(), "Error applying rules to pathname", err)
	}
	if rule == nil {
		r.engine.metrics.entity(OutcomeUnmatched)
		logger.Debug("No rule matched", "path", rc.Path())
		return nil
	}

	switch rule.Action {
	case rules.ActionExclude:
		rc.SetIgnored(true)
		r.engine.metrics.entity(OutcomeExcluded)
		logger.Debug("Excluded entity", "path", rc.Path(), "rule", rule.Name)
		return nil
	case rules.ActionInclude:
		mappings, err := rule.Materialize(rc)
		if err != nil {
			return newError(KindRuleEvaluation, rc.Path(), "Error applying rules to pathname", err)
		}
		if err := r.populate(rc, mappings); err != nil {
			return err
		}
		r.engine.metrics.entity(OutcomeIncluded)
		logger.Debug("Included entity", "path", rc.Path(), "rule", rule.Name, "resources", len(mappings))
		return nil
	default:
		return newError(KindRuleEvaluation, rc.Path(), fmt.Sprintf("rule %q has unknown action %q", rule.Name, rule.Action), nil)
	}
}

// populate adds the resources of one included entity. Keys, not visitation order,
// determine identity, so resources referenced before their entity is visited end up
// on the same node.
func (r *run) populate(rc *rules.Context, mappings []rules.Mapping) error {
	rel, err := r.relative(rc.Path())
	if err != nil {
		return newError(KindRuleEvaluation, rc.Path(), "Error applying rules to pathname", err)
	}
	fanOut := len(mappings) > 1

	for _, m := range mappings {
		specifier := ""
		if fanOut {
			specifier = m.Specifier
		}
		id, err := r.assign(rc.Path(), resource.Key(rel, specifier))
		if err != nil {
			return err
		}

		r.builder.EnsureNode(id)
		r.builder.AddLiteral(id, packaging.ResourceSource, rel)

		for _, pred := range sortedKeys(m.Properties) {
			for _, v := range m.Properties[pred] {
				r.builder.AddLiteral(id, pred, v)
			}
		}
		for _, pred := range sortedKeys(m.Relationships) {
			for _, t := range m.Relationships[pred] {
				targetRel, err := r.relative(t.Path)
				if err != nil {
					return newError(KindRuleEvaluation, rc.Path(), "Error applying rules to pathname", err)
				}
				target, err := r.assign(t.Path, resource.Key(targetRel, t.Specifier))
				if err != nil {
					return err
				}
				r.builder.AddEdge(id, pred, target)
			}
		}
		r.builder.AddLiteral(id, graph.TypePredicate, m.Type)
		r.populated++
	}
	return nil
}

func (r *run) assign(path, key string) (string, error) {
	id, err := r.registry.FindOrAssignURI(key)
	if err != nil {
		return "", newError(KindIdentifierAssignment, path, "cannot assign identifier", err)
	}
	return id, nil
}

// relative returns path relative to the root's parent, slash separated. Paths outside
// the root are rejected.
func (r *run) relative(path string) (string, error) {
	rel, err := filepath.Rel(r.rootParent, filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("relativize %s: %w", path, err)
	}
	rel = filepath.ToSlash(rel)
	rootName := filepath.Base(r.root)
	if rel != rootName && !strings.HasPrefix(rel, rootName+"/") {
		return "", fmt.Errorf("path %s is outside the traversal root %s", path, r.root)
	}
	return rel, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
