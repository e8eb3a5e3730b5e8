// Package watch regenerates the resource graph when files under the content root
// change. Changes are collected for a debounce period, filtered by content digest,
// and handed to a single regeneration at a time.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"

	"github.com/c360studio/contentgraph/inspect"
)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	// Debounce is how long changes accumulate before a regeneration.
	Debounce time.Duration

	// ExcludeDirs lists directory names that are never watched.
	ExcludeDirs []string
}

// Operation indicates the type of file operation.
type Operation string

// OpCreate, OpModify and OpDelete enumerate the change kinds.
const (
	OpCreate Operation = "create"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

// Change is a file change that survived debouncing and digest comparison.
type Change struct {
	// Path is relative to the watched root.
	Path      string
	Operation Operation
}

// RegenerateFunc rebuilds whatever depends on the content tree. It receives the
// changes since the previous call; the initial call gets none.
type RegenerateFunc func(ctx context.Context, changes []Change) error

// Watcher watches a content tree and calls a RegenerateFunc on change.
type Watcher struct {
	root       string
	debounce   time.Duration
	excludes   map[string]bool
	regenerate RegenerateFunc
	logger     *slog.Logger
	fsw        *fsnotify.Watcher

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// Digest-based change detection, keyed by absolute path
	digestMu sync.Mutex
	digests  map[string]digest.Digest

	flight singleflight.Group
	runs   atomic.Int64
	fails  atomic.Int64
}

// New creates a Watcher for root. The tree is not watched until Run.
func New(root string, cfg Config, regenerate RegenerateFunc, logger *slog.Logger) (*Watcher, error) {
	if regenerate == nil {
		return nil, errors.New("watch: regenerate function is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	excludes := make(map[string]bool, len(cfg.ExcludeDirs))
	for _, dir := range cfg.ExcludeDirs {
		excludes[dir] = true
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		root:       root,
		debounce:   debounce,
		excludes:   excludes,
		regenerate: regenerate,
		logger:     logger,
		fsw:        fsw,
		pending:    make(map[string]fsnotify.Op),
		digests:    make(map[string]digest.Digest),
	}, nil
}

// Run records the current file digests, performs the initial regeneration and then
// regenerates after each debounced batch of changes until ctx is done. Failed
// regenerations are logged and do not stop the watcher; a failed initial one does.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if err := w.addWatchesRecursive(w.root); err != nil {
		return err
	}
	if err := w.Trigger(ctx, nil); err != nil {
		return fmt.Errorf("initial generation: %w", err)
	}

	w.logger.Info("Watching content tree",
		slog.String("root", w.root),
		slog.Duration("debounce", w.debounce))

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			changes := w.flushPending()
			if len(changes) == 0 {
				continue
			}
			if err := w.Trigger(ctx, changes); err != nil {
				w.logger.Error("Regeneration failed",
					slog.Int("changes", len(changes)),
					slog.String("error", err.Error()))
			}
		}
	}
}

// Trigger runs a regeneration now. Calls that overlap a running regeneration wait
// for it and share its result.
func (w *Watcher) Trigger(ctx context.Context, changes []Change) error {
	_, err, shared := w.flight.Do("regenerate", func() (any, error) {
		w.runs.Add(1)
		err := w.regenerate(ctx, changes)
		if err != nil {
			w.fails.Add(1)
		}
		return nil, err
	})
	if shared {
		w.logger.Debug("Joined running regeneration")
	}
	return err
}

// Runs returns how many regenerations have started.
func (w *Watcher) Runs() int64 { return w.runs.Load() }

// Failures returns how many regenerations returned an error.
func (w *Watcher) Failures() int64 { return w.fails.Load() }

func (w *Watcher) skipDir(path string) bool {
	if path == w.root {
		return false
	}
	base := filepath.Base(path)
	return w.excludes[base] || strings.HasPrefix(base, ".")
}

// addWatchesRecursive watches every directory below root and records file digests.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			w.recordDigest(path)
			return nil
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				slog.String("path", path),
				slog.String("error", err.Error()))
		} else {
			w.logger.Debug("Watching directory", slog.String("path", path))
		}
		return nil
	})
}

func (w *Watcher) recordDigest(path string) (digest.Digest, bool) {
	d, err := inspect.Checksum(path, digest.Canonical)
	if err != nil {
		return "", false
	}
	w.digestMu.Lock()
	defer w.digestMu.Unlock()
	old, had := w.digests[path]
	w.digests[path] = d
	return old, had && old == d
}

// handleFSEvent processes a single fsnotify event.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.skipDir(path) {
				return
			}
			// Files may land in the directory before its watch exists
			if err := w.addWatchesRecursive(path); err != nil {
				w.logger.Warn("Failed to watch new directory",
					slog.String("path", path),
					slog.String("error", err.Error()))
			}
		}
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return
	}
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if w.excludes[part] {
			return
		}
	}

	// Accumulate pending changes
	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Change detected",
		slog.String("path", rel),
		slog.String("op", event.Op.String()))
}

// flushPending turns accumulated events into changes, dropping files whose
// content digest did not change.
func (w *Watcher) flushPending() []Change {
	w.pendingMu.Lock()
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	changes := make([]Change, 0, len(toProcess))
	for path, op := range toProcess {
		rel, _ := filepath.Rel(w.root, path)

		info, err := os.Stat(path)
		if err != nil {
			w.digestMu.Lock()
			delete(w.digests, path)
			w.digestMu.Unlock()
			changes = append(changes, Change{Path: rel, Operation: OpDelete})
			continue
		}
		if info.IsDir() {
			operation := OpModify
			if op.Has(fsnotify.Create) {
				operation = OpCreate
			}
			changes = append(changes, Change{Path: rel, Operation: operation})
			continue
		}

		w.digestMu.Lock()
		_, had := w.digests[path]
		w.digestMu.Unlock()

		if _, unchanged := w.recordDigest(path); unchanged {
			continue
		}
		operation := OpModify
		if !had {
			operation = OpCreate
		}
		changes = append(changes, Change{Path: rel, Operation: operation})
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}
