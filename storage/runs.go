// Package storage records generation runs in NATS KV so consumers of the published
// graph can tell which run produced it and whether it finished.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
)

// BucketRuns is the KV bucket holding run records.
const BucketRuns = "CONTENTGRAPH_RUNS"

// RunStatus represents the status of a generation run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run represents one generation of the resource graph.
type Run struct {
	ID          string     `json:"id"`
	Root        string     `json:"root"`
	Rules       string     `json:"rules"`
	Status      RunStatus  `json:"status"`
	Resources   int        `json:"resources"`
	Published   int        `json:"published"`
	Digest      string     `json:"digest,omitempty"`
	Changes     []string   `json:"changes,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// bucket is the subset of a KV bucket the store uses.
type bucket interface {
	put(ctx context.Context, key string, value []byte) error
	get(ctx context.Context, key string) ([]byte, error)
	keys(ctx context.Context) ([]string, error)
}

type kvBucket struct {
	kv jetstream.KeyValue
}

func (b kvBucket) put(ctx context.Context, key string, value []byte) error {
	_, err := b.kv.Put(ctx, key, value)
	return err
}

func (b kvBucket) get(ctx context.Context, key string) ([]byte, error) {
	entry, err := b.kv.Get(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry.Value(), nil
}

func (b kvBucket) keys(ctx context.Context) ([]string, error) {
	keys, err := b.kv.Keys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return nil, nil
	}
	return keys, err
}

// Store provides run storage operations backed by NATS KV.
type Store struct {
	runs bucket
	now  func() time.Time
}

// NewStore creates a new Store with the given JetStream context.
// It creates the runs bucket if it doesn't exist.
func NewStore(ctx context.Context, js jetstream.JetStream) (*Store, error) {
	runs, err := getOrCreateBucket(ctx, js, BucketRuns)
	if err != nil {
		return nil, fmt.Errorf("create runs bucket: %w", err)
	}
	return newStore(kvBucket{kv: runs}), nil
}

func newStore(b bucket) *Store {
	return &Store{runs: b, now: time.Now}
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("contentgraph %s storage", strings.ToLower(name)),
		History:     5, // Keep last 5 revisions
	})
}

// StartRun records a new running generation of root and returns it.
func (s *Store) StartRun(ctx context.Context, root, rules string, changes []string) (*Run, error) {
	r := &Run{
		ID:        uuid.New().String(),
		Root:      root,
		Rules:     rules,
		Status:    RunStatusRunning,
		Changes:   changes,
		StartedAt: s.now().UTC(),
	}
	if err := s.save(ctx, r); err != nil {
		return nil, fmt.Errorf("store run: %w", err)
	}
	return r, nil
}

// CompleteRun marks a run finished. A non-nil runErr marks it failed.
func (s *Store) CompleteRun(ctx context.Context, r *Run, runErr error) error {
	if r.Status != RunStatusRunning {
		return fmt.Errorf("run %s already %s", r.ID, r.Status)
	}
	now := s.now().UTC()
	r.CompletedAt = &now
	r.Status = RunStatusComplete
	if runErr != nil {
		r.Status = RunStatusFailed
		r.Error = runErr.Error()
	}
	if err := s.save(ctx, r); err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	data, err := s.runs.get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}

	var r Run
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}
	return &r, nil
}

// ListRuns returns the runs of root, newest first. An empty root lists every run.
func (s *Store) ListRuns(ctx context.Context, root string) ([]*Run, error) {
	keys, err := s.runs.keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list run keys: %w", err)
	}

	runs := make([]*Run, 0, len(keys))
	for _, key := range keys {
		r, err := s.GetRun(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}
		if root == "" || r.Root == root {
			runs = append(runs, r)
		}
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	return runs, nil
}

// LatestRun returns the most recent completed run of root.
func (s *Store) LatestRun(ctx context.Context, root string) (*Run, error) {
	runs, err := s.ListRuns(ctx, root)
	if err != nil {
		return nil, err
	}
	for _, r := range runs {
		if r.Status == RunStatusComplete {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Store) save(ctx context.Context, r *Run) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	return s.runs.put(ctx, r.ID, data)
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound) || (err != nil && strings.Contains(err.Error(), "key not found"))
}
