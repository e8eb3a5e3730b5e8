package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBucket struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memBucket) put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memBucket) get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (m *memBucket) keys(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.data))
	for k := range m.data {
		out = append(out, k)
	}
	return out, nil
}

func testStore() *Store {
	s := newStore(&memBucket{})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var n int
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return s
}

func TestStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := testStore()

	r, err := s.StartRun(ctx, "/data/content", "default", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, RunStatusRunning, r.Status)

	r.Resources = 7
	r.Published = 7
	r.Digest = "sha256:abc"
	require.NoError(t, s.CompleteRun(ctx, r, nil))

	got, err := s.GetRun(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusComplete, got.Status)
	assert.Equal(t, 7, got.Resources)
	assert.Equal(t, "sha256:abc", got.Digest)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.After(got.StartedAt))

	assert.Error(t, s.CompleteRun(ctx, got, nil), "completing twice is rejected")
}

func TestStore_FailedRun(t *testing.T) {
	ctx := context.Background()
	s := testStore()

	r, err := s.StartRun(ctx, "/data/content", "rules.yaml", []string{"a.txt"})
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(ctx, r, errors.New("symbolic link cycle")))

	got, err := s.GetRun(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "symbolic link cycle", got.Error)
	assert.Equal(t, []string{"a.txt"}, got.Changes)
}

func TestStore_ListAndLatest(t *testing.T) {
	ctx := context.Background()
	s := testStore()

	first, err := s.StartRun(ctx, "/a", "default", nil)
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(ctx, first, nil))

	second, err := s.StartRun(ctx, "/a", "default", nil)
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(ctx, second, errors.New("boom")))

	other, err := s.StartRun(ctx, "/b", "default", nil)
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx, "/a")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID, "newest first")

	all, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	latest, err := s.LatestRun(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, first.ID, latest.ID, "failed runs are skipped")

	_, err = s.LatestRun(ctx, other.Root)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetMissing(t *testing.T) {
	_, err := testStore().GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
