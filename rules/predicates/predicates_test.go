package predicates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/contentgraph/rules"
)

func contextFor(t *testing.T, root, path string) *rules.Context {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return rules.NewContext(rules.Entity{Path: path, CanonicalPath: path, Info: info}, root, false)
}

func fixture(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "content")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "collection", "item"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".hidden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "collection", "item", "data.csv"), []byte("a,b,c\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "collection", "notes.txt"), []byte("notes"), 0644))
	return root
}

func TestFileName(t *testing.T) {
	root := fixture(t)
	ctx := contextFor(t, root, filepath.Join(root, "collection", "notes.txt"))

	p, err := NewFileName("*.txt", "*.csv", "notes.*")
	require.NoError(t, err)

	out, err := p.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, out)

	_, err = NewFileName("[")
	assert.Error(t, err)

	_, err = NewFileName()
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	root := fixture(t)
	ctx := contextFor(t, root, filepath.Join(root, "collection", "item", "data.csv"))

	p, err := NewPath("**/*.csv", "collection/*")
	require.NoError(t, err)

	out, err := p.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, out)
}

func TestKindAndHidden(t *testing.T) {
	root := fixture(t)
	dir := contextFor(t, root, filepath.Join(root, "collection"))
	file := contextFor(t, root, filepath.Join(root, "collection", "notes.txt"))
	hidden := contextFor(t, root, filepath.Join(root, ".hidden"))

	tests := []struct {
		name string
		p    rules.Predicate
		ctx  *rules.Context
		want bool
	}{
		{"directory on dir", Directory(true), dir, true},
		{"directory on file", Directory(true), file, false},
		{"file on file", Directory(false), file, true},
		{"hidden dir", Hidden(true), hidden, true},
		{"visible dir", Hidden(true), dir, false},
		{"not hidden", Hidden(false), file, true},
		{"root", Root(true), contextFor(t, root, root), true},
		{"not root", Root(true), dir, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.p.Evaluate(tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, []bool{tt.want}, out)
		})
	}
}

func TestDepth(t *testing.T) {
	root := fixture(t)
	item := contextFor(t, root, filepath.Join(root, "collection", "item"))

	exact, err := NewDepth(2, 2)
	require.NoError(t, err)
	out, err := exact.Evaluate(item)
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, out)

	open, err := NewDepth(3, -1)
	require.NoError(t, err)
	out, err = open.Evaluate(item)
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, out)

	_, err = NewDepth(3, 1)
	assert.Error(t, err)
	_, err = NewDepth(-1, 1)
	assert.Error(t, err)
}

func TestSize(t *testing.T) {
	root := fixture(t)
	file := contextFor(t, root, filepath.Join(root, "collection", "notes.txt"))
	dir := contextFor(t, root, filepath.Join(root, "collection"))

	tests := []struct {
		op    SizeOp
		bytes int64
		want  bool
	}{
		{SizeEqual, 5, true},
		{SizeLess, 5, false},
		{SizeAtMost, 5, true},
		{SizeGreater, 4, true},
		{SizeAtLeast, 6, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			s, err := NewSize(tt.op, tt.bytes)
			require.NoError(t, err)
			out, err := s.Evaluate(file)
			require.NoError(t, err)
			assert.Equal(t, []bool{tt.want}, out)
		})
	}

	s, err := NewSize(SizeAtLeast, 0)
	require.NoError(t, err)
	out, err := s.Evaluate(dir)
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, out, "directories have no size")

	_, err = NewSize("between", 1)
	assert.Error(t, err)
}

func TestContains(t *testing.T) {
	root := fixture(t)
	collection := contextFor(t, root, filepath.Join(root, "collection"))
	item := contextFor(t, root, filepath.Join(root, "collection", "item"))
	dataFile := contextFor(t, root, filepath.Join(root, "collection", "item", "data.csv"))
	notes := contextFor(t, root, filepath.Join(root, "collection", "notes.txt"))

	subdirs, err := NewContains(EntryDirectory, false)
	require.NoError(t, err)
	parentSubdirs, err := NewContains(EntryDirectory, true)
	require.NoError(t, err)
	files, err := NewContains(EntryFile, false)
	require.NoError(t, err)

	tests := []struct {
		name string
		p    rules.Predicate
		ctx  *rules.Context
		want bool
	}{
		{"collection has subdirectories", subdirs, collection, true},
		{"item has no subdirectories", subdirs, item, false},
		{"item has files", files, item, true},
		{"file is not a directory", files, dataFile, false},
		{"data file parent has no subdirectories", parentSubdirs, dataFile, false},
		{"notes parent has subdirectories", parentSubdirs, notes, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.p.Evaluate(tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, []bool{tt.want}, out)
		})
	}

	_, err = NewContains("socket", false)
	assert.Error(t, err)
}

func TestRootHiddenDirectoryIsIgnoredByContains(t *testing.T) {
	root := fixture(t)
	subdirs, err := NewContains(EntryDirectory, false)
	require.NoError(t, err)

	// root holds "collection" and ".hidden"; removing "collection" leaves only the dot entry
	require.NoError(t, os.RemoveAll(filepath.Join(root, "collection")))
	out, err := subdirs.Evaluate(contextFor(t, root, root))
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, out)
}
