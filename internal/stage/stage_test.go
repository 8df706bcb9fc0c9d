package stage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/errs"
	"github.com/systemshift/gitlet/internal/worktree"
)

type fixture struct {
	store *dag.ObjectStore
	tree  *worktree.Tree
	head  *dag.Commit
}

func newFixture(t *testing.T, committed map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	store, err := dag.NewObjectStore(filepath.Join(root, ".gitlet"))
	require.NoError(t, err)
	tree := worktree.New(root)

	files := make(map[string]dag.Digest)
	for name, content := range committed {
		d, err := store.PutBlob([]byte(content))
		require.NoError(t, err)
		files[name] = d
		require.NoError(t, tree.Write(name, []byte(content)))
	}
	head := dag.NewCommit("base", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "", files)
	_, err = store.PutCommit(head)
	require.NoError(t, err)
	return &fixture{store: store, tree: tree, head: head}
}

func TestAddStoresBlob(t *testing.T) {
	f := newFixture(t, nil)
	area := NewArea()
	require.NoError(t, f.tree.Write("new.txt", []byte("fresh")))

	require.NoError(t, area.Add(f.store, f.tree, f.head, "new.txt"))
	d := dag.HashBytes([]byte("fresh"))
	assert.Equal(t, Entry{Blob: d}, area["new.txt"])
	assert.True(t, f.store.Has(dag.KindBlob, d))
	assert.Equal(t, []string{"new.txt"}, area.Added())
}

func TestAddMissingFile(t *testing.T) {
	f := newFixture(t, nil)
	err := NewArea().Add(f.store, f.tree, f.head, "ghost.txt")
	assert.ErrorIs(t, err, errs.FileNotFound)
}

func TestReAddUnmodifiedUnstages(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": "hello"})
	area := NewArea()

	require.NoError(t, f.tree.Write("a.txt", []byte("changed")))
	require.NoError(t, area.Add(f.store, f.tree, f.head, "a.txt"))
	require.False(t, area.Empty())

	require.NoError(t, f.tree.Write("a.txt", []byte("hello")))
	require.NoError(t, area.Add(f.store, f.tree, f.head, "a.txt"))
	assert.True(t, area.Empty())
}

func TestRemoveTracked(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": "hello"})
	area := NewArea()

	require.NoError(t, area.Remove(f.tree, f.head, "a.txt"))
	assert.Equal(t, []string{"a.txt"}, area.Removed())
	assert.False(t, f.tree.Exists("a.txt"))
}

func TestRemoveStagedOnlyKeepsFile(t *testing.T) {
	f := newFixture(t, nil)
	area := NewArea()
	require.NoError(t, f.tree.Write("new.txt", []byte("x")))
	require.NoError(t, area.Add(f.store, f.tree, f.head, "new.txt"))

	require.NoError(t, area.Remove(f.tree, f.head, "new.txt"))
	assert.True(t, area.Empty())
	assert.True(t, f.tree.Exists("new.txt"))
}

func TestRemoveNothing(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.tree.Write("loose.txt", []byte("x")))
	err := NewArea().Remove(f.tree, f.head, "loose.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.NothingToRemove)
	assert.Equal(t, "No reason to remove the file.", err.Error())
}

func TestSnapshotAppliesRemovalsThenAdds(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": "a", "b.txt": "b"})
	area := NewArea()
	area.StageRemoval("a.txt")
	c := dag.HashBytes([]byte("c"))
	area.StageBlob("c.txt", c)

	snap := area.Snapshot(f.head)
	assert.Equal(t, map[string]dag.Digest{
		"b.txt": f.head.Files["b.txt"],
		"c.txt": c,
	}, snap)
	// the commit's own map is untouched
	assert.Contains(t, f.head.Files, "a.txt")

	area.Clear()
	assert.True(t, area.Empty())
}
