package worktree

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/errs"
)

func TestListSkipsDirectories(t *testing.T) {
	root := t.TempDir()
	tree := New(root)
	require.NoError(t, os.Mkdir(filepath.Join(root, ".gitlet"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0755))
	require.NoError(t, tree.Write("b.txt", []byte("b")))
	require.NoError(t, tree.Write("a.txt", []byte("a")))

	names, err := tree.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)
}

func TestReadMissing(t *testing.T) {
	tree := New(t.TempDir())
	_, err := tree.Read("nope.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.FileNotFound)
	assert.Equal(t, "File does not exist.", err.Error())

	_, ok, err := tree.Hash("nope.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRejectsNestedNames(t *testing.T) {
	tree := New(t.TempDir())
	err := tree.Write("dir/file.txt", []byte("x"))
	assert.ErrorIs(t, err, errs.BadArgs)
	assert.False(t, tree.Exists("../escape"))
}

func TestRemoveMissingIsNoop(t *testing.T) {
	tree := New(t.TempDir())
	assert.NoError(t, tree.Remove("ghost.txt"))
}

func TestSnapshot(t *testing.T) {
	tree := New(t.TempDir())
	require.NoError(t, tree.Write("a.txt", []byte("hello")))

	snap, err := tree.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, map[string]dag.Digest{"a.txt": dag.HashBytes([]byte("hello"))}, snap)
}

func TestPlanCheckout(t *testing.T) {
	root := t.TempDir()
	tree := New(root)
	store, err := dag.NewObjectStore(filepath.Join(root, ".gitlet"))
	require.NoError(t, err)

	keep, err := store.PutBlob([]byte("keep"))
	require.NoError(t, err)
	next, err := store.PutBlob([]byte("next"))
	require.NoError(t, err)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	current := dag.NewCommit("cur", ts, "", map[string]dag.Digest{"keep.txt": keep, "old.txt": keep})
	target := dag.NewCommit("tgt", ts, "", map[string]dag.Digest{"keep.txt": next, "new.txt": next})

	require.NoError(t, tree.Write("old.txt", []byte("keep")))
	changes, err := tree.PlanCheckout(store, current, target)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.txt"}, changes.Deletes)
	assert.Equal(t, []byte("next"), changes.Writes["keep.txt"])
	assert.Equal(t, []byte("next"), changes.Writes["new.txt"])

	require.NoError(t, tree.Apply(changes))
	names, err := tree.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.txt", "new.txt"}, names)
}

func TestPlanCheckoutUntracked(t *testing.T) {
	root := t.TempDir()
	tree := New(root)
	store, err := dag.NewObjectStore(filepath.Join(root, ".gitlet"))
	require.NoError(t, err)
	d, err := store.PutBlob([]byte("theirs"))
	require.NoError(t, err)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	current := dag.NewCommit("cur", ts, "", nil)
	target := dag.NewCommit("tgt", ts, "", map[string]dag.Digest{"x.txt": d})

	require.NoError(t, tree.Write("x.txt", []byte("mine")))
	_, err = tree.PlanCheckout(store, current, target)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.UntrackedInTheWay)

	data, err := tree.Read("x.txt")
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}
