package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/errs"
)

func TestSaveLoad(t *testing.T) {
	l := LayoutFor(t.TempDir())
	require.NoError(t, os.MkdirAll(l.Dir, 0755))

	root := dag.HashBytes([]byte("root"))
	s := New("master", root)
	s.Branches["feature"] = root
	s.Staging.StageBlob("a.txt", dag.HashBytes([]byte("a")))
	s.Staging.StageRemoval("b.txt")
	s.Remotes["origin"] = "../other/.gitlet"
	require.NoError(t, s.Save(l))
	assert.True(t, l.Exists())

	got, err := Load(l)
	require.NoError(t, err)
	assert.Equal(t, s, got)
	assert.Equal(t, root, got.HeadCommit())
	assert.Equal(t, []string{"feature", "master"}, got.BranchNames())
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(LayoutFor(t.TempDir()))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.NotInitialized)
	assert.Equal(t, "Not in an initialized Gitlet directory.", err.Error())
}

func TestLoadRejectsDanglingHead(t *testing.T) {
	l := LayoutFor(t.TempDir())
	require.NoError(t, os.MkdirAll(l.Dir, 0755))
	require.NoError(t, os.WriteFile(l.StatePath(), []byte(`{"head":"gone","branches":{}}`), 0644))

	_, err := Load(l)
	assert.Error(t, err)
}

func TestLayoutPaths(t *testing.T) {
	l := LayoutFor("/work")
	assert.Equal(t, filepath.Join("/work", ".gitlet", "state.json"), l.StatePath())
	assert.Equal(t, filepath.Join("/work", ".gitlet", "config.yaml"), l.ConfigPath())
	assert.Equal(t, "origin/master", TrackingBranch("origin", "master"))
}
