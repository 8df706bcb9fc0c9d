package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemshift/gitlet/internal/errs"
	"github.com/systemshift/gitlet/internal/repo"
)

func run(t *testing.T, dir string, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(append([]string{"-C", dir}, args...))
	return rootCmd.Execute()
}

func TestCommandsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run(t, dir, "init"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one"), 0644))
	require.NoError(t, run(t, dir, "add", "a.txt"))
	require.NoError(t, run(t, dir, "commit", "first"))

	require.NoError(t, run(t, dir, "branch", "dev"))
	require.NoError(t, run(t, dir, "checkout", "dev"))
	r, err := repo.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, "dev", r.State.Head)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("two"), 0644))
	require.NoError(t, run(t, dir, "checkout", "--", "a.txt"))
	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, errs.NotInitialized, errs.KindOf(run(t, dir, "status")))
	require.NoError(t, run(t, dir, "init"))
	assert.Equal(t, errs.AlreadyInitialized, errs.KindOf(run(t, dir, "init")))
	assert.Equal(t, errs.BadArgs, errs.KindOf(run(t, dir, "add")))
	assert.Equal(t, errs.EmptyMessage, errs.KindOf(run(t, dir, "commit", "")))
	assert.Equal(t, errs.BadArgs, errs.KindOf(run(t, dir, "checkout", "a", "b")))
	assert.Equal(t, errs.NoMatchingCommit, errs.KindOf(run(t, dir, "find", "nothing")))
}
