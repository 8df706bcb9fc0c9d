// Package worktree reads and writes the user's working files.
//
// The working tree is flat: only regular files directly inside the root are
// tracked, and the repository's own directory is never listed.
package worktree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/errs"
)

// Tree is a working directory.
type Tree struct {
	root string
}

// New returns the working tree rooted at root.
func New(root string) *Tree {
	return &Tree{root: root}
}

// Root returns the working directory path.
func (t *Tree) Root() string {
	return t.root
}

func (t *Tree) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".tmp-") {
		return "", errs.Newf(errs.BadArgs, "invalid file name %q", name)
	}
	return filepath.Join(t.root, name), nil
}

// Exists reports whether name is a regular file in the tree.
func (t *Tree) Exists(name string) bool {
	p, err := t.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Read returns the content of name, or errs.FileNotFound.
func (t *Tree) Read(name string) ([]byte, error) {
	p, err := t.path(name)
	if err != nil {
		return nil, errs.Wrap(errs.FileNotFound, err, "File does not exist.")
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Wrap(errs.FileNotFound, err, "File does not exist.")
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Hash returns the digest of name's current content. ok is false when the
// file is missing.
func (t *Tree) Hash(name string) (d dag.Digest, ok bool, err error) {
	data, err := t.Read(name)
	if errors.Is(err, errs.FileNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return dag.HashBytes(data), true, nil
}

// Write replaces name's content atomically.
func (t *Tree) Write(name string, data []byte) error {
	p, err := t.path(name)
	if err != nil {
		return err
	}
	if err := dag.SafeWrite(p, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Remove deletes name. A missing file is not an error.
func (t *Tree) Remove(name string) error {
	p, err := t.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// List returns the names of all regular files in the tree, sorted.
func (t *Tree) List() ([]string, error) {
	entries, err := os.ReadDir(t.root)
	if err != nil {
		return nil, fmt.Errorf("list working tree: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".tmp-") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Snapshot hashes every file in the tree.
func (t *Tree) Snapshot() (map[string]dag.Digest, error) {
	names, err := t.List()
	if err != nil {
		return nil, err
	}
	out := make(map[string]dag.Digest, len(names))
	for _, name := range names {
		d, ok, err := t.Hash(name)
		if err != nil {
			return nil, err
		}
		if ok {
			out[name] = d
		}
	}
	return out, nil
}
