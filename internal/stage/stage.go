// Package stage holds the pending additions and removals that the next
// commit will apply to the current snapshot.
package stage

import (
	"log/slog"
	"sort"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/errs"
	"github.com/systemshift/gitlet/internal/worktree"
)

// Entry is one staged change: a blob to record, or a tombstone.
type Entry struct {
	Blob    dag.Digest `json:"blob,omitempty"`
	Removed bool       `json:"removed,omitempty"`
}

// Area maps a path to its staged change. The zero value is not usable; use
// make or NewArea.
type Area map[string]Entry

// NewArea returns an empty staging area.
func NewArea() Area {
	return make(Area)
}

// Add stages the working copy of path. Adding content identical to the
// current commit's version unstages path instead.
func (a Area) Add(store *dag.ObjectStore, tree *worktree.Tree, current *dag.Commit, path string) error {
	data, err := tree.Read(path)
	if err != nil {
		return err
	}
	d := dag.HashBytes(data)
	if committed, ok := current.Files[path]; ok && committed == d {
		delete(a, path)
		slog.Debug("add matches commit; unstaged", slog.String("path", path))
		return nil
	}
	if _, err := store.PutBlob(data); err != nil {
		return err
	}
	a[path] = Entry{Blob: d}
	slog.Debug("staged", slog.String("path", path), slog.String("blob", d.Short(12)))
	return nil
}

// Remove unstages path and, when the current commit tracks it, stages a
// tombstone and deletes the working file.
func (a Area) Remove(tree *worktree.Tree, current *dag.Commit, path string) error {
	entry, staged := a[path]
	staged = staged && !entry.Removed
	tracked := current.Tracks(path)
	if !staged && !tracked {
		return errs.New(errs.NothingToRemove, "No reason to remove the file.")
	}
	delete(a, path)
	if tracked {
		a[path] = Entry{Removed: true}
		if err := tree.Remove(path); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot applies the staged changes to a copy of current's file map.
func (a Area) Snapshot(current *dag.Commit) map[string]dag.Digest {
	files := dag.CloneFiles(current.Files)
	for path, e := range a {
		if e.Removed {
			delete(files, path)
		}
	}
	for path, e := range a {
		if !e.Removed {
			files[path] = e.Blob
		}
	}
	return files
}

// StageBlob records d for path without reading the working tree.
func (a Area) StageBlob(path string, d dag.Digest) {
	a[path] = Entry{Blob: d}
}

// StageRemoval records a tombstone for path.
func (a Area) StageRemoval(path string) {
	a[path] = Entry{Removed: true}
}

// Clear drops every entry.
func (a Area) Clear() {
	clear(a)
}

// Empty reports whether nothing is staged.
func (a Area) Empty() bool {
	return len(a) == 0
}

// Added returns the paths staged for addition, sorted.
func (a Area) Added() []string {
	return a.paths(false)
}

// Removed returns the paths staged for removal, sorted.
func (a Area) Removed() []string {
	return a.paths(true)
}

func (a Area) paths(removed bool) []string {
	var out []string
	for path, e := range a {
		if e.Removed == removed {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}
