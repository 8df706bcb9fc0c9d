package worktree

import (
	"sort"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/errs"
)

// UntrackedMessage is reported when a checkout or merge would overwrite a
// file the current commit does not track.
const UntrackedMessage = "There is an untracked file in the way; delete it, or add and commit it first."

// Changes is a set of working-tree mutations computed before any is applied.
type Changes struct {
	Writes  map[string][]byte
	Deletes []string
}

// Empty reports whether applying c would touch nothing.
func (c *Changes) Empty() bool {
	return len(c.Writes) == 0 && len(c.Deletes) == 0
}

// Apply writes then deletes. Writes are applied in name order.
func (t *Tree) Apply(c *Changes) error {
	names := make([]string, 0, len(c.Writes))
	for name := range c.Writes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := t.Write(name, c.Writes[name]); err != nil {
			return err
		}
	}
	for _, name := range c.Deletes {
		if err := t.Remove(name); err != nil {
			return err
		}
	}
	return nil
}

// CheckUntracked fails with errs.UntrackedInTheWay when a file tracked by
// target but not by current is present on disk.
func (t *Tree) CheckUntracked(current, target map[string]dag.Digest) error {
	for _, name := range sortedKeys(target) {
		if _, tracked := current[name]; tracked {
			continue
		}
		if t.Exists(name) {
			return errs.New(errs.UntrackedInTheWay, UntrackedMessage)
		}
	}
	return nil
}

// PlanCheckout computes the changes that replace the files of current with
// those of target: every file in target is written and every file tracked by
// current but absent from target is deleted.
func (t *Tree) PlanCheckout(store *dag.ObjectStore, current, target *dag.Commit) (*Changes, error) {
	if err := t.CheckUntracked(current.Files, target.Files); err != nil {
		return nil, err
	}
	c := &Changes{Writes: make(map[string][]byte, len(target.Files))}
	for name, d := range target.Files {
		data, err := store.GetBlob(d)
		if err != nil {
			return nil, err
		}
		c.Writes[name] = data
	}
	for _, name := range current.Paths() {
		if !target.Tracks(name) {
			c.Deletes = append(c.Deletes, name)
		}
	}
	return c, nil
}

func sortedKeys(m map[string]dag.Digest) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
