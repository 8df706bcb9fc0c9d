// Package remote replicates commits and blobs between two repositories on
// the local filesystem.
//
// Objects are immutable and content-addressed, so a copy is only ever an
// addition. Blobs are copied before the commit that references them and
// parents before children; a branch pointer moves only after its whole
// history is present at the destination.
package remote

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/errs"
	"github.com/systemshift/gitlet/internal/state"
)

// Endpoint is one side of a transfer.
type Endpoint struct {
	Layout state.Layout
	Store  *dag.ObjectStore
	Graph  *dag.Graph
	State  *state.State
}

// Open loads the repository whose .gitlet directory is dir.
func Open(dir string, cacheSize int) (*Endpoint, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil, errs.New(errs.RemoteUnreachable, "Remote directory not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("open remote %s: %w", dir, err)
	}
	l := state.Layout{Dir: dir}
	st, err := state.Load(l)
	if err != nil {
		return nil, errs.Wrap(errs.RemoteUnreachable, err, "Remote directory not found.")
	}
	store, err := dag.OpenObjectStore(dir)
	if err != nil {
		return nil, errs.Wrap(errs.RemoteUnreachable, err, "Remote directory not found.")
	}
	g, err := dag.NewGraph(store, cacheSize)
	if err != nil {
		return nil, err
	}
	return &Endpoint{Layout: l, Store: store, Graph: g, State: st}, nil
}

// Save persists the endpoint's state.
func (e *Endpoint) Save() error {
	return e.State.Save(e.Layout)
}

// Report counts the objects a transfer wrote.
type Report struct {
	Commits int
	Blobs   int
	// Updated is false when the destination branch already pointed at the
	// transferred head.
	Updated bool
}

// Writes returns the total number of objects written.
func (r Report) Writes() int {
	return r.Commits + r.Blobs
}

// Push sends the local current commit to branch on dst. dst's branch must be
// an ancestor of the local head; a missing branch is created.
func Push(src, dst *Endpoint, branch string) (Report, error) {
	head := src.State.HeadCommit()
	remoteHead, exists := dst.State.Branches[branch]
	if exists {
		ok, err := src.Graph.IsAncestor(remoteHead, head)
		if err != nil {
			return Report{}, err
		}
		if !ok {
			return Report{}, errs.New(errs.Diverged, "Please pull down remote changes before pushing.")
		}
	}

	missing, err := collect(src.Graph, head, func(c *dag.Commit) bool {
		return c.ID == remoteHead || dst.Store.Has(dag.KindCommit, c.ID)
	})
	if err != nil {
		return Report{}, err
	}
	r, err := copyCommits(src, dst, missing)
	if err != nil {
		return r, err
	}
	if exists && remoteHead == head {
		slog.Debug("push: remote already up to date", slog.String("branch", branch))
		return r, nil
	}
	dst.State.Branches[branch] = head
	if err := dst.Save(); err != nil {
		return r, err
	}
	r.Updated = true
	slog.Debug("pushed",
		slog.String("branch", branch),
		slog.String("head", head.Short(12)),
		slog.Int("commits", r.Commits),
		slog.Int("blobs", r.Blobs))
	return r, nil
}

// Fetch copies the history of branch on src into dst and points the
// tracking branch <name>/<branch> at it. By default the whole history is
// walked; bounded stops at commits dst already holds.
func Fetch(src, dst *Endpoint, name, branch string, bounded bool) (Report, error) {
	head, ok := src.State.Branches[branch]
	if !ok {
		return Report{}, errs.New(errs.RemoteBranchNotFound, "That remote does not have that branch.")
	}
	var prune func(*dag.Commit) bool
	if bounded {
		prune = func(c *dag.Commit) bool { return dst.Store.Has(dag.KindCommit, c.ID) }
	}
	history, err := collect(src.Graph, head, prune)
	if err != nil {
		return Report{}, err
	}
	r, err := copyCommits(src, dst, history)
	if err != nil {
		return r, err
	}
	tracking := state.TrackingBranch(name, branch)
	r.Updated = dst.State.Branches[tracking] != head
	dst.State.Branches[tracking] = head
	slog.Debug("fetched",
		slog.String("branch", tracking),
		slog.String("head", head.Short(12)),
		slog.Int("commits", r.Commits),
		slog.Int("blobs", r.Blobs))
	return r, nil
}

// collect walks from start and returns the visited commits ordered parents
// first. Commits for which stop returns true are neither returned nor
// expanded.
func collect(g *dag.Graph, start dag.Digest, stop func(*dag.Commit) bool) ([]*dag.Commit, error) {
	var found []*dag.Commit
	err := g.Walk(start, stop, func(c *dag.Commit) error {
		if stop == nil || !stop(c) {
			found = append(found, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return topoOrder(found), nil
}

// topoOrder sorts commits so every parent in the set precedes its children.
func topoOrder(commits []*dag.Commit) []*dag.Commit {
	byID := make(map[dag.Digest]*dag.Commit, len(commits))
	for _, c := range commits {
		byID[c.ID] = c
	}
	done := make(map[dag.Digest]bool, len(commits))
	out := make([]*dag.Commit, 0, len(commits))

	type frame struct {
		c    *dag.Commit
		next int
	}
	for _, root := range commits {
		if done[root.ID] {
			continue
		}
		stack := []frame{{c: root}}
		done[root.ID] = true
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			parents := top.c.Parents()
			if top.next < len(parents) {
				p := parents[top.next]
				top.next++
				if pc, ok := byID[p]; ok && !done[p] {
					done[p] = true
					stack = append(stack, frame{c: pc})
				}
				continue
			}
			out = append(out, top.c)
			stack = stack[:len(stack)-1]
		}
	}
	return out
}

func copyCommits(src, dst *Endpoint, commits []*dag.Commit) (Report, error) {
	var r Report
	for _, c := range commits {
		for _, path := range c.Paths() {
			wrote, err := src.Store.CopyTo(dst.Store, dag.KindBlob, c.Files[path])
			if err != nil {
				return r, fmt.Errorf("copy blob %s of %s: %w", path, c.ID.Short(7), err)
			}
			if wrote {
				r.Blobs++
			}
		}
		wrote, err := src.Store.CopyTo(dst.Store, dag.KindCommit, c.ID)
		if err != nil {
			return r, fmt.Errorf("copy commit %s: %w", c.ID.Short(7), err)
		}
		if wrote {
			r.Commits++
		}
	}
	return r, nil
}
