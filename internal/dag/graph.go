package dag

import (
	"errors"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/systemshift/gitlet/internal/errs"
)

var errStopWalk = errors.New("stop walk")

// DefaultCacheSize is the number of decoded commits a Graph keeps in memory.
const DefaultCacheSize = 1024

// Graph answers ancestry questions over the commits in an ObjectStore.
// Commits are immutable, so decoded nodes are cached by digest and never
// invalidated.
type Graph struct {
	store *ObjectStore
	nodes *lru.Cache[Digest, *Commit]
}

// NewGraph creates a Graph over store caching up to size commits.
func NewGraph(store *ObjectStore, size int) (*Graph, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	nodes, err := lru.New[Digest, *Commit](size)
	if err != nil {
		return nil, fmt.Errorf("create commit cache: %w", err)
	}
	return &Graph{store: store, nodes: nodes}, nil
}

// Store returns the underlying object store.
func (g *Graph) Store() *ObjectStore {
	return g.store
}

// Commit returns the decoded commit for d.
// Callers must not mutate the result.
func (g *Graph) Commit(d Digest) (*Commit, error) {
	if c, ok := g.nodes.Get(d); ok {
		return c, nil
	}
	c, err := g.store.GetCommit(d)
	if err != nil {
		return nil, err
	}
	g.nodes.Add(d, c)
	return c, nil
}

// Walk visits start and its ancestors breadth-first, following both parents
// of merge commits. Each commit is visited once. Ancestors of a commit for
// which prune returns true are not expanded; the commit itself is still
// visited.
func (g *Graph) Walk(start Digest, prune func(*Commit) bool, visit func(*Commit) error) error {
	seen := map[Digest]bool{start: true}
	queue := []Digest{start}
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		c, err := g.Commit(d)
		if err != nil {
			return err
		}
		if err := visit(c); err != nil {
			return err
		}
		if prune != nil && prune(c) {
			continue
		}
		for _, p := range c.Parents() {
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return nil
}

// Ancestors returns the set of commits reachable from start, start included.
func (g *Graph) Ancestors(start Digest) (map[Digest]bool, error) {
	set := make(map[Digest]bool)
	err := g.Walk(start, nil, func(c *Commit) error {
		set[c.ID] = true
		return nil
	})
	return set, err
}

// IsAncestor reports whether candidate is start or one of its ancestors.
func (g *Graph) IsAncestor(candidate, start Digest) (bool, error) {
	if candidate == start {
		return true, nil
	}
	err := g.Walk(start, nil, func(c *Commit) error {
		if c.ID == candidate {
			return errStopWalk
		}
		return nil
	})
	if errors.Is(err, errStopWalk) {
		return true, nil
	}
	return false, err
}

// SplitPoint returns the common ancestor of a and b closest to a, measured in
// parent edges. Ties are broken by the smallest digest.
func (g *Graph) SplitPoint(a, b Digest) (Digest, error) {
	inB, err := g.Ancestors(b)
	if err != nil {
		return "", err
	}

	seen := map[Digest]bool{a: true}
	level := []Digest{a}
	for len(level) > 0 {
		var hits []Digest
		for _, d := range level {
			if inB[d] {
				hits = append(hits, d)
			}
		}
		if len(hits) > 0 {
			sort.Slice(hits, func(i, j int) bool { return hits[i] < hits[j] })
			return hits[0], nil
		}

		var next []Digest
		for _, d := range level {
			c, err := g.Commit(d)
			if err != nil {
				return "", err
			}
			for _, p := range c.Parents() {
				if !seen[p] {
					seen[p] = true
					next = append(next, p)
				}
			}
		}
		level = next
	}
	return "", errs.Newf(errs.NotFound, "commits %s and %s share no ancestor", a.Short(7), b.Short(7))
}

// FirstParentLog returns start and its first-parent ancestors, newest first.
func (g *Graph) FirstParentLog(start Digest) ([]*Commit, error) {
	var out []*Commit
	for d := start; d != ""; {
		c, err := g.Commit(d)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		d = c.Parent
	}
	return out, nil
}
