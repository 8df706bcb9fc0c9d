package dag

import (
	"testing"
	"time"
)

type graphFixture struct {
	t     *testing.T
	store *ObjectStore
	graph *Graph
	clock int64
	root  Digest
}

func newGraphFixture(t *testing.T) *graphFixture {
	t.Helper()
	store := openTestStore(t)
	g, err := NewGraph(store, 16)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	root, err := store.PutCommit(InitialCommit())
	if err != nil {
		t.Fatal(err)
	}
	return &graphFixture{t: t, store: store, graph: g, root: root}
}

func (f *graphFixture) commit(msg string, parent Digest) Digest {
	f.t.Helper()
	f.clock++
	d, err := f.store.PutCommit(NewCommit(msg, time.Unix(f.clock, 0), parent, nil))
	if err != nil {
		f.t.Fatal(err)
	}
	return d
}

func (f *graphFixture) merge(msg string, parent, other Digest) Digest {
	f.t.Helper()
	f.clock++
	d, err := f.store.PutCommit(NewMergeCommit(msg, time.Unix(f.clock, 0), parent, other, nil))
	if err != nil {
		f.t.Fatal(err)
	}
	return d
}

func (f *graphFixture) isAncestor(candidate, start Digest) bool {
	f.t.Helper()
	ok, err := f.graph.IsAncestor(candidate, start)
	if err != nil {
		f.t.Fatalf("IsAncestor: %v", err)
	}
	return ok
}

func (f *graphFixture) split(a, b Digest) Digest {
	f.t.Helper()
	d, err := f.graph.SplitPoint(a, b)
	if err != nil {
		f.t.Fatalf("SplitPoint: %v", err)
	}
	return d
}

func TestIsAncestor_Reflexive(t *testing.T) {
	f := newGraphFixture(t)
	a := f.commit("a", f.root)
	if !f.isAncestor(a, a) {
		t.Error("a commit must be its own ancestor")
	}
}

func TestIsAncestor_RootReachesEverything(t *testing.T) {
	f := newGraphFixture(t)
	a := f.commit("a", f.root)
	b := f.commit("b", a)
	c := f.commit("c", b)
	for _, d := range []Digest{a, b, c} {
		if !f.isAncestor(f.root, d) {
			t.Errorf("root should be an ancestor of %s", d.Short(7))
		}
	}
	if f.isAncestor(c, a) {
		t.Error("descendant reported as ancestor")
	}
}

func TestIsAncestor_UnrelatedBranches(t *testing.T) {
	f := newGraphFixture(t)
	left := f.commit("left", f.root)
	right := f.commit("right", f.root)
	if f.isAncestor(left, right) || f.isAncestor(right, left) {
		t.Error("sibling branches must not be ancestors of each other")
	}
}

func TestIsAncestor_FollowsMergeParent(t *testing.T) {
	f := newGraphFixture(t)
	main := f.commit("main", f.root)
	side := f.commit("side", f.root)
	side2 := f.commit("side2", side)
	m := f.merge("merge", main, side2)
	if !f.isAncestor(side, m) {
		t.Error("second-parent history must be reachable")
	}
}

func TestSplitPoint_Linear(t *testing.T) {
	f := newGraphFixture(t)
	a := f.commit("a", f.root)
	b := f.commit("b", a)
	if got := f.split(b, a); got != a {
		t.Errorf("split(b, a) = %s, want a", got.Short(7))
	}
	if got := f.split(a, b); got != a {
		t.Errorf("split(a, b) = %s, want a", got.Short(7))
	}
}

func TestSplitPoint_Fork(t *testing.T) {
	f := newGraphFixture(t)
	base := f.commit("base", f.root)
	left := f.commit("left", base)
	right := f.commit("right", f.commit("right0", base))
	if got := f.split(left, right); got != base {
		t.Errorf("split = %s, want base", got.Short(7))
	}
}

func TestSplitPoint_AfterCrissCrossMerge(t *testing.T) {
	// root ─ a ─ a2 ─────── m1 (merge of a2 and b1)
	//          \            /
	//           b1 ─ b2 ─ b3
	// The closest common ancestor of m1 and b3 is b1, reachable from m1
	// through its merge parent in one step.
	f := newGraphFixture(t)
	a := f.commit("a", f.root)
	a2 := f.commit("a2", a)
	b1 := f.commit("b1", a)
	b2 := f.commit("b2", b1)
	b3 := f.commit("b3", b2)
	m1 := f.merge("m1", a2, b1)

	if got := f.split(m1, b3); got != b1 {
		t.Errorf("split = %s, want b1 (%s)", got.Short(7), b1.Short(7))
	}
}

func TestSplitPoint_TieBreakSmallestDigest(t *testing.T) {
	// Two merges that each combine x and y: both x and y are common
	// ancestors at distance one.
	f := newGraphFixture(t)
	x := f.commit("x", f.root)
	y := f.commit("y", f.root)
	m1 := f.merge("m1", x, y)
	m2 := f.merge("m2", y, x)

	want := x
	if y < x {
		want = y
	}
	if got := f.split(m1, m2); got != want {
		t.Errorf("split = %s, want %s", got.Short(7), want.Short(7))
	}
	if got := f.split(m2, m1); got != want {
		t.Errorf("split reversed = %s, want %s", got.Short(7), want.Short(7))
	}
}

func TestSplitPoint_DeepMergeHistory(t *testing.T) {
	// A ladder of merges that the naive recursive distance search explores
	// exponentially.
	f := newGraphFixture(t)
	left := f.commit("l0", f.root)
	right := f.commit("r0", f.root)
	for i := 0; i < 40; i++ {
		nl := f.merge("l", left, right)
		nr := f.merge("r", right, left)
		left, right = nl, nr
	}
	tip := f.commit("tip", left)
	got := f.split(tip, right)
	if !f.isAncestor(got, tip) || !f.isAncestor(got, right) {
		t.Errorf("split %s is not a common ancestor", got.Short(7))
	}
}

func TestFirstParentLog(t *testing.T) {
	f := newGraphFixture(t)
	a := f.commit("a", f.root)
	b := f.commit("b", a)
	log, err := f.graph.FirstParentLog(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 3 {
		t.Fatalf("got %d commits, want 3", len(log))
	}
	if log[0].ID != b || log[2].ID != f.root {
		t.Errorf("unexpected order: %s ... %s", log[0].ID.Short(7), log[2].ID.Short(7))
	}
}

func TestLogEntry_MergeLine(t *testing.T) {
	f := newGraphFixture(t)
	a := f.commit("a", f.root)
	m := f.merge("Merged b into master.", a, f.root)
	c, err := f.graph.Commit(m)
	if err != nil {
		t.Fatal(err)
	}
	want := "===\ncommit " + string(m) + "\nMerge: " + a.Short(7) + " " + f.root.Short(7) +
		"\nDate: " + c.Timestamp + "\nMerged b into master.\n"
	if got := c.LogEntry(); got != want {
		t.Errorf("LogEntry =\n%s\nwant\n%s", got, want)
	}
}
