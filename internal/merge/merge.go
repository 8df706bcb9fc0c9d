// Package merge computes three-way merges between the current branch and
// another branch. A merge is planned in full before anything is written.
package merge

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/errs"
	"github.com/systemshift/gitlet/internal/worktree"
)

// Outcome is how a merge resolves.
type Outcome int

const (
	// AlreadyMerged means the given branch is an ancestor of HEAD.
	AlreadyMerged Outcome = iota
	// FastForward means HEAD is an ancestor of the given branch.
	FastForward
	// Merged means a merge commit is needed.
	Merged
)

var outcomeNames = map[Outcome]string{
	AlreadyMerged: "already_merged",
	FastForward:   "fast_forward",
	Merged:        "merged",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Messages printed for each outcome.
const (
	AlreadyMergedMessage = "Given branch is an ancestor of the current branch."
	FastForwardMessage   = "Current branch fast-forwarded."
	ConflictMessage      = "Encountered a merge conflict."
)

// Options tunes the rule table.
type Options struct {
	// AdoptAddedFiles takes the given side's version of a file that only the
	// given side added, instead of reporting a conflict.
	AdoptAddedFiles bool
}

// Request names the two sides of a merge.
type Request struct {
	Head         string
	Branch       string
	Branches     map[string]dag.Digest
	StagingEmpty bool
}

// Plan is a fully computed merge.
type Plan struct {
	Outcome Outcome
	Current dag.Digest
	Given   dag.Digest
	Split   dag.Digest

	// Changes to the working tree. Empty for AlreadyMerged.
	Changes *worktree.Changes
	// Files is the snapshot of the merge commit (Merged only).
	Files map[string]dag.Digest
	// Blobs holds conflict contents keyed by digest; they must be stored
	// before the merge commit.
	Blobs map[dag.Digest][]byte
	// Conflicts lists conflicted paths, sorted.
	Conflicts []string
	Message   string
}

// Conflicted reports whether any path needed conflict markers.
func (p *Plan) Conflicted() bool {
	return len(p.Conflicts) > 0
}

// Engine plans merges over a commit graph.
type Engine struct {
	graph *dag.Graph
	tree  *worktree.Tree
	opts  Options
}

// NewEngine returns an Engine reading commits from g and checking files in tree.
func NewEngine(g *dag.Graph, tree *worktree.Tree, opts Options) *Engine {
	return &Engine{graph: g, tree: tree, opts: opts}
}

// Plan validates req and computes the merge without mutating anything.
func (e *Engine) Plan(req Request) (*Plan, error) {
	if !req.StagingEmpty {
		return nil, errs.New(errs.UncommittedChanges, "You have uncommitted changes.")
	}
	given, ok := req.Branches[req.Branch]
	if !ok {
		return nil, errs.New(errs.BranchNotFound, "A branch with that name does not exist.")
	}
	if req.Branch == req.Head {
		return nil, errs.New(errs.SelfMerge, "Cannot merge a branch with itself.")
	}
	current := req.Branches[req.Head]

	split, err := e.graph.SplitPoint(current, given)
	if err != nil {
		return nil, fmt.Errorf("find split point: %w", err)
	}
	slog.Debug("merge split point",
		slog.String("current", current.Short(12)),
		slog.String("given", given.Short(12)),
		slog.String("split", split.Short(12)))

	p := &Plan{Current: current, Given: given, Split: split, Changes: &worktree.Changes{}}
	if split == given {
		p.Outcome = AlreadyMerged
		p.Message = AlreadyMergedMessage
		return p, nil
	}

	cc, err := e.graph.Commit(current)
	if err != nil {
		return nil, err
	}
	gc, err := e.graph.Commit(given)
	if err != nil {
		return nil, err
	}

	if split == current {
		changes, err := e.tree.PlanCheckout(e.graph.Store(), cc, gc)
		if err != nil {
			return nil, err
		}
		p.Outcome = FastForward
		p.Changes = changes
		p.Files = dag.CloneFiles(gc.Files)
		p.Message = FastForwardMessage
		return p, nil
	}

	if err := e.tree.CheckUntracked(cc.Files, gc.Files); err != nil {
		return nil, err
	}
	sc, err := e.graph.Commit(split)
	if err != nil {
		return nil, err
	}
	if err := e.resolve(p, sc, cc, gc); err != nil {
		return nil, err
	}
	p.Outcome = Merged
	p.Message = fmt.Sprintf("Merged %s into %s.", req.Branch, req.Head)
	return p, nil
}

type action int

const (
	keep action = iota
	take
	drop
	conflict
)

// decide applies the rule table to one path. Empty digests mean absent.
func (e *Engine) decide(s, c, g dag.Digest) action {
	switch {
	case c == g:
		return keep
	case s != "" && c == s && g == "":
		return drop
	case s != "" && c == s:
		return take
	case s != "" && g == s:
		return keep
	case s == "" && c == "":
		if e.opts.AdoptAddedFiles {
			return take
		}
		return conflict
	case s == "" && g == "":
		return keep
	default:
		return conflict
	}
}

func (e *Engine) resolve(p *Plan, sc, cc, gc *dag.Commit) error {
	files := dag.CloneFiles(cc.Files)
	writes := make(map[string][]byte)
	var deletes []string
	blobs := make(map[dag.Digest][]byte)

	for _, path := range unionPaths(sc, cc, gc) {
		s, c, g := sc.Files[path], cc.Files[path], gc.Files[path]
		switch e.decide(s, c, g) {
		case take:
			data, err := e.graph.Store().GetBlob(g)
			if err != nil {
				return err
			}
			files[path] = g
			writes[path] = data
		case drop:
			delete(files, path)
			deletes = append(deletes, path)
		case conflict:
			data, err := e.conflictText(c, g)
			if err != nil {
				return err
			}
			d := dag.HashBytes(data)
			blobs[d] = data
			files[path] = d
			writes[path] = data
			p.Conflicts = append(p.Conflicts, path)
		}
	}
	p.Files = files
	p.Changes = &worktree.Changes{Writes: writes, Deletes: deletes}
	p.Blobs = blobs
	return nil
}

// conflictText renders both sides between conflict markers.
func (e *Engine) conflictText(c, g dag.Digest) ([]byte, error) {
	current, err := e.side(c)
	if err != nil {
		return nil, err
	}
	given, err := e.side(g)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("<<<<<<< HEAD\n")
	b.WriteString(terminated(current))
	b.WriteString("=======\n")
	b.WriteString(terminated(given))
	b.WriteString(">>>>>>>\n")
	return []byte(b.String()), nil
}

func (e *Engine) side(d dag.Digest) (string, error) {
	if d == "" {
		return "", nil
	}
	data, err := e.graph.Store().GetBlob(d)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func terminated(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func unionPaths(commits ...*dag.Commit) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range commits {
		for path := range c.Files {
			if !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
		}
	}
	sort.Strings(out)
	return out
}
