// Package repo is the top-level facade that runs every gitlet command
// against one working tree.
package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/systemshift/gitlet/internal/config"
	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/errs"
	"github.com/systemshift/gitlet/internal/merge"
	"github.com/systemshift/gitlet/internal/remote"
	"github.com/systemshift/gitlet/internal/state"
	"github.com/systemshift/gitlet/internal/status"
	"github.com/systemshift/gitlet/internal/worktree"
)

// Repository is a working tree together with its .gitlet directory.
type Repository struct {
	root   string
	layout state.Layout
	cfg    config.Config
	now    func() time.Time

	Store *dag.ObjectStore
	Graph *dag.Graph
	Tree  *worktree.Tree
	State *state.State
}

// Option customises a Repository.
type Option func(*Repository)

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(r *Repository) { r.cfg = cfg }
}

// WithClock sets the source of commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func newRepository(root string, opts []Option) *Repository {
	r := &Repository{
		root:   root,
		layout: state.LayoutFor(root),
		cfg:    config.Defaults(),
		now:    time.Now,
		Tree:   worktree.New(root),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init creates a repository in root with a single initial commit on the
// default branch.
func Init(root string, opts ...Option) (*Repository, error) {
	r := newRepository(root, opts)
	if _, err := os.Stat(r.layout.Dir); err == nil {
		return nil, errs.New(errs.AlreadyInitialized,
			"A Gitlet version-control system already exists in the current directory.")
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", r.layout.Dir, err)
	}

	store, err := dag.NewObjectStore(r.layout.Dir)
	if err != nil {
		return nil, err
	}
	initial, err := store.PutCommit(dag.InitialCommit())
	if err != nil {
		return nil, fmt.Errorf("store initial commit: %w", err)
	}
	r.Store = store
	r.State = state.New(r.cfg.DefaultBranch, initial)
	if err := r.openGraph(); err != nil {
		return nil, err
	}
	if err := r.save(); err != nil {
		return nil, err
	}
	slog.Debug("repository initialised", slog.String("root", root), slog.String("branch", r.State.Head))
	return r, nil
}

// Open loads the repository in root.
func Open(root string, opts ...Option) (*Repository, error) {
	r := newRepository(root, opts)
	st, err := state.Load(r.layout)
	if err != nil {
		return nil, err
	}
	store, err := dag.OpenObjectStore(r.layout.Dir)
	if err != nil {
		return nil, err
	}
	r.State = st
	r.Store = store
	if err := r.openGraph(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) openGraph() error {
	g, err := dag.NewGraph(r.Store, r.cfg.Cache.Commits)
	if err != nil {
		return err
	}
	r.Graph = g
	return nil
}

// Root returns the working tree directory.
func (r *Repository) Root() string {
	return r.root
}

// Layout returns the locations of the repository's files.
func (r *Repository) Layout() state.Layout {
	return r.layout
}

// Config returns the effective configuration.
func (r *Repository) Config() config.Config {
	return r.cfg
}

func (r *Repository) save() error {
	return r.State.Save(r.layout)
}

// Refresh reloads the state record, picking up commands run by other
// processes.
func (r *Repository) Refresh() error {
	st, err := state.Load(r.layout)
	if err != nil {
		return err
	}
	r.State = st
	return nil
}

// Head returns the commit HEAD's branch points at.
func (r *Repository) Head() (*dag.Commit, error) {
	return r.Graph.Commit(r.State.HeadCommit())
}

// Add stages the working copy of path.
func (r *Repository) Add(path string) error {
	head, err := r.Head()
	if err != nil {
		return err
	}
	if err := r.State.Staging.Add(r.Store, r.Tree, head, path); err != nil {
		return err
	}
	return r.save()
}

// Remove unstages path, or stages its removal if it is tracked.
func (r *Repository) Remove(path string) error {
	head, err := r.Head()
	if err != nil {
		return err
	}
	if err := r.State.Staging.Remove(r.Tree, head, path); err != nil {
		return err
	}
	return r.save()
}

// Commit records the staged changes on HEAD's branch.
func (r *Repository) Commit(message string) (dag.Digest, error) {
	if strings.TrimSpace(message) == "" {
		return "", errs.New(errs.EmptyMessage, "Please enter a commit message.")
	}
	if r.State.Staging.Empty() {
		return "", errs.New(errs.EmptyStagingArea, "No changes added to the commit.")
	}
	head, err := r.Head()
	if err != nil {
		return "", err
	}
	c := dag.NewCommit(message, r.now(), head.ID, r.State.Staging.Snapshot(head))
	return r.record(c)
}

// record stores c, advances HEAD's branch to it and clears the staging area.
func (r *Repository) record(c *dag.Commit) (dag.Digest, error) {
	d, err := r.Store.PutCommit(c)
	if err != nil {
		return "", fmt.Errorf("store commit: %w", err)
	}
	r.State.SetHead(d)
	r.State.Staging.Clear()
	if err := r.save(); err != nil {
		return "", err
	}
	slog.Debug("committed",
		slog.String("commit", d.Short(12)),
		slog.String("branch", r.State.Head),
		slog.Int("files", len(c.Files)))
	return d, nil
}

// resolveCommit expands an abbreviated commit id.
func (r *Repository) resolveCommit(id string) (dag.Digest, error) {
	d, err := r.Store.ResolvePrefix(dag.KindCommit, id)
	if errors.Is(err, errs.NotFound) {
		return "", errs.Wrap(errs.NotFound, err, "No commit with that id exists.")
	}
	return d, err
}

// CheckoutFile restores path from the HEAD commit.
func (r *Repository) CheckoutFile(path string) error {
	return r.checkoutFileFrom(r.State.HeadCommit(), path)
}

// CheckoutFileAt restores path from the commit identified by id.
func (r *Repository) CheckoutFileAt(id, path string) error {
	d, err := r.resolveCommit(id)
	if err != nil {
		return err
	}
	return r.checkoutFileFrom(d, path)
}

func (r *Repository) checkoutFileFrom(d dag.Digest, path string) error {
	c, err := r.Graph.Commit(d)
	if err != nil {
		return err
	}
	blob, ok := c.Files[path]
	if !ok {
		return errs.New(errs.FileNotInCommit, "File does not exist in that commit.")
	}
	data, err := r.Store.GetBlob(blob)
	if err != nil {
		return err
	}
	return r.Tree.Write(path, data)
}

// CheckoutBranch replaces the working tree with the head of branch and
// makes it the current branch.
func (r *Repository) CheckoutBranch(name string) error {
	target, ok := r.State.Branches[name]
	if !ok {
		return errs.New(errs.BranchNotFound, "No such branch exists.")
	}
	if name == r.State.Head {
		return errs.New(errs.CurrentBranch, "No need to checkout the current branch.")
	}
	if err := r.switchTo(target); err != nil {
		return err
	}
	r.State.Head = name
	r.State.Staging.Clear()
	return r.save()
}

// Reset moves HEAD's branch to the commit identified by id and checks it out.
func (r *Repository) Reset(id string) error {
	d, err := r.resolveCommit(id)
	if err != nil {
		return err
	}
	if err := r.switchTo(d); err != nil {
		return err
	}
	r.State.SetHead(d)
	r.State.Staging.Clear()
	return r.save()
}

// switchTo rewrites the working tree from the HEAD commit to target.
func (r *Repository) switchTo(target dag.Digest) error {
	head, err := r.Head()
	if err != nil {
		return err
	}
	tc, err := r.Graph.Commit(target)
	if err != nil {
		return err
	}
	changes, err := r.Tree.PlanCheckout(r.Store, head, tc)
	if err != nil {
		return err
	}
	return r.Tree.Apply(changes)
}

// Branch creates a branch at the current commit.
func (r *Repository) Branch(name string) error {
	if name == "" {
		return errs.New(errs.BadArgs, "Please enter a branch name.")
	}
	if _, ok := r.State.Branches[name]; ok {
		return errs.New(errs.BranchExists, "A branch with that name already exists.")
	}
	r.State.Branches[name] = r.State.HeadCommit()
	return r.save()
}

// RemoveBranch deletes a branch pointer. Its commits are kept.
func (r *Repository) RemoveBranch(name string) error {
	if _, ok := r.State.Branches[name]; !ok {
		return errs.New(errs.BranchNotFound, "A branch with that name does not exist.")
	}
	if name == r.State.Head {
		return errs.New(errs.CurrentBranch, "Cannot remove the current branch.")
	}
	delete(r.State.Branches, name)
	return r.save()
}

// Status classifies the working tree.
func (r *Repository) Status() (status.Report, error) {
	head, err := r.Head()
	if err != nil {
		return status.Report{}, err
	}
	working, err := r.Tree.Snapshot()
	if err != nil {
		return status.Report{}, err
	}
	return status.Compute(status.Input{
		Head:     r.State.Head,
		Branches: r.State.BranchNames(),
		Staging:  r.State.Staging,
		Tracked:  head.Files,
		Working:  working,
	}), nil
}

// MergeResult describes a completed merge.
type MergeResult struct {
	Outcome   merge.Outcome
	Commit    dag.Digest // new merge commit, or the fast-forward target
	Conflicts []string
	Message   string
}

// Conflicted reports whether the merge left conflict markers.
func (m *MergeResult) Conflicted() bool {
	return len(m.Conflicts) > 0
}

// Merge merges branch into the current branch.
func (r *Repository) Merge(branch string) (*MergeResult, error) {
	engine := merge.NewEngine(r.Graph, r.Tree, merge.Options{
		AdoptAddedFiles: r.cfg.Merge.AdoptAddedFiles,
	})
	plan, err := engine.Plan(merge.Request{
		Head:         r.State.Head,
		Branch:       branch,
		Branches:     r.State.Branches,
		StagingEmpty: r.State.Staging.Empty(),
	})
	if err != nil {
		return nil, err
	}
	res := &MergeResult{Outcome: plan.Outcome, Message: plan.Message, Conflicts: plan.Conflicts}

	switch plan.Outcome {
	case merge.AlreadyMerged:
		return res, nil
	case merge.FastForward:
		if err := r.Tree.Apply(plan.Changes); err != nil {
			return nil, err
		}
		r.State.SetHead(plan.Given)
		r.State.Staging.Clear()
		res.Commit = plan.Given
		return res, r.save()
	}

	for _, data := range plan.Blobs {
		if _, err := r.Store.PutBlob(data); err != nil {
			return nil, err
		}
	}
	if err := r.Tree.Apply(plan.Changes); err != nil {
		return nil, err
	}
	c := dag.NewMergeCommit(plan.Message, r.now(), plan.Current, plan.Given, plan.Files)
	d, err := r.record(c)
	if err != nil {
		return nil, err
	}
	res.Commit = d
	if plan.Conflicted() {
		slog.Debug("merge conflicts", slog.Any("paths", plan.Conflicts))
	}
	return res, nil
}

// AddRemote records the .gitlet directory of another repository.
func (r *Repository) AddRemote(name, path string) error {
	if _, ok := r.State.Remotes[name]; ok {
		return errs.New(errs.RemoteExists, "A remote with that name already exists.")
	}
	r.State.Remotes[name] = filepath.FromSlash(path)
	return r.save()
}

// RemoveRemote forgets a remote.
func (r *Repository) RemoveRemote(name string) error {
	if _, ok := r.State.Remotes[name]; !ok {
		return errs.New(errs.RemoteNotFound, "A remote with that name does not exist.")
	}
	delete(r.State.Remotes, name)
	return r.save()
}

func (r *Repository) endpoint() *remote.Endpoint {
	return &remote.Endpoint{Layout: r.layout, Store: r.Store, Graph: r.Graph, State: r.State}
}

func (r *Repository) openRemote(name string) (*remote.Endpoint, error) {
	path, ok := r.State.Remotes[name]
	if !ok {
		return nil, errs.New(errs.RemoteNotFound, "A remote with that name does not exist.")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.root, path)
	}
	return remote.Open(path, r.cfg.Cache.Commits)
}

// Push sends the current commit to branch on the named remote.
func (r *Repository) Push(name, branch string) (remote.Report, error) {
	dst, err := r.openRemote(name)
	if err != nil {
		return remote.Report{}, err
	}
	return remote.Push(r.endpoint(), dst, branch)
}

// Fetch copies branch from the named remote into <name>/<branch>.
func (r *Repository) Fetch(name, branch string) (remote.Report, error) {
	src, err := r.openRemote(name)
	if err != nil {
		return remote.Report{}, err
	}
	rep, err := remote.Fetch(src, r.endpoint(), name, branch, r.cfg.Remote.BoundedFetch)
	if err != nil {
		return rep, err
	}
	return rep, r.save()
}

// Pull fetches branch from the named remote and merges it into HEAD.
func (r *Repository) Pull(name, branch string) (*MergeResult, error) {
	if _, err := r.Fetch(name, branch); err != nil {
		return nil, err
	}
	return r.Merge(state.TrackingBranch(name, branch))
}
