package fuse

import (
	"context"
	"net/url"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/systemshift/gitlet/internal/repo"
)

// view serialises access to the repository. Every read reloads the state
// record so commands run while mounted show up immediately.
type view struct {
	mu   sync.Mutex
	repo *repo.Repository
}

func (v *view) with(fn func(r *repo.Repository) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.repo.Refresh(); err != nil {
		return err
	}
	return fn(v.repo)
}

// encodeBranch maps a branch name to a single path component. Tracking
// branches contain a slash.
func encodeBranch(name string) string {
	return url.PathEscape(name)
}

func decodeBranch(component string) (string, bool) {
	name, err := url.PathUnescape(component)
	return name, err == nil
}

// RootNode is the mountpoint directory. Contains "HEAD", "log",
// "branches/", "commits/" and "find/".
type RootNode struct {
	fs.Inode
	view *view
}

var _ = (fs.NodeOnAdder)((*RootNode)(nil))
var _ = (fs.NodeGetattrer)((*RootNode)(nil))

func (r *RootNode) OnAdd(ctx context.Context) {
	head := &textFile{path: "HEAD", render: r.view.headText}
	r.AddChild("HEAD", r.NewPersistentInode(ctx, head, fs.StableAttr{
		Mode: syscall.S_IFREG,
		Ino:  stableIno("HEAD"),
	}), true)

	log := &textFile{path: "log", render: r.view.logText}
	r.AddChild("log", r.NewPersistentInode(ctx, log, fs.StableAttr{
		Mode: syscall.S_IFREG,
		Ino:  stableIno("log"),
	}), true)

	branches := &BranchesDir{view: r.view}
	r.AddChild("branches", r.NewPersistentInode(ctx, branches, fs.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  stableIno("branches"),
	}), true)

	commits := &CommitsDir{view: r.view}
	r.AddChild("commits", r.NewPersistentInode(ctx, commits, fs.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  stableIno("commits"),
	}), true)

	find := &FindRootDir{view: r.view}
	r.AddChild("find", r.NewPersistentInode(ctx, find, fs.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  stableIno("find"),
	}), true)
}

func (r *RootNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno("/")
	return fs.OK
}
