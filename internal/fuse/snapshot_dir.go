package fuse

import (
	"context"
	"sort"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/repo"
)

// BranchesDir lists one directory per branch holding its head snapshot.
type BranchesDir struct {
	fs.Inode
	view *view
}

var _ = (fs.NodeLookuper)((*BranchesDir)(nil))
var _ = (fs.NodeReaddirer)((*BranchesDir)(nil))
var _ = (fs.NodeGetattrer)((*BranchesDir)(nil))

func (d *BranchesDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno("branches")
	return fs.OK
}

func (d *BranchesDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	var entries []fuse.DirEntry
	err := d.view.with(func(r *repo.Repository) error {
		for _, name := range r.State.BranchNames() {
			component := encodeBranch(name)
			entries = append(entries, fuse.DirEntry{
				Name: component,
				Mode: syscall.S_IFDIR,
				Ino:  stableIno(branchPath(component, r.State.Branches[name])),
			})
		}
		return nil
	})
	if err != nil {
		return nil, syscall.EIO
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *BranchesDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	branch, ok := decodeBranch(name)
	if !ok {
		return nil, syscall.ENOENT
	}
	var head dag.Digest
	err := d.view.with(func(r *repo.Repository) error {
		head = r.State.Branches[branch]
		return nil
	})
	if err != nil || head == "" {
		return nil, syscall.ENOENT
	}
	dir := &SnapshotDir{view: d.view, commit: head, path: branchPath(name, head)}
	return d.NewInode(ctx, dir, fs.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  stableIno(dir.path),
	}), fs.OK
}

// branchPath includes the head so a moved branch gets fresh inodes.
func branchPath(component string, head dag.Digest) string {
	return "branches/" + component + "@" + head.Short(12)
}

// CommitsDir lists every commit by id. Lookup also accepts an abbreviated id.
type CommitsDir struct {
	fs.Inode
	view *view
}

var _ = (fs.NodeLookuper)((*CommitsDir)(nil))
var _ = (fs.NodeReaddirer)((*CommitsDir)(nil))
var _ = (fs.NodeGetattrer)((*CommitsDir)(nil))

func (d *CommitsDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno("commits")
	return fs.OK
}

func (d *CommitsDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	var entries []fuse.DirEntry
	err := d.view.with(func(r *repo.Repository) error {
		ids, err := r.Store.List(dag.KindCommit)
		if err != nil {
			return err
		}
		for _, id := range ids {
			entries = append(entries, fuse.DirEntry{
				Name: id.String(),
				Mode: syscall.S_IFDIR,
				Ino:  stableIno("commits/" + id.String()),
			})
		}
		return nil
	})
	if err != nil {
		return nil, syscall.EIO
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *CommitsDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	var id dag.Digest
	err := d.view.with(func(r *repo.Repository) error {
		var err error
		id, err = r.Store.ResolvePrefix(dag.KindCommit, name)
		return err
	})
	if err != nil {
		return nil, syscall.ENOENT
	}
	dir := &SnapshotDir{view: d.view, commit: id, path: "commits/" + id.String()}
	return d.NewInode(ctx, dir, fs.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  stableIno(dir.path),
	}), fs.OK
}

// SnapshotDir exposes the tracked files of one commit.
type SnapshotDir struct {
	fs.Inode
	view   *view
	commit dag.Digest
	path   string
}

var _ = (fs.NodeLookuper)((*SnapshotDir)(nil))
var _ = (fs.NodeReaddirer)((*SnapshotDir)(nil))
var _ = (fs.NodeGetattrer)((*SnapshotDir)(nil))

func (d *SnapshotDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno(d.path)
	return fs.OK
}

func (d *SnapshotDir) files() (map[string]dag.Digest, error) {
	var files map[string]dag.Digest
	err := d.view.with(func(r *repo.Repository) error {
		c, err := r.Graph.Commit(d.commit)
		if err != nil {
			return err
		}
		files = c.Files
		return nil
	})
	return files, err
}

func (d *SnapshotDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	files, err := d.files()
	if err != nil {
		return nil, syscall.EIO
	}
	entries := make([]fuse.DirEntry, 0, len(files))
	for _, name := range sortedNames(files) {
		entries = append(entries, fuse.DirEntry{
			Name: name,
			Mode: syscall.S_IFREG,
			Ino:  stableIno(d.path + "/" + name),
		})
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *SnapshotDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	files, err := d.files()
	if err != nil {
		return nil, syscall.EIO
	}
	blob, ok := files[name]
	if !ok {
		return nil, syscall.ENOENT
	}
	path := d.path + "/" + name
	return d.NewInode(ctx, d.view.blobFile(path, blob), fs.StableAttr{
		Mode: syscall.S_IFREG,
		Ino:  stableIno(path),
	}), fs.OK
}

func sortedNames(files map[string]dag.Digest) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
