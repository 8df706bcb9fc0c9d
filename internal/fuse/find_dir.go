package fuse

import (
	"context"
	"errors"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/errs"
	"github.com/systemshift/gitlet/internal/repo"
)

// FindRootDir is the /find/ directory. Lookup treats the name as a commit
// message.
type FindRootDir struct {
	fs.Inode
	view *view
}

var _ = (fs.NodeLookuper)((*FindRootDir)(nil))
var _ = (fs.NodeReaddirer)((*FindRootDir)(nil))
var _ = (fs.NodeGetattrer)((*FindRootDir)(nil))

func (d *FindRootDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno("find")
	return fs.OK
}

func (d *FindRootDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	// messages are supplied through Lookup
	return fs.NewListDirStream(nil), fs.OK
}

func (d *FindRootDir) find(message string) ([]dag.Digest, syscall.Errno) {
	var ids []dag.Digest
	err := d.view.with(func(r *repo.Repository) error {
		var err error
		ids, err = r.Find(message)
		return err
	})
	if errors.Is(err, errs.NoMatchingCommit) {
		return nil, syscall.ENOENT
	}
	if err != nil {
		return nil, syscall.EIO
	}
	return ids, fs.OK
}

func (d *FindRootDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	ids, errno := d.find(name)
	if errno != fs.OK {
		return nil, errno
	}
	dir := &FindResultsDir{ids: ids, message: name}
	return d.NewInode(ctx, dir, fs.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  stableIno("find/" + name),
	}), fs.OK
}

// FindResultsDir is /find/{message}/ and lists matching commits as symlinks.
type FindResultsDir struct {
	fs.Inode
	ids     []dag.Digest
	message string
}

var _ = (fs.NodeLookuper)((*FindResultsDir)(nil))
var _ = (fs.NodeReaddirer)((*FindResultsDir)(nil))
var _ = (fs.NodeGetattrer)((*FindResultsDir)(nil))

func (d *FindResultsDir) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0555
	out.Ino = stableIno("find/" + d.message)
	return fs.OK
}

func (d *FindResultsDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries := make([]fuse.DirEntry, len(d.ids))
	for i, id := range d.ids {
		entries[i] = fuse.DirEntry{
			Name: id.String(),
			Mode: syscall.S_IFLNK,
			Ino:  stableIno("find/" + d.message + "/" + id.String()),
		}
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *FindResultsDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	for _, id := range d.ids {
		if id.String() != name {
			continue
		}
		sym := &CommitSymlink{id: id}
		return d.NewInode(ctx, sym, fs.StableAttr{
			Mode: syscall.S_IFLNK,
			Ino:  stableIno("find/" + d.message + "/" + name),
		}), fs.OK
	}
	return nil, syscall.ENOENT
}

// CommitSymlink points to ../../commits/{id}.
type CommitSymlink struct {
	fs.Inode
	id dag.Digest
}

var _ = (fs.NodeReadlinker)((*CommitSymlink)(nil))
var _ = (fs.NodeGetattrer)((*CommitSymlink)(nil))

func (s *CommitSymlink) target() string {
	return "../../commits/" + s.id.String()
}

func (s *CommitSymlink) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	return []byte(s.target()), fs.OK
}

func (s *CommitSymlink) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0777 | syscall.S_IFLNK
	out.Size = uint64(len(s.target()))
	return fs.OK
}
