package fuse

import (
	"context"
	"fmt"
	"log/slog"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/repo"
)

// textFile is a read-only file whose content is rendered on every access.
type textFile struct {
	fs.Inode
	path   string
	render func() ([]byte, error)
}

var _ = (fs.NodeGetattrer)((*textFile)(nil))
var _ = (fs.NodeReader)((*textFile)(nil))
var _ = (fs.NodeOpener)((*textFile)(nil))

func (f *textFile) bytes() ([]byte, syscall.Errno) {
	data, err := f.render()
	if err != nil {
		slog.Debug("mount: render failed", slog.String("path", f.path), slog.Any("error", err))
		return nil, syscall.EIO
	}
	return data, fs.OK
}

func (f *textFile) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	data, errno := f.bytes()
	if errno != fs.OK {
		return errno
	}
	out.Mode = 0444
	out.Size = uint64(len(data))
	out.Ino = stableIno(f.path)
	return fs.OK
}

func (f *textFile) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC) != 0 {
		return nil, 0, syscall.EROFS
	}
	return nil, fuse.FOPEN_DIRECT_IO, fs.OK
}

func (f *textFile) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, errno := f.bytes()
	if errno != fs.OK {
		return nil, errno
	}
	return fuse.ReadResultData(window(data, dest, off)), fs.OK
}

// window returns the part of data a read of len(dest) bytes at off sees.
func window(data, dest []byte, off int64) []byte {
	if off >= int64(len(data)) {
		return nil
	}
	end := off + int64(len(dest))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return data[off:end]
}

// blobFile returns a file node serving one immutable blob.
func (v *view) blobFile(path string, d dag.Digest) *textFile {
	return &textFile{path: path, render: func() ([]byte, error) {
		var data []byte
		err := v.with(func(r *repo.Repository) error {
			var err error
			data, err = r.Store.GetBlob(d)
			return err
		})
		return data, err
	}}
}

// headText is "<branch> <commit>\n".
func (v *view) headText() ([]byte, error) {
	var out []byte
	err := v.with(func(r *repo.Repository) error {
		out = []byte(fmt.Sprintf("%s %s\n", r.State.Head, r.State.HeadCommit()))
		return nil
	})
	return out, err
}

// logText is the output of the log command.
func (v *view) logText() ([]byte, error) {
	var out []byte
	err := v.with(func(r *repo.Repository) error {
		s, err := r.Log()
		out = []byte(s)
		return err
	})
	return out, err
}
