package dag

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/systemshift/gitlet/internal/errs"
)

// ObjectStore manages digest-addressed immutable objects on disk.
// Blobs and commits live in separate subdirectories; each file is named by
// the base32 CID of its content.
type ObjectStore struct {
	dir string
}

// NewObjectStore creates an ObjectStore rooted at dir, creating the
// blobs/ and commits/ subareas if needed.
func NewObjectStore(dir string) (*ObjectStore, error) {
	for _, kind := range []Kind{KindBlob, KindCommit} {
		if err := os.MkdirAll(filepath.Join(dir, kind.dir()), 0755); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", kind.dir(), err)
		}
	}
	return &ObjectStore{dir: dir}, nil
}

// OpenObjectStore opens an existing store without creating anything.
func OpenObjectStore(dir string) (*ObjectStore, error) {
	for _, kind := range []Kind{KindBlob, KindCommit} {
		info, err := os.Stat(filepath.Join(dir, kind.dir()))
		if err != nil {
			return nil, fmt.Errorf("open %s dir: %w", kind.dir(), err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("open %s dir: not a directory", kind.dir())
		}
	}
	return &ObjectStore{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *ObjectStore) Dir() string {
	return s.dir
}

func (s *ObjectStore) path(kind Kind, d Digest) (string, error) {
	c, err := d.CID(kind)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, kind.dir(), CIDToFilename(c)), nil
}

// Put writes data to the store and returns its digest.
// If the object already exists, this is a no-op.
func (s *ObjectStore) Put(kind Kind, data []byte) (Digest, error) {
	d, _, err := s.put(kind, data)
	return d, err
}

func (s *ObjectStore) put(kind Kind, data []byte) (Digest, bool, error) {
	d := HashBytes(data)
	path, err := s.path(kind, d)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(path); err == nil {
		return d, false, nil
	}
	if err := SafeWrite(path, data, 0644); err != nil {
		return "", false, fmt.Errorf("write %s: %w", kind, err)
	}
	slog.Debug("object stored", slog.String("kind", kind.String()), slog.String("digest", d.Short(12)))
	return d, true, nil
}

// Get reads an object. A missing object is reported as errs.NotFound.
func (s *ObjectStore) Get(kind Kind, d Digest) ([]byte, error) {
	path, err := s.path(kind, d)
	if err != nil {
		return nil, errs.Wrap(errs.NotFound, err, fmt.Sprintf("no %s with id %s", kind, d))
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Wrap(errs.NotFound, err, fmt.Sprintf("no %s with id %s", kind, d))
	}
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", kind, d, err)
	}
	return data, nil
}

// Has checks if an object exists.
func (s *ObjectStore) Has(kind Kind, d Digest) bool {
	path, err := s.path(kind, d)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// PutBlob stores file content.
func (s *ObjectStore) PutBlob(content []byte) (Digest, error) {
	return s.Put(KindBlob, content)
}

// GetBlob reads file content.
func (s *ObjectStore) GetBlob(d Digest) ([]byte, error) {
	return s.Get(KindBlob, d)
}

// PutCommit serializes c canonically, stores it and sets c.ID.
func (s *ObjectStore) PutCommit(c *Commit) (Digest, error) {
	data, err := c.encode()
	if err != nil {
		return "", fmt.Errorf("serialize commit: %w", err)
	}
	d, err := s.Put(KindCommit, data)
	if err != nil {
		return "", err
	}
	c.ID = d
	return d, nil
}

// GetCommit reads and decodes a commit.
func (s *ObjectStore) GetCommit(d Digest) (*Commit, error) {
	data, err := s.Get(KindCommit, d)
	if err != nil {
		return nil, err
	}
	var c Commit
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal commit %s: %w", d, err)
	}
	if c.Files == nil {
		c.Files = make(map[string]Digest)
	}
	c.ID = d
	return &c, nil
}

// List returns every digest of the given kind in ascending order.
// Files that do not decode as objects of that kind are skipped.
func (s *ObjectStore) List(kind Kind) ([]Digest, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, kind.dir()))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.dir(), err)
	}
	out := make([]Digest, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		d, err := ParseFilename(e.Name(), kind)
		if err != nil {
			slog.Debug("skipping foreign object file", slog.String("name", e.Name()), slog.Any("error", err))
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Count returns the number of stored objects of a kind.
func (s *ObjectStore) Count(kind Kind) (int, error) {
	ds, err := s.List(kind)
	if err != nil {
		return 0, err
	}
	return len(ds), nil
}

// ResolvePrefix expands an abbreviated digest. It fails with errs.NotFound
// when nothing matches and errs.AmbiguousID when more than one object does.
func (s *ObjectStore) ResolvePrefix(kind Kind, prefix string) (Digest, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if !ValidPrefix(prefix) {
		return "", errs.Newf(errs.NotFound, "no %s with id %q", kind, prefix)
	}
	if len(prefix) == DigestLen {
		if s.Has(kind, Digest(prefix)) {
			return Digest(prefix), nil
		}
		return "", errs.Newf(errs.NotFound, "no %s with id %s", kind, prefix)
	}

	all, err := s.List(kind)
	if err != nil {
		return "", err
	}
	var matches []Digest
	for _, d := range all {
		if strings.HasPrefix(string(d), prefix) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return "", errs.Newf(errs.NotFound, "no %s with id %s", kind, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", errs.Newf(errs.AmbiguousID, "id %s matches %d %ss", prefix, len(matches), kind)
	}
}

// CopyTo replicates one object into dst. It reports whether a write happened;
// copying an object the destination already holds is a no-op.
func (s *ObjectStore) CopyTo(dst *ObjectStore, kind Kind, d Digest) (bool, error) {
	if dst.Has(kind, d) {
		return false, nil
	}
	data, err := s.Get(kind, d)
	if err != nil {
		return false, err
	}
	got, written, err := dst.put(kind, data)
	if err != nil {
		return false, err
	}
	if got != d {
		return false, fmt.Errorf("copy %s %s: content hashes to %s", kind, d, got)
	}
	return written, nil
}
