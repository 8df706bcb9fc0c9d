package fuse

import "hash/fnv"

// stableIno returns a stable inode number for a path inside the mount.
// 0 and 1 are reserved by FUSE.
func stableIno(path string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(path))
	if ino := h.Sum64(); ino > 1 {
		return ino
	}
	return 2
}
