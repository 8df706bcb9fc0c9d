package dag

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TimeLayout is the format of Commit.Timestamp.
const TimeLayout = "Mon Jan 2 15:04:05 2006 -0700"

// InitialMessage is the message of every repository's root commit.
const InitialMessage = "initial commit"

// Commit is an immutable snapshot of every tracked file.
// Serialized via CanonicalJSON; its ID is the digest of that encoding, so
// the ID covers the message, timestamp, parents and the whole file map.
type Commit struct {
	ID          Digest            `json:"-"`
	Message     string            `json:"message"`
	Timestamp   string            `json:"timestamp"`
	Parent      Digest            `json:"parent,omitempty"`
	MergeParent Digest            `json:"merge_parent,omitempty"`
	Merge       bool              `json:"merge"`
	Files       map[string]Digest `json:"files"` // path → blob digest
}

// NewCommit builds an unsaved commit. files is copied.
func NewCommit(message string, ts time.Time, parent Digest, files map[string]Digest) *Commit {
	return &Commit{
		Message:   message,
		Timestamp: ts.Format(TimeLayout),
		Parent:    parent,
		Files:     CloneFiles(files),
	}
}

// NewMergeCommit builds an unsaved commit with two parents.
func NewMergeCommit(message string, ts time.Time, parent, mergeParent Digest, files map[string]Digest) *Commit {
	c := NewCommit(message, ts, parent, files)
	c.MergeParent = mergeParent
	c.Merge = true
	return c
}

// InitialCommit is the shared root of every repository. Its timestamp is the
// Unix epoch so independently initialised repositories agree on its digest.
func InitialCommit() *Commit {
	return NewCommit(InitialMessage, time.Unix(0, 0).UTC(), "", nil)
}

func (c *Commit) encode() ([]byte, error) {
	if c.Files == nil {
		c.Files = make(map[string]Digest)
	}
	return CanonicalJSON(c)
}

// Parents returns the primary parent followed by the merge parent, if any.
func (c *Commit) Parents() []Digest {
	var ps []Digest
	if c.Parent != "" {
		ps = append(ps, c.Parent)
	}
	if c.Merge && c.MergeParent != "" {
		ps = append(ps, c.MergeParent)
	}
	return ps
}

// IsRoot reports whether c has no parent.
func (c *Commit) IsRoot() bool {
	return c.Parent == ""
}

// Tracks reports whether path is part of the snapshot.
func (c *Commit) Tracks(path string) bool {
	_, ok := c.Files[path]
	return ok
}

// Paths returns the tracked paths in sorted order.
func (c *Commit) Paths() []string {
	paths := make([]string, 0, len(c.Files))
	for p := range c.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// LogEntry renders c the way log and global-log print it.
func (c *Commit) LogEntry() string {
	var b strings.Builder
	b.WriteString("===\n")
	fmt.Fprintf(&b, "commit %s\n", c.ID)
	if c.Merge {
		fmt.Fprintf(&b, "Merge: %s %s\n", c.Parent.Short(7), c.MergeParent.Short(7))
	}
	fmt.Fprintf(&b, "Date: %s\n", c.Timestamp)
	b.WriteString(c.Message)
	b.WriteString("\n")
	return b.String()
}

// CloneFiles copies a file map. A nil input yields an empty map.
func CloneFiles(files map[string]Digest) map[string]Digest {
	out := make(map[string]Digest, len(files))
	for k, v := range files {
		out[k] = v
	}
	return out
}
