// Package status classifies the working tree against the staging area and
// the current commit. It performs no I/O.
package status

import (
	"sort"
	"strings"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/stage"
)

// Input is everything the report depends on.
type Input struct {
	Head     string
	Branches []string
	Staging  stage.Area
	Tracked  map[string]dag.Digest // current commit's files
	Working  map[string]dag.Digest // files on disk
}

// Change is a working-tree difference that has not been staged.
type Change struct {
	Path    string
	Deleted bool
}

func (c Change) String() string {
	if c.Deleted {
		return c.Path + " (deleted)"
	}
	return c.Path + " (modified)"
}

// Report is the five-section status listing. Every section is sorted.
type Report struct {
	Head      string
	Branches  []string
	Staged    []string
	Removed   []string
	Modified  []Change
	Untracked []string
}

// Compute builds the report for in.
func Compute(in Input) Report {
	r := Report{
		Head:     in.Head,
		Branches: append([]string(nil), in.Branches...),
		Removed:  in.Staging.Removed(),
		Staged:   in.Staging.Added(),
	}
	sort.Strings(r.Branches)

	for _, path := range r.Staged {
		w, onDisk := in.Working[path]
		switch {
		case !onDisk:
			r.Modified = append(r.Modified, Change{Path: path, Deleted: true})
		case w != in.Staging[path].Blob:
			r.Modified = append(r.Modified, Change{Path: path})
		}
	}

	for path, committed := range in.Tracked {
		if _, staged := in.Staging[path]; staged {
			continue
		}
		w, onDisk := in.Working[path]
		switch {
		case !onDisk:
			r.Modified = append(r.Modified, Change{Path: path, Deleted: true})
		case w != committed:
			r.Modified = append(r.Modified, Change{Path: path})
		}
	}
	sort.Slice(r.Modified, func(i, j int) bool { return r.Modified[i].Path < r.Modified[j].Path })

	for path := range in.Working {
		_, staged := in.Staging[path]
		_, tracked := in.Tracked[path]
		if !staged && !tracked {
			r.Untracked = append(r.Untracked, path)
		}
	}
	sort.Strings(r.Untracked)
	return r
}

// Clean reports whether the working tree matches the current commit.
func (r Report) Clean() bool {
	return len(r.Staged) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0 && len(r.Untracked) == 0
}

// String renders the report the way the status command prints it.
func (r Report) String() string {
	var b strings.Builder
	b.WriteString("=== Branches ===\n")
	for _, name := range r.Branches {
		if name == r.Head {
			b.WriteString("*")
		}
		b.WriteString(name + "\n")
	}
	section(&b, "Staged Files", r.Staged)
	section(&b, "Removed Files", r.Removed)
	mods := make([]string, len(r.Modified))
	for i, c := range r.Modified {
		mods[i] = c.String()
	}
	section(&b, "Modifications Not Staged For Commit", mods)
	section(&b, "Untracked Files", r.Untracked)
	return b.String()
}

func section(b *strings.Builder, title string, lines []string) {
	b.WriteString("\n=== " + title + " ===\n")
	for _, l := range lines {
		b.WriteString(l + "\n")
	}
}
