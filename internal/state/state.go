// Package state persists the repository aggregate: branches, HEAD, the
// staging area and remotes. The whole record is rewritten after every
// command.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/errs"
	"github.com/systemshift/gitlet/internal/stage"
)

const (
	// DirName is the repository directory inside the working tree.
	DirName = ".gitlet"
	// FileName is the state record inside DirName.
	FileName = "state.json"
	// ConfigName is the optional configuration file inside DirName.
	ConfigName = "config.yaml"
)

// Layout locates the files of one repository directory.
type Layout struct {
	Dir string // the .gitlet directory
}

// LayoutFor returns the layout of the repository rooted at the working tree root.
func LayoutFor(root string) Layout {
	return Layout{Dir: filepath.Join(root, DirName)}
}

// StatePath returns the path of the state record.
func (l Layout) StatePath() string {
	return filepath.Join(l.Dir, FileName)
}

// ConfigPath returns the path of the optional config file.
func (l Layout) ConfigPath() string {
	return filepath.Join(l.Dir, ConfigName)
}

// Exists reports whether the state record is present.
func (l Layout) Exists() bool {
	_, err := os.Stat(l.StatePath())
	return err == nil
}

// State is the mutable part of a repository.
type State struct {
	Head     string                `json:"head"`
	Branches map[string]dag.Digest `json:"branches"`
	Staging  stage.Area            `json:"staging"`
	Remotes  map[string]string     `json:"remotes"`
}

// New returns the state of a freshly initialised repository.
func New(branch string, root dag.Digest) *State {
	return &State{
		Head:     branch,
		Branches: map[string]dag.Digest{branch: root},
		Staging:  stage.NewArea(),
		Remotes:  make(map[string]string),
	}
}

// Load reads the state record. A missing record is errs.NotInitialized.
func Load(l Layout) (*State, error) {
	data, err := os.ReadFile(l.StatePath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Wrap(errs.NotInitialized, err, "Not in an initialized Gitlet directory.")
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	if s.Branches == nil {
		s.Branches = make(map[string]dag.Digest)
	}
	if s.Staging == nil {
		s.Staging = stage.NewArea()
	}
	if s.Remotes == nil {
		s.Remotes = make(map[string]string)
	}
	if _, ok := s.Branches[s.Head]; !ok {
		return nil, fmt.Errorf("state: HEAD names unknown branch %q", s.Head)
	}
	return &s, nil
}

// Save writes the state record atomically.
func (s *State) Save(l Layout) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := dag.SafeWrite(l.StatePath(), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// HeadCommit returns the digest HEAD's branch points at.
func (s *State) HeadCommit() dag.Digest {
	return s.Branches[s.Head]
}

// SetHead advances HEAD's branch to d.
func (s *State) SetHead(d dag.Digest) {
	s.Branches[s.Head] = d
}

// BranchNames returns every branch name, sorted.
func (s *State) BranchNames() []string {
	names := make([]string, 0, len(s.Branches))
	for name := range s.Branches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TrackingBranch names the local mirror of a remote branch.
func TrackingBranch(remote, branch string) string {
	return remote + "/" + branch
}
