package repo

import (
	"strings"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/errs"
)

// Log renders HEAD's first-parent history, newest first.
func (r *Repository) Log() (string, error) {
	commits, err := r.Graph.FirstParentLog(r.State.HeadCommit())
	if err != nil {
		return "", err
	}
	return render(commits), nil
}

// GlobalLog renders every commit in the store, ordered by id.
func (r *Repository) GlobalLog() (string, error) {
	commits, err := r.allCommits()
	if err != nil {
		return "", err
	}
	return render(commits), nil
}

// Find returns the ids of every commit whose message is exactly message.
func (r *Repository) Find(message string) ([]dag.Digest, error) {
	commits, err := r.allCommits()
	if err != nil {
		return nil, err
	}
	var out []dag.Digest
	for _, c := range commits {
		if c.Message == message {
			out = append(out, c.ID)
		}
	}
	if len(out) == 0 {
		return nil, errs.New(errs.NoMatchingCommit, "Found no commit with that message.")
	}
	return out, nil
}

func (r *Repository) allCommits() ([]*dag.Commit, error) {
	ids, err := r.Store.List(dag.KindCommit)
	if err != nil {
		return nil, err
	}
	out := make([]*dag.Commit, 0, len(ids))
	for _, d := range ids {
		c, err := r.Graph.Commit(d)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func render(commits []*dag.Commit) string {
	var b strings.Builder
	for _, c := range commits {
		b.WriteString(c.LogEntry())
		b.WriteString("\n")
	}
	return b.String()
}
