package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systemshift/gitlet/internal/dag"
	"github.com/systemshift/gitlet/internal/stage"
)

func h(s string) dag.Digest { return dag.HashBytes([]byte(s)) }

func TestStagedTrackedAndUntracked(t *testing.T) {
	area := stage.NewArea()
	area.StageBlob("added.txt", h("new"))

	r := Compute(Input{
		Head:     "master",
		Branches: []string{"master"},
		Staging:  area,
		Tracked:  map[string]dag.Digest{"kept.txt": h("kept")},
		Working: map[string]dag.Digest{
			"added.txt": h("new"),
			"kept.txt":  h("kept"),
			"loose.txt": h("loose"),
		},
	})

	assert.Equal(t, []string{"added.txt"}, r.Staged)
	assert.Equal(t, []string{"loose.txt"}, r.Untracked)
	assert.Empty(t, r.Modified)
	assert.Empty(t, r.Removed)
	assert.False(t, r.Clean())
}

func TestModifications(t *testing.T) {
	area := stage.NewArea()
	area.StageBlob("staged-edited.txt", h("v1"))
	area.StageBlob("staged-gone.txt", h("v1"))
	area.StageRemoval("removed.txt")

	r := Compute(Input{
		Head:     "master",
		Branches: []string{"master"},
		Staging:  area,
		Tracked: map[string]dag.Digest{
			"edited.txt":  h("old"),
			"gone.txt":    h("old"),
			"removed.txt": h("old"),
		},
		Working: map[string]dag.Digest{
			"staged-edited.txt": h("v2"),
			"edited.txt":        h("new"),
		},
	})

	assert.Equal(t, []string{"removed.txt"}, r.Removed)
	assert.Equal(t, []string{"staged-edited.txt", "staged-gone.txt"}, r.Staged)
	assert.Equal(t, []Change{
		{Path: "edited.txt"},
		{Path: "gone.txt", Deleted: true},
		{Path: "staged-edited.txt"},
		{Path: "staged-gone.txt", Deleted: true},
	}, r.Modified)
	assert.Empty(t, r.Untracked)
}

func TestRemovedFileRecreatedIsNotUntracked(t *testing.T) {
	area := stage.NewArea()
	area.StageRemoval("a.txt")
	r := Compute(Input{
		Head:    "master",
		Staging: area,
		Tracked: map[string]dag.Digest{"a.txt": h("a")},
		Working: map[string]dag.Digest{"a.txt": h("a")},
	})
	assert.Equal(t, []string{"a.txt"}, r.Removed)
	assert.Empty(t, r.Untracked)
	assert.Empty(t, r.Modified)
}

func TestString(t *testing.T) {
	r := Report{
		Head:      "master",
		Branches:  []string{"feature", "master"},
		Staged:    []string{"a.txt"},
		Modified:  []Change{{Path: "b.txt", Deleted: true}},
		Untracked: []string{"c.txt"},
	}
	want := "=== Branches ===\n" +
		"feature\n" +
		"*master\n" +
		"\n=== Staged Files ===\n" +
		"a.txt\n" +
		"\n=== Removed Files ===\n" +
		"\n=== Modifications Not Staged For Commit ===\n" +
		"b.txt (deleted)\n" +
		"\n=== Untracked Files ===\n" +
		"c.txt\n"
	assert.Equal(t, want, r.String())
}

func TestCleanTree(t *testing.T) {
	r := Compute(Input{
		Head:     "master",
		Branches: []string{"master"},
		Staging:  stage.NewArea(),
		Tracked:  map[string]dag.Digest{"a.txt": h("a")},
		Working:  map[string]dag.Digest{"a.txt": h("a")},
	})
	assert.True(t, r.Clean())
}
