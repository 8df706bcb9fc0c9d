package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{NotFound, "not_found"},
		{AmbiguousID, "ambiguous_id"},
		{Diverged, "diverged"},
		{Kind(999), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.String())
		})
	}
}

func TestKind_Class(t *testing.T) {
	assert.Equal(t, ClassValidation, BranchNotFound.Class())
	assert.Equal(t, ClassConsistency, Diverged.Class())
	assert.Equal(t, ClassConsistency, UntrackedInTheWay.Class())
	assert.Equal(t, ClassInternal, Internal.Class())
	assert.Equal(t, "consistency", ClassConsistency.String())
}

func TestError_IsThroughWrapping(t *testing.T) {
	base := New(Diverged, "Please pull down remote changes before pushing.")
	wrapped := fmt.Errorf("push origin master: %w", base)

	assert.True(t, errors.Is(wrapped, Diverged))
	assert.False(t, errors.Is(wrapped, NotFound))
	assert.True(t, errors.Is(wrapped, New(Diverged, "")))
	assert.Equal(t, Diverged, KindOf(wrapped))
}

func TestWrap_KeepsCause(t *testing.T) {
	err := Wrap(NotFound, fs.ErrNotExist, "No commit with that id exists.")
	require.Error(t, err)
	assert.Equal(t, "No commit with that id exists.", err.Error())
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.True(t, errors.Is(err, NotFound))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
}
