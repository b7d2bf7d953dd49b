package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFilter(t *testing.T) {
	filter := DefaultFilter("")
	assert.Equal(t, Filter{Mode: ModeTree, MaxSize: DefaultMaxSize}, filter)

	filter = DefaultFilter("200")
	assert.Equal(t, "200", filter.MaxSize)
}

func TestFilterWithReplacesSingleField(t *testing.T) {
	base := Filter{Search: "x", Mode: ModeTree, CurrentDirectory: "a/b", MaxSize: "50", DiffArchiveID: "old"}

	tests := []struct {
		field FilterField
		value string
		want  Filter
	}{
		{FieldSearch, "Foo", Filter{Search: "Foo", Mode: ModeTree, CurrentDirectory: "a/b", MaxSize: "50", DiffArchiveID: "old"}},
		{FieldMode, "flat", Filter{Search: "x", Mode: ModeFlat, CurrentDirectory: "a/b", MaxSize: "50", DiffArchiveID: "old"}},
		{FieldCurrentDirectory, "c", Filter{Search: "x", Mode: ModeTree, CurrentDirectory: "c", MaxSize: "50", DiffArchiveID: "old"}},
		{FieldMaxSize, " 1000 ", Filter{Search: "x", Mode: ModeTree, CurrentDirectory: "a/b", MaxSize: "1000", DiffArchiveID: "old"}},
		{FieldDiffArchiveID, "", Filter{Search: "x", Mode: ModeTree, CurrentDirectory: "a/b", MaxSize: "50"}},
	}
	for _, test := range tests {
		t.Run(string(test.field), func(t *testing.T) {
			got, err := base.With(test.field, test.value)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestFilterWithRejectsInvalidValues(t *testing.T) {
	base := DefaultFilter("")

	_, err := base.With(FieldMode, "list")
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = base.With(FieldMaxSize, "-3")
	assert.ErrorIs(t, err, ErrInvalidMaxSize)

	_, err = base.With(FieldMaxSize, "ten")
	assert.ErrorIs(t, err, ErrInvalidMaxSize)

	_, err = base.With(FilterField("sort"), "name")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestListModeToggle(t *testing.T) {
	assert.Equal(t, ModeFlat, ModeTree.Toggle())
	assert.Equal(t, ModeTree, ModeFlat.Toggle())
}

func TestJobSummary(t *testing.T) {
	job := JobStatus{
		ID:          7,
		Description: "Loading list of files of archive 'home-2024'",
		Status:      "RUNNING",
		Progress:    &JobProgress{Message: "Getting file list...", Current: 12, Total: 48},
	}
	assert.Equal(t, "[running] Loading list of files of archive 'home-2024' - Getting file list... 12/48", job.Summary())
	assert.InDelta(t, 0.25, job.Percent(), 0.0001)

	assert.Equal(t, "[queued] job #3", JobStatus{ID: 3}.Summary())
	assert.Equal(t, -1.0, JobStatus{ID: 3}.Percent())
}

func TestEntryIsDir(t *testing.T) {
	assert.True(t, FileEntry{Mode: "drwxr-xr-x"}.IsDir())
	assert.False(t, FileEntry{Mode: "-rw-r--r--"}.IsDir())
}

func TestEntryNote(t *testing.T) {
	assert.Empty(t, FileEntry{Path: "etc/hosts", Message: "etc/hosts"}.Note())
	assert.Equal(t, "[added]", FileEntry{Path: "home/bob/todo.md", Message: "home/bob/todo.md [added]"}.Note())
	assert.Equal(t, "owner=alice", FileEntry{Path: "a", Message: "owner=alice"}.Note())
	assert.Empty(t, FileEntry{}.Note())
}
