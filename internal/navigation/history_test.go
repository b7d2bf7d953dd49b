package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryPushBackForward(t *testing.T) {
	history := NewHistory("/archives/repo/a1")
	var seen []string
	unlisten := history.Listen(func(location string) { seen = append(seen, location) })
	defer unlisten()

	history.Push("/archives/repo/a1/home")
	history.Push("/archives/repo/a1/home/docs/")
	assert.Equal(t, "/archives/repo/a1/home/docs", history.Location())

	assert.True(t, history.Back())
	assert.Equal(t, "/archives/repo/a1/home", history.Location())
	assert.True(t, history.Forward())
	assert.False(t, history.Forward())

	assert.True(t, history.Back())
	history.Push("/archives/repo/a1/etc")
	assert.False(t, history.CanForward())
	assert.True(t, history.CanBack())

	assert.Equal(t, []string{
		"/archives/repo/a1/home",
		"/archives/repo/a1/home/docs",
		"/archives/repo/a1/home",
		"/archives/repo/a1/home/docs",
		"/archives/repo/a1/home",
		"/archives/repo/a1/etc",
	}, seen)
}

func TestHistoryPushSameLocationNotifiesWithoutNewEntry(t *testing.T) {
	history := NewHistory("/a")
	var seen []string
	history.Listen(func(location string) { seen = append(seen, location) })

	history.Push("/a/")
	assert.Equal(t, []string{"/a"}, seen)
	assert.False(t, history.CanBack())
	assert.False(t, history.CanForward())
}

func TestHistoryUnlisten(t *testing.T) {
	history := NewHistory("")
	assert.Equal(t, "/", history.Location())

	calls := 0
	unlisten := history.Listen(func(string) { calls++ })
	assert.Equal(t, 1, history.ListenerCount())

	unlisten()
	unlisten()
	assert.Equal(t, 0, history.ListenerCount())

	history.Push("/b")
	assert.Equal(t, 0, calls)
}
