package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"borgview/internal/navigation"
)

func TestDirectoryFromLocation(t *testing.T) {
	tests := []struct {
		mount    string
		location string
		want     string
	}{
		{"/archives/demo/a1", "/archives/demo/a1", ""},
		{"/archives/demo/a1", "/archives/demo/a1/", ""},
		{"/archives/demo/a1", "/archives/demo/a1/home/alice", "home/alice"},
		{"/archives/demo/a1", "/archives/demo/a1//home/alice/", "home/alice"},
		{"/archives/demo/a1", "/archives/demo/a10/home", ""},
		{"/archives/demo/a1", "/elsewhere", ""},
		{"/", "/etc/ssh", "etc/ssh"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DirectoryFromLocation(tt.mount, tt.location), tt.location)
	}
}

func TestLocationRoundTrip(t *testing.T) {
	mount := "/archives/demo/a1"
	for _, dir := range []string{"", "home", "home/alice/docs"} {
		assert.Equal(t, dir, DirectoryFromLocation(mount, LocationForDirectory(mount, dir)))
	}
	assert.Equal(t, "home", ParentDirectory("home/alice"))
	assert.Equal(t, "", ParentDirectory("home"))
	assert.Equal(t, "", ParentDirectory(""))
}

func TestSynchronizerEmitsOnMountAndChange(t *testing.T) {
	history := navigation.NewHistory("/archives/demo/a1/etc")
	synchronizer, err := MountSynchronizer(history, "/archives/demo/a1")
	require.NoError(t, err)
	defer synchronizer.Close()

	assert.Equal(t, "etc", <-synchronizer.Changes())

	synchronizer.Navigate("home/alice")
	assert.Equal(t, "home/alice", <-synchronizer.Changes())
	assert.Equal(t, "/archives/demo/a1/home/alice", history.Location())

	require.True(t, history.Back())
	assert.Equal(t, "etc", <-synchronizer.Changes())
}

func TestSynchronizerNavigateToCurrentDirectoryEmitsAgain(t *testing.T) {
	history := navigation.NewHistory("/m/home")
	synchronizer, err := MountSynchronizer(history, "/m")
	require.NoError(t, err)
	defer synchronizer.Close()
	assert.Equal(t, "home", <-synchronizer.Changes())

	synchronizer.Navigate("home/")
	assert.Equal(t, "home", <-synchronizer.Changes())
	assert.False(t, history.CanBack())
}

func TestSynchronizerLatestWins(t *testing.T) {
	history := navigation.NewHistory("/m")
	synchronizer, err := MountSynchronizer(history, "/m")
	require.NoError(t, err)
	defer synchronizer.Close()

	history.Push("/m/a")
	history.Push("/m/b")
	assert.Equal(t, "b", <-synchronizer.Changes())
}

func TestSynchronizerCloseUnsubscribesOnce(t *testing.T) {
	history := navigation.NewHistory("/m")
	synchronizer, err := MountSynchronizer(history, "/m")
	require.NoError(t, err)
	assert.Equal(t, 1, history.ListenerCount())

	synchronizer.Close()
	synchronizer.Close()
	assert.Equal(t, 0, history.ListenerCount())

	history.Push("/m/after")
	synchronizer.Navigate("ignored")
	assert.Equal(t, "/m/after", history.Location())

	drained := []string{}
	for dir := range synchronizer.Changes() {
		drained = append(drained, dir)
	}
	assert.Equal(t, []string{""}, drained)
}

func TestMountSynchronizerValidatesBeforeSubscribing(t *testing.T) {
	_, err := MountSynchronizer(nil, "/m")
	assert.ErrorIs(t, err, ErrNoNavigator)

	history := navigation.NewHistory("/m")
	_, err = MountSynchronizer(history, "relative")
	assert.Error(t, err)
	assert.Equal(t, 0, history.ListenerCount())
}
