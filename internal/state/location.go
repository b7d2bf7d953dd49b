package state

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
)

var ErrNoNavigator = errors.New("navigator is required")

// Navigator is the location history the panel is mounted under.
type Navigator interface {
	Location() string
	Push(location string)
	Listen(fn func(location string)) func()
}

// DirectoryFromLocation maps a location to a directory inside the archive.
// Locations outside mount map to the archive root.
func DirectoryFromLocation(mount, location string) string {
	mount = path.Clean("/" + mount)
	location = path.Clean("/" + location)
	if location == mount {
		return ""
	}
	if mount == "/" {
		return strings.Trim(location, "/")
	}
	if !strings.HasPrefix(location, mount+"/") {
		return ""
	}
	return strings.Trim(location[len(mount):], "/")
}

func LocationForDirectory(mount, dir string) string {
	return path.Join("/", mount, strings.Trim(dir, "/"))
}

// ParentDirectory returns the directory above dir; the root is its own parent.
func ParentDirectory(dir string) string {
	parent := path.Dir(strings.Trim(dir, "/"))
	if parent == "." || parent == "/" {
		return ""
	}
	return parent
}

// Synchronizer turns location changes under a mount into directory changes.
type Synchronizer struct {
	nav       Navigator
	mount     string
	changes   chan string
	unlisten  func()
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// MountSynchronizer subscribes to nav and immediately delivers the
// directory of the current location.
func MountSynchronizer(nav Navigator, mount string) (*Synchronizer, error) {
	if nav == nil {
		return nil, ErrNoNavigator
	}
	if !strings.HasPrefix(mount, "/") {
		return nil, fmt.Errorf("mount %q must be an absolute path", mount)
	}
	synchronizer := &Synchronizer{
		nav:     nav,
		mount:   path.Clean(mount),
		changes: make(chan string, 1),
	}
	synchronizer.unlisten = nav.Listen(synchronizer.onLocation)
	synchronizer.onLocation(nav.Location())
	return synchronizer, nil
}

// Changes delivers directories. When the reader lags only the newest
// directory is kept. The channel is closed by Close.
func (synchronizer *Synchronizer) Changes() <-chan string {
	return synchronizer.changes
}

func (synchronizer *Synchronizer) Navigate(dir string) {
	synchronizer.mu.Lock()
	closed := synchronizer.closed
	synchronizer.mu.Unlock()
	if closed {
		return
	}
	synchronizer.nav.Push(LocationForDirectory(synchronizer.mount, dir))
}

func (synchronizer *Synchronizer) Close() {
	synchronizer.closeOnce.Do(func() {
		synchronizer.unlisten()
		synchronizer.mu.Lock()
		synchronizer.closed = true
		close(synchronizer.changes)
		synchronizer.mu.Unlock()
	})
}

func (synchronizer *Synchronizer) onLocation(location string) {
	dir := DirectoryFromLocation(synchronizer.mount, location)
	synchronizer.mu.Lock()
	defer synchronizer.mu.Unlock()
	if synchronizer.closed {
		return
	}
	select {
	case <-synchronizer.changes:
	default:
	}
	synchronizer.changes <- dir
}
