// Package navigation keeps the browser's location history so directories
// can be bookmarked and walked back and forward.
package navigation

import (
	"path"
	"sync"
)

type Listener = func(location string)

type History struct {
	mu        sync.Mutex
	entries   []string
	index     int
	listeners map[int]Listener
	nextID    int
}

func NewHistory(initial string) *History {
	return &History{
		entries:   []string{Clean(initial)},
		listeners: make(map[int]Listener),
	}
}

// Clean normalizes a location to an absolute slash path.
func Clean(location string) string {
	if location == "" {
		return "/"
	}
	return path.Clean("/" + location)
}

func (history *History) Location() string {
	history.mu.Lock()
	defer history.mu.Unlock()
	return history.entries[history.index]
}

// Push records a new location, dropping any forward entries. Pushing the
// current location adds no entry but still notifies listeners.
func (history *History) Push(location string) {
	location = Clean(location)
	history.mu.Lock()
	if history.entries[history.index] != location {
		history.entries = append(history.entries[:history.index+1], location)
		history.index = len(history.entries) - 1
	}
	listeners := history.snapshotListeners()
	history.mu.Unlock()
	notify(listeners, location)
}

func (history *History) Back() bool {
	return history.move(-1)
}

func (history *History) Forward() bool {
	return history.move(1)
}

func (history *History) CanBack() bool {
	history.mu.Lock()
	defer history.mu.Unlock()
	return history.index > 0
}

func (history *History) CanForward() bool {
	history.mu.Lock()
	defer history.mu.Unlock()
	return history.index < len(history.entries)-1
}

// Listen registers fn for location changes. The returned function removes
// it; calling it more than once is harmless.
func (history *History) Listen(fn Listener) func() {
	history.mu.Lock()
	id := history.nextID
	history.nextID++
	history.listeners[id] = fn
	history.mu.Unlock()
	return func() {
		history.mu.Lock()
		delete(history.listeners, id)
		history.mu.Unlock()
	}
}

func (history *History) ListenerCount() int {
	history.mu.Lock()
	defer history.mu.Unlock()
	return len(history.listeners)
}

func (history *History) move(delta int) bool {
	history.mu.Lock()
	target := history.index + delta
	if target < 0 || target >= len(history.entries) {
		history.mu.Unlock()
		return false
	}
	history.index = target
	location := history.entries[target]
	listeners := history.snapshotListeners()
	history.mu.Unlock()
	notify(listeners, location)
	return true
}

func (history *History) snapshotListeners() []Listener {
	listeners := make([]Listener, 0, len(history.listeners))
	for id := 0; id < history.nextID; id++ {
		if fn, ok := history.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	return listeners
}

func notify(listeners []Listener, location string) {
	for _, fn := range listeners {
		fn(location)
	}
}
