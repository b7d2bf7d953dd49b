package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const sessionVersion = 1
const maxSessionBytes = 1 * 1024 * 1024

type sessionFile struct {
	Version  int                     `json:"version"`
	Archives map[string]sessionEntry `json:"archives"`
}

type sessionEntry struct {
	Location string `json:"location"`
	SavedAt  int64  `json:"savedAt"`
}

// SessionStore remembers the last browsed location of every archive.
type SessionStore struct {
	mu      sync.RWMutex
	path    string
	loaded  bool
	entries map[string]sessionEntry
}

func SessionFilePath() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "borgview", "session.json"), nil
}

// NewSessionStore returns a store backed by path. An empty path keeps the
// store in memory only.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path, entries: map[string]sessionEntry{}}
}

func (store *SessionStore) Load() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.loaded || store.path == "" {
		store.loaded = true
		return nil
	}
	info, err := os.Stat(store.path)
	if err != nil {
		if os.IsNotExist(err) {
			store.loaded = true
			return nil
		}
		return err
	}
	if info.Size() > maxSessionBytes {
		return fmt.Errorf("session file too large: %d bytes", info.Size())
	}
	data, err := os.ReadFile(store.path)
	if err != nil {
		return err
	}
	var session sessionFile
	if err := json.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	store.loaded = true
	if session.Version != sessionVersion || session.Archives == nil {
		return nil
	}
	store.entries = session.Archives
	return nil
}

func (store *SessionStore) LastLocation(archiveID string) (string, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	entry, ok := store.entries[archiveID]
	if !ok || entry.Location == "" {
		return "", false
	}
	return entry.Location, true
}

func (store *SessionStore) Remember(archiveID, location string) {
	if archiveID == "" {
		return
	}
	store.mu.Lock()
	store.entries[archiveID] = sessionEntry{Location: location, SavedAt: time.Now().Unix()}
	store.mu.Unlock()
}

func (store *SessionStore) Save() error {
	if store.path == "" {
		return nil
	}
	store.mu.RLock()
	session := sessionFile{Version: sessionVersion, Archives: make(map[string]sessionEntry, len(store.entries))}
	for id, entry := range store.entries {
		session.Archives[id] = entry
	}
	store.mu.RUnlock()
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	if len(data) > maxSessionBytes {
		return fmt.Errorf("session too large to save: %d bytes", len(data))
	}
	if err := os.MkdirAll(filepath.Dir(store.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(store.path, data, 0o600)
}
