package config

import (
	"path"
	"time"
)

type Config struct {
	ServerURL         string            `json:"serverUrl"`
	Repo              string            `json:"repo"`
	Archive           string            `json:"archive"`
	MountPrefix       string            `json:"mountPrefix"`
	MaxSize           string            `json:"maxSize"`
	Theme             string            `json:"theme"`
	PollIntervalMs    int               `json:"pollIntervalMs"`
	RequestTimeoutSec int               `json:"requestTimeoutSec"`
	LogLevel          string            `json:"logLevel"`
	Demo              bool              `json:"demo"`
	KeyBindings       map[string]string `json:"keyBindings"`
}

type fileConfig struct {
	ServerURL         *string           `json:"serverUrl"`
	Repo              *string           `json:"repo"`
	Archive           *string           `json:"archive"`
	MountPrefix       *string           `json:"mountPrefix"`
	MaxSize           *string           `json:"maxSize"`
	Theme             *string           `json:"theme"`
	PollIntervalMs    *int              `json:"pollIntervalMs"`
	RequestTimeoutSec *int              `json:"requestTimeoutSec"`
	LogLevel          *string           `json:"logLevel"`
	Demo              *bool             `json:"demo"`
	KeyBindings       map[string]string `json:"keyBindings"`
}

// Mount is the location under which archive directories are browsed.
func (config Config) Mount(repo, archive string) string {
	return path.Join("/", config.MountPrefix, repo, archive)
}

func (config Config) PollInterval() time.Duration {
	if config.PollIntervalMs <= 0 {
		return time.Duration(defaultPollIntervalMs) * time.Millisecond
	}
	return time.Duration(config.PollIntervalMs) * time.Millisecond
}

// RequestTimeout is zero when file list requests may take as long as the
// backend needs.
func (config Config) RequestTimeout() time.Duration {
	if config.RequestTimeoutSec <= 0 {
		return 0
	}
	return time.Duration(config.RequestTimeoutSec) * time.Second
}
