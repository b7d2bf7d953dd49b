package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"borgview/internal/domain"
)

const (
	configDirName  = "borgview"
	configFileName = "config.json"

	defaultMountPrefix    = "/archives"
	defaultPollIntervalMs = 1000
)

func DefaultConfig() Config {
	return Config{
		ServerURL:      "http://localhost:9042",
		MountPrefix:    defaultMountPrefix,
		MaxSize:        domain.DefaultMaxSize,
		Theme:          "dark",
		PollIntervalMs: defaultPollIntervalMs,
		LogLevel:       "info",
		KeyBindings:    map[string]string{},
	}
}

func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configDirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

func LoadConfig() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadConfigFrom(path)
}

// LoadConfigFrom merges the file at path over the defaults. A missing file
// is not an error.
func LoadConfigFrom(path string) (Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}
	var stored fileConfig
	if err := json.Unmarshal(data, &stored); err != nil {
		return config, fmt.Errorf("parse %s: %w", path, err)
	}
	return mergeConfig(config, stored), nil
}

func SaveConfig(config Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveConfigTo(path, config)
}

func SaveConfigTo(path string, config Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeConfig(base Config, stored fileConfig) Config {
	merged := base
	if stored.ServerURL != nil {
		merged.ServerURL = strings.TrimSpace(*stored.ServerURL)
	}
	if stored.Repo != nil {
		merged.Repo = *stored.Repo
	}
	if stored.Archive != nil {
		merged.Archive = *stored.Archive
	}
	if stored.MountPrefix != nil && strings.HasPrefix(*stored.MountPrefix, "/") {
		merged.MountPrefix = *stored.MountPrefix
	}
	if stored.MaxSize != nil {
		merged.MaxSize = validMaxSize(*stored.MaxSize, base.MaxSize)
	}
	if stored.Theme != nil {
		merged.Theme = validTheme(*stored.Theme, base.Theme)
	}
	if stored.PollIntervalMs != nil && *stored.PollIntervalMs > 0 {
		merged.PollIntervalMs = *stored.PollIntervalMs
	}
	if stored.RequestTimeoutSec != nil && *stored.RequestTimeoutSec >= 0 {
		merged.RequestTimeoutSec = *stored.RequestTimeoutSec
	}
	if stored.LogLevel != nil {
		merged.LogLevel = *stored.LogLevel
	}
	if stored.Demo != nil {
		merged.Demo = *stored.Demo
	}
	if stored.KeyBindings != nil {
		merged.KeyBindings = stored.KeyBindings
	}
	return merged
}

func validMaxSize(value, fallback string) string {
	if _, err := domain.ParseMaxSize(value); err != nil {
		return fallback
	}
	return strings.TrimSpace(value)
}

func validTheme(value, fallback string) string {
	switch value {
	case "dark", "light":
		return value
	default:
		return fallback
	}
}
