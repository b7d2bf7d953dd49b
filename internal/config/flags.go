package config

import "github.com/spf13/pflag"

// Flags holds the values bound to command line flags. Apply copies the
// ones the user set over the loaded config.
type Flags struct {
	ServerURL      string
	Repo           string
	MountPrefix    string
	MaxSize        string
	Theme          string
	PollIntervalMs int
	RequestTimeout int
	LogLevel       string
	Verbose        bool
	Demo           bool
}

func BindFlags(flags *pflag.FlagSet, base Config) *Flags {
	bound := &Flags{}
	flags.StringVar(&bound.ServerURL, "server", base.ServerURL, "Backup server base URL")
	flags.StringVar(&bound.Repo, "repo", base.Repo, "Repository id")
	flags.StringVar(&bound.MountPrefix, "mount-prefix", base.MountPrefix, "Location prefix archives are mounted under")
	flags.StringVar(&bound.MaxSize, "max-size", base.MaxSize, "Maximum number of entries per listing")
	flags.StringVar(&bound.Theme, "theme", base.Theme, "Color theme (dark or light)")
	flags.IntVar(&bound.PollIntervalMs, "poll-interval", base.PollIntervalMs, "Job status poll interval in milliseconds")
	flags.IntVar(&bound.RequestTimeout, "timeout", base.RequestTimeoutSec, "File list request timeout in seconds (0 waits indefinitely)")
	flags.StringVar(&bound.LogLevel, "log-level", base.LogLevel, "Log level (debug, info, warn, error)")
	flags.BoolVarP(&bound.Verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&bound.Demo, "demo", base.Demo, "Browse built-in demo archives instead of a server")
	return bound
}

func (bound *Flags) Apply(base Config) Config {
	merged := mergeConfig(base, fileConfig{
		ServerURL:         &bound.ServerURL,
		Repo:              &bound.Repo,
		MountPrefix:       &bound.MountPrefix,
		MaxSize:           &bound.MaxSize,
		Theme:             &bound.Theme,
		PollIntervalMs:    &bound.PollIntervalMs,
		RequestTimeoutSec: &bound.RequestTimeout,
		LogLevel:          &bound.LogLevel,
		Demo:              &bound.Demo,
	})
	if bound.Verbose {
		merged.LogLevel = "debug"
	}
	return merged
}
