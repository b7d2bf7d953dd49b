// Package app wires configuration, backend, navigation and UI into the
// borgview commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"borgview/internal/config"
	"borgview/internal/domain"
	"borgview/internal/logging"
	"borgview/internal/navigation"
	"borgview/internal/services"
	"borgview/internal/state"
	"borgview/internal/ui"
)

var ErrNoArchive = errors.New("no archive given; pass one as argument or set \"archive\" in the config file")

// demoLoadDuration is how long the demo backend pretends to list an archive.
var demoLoadDuration = 3 * time.Second

// Execute loads the config and runs the command line.
func Execute() error {
	base, loadErr := config.LoadConfig()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	root := NewRootCmd(base)
	if loadErr != nil {
		fmt.Fprintf(root.ErrOrStderr(), "borgview: config warning, using defaults: %v\n", loadErr)
	}
	return root.ExecuteContext(ctx)
}

func NewRootCmd(base config.Config) *cobra.Command {
	var (
		flags     *config.Flags
		startPath string
	)
	root := &cobra.Command{
		Use:          "borgview [archive]",
		Short:        "Browse the files of borg backup archives",
		Long:         "borgview lists and browses the files of borg backup archives served by a borgbutler compatible server.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.Apply(base)
			if len(args) == 1 {
				cfg.Archive = args[0]
			}
			return runBrowse(base, cfg, startPath)
		},
	}
	flags = config.BindFlags(root.PersistentFlags(), base)
	root.Flags().StringVar(&startPath, "path", "", "Directory inside the archive to open")
	root.AddCommand(newListCmd(func() config.Config { return flags.Apply(base) }))
	return root
}

func runBrowse(base, cfg config.Config, startPath string) error {
	logger := openFileLogger(cfg)
	defer logger.Close()

	lister, err := newBackend(cfg, logger)
	if err != nil {
		return err
	}
	archive, err := resolveArchive(cfg, lister)
	if err != nil {
		return err
	}
	mount := cfg.Mount(archive.Repo, archive.ID)

	sessionPath, err := services.SessionFilePath()
	if err != nil {
		logger.Warn().Err(err).Msg("session disabled")
	}
	session := services.NewSessionStore(sessionPath)
	if err := session.Load(); err != nil {
		logger.Warn().Err(err).Msg("session not restored")
	}

	history := navigation.NewHistory(initialLocation(mount, startPath, session, archive.ID))
	synchronizer, err := state.MountSynchronizer(history, mount)
	if err != nil {
		return err
	}
	defer synchronizer.Close()

	logger.Info().Str("archive", archive.ID).Str("repo", archive.Repo).Str("mount", mount).Msg("browse started")
	var mounted []*state.Synchronizer
	defer func() {
		for _, remounted := range mounted {
			remounted.Close()
		}
	}()
	remount := func(next domain.Archive) (*state.Synchronizer, error) {
		nextMount := cfg.Mount(next.Repo, next.ID)
		history.Push(nextMount)
		remounted, err := state.MountSynchronizer(history, nextMount)
		if err == nil {
			mounted = append(mounted, remounted)
		}
		return remounted, err
	}

	model := ui.NewModel(state.NewPanel(archive, cfg.MaxSize), lister, synchronizer, cfg).
		WithHistory(history).
		WithRemount(remount).
		WithLogger(logger.Named("ui"))
	program := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		logger.Error().Err(err).Msg("browser stopped")
		return fmt.Errorf("run browser: %w", err)
	}

	final := cfg
	if provider, ok := finalModel.(ui.ConfigProvider); ok {
		final = provider.ConfigSnapshot()
	}
	if final.Archive != "" {
		session.Remember(final.Archive, history.Location())
	}
	if err := session.Save(); err != nil {
		logger.Warn().Err(err).Msg("session save failed")
	}
	if err := config.SaveConfig(savedConfig(base, final)); err != nil {
		logger.Warn().Err(err).Msg("config save failed")
	}
	return nil
}

// savedConfig is the file config plus the archive last browsed. Flags
// only apply to the run they were given for, and demo archives are never
// remembered.
func savedConfig(base, final config.Config) config.Config {
	saved := base
	if final.Demo || final.Archive == "" {
		return saved
	}
	saved.Archive = final.Archive
	saved.Repo = final.Repo
	return saved
}

// initialLocation prefers an explicit start path, then the location the
// archive was last browsed at.
func initialLocation(mount, startPath string, session *services.SessionStore, archiveID string) string {
	if startPath != "" {
		return state.LocationForDirectory(mount, startPath)
	}
	if location, ok := session.LastLocation(archiveID); ok {
		if location == mount || strings.HasPrefix(location, mount+"/") {
			return location
		}
	}
	return mount
}

func openFileLogger(cfg config.Config) *logging.Logger {
	dir, err := config.ConfigDir()
	if err != nil {
		return logging.Nop()
	}
	logger, err := logging.NewFileLogger(filepath.Join(dir, "logs"), logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return logging.Nop()
	}
	return logger
}

func newBackend(cfg config.Config, logger *logging.Logger) (services.Backend, error) {
	if cfg.Demo {
		return services.NewDemoBackend(demoLoadDuration), nil
	}
	client, err := services.NewRESTClient(services.RESTConfig{
		BaseURL:    cfg.ServerURL,
		Timeout:    cfg.RequestTimeout(),
		JobRetries: 3,
	}, logger.Named("rest"))
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	return client, nil
}

type archiveCatalog interface {
	Archives() []domain.Archive
	Archive(id string) (domain.Archive, bool)
}

// resolveArchive picks the archive to browse. Catalog backends fill in
// the details and default to their first archive.
func resolveArchive(cfg config.Config, lister services.Lister) (domain.Archive, error) {
	if catalog, ok := lister.(archiveCatalog); ok {
		if cfg.Archive == "" {
			archives := catalog.Archives()
			if len(archives) == 0 {
				return domain.Archive{}, ErrNoArchive
			}
			return archives[0], nil
		}
		archive, ok := catalog.Archive(cfg.Archive)
		if !ok {
			return domain.Archive{}, fmt.Errorf("unknown archive %q", cfg.Archive)
		}
		return archive, nil
	}
	if cfg.Archive == "" {
		return domain.Archive{}, ErrNoArchive
	}
	return domain.Archive{ID: cfg.Archive, Name: cfg.Archive, Repo: cfg.Repo}, nil
}
