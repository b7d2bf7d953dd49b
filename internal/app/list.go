package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"borgview/internal/config"
	"borgview/internal/domain"
	"borgview/internal/logging"
	"borgview/internal/progress"
	"borgview/internal/services"
	"borgview/internal/state"
)

var ErrNotLoaded = errors.New("archive file list not computed yet; rerun with --force")

type listOptions struct {
	force  bool
	flat   bool
	search string
	dir    string
	diff   string
}

func newListCmd(resolve func() config.Config) *cobra.Command {
	opts := listOptions{}
	cmd := &cobra.Command{
		Use:   "ls ARCHIVE",
		Short: "Print the file list of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := resolve()
			cfg.Archive = args[0]
			logger := logging.NewConsoleLogger(cmd.ErrOrStderr(), logging.ParseLevel(cfg.LogLevel))
			lister, err := newBackend(cfg, logger)
			if err != nil {
				return err
			}
			archive, err := resolveArchive(cfg, lister)
			if err != nil {
				return err
			}
			return runList(cmd.Context(), lister, archive, cfg, opts, cmd.OutOrStdout(), progress.ForStderr(), logger)
		},
	}
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Ask the server to compute the file list if needed")
	cmd.Flags().BoolVar(&opts.flat, "flat", false, "List all files instead of one directory")
	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "Only list entries containing this text")
	cmd.Flags().StringVarP(&opts.dir, "dir", "d", "", "Directory inside the archive")
	cmd.Flags().StringVar(&opts.diff, "diff", "", "Archive id to compare against")
	return cmd
}

// runList drives the panel reducer through one fetch and prints the
// visible entries.
func runList(ctx context.Context, lister services.Lister, archive domain.Archive, cfg config.Config, opts listOptions, out io.Writer, reporter progress.Reporter, logger *logging.Logger) error {
	panel := state.NewPanel(archive, cfg.MaxSize)
	actions := []state.Action{state.ChangeDirectoryAction{Path: opts.dir}}
	if opts.flat {
		actions = append(actions, state.UpdateFieldAction{Field: domain.FieldMode, Value: string(domain.ModeFlat)})
	}
	if opts.search != "" {
		actions = append(actions, state.UpdateFieldAction{Field: domain.FieldSearch, Value: opts.search})
	}
	if opts.diff != "" {
		actions = append(actions, state.UpdateFieldAction{Field: domain.FieldDiffArchiveID, Value: opts.diff})
	}
	actions = append(actions, state.FetchAction{Force: opts.force})

	var req *services.ListRequest
	for _, action := range actions {
		var err error
		panel, req, err = state.Reduce(panel, action)
		if err != nil {
			return err
		}
	}

	logger.Debug().Str("archive", req.ArchiveID).Bool("force", req.Force).Msg("fetch started")
	listing, err := fetchWithProgress(ctx, lister, *req, archive.Repo, cfg, reporter)
	panel, _, _ = state.Reduce(panel, state.FetchCompletedAction{Generation: panel.Generation, Listing: listing, Err: err})

	switch panel.Content() {
	case state.ContentFailed:
		logger.Warn().Err(err).Str("kind", panel.FailureKind.String()).Msg("file list failed")
		return fmt.Errorf("cannot load archive file list: %w", err)
	case state.ContentLoadPrompt:
		return ErrNotLoaded
	}
	return printEntries(out, panel.Visible())
}

func fetchWithProgress(ctx context.Context, lister services.Lister, req services.ListRequest, repo string, cfg config.Config, reporter progress.Reporter) (domain.Listing, error) {
	feed, ok := lister.(services.JobFeed)
	if !ok || !req.Force {
		return lister.ListFiles(ctx, req)
	}
	watchCtx, cancel := context.WithCancel(ctx)
	snapshots := services.WatchJobs(watchCtx, feed, repo, cfg.PollInterval())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for snapshot := range snapshots {
			reporter.Report(snapshot)
		}
	}()
	listing, err := lister.ListFiles(ctx, req)
	cancel()
	<-done
	reporter.Finish()
	return listing, err
}

func printEntries(out io.Writer, entries []domain.FileEntry) error {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "MODE\tDATE\tSIZE\tPATH\tNOTE")
	for _, entry := range entries {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n", entry.Mode, entry.Date, entry.Size, entry.Path, entry.Note())
	}
	return writer.Flush()
}
