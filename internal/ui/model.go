package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"borgview/internal/config"
	"borgview/internal/domain"
	"borgview/internal/logging"
	"borgview/internal/services"
	"borgview/internal/state"
)

// ArchiveCatalog lists the archives a backend can switch between.
type ArchiveCatalog interface {
	Archives() []domain.Archive
}

// Remounter mounts a fresh synchronizer for another archive.
type Remounter func(archive domain.Archive) (*state.Synchronizer, error)

// HistoryWalker moves through the navigation history.
type HistoryWalker interface {
	Back() bool
	Forward() bool
}

// crumbField marks the input prompt as a breadcrumb jump rather than a
// filter edit.
const crumbField domain.FilterField = "crumb"

type Model struct {
	panel        state.Panel
	lister       services.Lister
	jobs         services.JobFeed
	synchronizer *state.Synchronizer
	catalog      ArchiveCatalog
	remount      Remounter
	history      HistoryWalker
	logger       *logging.Logger
	cfg          config.Config
	keys         KeyMap
	spinner      spinner.Model
	input        textinput.Model
	editing      domain.FilterField
	ctx          context.Context
	cancel       context.CancelFunc
	jobCancel    context.CancelFunc
	jobUpdates   <-chan services.JobSnapshot
	watch        int
	jobSnapshot  services.JobSnapshot
	showHelp     bool
	status       string
	cursor       int
	viewTop      int
	width        int
	height       int
}

type ConfigProvider interface {
	ConfigSnapshot() config.Config
}

// NewModel builds the browser for one mounted archive. The lister doubles
// as the job feed when it implements services.JobFeed.
func NewModel(panel state.Panel, lister services.Lister, synchronizer *state.Synchronizer, cfg config.Config) Model {
	ctx, cancel := context.WithCancel(context.Background())
	input := textinput.New()
	input.CharLimit = 256
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	return Model{
		panel:        panel,
		lister:       lister,
		jobs:         jobFeed(lister),
		catalog:      archiveCatalog(lister),
		synchronizer: synchronizer,
		logger:       logging.Nop(),
		cfg:          cfg,
		keys:         DefaultKeyMap().ApplyBindings(cfg.KeyBindings),
		spinner:      spin,
		input:        input,
		ctx:          ctx,
		cancel:       cancel,
		status:       "Ready",
		width:        100,
		height:       30,
	}
}

func (model Model) WithStatus(message string) Model {
	if message != "" {
		model.status = message
	}
	return model
}

func (model Model) WithLogger(logger *logging.Logger) Model {
	if logger != nil {
		model.logger = logger
	}
	return model
}

func (model Model) WithRemount(remount Remounter) Model {
	model.remount = remount
	return model
}

func (model Model) WithHistory(history HistoryWalker) Model {
	model.history = history
	return model
}

func (model Model) Panel() state.Panel {
	return model.panel
}

func (model Model) ConfigSnapshot() config.Config {
	snapshot := model.cfg
	if model.panel.Archive.ID != "" {
		snapshot.Archive = model.panel.Archive.ID
		snapshot.Repo = model.panel.Archive.Repo
	}
	return snapshot
}

func (model Model) Init() tea.Cmd {
	return tea.Batch(model.directoryCmd(), model.spinner.Tick)
}

func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return model.handleKey(typed)
	case tea.WindowSizeMsg:
		model.width = typed.Width
		model.height = typed.Height
		model.ensureCursorVisible()
		return model, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		model.spinner, cmd = model.spinner.Update(typed)
		return model, cmd
	case directoryMsg:
		if typed.closed {
			return model, nil
		}
		if model.panel.Phase == state.PhaseFetching && model.panel.Filter.CurrentDirectory == typed.dir {
			return model, model.directoryCmd()
		}
		model.cursor = 0
		model.viewTop = 0
		next, cmd := model.dispatch(state.ChangeDirectoryAction{Path: typed.dir})
		return next, tea.Batch(cmd, next.directoryCmd())
	case listingMsg:
		return model.completeFetch(typed)
	case jobsMsg:
		if typed.watch != model.watch || typed.done {
			return model, nil
		}
		model.jobSnapshot = typed.snapshot
		if typed.snapshot.Err != nil {
			model.logger.Debug().Err(typed.snapshot.Err).Time("polled", typed.snapshot.Polled).Msg("job poll failed")
		}
		return model, model.jobsCmd(model.watch, model.jobUpdates)
	default:
		return model, nil
	}
}

func (model Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return model.quit()
	}
	if model.editing != "" {
		return model.handleInput(msg)
	}
	switch {
	case key.Matches(msg, model.keys.Quit):
		return model.quit()
	case key.Matches(msg, model.keys.Help):
		model.showHelp = !model.showHelp
		return model, nil
	case key.Matches(msg, model.keys.Cancel):
		model.showHelp = false
		return model, nil
	case key.Matches(msg, model.keys.Up):
		if model.cursor > 0 {
			model.cursor--
			model.ensureCursorVisible()
		}
		return model, nil
	case key.Matches(msg, model.keys.Down):
		if model.cursor < len(model.visibleEntries())-1 {
			model.cursor++
			model.ensureCursorVisible()
		}
		return model, nil
	case key.Matches(msg, model.keys.PageUp):
		model.cursor -= maxInt(model.listHeight(), 1)
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.PageDown):
		model.cursor += maxInt(model.listHeight(), 1)
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.Enter):
		return model.open()
	case key.Matches(msg, model.keys.Load):
		if model.panel.Content() != state.ContentLoadPrompt {
			return model, nil
		}
		return model.dispatch(state.FetchAction{Force: true})
	case key.Matches(msg, model.keys.Parent):
		dir := model.panel.Filter.CurrentDirectory
		if dir == "" || model.panel.Filter.Mode != domain.ModeTree {
			return model, nil
		}
		model.navigate(state.ParentDirectory(dir))
		return model, nil
	case key.Matches(msg, model.keys.HistoryBack):
		if model.history == nil || !model.history.Back() {
			model.status = "No earlier location"
		}
		return model, nil
	case key.Matches(msg, model.keys.HistoryNext):
		if model.history == nil || !model.history.Forward() {
			model.status = "No later location"
		}
		return model, nil
	case key.Matches(msg, model.keys.Crumb):
		if model.panel.Filter.Mode != domain.ModeTree {
			return model, nil
		}
		return model.jumpToCrumb(int(msg.String()[0] - '0'))
	case key.Matches(msg, model.keys.GoToCrumb):
		if model.panel.Filter.Mode != domain.ModeTree {
			return model, nil
		}
		return model.beginInput(crumbField)
	case key.Matches(msg, model.keys.NextArchive):
		return model.switchArchive()
	case key.Matches(msg, model.keys.ToggleMode):
		return model.dispatch(state.UpdateFieldAction{
			Field: domain.FieldMode,
			Value: string(model.panel.Filter.Mode.Toggle()),
		})
	case key.Matches(msg, model.keys.Search):
		return model.beginInput(domain.FieldSearch)
	case key.Matches(msg, model.keys.ClearSearch):
		if model.panel.Filter.Search == "" {
			return model, nil
		}
		return model.dispatch(state.UpdateFieldAction{Field: domain.FieldSearch, Value: ""})
	case key.Matches(msg, model.keys.MaxSize):
		return model.beginInput(domain.FieldMaxSize)
	case key.Matches(msg, model.keys.Diff):
		return model.beginInput(domain.FieldDiffArchiveID)
	case key.Matches(msg, model.keys.Reload):
		if model.panel.Phase == state.PhaseFailed {
			return model.dispatch(state.RetryAction{})
		}
		return model.dispatch(state.FetchAction{})
	default:
		return model, nil
	}
}

// open acts on the row under the cursor: directories are entered, the load
// prompt triggers a forced load.
func (model Model) open() (tea.Model, tea.Cmd) {
	switch model.panel.Content() {
	case state.ContentLoadPrompt:
		return model.dispatch(state.FetchAction{Force: true})
	case state.ContentTable:
		visible := model.visibleEntries()
		if model.cursor < 0 || model.cursor >= len(visible) {
			return model, nil
		}
		entry := visible[model.cursor]
		if !entry.IsDir() {
			return model, nil
		}
		if model.panel.Filter.Mode != domain.ModeTree {
			model.status = "Switch to tree mode (t) to browse directories"
			return model, nil
		}
		model.navigate(entry.Path)
		return model, nil
	default:
		return model, nil
	}
}

// jumpToCrumb navigates to breadcrumb index; 0 is the archive root.
func (model Model) jumpToCrumb(index int) (tea.Model, tea.Cmd) {
	if index == 0 {
		model.navigate("")
		return model, nil
	}
	crumbs := state.Breadcrumbs(model.panel.Filter)
	if index < 0 || index > len(crumbs) {
		model.status = fmt.Sprintf("No breadcrumb %d", index)
		return model, nil
	}
	model.navigate(crumbs[index-1].Path)
	return model, nil
}

// switchArchive moves the panel to the next archive of the catalog. The
// old synchronizer is closed before the new mount is pushed.
func (model Model) switchArchive() (tea.Model, tea.Cmd) {
	if model.catalog == nil || model.remount == nil {
		model.status = "No other archives"
		return model, nil
	}
	next, ok := nextArchive(model.catalog.Archives(), model.panel.Archive.ID)
	if !ok {
		model.status = "No other archives"
		return model, nil
	}
	if model.synchronizer != nil {
		model.synchronizer.Close()
		model.synchronizer = nil
	}
	synchronizer, err := model.remount(next)
	if err != nil {
		model.logger.Warn().Err(err).Str("archive", next.ID).Msg("remount failed")
		model.status = fmt.Sprintf("Cannot open archive %s: %v", next.ID, err)
		return model, nil
	}
	model.synchronizer = synchronizer
	model.cursor = 0
	model.viewTop = 0
	model.logger.Info().Str("archive", next.ID).Msg("archive switched")
	updated, cmd := model.dispatch(state.ArchiveChangedAction{Archive: next})
	return updated, tea.Batch(cmd, updated.directoryCmd())
}

func nextArchive(archives []domain.Archive, current string) (domain.Archive, bool) {
	if len(archives) < 2 {
		return domain.Archive{}, false
	}
	for index, archive := range archives {
		if archive.ID == current {
			return archives[(index+1)%len(archives)], true
		}
	}
	return archives[0], true
}

func (model *Model) navigate(dir string) {
	if model.synchronizer == nil {
		return
	}
	model.synchronizer.Navigate(dir)
}

func (model Model) beginInput(field domain.FilterField) (tea.Model, tea.Cmd) {
	model.editing = field
	model.input.Prompt = inputLabel(field) + ": "
	model.input.SetValue(model.panel.Filter.Value(field))
	model.input.CursorEnd()
	model.status = fmt.Sprintf("Editing %s - enter to apply, esc to cancel", inputLabel(field))
	return model, model.input.Focus()
}

func (model Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, model.keys.Cancel):
		model.editing = ""
		model.input.Blur()
		model.status = "Edit cancelled"
		return model, nil
	case msg.Type == tea.KeyEnter:
		field := model.editing
		value := model.input.Value()
		model.editing = ""
		model.input.Blur()
		model.cursor = 0
		model.viewTop = 0
		if field == crumbField {
			index, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				model.status = fmt.Sprintf("Not a breadcrumb number: %q", value)
				return model, nil
			}
			return model.jumpToCrumb(index)
		}
		return model.dispatch(state.UpdateFieldAction{Field: field, Value: value})
	}
	var cmd tea.Cmd
	model.input, cmd = model.input.Update(msg)
	return model, cmd
}

// dispatch runs an action through the panel reducer and starts the fetch
// it asks for.
func (model Model) dispatch(action state.Action) (Model, tea.Cmd) {
	next, req, err := state.Reduce(model.panel, action)
	if err != nil {
		model.logger.Warn().Err(err).Msg("action rejected")
		model.status = fmt.Sprintf("Filter error: %v", err)
		return model, nil
	}
	model.panel = next
	if req == nil {
		return model, nil
	}
	return model.beginFetch(*req)
}

func (model Model) beginFetch(req services.ListRequest) (Model, tea.Cmd) {
	model.stopJobWatch()
	generation := model.panel.Generation
	model.logger.Debug().
		Uint64("generation", generation).
		Str("archive", req.ArchiveID).
		Str("dir", req.CurrentDirectory).
		Str("mode", string(req.Mode)).
		Bool("force", req.Force).
		Msg("fetch started")
	model.status = "Loading file list..."
	model.jobSnapshot = services.JobSnapshot{}
	cmds := []tea.Cmd{model.fetchCmd(generation, req)}
	if model.jobs != nil {
		ctx, cancel := context.WithCancel(model.ctx)
		model.jobCancel = cancel
		model.watch++
		model.jobUpdates = services.WatchJobs(ctx, model.jobs, model.panel.Archive.Repo, model.cfg.PollInterval())
		cmds = append(cmds, model.jobsCmd(model.watch, model.jobUpdates))
		model.logger.Debug().Int("watch", model.watch).Msg("job watch started")
	}
	return model, tea.Batch(cmds...)
}

func (model Model) completeFetch(msg listingMsg) (tea.Model, tea.Cmd) {
	if model.panel.Stale(msg.generation) {
		model.logger.Debug().Uint64("generation", msg.generation).Msg("stale file list discarded")
		return model, nil
	}
	model.panel, _, _ = state.Reduce(model.panel, state.FetchCompletedAction{
		Generation: msg.generation,
		Listing:    msg.listing,
		Err:        msg.err,
	})
	model.stopJobWatch()
	switch model.panel.Phase {
	case state.PhaseFailed:
		model.logger.Warn().Err(msg.err).Str("kind", model.panel.FailureKind.String()).Msg("file list failed")
		model.status = "Cannot load archive file list"
	case state.PhaseNotLoaded:
		model.logger.Debug().Msg("file list not loaded on server")
		model.status = "File list not loaded yet"
	case state.PhaseLoaded:
		model.logger.Debug().Int("entries", len(model.panel.Entries)).Msg("fetch finished")
		model.status = fmt.Sprintf("%d entries", len(model.panel.Visible()))
	}
	model.ensureCursorVisible()
	return model, nil
}

func (model *Model) stopJobWatch() {
	if model.jobCancel != nil {
		model.jobCancel()
		model.jobCancel = nil
		model.logger.Debug().Int("watch", model.watch).Msg("job watch stopped")
	}
	model.jobUpdates = nil
}

// quit tears the panel down. Fetches still in flight are cancelled and
// their results dropped by the reducer.
func (model Model) quit() (tea.Model, tea.Cmd) {
	model.stopJobWatch()
	if model.cancel != nil {
		model.cancel()
	}
	if model.synchronizer != nil {
		model.synchronizer.Close()
	}
	model.panel, _, _ = state.Reduce(model.panel, state.UnmountAction{})
	return model, tea.Quit
}

func (model Model) fetchCmd(generation uint64, req services.ListRequest) tea.Cmd {
	lister := model.lister
	ctx := model.ctx
	return func() tea.Msg {
		listing, err := lister.ListFiles(ctx, req)
		return listingMsg{generation: generation, listing: listing, err: err}
	}
}

func (model Model) jobsCmd(watch int, updates <-chan services.JobSnapshot) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		snapshot, ok := <-updates
		return jobsMsg{watch: watch, snapshot: snapshot, done: !ok}
	}
}

func (model Model) directoryCmd() tea.Cmd {
	if model.synchronizer == nil {
		return nil
	}
	changes := model.synchronizer.Changes()
	return func() tea.Msg {
		dir, ok := <-changes
		return directoryMsg{dir: dir, closed: !ok}
	}
}

func jobFeed(lister services.Lister) services.JobFeed {
	feed, _ := lister.(services.JobFeed)
	return feed
}

func archiveCatalog(lister services.Lister) ArchiveCatalog {
	catalog, _ := lister.(ArchiveCatalog)
	return catalog
}

func (model Model) visibleEntries() []domain.FileEntry {
	if model.panel.Content() != state.ContentTable {
		return nil
	}
	return model.panel.Visible()
}

func (model *Model) ensureCursorVisible() {
	visible := model.visibleEntries()
	if len(visible) == 0 {
		model.cursor = 0
		model.viewTop = 0
		return
	}
	if model.cursor >= len(visible) {
		model.cursor = len(visible) - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
	listHeight := model.listHeight()
	if listHeight <= 0 {
		return
	}
	if model.cursor < model.viewTop {
		model.viewTop = model.cursor
	}
	if model.cursor >= model.viewTop+listHeight {
		model.viewTop = model.cursor - listHeight + 1
	}
	maxTop := len(visible) - listHeight
	if maxTop < 0 {
		maxTop = 0
	}
	if model.viewTop > maxTop {
		model.viewTop = maxTop
	}
}

// listHeight is the number of table rows that fit below the header,
// filter bar, breadcrumbs and column titles and above the footer.
func (model *Model) listHeight() int {
	return model.height - 9
}

func inputLabel(field domain.FilterField) string {
	switch field {
	case domain.FieldSearch:
		return "Search"
	case domain.FieldMaxSize:
		return "Max entries"
	case domain.FieldDiffArchiveID:
		return "Diff archive"
	case crumbField:
		return "Breadcrumb"
	default:
		return string(field)
	}
}
