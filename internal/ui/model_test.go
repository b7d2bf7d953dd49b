package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"borgview/internal/config"
	"borgview/internal/domain"
	"borgview/internal/navigation"
	"borgview/internal/services"
	"borgview/internal/state"
)

const testMount = "/archives/demo/demo-2024-01-01"

type harness struct {
	model        Model
	history      *navigation.History
	synchronizer *state.Synchronizer
}

func newHarness(t *testing.T, lister services.Lister) *harness {
	t.Helper()
	history := navigation.NewHistory(testMount)
	synchronizer, err := state.MountSynchronizer(history, testMount)
	require.NoError(t, err)
	t.Cleanup(synchronizer.Close)
	archive := domain.Archive{ID: "demo-2024-01-01", Name: "demo-2024-01-01", Repo: services.DemoRepo}
	model := NewModel(state.NewPanel(archive, "50"), lister, synchronizer, config.DefaultConfig()).WithHistory(history)
	return &harness{model: model, history: history, synchronizer: synchronizer}
}

func (h *harness) update(t *testing.T, msg tea.Msg) {
	t.Helper()
	next, _ := h.model.Update(msg)
	h.model = next.(Model)
}

func (h *harness) press(t *testing.T, keys string) {
	t.Helper()
	switch keys {
	case "enter":
		h.update(t, tea.KeyMsg{Type: tea.KeyEnter})
	case "backspace":
		h.update(t, tea.KeyMsg{Type: tea.KeyBackspace})
	case "esc":
		h.update(t, tea.KeyMsg{Type: tea.KeyEsc})
	default:
		h.update(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	}
}

// deliverDirectory feeds the next synchronizer change into the model.
func (h *harness) deliverDirectory(t *testing.T) {
	t.Helper()
	h.update(t, directoryMsg{dir: <-h.synchronizer.Changes()})
}

// finishFetch runs the outstanding request and feeds its result back.
func (h *harness) finishFetch(t *testing.T) {
	t.Helper()
	require.Equal(t, state.PhaseFetching, h.model.panel.Phase)
	msg := h.model.fetchCmd(h.model.panel.Generation, *h.model.panel.LastRequest)()
	h.update(t, msg)
}

func TestMountShowsLoadPromptThenTable(t *testing.T) {
	h := newHarness(t, services.NewDemoBackend(0))
	h.deliverDirectory(t)
	assert.Equal(t, state.PhaseFetching, h.model.panel.Phase)
	assert.Contains(t, h.model.View(), "Loading file list...")

	h.finishFetch(t)
	assert.Equal(t, state.PhaseNotLoaded, h.model.panel.Phase)
	assert.Contains(t, h.model.View(), "load file list from borg backup server")

	h.press(t, "enter")
	require.NotNil(t, h.model.panel.LastRequest)
	assert.True(t, h.model.panel.LastRequest.Force)
	h.finishFetch(t)

	assert.Equal(t, state.PhaseLoaded, h.model.panel.Phase)
	view := h.model.View()
	assert.Contains(t, view, "Mode")
	assert.Contains(t, view, "Path")
	assert.Contains(t, view, "home")
}

func loadedHarness(t *testing.T) *harness {
	t.Helper()
	backend := services.NewDemoBackend(0)
	_, err := backend.ListFiles(context.Background(), services.ListRequest{ArchiveID: "demo-2024-01-01", Force: true, MaxResultSize: "1"})
	require.NoError(t, err)
	h := newHarness(t, backend)
	h.deliverDirectory(t)
	h.finishFetch(t)
	require.Equal(t, state.PhaseLoaded, h.model.panel.Phase)
	return h
}

func TestEnterOpensDirectory(t *testing.T) {
	h := loadedHarness(t)
	require.Equal(t, "etc", h.model.visibleEntries()[0].Path)

	h.press(t, "enter")
	assert.Equal(t, testMount+"/etc", h.history.Location())
	h.deliverDirectory(t)
	assert.Equal(t, "etc", h.model.panel.Filter.CurrentDirectory)
	h.finishFetch(t)
	assert.Contains(t, h.model.View(), "etc/hosts")

	h.press(t, "backspace")
	assert.Equal(t, testMount, h.history.Location())
	h.press(t, "]")
	assert.Equal(t, testMount, h.history.Location())
	h.press(t, "[")
	assert.Equal(t, testMount+"/etc", h.history.Location())
}

func TestBreadcrumbDigitNavigates(t *testing.T) {
	h := loadedHarness(t)
	h.model.synchronizer.Navigate("home/alice/docs")
	h.deliverDirectory(t)
	h.finishFetch(t)
	assert.Contains(t, h.model.View(), "2 alice")

	h.press(t, "1")
	assert.Equal(t, testMount+"/home", h.history.Location())
	h.press(t, "9")
	assert.Equal(t, testMount+"/home", h.history.Location())
	h.press(t, "0")
	assert.Equal(t, testMount, h.history.Location())
}

func TestCrumbForCurrentDirectoryRefetches(t *testing.T) {
	h := loadedHarness(t)
	h.model.synchronizer.Navigate("home/alice")
	h.deliverDirectory(t)
	h.finishFetch(t)
	generation := h.model.panel.Generation

	h.press(t, "2")
	h.deliverDirectory(t)
	assert.Equal(t, state.PhaseFetching, h.model.panel.Phase)
	assert.Equal(t, generation+1, h.model.panel.Generation)
	assert.Equal(t, "home/alice", h.model.panel.LastRequest.CurrentDirectory)
	h.finishFetch(t)

	h.press(t, "0")
	h.deliverDirectory(t)
	h.finishFetch(t)
	generation = h.model.panel.Generation
	h.press(t, "0")
	h.deliverDirectory(t)
	assert.Equal(t, state.PhaseFetching, h.model.panel.Phase)
	assert.Equal(t, generation+1, h.model.panel.Generation)
	assert.Equal(t, "", h.model.panel.LastRequest.CurrentDirectory)
	assert.False(t, h.history.CanForward())
}

func TestCrumbKeysIgnoredInFlatMode(t *testing.T) {
	h := loadedHarness(t)
	h.model.synchronizer.Navigate("home/alice")
	h.deliverDirectory(t)
	h.finishFetch(t)
	h.press(t, "t")
	h.finishFetch(t)
	require.Equal(t, domain.ModeFlat, h.model.panel.Filter.Mode)

	h.press(t, "0")
	h.press(t, "g")
	assert.Equal(t, testMount+"/home/alice", h.history.Location())
	assert.Equal(t, "home/alice", h.model.panel.Filter.CurrentDirectory)
	assert.Empty(t, h.model.editing)
	select {
	case dir := <-h.synchronizer.Changes():
		t.Fatalf("unexpected directory change %q", dir)
	default:
	}
}

func TestBreadcrumbPromptReachesDeepSegments(t *testing.T) {
	h := loadedHarness(t)
	h.model.synchronizer.Navigate("a/b/c/d/e/f/g/h/i/j/k")
	h.deliverDirectory(t)
	h.finishFetch(t)
	assert.Contains(t, renderBreadcrumbs(h.model.panel.Filter, stylesFor(h.model)), "11 k")

	h.press(t, "g")
	require.Equal(t, crumbField, h.model.editing)
	h.press(t, "10")
	h.press(t, "enter")
	assert.Empty(t, h.model.editing)
	assert.Equal(t, testMount+"/a/b/c/d/e/f/g/h/i/j", h.history.Location())

	h.press(t, "g")
	h.press(t, "x")
	h.press(t, "enter")
	assert.Contains(t, h.model.status, "Not a breadcrumb number")

	h.press(t, "g")
	h.press(t, "42")
	h.press(t, "enter")
	assert.Equal(t, "No breadcrumb 42", h.model.status)
	assert.Equal(t, testMount+"/a/b/c/d/e/f/g/h/i/j", h.history.Location())
}

func TestCancelClosesHelp(t *testing.T) {
	h := loadedHarness(t)
	h.press(t, "?")
	require.True(t, h.model.showHelp)
	assert.Contains(t, h.model.View(), "cancel edit/close help")
	h.press(t, "esc")
	assert.False(t, h.model.showHelp)
}

func TestNextArchiveRemountsPanel(t *testing.T) {
	h := loadedHarness(t)
	h.model.synchronizer.Navigate("home")
	h.deliverDirectory(t)
	h.finishFetch(t)
	old := h.model.synchronizer
	var remounted *state.Synchronizer
	h.model = h.model.WithRemount(func(archive domain.Archive) (*state.Synchronizer, error) {
		mount := config.DefaultConfig().Mount(archive.Repo, archive.ID)
		h.history.Push(mount)
		synchronizer, err := state.MountSynchronizer(h.history, mount)
		remounted = synchronizer
		return synchronizer, err
	})
	t.Cleanup(func() {
		if remounted != nil {
			remounted.Close()
		}
	})
	generation := h.model.panel.Generation

	h.press(t, "a")
	require.NotNil(t, remounted)
	assert.Same(t, remounted, h.model.synchronizer)
	assert.Equal(t, 1, h.history.ListenerCount())
	assert.Equal(t, "demo-2024-02-01", h.model.panel.Archive.ID)
	assert.Equal(t, domain.DefaultFilter("50"), h.model.panel.Filter)
	assert.Equal(t, generation+1, h.model.panel.Generation)
	assert.Equal(t, "demo-2024-02-01", h.model.panel.LastRequest.ArchiveID)

	h.update(t, directoryMsg{dir: <-remounted.Changes()})
	assert.Equal(t, generation+1, h.model.panel.Generation)
	h.finishFetch(t)
	assert.Equal(t, state.PhaseNotLoaded, h.model.panel.Phase)
	assert.Equal(t, "demo-2024-02-01", h.model.ConfigSnapshot().Archive)

	drained := []string{}
	for dir := range old.Changes() {
		drained = append(drained, dir)
	}
	assert.Empty(t, drained)
}

func TestNextArchiveWithoutCatalog(t *testing.T) {
	h := newHarness(t, &failingLister{})
	h.press(t, "a")
	assert.Equal(t, "No other archives", h.model.status)
	assert.Equal(t, "demo-2024-01-01", h.model.panel.Archive.ID)
}

func TestToggleModeFetchesFlatListing(t *testing.T) {
	h := loadedHarness(t)
	generation := h.model.panel.Generation
	h.press(t, "t")
	assert.Equal(t, generation+1, h.model.panel.Generation)
	assert.Equal(t, domain.ModeFlat, h.model.panel.LastRequest.Mode)
	h.finishFetch(t)
	assert.Len(t, h.model.panel.Entries, 50)
	assert.Empty(t, renderBreadcrumbs(h.model.panel.Filter, stylesFor(h.model)))
}

func TestSearchInputUpdatesFilter(t *testing.T) {
	h := loadedHarness(t)
	h.press(t, "/")
	assert.Equal(t, domain.FieldSearch, h.model.editing)
	h.press(t, "q")
	assert.Equal(t, domain.FieldSearch, h.model.editing, "q types while editing")
	h.press(t, "esc")
	assert.Empty(t, h.model.panel.Filter.Search)

	h.press(t, "/")
	h.press(t, "ho")
	h.press(t, "enter")
	assert.Equal(t, "ho", h.model.panel.Filter.Search)
	assert.Equal(t, "ho", h.model.panel.LastRequest.SearchString)
	h.finishFetch(t)
	assert.Contains(t, h.model.View(), "Search: ho")
}

func TestInvalidMaxSizeKeepsPanel(t *testing.T) {
	h := loadedHarness(t)
	generation := h.model.panel.Generation
	h.press(t, "z")
	h.model.input.SetValue("lots")
	h.press(t, "enter")
	assert.Equal(t, generation, h.model.panel.Generation)
	assert.Equal(t, state.PhaseLoaded, h.model.panel.Phase)
	assert.Contains(t, h.model.status, "Filter error")
}

type failingLister struct {
	calls []services.ListRequest
}

func (lister *failingLister) ListFiles(ctx context.Context, req services.ListRequest) (domain.Listing, error) {
	lister.calls = append(lister.calls, req)
	return domain.Listing{}, &services.FetchError{Kind: services.NetworkFailure, Err: errors.New("connection refused")}
}

func TestFailureShowsRetry(t *testing.T) {
	lister := &failingLister{}
	h := newHarness(t, lister)
	h.deliverDirectory(t)
	h.finishFetch(t)

	view := h.model.View()
	assert.Contains(t, view, "Cannot load archive file list")
	assert.Contains(t, view, "connection refused")

	h.press(t, "r")
	assert.Equal(t, state.PhaseFetching, h.model.panel.Phase)
	h.finishFetch(t)
	require.Len(t, lister.calls, 2)
	assert.Equal(t, lister.calls[0], lister.calls[1])
}

func TestStaleListingIsIgnored(t *testing.T) {
	h := loadedHarness(t)
	h.press(t, "t")
	stale := listingMsg{generation: h.model.panel.Generation - 1, listing: domain.EntriesListing(nil)}
	h.update(t, stale)
	assert.Equal(t, state.PhaseFetching, h.model.panel.Phase)
}

func TestQuitTearsDown(t *testing.T) {
	h := newHarness(t, services.NewDemoBackend(0))
	h.deliverDirectory(t)
	generation := h.model.panel.Generation

	next, cmd := h.model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	h.model = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, 0, h.history.ListenerCount())
	assert.Equal(t, state.PhaseClosed, h.model.panel.Phase)

	h.update(t, listingMsg{generation: generation, listing: domain.NotLoadedListing()})
	assert.Equal(t, state.PhaseClosed, h.model.panel.Phase)
	assert.Equal(t, services.DemoRepo, h.model.ConfigSnapshot().Repo)
}

func TestJobsMessagesFromOldWatchAreDropped(t *testing.T) {
	h := newHarness(t, services.NewDemoBackend(0))
	h.deliverDirectory(t)
	current := h.model.watch
	job := domain.JobStatus{ID: 1, Description: "Loading list of files of archive 'x' of repo 'demo'.", Status: "RUNNING"}

	h.update(t, jobsMsg{watch: current - 1, snapshot: services.JobSnapshot{Jobs: []domain.JobStatus{job}}})
	assert.Empty(t, h.model.jobSnapshot.Jobs)

	h.update(t, jobsMsg{watch: current, snapshot: services.JobSnapshot{Jobs: []domain.JobStatus{job}}})
	assert.Contains(t, h.model.View(), "Loading list of files of archive 'x'")
}

func TestRenderJobPanel(t *testing.T) {
	snapshot := services.JobSnapshot{
		Jobs: []domain.JobStatus{{
			ID:          3,
			Description: "Loading list of files",
			Status:      "RUNNING",
			Progress:    &domain.JobProgress{Message: "Getting file list...", Current: 1, Total: 4},
		}},
		Err: errors.New("timeout"),
	}
	out := renderJobPanel("*", snapshot, stylesFor(Model{}))
	assert.Contains(t, out, "* Loading file list...")
	assert.Contains(t, out, "Getting file list... 1/4 (25%)")
	assert.Contains(t, out, "job status unavailable: timeout")
}

func TestRenderJobPanelShowsPollTime(t *testing.T) {
	polled := time.Date(2024, 1, 1, 14, 5, 9, 0, time.Local)
	out := renderJobPanel("*", services.JobSnapshot{Polled: polled}, stylesFor(Model{}))
	assert.Contains(t, out, "updated 14:05:09")
}

func TestTablePathColumnShowsPathAndNote(t *testing.T) {
	entries := []domain.FileEntry{
		{Mode: "-rw-r--r--", Size: "1 B", Path: "home/bob/todo.md", Message: "home/bob/todo.md [added]"},
		{Mode: "-rw-r--r--", Size: "1 B", Path: "etc/hosts", Message: "etc/hosts"},
	}
	model := Model{width: 120, height: 20, cursor: -1, panel: state.Panel{Phase: state.PhaseLoaded, Entries: entries}}
	out := renderTable(model, stylesFor(model))
	assert.Contains(t, out, "home/bob/todo.md  [added]")
	assert.Equal(t, 1, strings.Count(out, "todo.md"))
	assert.Contains(t, out, "etc/hosts")
}

func TestEmptyTableShowsHeaders(t *testing.T) {
	model := Model{width: 80, height: 20, panel: state.Panel{Phase: state.PhaseLoaded, Entries: []domain.FileEntry{}}}
	out := renderTable(model, stylesFor(model))
	assert.Contains(t, out, "Mode")
	assert.Contains(t, out, "(no entries)")
}
