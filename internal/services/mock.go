package services

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"borgview/internal/domain"
)

const (
	DemoRepo          = "demo"
	demoLoadSteps     = 20
	demoLoadingStatus = "RUNNING"
)

// DemoBackend serves synthetic archives in memory. File lists start out
// not loaded; a forced request runs a simulated backend job first.
type DemoBackend struct {
	mu           sync.Mutex
	archives     map[string]demoArchive
	order        []string
	loaded       map[string]bool
	jobs         map[int64]domain.JobStatus
	nextJob      int64
	loadDuration time.Duration
}

type demoArchive struct {
	archive domain.Archive
	entries []domain.FileEntry
}

func NewDemoBackend(loadDuration time.Duration) *DemoBackend {
	backend := &DemoBackend{
		archives:     make(map[string]demoArchive),
		loaded:       make(map[string]bool),
		jobs:         make(map[int64]domain.JobStatus),
		loadDuration: loadDuration,
	}
	backend.add(domain.Archive{ID: "demo-2024-01-01", Name: "demo-2024-01-01", Repo: DemoRepo, Time: "2024-01-01 02:00"}, demoTree(0))
	backend.add(domain.Archive{ID: "demo-2024-02-01", Name: "demo-2024-02-01", Repo: DemoRepo, Time: "2024-02-01 02:00"}, demoTree(1))
	return backend
}

func (backend *DemoBackend) add(archive domain.Archive, entries []domain.FileEntry) {
	backend.archives[archive.ID] = demoArchive{archive: archive, entries: entries}
	backend.order = append(backend.order, archive.ID)
}

func (backend *DemoBackend) Archives() []domain.Archive {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	archives := make([]domain.Archive, 0, len(backend.order))
	for _, id := range backend.order {
		archives = append(archives, backend.archives[id].archive)
	}
	return archives
}

func (backend *DemoBackend) Archive(id string) (domain.Archive, bool) {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	archive, ok := backend.archives[id]
	return archive.archive, ok
}

func (backend *DemoBackend) ListFiles(ctx context.Context, req ListRequest) (domain.Listing, error) {
	if req.ArchiveID == "" {
		return domain.Listing{}, ErrArchiveRequired
	}
	backend.mu.Lock()
	current, ok := backend.archives[req.ArchiveID]
	var other demoArchive
	otherOK := true
	if req.DiffArchiveID != "" {
		other, otherOK = backend.archives[req.DiffArchiveID]
	}
	pending := []string{}
	if !backend.loaded[req.ArchiveID] {
		pending = append(pending, req.ArchiveID)
	}
	if req.DiffArchiveID != "" && !backend.loaded[req.DiffArchiveID] {
		pending = append(pending, req.DiffArchiveID)
	}
	backend.mu.Unlock()

	if !ok {
		return domain.Listing{}, backendFailure(404, fmt.Errorf("archive %q not found", req.ArchiveID))
	}
	if !otherOK {
		return domain.Listing{}, backendFailure(404, fmt.Errorf("archive %q not found", req.DiffArchiveID))
	}
	if len(pending) > 0 && !req.Force {
		return domain.NotLoadedListing(), nil
	}
	for _, id := range pending {
		if err := backend.runLoadJob(ctx, id); err != nil {
			return domain.Listing{}, networkFailure(err)
		}
	}

	entries := current.entries
	if req.DiffArchiveID != "" {
		entries = diffEntries(current.entries, other.entries)
	}
	return domain.EntriesListing(selectEntries(entries, req)), nil
}

func (backend *DemoBackend) Jobs(ctx context.Context, repo string) ([]domain.JobStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	jobs := make([]domain.JobStatus, 0, len(backend.jobs))
	for _, job := range backend.jobs {
		clone := job
		if job.Progress != nil {
			progress := *job.Progress
			clone.Progress = &progress
		}
		jobs = append(jobs, clone)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs, nil
}

// runLoadJob simulates the backend listing the archive contents.
func (backend *DemoBackend) runLoadJob(ctx context.Context, archiveID string) error {
	backend.mu.Lock()
	archive := backend.archives[archiveID]
	backend.nextJob++
	id := backend.nextJob
	total := int64(countFiles(archive.entries))
	backend.jobs[id] = domain.JobStatus{
		ID:          id,
		Title:       "borg list",
		Description: fmt.Sprintf("Loading list of files of archive '%s' of repo '%s'.", archive.archive.Name, archive.archive.Repo),
		Status:      demoLoadingStatus,
		CommandLine: fmt.Sprintf("borg list --json-lines %s::%s", archive.archive.Repo, archive.archive.Name),
		Progress:    &domain.JobProgress{Message: "Getting file list...", Total: total},
	}
	backend.mu.Unlock()

	defer func() {
		backend.mu.Lock()
		delete(backend.jobs, id)
		backend.mu.Unlock()
	}()

	step := backend.loadDuration / demoLoadSteps
	for index := 1; index <= demoLoadSteps; index++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(step):
		}
		backend.mu.Lock()
		job := backend.jobs[id]
		job.Progress = &domain.JobProgress{
			Message: "Getting file list...",
			Current: total * int64(index) / demoLoadSteps,
			Total:   total,
		}
		backend.jobs[id] = job
		backend.mu.Unlock()
	}

	backend.mu.Lock()
	backend.loaded[archiveID] = true
	backend.mu.Unlock()
	return nil
}

// selectEntries applies the server side part of the query: directory scope
// in tree mode, search text, then the result size cap.
func selectEntries(entries []domain.FileEntry, req ListRequest) []domain.FileEntry {
	limit, err := domain.ParseMaxSize(req.MaxResultSize)
	if err != nil {
		limit = len(entries)
	}
	search := strings.ToLower(req.SearchString)
	directory := strings.Trim(req.CurrentDirectory, "/")
	selected := make([]domain.FileEntry, 0, minInt(limit, len(entries)))
	for _, entry := range entries {
		if len(selected) >= limit {
			break
		}
		if req.Mode != domain.ModeFlat && parentDir(entry.Path) != directory {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(entry.Message), search) {
			continue
		}
		selected = append(selected, entry)
	}
	return selected
}

func diffEntries(current, other []domain.FileEntry) []domain.FileEntry {
	previous := make(map[string]domain.FileEntry, len(other))
	for _, entry := range other {
		previous[entry.Path] = entry
	}
	seen := make(map[string]bool, len(current))
	diff := []domain.FileEntry{}
	for _, entry := range current {
		seen[entry.Path] = true
		old, ok := previous[entry.Path]
		switch {
		case !ok:
			diff = append(diff, annotate(entry, "added"))
		case old.Size != entry.Size || old.Date != entry.Date:
			diff = append(diff, annotate(entry, fmt.Sprintf("modified, was %s", old.Size)))
		case entry.IsDir():
			diff = append(diff, entry)
		}
	}
	for _, entry := range other {
		if !seen[entry.Path] {
			diff = append(diff, annotate(entry, "removed"))
		}
	}
	return diff
}

func annotate(entry domain.FileEntry, note string) domain.FileEntry {
	entry.Message = fmt.Sprintf("%s [%s]", entry.Path, note)
	return entry
}

func parentDir(entryPath string) string {
	parent := path.Dir(entryPath)
	if parent == "." || parent == "/" {
		return ""
	}
	return parent
}

func countFiles(entries []domain.FileEntry) int {
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			count++
		}
	}
	return count
}

// demoTree builds a deterministic archive. Later generations change a few
// files so diffs have something to show.
func demoTree(generation int) []domain.FileEntry {
	date := fmt.Sprintf("2024-%02d-01 02:00", generation+1)
	entries := []domain.FileEntry{}
	dir := func(p string) {
		entries = append(entries, domain.FileEntry{Mode: "drwxr-xr-x", Date: date, Size: "0 B", Path: p, Message: p})
	}
	file := func(p string, size int64) {
		entries = append(entries, domain.FileEntry{Mode: "-rw-r--r--", Date: date, Size: FormatSize(size), Path: p, Message: p})
	}
	dir("etc")
	file("etc/hosts", 220)
	file("etc/fstab", 612)
	dir("home")
	dir("home/alice")
	dir("home/alice/docs")
	file("home/alice/docs/report.pdf", 482133+int64(generation)*1024)
	file("home/alice/docs/notes.txt", 1780)
	dir("home/alice/photos")
	for index := 0; index < 120; index++ {
		file(fmt.Sprintf("home/alice/photos/IMG_%04d.jpg", index), int64(2_000_000+index*731))
	}
	dir("home/bob")
	file("home/bob/.bashrc", 3771)
	if generation > 0 {
		file("home/bob/todo.md", 912)
	} else {
		file("home/bob/draft.md", 455)
	}
	dir("var")
	dir("var/log")
	file("var/log/syslog", 1_048_576*int64(generation+1))
	return entries
}

// FormatSize renders a byte count the way the backend does.
func FormatSize(size int64) string {
	const unit = 1000
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit && exp < 5; n /= unit {
		div *= unit
		exp++
	}
	value := float64(size) / float64(div)
	units := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	return fmt.Sprintf("%.1f %s", value, units[exp])
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
