package state

import (
	"strings"

	"borgview/internal/domain"
)

type Content int

const (
	ContentNone Content = iota
	ContentJobs
	ContentFailed
	ContentLoadPrompt
	ContentTable
)

// Content decides which body the panel shows. A not-loaded archive never
// shows the table, whatever the search says.
func (panel Panel) Content() Content {
	switch panel.Phase {
	case PhaseFetching:
		return ContentJobs
	case PhaseFailed:
		return ContentFailed
	case PhaseNotLoaded:
		return ContentLoadPrompt
	case PhaseLoaded:
		return ContentTable
	default:
		return ContentNone
	}
}

func (panel Panel) Visible() []domain.FileEntry {
	return VisibleEntries(panel.Entries, panel.Filter.Search)
}

// VisibleEntries keeps the entries whose message contains search, ignoring
// case. Order is preserved.
func VisibleEntries(entries []domain.FileEntry, search string) []domain.FileEntry {
	if search == "" {
		return entries
	}
	needle := strings.ToLower(search)
	visible := make([]domain.FileEntry, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Message), needle) {
			visible = append(visible, entry)
		}
	}
	return visible
}

type Crumb struct {
	Name string
	Path string
}

// Breadcrumbs splits the current directory into navigable segments. Only
// tree mode below the root has any.
func Breadcrumbs(filter domain.Filter) []Crumb {
	if filter.Mode != domain.ModeTree || filter.CurrentDirectory == "" {
		return nil
	}
	segments := []string{}
	for _, segment := range strings.Split(filter.CurrentDirectory, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	crumbs := make([]Crumb, 0, len(segments))
	for index, segment := range segments {
		crumbs = append(crumbs, Crumb{Name: segment, Path: strings.Join(segments[:index+1], "/")})
	}
	return crumbs
}
