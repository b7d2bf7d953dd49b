// Package state holds the file list panel as a pure reducer. The UI and the
// ls command feed it actions and run the fetches it asks for.
package state

import (
	"errors"
	"fmt"

	"borgview/internal/domain"
	"borgview/internal/services"
)

var ErrInvalidFilter = errors.New("invalid filter")

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseLoaded
	PhaseNotLoaded
	PhaseFailed
	PhaseClosed
)

func (phase Phase) String() string {
	switch phase {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseLoaded:
		return "loaded"
	case PhaseNotLoaded:
		return "notLoaded"
	case PhaseFailed:
		return "failed"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Panel is everything the file list view knows about one archive.
type Panel struct {
	Archive        domain.Archive
	Filter         domain.Filter
	Phase          Phase
	Entries        []domain.FileEntry
	Failure        string
	FailureKind    services.FailureKind
	Generation     uint64
	LastRequest    *services.ListRequest
	DefaultMaxSize string
}

func NewPanel(archive domain.Archive, maxSize string) Panel {
	filter := domain.DefaultFilter(maxSize)
	return Panel{
		Archive:        archive,
		Filter:         filter,
		Phase:          PhaseIdle,
		DefaultMaxSize: filter.MaxSize,
	}
}

type Action interface{}

type UpdateFieldAction struct {
	Field domain.FilterField
	Value string
}

type ChangeDirectoryAction struct {
	Path string
}

type ArchiveChangedAction struct {
	Archive domain.Archive
}

type FetchAction struct {
	Force bool
}

type RetryAction struct{}

type FetchCompletedAction struct {
	Generation uint64
	Listing    domain.Listing
	Err        error
}

type UnmountAction struct{}

// Reduce applies one action. A non-nil request must be executed by the
// caller and its result fed back as a FetchCompletedAction carrying the
// panel's new Generation.
func Reduce(panel Panel, action Action) (Panel, *services.ListRequest, error) {
	if panel.Phase == PhaseClosed {
		return panel, nil, nil
	}
	switch action := action.(type) {
	case UpdateFieldAction:
		return panel.update(action.Field, action.Value)
	case ChangeDirectoryAction:
		return panel.update(domain.FieldCurrentDirectory, action.Path)
	case ArchiveChangedAction:
		panel.Archive = action.Archive
		panel.Filter = domain.DefaultFilter(panel.DefaultMaxSize)
		panel.Entries = nil
		return panel.issue(RequestFor(panel.Archive, panel.Filter, false))
	case FetchAction:
		return panel.issue(RequestFor(panel.Archive, panel.Filter, action.Force))
	case RetryAction:
		if panel.LastRequest == nil {
			return panel.issue(RequestFor(panel.Archive, panel.Filter, false))
		}
		return panel.issue(*panel.LastRequest)
	case FetchCompletedAction:
		return panel.complete(action), nil, nil
	case UnmountAction:
		panel.Phase = PhaseClosed
		panel.Entries = nil
		return panel, nil, nil
	default:
		return panel, nil, fmt.Errorf("unknown action %T", action)
	}
}

// RequestFor builds the backend request for a filter.
func RequestFor(archive domain.Archive, filter domain.Filter, force bool) services.ListRequest {
	return services.ListRequest{
		ArchiveID:        archive.ID,
		DiffArchiveID:    filter.DiffArchiveID,
		Force:            force,
		SearchString:     filter.Search,
		Mode:             filter.Mode,
		CurrentDirectory: filter.CurrentDirectory,
		MaxResultSize:    filter.MaxSize,
	}
}

func (panel Panel) update(field domain.FilterField, value string) (Panel, *services.ListRequest, error) {
	next, err := panel.Filter.With(field, value)
	if err != nil {
		return panel, nil, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	panel.Filter = next
	return panel.issue(RequestFor(panel.Archive, panel.Filter, false))
}

func (panel Panel) issue(req services.ListRequest) (Panel, *services.ListRequest, error) {
	panel.Generation++
	panel.Phase = PhaseFetching
	panel.Failure = ""
	last := req
	panel.LastRequest = &last
	return panel, &req, nil
}

func (panel Panel) complete(action FetchCompletedAction) Panel {
	if action.Generation != panel.Generation || panel.Phase != PhaseFetching {
		return panel
	}
	switch {
	case action.Err != nil:
		panel.Phase = PhaseFailed
		panel.Failure = action.Err.Error()
		panel.FailureKind = services.FailureKindOf(action.Err)
	case action.Listing.NotLoaded():
		panel.Phase = PhaseNotLoaded
		panel.Entries = nil
	default:
		panel.Phase = PhaseLoaded
		panel.Entries = action.Listing.Entries
		if panel.Entries == nil {
			panel.Entries = []domain.FileEntry{}
		}
	}
	return panel
}

// Stale reports whether a completion for generation would be dropped.
func (panel Panel) Stale(generation uint64) bool {
	return panel.Phase != PhaseFetching || generation != panel.Generation
}
