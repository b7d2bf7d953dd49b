package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type ListMode string

const (
	ModeTree ListMode = "tree"
	ModeFlat ListMode = "flat"
)

const DefaultMaxSize = "50"

var (
	ErrUnknownMode    = errors.New("unknown list mode")
	ErrInvalidMaxSize = errors.New("max size must be a positive integer")
	ErrUnknownField   = errors.New("unknown filter field")
)

func ParseListMode(value string) (ListMode, error) {
	switch ListMode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeTree:
		return ModeTree, nil
	case ModeFlat:
		return ModeFlat, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, value)
	}
}

// Toggle returns the other traversal mode.
func (mode ListMode) Toggle() ListMode {
	if mode == ModeFlat {
		return ModeTree
	}
	return ModeFlat
}

type FilterField string

const (
	FieldSearch           FilterField = "search"
	FieldMode             FilterField = "mode"
	FieldCurrentDirectory FilterField = "currentDirectory"
	FieldMaxSize          FilterField = "maxSize"
	FieldDiffArchiveID    FilterField = "diffArchiveId"
)

// Filter is the query that controls what is fetched and how it is shown.
// CurrentDirectory is kept in flat mode too so switching back to tree mode
// returns to the same place.
type Filter struct {
	Search           string
	Mode             ListMode
	CurrentDirectory string
	MaxSize          string
	DiffArchiveID    string
}

func DefaultFilter(maxSize string) Filter {
	if _, err := ParseMaxSize(maxSize); err != nil {
		maxSize = DefaultMaxSize
	}
	return Filter{
		Search:           "",
		Mode:             ModeTree,
		CurrentDirectory: "",
		MaxSize:          maxSize,
		DiffArchiveID:    "",
	}
}

// With returns a copy of the filter with exactly one field replaced.
func (filter Filter) With(field FilterField, value string) (Filter, error) {
	switch field {
	case FieldSearch:
		filter.Search = value
	case FieldMode:
		mode, err := ParseListMode(value)
		if err != nil {
			return filter, err
		}
		filter.Mode = mode
	case FieldCurrentDirectory:
		filter.CurrentDirectory = value
	case FieldMaxSize:
		trimmed := strings.TrimSpace(value)
		if _, err := ParseMaxSize(trimmed); err != nil {
			return filter, err
		}
		filter.MaxSize = trimmed
	case FieldDiffArchiveID:
		filter.DiffArchiveID = strings.TrimSpace(value)
	default:
		return filter, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return filter, nil
}

// Value returns the string form of one field.
func (filter Filter) Value(field FilterField) string {
	switch field {
	case FieldSearch:
		return filter.Search
	case FieldMode:
		return string(filter.Mode)
	case FieldCurrentDirectory:
		return filter.CurrentDirectory
	case FieldMaxSize:
		return filter.MaxSize
	case FieldDiffArchiveID:
		return filter.DiffArchiveID
	default:
		return ""
	}
}

func (filter Filter) Diffing() bool {
	return filter.DiffArchiveID != ""
}

func ParseMaxSize(value string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxSize, value)
	}
	return parsed, nil
}
