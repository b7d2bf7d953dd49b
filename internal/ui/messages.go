package ui

import (
	"borgview/internal/domain"
	"borgview/internal/services"
)

// directoryMsg carries a directory from the location synchronizer.
type directoryMsg struct {
	dir    string
	closed bool
}

type listingMsg struct {
	generation uint64
	listing    domain.Listing
	err        error
}

type jobsMsg struct {
	watch    int
	snapshot services.JobSnapshot
	done     bool
}
