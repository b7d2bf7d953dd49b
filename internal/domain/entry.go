package domain

import "strings"

// NotLoadedMode is the mode the backend reports for a listing it has not
// computed yet.
const NotLoadedMode = "notLoaded"

type FileEntry struct {
	Mode    string `json:"mode"`
	Date    string `json:"date"`
	Size    string `json:"size"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// IsDir reports whether the entry's permission string marks a directory.
func (entry FileEntry) IsDir() bool {
	return len(entry.Mode) > 0 && entry.Mode[0] == 'd'
}

// Note is the part of Message the path does not already carry, such as a
// diff annotation. It is empty when Message is just the path.
func (entry FileEntry) Note() string {
	if entry.Message == entry.Path {
		return ""
	}
	if rest, ok := strings.CutPrefix(entry.Message, entry.Path); ok {
		return strings.TrimSpace(rest)
	}
	return entry.Message
}

type ListingKind int

const (
	ListingEntries ListingKind = iota
	ListingNotLoaded
)

// Listing is the result of a successful fetch: either the not-loaded
// sentinel or a sequence of genuine entries. Failures travel as errors.
type Listing struct {
	Kind    ListingKind
	Entries []FileEntry
}

func NotLoadedListing() Listing {
	return Listing{Kind: ListingNotLoaded}
}

func EntriesListing(entries []FileEntry) Listing {
	if entries == nil {
		entries = []FileEntry{}
	}
	return Listing{Kind: ListingEntries, Entries: entries}
}

func (listing Listing) NotLoaded() bool {
	return listing.Kind == ListingNotLoaded
}
