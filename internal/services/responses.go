package services

import (
	"encoding/json"
	"fmt"
	"io"

	"borgview/internal/domain"
)

const maxListingBytes = 256 * 1024 * 1024

// DecodeListing parses a filelist response body. A single not-loaded entry
// becomes the sentinel listing; a not-loaded entry next to real entries is
// rejected.
func DecodeListing(body io.Reader) (domain.Listing, error) {
	var entries []domain.FileEntry
	decoder := json.NewDecoder(io.LimitReader(body, maxListingBytes))
	if err := decoder.Decode(&entries); err != nil {
		return domain.Listing{}, fmt.Errorf("%w: %v", ErrMalformedListing, err)
	}
	if entries == nil {
		return domain.Listing{}, fmt.Errorf("%w: expected a JSON array", ErrMalformedListing)
	}
	if len(entries) == 1 && entries[0].Mode == domain.NotLoadedMode {
		return domain.NotLoadedListing(), nil
	}
	for index := range entries {
		if entries[index].Mode == domain.NotLoadedMode {
			return domain.Listing{}, ErrMixedSentinel
		}
		if entries[index].Message == "" {
			entries[index].Message = entries[index].Path
		}
	}
	return domain.EntriesListing(entries), nil
}

// DecodeJobs parses a job queue response body.
func DecodeJobs(body io.Reader) ([]domain.JobStatus, error) {
	var jobs []domain.JobStatus
	if err := json.NewDecoder(body).Decode(&jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	return jobs, nil
}
