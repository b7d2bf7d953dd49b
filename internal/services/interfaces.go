package services

import (
	"context"

	"borgview/internal/domain"
)

// Lister retrieves one archive file list. It never retries on its own.
type Lister interface {
	ListFiles(ctx context.Context, req ListRequest) (domain.Listing, error)
}

// JobFeed reports the backend jobs queued or running for a repository.
type JobFeed interface {
	Jobs(ctx context.Context, repo string) ([]domain.JobStatus, error)
}

// Backend is what the browser needs from a server.
type Backend interface {
	Lister
	JobFeed
}
