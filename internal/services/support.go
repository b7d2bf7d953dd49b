package services

import (
	"context"
	"time"

	"borgview/internal/domain"
)

const DefaultPollInterval = time.Second

// JobSnapshot is one poll of the job feed.
type JobSnapshot struct {
	Repo   string
	Jobs   []domain.JobStatus
	Err    error
	Polled time.Time
}

// WatchJobs polls feed until ctx ends and delivers each poll on the returned
// channel, which is closed when watching stops. A slow reader only ever
// sees the newest snapshot.
func WatchJobs(ctx context.Context, feed JobFeed, repo string, interval time.Duration) <-chan JobSnapshot {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	snapshots := make(chan JobSnapshot, 1)
	go func() {
		defer close(snapshots)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			jobs, err := feed.Jobs(ctx, repo)
			if ctx.Err() != nil {
				return
			}
			snapshot := JobSnapshot{Repo: repo, Jobs: jobs, Err: err, Polled: time.Now()}
			select {
			case <-snapshots:
			default:
			}
			snapshots <- snapshot
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return snapshots
}
