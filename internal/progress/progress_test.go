package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"borgview/internal/domain"
	"borgview/internal/services"
)

func loadingJob(current int64) domain.JobStatus {
	return domain.JobStatus{
		ID:          1,
		Description: "Loading list of files of archive 'a1' of repo 'demo'.",
		Status:      "RUNNING",
		Progress:    &domain.JobProgress{Message: "Getting file list...", Current: current, Total: 10},
	}
}

func TestLineReporterPrintsChangesOnly(t *testing.T) {
	var out bytes.Buffer
	reporter := NewLineReporter(&out)

	reporter.Report(services.JobSnapshot{Jobs: []domain.JobStatus{loadingJob(1)}})
	reporter.Report(services.JobSnapshot{Jobs: []domain.JobStatus{loadingJob(1)}})
	reporter.Report(services.JobSnapshot{Err: errors.New("poll failed")})
	reporter.Report(services.JobSnapshot{})
	reporter.Report(services.JobSnapshot{Jobs: []domain.JobStatus{loadingJob(5)}})
	reporter.Finish()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"[running] Loading list of files of archive 'a1' of repo 'demo'. - Getting file list... 1/10",
		"[running] Loading list of files of archive 'a1' of repo 'demo'. - Getting file list... 5/10",
	}, lines)
}

func TestJobBarRendersDescription(t *testing.T) {
	var out bytes.Buffer
	bar := NewJobBar(&out)
	bar.Report(services.JobSnapshot{})
	assert.Empty(t, out.String())

	bar.Report(services.JobSnapshot{Jobs: []domain.JobStatus{loadingJob(3)}})
	bar.Report(services.JobSnapshot{Jobs: []domain.JobStatus{loadingJob(10)}})
	bar.Finish()
	bar.Finish()
	assert.Contains(t, out.String(), "Getting file list...")
}

func TestActiveJobPrefersRunning(t *testing.T) {
	queued := domain.JobStatus{ID: 2, Status: "QUEUED"}
	job, ok := activeJob([]domain.JobStatus{queued, loadingJob(0)})
	assert.True(t, ok)
	assert.Equal(t, int64(1), job.ID)

	job, ok = activeJob([]domain.JobStatus{queued})
	assert.True(t, ok)
	assert.Equal(t, int64(2), job.ID)

	_, ok = activeJob(nil)
	assert.False(t, ok)
}
