package domain

import (
	"fmt"
	"strings"
)

type JobProgress struct {
	Message string `json:"message"`
	Current int64  `json:"current"`
	Total   int64  `json:"total"`
}

// JobStatus is one entry of the backend job queue.
type JobStatus struct {
	ID          int64        `json:"uniqueJobNumber"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	CommandLine string       `json:"commandLineAsString"`
	Progress    *JobProgress `json:"progressInfo"`
}

func (job JobStatus) Running() bool {
	return strings.EqualFold(job.Status, "RUNNING")
}

// Summary renders the job as a single line.
func (job JobStatus) Summary() string {
	label := job.Description
	if label == "" {
		label = job.Title
	}
	if label == "" {
		label = fmt.Sprintf("job #%d", job.ID)
	}
	status := strings.ToLower(job.Status)
	if status == "" {
		status = "queued"
	}
	line := fmt.Sprintf("[%s] %s", status, label)
	if job.Progress == nil {
		return line
	}
	progress := job.Progress.Message
	if job.Progress.Total > 0 {
		progress = strings.TrimSpace(fmt.Sprintf("%s %d/%d", progress, job.Progress.Current, job.Progress.Total))
	} else if job.Progress.Current > 0 {
		progress = strings.TrimSpace(fmt.Sprintf("%s %d", progress, job.Progress.Current))
	}
	if progress == "" {
		return line
	}
	return line + " - " + progress
}

// Percent returns progress in [0,1], or -1 when the total is unknown.
func (job JobStatus) Percent() float64 {
	if job.Progress == nil || job.Progress.Total <= 0 {
		return -1
	}
	ratio := float64(job.Progress.Current) / float64(job.Progress.Total)
	if ratio > 1 {
		return 1
	}
	return ratio
}
