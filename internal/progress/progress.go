// Package progress shows backend job progress on the command line while a
// file list is being computed.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"borgview/internal/domain"
	"borgview/internal/services"
)

// Reporter consumes job snapshots.
type Reporter interface {
	Report(snapshot services.JobSnapshot)
	Finish()
}

// ForStderr returns a progress bar when stderr is a terminal and plain
// status lines otherwise.
func ForStderr() Reporter {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return NewJobBar(os.Stderr)
	}
	return NewLineReporter(os.Stderr)
}

// JobBar renders the first running job as a progress bar.
type JobBar struct {
	out   io.Writer
	bar   *progressbar.ProgressBar
	jobID int64
	total int64
}

func NewJobBar(out io.Writer) *JobBar {
	return &JobBar{out: out}
}

func (p *JobBar) Report(snapshot services.JobSnapshot) {
	job, ok := activeJob(snapshot.Jobs)
	if !ok {
		return
	}
	total := int64(-1)
	if job.Progress != nil && job.Progress.Total > 0 {
		total = job.Progress.Total
	}
	if p.bar == nil || job.ID != p.jobID {
		p.Finish()
		p.jobID = job.ID
		p.total = total
		p.bar = progressbar.NewOptions64(total,
			progressbar.OptionSetDescription(describe(job)),
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(p.out, "\n")
			}),
		)
	}
	if total != p.total {
		p.total = total
		p.bar.ChangeMax64(total)
	}
	p.bar.Describe(describe(job))
	if job.Progress != nil {
		_ = p.bar.Set64(job.Progress.Current)
	}
}

func (p *JobBar) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

// LineReporter prints a line whenever the job summary changes.
type LineReporter struct {
	out  io.Writer
	last string
}

func NewLineReporter(out io.Writer) *LineReporter {
	return &LineReporter{out: out}
}

func (p *LineReporter) Report(snapshot services.JobSnapshot) {
	if snapshot.Err != nil {
		return
	}
	job, ok := activeJob(snapshot.Jobs)
	if !ok {
		return
	}
	summary := job.Summary()
	if summary == p.last {
		return
	}
	p.last = summary
	fmt.Fprintln(p.out, summary)
}

func (p *LineReporter) Finish() {}

type NoOp struct{}

func (NoOp) Report(services.JobSnapshot) {}
func (NoOp) Finish()                     {}

func activeJob(jobs []domain.JobStatus) (domain.JobStatus, bool) {
	for _, job := range jobs {
		if job.Running() {
			return job, true
		}
	}
	if len(jobs) > 0 {
		return jobs[0], true
	}
	return domain.JobStatus{}, false
}

func describe(job domain.JobStatus) string {
	if job.Progress != nil && job.Progress.Message != "" {
		return job.Progress.Message
	}
	if job.Description != "" {
		return job.Description
	}
	return fmt.Sprintf("job #%d", job.ID)
}
