package engine

import (
	"time"

	"github.com/ivlev/segexport/internal/analyzer"
	"github.com/ivlev/segexport/internal/config"
	"github.com/ivlev/segexport/internal/screen"
)

// RunState is the lifecycle stage of an export run
type RunState string

const (
	StateIdle       RunState = "idle"
	StateLocating   RunState = "locating"
	StateDetecting  RunState = "detecting"
	StateExporting  RunState = "exporting"
	StateCancelling RunState = "cancelling"
	StateCompleted  RunState = "completed"
	StateFailed     RunState = "failed"
)

// Terminal reports whether no further transition can happen in this run
func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Per-segment interaction steps, in execution order
const (
	StepClick       = "click"
	StepOpenExport  = "open_export"
	StepTypePath    = "type_path"
	StepConfirm     = "confirm"
	StepAwaitOutput = "await_output"
)

// ExportJob is one attempt to export a single segment. Index is 1-based.
type ExportJob struct {
	Index      int
	Segment    analyzer.Segment
	Boundary   int
	OutputPath string
	Outcome    Outcome
	// Step is the last step started, or the failing one
	Step   string
	Reason string
	Err    error
}

// ExportRun is the state of one invocation, owned by the driver
type ExportRun struct {
	Config     *config.Config
	Region     screen.Region
	Boundaries []int
	Segments   []analyzer.Segment
	Jobs       []ExportJob
	StartedAt  time.Time
}

// Snapshot is a read-only copy of the run progress
type Snapshot struct {
	State     RunState
	Index     int
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Jobs      []ExportJob
}

// Current returns the job being processed, if any
func (s Snapshot) Current() (ExportJob, bool) {
	if len(s.Jobs) == 0 {
		return ExportJob{}, false
	}
	return s.Jobs[len(s.Jobs)-1], true
}

// Result summarizes a finished run
type Result struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Cancelled bool
	State     RunState
	Duration  time.Duration
}

// Success is true when at least one segment was exported
func (r Result) Success() bool {
	return r.Succeeded > 0
}

func countOutcomes(jobs []ExportJob) (succeeded, failed, skipped int) {
	for _, j := range jobs {
		switch j.Outcome {
		case OutcomeSucceeded:
			succeeded++
		case OutcomeFailed:
			failed++
		case OutcomeSkipped:
			skipped++
		}
	}
	return
}
