package engine

import (
	"errors"
	"fmt"

	"github.com/ivlev/segexport/internal/analyzer"
)

var (
	// ErrRegionNotFound means no export target exists; the run fails
	ErrRegionNotFound = analyzer.ErrRegionNotFound

	ErrAlreadyRunning = errors.New("export run already in progress")
	ErrOutputMissing  = errors.New("output file not found")
)

// SegmentExportError is recorded on a failed job; the run continues
type SegmentExportError struct {
	Index int
	Step  string
	Err   error
}

func (e *SegmentExportError) Error() string {
	return fmt.Sprintf("segment %d: %s: %v", e.Index, e.Step, e.Err)
}

func (e *SegmentExportError) Unwrap() error {
	return e.Err
}

// RunAbortedError is an environment failure outside the per-segment loop
type RunAbortedError struct {
	Reason string
	Err    error
}

func (e *RunAbortedError) Error() string {
	if e.Err == nil {
		return "run aborted: " + e.Reason
	}
	return fmt.Sprintf("run aborted: %s: %v", e.Reason, e.Err)
}

func (e *RunAbortedError) Unwrap() error {
	return e.Err
}
