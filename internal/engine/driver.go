package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ivlev/segexport/internal/analyzer"
	"github.com/ivlev/segexport/internal/calibration"
	"github.com/ivlev/segexport/internal/config"
	"github.com/ivlev/segexport/internal/input"
	"github.com/ivlev/segexport/internal/screen"
	"github.com/ivlev/segexport/internal/system"
)

// Locator finds the timeline on screen
type Locator interface {
	Locate(ctx context.Context) (screen.Region, error)
}

// BoundaryDetector returns the normalized, never empty boundary list
type BoundaryDetector interface {
	Detect(ctx context.Context, region screen.Region) []int
}

// Driver runs the export state machine. One run at a time per driver.
type Driver struct {
	locator  Locator
	detector BoundaryDetector
	sim      input.Simulator
	awaiter  OutputAwaiter
	logger   zerolog.Logger
	progress chan<- Snapshot

	// non-nil while a run is active; set to request cancellation
	cancelFlag atomic.Pointer[atomic.Bool]

	mu    sync.RWMutex
	state RunState
	run   *ExportRun
}

type Option func(*Driver)

// WithProgress publishes a snapshot after every step. Sends never block;
// a full channel drops the snapshot.
func WithProgress(ch chan<- Snapshot) Option {
	return func(d *Driver) { d.progress = ch }
}

func NewDriver(locator Locator, detector BoundaryDetector, sim input.Simulator, awaiter OutputAwaiter, logger zerolog.Logger, opts ...Option) *Driver {
	d := &Driver{
		locator:  locator,
		detector: detector,
		sim:      sim,
		awaiter:  awaiter,
		logger:   logger,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Cancel asks the active run to stop before its next segment. The segment
// in flight always finishes.
func (d *Driver) Cancel() {
	if flag := d.cancelFlag.Load(); flag != nil {
		flag.Store(true)
		d.logger.Info().Msg("cancellation requested")
	}
}

func cancelRequested(ctx context.Context, flag *atomic.Bool) bool {
	return flag.Load() || ctx.Err() != nil
}

func (d *Driver) State() RunState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Snapshot returns a copy of the current (or last) run progress
func (d *Driver) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshotLocked()
}

func (d *Driver) snapshotLocked() Snapshot {
	s := Snapshot{State: d.state}
	if d.run == nil {
		return s
	}
	s.Total = len(d.run.Segments)
	s.Jobs = make([]ExportJob, len(d.run.Jobs))
	copy(s.Jobs, d.run.Jobs)
	if n := len(s.Jobs); n > 0 {
		s.Index = s.Jobs[n-1].Index
	}
	s.Succeeded, s.Failed, s.Skipped = countOutcomes(s.Jobs)
	return s
}

func (d *Driver) publish() {
	if d.progress == nil {
		return
	}
	d.mu.RLock()
	s := d.snapshotLocked()
	d.mu.RUnlock()

	select {
	case d.progress <- s:
	default:
	}
}

func (d *Driver) setState(s RunState) {
	d.mu.Lock()
	prev := d.state
	d.state = s
	d.mu.Unlock()

	d.logger.Debug().Str("from", string(prev)).Str("to", string(s)).Msg("state")
	d.publish()
}

func (d *Driver) update(fn func(run *ExportRun)) {
	d.mu.Lock()
	fn(d.run)
	d.mu.Unlock()
	d.publish()
}

func (d *Driver) result(cancelled bool, started time.Time) Result {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := d.snapshotLocked()
	return Result{
		Total:     s.Total,
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		Skipped:   s.Skipped,
		Cancelled: cancelled,
		State:     d.state,
		Duration:  time.Since(started),
	}
}

// Run locates the timeline, detects segments and exports each one.
// Segment failures are recorded on their jobs and do not fail the run;
// the returned error is set only when the run itself failed.
func (d *Driver) Run(ctx context.Context, cfg *config.Config) (res Result, err error) {
	flag := new(atomic.Bool)
	if !d.cancelFlag.CompareAndSwap(nil, flag) {
		return Result{State: d.State()}, ErrAlreadyRunning
	}
	defer d.cancelFlag.Store(nil)

	cfg = cfg.Clone()
	started := time.Now()
	cancelled := false

	d.mu.Lock()
	d.run = &ExportRun{Config: cfg, StartedAt: started}
	d.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = &RunAbortedError{Reason: "unexpected panic", Err: fmt.Errorf("%v", r)}
			d.logger.Error().Err(err).Msg("export run crashed")
			d.setState(StateFailed)
		}
		res = d.result(cancelled, started)
		d.logger.Info().
			Str("state", string(res.State)).
			Int("total", res.Total).
			Int("succeeded", res.Succeeded).
			Int("failed", res.Failed).
			Int("skipped", res.Skipped).
			Dur("elapsed", res.Duration).
			Msg("export run finished")

		d.mu.Lock()
		d.state = StateIdle
		d.mu.Unlock()
	}()

	d.setState(StateLocating)
	region, err := d.resolveRegion(ctx, cfg)
	if err != nil {
		d.setState(StateFailed)
		return res, fmt.Errorf("locate timeline: %w", err)
	}

	d.setState(StateDetecting)
	boundaries := d.detector.Detect(ctx, region)
	segments := analyzer.Segments(region, boundaries, cfg.Detection.MergeTolerance)
	d.update(func(run *ExportRun) {
		run.Region = region
		run.Boundaries = boundaries
		run.Segments = segments
	})
	d.logger.Info().Stringer("region", region).Ints("boundaries", boundaries).Int("segments", len(segments)).Msg("segments detected")

	d.setState(StateExporting)
	if err := system.EnsureDir(cfg.OutputDirectory); err != nil {
		d.setState(StateFailed)
		return res, &RunAbortedError{Reason: "cannot create output directory", Err: err}
	}

	// in-segment steps are never interrupted
	stepCtx := context.WithoutCancel(ctx)

	if cfg.SelectAllFirst && !cancelRequested(ctx, flag) {
		if err := d.sim.PressCombo(stepCtx, cfg.KeyCombo.SelectAll); err != nil {
			d.logger.Warn().Err(err).Msg("select all failed")
		}
	}

	for i, seg := range segments {
		index := i + 1
		if cancelRequested(ctx, flag) {
			cancelled = true
			d.setState(StateCancelling)
			d.skipRemaining(cfg, segments, i)
			break
		}
		d.exportSegment(stepCtx, cfg, region, index, seg)
	}

	d.setState(StateCompleted)
	return res, nil
}

// resolveRegion prefers the configured hint, then the calibration file,
// then the locator
func (d *Driver) resolveRegion(ctx context.Context, cfg *config.Config) (screen.Region, error) {
	if hint := cfg.TimelineRegionHint; hint != nil && hint.Valid() {
		d.logger.Info().Stringer("region", *hint).Msg("using configured timeline region")
		return *hint, nil
	}

	if cfg.CalibrationFile != "" {
		cal, err := calibration.Read(cfg.CalibrationFile)
		switch {
		case err != nil:
			d.logger.Warn().Err(err).Msg("calibration unusable, locating timeline")
		default:
			if region, ok := cal.TimelineRegion(); ok {
				d.logger.Info().Stringer("region", region).Str("file", cfg.CalibrationFile).Msg("using calibrated timeline region")
				return region, nil
			}
			d.logger.Warn().Str("file", cfg.CalibrationFile).Msg("calibration has no timeline corners, locating timeline")
		}
	}

	if d.locator == nil {
		return screen.Region{}, fmt.Errorf("%w: no locator", ErrRegionNotFound)
	}
	region, err := d.locator.Locate(ctx)
	if err != nil {
		if !errors.Is(err, ErrRegionNotFound) {
			err = fmt.Errorf("%w: %v", ErrRegionNotFound, err)
		}
		return screen.Region{}, err
	}
	if !region.Valid() {
		return screen.Region{}, fmt.Errorf("%w: empty region %s", ErrRegionNotFound, region)
	}
	return region, nil
}

func (d *Driver) skipRemaining(cfg *config.Config, segments []analyzer.Segment, from int) {
	d.update(func(run *ExportRun) {
		for i := from; i < len(segments); i++ {
			run.Jobs = append(run.Jobs, ExportJob{
				Index:      i + 1,
				Segment:    segments[i],
				Boundary:   segments[i].Start,
				OutputPath: cfg.OutputPath(i + 1),
				Outcome:    OutcomeSkipped,
				Reason:     "cancelled",
			})
		}
	})
	d.logger.Info().Int("skipped", len(segments)-from).Msg("run cancelled")
}

func (d *Driver) exportSegment(ctx context.Context, cfg *config.Config, region screen.Region, index int, seg analyzer.Segment) {
	path := cfg.OutputPath(index)
	d.update(func(run *ExportRun) {
		run.Jobs = append(run.Jobs, ExportJob{
			Index:      index,
			Segment:    seg,
			Boundary:   seg.Start,
			OutputPath: path,
			Outcome:    OutcomePending,
		})
	})
	log := d.logger.With().Int("index", index).Str("path", path).Logger()
	log.Info().Int("start", seg.Start).Int("end", seg.End).Msg("exporting segment")

	t := cfg.Timing
	steps := []struct {
		name string
		fn   func() error
	}{
		{StepClick, func() error {
			if err := d.sim.ClickAt(ctx, seg.Anchor(), region.CenterY()); err != nil {
				return err
			}
			return d.sim.Wait(ctx, t.AfterClick)
		}},
		{StepOpenExport, func() error {
			if err := d.sim.PressCombo(ctx, cfg.KeyCombo.Export); err != nil {
				return err
			}
			return d.sim.Wait(ctx, t.AfterExport)
		}},
		{StepTypePath, func() error {
			if err := d.sim.TypeText(ctx, path); err != nil {
				return err
			}
			return d.sim.Wait(ctx, t.AfterType)
		}},
		{StepConfirm, func() error {
			return d.sim.PressCombo(ctx, cfg.KeyCombo.Confirm)
		}},
		{StepAwaitOutput, func() error {
			return d.awaiter.Await(ctx, path, t.ExportWait)
		}},
	}

	for _, step := range steps {
		d.setJob(index, func(job *ExportJob) { job.Step = step.name })

		if err := runStep(step.fn); err != nil {
			segErr := &SegmentExportError{Index: index, Step: step.name, Err: err}
			d.setJob(index, func(job *ExportJob) {
				job.Outcome = OutcomeFailed
				job.Reason = err.Error()
				job.Err = segErr
			})
			log.Error().Err(err).Str("step", step.name).Msg("segment export failed")
			return
		}
	}

	d.setJob(index, func(job *ExportJob) { job.Outcome = OutcomeSucceeded })
	log.Info().Msg("segment exported")
}

func (d *Driver) setJob(index int, fn func(job *ExportJob)) {
	d.update(func(run *ExportRun) {
		for i := range run.Jobs {
			if run.Jobs[i].Index == index {
				fn(&run.Jobs[i])
				return
			}
		}
	})
}

func runStep(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
