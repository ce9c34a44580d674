package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ivlev/segexport/internal/system"
)

// OutputAwaiter waits for the editor to write an export file
type OutputAwaiter interface {
	Await(ctx context.Context, path string, timeout time.Duration) error
}

// AwaiterFunc adapts a function to OutputAwaiter
type AwaiterFunc func(ctx context.Context, path string, timeout time.Duration) error

func (f AwaiterFunc) Await(ctx context.Context, path string, timeout time.Duration) error {
	return f(ctx, path, timeout)
}

// FileAwaiter watches the output directory and accepts the file once it has
// been quiet for Settle, or checks it once the timeout expires.
type FileAwaiter struct {
	Settle time.Duration
	// Probe, when set, must report a positive media duration
	Probe  func(ctx context.Context, path string) (float64, error)
	logger zerolog.Logger
}

func NewFileAwaiter(probeMedia bool, logger zerolog.Logger) *FileAwaiter {
	a := &FileAwaiter{Settle: 300 * time.Millisecond, logger: logger}
	if probeMedia {
		a.Probe = system.ProbeDuration
	}
	return a
}

func (a *FileAwaiter) Await(ctx context.Context, path string, timeout time.Duration) error {
	path = filepath.Clean(path)
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		err = watcher.Add(filepath.Dir(path))
	}
	if err != nil {
		a.logger.Debug().Err(err).Msg("watch unavailable, waiting the full interval")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
		}
		return a.check(ctx, path)
	}

	events, errs := watcher.Events, watcher.Errors
	var settled <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-deadline.C:
			return a.check(ctx, path)

		case <-settled:
			if err := a.check(ctx, path); err == nil {
				return nil
			}
			settled = nil

		case event, ok := <-events:
			if !ok {
				return a.check(ctx, path)
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// restart the quiet period on every write
			settled = time.After(a.Settle)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			a.logger.Debug().Err(err).Str("path", path).Msg("watch error")
		}
	}
}

func (a *FileAwaiter) check(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrOutputMissing, path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrOutputMissing, path)
	}

	if a.Probe != nil {
		duration, err := a.Probe(ctx, path)
		if err != nil {
			return fmt.Errorf("probe %s: %w", path, err)
		}
		if duration <= 0 {
			return fmt.Errorf("probe %s: no media duration", path)
		}
		a.logger.Debug().Str("path", path).Float64("duration", duration).Msg("output probed")
	}
	return nil
}
