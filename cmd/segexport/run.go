package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/segexport/internal/analyzer"
	"github.com/ivlev/segexport/internal/calibration"
	"github.com/ivlev/segexport/internal/config"
	"github.com/ivlev/segexport/internal/engine"
	"github.com/ivlev/segexport/internal/input"
	"github.com/ivlev/segexport/internal/logging"
	"github.com/ivlev/segexport/internal/screen"
	"github.com/ivlev/segexport/internal/system"
)

var errNoSegmentExported = errors.New("no segment exported")

func init() {
	runCmd.Flags().Bool("dry-run", false, "log the input sequence instead of sending it")
	runCmd.Flags().Duration("delay", 3*time.Second, "grace period to focus the editor before starting")
	runCmd.Flags().String("output-dir", "", "override output_directory")
	runCmd.Flags().String("prefix", "", "override file_name_prefix")
	runCmd.Flags().String("format", "", "override export_format (mp4|mov|gif)")
	runCmd.Flags().String("mode", "", "override detection.mode (geometric|template|manual)")
	runCmd.Flags().IntSlice("boundaries", nil, "manual boundaries, implies --mode manual")

	detectCmd.Flags().String("image", "", "analyze a saved screenshot instead of the screen")
	detectCmd.Flags().Int("origin-x", 0, "screen x of the screenshot's left edge")
	detectCmd.Flags().Int("origin-y", 0, "screen y of the screenshot's top edge")
	detectCmd.Flags().String("mode", "", "override detection.mode")

	calibrateCmd.Flags().String("out", "", "calibration file (default: calibration_file or ~/.segexport/calibration.yaml)")
	calibrateCmd.Flags().Duration("delay", 5*time.Second, "time to hover each landmark")
}

// applyRunFlags copies command line overrides onto a private config copy
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) *config.Config {
	cfg = cfg.Clone()
	if v, _ := cmd.Flags().GetString("output-dir"); v != "" {
		cfg.OutputDirectory = v
	}
	if v, _ := cmd.Flags().GetString("prefix"); v != "" {
		cfg.FileNamePrefix = v
	}
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		cfg.ExportFormat = v
	}
	if v, _ := cmd.Flags().GetString("mode"); v != "" {
		cfg.Detection.Mode = v
	}
	if cmd.Flags().Lookup("boundaries") != nil {
		if v, _ := cmd.Flags().GetIntSlice("boundaries"); len(v) > 0 {
			cfg.Detection.Mode = string(analyzer.ModeManual)
			cfg.Detection.ManualBoundaries = v
		}
	}
	return cfg
}

func newSegmentDetector(cfg *config.Config, capturer screen.Capturer) (*analyzer.SegmentDetector, error) {
	det, err := analyzer.NewDetector(analyzer.Mode(cfg.Detection.Mode), cfg.DetectorOptions(capturer))
	if err != nil {
		return nil, err
	}
	return analyzer.NewSegmentDetector(det, cfg.Detection.MergeTolerance, logging.WithComponent("detector")), nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Detect segments on screen and export each one",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := applyRunFlags(cmd, config.FromContext(cmd.Context()))
		if err := cfg.Validate(); err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		delay, _ := cmd.Flags().GetDuration("delay")
		out := cmd.OutOrStdout()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.TargetProcess != "" {
			running, err := system.FindProcess(ctx, cfg.TargetProcess)
			if err != nil {
				log.Warn().Err(err).Msg("process check failed")
			} else if !running {
				log.Warn().Str("process", cfg.TargetProcess).Msg("target editor does not seem to be running")
			}
		}

		capturer := screen.NewDisplayCapturer(cfg.Display)
		locator := analyzer.NewRegionLocator(capturer, cfg.LocatorParams(), logging.WithComponent("locator"))
		detector, err := newSegmentDetector(cfg, capturer)
		if err != nil {
			return err
		}

		var sim input.Simulator
		var awaiter engine.OutputAwaiter
		if dryRun {
			sim = input.NewDryRun(logging.WithComponent("input"))
			awaiter = engine.AwaiterFunc(func(context.Context, string, time.Duration) error { return nil })
		} else {
			sim = input.NewRobot(logging.WithComponent("input"))
			awaiter = engine.NewFileAwaiter(cfg.Verify.ProbeMedia, logging.WithComponent("awaiter"))
		}

		progress := make(chan engine.Snapshot, 64)
		driver := engine.NewDriver(locator, detector, sim, awaiter, logging.WithComponent("driver"), engine.WithProgress(progress))

		if delay > 0 {
			fmt.Fprintf(out, "[*] Switch to the editor, starting in %s (Ctrl+C to abort)\n", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		var res engine.Result
		finished, finish := context.WithCancel(context.Background())
		defer finish()

		var g errgroup.Group
		g.Go(func() error {
			defer finish()
			defer close(progress)
			var err error
			res, err = driver.Run(ctx, cfg)
			return err
		})
		g.Go(func() error {
			renderProgress(out, progress)
			return nil
		})
		g.Go(func() error {
			// a signal only stops the run between segments
			select {
			case <-ctx.Done():
				driver.Cancel()
			case <-finished.Done():
			}
			return nil
		})
		err = g.Wait()

		fmt.Fprintf(out, "[*] Segments: %d | exported: %d | failed: %d | skipped: %d | %s\n",
			res.Total, res.Succeeded, res.Failed, res.Skipped, res.Duration.Round(time.Millisecond))
		if err != nil {
			return err
		}
		if res.Cancelled {
			fmt.Fprintln(out, "[!] Cancelled")
		}
		if !res.Success() {
			fmt.Fprintln(out, "[-] No segment was exported")
			return errNoSegmentExported
		}
		fmt.Fprintf(out, "[+++] Done! Files in %s\n", cfg.OutputDirectory)
		return nil
	},
}

func renderProgress(w io.Writer, progress <-chan engine.Snapshot) {
	reported := map[int]bool{}
	for s := range progress {
		for _, job := range s.Jobs {
			if job.Outcome == engine.OutcomePending || reported[job.Index] {
				continue
			}
			reported[job.Index] = true
			switch job.Outcome {
			case engine.OutcomeSucceeded:
				fmt.Fprintf(w, "[>] Ready: %d/%d %s\n", job.Index, s.Total, job.OutputPath)
			case engine.OutcomeFailed:
				fmt.Fprintf(w, "[!] Failed: %d/%d at %s: %s\n", job.Index, s.Total, job.Step, job.Reason)
			case engine.OutcomeSkipped:
				fmt.Fprintf(w, "[!] Skipped: %d/%d\n", job.Index, s.Total)
			}
		}
	}
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Locate the timeline and print the detected segments without exporting",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := applyRunFlags(cmd, config.FromContext(ctx))
		out := cmd.OutOrStdout()

		var capturer screen.Capturer = screen.NewDisplayCapturer(cfg.Display)
		if path, _ := cmd.Flags().GetString("image"); path != "" {
			ox, _ := cmd.Flags().GetInt("origin-x")
			oy, _ := cmd.Flags().GetInt("origin-y")
			fc, err := screen.NewFileCapturer(path, image.Pt(ox, oy))
			if err != nil {
				return err
			}
			capturer = fc
		}

		region, source, err := detectRegion(ctx, cfg, capturer)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "[*] Timeline (%s): %s\n", source, region)

		detector, err := newSegmentDetector(cfg, capturer)
		if err != nil {
			return err
		}
		boundaries := detector.Detect(ctx, region)
		segments := analyzer.Segments(region, boundaries, cfg.Detection.MergeTolerance)

		fmt.Fprintf(out, "[*] Boundaries: %v\n", boundaries)
		for i, seg := range segments {
			fmt.Fprintf(out, "[>] %d: x %d..%d click (%d,%d) -> %s\n",
				i+1, seg.Start, seg.End, seg.Anchor(), region.CenterY(), cfg.OutputPath(i+1))
		}
		return nil
	},
}

// detectRegion resolves the timeline the same way a run does
func detectRegion(ctx context.Context, cfg *config.Config, capturer screen.Capturer) (screen.Region, string, error) {
	if hint := cfg.TimelineRegionHint; hint != nil && hint.Valid() {
		return *hint, "config hint", nil
	}
	if cfg.CalibrationFile != "" {
		if cal, err := calibration.Read(cfg.CalibrationFile); err == nil {
			if region, ok := cal.TimelineRegion(); ok {
				return region, "calibration", nil
			}
		} else {
			log.Warn().Err(err).Msg("calibration unusable")
		}
	}
	locator := analyzer.NewRegionLocator(capturer, cfg.LocatorParams(), logging.WithComponent("locator"))
	region, err := locator.Locate(ctx)
	return region, "detected", err
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Record timeline corners and the export button position",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cfg := config.FromContext(ctx)

		path, _ := cmd.Flags().GetString("out")
		if path == "" {
			path = cfg.CalibrationFile
		}
		if path == "" {
			path = calibration.DefaultPath()
		}
		delay, _ := cmd.Flags().GetDuration("delay")

		rec := calibration.NewRecorder(input.NewRobot(logging.WithComponent("input")), cmd.OutOrStdout(), logging.WithComponent("calibration"))
		rec.Delay = delay

		cal, err := rec.Record(ctx)
		if err != nil {
			return err
		}
		if _, ok := cal.TimelineRegion(); !ok {
			return fmt.Errorf("timeline corners do not span an area, nothing saved")
		}
		if err := calibration.Write(cal, path); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "[+] Calibration saved: %s\n", path)
		if cfg.CalibrationFile != path {
			fmt.Fprintf(cmd.OutOrStdout(), "[*] Set calibration_file: %s in %s to use it\n", path, configPath())
		}
		return nil
	},
}
