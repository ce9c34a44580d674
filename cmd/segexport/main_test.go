package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/segexport/internal/analyzer"
	"github.com/ivlev/segexport/internal/config"
	"github.com/ivlev/segexport/internal/engine"
	"github.com/ivlev/segexport/internal/logging"
)

func TestApplyRunFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "run"}
	cmd.Flags().String("output-dir", "", "")
	cmd.Flags().String("prefix", "", "")
	cmd.Flags().String("format", "", "")
	cmd.Flags().String("mode", "", "")
	cmd.Flags().IntSlice("boundaries", nil, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--prefix", "clip", "--format", "gif", "--boundaries", "300,600"}))

	base := config.Default()
	cfg := applyRunFlags(cmd, base)

	assert.Equal(t, "clip", cfg.FileNamePrefix)
	assert.Equal(t, "gif", cfg.ExportFormat)
	assert.Equal(t, string(analyzer.ModeManual), cfg.Detection.Mode)
	assert.Equal(t, []int{300, 600}, cfg.Detection.ManualBoundaries)
	assert.Equal(t, base.OutputDirectory, cfg.OutputDirectory)

	assert.Equal(t, "segment", base.FileNamePrefix, "base config untouched")
	require.NoError(t, cfg.Validate())
}

func TestRenderProgress(t *testing.T) {
	progress := make(chan engine.Snapshot, 4)
	progress <- engine.Snapshot{Total: 2, Jobs: []engine.ExportJob{{Index: 1, Outcome: engine.OutcomePending}}}
	progress <- engine.Snapshot{Total: 2, Jobs: []engine.ExportJob{{Index: 1, Outcome: engine.OutcomeSucceeded, OutputPath: "/out/clip_1.mp4"}}}
	progress <- engine.Snapshot{Total: 2, Jobs: []engine.ExportJob{
		{Index: 1, Outcome: engine.OutcomeSucceeded, OutputPath: "/out/clip_1.mp4"},
		{Index: 2, Outcome: engine.OutcomeFailed, Step: engine.StepAwaitOutput, Reason: "output file not found"},
	}}
	close(progress)

	var out bytes.Buffer
	renderProgress(&out, progress)

	assert.Equal(t, "[>] Ready: 1/2 /out/clip_1.mp4\n[!] Failed: 2/2 at await_output: output file not found\n", out.String())
}

func TestExecuteClosesLogFileOnError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	logPath := filepath.Join(dir, "segexport.log")
	require.NoError(t, config.Default().Save(cfgPath))

	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		cfgFile, logFile = "", ""
		logCloser = io.NopCloser(nil)
		_, _ = logging.Init(false, "")
	})

	rootCmd.SetArgs([]string{"--config", cfgPath, "--log-file", logPath, "config", "init"})
	err := execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	f, ok := logCloser.(*os.File)
	require.True(t, ok, "log file opened")
	_, err = f.Write([]byte("late\n"))
	assert.ErrorIs(t, err, os.ErrClosed)
}
