package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/segexport/internal/config"
	"github.com/ivlev/segexport/internal/logging"
	"github.com/ivlev/segexport/internal/screen"
	"github.com/ivlev/segexport/internal/system"
)

var (
	cfgFile string
	verbose bool
	logFile string

	logCloser io.Closer = io.NopCloser(nil)
)

func main() {
	ctx := context.Background()

	if err := execute(ctx); err != nil {
		if !errors.Is(err, errNoSegmentExported) {
			fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		}
		os.Exit(1)
	}
}

// execute runs the root command and closes the log file on every exit path
func execute(ctx context.Context) error {
	defer func() {
		logCloser.Close()
	}()
	return rootCmd.ExecuteContext(ctx)
}

var rootCmd = &cobra.Command{
	Use:           "segexport",
	Short:         "segexport - bulk export of timeline segments from a desktop video editor",
	Long:          "Finds the timeline on screen, detects segment separators and drives the editor's export dialog once per segment.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		closer, err := logging.Init(verbose, logFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logCloser = closer

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.segexport/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)

	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[+] Config written: %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", configPath(), data)

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "# invalid: %v\n", err)
		}
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the environment the export runs in",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)
		out := cmd.OutOrStdout()

		summary, err := system.GetHostSummary(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("host summary incomplete")
		}
		fmt.Fprintf(out, "[*] Host: %s (%s %s, %s) | CPU: %d | RAM: %d/%d MB free\n",
			summary.Hostname, summary.Platform, summary.Version, summary.Arch,
			summary.CPUs, summary.MemAvailMB, summary.MemTotalMB)

		displays := screen.Displays()
		if len(displays) == 0 {
			fmt.Fprintln(out, "[!] No active display found")
		}
		for i, d := range displays {
			marker := " "
			if i == cfg.Display {
				marker = "*"
			}
			fmt.Fprintf(out, "[*] Display %d%s %s\n", i, marker, d)
		}
		if cfg.Display >= len(displays) {
			fmt.Fprintf(out, "[!] Configured display %d is not available\n", cfg.Display)
		}

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(out, "[!] Config: %v\n", err)
		} else {
			fmt.Fprintln(out, "[+] Config: ok")
		}

		if err := system.EnsureDir(cfg.OutputDirectory); err != nil {
			fmt.Fprintf(out, "[!] Output directory: %v\n", err)
		} else {
			fmt.Fprintf(out, "[+] Output directory: %s\n", cfg.OutputDirectory)
		}

		if cfg.TargetProcess != "" {
			running, err := system.FindProcess(ctx, cfg.TargetProcess)
			switch {
			case err != nil:
				fmt.Fprintf(out, "[!] Process check failed: %v\n", err)
			case running:
				fmt.Fprintf(out, "[+] %s is running\n", cfg.TargetProcess)
			default:
				fmt.Fprintf(out, "[!] %s is not running\n", cfg.TargetProcess)
			}
		}

		if summary.FFprobeFound {
			fmt.Fprintln(out, "[+] ffprobe found")
		} else if cfg.Verify.ProbeMedia {
			fmt.Fprintln(out, "[!] ffprobe not found but verify.probe_media is enabled")
		} else {
			fmt.Fprintln(out, "[*] ffprobe not found (only needed for verify.probe_media)")
		}
		return nil
	},
}
