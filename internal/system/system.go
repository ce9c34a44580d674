package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// EnsureDir creates the directory (and parents) and checks that it is writable
func EnsureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("output directory is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, ".segexport-probe-*")
	if err != nil {
		return fmt.Errorf("directory %s is not writable: %w", dir, err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

// FindProcess reports whether a process whose executable name contains
// name (case-insensitive) is running.
func FindProcess(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("process name is empty")
	}
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, err
	}

	want := strings.ToLower(name)
	for _, p := range procs {
		pname, err := p.NameWithContext(ctx)
		if err != nil {
			// processes can exit between listing and inspection
			continue
		}
		pname = strings.TrimSuffix(strings.ToLower(pname), ".exe")
		if strings.Contains(pname, want) {
			return true, nil
		}
	}
	return false, nil
}

// HostSummary describes the machine the automation runs on
type HostSummary struct {
	Hostname     string
	Platform     string
	Version      string
	Arch         string
	CPUs         int
	MemTotalMB   uint64
	MemAvailMB   uint64
	FFprobeFound bool
}

func GetHostSummary(ctx context.Context) (HostSummary, error) {
	s := HostSummary{Arch: runtime.GOARCH}

	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return s, fmt.Errorf("host info: %w", err)
	}
	s.Hostname = info.Hostname
	s.Platform = info.Platform
	s.Version = info.PlatformVersion

	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		s.CPUs = n
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemTotalMB = vm.Total / (1 << 20)
		s.MemAvailMB = vm.Available / (1 << 20)
	}
	_, err = exec.LookPath("ffprobe")
	s.FFprobeFound = err == nil

	return s, nil
}

// ProbeDuration returns the container duration of a media file via ffprobe
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", filepath.Base(path), err)
	}

	var duration float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &duration)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: unexpected output %q", filepath.Base(path), strings.TrimSpace(string(out)))
	}

	return duration, nil
}
