// Package device wraps the external tool that copies readings off a
// blood-pressure monitor. No device protocol is implemented here.
package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/bpreport/internal/config"
	"github.com/KaramelBytes/bpreport/internal/utils"
)

// Command is one invocation of the download tool.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// Runner executes a Command. ExecRunner is the real implementation; tests
// substitute a fake that writes the output file.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, cmd Command) error

func (f RunnerFunc) Run(ctx context.Context, cmd Command) error { return f(ctx, cmd) }

// ExecRunner runs commands with os/exec, streaming their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return nil
}

// Downloader fetches one CSV per configured device.
type Downloader struct {
	Tool   config.DownloadTool
	Runner Runner
	Logger *slog.Logger

	// Now is overridable for tests.
	Now func() time.Time
}

// FileName is the per-device file name for a download on day t.
func FileName(device string, t time.Time) string {
	return fmt.Sprintf("%s-1-%s.csv", device, t.Format("2006-01-02"))
}

// CommandFor builds the tool invocation for dev.
func (d *Downloader) CommandFor(dev config.Device) Command {
	args := make([]string, 0, 5+len(d.Tool.ExtraArgs))
	if d.Tool.Script != "" {
		args = append(args, d.Tool.Script)
	}
	args = append(args, "-d", dev.Model, "-m", dev.MAC)
	args = append(args, d.Tool.ExtraArgs...)
	return Command{Name: d.Tool.Command, Args: args, Dir: d.Tool.Dir}
}

// Download runs the tool for dev and moves its output file into destDir under
// FileName. It returns the destination path.
func (d *Downloader) Download(ctx context.Context, dev config.Device, destDir string) (string, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if d.Runner == nil {
		return "", errors.New("no runner configured")
	}
	if d.Tool.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(d.Tool.TimeoutSec)*time.Second)
		defer cancel()
	}

	produced := filepath.Join(d.Tool.Dir, d.Tool.OutputFile)
	// a stale file from an earlier run must not be mistaken for fresh output
	if err := os.Remove(produced); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("clear previous output: %w", err)
	}

	cmd := d.CommandFor(dev)
	logger.Info("downloading", slog.String("device", dev.Name), slog.String("model", dev.Model))
	if err := d.Runner.Run(ctx, cmd); err != nil {
		return "", fmt.Errorf("download %s: %w", dev.Name, err)
	}
	if _, err := os.Stat(produced); err != nil {
		return "", fmt.Errorf("download %s: tool produced no %s: %w", dev.Name, d.Tool.OutputFile, err)
	}

	if err := utils.EnsureDir(destDir); err != nil {
		return "", fmt.Errorf("create %s: %w", destDir, err)
	}
	dest := filepath.Join(destDir, FileName(dev.Name, d.now()))
	if err := utils.MoveFile(produced, dest); err != nil {
		return "", fmt.Errorf("move download for %s: %w", dev.Name, err)
	}
	logger.Info("saved download", slog.String("device", dev.Name), slog.String("path", dest))
	return dest, nil
}

// ExpectedPaths lists where today's downloads for devs would be, without
// running anything.
func (d *Downloader) ExpectedPaths(devs []config.Device, destDir string) []string {
	out := make([]string, len(devs))
	for i, dev := range devs {
		out[i] = filepath.Join(destDir, FileName(dev.Name, d.now()))
	}
	return out
}

func (d *Downloader) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
