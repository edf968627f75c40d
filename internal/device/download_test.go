package device

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/KaramelBytes/bpreport/internal/config"
)

var day = time.Date(2024, 3, 9, 18, 0, 0, 0, time.Local)

func newDownloader(t *testing.T, run RunnerFunc) (*Downloader, string) {
	t.Helper()
	toolDir := t.TempDir()
	return &Downloader{
		Tool: config.DownloadTool{
			Command:    "python3",
			Script:     "omblepy.py",
			Dir:        toolDir,
			OutputFile: "user1.csv",
			ExtraArgs:  []string{"--loggerDebug"},
		},
		Runner: run,
		Now:    func() time.Time { return day },
	}, toolDir
}

func TestCommandFor(t *testing.T) {
	d, dir := newDownloader(t, nil)
	got := d.CommandFor(config.Device{Name: "M7", Model: "hem-7361t", MAC: "00:11:22:33:44:55"})
	want := Command{
		Name: "python3",
		Args: []string{"omblepy.py", "-d", "hem-7361t", "-m", "00:11:22:33:44:55", "--loggerDebug"},
		Dir:  dir,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CommandFor = %#v, want %#v", got, want)
	}
}

func TestDownloadMovesOutput(t *testing.T) {
	var ran Command
	d, toolDir := newDownloader(t, func(_ context.Context, c Command) error {
		ran = c
		return os.WriteFile(filepath.Join(c.Dir, "user1.csv"), []byte("datetime,dia,sys,pulse\n"), 0o644)
	})
	dest := t.TempDir()

	path, err := d.Download(context.Background(), config.Device{Name: "M7", Model: "hem-7361t", MAC: "00:11:22:33:44:55"}, dest)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if want := filepath.Join(dest, "M7-1-2024-03-09.csv"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(toolDir, "user1.csv")); !os.IsNotExist(err) {
		t.Fatalf("tool output should have been moved, stat err = %v", err)
	}
	if ran.Dir != toolDir {
		t.Fatalf("tool ran in %q, want %q", ran.Dir, toolDir)
	}
}

func TestDownloadIgnoresStaleOutput(t *testing.T) {
	d, toolDir := newDownloader(t, func(context.Context, Command) error { return nil })
	if err := os.WriteFile(filepath.Join(toolDir, "user1.csv"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Download(context.Background(), config.Device{Name: "M7", Model: "m", MAC: "00:11:22:33:44:55"}, t.TempDir()); err == nil {
		t.Fatalf("expected error when the tool writes nothing")
	}
}

func TestDownloadPropagatesToolFailure(t *testing.T) {
	boom := errors.New("exit status 1")
	d, _ := newDownloader(t, func(context.Context, Command) error { return boom })
	_, err := d.Download(context.Background(), config.Device{Name: "Evolv", Model: "hem-7600t", MAC: "00:11:22:33:44:66"}, t.TempDir())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestExpectedPaths(t *testing.T) {
	d, _ := newDownloader(t, nil)
	got := d.ExpectedPaths([]config.Device{{Name: "M7"}, {Name: "Evolv"}}, "in")
	want := []string{filepath.Join("in", "M7-1-2024-03-09.csv"), filepath.Join("in", "Evolv-1-2024-03-09.csv")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExpectedPaths = %v, want %v", got, want)
	}
}
