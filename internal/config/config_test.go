package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Midday != "12:00" || c.Color != "auto" || c.LogLevel != "warn" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.SwapSeries {
		t.Fatalf("swap_series should default to false")
	}
	if c.DownloadTool.OutputFile != "user1.csv" {
		t.Fatalf("output_file = %q", c.DownloadTool.OutputFile)
	}
	m, err := c.MiddayOffset()
	if err != nil || m != 12*time.Hour {
		t.Fatalf("MiddayOffset = %v, %v", m, err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.Midday = "13:30"
	c.SwapSeries = true
	c.AddDevice(Device{Name: "home", Model: "HEM-7322T", MAC: "00:5f:bf:aa:bb:cc"})
	if err := Save(c, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".bpreport", "config.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	got, err := Load("")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Midday != "13:30" || !got.SwapSeries {
		t.Fatalf("reloaded config lost values: %+v", got)
	}
	d, ok := got.Device("HOME")
	if !ok || d.MAC != "00:5f:bf:aa:bb:cc" {
		t.Fatalf("device lookup = %+v, %v", d, ok)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("midday: \"11:00\"\ncolor: never\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BPREPORT_MIDDAY", "14:15")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Midday != "14:15" {
		t.Fatalf("midday = %q, want env value", c.Midday)
	}
	if c.Color != "never" {
		t.Fatalf("color = %q, want file value", c.Color)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("color: sometimes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "Color") {
		t.Fatalf("expected color validation error, got %v", err)
	}
}

func TestValidateDevices(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.Devices = []Device{{Name: "a", Model: "m", MAC: "not-a-mac"}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected invalid MAC to fail")
	}
	c.Devices = []Device{
		{Name: "a", Model: "m", MAC: "00:11:22:33:44:55"},
		{Name: "A", Model: "m", MAC: "00:11:22:33:44:66"},
	}
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate device error, got %v", err)
	}
	if !c.RemoveDevice("a") || len(c.Devices) != 1 {
		t.Fatalf("RemoveDevice failed: %+v", c.Devices)
	}
	if c.RemoveDevice("missing") {
		t.Fatalf("RemoveDevice reported a missing device")
	}
}

func TestSet(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := c.Set("swap_series", "yes"); err != nil || !c.SwapSeries {
		t.Fatalf("set swap_series: %v", err)
	}
	if err := c.Set("chart_width", "2000"); err != nil || c.ChartWidth != 2000 {
		t.Fatalf("set chart_width: %v", err)
	}
	if err := c.Set("download_tool.extra_args", "--loggerDebug --new-records"); err != nil {
		t.Fatalf("set extra_args: %v", err)
	}
	if len(c.DownloadTool.ExtraArgs) != 2 {
		t.Fatalf("extra_args = %v", c.DownloadTool.ExtraArgs)
	}
	if err := c.Set("midday", "25:00"); err == nil {
		t.Fatalf("expected invalid midday to fail")
	}
	if err := c.Set("chart_width", "wide"); err == nil {
		t.Fatalf("expected non-numeric width to fail")
	}
	if err := c.Set("nope", "x"); err == nil {
		t.Fatalf("expected unknown key to fail")
	}
}

func TestParseMidday(t *testing.T) {
	cases := map[string]time.Duration{
		"12:00": 12 * time.Hour,
		"06:30": 6*time.Hour + 30*time.Minute,
		" 0:05": 5 * time.Minute,
	}
	for in, want := range cases {
		got, err := ParseMidday(in)
		if err != nil || got != want {
			t.Fatalf("ParseMidday(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMidday("noon"); err == nil {
		t.Fatalf("expected error")
	}
}
