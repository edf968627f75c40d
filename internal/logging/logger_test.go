package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSONCarriesRunID(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "info", Format: "json", Out: &buf}, "abc-123")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("loaded", "rows", 4)
	l.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("want 1 record, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["run_id"] != "abc-123" || rec["msg"] != "loaded" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewTextNoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "debug", Out: &buf}, "r1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Debug("detail", "k", "v")
	out := buf.String()
	if !strings.Contains(out, "detail") || !strings.Contains(out, "run_id=r1") {
		t.Fatalf("unexpected output: %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Fatalf("buffer output should not be coloured: %q", out)
	}
}

func TestNewRejectsUnknown(t *testing.T) {
	if _, err := New(Options{Level: "loud"}, "r"); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := New(Options{Format: "xml"}, "r"); err == nil {
		t.Fatalf("expected format error")
	}
}
