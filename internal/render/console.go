package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/KaramelBytes/bpreport/internal/stats"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiGreen  = "\033[32m"
	ansiCyan   = "\033[36m"
	ansiYellow = "\033[33m"
)

// ConsoleReporter prints the summary tables to a terminal.
type ConsoleReporter struct {
	Out   io.Writer
	Color bool
}

func (ConsoleReporter) Name() string { return "console" }

func (c ConsoleReporter) Render(in *Input) (string, error) {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	var b strings.Builder
	for _, p := range stats.Partitions {
		b.WriteString("\n")
		b.WriteString(c.paint(ansiGreen+ansiBold, fmt.Sprintf("%s Statistics for %s:", p.Icon(), p.Label())))
		b.WriteString("\n")
		b.WriteString(c.paint(ansiCyan, strings.TrimRight(FormatTable(in.Summaries[p]), "\n")))
		b.WriteString("\n")
	}
	if d := in.Dataset; d.Dropped > 0 {
		b.WriteString("\n")
		b.WriteString(c.paint(ansiYellow, fmt.Sprintf("⚠ %d malformed row(s) dropped while loading", d.Dropped)))
		b.WriteString("\n")
	}
	if _, err := io.WriteString(out, b.String()); err != nil {
		return "", &RenderError{Artifact: c.Name(), Err: err}
	}
	return "", nil
}

func (c ConsoleReporter) paint(code, s string) string {
	if !c.Color {
		return s
	}
	return code + s + ansiReset
}

// ColorEnabled resolves a colour mode (auto|always|never) against f.
func ColorEnabled(mode string, f *os.File) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" || f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
