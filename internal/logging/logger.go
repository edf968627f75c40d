package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Options selects the handler and level of the process logger.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json

	// Out defaults to stderr so stdout stays free for the summary tables.
	Out io.Writer

	// NoColor disables ANSI colours in the text handler.
	NoColor bool
}

// New builds a logger tagged with the app name and run id.
func New(o Options, runID string) (*slog.Logger, error) {
	level, err := ParseLevel(o.Level)
	if err != nil {
		return nil, err
	}
	out := o.Out
	if out == nil {
		out = os.Stderr
	}

	var h slog.Handler
	switch strings.ToLower(o.Format) {
	case "", "text":
		h = tint.NewHandler(out, &tint.Options{
			Level:      level,
			AddSource:  level == slog.LevelDebug,
			TimeFormat: time.Kitchen,
			NoColor:    o.NoColor || !isTerminal(out),
		})
	case "json":
		h = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	default:
		return nil, fmt.Errorf("unknown log format %q", o.Format)
	}
	return slog.New(h).With("app", "bpreport", "run_id", runID), nil
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
