// Package pipeline runs one report: load inputs, merge, filter, summarize and
// render every artifact.
package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/bpreport/internal/dataset"
	"github.com/KaramelBytes/bpreport/internal/render"
	"github.com/KaramelBytes/bpreport/internal/stats"
	"github.com/KaramelBytes/bpreport/internal/utils"
)

// Options are the resolved settings of one run.
type Options struct {
	Inputs []string

	// Output is the artifact base path; a known extension is stripped.
	Output    string
	StartDate string
	EndDate   string

	// Midday splits the day for the before/after tables. It is used as given,
	// so callers pass stats.DefaultMidday for 12:00.
	Midday      time.Duration
	SwapSeries  bool
	ChartWidth  int
	ChartHeight int
	Color       bool

	// Stdout receives the console tables; nil means os.Stdout.
	Stdout io.Writer
	RunID  string
	Now    func() time.Time
}

// Result summarizes a finished run.
type Result struct {
	RunID      string
	Artifacts  []render.Artifact
	Rows       int
	Dropped    int
	Duplicates int
}

// Paths lists the written artifact files.
func (r *Result) Paths() []string {
	var out []string
	for _, a := range r.Artifacts {
		if a.Err == nil && a.Path != "" {
			out = append(out, a.Path)
		}
	}
	return out
}

// Validate checks options before any input is read.
func (o *Options) Validate() (dataset.DateRange, error) {
	if len(o.Inputs) == 0 {
		return dataset.DateRange{}, &dataset.ValidationError{Field: "input", Msg: "at least one input file is required"}
	}
	if strings.TrimSpace(o.Output) == "" {
		return dataset.DateRange{}, &dataset.ValidationError{Field: "output", Msg: "output path is required"}
	}
	if o.Midday < 0 || o.Midday >= 24*time.Hour {
		return dataset.DateRange{}, &dataset.ValidationError{Field: "midday", Msg: "must be within a day"}
	}
	for _, p := range o.Inputs {
		info, err := os.Stat(p)
		if err != nil {
			return dataset.DateRange{}, &dataset.IOError{Path: p, Op: "open", Err: err}
		}
		if info.IsDir() {
			return dataset.DateRange{}, &dataset.IOError{Path: p, Op: "open", Err: errors.New("is a directory")}
		}
	}
	return dataset.ParseDateRange(o.StartDate, o.EndDate)
}

// Run executes the report. Validation and load failures return before any
// artifact is written; renderer failures are joined into the returned error
// while the Result still lists what was written.
func Run(ctx context.Context, opts Options, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rng, err := opts.Validate()
	if err != nil {
		return nil, err
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	tables := make([]*dataset.Table, 0, len(opts.Inputs))
	for _, p := range opts.Inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := dataset.LoadFile(p)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded input",
			slog.String("path", p),
			slog.Int("rows", len(t.Readings)),
			slog.Int("dropped", len(t.Dropped)))
		for _, d := range t.Dropped {
			logger.Debug("dropped row", slog.String("path", p), slog.Int("line", d.Line), slog.String("reason", d.Reason))
		}
		tables = append(tables, t)
	}

	merged, err := dataset.Merge(tables)
	if err != nil {
		return nil, err
	}
	if merged.Dropped > 0 {
		logger.Warn("malformed rows dropped", slog.Int("count", merged.Dropped))
	}
	logger.Info("merged inputs",
		slog.Int("rows", merged.Len()),
		slog.Int("duplicates", merged.Duplicates))
	if opts.SwapSeries {
		merged = dataset.SwapSeries(merged, 0, 1)
	}
	filtered, err := dataset.Filter(merged, rng)
	if err != nil {
		return nil, err
	}
	if !rng.IsZero() {
		logger.Info("filtered by date", slog.String("range", rng.String()), slog.Int("rows", filtered.Len()))
	}
	if filtered.Len() == 0 {
		logger.Warn("no rows to report; tables will be empty")
	}

	in := &render.Input{
		RunID:     runID,
		Generated: now(),
		Sources:   opts.Inputs,
		Range:     rng,
		Dataset:   filtered,
		Summaries: stats.Summarize(filtered, opts.Midday),
		Daily:     stats.DailyAverages(filtered),
	}

	base := utils.OutputBase(opts.Output)
	if err := utils.EnsureDir(filepath.Dir(base)); err != nil {
		return nil, &render.RenderError{Artifact: "output", Err: err}
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	renderers := []render.Renderer{
		render.CSVWriter{Path: base + ".csv"},
		render.ChartRenderer{Path: base + ".png", Width: opts.ChartWidth, Height: opts.ChartHeight},
		render.TextWriter{Path: base + ".txt"},
		render.SpreadsheetWriter{Path: base + ".xlsx", ChartWidth: opts.ChartWidth, ChartHeight: opts.ChartHeight},
		render.ConsoleReporter{Out: stdout, Color: opts.Color},
	}
	arts, err := render.RunAll(in, renderers, logger)
	res := &Result{
		RunID:      runID,
		Artifacts:  arts,
		Rows:       filtered.Len(),
		Dropped:    filtered.Dropped,
		Duplicates: filtered.Duplicates,
	}
	return res, err
}
