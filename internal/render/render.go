// Package render turns a merged dataset and its summaries into output
// artifacts. Every renderer only reads its Input, so they can run in any order.
package render

import (
	"errors"
	"log/slog"
	"time"

	"github.com/KaramelBytes/bpreport/internal/dataset"
	"github.com/KaramelBytes/bpreport/internal/stats"
)

// Input is the shared, read-only input of every renderer.
type Input struct {
	RunID     string
	Generated time.Time
	Sources   []string
	Range     dataset.DateRange
	Dataset   *dataset.Dataset
	Summaries stats.Summaries
	Daily     []stats.DailyPoint
}

// Renderer writes one artifact. Path is empty for renderers without a file.
type Renderer interface {
	Name() string
	Render(in *Input) (path string, err error)
}

// Artifact reports the outcome of one renderer.
type Artifact struct {
	Name string
	Path string
	Err  error
}

// RunAll runs every renderer even when an earlier one fails. Artifacts already
// written are left in place; the returned error joins every failure.
func RunAll(in *Input, renderers []Renderer, logger *slog.Logger) ([]Artifact, error) {
	if logger == nil {
		logger = slog.Default()
	}
	out := make([]Artifact, 0, len(renderers))
	var errs []error
	for _, r := range renderers {
		start := time.Now()
		path, err := r.Render(in)
		if err != nil {
			var re *RenderError
			if !errors.As(err, &re) {
				err = &RenderError{Artifact: r.Name(), Err: err}
			}
			logger.Error("renderer failed", slog.String("renderer", r.Name()), slog.String("error", err.Error()))
			errs = append(errs, err)
		} else {
			logger.Debug("renderer done",
				slog.String("renderer", r.Name()),
				slog.String("path", path),
				slog.Duration("took", time.Since(start)))
		}
		out = append(out, Artifact{Name: r.Name(), Path: path, Err: err})
	}
	return out, errors.Join(errs...)
}
