package render

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/bpreport/internal/dataset"
	"github.com/KaramelBytes/bpreport/internal/stats"
	"github.com/KaramelBytes/bpreport/internal/utils"
)

// Default chart image size in pixels.
const (
	DefaultChartWidth  = 1600
	DefaultChartHeight = 1150
)

var seriesColors = [3]drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff2200"),
	drawing.ColorFromHex("2ca02c"),
}

// ChartRenderer writes a PNG with the daily-average line plot on top and the
// three summary tables below it.
type ChartRenderer struct {
	Path   string
	Width  int
	Height int
}

func (ChartRenderer) Name() string { return "png" }

func (c ChartRenderer) Render(in *Input) (string, error) {
	b, err := ChartPNG(in, c.Width, c.Height)
	if err != nil {
		return "", &RenderError{Artifact: c.Name(), Err: err}
	}
	if err := utils.SafeWriteFile(c.Path, b); err != nil {
		return "", &RenderError{Artifact: c.Name(), Err: err}
	}
	return c.Path, nil
}

// ChartPNG encodes ChartImage as PNG.
func ChartPNG(in *Input, width, height int) ([]byte, error) {
	img, err := ChartImage(in, width, height)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ChartImage composes the plot and tables. With no daily points the plot area
// shows a "no data" placeholder instead of failing.
func ChartImage(in *Input, width, height int) (image.Image, error) {
	if width <= 0 {
		width = DefaultChartWidth
	}
	if height <= 0 {
		height = DefaultChartHeight
	}
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	plotH := height * 55 / 100
	plotRect := image.Rect(0, 0, width, plotH)
	if len(in.Daily) == 0 {
		drawPlaceholder(canvas, plotRect, "No data to plot")
	} else {
		plot, err := renderPlot(in, width, plotH)
		if err != nil {
			return nil, err
		}
		draw.Draw(canvas, plotRect, plot, image.Point{}, draw.Src)
	}

	const margin = 20
	top := plotH + margin
	rowH := (height - top - margin) / 2
	half := (width - 3*margin) / 2
	drawSummaryTable(canvas, image.Rect(margin, top, width-margin, top+rowH-margin/2), in.Summaries[stats.All])
	drawSummaryTable(canvas, image.Rect(margin, top+rowH, margin+half, height-margin), in.Summaries[stats.BeforeMidday])
	drawSummaryTable(canvas, image.Rect(2*margin+half, top+rowH, width-margin, height-margin), in.Summaries[stats.AfterMidday])
	return canvas, nil
}

func renderPlot(in *Input, width, height int) (image.Image, error) {
	names := in.Dataset.Schema.Series()
	xs := make([]time.Time, len(in.Daily))
	for i, p := range in.Daily {
		xs[i] = p.Date
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	series := make([]chart.Series, 0, 3)
	for s := 0; s < 3; s++ {
		ys := make([]float64, len(in.Daily))
		for i, p := range in.Daily {
			ys[i] = p.Mean[s]
			lo = math.Min(lo, ys[i])
			hi = math.Max(hi, ys[i])
		}
		style := chart.Style{StrokeColor: seriesColors[s], StrokeWidth: 2}
		if s == 2 {
			style.StrokeDashArray = []float64{2, 4}
		}
		series = append(series, chart.TimeSeries{Name: names[s], XValues: xs, YValues: ys, Style: style})
	}

	// go-chart rejects zero-width ranges, so pad single days and flat lines
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	first, last := xs[0], xs[len(xs)-1]
	if !last.After(first) {
		first = first.Add(-12 * time.Hour)
		last = last.Add(12 * time.Hour)
	}
	grid := chart.Style{StrokeColor: drawing.ColorFromHex("dddddd"), StrokeWidth: 1}

	ch := chart.Chart{
		Title:      "Daily Averages",
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 30, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat(dataset.DateLayout),
			Range:          &chart.ContinuousRange{Min: chart.TimeToFloat64(first), Max: chart.TimeToFloat64(last)},
			Style:          chart.Style{TextRotationDegrees: 45},
			GridMajorStyle: grid,
		},
		YAxis: chart.YAxis{
			Name:           "Average Value",
			Range:          &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
			GridMajorStyle: grid,
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render plot: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode plot: %w", err)
	}
	return img, nil
}
