package render

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/bpreport/internal/dataset"
	"github.com/KaramelBytes/bpreport/internal/stats"
	"github.com/KaramelBytes/bpreport/internal/utils"
)

// Workbook sheet names.
const (
	SheetData      = dataset.DataSheet
	SheetSummary   = "Summary"
	SheetChartData = "ChartData"
	SheetChart     = "Chart"
)

// summaryBlock is the row distance between partition tables on the Summary sheet.
const summaryBlock = 10

// SpreadsheetWriter writes the dataset, summaries, daily averages and chart
// image into one workbook.
type SpreadsheetWriter struct {
	Path        string
	ChartWidth  int
	ChartHeight int
}

func (SpreadsheetWriter) Name() string { return "xlsx" }

func (w SpreadsheetWriter) Render(in *Input) (string, error) {
	f, err := BuildWorkbook(in, w.ChartWidth, w.ChartHeight)
	if err != nil {
		return "", &RenderError{Artifact: w.Name(), Err: err}
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", &RenderError{Artifact: w.Name(), Err: fmt.Errorf("encode workbook: %w", err)}
	}
	if err := utils.SafeWriteFile(w.Path, buf.Bytes()); err != nil {
		return "", &RenderError{Artifact: w.Name(), Err: err}
	}
	return w.Path, nil
}

// BuildWorkbook assembles the workbook in memory. The caller closes it.
func BuildWorkbook(in *Input, chartWidth, chartHeight int) (*excelize.File, error) {
	f := excelize.NewFile()
	ok := false
	defer func() {
		if !ok {
			_ = f.Close()
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetData); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	steps := []func() error{
		func() error { return writeDataSheet(f, in.Dataset, bold) },
		func() error { return writeSummarySheet(f, in, bold) },
		func() error { return writeChartDataSheet(f, in, bold) },
		func() error { return writeChartSheet(f, in, chartWidth, chartHeight) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:      "Measurement report",
		Creator:    "bpreport",
		Identifier: in.RunID,
	}); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)
	ok = true
	return f, nil
}

func writeDataSheet(f *excelize.File, d *dataset.Dataset, bold int) error {
	header := make([]interface{}, len(d.Schema.Columns))
	for i, c := range d.Schema.Columns {
		header[i] = c
	}
	if err := setRow(f, SheetData, 1, header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(SheetData, "A1", last, bold); err != nil {
		return err
	}
	for i, rd := range d.Readings {
		row := make([]interface{}, 0, len(header))
		row = append(row, rd.Time.Format(dataset.TimeLayout))
		for _, v := range rd.Values {
			row = append(row, v)
		}
		for _, x := range rd.Extra {
			row = append(row, x)
		}
		if err := setRow(f, SheetData, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetData, "A", "A", 20)
}

func writeSummarySheet(f *excelize.File, in *Input, bold int) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	header := make([]interface{}, 0, len(stats.Columns)+1)
	header = append(header, "series")
	for _, c := range stats.Columns {
		header = append(header, c)
	}
	for _, p := range stats.Partitions {
		top := 1 + int(p)*summaryBlock
		if err := f.SetCellValue(SheetSummary, cell(1, top), p.Title()); err != nil {
			return err
		}
		if err := setRow(f, SheetSummary, top+1, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetSummary, cell(1, top), cell(len(header), top+1), bold); err != nil {
			return err
		}
		for i, ss := range in.Summaries[p].Series {
			row := make([]interface{}, 0, len(header))
			row = append(row, ss.Name)
			for _, v := range ss.Values() {
				row = append(row, sheetValue(v))
			}
			if err := setRow(f, SheetSummary, top+2+i, row); err != nil {
				return err
			}
		}
	}
	if len(in.Daily) == 0 {
		return nil
	}
	last := len(in.Daily) + 1
	series := make([]excelize.ChartSeries, 3)
	for i := range series {
		col, _ := excelize.ColumnNumberToName(i + 2)
		series[i] = excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", SheetChartData, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", SheetChartData, last),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", SheetChartData, col, col, last),
			Line:       excelize.ChartLine{Width: 2},
		}
	}
	return f.AddChart(SheetSummary, "K2", &excelize.Chart{
		Type:      excelize.Line,
		Series:    series,
		Title:     []excelize.RichTextRun{{Text: "Daily Averages"}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Date"}}},
		YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Average Value"}}},
		Dimension: excelize.ChartDimension{Width: 960, Height: 480},
	})
}

func writeChartDataSheet(f *excelize.File, in *Input, bold int) error {
	if _, err := f.NewSheet(SheetChartData); err != nil {
		return err
	}
	names := in.Dataset.Schema.Series()
	header := []interface{}{"date", names[0], names[1], names[2],
		names[0] + "_std", names[1] + "_std", names[2] + "_std", "count"}
	if err := setRow(f, SheetChartData, 1, header); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetChartData, "A1", cell(len(header), 1), bold); err != nil {
		return err
	}
	for i, p := range in.Daily {
		row := []interface{}{p.Date.Format(dataset.DateLayout)}
		for _, v := range p.Mean {
			row = append(row, v)
		}
		for _, v := range p.Std {
			if math.IsNaN(v) {
				row = append(row, nil)
				continue
			}
			row = append(row, v)
		}
		row = append(row, p.Count)
		if err := setRow(f, SheetChartData, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetChartData, "A", "A", 12)
}

func writeChartSheet(f *excelize.File, in *Input, width, height int) error {
	if _, err := f.NewSheet(SheetChart); err != nil {
		return err
	}
	b, err := ChartPNG(in, width, height)
	if err != nil {
		return err
	}
	return f.AddPictureFromBytes(SheetChart, "A1", &excelize.Picture{
		Extension: ".png",
		File:      b,
		Format:    &excelize.GraphicOptions{AltText: "Daily averages and summary tables"},
	})
}

// sheetValue keeps numbers numeric; undefined statistics become "n/a".
func sheetValue(v float64) interface{} {
	if math.IsNaN(v) {
		return stats.Format(v)
	}
	return v
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	return f.SetSheetRow(sheet, cell(1, row), &values)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
