package render

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/KaramelBytes/bpreport/internal/dataset"
	"github.com/KaramelBytes/bpreport/internal/utils"
)

// CSVWriter writes the merged dataset as comma-separated text.
type CSVWriter struct {
	Path string
}

func (CSVWriter) Name() string { return "csv" }

func (w CSVWriter) Render(in *Input) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, in.Dataset); err != nil {
		return "", &RenderError{Artifact: w.Name(), Err: err}
	}
	if err := utils.SafeWriteFile(w.Path, buf.Bytes()); err != nil {
		return "", &RenderError{Artifact: w.Name(), Err: err}
	}
	return w.Path, nil
}

// WriteCSV writes the header and every reading in dataset order. Numbers use
// the shortest representation that parses back to the same value.
func WriteCSV(w io.Writer, d *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Schema.Columns); err != nil {
		return err
	}
	rec := make([]string, 0, len(d.Schema.Columns))
	for _, rd := range d.Readings {
		rec = rec[:0]
		rec = append(rec, rd.Time.Format(dataset.TimeLayout))
		for _, v := range rd.Values {
			rec = append(rec, formatNumber(v))
		}
		rec = append(rec, rd.Extra...)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
