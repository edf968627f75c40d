package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// sourceReader loads one input format into a Table.
type sourceReader interface {
	CanRead(path string) bool
	Read(path string) (*Table, error)
}

var readers []sourceReader

func init() {
	readers = append(readers, xlsxReader{}, csvReader{})
}

// Load reads every path in order. It fails on the first unreadable file or
// schema violation; malformed rows are dropped and recorded per table.
func Load(paths []string) ([]*Table, error) {
	tables := make([]*Table, 0, len(paths))
	for _, p := range paths {
		t, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// LoadFile selects a reader by file extension; anything that is not a
// workbook is read as delimited text.
func LoadFile(path string) (*Table, error) {
	for _, r := range readers {
		if r.CanRead(path) {
			return r.Read(path)
		}
	}
	return nil, &IOError{Path: path, Op: "load", Err: errors.New("no reader for file")}
}

type csvReader struct{}

func (csvReader) CanRead(string) bool { return true }

func (csvReader) Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()
	return ReadCSV(f, path, sniffDelimiter(path))
}

// ReadCSV parses delimited text with a header row.
func ReadCSV(r io.Reader, source string, delim rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SchemaError{Source: source, Msg: "missing header row"}
		}
		return nil, &IOError{Path: source, Op: "read header", Err: err}
	}
	b, err := newTableBuilder(source, header)
	if err != nil {
		return nil, err
	}
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				b.drop(pe.StartLine, pe.Err.Error())
				continue
			}
			return nil, &IOError{Path: source, Op: "read", Err: err}
		}
		line, _ := cr.FieldPos(0)
		b.add(line, rec)
	}
	return b.table, nil
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	return ','
}

type tableBuilder struct {
	table *Table
	ncol  int
}

func newTableBuilder(source string, header []string) (*tableBuilder, error) {
	schema, err := NewSchema(source, header)
	if err != nil {
		return nil, err
	}
	return &tableBuilder{
		table: &Table{Source: source, Schema: schema},
		ncol:  len(schema.Columns),
	}, nil
}

// NewSchema normalises a header row and checks the datetime + three series layout.
func NewSchema(source string, header []string) (Schema, error) {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}
	// trailing empty header cells come from spreadsheets and trailing delimiters
	for len(cols) > 0 && cols[len(cols)-1] == "" {
		cols = cols[:len(cols)-1]
	}
	if len(cols) > 0 {
		cols[0] = strings.TrimSpace(strings.TrimPrefix(cols[0], "\ufeff"))
	}
	if len(cols) < 4 {
		return Schema{}, &SchemaError{Source: source, Msg: fmt.Sprintf("need at least 4 columns, got %d", len(cols))}
	}
	if !strings.EqualFold(cols[0], DatetimeColumn) {
		return Schema{}, &SchemaError{Source: source, Msg: fmt.Sprintf("first column must be %q, got %q", DatetimeColumn, cols[0])}
	}
	cols[0] = DatetimeColumn
	for i, c := range cols {
		if c == "" {
			return Schema{}, &SchemaError{Source: source, Msg: fmt.Sprintf("column %d has no name", i+1)}
		}
	}
	return Schema{Columns: cols}, nil
}

func (b *tableBuilder) drop(line int, reason string) {
	b.table.Dropped = append(b.table.Dropped, DroppedRow{Line: line, Reason: reason})
}

// add parses one record. Short records are padded (spreadsheets trim empty
// trailing cells). Empty cells past the header are ignored so trailing
// delimiters match a trimmed header; any other surplus field rejects the row.
func (b *tableBuilder) add(line int, rec []string) {
	if isBlank(rec) {
		return
	}
	for len(rec) > b.ncol && strings.TrimSpace(rec[len(rec)-1]) == "" {
		rec = rec[:len(rec)-1]
	}
	if len(rec) > b.ncol {
		b.drop(line, fmt.Sprintf("expected %d fields, got %d", b.ncol, len(rec)))
		return
	}
	if len(rec) < b.ncol {
		tmp := make([]string, b.ncol)
		copy(tmp, rec)
		rec = tmp
	}
	rd, reason := parseRow(rec)
	if reason != "" {
		b.drop(line, reason)
		return
	}
	b.table.Readings = append(b.table.Readings, rd)
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseRow(rec []string) (Reading, string) {
	var rd Reading
	t, ok := ParseTime(rec[0])
	if !ok {
		return rd, fmt.Sprintf("unparseable datetime %q", rec[0])
	}
	rd.Time = t.Truncate(time.Second)
	for i := 0; i < 3; i++ {
		x, ok := parseNumber(rec[i+1])
		if !ok {
			return rd, fmt.Sprintf("non-numeric value %q in column %d", rec[i+1], i+2)
		}
		rd.Values[i] = x
	}
	if len(rec) > 4 {
		rd.Extra = make([]string, len(rec)-4)
		for i, v := range rec[4:] {
			rd.Extra[i] = strings.TrimSpace(v)
		}
	}
	return rd, ""
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

var timeLayouts = []string{
	TimeLayout, "2006-01-02 15:04", "2006-01-02T15:04:05", "2006-01-02T15:04",
	"2006/01/02 15:04:05", "2006/01/02 15:04",
}

// ParseTime parses a wall-clock timestamp. RFC3339 input keeps its wall clock
// and drops the offset.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), true
	}
	return time.Time{}, false
}
