package dataset

import (
	"strings"
	"time"
)

// DatetimeColumn is the required name of the first input column.
const DatetimeColumn = "datetime"

// TimeLayout is the canonical datetime layout used for reading and writing rows.
const TimeLayout = "2006-01-02 15:04:05"

// DateLayout is the layout of calendar dates (filter bounds, daily points).
const DateLayout = "2006-01-02"

// Schema describes the column layout shared by every input.
// Columns[0] is the datetime column and Columns[1:4] are the three numeric series;
// any further columns are passed through untouched.
type Schema struct {
	Columns []string
}

// Series returns the names of the three numeric series.
func (s Schema) Series() [3]string {
	var out [3]string
	copy(out[:], s.Columns[1:4])
	return out
}

// Extras returns the pass-through column names.
func (s Schema) Extras() []string {
	if len(s.Columns) <= 4 {
		return nil
	}
	return s.Columns[4:]
}

// Equal reports whether two schemas have the same columns (case-insensitive).
func (s Schema) Equal(o Schema) bool {
	if len(s.Columns) != len(o.Columns) {
		return false
	}
	for i := range s.Columns {
		if !strings.EqualFold(s.Columns[i], o.Columns[i]) {
			return false
		}
	}
	return true
}

// Reading is one timestamped row of measurement data.
type Reading struct {
	// Time is the wall-clock timestamp; no time zone is applied.
	Time   time.Time
	Values [3]float64
	Extra  []string
}

// DroppedRow records an input row rejected by the loader.
type DroppedRow struct {
	Line   int
	Reason string
}

// Table is the content of a single loaded input file.
type Table struct {
	Source   string
	Schema   Schema
	Readings []Reading
	Dropped  []DroppedRow
}

// Dataset is the merged, deduplicated, datetime-sorted union of all inputs.
// Stages never modify a Dataset in place; they return a new one.
type Dataset struct {
	Schema   Schema
	Readings []Reading

	// Dropped counts malformed rows rejected while loading.
	Dropped int
	// Duplicates counts rows removed by deduplication.
	Duplicates int
}

// Len returns the number of readings.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Readings)
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
