package stats

import (
	"math"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/bpreport/internal/dataset"
)

// DefaultMidday is the time-of-day boundary between the two partitions.
const DefaultMidday = 12 * time.Hour

// Partition selects a subset of readings for summary statistics.
type Partition int

const (
	All Partition = iota
	BeforeMidday
	AfterMidday
)

// Partitions lists every partition in report order.
var Partitions = [3]Partition{All, BeforeMidday, AfterMidday}

// Title is the table caption.
func (p Partition) Title() string {
	switch p {
	case BeforeMidday:
		return "Summary: Before Midday"
	case AfterMidday:
		return "Summary: After Midday"
	default:
		return "Summary: All Rows"
	}
}

// Label describes the partition in prose ("rows before midday").
func (p Partition) Label() string {
	switch p {
	case BeforeMidday:
		return "rows before midday"
	case AfterMidday:
		return "rows after midday"
	default:
		return "all rows"
	}
}

// Icon prefixes titles in text outputs.
func (p Partition) Icon() string {
	switch p {
	case BeforeMidday:
		return "🌅"
	case AfterMidday:
		return "🌇"
	default:
		return "📊"
	}
}

// HeaderColor is the hex background used for table headers in images.
func (p Partition) HeaderColor() string {
	switch p {
	case BeforeMidday:
		return "009944"
	case AfterMidday:
		return "004499"
	default:
		return "444444"
	}
}

// Columns are the statistic names in table order.
var Columns = []string{"count", "mean", "std", "min", "q1", "median", "q3", "max"}

// SeriesStats holds descriptive statistics of one numeric series.
// Fields that cannot be computed (empty partition, std with fewer than two
// values) are NaN.
type SeriesStats struct {
	Name   string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Defined reports whether the series had any values.
func (s SeriesStats) Defined() bool { return s.Count > 0 }

// Values returns the statistics in Columns order.
func (s SeriesStats) Values() []float64 {
	return []float64{float64(s.Count), s.Mean, s.Std, s.Min, s.Q1, s.Median, s.Q3, s.Max}
}

// Cells returns the statistics formatted for display in Columns order.
func (s SeriesStats) Cells() []string {
	out := make([]string, len(Columns))
	out[0] = strconv.Itoa(s.Count)
	for i, v := range s.Values()[1:] {
		out[i+1] = Format(v)
	}
	return out
}

// Format renders a statistic with two decimals, or "n/a" when undefined.
func Format(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Summary is the statistics table of one partition.
type Summary struct {
	Partition Partition
	Series    [3]SeriesStats
}

// Count returns the number of readings in the partition.
func (s Summary) Count() int { return s.Series[0].Count }

// Summaries holds one Summary per partition, indexed by Partition.
type Summaries [3]Summary

// Summarize splits d at the midday boundary and describes the full set and
// both halves. Before midday is strictly earlier than the boundary.
func Summarize(d *dataset.Dataset, midday time.Duration) Summaries {
	names := d.Schema.Series()
	before, after := Split(d.Readings, midday)
	return Summaries{
		Describe(All, names, d.Readings),
		Describe(BeforeMidday, names, before),
		Describe(AfterMidday, names, after),
	}
}

// Split partitions readings by wall-clock time of day.
func Split(rs []dataset.Reading, midday time.Duration) (before, after []dataset.Reading) {
	for _, rd := range rs {
		if timeOfDay(rd.Time) < midday {
			before = append(before, rd)
		} else {
			after = append(after, rd)
		}
	}
	return before, after
}

func timeOfDay(t time.Time) time.Duration {
	return t.Sub(dataset.DateOf(t))
}

// Describe computes statistics for each series over rs.
func Describe(p Partition, names [3]string, rs []dataset.Reading) Summary {
	s := Summary{Partition: p}
	xs := make([]float64, len(rs))
	for i := 0; i < 3; i++ {
		for k, rd := range rs {
			xs[k] = rd.Values[i]
		}
		s.Series[i] = describeSeries(names[i], xs)
	}
	return s
}

func describeSeries(name string, xs []float64) SeriesStats {
	nan := math.NaN()
	s := SeriesStats{Name: name, Count: len(xs), Mean: nan, Std: nan, Min: nan, Q1: nan, Median: nan, Q3: nan, Max: nan}
	if len(xs) == 0 {
		return s
	}
	s.Mean = stat.Mean(xs, nil)
	if len(xs) > 1 {
		// sample standard deviation, N-1 denominator
		s.Std = stat.StdDev(xs, nil)
	}
	s.Min = floats.Min(xs)
	s.Max = floats.Max(xs)
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	s.Q1 = quantile(sorted, 0.25)
	s.Median = quantile(sorted, 0.5)
	s.Q3 = quantile(sorted, 0.75)
	return s
}

// quantile interpolates linearly between closest ranks of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
