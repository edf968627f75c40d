package stats

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/bpreport/internal/dataset"
)

// DailyPoint is the per-day mean (and sample std) of each series.
type DailyPoint struct {
	Date  time.Time
	Count int
	Mean  [3]float64

	// Std is NaN on days with a single reading.
	Std [3]float64
}

// DailyAverages groups readings by calendar date. Only days with at least one
// reading appear; the result is ordered by date.
func DailyAverages(d *dataset.Dataset) []DailyPoint {
	groups := map[time.Time][]dataset.Reading{}
	for _, rd := range d.Readings {
		day := dataset.DateOf(rd.Time)
		groups[day] = append(groups[day], rd)
	}
	days := make([]time.Time, 0, len(groups))
	for day := range groups {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]DailyPoint, 0, len(days))
	for _, day := range days {
		rs := groups[day]
		p := DailyPoint{Date: day, Count: len(rs)}
		xs := make([]float64, len(rs))
		for i := 0; i < 3; i++ {
			for k, rd := range rs {
				xs[k] = rd.Values[i]
			}
			p.Mean[i] = stat.Mean(xs, nil)
			p.Std[i] = math.NaN()
			if len(xs) > 1 {
				p.Std[i] = stat.StdDev(xs, nil)
			}
		}
		out = append(out, p)
	}
	return out
}
