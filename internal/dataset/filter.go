package dataset

import (
	"fmt"
	"strings"
	"time"
)

// DateRange holds optional inclusive calendar-date bounds. A nil bound is open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// ParseDateRange parses YYYY-MM-DD bounds; empty strings leave that side open.
func ParseDateRange(start, end string) (DateRange, error) {
	var r DateRange
	var err error
	if r.Start, err = parseDate("start-date", start); err != nil {
		return DateRange{}, err
	}
	if r.End, err = parseDate("end-date", end); err != nil {
		return DateRange{}, err
	}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

func parseDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, &ValidationError{Field: field, Msg: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
	}
	return &t, nil
}

// Validate fails when both bounds are set and start is after end.
func (r DateRange) Validate() error {
	if r.Start != nil && r.End != nil && DateOf(*r.Start).After(DateOf(*r.End)) {
		return &ValidationError{
			Field: "date range",
			Msg:   fmt.Sprintf("start %s is after end %s", r.Start.Format(DateLayout), r.End.Format(DateLayout)),
		}
	}
	return nil
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool { return r.Start == nil && r.End == nil }

// Contains reports whether the calendar date of t lies within the bounds.
func (r DateRange) Contains(t time.Time) bool {
	d := DateOf(t)
	if r.Start != nil && d.Before(DateOf(*r.Start)) {
		return false
	}
	if r.End != nil && d.After(DateOf(*r.End)) {
		return false
	}
	return true
}

func (r DateRange) String() string {
	if r.IsZero() {
		return "all dates"
	}
	lo, hi := "…", "…"
	if r.Start != nil {
		lo = r.Start.Format(DateLayout)
	}
	if r.End != nil {
		hi = r.End.Format(DateLayout)
	}
	return lo + " .. " + hi
}

// Filter returns the readings of d whose date lies within r. With no bounds it
// returns d itself.
func Filter(d *Dataset, r DateRange) (*Dataset, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.IsZero() {
		return d, nil
	}
	out := &Dataset{Schema: d.Schema, Dropped: d.Dropped, Duplicates: d.Duplicates}
	for _, rd := range d.Readings {
		if r.Contains(rd.Time) {
			out.Readings = append(out.Readings, rd)
		}
	}
	return out, nil
}
