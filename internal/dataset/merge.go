package dataset

import (
	"sort"
	"strconv"
	"strings"
)

// Merge concatenates tables in input order, removes duplicate readings and
// sorts by datetime. Two readings are duplicates iff their timestamp, all three
// parsed values and every pass-through field are equal; the first one seen wins.
// The sort is stable, so equal timestamps keep input order.
func Merge(tables []*Table) (*Dataset, error) {
	if len(tables) == 0 {
		return nil, &SchemaError{Msg: "no input tables"}
	}
	schema := tables[0].Schema
	total := 0
	for _, t := range tables {
		if !t.Schema.Equal(schema) {
			return nil, &SchemaError{
				Source: t.Source,
				Msg: "columns [" + strings.Join(t.Schema.Columns, ",") + "] do not match [" +
					strings.Join(schema.Columns, ",") + "] of " + tables[0].Source,
			}
		}
		total += len(t.Readings)
	}

	out := &Dataset{Schema: schema, Readings: make([]Reading, 0, total)}
	seen := make(map[string]struct{}, total)
	for _, t := range tables {
		out.Dropped += len(t.Dropped)
		for _, rd := range t.Readings {
			k := rowKey(rd)
			if _, dup := seen[k]; dup {
				out.Duplicates++
				continue
			}
			seen[k] = struct{}{}
			out.Readings = append(out.Readings, rd)
		}
	}
	sort.SliceStable(out.Readings, func(i, j int) bool {
		return out.Readings[i].Time.Before(out.Readings[j].Time)
	})
	return out, nil
}

func rowKey(rd Reading) string {
	var b strings.Builder
	b.WriteString(rd.Time.Format(TimeLayout))
	for _, v := range rd.Values {
		b.WriteByte(0x1f)
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	for _, e := range rd.Extra {
		b.WriteByte(0x1f)
		b.WriteString(e)
	}
	return b.String()
}

// SwapSeries returns a copy of d with numeric series i and j (0-based) exchanged,
// header names included.
func SwapSeries(d *Dataset, i, j int) *Dataset {
	cols := append([]string(nil), d.Schema.Columns...)
	cols[i+1], cols[j+1] = cols[j+1], cols[i+1]
	out := &Dataset{
		Schema:     Schema{Columns: cols},
		Readings:   make([]Reading, len(d.Readings)),
		Dropped:    d.Dropped,
		Duplicates: d.Duplicates,
	}
	for k, rd := range d.Readings {
		rd.Values[i], rd.Values[j] = rd.Values[j], rd.Values[i]
		out.Readings[k] = rd
	}
	return out
}
