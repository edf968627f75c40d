package render

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/KaramelBytes/bpreport/internal/stats"
	"github.com/KaramelBytes/bpreport/internal/utils"
)

// TextWriter writes the three summary tables as a plain-text report.
type TextWriter struct {
	Path string
}

func (TextWriter) Name() string { return "txt" }

func (w TextWriter) Render(in *Input) (string, error) {
	if err := utils.SafeWriteFile(w.Path, []byte(TextReport(in))); err != nil {
		return "", &RenderError{Artifact: w.Name(), Err: err}
	}
	return w.Path, nil
}

// TextReport renders the run header followed by one section per partition.
func TextReport(in *Input) string {
	var b strings.Builder
	b.WriteString("=== Summary Tables ===\n\n")
	fmt.Fprintf(&b, "Run:       %s\n", in.RunID)
	if !in.Generated.IsZero() {
		fmt.Fprintf(&b, "Generated: %s\n", in.Generated.Format(time.RFC3339))
	}
	if len(in.Sources) > 0 {
		names := make([]string, len(in.Sources))
		for i, s := range in.Sources {
			names[i] = filepath.Base(s)
		}
		fmt.Fprintf(&b, "Sources:   %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "Range:     %s\n", in.Range)
	fmt.Fprintf(&b, "Rows:      %d (duplicates removed: %d, dropped rows: %d)\n",
		in.Dataset.Len(), in.Dataset.Duplicates, in.Dataset.Dropped)
	for _, p := range stats.Partitions {
		fmt.Fprintf(&b, "\n%s %s:\n", p.Icon(), strings.TrimPrefix(p.Title(), "Summary: "))
		b.WriteString(FormatTable(in.Summaries[p]))
	}
	return b.String()
}

// FormatTable lays out a summary with one row per series and right-aligned
// statistic columns.
func FormatTable(s stats.Summary) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "\t")
	for _, c := range stats.Columns {
		fmt.Fprintf(tw, "%s\t", c)
	}
	fmt.Fprintln(tw)
	for _, ss := range s.Series {
		fmt.Fprintf(tw, "%s\t", ss.Name)
		for _, c := range ss.Cells() {
			fmt.Fprintf(tw, "%s\t", c)
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
	return b.String()
}
