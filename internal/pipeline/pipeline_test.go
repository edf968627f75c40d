package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/bpreport/internal/dataset"
	"github.com/KaramelBytes/bpreport/internal/render"
	"github.com/KaramelBytes/bpreport/internal/stats"
)

func writeInput(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRunWritesAllArtifacts(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "a.csv", "datetime,diastolic,systolic,pulse\n"+
		"2024-01-01 08:00:00,79,119,70\n"+
		"2024-01-01 13:00:00,82,122,74\n")
	b := writeInput(t, dir, "b.csv", "datetime,diastolic,systolic,pulse\n"+
		"2024-01-01 09:00:00,81,121,72\n"+
		"2024-01-01 13:00:00,82,122,74\n"+
		"2024-01-02 14:00:00,82,124,76\n")
	var stdout bytes.Buffer

	res, err := Run(context.Background(), Options{
		Inputs:      []string{a, b},
		Output:      filepath.Join(dir, "out", "report.csv"),
		Midday:      stats.DefaultMidday,
		ChartWidth:  800,
		ChartHeight: 600,
		Stdout:      &stdout,
		RunID:       "fixed-run",
	}, quiet())
	require.NoError(t, err)

	assert.Equal(t, "fixed-run", res.RunID)
	assert.Equal(t, 4, res.Rows)
	assert.Equal(t, 1, res.Duplicates)
	for _, ext := range []string{".csv", ".png", ".txt", ".xlsx"} {
		assert.FileExists(t, filepath.Join(dir, "out", "report"+ext))
	}
	assert.Len(t, res.Paths(), 4)
	assert.Contains(t, stdout.String(), "Statistics for rows before midday")

	txt, err := os.ReadFile(filepath.Join(dir, "out", "report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(txt), "Run:       fixed-run")
}

func TestRunOutputRoundTrips(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.csv", "datetime,diastolic,systolic,pulse,irregular\n"+
		"2024-02-02 20:15:00,85,131,66,0\n"+
		"2024-02-01 07:30:00,78.5,118,64,1\n")
	first := filepath.Join(dir, "first")
	_, err := Run(context.Background(), Options{Inputs: []string{in}, Output: first, Stdout: io.Discard}, quiet())
	require.NoError(t, err)

	// feeding the merged output back in yields identical CSV
	second := filepath.Join(dir, "second")
	_, err = Run(context.Background(), Options{Inputs: []string{first + ".csv"}, Output: second, Stdout: io.Discard}, quiet())
	require.NoError(t, err)

	a, err := os.ReadFile(first + ".csv")
	require.NoError(t, err)
	b, err := os.ReadFile(second + ".csv")
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.True(t, strings.HasPrefix(string(a), "datetime,diastolic,systolic,pulse,irregular\n2024-02-01 07:30:00,78.5,"))
}

func TestRunFiltersAndSwaps(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.csv", "datetime,systolic,diastolic,pulse\n"+
		"2024-01-01 08:00:00,120,80,70\n"+
		"2024-01-02 08:00:00,121,81,71\n"+
		"2024-01-03 08:00:00,122,82,72\n")
	out := filepath.Join(dir, "r")
	res, err := Run(context.Background(), Options{
		Inputs:     []string{in},
		Output:     out,
		StartDate:  "2024-01-02",
		EndDate:    "2024-01-02",
		SwapSeries: true,
		Stdout:     io.Discard,
	}, quiet())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)

	b, err := os.ReadFile(out + ".csv")
	require.NoError(t, err)
	assert.Equal(t, "datetime,diastolic,systolic,pulse\n2024-01-02 08:00:00,81,121,71\n", string(b))
}

func TestRunValidationWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.csv", "datetime,a,b,c\n2024-01-01 08:00:00,1,2,3\n")
	out := filepath.Join(dir, "out")

	_, err := Run(context.Background(), Options{Inputs: []string{in}, Output: out, StartDate: "2024-02-01", EndDate: "2024-01-01"}, quiet())
	var verr *dataset.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = Run(context.Background(), Options{Inputs: []string{in}, Output: out, StartDate: "01/02/2024"}, quiet())
	require.ErrorAs(t, err, &verr)

	_, err = Run(context.Background(), Options{Inputs: []string{filepath.Join(dir, "missing.csv")}, Output: out}, quiet())
	var ioErr *dataset.IOError
	require.ErrorAs(t, err, &ioErr)

	_, err = Run(context.Background(), Options{Output: out}, quiet())
	require.ErrorAs(t, err, &verr)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the input file should exist")
}

func TestRunSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "a.csv", "datetime,a,b,c\n2024-01-01 08:00:00,1,2,3\n")
	b := writeInput(t, dir, "b.csv", "datetime,x,y,z\n2024-01-01 09:00:00,1,2,3\n")
	_, err := Run(context.Background(), Options{Inputs: []string{a, b}, Output: filepath.Join(dir, "o")}, quiet())
	var serr *dataset.SchemaError
	require.ErrorAs(t, err, &serr)
	_, statErr := os.Stat(filepath.Join(dir, "o.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunEmptyAfterFilter(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.csv", "datetime,a,b,c\n2024-01-01 08:00:00,1,2,3\n")
	var stdout bytes.Buffer
	res, err := Run(context.Background(), Options{
		Inputs:    []string{in},
		Output:    filepath.Join(dir, "o"),
		StartDate: "2025-01-01",
		Stdout:    &stdout,
	}, quiet())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Rows)
	assert.FileExists(t, filepath.Join(dir, "o.png"))
	assert.Contains(t, stdout.String(), "n/a")
}

func TestRunCustomMidday(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.csv", "datetime,a,b,c\n"+
		"2024-01-01 08:00:00,1,1,1\n"+
		"2024-01-01 10:30:00,3,3,3\n")
	out := filepath.Join(dir, "o")
	_, err := Run(context.Background(), Options{
		Inputs: []string{in},
		Output: out,
		Midday: 9 * time.Hour,
		Stdout: io.Discard,
		Now:    func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) },
	}, quiet())
	require.NoError(t, err)
	b, err := os.ReadFile(out + ".txt")
	require.NoError(t, err)
	report := string(b)
	assert.Contains(t, report, "Generated: 2024-01-02T00:00:00Z")
	after := report[strings.Index(report, "After Midday"):]
	assert.Contains(t, after, "3.00")
	assert.NotContains(t, after, "2.00")
}

func TestRunMiddayAtMidnight(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.csv", "datetime,a,b,c\n"+
		"2024-01-01 08:00:00,80,120,70\n"+
		"2024-01-01 20:00:00,90,130,75\n")
	out := filepath.Join(dir, "o")
	_, err := Run(context.Background(), Options{
		Inputs: []string{in},
		Output: out,
		Midday: 0,
		Stdout: io.Discard,
	}, quiet())
	require.NoError(t, err)
	b, err := os.ReadFile(out + ".txt")
	require.NoError(t, err)
	report := string(b)
	beforeAt := strings.Index(report, "Before Midday")
	afterAt := strings.Index(report, "After Midday")
	require.True(t, beforeAt >= 0 && afterAt > beforeAt)

	before := report[beforeAt:afterAt]
	assert.NotContains(t, before, "80.00")
	assert.Contains(t, before, "n/a")
	after := report[afterAt:]
	assert.Contains(t, after, "80.00")
	assert.Contains(t, after, "90.00")
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.csv", "datetime,a,b,c\n2024-01-01 08:00:00,1,2,3\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Options{Inputs: []string{in}, Output: filepath.Join(dir, "o")}, quiet())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunReportsRendererFailure(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.csv", "datetime,a,b,c\n2024-01-01 08:00:00,1,2,3\n")
	// a directory squatting on the png path makes only that artifact fail
	out := filepath.Join(dir, "o")
	require.NoError(t, os.Mkdir(out+".png", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out+".png", "keep"), nil, 0o644))

	res, err := Run(context.Background(), Options{Inputs: []string{in}, Output: out, Stdout: io.Discard}, quiet())
	var rerr *render.RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "png", rerr.Artifact)
	require.NotNil(t, res)
	assert.FileExists(t, out+".csv")
	assert.FileExists(t, out+".xlsx")
}
