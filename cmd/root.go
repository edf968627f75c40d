package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/bpreport/internal/config"
	"github.com/KaramelBytes/bpreport/internal/dataset"
	"github.com/KaramelBytes/bpreport/internal/logging"
	"github.com/KaramelBytes/bpreport/internal/pipeline"
	"github.com/KaramelBytes/bpreport/internal/render"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	noColor bool

	// Report flags
	flagInputs    []string
	flagOutput    string
	flagStartDate string
	flagEndDate   string
	flagSwap      bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "bpreport -i a.csv [-i b.csv | b.csv ...] -o out",
	Short: "Merge blood-pressure CSV exports into summary tables, a chart and a workbook",
	Long: `bpreport merges one or more CSV exports of (datetime, diastolic, systolic, pulse)
readings, removes duplicates, optionally filters by date and writes:

  <out>.csv   merged rows
  <out>.png   daily-average chart with summary tables
  <out>.txt   summary tables as text
  <out>.xlsx  workbook with data, summaries and chart

Summary tables are also printed to the terminal.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs := collectInputs(flagInputs, args)
		if len(inputs) == 0 {
			return &dataset.ValidationError{Field: "input", Msg: "at least one input file is required (-i, see --help)"}
		}
		if strings.TrimSpace(flagOutput) == "" {
			return &dataset.ValidationError{Field: "output", Msg: "output path is required (-o, see --help)"}
		}
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		swap := c.SwapSeries
		if cmd.Flags().Changed("swap-series") {
			swap = flagSwap
		}
		opts, err := reportOptions(c, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		opts.Inputs = inputs
		opts.Output = flagOutput
		opts.StartDate = flagStartDate
		opts.EndDate = flagEndDate
		opts.SwapSeries = swap
		return runReport(cmd, opts)
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.bpreport/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")

	f := rootCmd.Flags()
	f.StringSliceVarP(&flagInputs, "input", "i", nil, "input CSV/TSV/XLSX files (repeatable, comma separated)")
	f.StringVarP(&flagOutput, "output", "o", "", "output base path; .csv/.png/.txt/.xlsx are derived from it")
	f.StringVar(&flagStartDate, "start-date", "", "first date to include (YYYY-MM-DD)")
	f.StringVar(&flagEndDate, "end-date", "", "last date to include (YYYY-MM-DD)")
	f.BoolVar(&flagSwap, "swap-series", false, "swap the first two numeric columns (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands report the error when they need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// ensureConfig returns the loaded config, loading it on first use.
func ensureConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// reportOptions fills the config-derived pipeline options.
func reportOptions(c *cfgpkg.Global, stdout io.Writer) (pipeline.Options, error) {
	midday, err := c.MiddayOffset()
	if err != nil {
		return pipeline.Options{}, err
	}
	mode := c.Color
	if noColor {
		mode = "never"
	}
	f, _ := stdout.(*os.File)
	return pipeline.Options{
		SwapSeries:  c.SwapSeries,
		Midday:      midday,
		ChartWidth:  c.ChartWidth,
		ChartHeight: c.ChartHeight,
		Color:       render.ColorEnabled(mode, f),
		Stdout:      stdout,
	}, nil
}

func newLogger(cmd *cobra.Command, c *cfgpkg.Global, runID string) (*slog.Logger, error) {
	level := c.LogLevel
	if debug {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level:   level,
		Format:  c.LogFormat,
		Out:     cmd.ErrOrStderr(),
		NoColor: noColor || c.Color == "never",
	}, runID)
}

// runReport runs the pipeline and lists what was written.
func runReport(cmd *cobra.Command, opts pipeline.Options) error {
	c, err := ensureConfig()
	if err != nil {
		return err
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	logger, err := newLogger(cmd, c, opts.RunID)
	if err != nil {
		return err
	}
	res, err := pipeline.Run(cmd.Context(), opts, logger)
	if res != nil {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		for _, p := range res.Paths() {
			fmt.Fprintf(out, "✓ Wrote %s\n", p)
		}
		fmt.Fprintf(out, "Rows: %d (duplicates removed: %d, dropped rows: %d)\n", res.Rows, res.Duplicates, res.Dropped)
	}
	return err
}

// collectInputs joins -i values with positional paths. pflag has already
// split -i comma lists; positional paths are kept whole so a name may
// contain a comma.
func collectInputs(flagged, args []string) []string {
	var out []string
	for _, p := range flagged {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	for _, p := range args {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
