package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/bpreport/internal/config"
	"github.com/KaramelBytes/bpreport/internal/device"
)

var (
	dlAll       bool
	dlAnalyze   bool
	dlSkip      bool
	dlDest      string
	dlOutput    string
	dlStartDate string
	dlEndDate   string

	// newRunner is swapped in tests so no external tool is started.
	newRunner = func(cmd *cobra.Command) device.Runner {
		return device.ExecRunner{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	}
	// clock is swapped in tests to pin the date in file names.
	clock = time.Now
)

var downloadCmd = &cobra.Command{
	Use:   "download [device...]",
	Short: "Download readings from configured monitors and optionally analyze them",
	Long: `Download runs the configured download tool once per selected device and saves
its output as <device>-1-<YYYY-MM-DD>.csv in --dest.

With --analyze the downloaded files are merged into analiza-<YYYY-MM-DD>.
With --skip-download no tool is run and today's files are analyzed as they are.
Devices are registered with "bpreport config add-device".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		devs, err := selectDevices(c, args, dlAll)
		if err != nil {
			return err
		}
		d := &device.Downloader{
			Tool:   c.DownloadTool,
			Runner: newRunner(cmd),
			Now:    clock,
		}
		out := cmd.OutOrStdout()
		runID := uuid.NewString()

		var paths []string
		if dlSkip {
			paths = d.ExpectedPaths(devs, dlDest)
		} else {
			logger, err := newLogger(cmd, c, runID)
			if err != nil {
				return err
			}
			d.Logger = logger
			for _, dev := range devs {
				fmt.Fprintf(out, "Running %s for '%s'...\n", c.DownloadTool.Command, dev.Model)
				p, err := d.Download(cmd.Context(), dev, dlDest)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Saved as %s\n", p)
				paths = append(paths, p)
			}
		}
		if !dlAnalyze && !dlSkip {
			return nil
		}

		opts, err := reportOptions(c, out)
		if err != nil {
			return err
		}
		opts.RunID = runID
		opts.Inputs = paths
		opts.Output = dlOutput
		if opts.Output == "" {
			opts.Output = filepath.Join(dlDest, "analiza-"+clock().Format("2006-01-02"))
		}
		opts.StartDate = dlStartDate
		opts.EndDate = dlEndDate
		return runReport(cmd, opts)
	},
}

// selectDevices resolves device names against the config. With all set every
// configured device is used.
func selectDevices(c *cfgpkg.Global, names []string, all bool) ([]cfgpkg.Device, error) {
	if all {
		if len(c.Devices) == 0 {
			return nil, fmt.Errorf("no devices configured (use: bpreport config add-device)")
		}
		return c.Devices, nil
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no devices selected (name devices or use --all)")
	}
	out := make([]cfgpkg.Device, 0, len(names))
	var missing []string
	for _, n := range names {
		d, ok := c.Device(n)
		if !ok {
			missing = append(missing, n)
			continue
		}
		out = append(out, d)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unknown device(s): %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	f := downloadCmd.Flags()
	f.BoolVar(&dlAll, "all", false, "download from every configured device")
	f.BoolVar(&dlAnalyze, "analyze", false, "run the report over the downloaded files")
	f.BoolVar(&dlSkip, "skip-download", false, "do not run the tool; analyze today's existing files (implies --analyze)")
	f.StringVar(&dlDest, "dest", ".", "directory for downloaded files and the report")
	f.StringVarP(&dlOutput, "output", "o", "", "report output base (default <dest>/analiza-<date>)")
	f.StringVar(&dlStartDate, "start-date", "", "first date to include (YYYY-MM-DD)")
	f.StringVar(&dlEndDate, "end-date", "", "last date to include (YYYY-MM-DD)")
}
