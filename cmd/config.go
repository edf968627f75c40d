package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/KaramelBytes/bpreport/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set bpreport configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		b, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk.

Keys: log_level, log_format, color, midday, swap_series, chart_width, chart_height,
download_tool.command, download_tool.script, download_tool.dir,
download_tool.output_file, download_tool.extra_args, download_tool.timeout_sec`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

var configAddDeviceCmd = &cobra.Command{
	Use:   "add-device <name> <model> <mac>",
	Short: "Register a monitor for the download command",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		prev := append([]cfgpkg.Device(nil), c.Devices...)
		c.AddDevice(cfgpkg.Device{Name: args[0], Model: args[1], MAC: args[2]})
		if err := c.Validate(); err != nil {
			c.Devices = prev
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved device %s\n", args[0])
		return nil
	},
}

var configRemoveDeviceCmd = &cobra.Command{
	Use:   "remove-device <name>",
	Short: "Forget a registered monitor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		if !c.RemoveDevice(args[0]) {
			return fmt.Errorf("device not found: %s", args[0])
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed device %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configAddDeviceCmd)
	configCmd.AddCommand(configRemoveDeviceCmd)
}
