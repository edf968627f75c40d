package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Device is a blood-pressure monitor reachable by the download tool.
type Device struct {
	Name  string `mapstructure:"name" yaml:"name" validate:"required,excludesall=/"`
	Model string `mapstructure:"model" yaml:"model" validate:"required"`
	MAC   string `mapstructure:"mac" yaml:"mac" validate:"required,mac"`
}

// DownloadTool describes the external command that pulls readings off a device.
type DownloadTool struct {
	Command    string   `mapstructure:"command" yaml:"command" validate:"required"`
	Script     string   `mapstructure:"script" yaml:"script"`
	Dir        string   `mapstructure:"dir" yaml:"dir"`
	OutputFile string   `mapstructure:"output_file" yaml:"output_file" validate:"required"`
	ExtraArgs  []string `mapstructure:"extra_args" yaml:"extra_args"`
	TimeoutSec int      `mapstructure:"timeout_sec" yaml:"timeout_sec" validate:"gte=0"`
}

// Global configuration structure.
type Global struct {
	LogLevel   string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat  string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`
	Color      string `mapstructure:"color" yaml:"color" validate:"oneof=auto always never"`
	SwapSeries bool   `mapstructure:"swap_series" yaml:"swap_series"`

	// Midday is the HH:MM boundary between the before/after partitions.
	Midday      string `mapstructure:"midday" yaml:"midday" validate:"required"`
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width" validate:"gte=400,lte=8000"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height" validate:"gte=300,lte=8000"`

	DownloadTool DownloadTool `mapstructure:"download_tool" yaml:"download_tool"`
	Devices      []Device     `mapstructure:"devices" yaml:"devices" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that device names are unique.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := ParseMidday(c.Midday); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	seen := map[string]bool{}
	for _, d := range c.Devices {
		key := strings.ToLower(d.Name)
		if seen[key] {
			return fmt.Errorf("invalid config: duplicate device %q", d.Name)
		}
		seen[key] = true
	}
	return nil
}

// MiddayOffset returns the configured midday as an offset from 00:00.
func (c *Global) MiddayOffset() (time.Duration, error) {
	return ParseMidday(c.Midday)
}

// ParseMidday parses an HH:MM time of day.
func ParseMidday(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("midday %q: want HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Device looks up a device by name (case-insensitive).
func (c *Global) Device(name string) (Device, bool) {
	for _, d := range c.Devices {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return Device{}, false
}

// AddDevice inserts d, replacing an existing device with the same name.
func (c *Global) AddDevice(d Device) {
	for i := range c.Devices {
		if strings.EqualFold(c.Devices[i].Name, d.Name) {
			c.Devices[i] = d
			return
		}
	}
	c.Devices = append(c.Devices, d)
}

// RemoveDevice deletes the named device and reports whether it existed.
func (c *Global) RemoveDevice(name string) bool {
	for i := range c.Devices {
		if strings.EqualFold(c.Devices[i].Name, name) {
			c.Devices = append(c.Devices[:i], c.Devices[i+1:]...)
			return true
		}
	}
	return false
}

// Dir returns the default configuration directory, ~/.bpreport.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".bpreport"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.bpreport/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("BPREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("color", "auto")
	v.SetDefault("swap_series", false)
	v.SetDefault("midday", "12:00")
	v.SetDefault("chart_width", 1600)
	v.SetDefault("chart_height", 1150)
	// omblepy is the community tool for Omron monitors over Bluetooth LE
	v.SetDefault("download_tool.command", "python3")
	v.SetDefault("download_tool.script", "omblepy.py")
	v.SetDefault("download_tool.dir", "")
	v.SetDefault("download_tool.output_file", "user1.csv")
	v.SetDefault("download_tool.extra_args", []string{})
	v.SetDefault("download_tool.timeout_sec", 300)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Set assigns a scalar setting by its yaml key, as used by "config set".
func (c *Global) Set(key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	case "color":
		c.Color = value
	case "midday":
		c.Midday = value
	case "swap_series":
		c.SwapSeries, err = parseBool(value)
	case "chart_width":
		c.ChartWidth, err = strconv.Atoi(value)
	case "chart_height":
		c.ChartHeight, err = strconv.Atoi(value)
	case "download_tool.command":
		c.DownloadTool.Command = value
	case "download_tool.script":
		c.DownloadTool.Script = value
	case "download_tool.dir":
		c.DownloadTool.Dir = value
	case "download_tool.output_file":
		c.DownloadTool.OutputFile = value
	case "download_tool.extra_args":
		c.DownloadTool.ExtraArgs = strings.Fields(value)
	case "download_tool.timeout_sec":
		c.DownloadTool.TimeoutSec, err = strconv.Atoi(value)
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return c.Validate()
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}
