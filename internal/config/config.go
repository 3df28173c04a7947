package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/scriptkitz/eelua/internal/transcoder"
)

// EnvPrefix is prepended to every environment override, e.g. EELUA_LOG_LEVEL.
const EnvPrefix = "EELUA"

type Config struct {
	PhysicalPath      string   `mapstructure:"physical_path"`
	MountPoint        string   `mapstructure:"mount_point"`
	AllowedProcesses  []string `mapstructure:"allowed_processes"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	// ANSICodepage overrides the system code page; 0 keeps the system one.
	ANSICodepage int    `mapstructure:"ansi_codepage"`
	SniffSize    int    `mapstructure:"sniff_size"`
	LogLevel     string `mapstructure:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		PhysicalPath:      "F:\\",
		MountPoint:        "Z:",
		AllowedProcesses:  []string{"a.exe"},
		AllowedExtensions: []string{".txt", ".csv", ".log", ".ini", ".conf", ".properties", ".bas", ".cls", ".frm", ".vbp"},
		SniffSize:         transcoder.DetectionBufferSize,
		LogLevel:          "info",
	}
}

// LoadConfig reads the config file at path (json, yaml or toml by extension)
// and applies EELUA_* environment overrides. An empty path loads defaults and
// environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("physical_path", d.PhysicalPath)
	v.SetDefault("mount_point", d.MountPoint)
	v.SetDefault("allowed_processes", d.AllowedProcesses)
	v.SetDefault("allowed_extensions", d.AllowedExtensions)
	v.SetDefault("ansi_codepage", d.ANSICodepage)
	v.SetDefault("sniff_size", d.SniffSize)
	v.SetDefault("log_level", d.LogLevel)
}

// Validate checks values the rest of the program relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.ANSICodepage != 0 && !transcoder.SupportedANSICodepage(c.ANSICodepage) {
		errs = append(errs, fmt.Errorf("ansi_codepage %d: %w", c.ANSICodepage, transcoder.ErrUnsupportedCodepage))
	}
	if c.SniffSize < 2 {
		errs = append(errs, fmt.Errorf("sniff_size must be at least 2, got %d", c.SniffSize))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// Apply installs the process-wide settings carried by c.
func (c *Config) Apply() error {
	if c.ANSICodepage == 0 {
		return nil
	}
	return transcoder.SetANSICodepage(c.ANSICodepage)
}

// NewLogger builds the console logger used by the command and the VFS.
// Output is colored only when out is a terminal.
func NewLogger(out io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:     out,
		NoColor: !isTerminal(out),
	}).With().Timestamp().Logger().Level(lvl)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
