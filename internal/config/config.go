// Package config loads fintrack's TOML configuration and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all fintrack configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Budget     BudgetConfig     `toml:"budget"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
	Logging    LoggingConfig    `toml:"logging"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DataDir   string `toml:"data_dir,omitempty"`
	Currency  string `toml:"currency"`
	WeekStart string `toml:"week_start"` // "monday" or "sunday"
}

// BudgetConfig holds budget alert settings.
type BudgetConfig struct {
	WarnPercent float64 `toml:"warn_percent"`
}

// DaemonConfig holds background regeneration settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	Interval     string `toml:"interval"`
	LogFile      string `toml:"log_file,omitempty"`
	EventsBuffer int    `toml:"events_buffer"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LoggingConfig controls the logrus logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Themes lists the theme names the TUI understands.
var Themes = []string{"flexoki-dark", "catppuccin-mocha", "tokyo-night", "terminal"}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Currency:  "$",
			WeekStart: "monday",
		},
		Budget: BudgetConfig{
			WarnPercent: 80,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8642",
			Interval:     "24h",
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fintrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fintrack")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist, then
// applies environment overrides.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom is Load for an explicit path.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// LoadDotEnv loads .env from the working directory if present. Variables
// already set in the environment win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FINTRACK_DATA_DIR"); v != "" {
		cfg.General.DataDir = v
	}
	if v := os.Getenv("FINTRACK_CURRENCY"); v != "" {
		cfg.General.Currency = v
	}
	if v := os.Getenv("FINTRACK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FINTRACK_DAEMON_ADDR"); v != "" {
		cfg.Daemon.Addr = v
	}
	if v := os.Getenv("FINTRACK_WARN_PERCENT"); v != "" {
		if pct, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Budget.WarnPercent = pct
		}
	}
}

// IntervalDuration parses Daemon.Interval.
func (c Config) IntervalDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Daemon.Interval)
	if err != nil {
		return 0, fmt.Errorf("daemon interval: %w", err)
	}
	return d, nil
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var problems []string

	if c.Budget.WarnPercent <= 0 || c.Budget.WarnPercent > 1000 {
		problems = append(problems, fmt.Sprintf("budget.warn_percent %v: must be in (0, 1000]", c.Budget.WarnPercent))
	}
	if d, err := c.IntervalDuration(); err != nil {
		problems = append(problems, err.Error())
	} else if d < time.Minute {
		problems = append(problems, fmt.Sprintf("daemon.interval %s: must be at least 1m", d))
	}
	if c.Daemon.Addr == "" {
		problems = append(problems, "daemon.addr: must not be empty")
	}
	if c.Daemon.EventsBuffer < 1 {
		problems = append(problems, fmt.Sprintf("daemon.events_buffer %d: must be positive", c.Daemon.EventsBuffer))
	}
	if !slices.Contains(Themes, c.Appearance.Theme) {
		problems = append(problems, fmt.Sprintf("appearance.theme %q: want one of %s", c.Appearance.Theme, strings.Join(Themes, ", ")))
	}
	switch c.General.WeekStart {
	case "monday", "sunday":
	default:
		problems = append(problems, fmt.Sprintf("general.week_start %q: want monday or sunday", c.General.WeekStart))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q: want text or json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes cfg to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
