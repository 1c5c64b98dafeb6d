// Package config loads and saves pburn's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/pburn/internal/budget"
	"github.com/theirongolddev/pburn/internal/currency"
	"github.com/theirongolddev/pburn/internal/deadline"
)

// ErrInvalid is wrapped by Validate failures.
var ErrInvalid = errors.New("invalid config")

// Config holds all pburn configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Budget     BudgetConfig     `toml:"budget"`
	Deadline   DeadlineConfig   `toml:"deadline"`
	Rates      RatesConfig      `toml:"rates"`
	Appearance AppearanceConfig `toml:"appearance"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Log        LogConfig        `toml:"log"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Locale          string `toml:"locale"`
	DefaultCurrency string `toml:"default_currency"`
	DBPath          string `toml:"db_path,omitempty"`
}

// BudgetConfig holds the consumption tiers, in percent.
type BudgetConfig struct {
	WarningPercent  float64 `toml:"warning_percent"`
	CriticalPercent float64 `toml:"critical_percent"`
}

// DeadlineConfig holds the deadline tiers, in days.
type DeadlineConfig struct {
	DangerDays      int `toml:"danger_days"`
	WarningDays     int `toml:"warning_days"`
	ApproachingDays int `toml:"approaching_days"`
}

// RatesConfig lets users add or replace exchange rates.
type RatesConfig struct {
	Overrides map[string]map[string]float64 `toml:"overrides,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DaemonConfig holds background monitor settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	IntervalSec  int    `toml:"interval_sec"`
	EventsBuffer int    `toml:"events_buffer"`
	InboxDir     string `toml:"inbox_dir,omitempty"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	b := budget.DefaultThresholds()
	d := deadline.DefaultThresholds()
	return Config{
		General: GeneralConfig{
			Locale:          "en",
			DefaultCurrency: "EUR",
		},
		Budget: BudgetConfig{
			WarningPercent:  b.Warning,
			CriticalPercent: b.Critical,
		},
		Deadline: DeadlineConfig{
			DangerDays:      d.Danger,
			WarningDays:     d.Warning,
			ApproachingDays: 7,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8788",
			IntervalSec:  15,
			EventsBuffer: 200,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pburn")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pburn")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory holding the ledger.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "pburn")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "pburn")
}

// DBPath returns the ledger location: PBURN_DB, then config, then the
// default under DataDir.
func DBPath(cfg Config) string {
	if p := os.Getenv("PBURN_DB"); p != "" {
		return p
	}
	if cfg.General.DBPath != "" {
		return cfg.General.DBPath
	}
	return filepath.Join(DataDir(), "ledger.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path. Keys missing from the file keep their
// default values.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config file
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path, creating parent directories.
func SaveTo(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Validate checks that the tiers are ordered and positive.
func (c Config) Validate() error {
	if !(c.Budget.WarningPercent > 0) || !(c.Budget.CriticalPercent > 0) ||
		math.IsInf(c.Budget.CriticalPercent, 0) {
		return fmt.Errorf("%w: budget thresholds must be positive numbers", ErrInvalid)
	}
	if c.Budget.WarningPercent >= c.Budget.CriticalPercent {
		return fmt.Errorf("%w: warning_percent (%.1f) must be below critical_percent (%.1f)",
			ErrInvalid, c.Budget.WarningPercent, c.Budget.CriticalPercent)
	}
	if c.Deadline.DangerDays < 0 || c.Deadline.DangerDays > c.Deadline.WarningDays {
		return fmt.Errorf("%w: danger_days (%d) must be between 0 and warning_days (%d)",
			ErrInvalid, c.Deadline.DangerDays, c.Deadline.WarningDays)
	}
	if c.General.DefaultCurrency != "" && !currency.Known(c.General.DefaultCurrency) {
		return fmt.Errorf("%w: unknown default_currency %q", ErrInvalid, c.General.DefaultCurrency)
	}
	return nil
}

// BudgetThresholds converts the budget section into engine thresholds.
func (c Config) BudgetThresholds() budget.Thresholds {
	return budget.Thresholds{
		Warning:  c.Budget.WarningPercent,
		Critical: c.Budget.CriticalPercent,
	}
}

// DeadlineThresholds converts the deadline section into evaluator thresholds.
func (c Config) DeadlineThresholds() deadline.Thresholds {
	return deadline.Thresholds{
		Danger:  c.Deadline.DangerDays,
		Warning: c.Deadline.WarningDays,
	}
}

// RateTable returns the built-in rates with configured overrides applied.
func (c Config) RateTable() currency.RateTable {
	return currency.DefaultRates().With(currency.Overrides(c.Rates.Overrides))
}

// Engine builds a budget engine from the configured rates and tiers.
func (c Config) Engine() budget.Engine {
	return budget.NewEngine(c.RateTable(), c.BudgetThresholds())
}
