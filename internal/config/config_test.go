package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Budget.WarningPercent != 70 || cfg.Budget.CriticalPercent != 90 {
		t.Fatalf("budget tiers = %v/%v, want 70/90", cfg.Budget.WarningPercent, cfg.Budget.CriticalPercent)
	}
	if cfg.Deadline.DangerDays != 2 || cfg.Deadline.WarningDays != 5 {
		t.Fatalf("deadline tiers = %d/%d, want 2/5", cfg.Deadline.DangerDays, cfg.Deadline.WarningDays)
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[budget]
warning_percent = 60.0

[rates.overrides.USD]
EUR = 0.5
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Budget.WarningPercent != 60 {
		t.Fatalf("WarningPercent = %v, want 60", cfg.Budget.WarningPercent)
	}
	if cfg.Budget.CriticalPercent != 90 {
		t.Fatalf("CriticalPercent = %v, want default 90", cfg.Budget.CriticalPercent)
	}
	if got := cfg.RateTable().Resolve("USD", "EUR"); got != 0.5 {
		t.Fatalf("override USD->EUR = %v, want 0.5", got)
	}
	if got := cfg.Engine().Thresholds.Warning; got != 60 {
		t.Fatalf("engine warning tier = %v, want 60", got)
	}
}

func TestLoadFrom_NonFiniteValues(t *testing.T) {
	dir := t.TempDir()

	overrides := filepath.Join(dir, "overrides.toml")
	data := "[rates.overrides.EUR]\nJPY = inf\nUSD = nan\n"
	if err := os.WriteFile(overrides, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(overrides)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got := cfg.RateTable().Resolve("EUR", "JPY"); got != 162.5 {
		t.Fatalf("EUR->JPY = %v, want built-in 162.5", got)
	}
	if got := cfg.RateTable().Resolve("EUR", "USD"); got != 1.09 {
		t.Fatalf("EUR->USD = %v, want built-in 1.09", got)
	}

	for _, tiers := range []string{
		"[budget]\nwarning_percent = nan\n",
		"[budget]\ncritical_percent = inf\n",
	} {
		path := filepath.Join(dir, "tiers.toml")
		if err := os.WriteFile(path, []byte(tiers), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFrom(path); !errors.Is(err, ErrInvalid) {
			t.Errorf("LoadFrom(%q) err = %v, want ErrInvalid", tiers, err)
		}
	}
}

func TestLoadFrom_RejectsInvertedTiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[budget]\nwarning_percent = 95.0\ncritical_percent = 90.0\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFrom(path)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.General.Locale = "de"
	cfg.Deadline.WarningDays = 10
	cfg.Rates.Overrides = map[string]map[string]float64{"GBP": {"EUR": 1.2}}

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.General.Locale != "de" || got.Deadline.WarningDays != 10 {
		t.Fatalf("round trip lost values: %+v", got)
	}
	if got.Rates.Overrides["GBP"]["EUR"] != 1.2 {
		t.Fatalf("override lost: %+v", got.Rates.Overrides)
	}
}

func TestDBPathPrecedence(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	t.Setenv("PBURN_DB", "")

	cfg := DefaultConfig()
	if got := DBPath(cfg); got != "/tmp/xdg-data/pburn/ledger.db" {
		t.Fatalf("default DBPath = %q", got)
	}

	cfg.General.DBPath = "/srv/ledger.db"
	if got := DBPath(cfg); got != "/srv/ledger.db" {
		t.Fatalf("config DBPath = %q", got)
	}

	t.Setenv("PBURN_DB", "/env/ledger.db")
	if got := DBPath(cfg); got != "/env/ledger.db" {
		t.Fatalf("env DBPath = %q", got)
	}
}

func TestPathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-cfg")
	if got := Path(); got != "/tmp/xdg-cfg/pburn/config.toml" {
		t.Fatalf("Path = %q", got)
	}
}
