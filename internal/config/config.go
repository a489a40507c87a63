package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds protoviz configuration.
type Config struct {
	Layout   LayoutConfig   `toml:"layout"`
	Hover    HoverConfig    `toml:"hover"`
	Viewport ViewportConfig `toml:"viewport"`
	Log      LogConfig      `toml:"log"`
	Parallel ParallelConfig `toml:"parallel"`
}

// LayoutConfig controls layout runs.
type LayoutConfig struct {
	Default    string   `toml:"default"`
	Timeout    Duration `toml:"timeout"`
	StopGrace  Duration `toml:"stop_grace"`
	ChunkSize  int      `toml:"chunk_size"`
	Iterations int      `toml:"iterations"` // 0 = derived from graph size
	Seed       int64    `toml:"seed"`
	Spacing    float64  `toml:"spacing"`
}

// HoverConfig controls component previews.
type HoverConfig struct {
	Debounce   Duration `toml:"debounce"`
	FitPadding float64  `toml:"fit_padding"`
}

// ViewportConfig is the screen size used for fitting.
type ViewportConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console", "json"
}

// ParallelConfig controls concurrent batch layouts.
type ParallelConfig struct {
	Enabled     bool `toml:"enabled"`
	Concurrency int  `toml:"concurrency"`
}

// Duration is a time.Duration written as a string ("30s") in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			Default:   "forceatlas2",
			Timeout:   Duration{30 * time.Second},
			StopGrace: Duration{2 * time.Second},
			ChunkSize: 50,
			Seed:      1,
			Spacing:   80,
		},
		Hover:    HoverConfig{Debounce: Duration{150 * time.Millisecond}, FitPadding: 40},
		Viewport: ViewportConfig{Width: 1280, Height: 800},
		Log:      LogConfig{Level: "info", Format: "console"},
		Parallel: ParallelConfig{Enabled: true, Concurrency: 4},
	}
}

// normalize puts back defaults for values that would break a run.
func (c *Config) normalize() {
	d := Default()
	if c.Layout.Default == "" {
		c.Layout.Default = d.Layout.Default
	}
	if c.Layout.Timeout.Duration <= 0 {
		c.Layout.Timeout = d.Layout.Timeout
	}
	if c.Layout.StopGrace.Duration <= 0 {
		c.Layout.StopGrace = d.Layout.StopGrace
	}
	if c.Layout.ChunkSize <= 0 {
		c.Layout.ChunkSize = d.Layout.ChunkSize
	}
	if c.Layout.Iterations < 0 {
		c.Layout.Iterations = 0
	}
	if c.Hover.Debounce.Duration < 0 {
		c.Hover.Debounce = d.Hover.Debounce
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		c.Viewport = d.Viewport
	}
	if c.Parallel.Concurrency <= 0 {
		c.Parallel.Concurrency = d.Parallel.Concurrency
	}
}

// ConfigDir returns the protoviz config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "protoviz")
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file. A missing or unreadable file yields defaults.
func Load() *Config {
	cfg, err := LoadFile(Path())
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile reads the config at path over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil // already exists
	}
	return Save(Default())
}
