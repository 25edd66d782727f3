// Package config provides configuration types and defaults for folio.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zdavis/folio/internal/log"
	"github.com/zdavis/folio/internal/paths"
)

// Config holds all configuration options for folio.
type Config struct {
	// DataDir is the directory holding the document database.
	// Default: ~/.folio
	DataDir string `mapstructure:"data_dir"`

	// AutoSync watches the database for changes made by other folio
	// processes and pulls their ops automatically.
	AutoSync bool `mapstructure:"auto_sync"`

	UI       UIConfig       `mapstructure:"ui"`
	Viewport ViewportConfig `mapstructure:"viewport"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Recent   []RecentEntry  `mapstructure:"recent"`

	// Flags holds feature flag overrides, keyed by flag name.
	Flags map[string]bool `mapstructure:"flags"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ShowStatusBar bool `mapstructure:"show_status_bar"`
	CursorBlink   bool `mapstructure:"cursor_blink"`
	// BlinkIntervalMS is the cursor blink half-period in milliseconds.
	BlinkIntervalMS int `mapstructure:"blink_interval_ms"`
}

// ViewportConfig holds glyph cell metrics for the layout engine.
// Terminal cells are uniform; these map one cell to pixel units.
type ViewportConfig struct {
	CellWidth  float64 `mapstructure:"cell_width"`
	CellHeight float64 `mapstructure:"cell_height"`
}

// SyncConfig holds multi-process sync options.
type SyncConfig struct {
	// DebounceMS is how long the database watcher coalesces change events
	// before signaling, in milliseconds.
	DebounceMS int `mapstructure:"debounce_ms"`
}

// TracingConfig holds trace export configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "stdout", "file"
	// Default: "stdout"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for the "file" exporter.
	FilePath string `mapstructure:"file_path"`
}

// RecentEntry records a recently opened document for the picker.
type RecentEntry struct {
	GUID  string `mapstructure:"guid"`
	Title string `mapstructure:"title"`
}

// DefaultDataDir returns ~/.folio, or empty string if the home directory is
// unavailable.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".folio")
}

// DBPath returns the document database path under the configured data
// directory.
func (c Config) DBPath() string {
	return paths.DBPath(c.DataDir)
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		DataDir:  DefaultDataDir(),
		AutoSync: true,
		UI: UIConfig{
			ShowStatusBar:   true,
			CursorBlink:     true,
			BlinkIntervalMS: 530,
		},
		Viewport: ViewportConfig{
			CellWidth:  8,
			CellHeight: 16,
		},
		Sync: SyncConfig{
			DebounceMS: 250,
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Exporter: "stdout",
		},
	}
}

// Validate checks the configuration for values the rest of the program
// cannot work with.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Viewport.CellWidth <= 0 {
		return fmt.Errorf("viewport.cell_width must be positive, got %v", c.Viewport.CellWidth)
	}
	if c.Viewport.CellHeight <= 0 {
		return fmt.Errorf("viewport.cell_height must be positive, got %v", c.Viewport.CellHeight)
	}
	if c.UI.BlinkIntervalMS < 0 {
		return fmt.Errorf("ui.blink_interval_ms must not be negative, got %d", c.UI.BlinkIntervalMS)
	}
	if c.Sync.DebounceMS < 0 {
		return fmt.Errorf("sync.debounce_ms must not be negative, got %d", c.Sync.DebounceMS)
	}
	switch c.Tracing.Exporter {
	case "", "none", "stdout", "file":
	default:
		return fmt.Errorf("tracing.exporter must be one of none, stdout, file; got %q", c.Tracing.Exporter)
	}
	if c.Tracing.Exporter == "file" && c.Tracing.FilePath == "" {
		return fmt.Errorf("tracing.file_path is required when tracing.exporter is file")
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Folio Configuration

# Directory holding the document database (default: ~/.folio)
# data_dir: /path/to/data

# Pull ops written by other folio processes automatically
auto_sync: true

# UI settings
ui:
  show_status_bar: true   # Show status bar at bottom
  cursor_blink: true      # Blink the cursor marker
  blink_interval_ms: 530  # Blink half-period

# Glyph cell metrics used by the layout engine. Terminal cells are uniform;
# these map one cell to pixel units. Change only for a display with unusual
# cell proportions.
viewport:
  cell_width: 8
  cell_height: 16

# Multi-process sync
sync:
  debounce_ms: 250  # Coalesce database change events for this long

# Trace export
tracing:
  enabled: false
  # exporter: stdout  # "none", "stdout", or "file"
  # file_path: ~/.folio/traces.jsonl

# Feature flags
# flags:
#   mouse-support: true
#   render-stats: true
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
