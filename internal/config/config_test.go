package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults_AreValid(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestDefaults_Values(t *testing.T) {
	cfg := Defaults()
	require.True(t, cfg.AutoSync)
	require.True(t, cfg.UI.CursorBlink)
	require.Equal(t, 530, cfg.UI.BlinkIntervalMS)
	require.Equal(t, 8.0, cfg.Viewport.CellWidth)
	require.Equal(t, 16.0, cfg.Viewport.CellHeight)
	require.Equal(t, 250, cfg.Sync.DebounceMS)
	require.False(t, cfg.Tracing.Enabled)
}

func TestDBPath(t *testing.T) {
	cfg := Defaults()
	cfg.DataDir = "/tmp/folio-test"
	require.Equal(t, filepath.Join("/tmp/folio-test", "folio.db"), cfg.DBPath())
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"zero cell width", func(c *Config) { c.Viewport.CellWidth = 0 }},
		{"negative cell height", func(c *Config) { c.Viewport.CellHeight = -1 }},
		{"negative blink", func(c *Config) { c.UI.BlinkIntervalMS = -5 }},
		{"negative debounce", func(c *Config) { c.Sync.DebounceMS = -1 }},
		{"unknown exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }},
		{"file exporter without path", func(c *Config) {
			c.Tracing.Exporter = "file"
			c.Tracing.FilePath = ""
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestDefaultConfigTemplate_IsValidYAML(t *testing.T) {
	var out map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(DefaultConfigTemplate()), &out))
	require.Contains(t, out, "auto_sync")
	require.Contains(t, out, "viewport")
}

func TestWriteDefaultConfig_CreatesFileAndDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Folio Configuration")
}
