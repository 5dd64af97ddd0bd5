package adapter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.unsplash.com/search/photos", cfg.Unsplash.URL)
	assert.Equal(t, 30, cfg.Unsplash.PerPage)
	assert.Equal(t, time.Duration(0), cfg.Unsplash.Timeout)
	assert.Equal(t, 3, cfg.UI.GridColumns)
	assert.True(t, cfg.Cache.Enabled)
	assert.False(t, cfg.IsConfigured())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
unsplash:
  access_key: abc123
  per_page: 12
  timeout: 15s
ui:
  grid_columns: 4
  show_ids: true
history:
  max_entries: 10
logging:
  level: debug
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "abc123", cfg.Unsplash.AccessKey)
	assert.Equal(t, 12, cfg.Unsplash.PerPage)
	assert.Equal(t, 15*time.Second, cfg.Unsplash.Timeout)
	assert.Equal(t, 4, cfg.UI.GridColumns)
	assert.True(t, cfg.UI.ShowIDs)
	assert.Equal(t, 10, cfg.History.MaxEntries)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.IsConfigured())

	// Untouched keys keep their defaults
	assert.Equal(t, "https://api.unsplash.com/search/photos", cfg.Unsplash.URL)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadConfigFileEnvOverride(t *testing.T) {
	path := writeConfig(t, "unsplash:\n  access_key: from-file\n")
	t.Setenv("SNAPGRID_UNSPLASH_ACCESS_KEY", "from-env")
	t.Setenv("SNAPGRID_UI_GRID_COLUMNS", "5")

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Unsplash.AccessKey)
	assert.Equal(t, 5, cfg.UI.GridColumns)
}

func TestLoadConfigFileInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "zero columns", body: "ui:\n  grid_columns: 0\n"},
		{name: "page too large", body: "unsplash:\n  per_page: 31\n"},
		{name: "negative history", body: "history:\n  max_entries: -1\n"},
		{name: "not yaml", body: "unsplash: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestSaveConfigFileRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Unsplash.AccessKey = "saved-key"
	cfg.Unsplash.Timeout = 30 * time.Second
	cfg.UI.GridColumns = 2
	cfg.Viewer.Command = "feh"
	cfg.Viewer.Args = []string{"--scale-down"}

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfigFile(cfg, path))

	loaded, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "saved-key", loaded.Unsplash.AccessKey)
	assert.Equal(t, 30*time.Second, loaded.Unsplash.Timeout)
	assert.Equal(t, 2, loaded.UI.GridColumns)
	assert.Equal(t, "feh", loaded.Viewer.Command)
	assert.Equal(t, []string{"--scale-down"}, loaded.Viewer.Args)
}

func TestClearCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snapgrid.db"), []byte("x"), 0644))

	require.NoError(t, ClearCache(dir))
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine
	assert.NoError(t, ClearCache(dir))
}
