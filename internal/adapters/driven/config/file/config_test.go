package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_MissingFile tests that a missing file yields defaults.
func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 4, cfg.Jobs.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
}

// TestLoad_File tests parsing and default filling.
func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir = "/var/lib/jane"

[watch_dirs]
stationxml = "/srv/drop/station"
quakeml = "/srv/drop/events"

[jobs]
workers = 8

[fdsn]
source = "XYZ"

[log]
level = "debug"
pretty = true
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/jane", cfg.DataDir)
	assert.Equal(t, "/srv/drop/station", cfg.WatchDirs["stationxml"])
	assert.Equal(t, "/srv/drop/events", cfg.WatchDirs["quakeml"])
	assert.Equal(t, 8, cfg.Jobs.Workers)
	assert.Equal(t, 10*time.Second, cfg.Jobs.PollTimeout)
	assert.Equal(t, "XYZ", cfg.FDSN.Source)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

// TestLoad_ClampsWorkers tests that nonsense worker counts are fixed.
func TestLoad_ClampsWorkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[jobs]\nworkers = -2\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Jobs.Workers)
}

// TestLoad_Invalid tests the parse error path.
func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir = [broken"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

// TestSaveRoundTrip tests that Save output loads back identically.
func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	want := Default()
	want.DataDir = "/tmp/jane"
	want.WatchDirs = map[string]string{"quakeml": "/drop"}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
