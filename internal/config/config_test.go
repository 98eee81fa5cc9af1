package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config is written on first run")

	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, DriverDuckDB, cfg.Storage.Driver)
	assert.Equal(t, filepath.Join(dir, "conf", "data", "ingest.duckdb"), cfg.Storage.DuckDBPath)
	assert.Equal(t, filepath.Join(dir, "conf", "data", "spool"), cfg.Storage.SpoolDirectory)
	assert.Equal(t, "0.0.0.0:8089", cfg.GetServerAddr())

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
ingest:
  default_category: widgets
log:
  format: json
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "widgets", cfg.Ingest.DefaultCategory)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 500, cfg.Ingest.ContextLimit)
	assert.Equal(t, ArchiveLocal, cfg.Archive.Driver)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("INGEST_PORT", "7070")
	t.Setenv("INGEST_STORAGE_DRIVER", "postgres")
	t.Setenv("INGEST_POSTGRES_URL", "postgres://u:p@localhost:5432/ingest")
	t.Setenv("INGEST_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://u:p@localhost:5432/ingest", cfg.Storage.PostgresURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad port", yaml: "server:\n  port: 70000\n"},
		{name: "unknown driver", yaml: "storage:\n  driver: mongo\n"},
		{name: "postgres without url", yaml: "storage:\n  driver: postgres\n"},
		{name: "minio without endpoint", yaml: "archive:\n  driver: minio\n"},
		{name: "zero context limit", yaml: "ingest:\n  context_limit: 0\n"},
		{name: "bad log level", yaml: "log:\n  level: loud\n"},
		{name: "malformed yaml", yaml: "server: [\n"},
		{name: "bad env port", yaml: "", env: map[string]string{"INGEST_PORT": "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.resolvePaths(dir)

	require.NoError(t, cfg.EnsureDirectories())
	for _, d := range []string{cfg.Storage.DataDirectory, cfg.Storage.SpoolDirectory, cfg.Archive.Directory} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "1h0m0s", cfg.JobRetention().String())
	assert.Equal(t, "5m0s", cfg.CleanupInterval().String())
}
