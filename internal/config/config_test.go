package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LOUPEBOX_DB_DRIVER", "LOUPEBOX_DB_PATH", "DATABASE_URL",
		"LOUPEBOX_EXTENSIONS", "LOUPEBOX_LOG_LEVEL",
		"LOUPEBOX_S3_ENDPOINT", "LOUPEBOX_S3_BUCKET", "LOUPEBOX_S3_USE_SSL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: sqlite3
  path: /tmp/library.db
scan:
  extensions: [.jpg, .webp]
archive:
  endpoint: localhost:9000
  use_ssl: false
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/library.db", cfg.Database.Path)
	assert.Equal(t, []string{".jpg", ".webp"}, cfg.Scan.Extensions)
	assert.Equal(t, "localhost:9000", cfg.Archive.Endpoint)
	assert.False(t, cfg.Archive.UseSSL)
	assert.Equal(t, "loupebox", cfg.Archive.Bucket)

	t.Setenv("LOUPEBOX_DB_PATH", "/elsewhere.db")
	t.Setenv("LOUPEBOX_EXTENSIONS", "jpg, ,cr2")
	t.Setenv("LOUPEBOX_S3_USE_SSL", "true")

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere.db", cfg.Database.Path)
	assert.Equal(t, []string{"jpg", "cr2"}, cfg.Scan.Extensions)
	assert.True(t, cfg.Archive.UseSSL)
}

func TestLoadRejectsBadInput(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("database: [unclosed"), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	t.Setenv("LOUPEBOX_DB_DRIVER", "mysql")
	_, err = Load("")
	assert.ErrorContains(t, err, "unknown database driver")

	t.Setenv("LOUPEBOX_DB_DRIVER", "postgres")
	_, err = Load("")
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/photos")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), Dir, "config.yaml")

	want := Default()
	want.Scan.Extensions = []string{".nef"}
	require.NoError(t, want.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
