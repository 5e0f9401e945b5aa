package config

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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
app:
  env: dev
  timezone: UTC
http:
  addr: ":9090"
postgres:
  dsn: postgres://u:p@localhost:5432/indent
catalogue:
  page_size: 25
  reload_debounce: 1s
export:
  requester_name: Aina
  sheet_columns: basic
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "postgres://u:p@localhost:5432/indent", cfg.Postgres.DSN)
	assert.Equal(t, 25, cfg.Catalogue.PageSize)
	assert.Equal(t, time.Second, cfg.Catalogue.ReloadDebounce)
	assert.Equal(t, "Aina", cfg.Export.RequesterName)
	assert.Equal(t, "basic", cfg.Export.SheetColumns)
	assert.True(t, cfg.Metrics.Enabled, "metrics default to enabled")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10, cfg.Catalogue.PageSize)
	assert.Equal(t, 300*time.Millisecond, cfg.Catalogue.ReloadDebounce)
	assert.Equal(t, "detailed", cfg.Export.SheetColumns)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("APP_POSTGRES_DSN", "postgres://env@db/indent")
	t.Setenv("APP_HTTP_ADDR", ":7070")

	path := writeConfig(t, `
postgres:
  dsn: postgres://file@db/indent
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env@db/indent", cfg.Postgres.DSN)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
}

func TestConfig_Location(t *testing.T) {
	var cfg Config
	cfg.App.Timezone = "Not/AZone"
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.App.Timezone = "UTC"
	assert.Equal(t, "UTC", cfg.Location().String())

	cfg.App.Timezone = "Local"
	assert.Equal(t, time.UTC, cfg.Location(), "Local has no name Postgres accepts")
}
