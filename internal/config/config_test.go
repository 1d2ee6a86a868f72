package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, "https://v3.openstates.org", cfg.OpenStates.BaseURL)
	assert.Equal(t, 10, cfg.OpenStates.RequestsPerMinute)
	assert.Equal(t, 65*time.Second, cfg.OpenStates.RateLimitPause())
	assert.Equal(t, "openstates", cfg.Coverage.Lookup)
	assert.InDelta(t, 0.01, cfg.Coverage.SimplifyTolerance, 1e-9)
	assert.Equal(t, time.Hour, cfg.Coverage.CacheTTL())
	assert.InDelta(t, 80, cfg.Votes.FuzzyThreshold, 1e-9)
	assert.Equal(t, 20, cfg.Bills.PerPage)
	assert.Equal(t, 2024, cfg.Census.Year)
	assert.Equal(t, 119, cfg.Census.Congress)
	assert.Equal(t, 5050, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)

	cutoff, err := cfg.Bills.Cutoff()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC), cutoff)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
coverage:
  lookup: postgis
  flush_every: 5
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgis", cfg.Coverage.Lookup)
	assert.Equal(t, 5, cfg.Coverage.FlushEvery)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 500, cfg.Coverage.PageSize)
}

func TestLoadEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "postgres://civics@localhost/civics")
	t.Setenv("PLURAL_API_KEY", "key-123")
	t.Setenv("CIVICS_SERVER_PORT", "7070")
	t.Setenv("CIVICS_VOTES_FUZZY_THRESHOLD", "90")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://civics@localhost/civics", cfg.Database.URL)
	assert.Equal(t, "key-123", cfg.OpenStates.APIKey)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.InDelta(t, 90, cfg.Votes.FuzzyThreshold, 1e-9)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("CIVICS_CENSUS_DATA_DIR=/srv/tiger\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("CIVICS_CENSUS_DATA_DIR") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/tiger", cfg.Census.DataDir)
}

func TestBillsCutoffRejectsGarbage(t *testing.T) {
	_, err := BillsConfig{DefaultCutoff: "last fall"}.Cutoff()
	require.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.Error(t, InitLogger(LogConfig{Level: "loud"}))
}
