package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())

	d, err := cfg.IntervalDuration()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack", "config.toml")
	cfg := DefaultConfig()
	cfg.General.Currency = "€"
	cfg.Budget.WarnPercent = 90
	cfg.Appearance.Theme = "tokyo-night"
	require.NoError(t, SaveTo(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[daemon]\ninterval = \"6h\"\n"), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "6h", cfg.Daemon.Interval)
	assert.Equal(t, "127.0.0.1:8642", cfg.Daemon.Addr)
	assert.Equal(t, 80.0, cfg.Budget.WarnPercent)
}

func TestBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[daemon\n"), 0o600))
	_, err := LoadFrom(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FINTRACK_DATA_DIR", "/tmp/ledger")
	t.Setenv("FINTRACK_CURRENCY", "£")
	t.Setenv("FINTRACK_WARN_PERCENT", "95")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ledger", cfg.General.DataDir)
	assert.Equal(t, "£", cfg.General.Currency)
	assert.Equal(t, 95.0, cfg.Budget.WarnPercent)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget.WarnPercent = 0
	cfg.Daemon.Interval = "soon"
	cfg.Appearance.Theme = "neon"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"warn_percent", "daemon interval", "appearance.theme", "logging.format"} {
		assert.Contains(t, err.Error(), want)
	}

	cfg = DefaultConfig()
	cfg.Daemon.Interval = "30s"
	assert.ErrorContains(t, cfg.Validate(), "at least 1m")
}
