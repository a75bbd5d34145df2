package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: \"http://api.test\"\ndisplay:\n  timezone: \"UTC\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://api.test", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 30, cfg.API.AlertsLimit)
	assert.Equal(t, "OPEN", cfg.API.AlertsStatus)
	assert.Equal(t, 200, cfg.API.AssetsLimit)
	assert.Equal(t, 100, cfg.API.HistoryLimit)
	assert.Equal(t, 15000, cfg.Polling.ShellSummaryMs)
	assert.Equal(t, 30000, cfg.Polling.HistoryMs)
	assert.Equal(t, 5000, cfg.Console.SuccessDismissMs)
	assert.Equal(t, 6000, cfg.Console.ErrorDismissMs)
	assert.Equal(t, time.UTC, cfg.Display.Location)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
}

func TestLoad_BadTimezone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("display:\n  timezone: \"Mars/Olympus\"\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEvery(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, Every(1500))
}
