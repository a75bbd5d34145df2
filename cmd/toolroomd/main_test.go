package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "api:\n  base_url: \"http://yaml:8000\"\ndisplay:\n  timezone: \"UTC\"\n")
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DATABASE_URL", "sqlite::memory:")
	t.Setenv("TOOLROOM_API_URL", "http://env:9000")

	a := &app{}
	require.NoError(t, a.load())
	assert.Equal(t, "sqlite::memory:", a.cfg.Database.DSN)
	assert.Equal(t, "http://env:9000", a.cfg.API.BaseURL)
	assert.Equal(t, 15000, a.cfg.Polling.ShellSummaryMs)
}

func TestLoad_FlagWinsOverEnvironment(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	path := writeConfig(t, "server:\n  port: 9191\ndisplay:\n  timezone: \"UTC\"\n")

	a := &app{configPath: path}
	require.NoError(t, a.load())
	assert.Equal(t, 9191, a.cfg.Server.Port)
}

func TestMigrateCommand(t *testing.T) {
	path := writeConfig(t, "display:\n  timezone: \"UTC\"\n")
	t.Setenv("DATABASE_URL", "sqlite::memory:")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "--config", path})
	cmd.SetOut(&bytes.Buffer{})
	assert.NoError(t, cmd.Execute())
}

func TestScanCommand_RejectsBadMode(t *testing.T) {
	path := writeConfig(t, "display:\n  timezone: \"UTC\"\n")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"scan", "--config", path, "--no-journal", "--mode", "lend", "--worker", "W", "--asset", "A"})
	cmd.SetOut(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
