package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the CLI with the given arguments against a fresh
// command tree, capturing stdout. Tests pass -q so pipeline logging
// stays out of stderr.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test", "none", "local")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeTestConfig lays down the fixture file most command tests load.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.toml")
	content := "[server]\nhost = \"localhost\"\nport = 8080\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestVersionFlag(t *testing.T) {
	out, err := runCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "test (commit: none, built: local)")
}

func TestSettingsFromEnvironment(t *testing.T) {
	t.Run("Environment Seeds The Config Flag", func(t *testing.T) {
		path := writeTestConfig(t)
		t.Setenv("STRATA_CONFIG", path)

		out, err := runCommand(t, "-q", "get", "server.port")
		require.NoError(t, err)
		assert.Equal(t, "8080\n", out)
	})

	t.Run("Flags Beat The Environment", func(t *testing.T) {
		ignored := writeTestConfig(t)
		t.Setenv("STRATA_CONFIG", ignored)

		other := filepath.Join(t.TempDir(), "other.toml")
		require.NoError(t, os.WriteFile(other, []byte("winner = true\n"), 0644))

		out, err := runCommand(t, "-q", "-c", other, "get", "winner")
		require.NoError(t, err)
		assert.Equal(t, "true\n", out)
	})

	t.Run("Format Default Comes From The Environment", func(t *testing.T) {
		path := writeTestConfig(t)
		t.Setenv("STRATA_FORMAT", "yaml")

		out, err := runCommand(t, "-q", "-c", path, "convert")
		require.NoError(t, err)
		assert.Contains(t, out, "port: 8080")
	})
}
