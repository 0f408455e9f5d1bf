package strata_test

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataconf/strata"
)

func TestParseOverrides(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want map[string]any
	}{
		{"Single Pair", "server.port:8080", map[string]any{"server.port": int64(8080)}},
		{"Multiple Pairs", "a:1,b:true,c:hello", map[string]any{"a": int64(1), "b": true, "c": "hello"}},
		{"First Colon Splits", "url:https://example.com", map[string]any{"url": "https://example.com"}},
		{"Whitespace Is Trimmed", " a : 1 , b : x ", map[string]any{"a": int64(1), "b": "x"}},
		{"Colonless Pairs Are Ignored", "a:1,garbage,b:2", map[string]any{"a": int64(1), "b": int64(2)}},
		{"Empty Input", "", map[string]any{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, strata.ParseOverrides(tc.in))
		})
	}
}

func TestFromFlags(t *testing.T) {
	t.Run("Builds From Arguments", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfigFile(t, dir, "app.toml", "[server]\nhost = \"from-file\"\n")

		cfg, err := strata.FromFlags(
			[]string{"--config", path, "--overrides", "server.port:9999"},
			map[string]any{"server": map[string]any{"host": "default", "port": 8000}},
		)
		require.NoError(t, err)

		assert.Equal(t, "from-file", cfg.GetDefault("server.host", nil))
		assert.Equal(t, int64(9999), cfg.GetDefault("server.port", nil))
	})

	t.Run("Unknown Flags Are Tolerated", func(t *testing.T) {
		cfg, err := strata.FromFlags(
			[]string{"--unknown", "x", "--overrides", "a:1"},
			nil,
		)
		require.NoError(t, err)
		assert.Equal(t, int64(1), cfg.GetDefault("a", nil))
	})

	t.Run("Prefix Reads The Process Environment", func(t *testing.T) {
		t.Setenv("FLAGTEST_EXTRA", "7")

		cfg, err := strata.FromFlags([]string{"--prefix", "FLAGTEST"}, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(7), cfg.GetDefault("extra", nil))
	})

	t.Run("Mandatory Keys Are Enforced", func(t *testing.T) {
		_, err := strata.FromFlags(nil, map[string]any{"a": 1}, "absent.key")
		require.Error(t, err)

		var merr *strata.MissingKeysError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, []string{"absent.key"}, merr.Missing)
	})

	t.Run("Missing Config File Fails", func(t *testing.T) {
		_, err := strata.FromFlags([]string{"--config", "/nonexistent/app.toml"}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, strata.ErrFileNotFound)
	})

	t.Run("Flag Parse Errors Surface", func(t *testing.T) {
		_, err := strata.FromFlags([]string{"--config"}, nil)
		require.Error(t, err)
	})
}

func TestFromFlagSet(t *testing.T) {
	t.Run("Shares A Flag Set With The Application", func(t *testing.T) {
		fs := pflag.NewFlagSet("app", pflag.ContinueOnError)
		workers := fs.Int("workers", 2, "worker count")
		strata.RegisterFlags(fs)

		require.NoError(t, fs.Parse([]string{"--workers", "8", "--overrides", "mode:fast"}))

		cfg, err := strata.FromFlagSet(fs, map[string]any{"mode": "slow"})
		require.NoError(t, err)

		assert.Equal(t, "fast", cfg.GetDefault("mode", nil))
		assert.Equal(t, 8, *workers)
	})
}
