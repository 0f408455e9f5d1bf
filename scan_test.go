package strata_test

import (
	"net"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataconf/strata"
)

type serverSettings struct {
	Host    string        `strata:"host"`
	Port    int           `strata:"port"`
	Timeout time.Duration `strata:"timeout"`
	Debug   bool          `strata:"debug"`
	Workers int
}

func TestScan(t *testing.T) {
	t.Run("Decodes A Section", func(t *testing.T) {
		tree := strata.FromMap(map[string]any{
			"server": map[string]any{
				"host":    "localhost",
				"port":    8080,
				"timeout": "1m30s",
				"debug":   true,
				"workers": 4,
			},
		})

		var s serverSettings
		require.NoError(t, tree.Scan("server", &s))

		assert.Equal(t, "localhost", s.Host)
		assert.Equal(t, 8080, s.Port)
		assert.Equal(t, 90*time.Second, s.Timeout)
		assert.True(t, s.Debug)
		assert.Equal(t, 4, s.Workers)
	})

	t.Run("Empty Path Scans The Whole Tree", func(t *testing.T) {
		tree := strata.FromMap(map[string]any{"host": "top", "port": 9090})

		var s serverSettings
		require.NoError(t, tree.Scan("", &s))
		assert.Equal(t, "top", s.Host)
		assert.Equal(t, 9090, s.Port)
	})

	t.Run("Weak Typing Converts Strings", func(t *testing.T) {
		tree := strata.FromMap(map[string]any{
			"port":  "8080",
			"debug": "true",
		})

		var s serverSettings
		require.NoError(t, tree.Scan("", &s))
		assert.Equal(t, 8080, s.Port)
		assert.True(t, s.Debug)
	})

	t.Run("Nested Structs", func(t *testing.T) {
		type dbSettings struct {
			DSN  string `strata:"dsn"`
			Pool struct {
				Size int `strata:"size"`
			} `strata:"pool"`
		}
		tree := strata.FromMap(map[string]any{
			"db": map[string]any{
				"dsn":  "postgres://local",
				"pool": map[string]any{"size": 5},
			},
		})

		var s dbSettings
		require.NoError(t, tree.Scan("db", &s))
		assert.Equal(t, "postgres://local", s.DSN)
		assert.Equal(t, 5, s.Pool.Size)
	})

	t.Run("Network And URL Fields", func(t *testing.T) {
		type netSettings struct {
			Bind     net.IP     `strata:"bind"`
			Allow    net.IPNet  `strata:"allow"`
			AllowPtr *net.IPNet `strata:"allow_ptr"`
			Endpoint url.URL    `strata:"endpoint"`
			Mirror   *url.URL   `strata:"mirror"`
		}
		tree := strata.FromMap(map[string]any{
			"bind":      "127.0.0.1",
			"allow":     "10.0.0.0/8",
			"allow_ptr": "192.168.0.0/16",
			"endpoint":  "https://example.com/path",
			"mirror":    "https://mirror.example.com",
		})

		var s netSettings
		require.NoError(t, tree.Scan("", &s))

		assert.Equal(t, net.ParseIP("127.0.0.1"), s.Bind)
		assert.Equal(t, "10.0.0.0/8", s.Allow.String())
		require.NotNil(t, s.AllowPtr)
		assert.Equal(t, "192.168.0.0/16", s.AllowPtr.String())
		assert.Equal(t, "example.com", s.Endpoint.Host)
		assert.Equal(t, "https", s.Endpoint.Scheme)
		require.NotNil(t, s.Mirror)
		assert.Equal(t, "mirror.example.com", s.Mirror.Host)
	})

	t.Run("Invalid Address Is An Error", func(t *testing.T) {
		type netSettings struct {
			Bind net.IP `strata:"bind"`
		}
		tree := strata.FromMap(map[string]any{"bind": "not-an-ip"})

		var s netSettings
		err := tree.Scan("", &s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid IP address")
	})

	t.Run("Timestamps Parse As RFC3339", func(t *testing.T) {
		type jobSettings struct {
			NotBefore time.Time `strata:"not_before"`
		}
		tree := strata.FromMap(map[string]any{"not_before": "2026-01-02T15:04:05Z"})

		var s jobSettings
		require.NoError(t, tree.Scan("", &s))
		assert.Equal(t, time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC), s.NotBefore)
	})

	t.Run("Comma Strings Fill Slices", func(t *testing.T) {
		type tagSettings struct {
			Tags []string `strata:"tags"`
		}
		tree := strata.FromMap(map[string]any{"tags": "a,b,c"})

		var s tagSettings
		require.NoError(t, tree.Scan("", &s))
		assert.Equal(t, []string{"a", "b", "c"}, s.Tags)
	})

	t.Run("Input Replaces Prefilled Fields", func(t *testing.T) {
		tree := strata.FromMap(map[string]any{"host": "new"})

		s := serverSettings{Host: "old", Port: 1}
		require.NoError(t, tree.Scan("", &s))
		assert.Equal(t, "new", s.Host)
		// Port was not in the input and keeps its prior value.
		assert.Equal(t, 1, s.Port)
	})

	t.Run("Missing Path Leaves A Fresh Target Zeroed", func(t *testing.T) {
		tree := strata.FromMap(map[string]any{"other": 1})

		var s serverSettings
		require.NoError(t, tree.Scan("absent.section", &s))
		assert.Equal(t, serverSettings{}, s)
	})

	t.Run("Leaf Path Is An Error", func(t *testing.T) {
		tree := strata.FromMap(map[string]any{"server": map[string]any{"host": "x"}})

		var s serverSettings
		err := tree.Scan("server.host", &s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-section")
	})

	t.Run("Target Must Be A Non Nil Pointer", func(t *testing.T) {
		tree := strata.FromMap(map[string]any{"host": "x"})

		var s serverSettings
		require.Error(t, tree.Scan("", s))

		var p *serverSettings
		require.Error(t, tree.Scan("", p))
	})
}

func TestBuildAndScan(t *testing.T) {
	t.Run("Resolves Then Decodes", func(t *testing.T) {
		var s serverSettings
		err := strata.NewBuilder().
			WithDefaults(map[string]any{
				"host":    "localhost",
				"port":    8000,
				"timeout": "30s",
			}).
			WithEnvPrefix("APP").
			WithEnvironment(map[string]string{"APP_PORT": "9000"}).
			BuildAndScan(&s)
		require.NoError(t, err)

		assert.Equal(t, "localhost", s.Host)
		assert.Equal(t, 9000, s.Port)
		assert.Equal(t, 30*time.Second, s.Timeout)
	})

	t.Run("Build Errors Propagate", func(t *testing.T) {
		var s serverSettings
		err := strata.NewBuilder().
			WithFile(filepath.Join(t.TempDir(), "absent.toml")).
			BuildAndScan(&s)
		require.Error(t, err)
		assert.ErrorIs(t, err, strata.ErrFileNotFound)
	})
}
