package strata

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Quick resolves a configuration with a single call: defaults, an
// optional config file, and environment variables under the given
// prefix. This is the recommended way to initialize configuration for
// most applications; reach for the Builder when you need more layers.
func Quick(defaults map[string]any, envPrefix, configFile string) (*Config, error) {
	b := NewBuilder().WithDefaults(defaults)
	if configFile != "" {
		b.WithOptionalFile(configFile)
	}
	if envPrefix != "" {
		b.WithEnvPrefix(envPrefix)
	}
	return b.Build()
}

// MustQuick is like Quick but panics on error
func MustQuick(defaults map[string]any, envPrefix, configFile string) *Config {
	cfg, err := Quick(defaults, envPrefix, configFile)
	if err != nil {
		panic(fmt.Sprintf("config initialization failed: %v", err))
	}
	return cfg
}

// Debug returns a formatted listing of every leaf value, annotated
// with its winning source when provenance tracking is on.
func (c *Config) Debug() string {
	var b strings.Builder
	b.WriteString("Configuration Debug Info:\n")
	c.Walk(func(path string, value any) {
		if e, ok := c.Provenance(path); ok {
			fmt.Fprintf(&b, "  %s = %v <- %s\n", path, value, e.Source)
			return
		}
		fmt.Fprintf(&b, "  %s = %v\n", path, value)
	})
	return b.String()
}

// Dump writes the current configuration to stdout in TOML format
func (c *Config) Dump() error {
	encoder := toml.NewEncoder(os.Stdout)
	return encoder.Encode(c.Map())
}

// Clone creates a deep copy of the configuration. The provenance
// ledger is shared, since it describes the resolution rather than
// the copy.
func (c *Config) Clone() *Config {
	return &Config{Tree: c.Tree.Clone(), ledger: c.ledger, apps: c.Apps()}
}
