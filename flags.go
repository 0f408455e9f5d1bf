package strata

import (
	"strings"

	"github.com/spf13/pflag"
)

// RegisterFlags adds the standard configuration flags to a flag set:
// --config, --prefix and --overrides.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a TOML, JSON or YAML config file")
	fs.String("prefix", "", "environment variable prefix for overrides")
	fs.String("overrides", "", "comma-separated key:value override pairs")
}

// ParseOverrides splits a comma-separated list of key:value pairs into
// an overrides mapping. Values parse like environment values; pairs
// without a colon are ignored.
func ParseOverrides(s string) map[string]any {
	out := make(map[string]any)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = ParseLiteral(strings.TrimSpace(v))
	}
	return out
}

// FromFlags parses arguments with the standard flags and resolves a
// configuration from them. Unknown flags are tolerated so the helper
// can share argv with an application's own flag handling.
func FromFlags(args []string, defaults map[string]any, mandatory ...string) (*Config, error) {
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return FromFlagSet(fs, defaults, mandatory...)
}

// FromFlagSet resolves a configuration from an already parsed flag set
// carrying the standard flags.
func FromFlagSet(fs *pflag.FlagSet, defaults map[string]any, mandatory ...string) (*Config, error) {
	b := NewBuilder().WithDefaults(defaults).WithMandatory(mandatory...)

	if path, _ := fs.GetString("config"); path != "" {
		b.WithFile(path)
	}
	if prefix, _ := fs.GetString("prefix"); prefix != "" {
		b.WithEnvPrefix(prefix)
	}
	if overrides, _ := fs.GetString("overrides"); overrides != "" {
		b.WithOverrides(ParseOverrides(overrides))
	}

	return b.Build()
}
