package main

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/strataconf/strata"
)

// settings are the tool's own knobs, read from STRATA_* environment
// variables. They seed the flag defaults, so the precedence is flag,
// then environment, then built-in default.
type settings struct {
	Config  string `env:"CONFIG"`
	Prefix  string `env:"PREFIX"`
	EnvFile string `env:"ENV_FILE"`
	Format  string `env:"FORMAT"`
	Verbose bool   `env:"VERBOSE"`
	Quiet   bool   `env:"QUIET"`
}

// defaultSettings returns the built-in fallbacks merged below
// environment values.
func defaultSettings() settings {
	return settings{Format: "json"}
}

// loadSettings resolves the tool's settings from the environment over
// the built-in defaults.
func loadSettings() (settings, error) {
	var s settings
	if err := env.ParseWithOptions(&s, env.Options{Prefix: "STRATA_"}); err != nil {
		return s, fmt.Errorf("failed to parse STRATA_* environment settings: %w", err)
	}
	if err := mergo.Merge(&s, defaultSettings()); err != nil {
		return s, fmt.Errorf("failed to apply default settings: %w", err)
	}
	return s, nil
}

// rootOptions carries the persistent flag values shared by every
// subcommand.
type rootOptions struct {
	configFile string
	prefix     string
	overrides  string
	envFile    string
	mandatory  []string
	verbose    bool
	quiet      bool
}

// logger builds the console logger the resolution pipeline traces to.
func (o *rootOptions) logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if o.verbose {
		level = zerolog.DebugLevel
	}
	if o.quiet {
		level = zerolog.Disabled
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// buildConfig resolves a configuration from the persistent flags.
// Provenance is always tracked so dump --provenance has data.
func (o *rootOptions) buildConfig() (*strata.Config, error) {
	b := strata.NewBuilder().
		WithLogger(o.logger()).
		WithProvenance()
	if o.configFile != "" {
		b.WithFile(o.configFile)
	}
	if o.prefix != "" {
		b.WithEnvPrefix(o.prefix)
	}
	if o.envFile != "" {
		b.WithDotenvFile(o.envFile)
	}
	if o.overrides != "" {
		b.WithOverrides(strata.ParseOverrides(o.overrides))
	}
	if len(o.mandatory) > 0 {
		b.WithMandatory(o.mandatory...)
	}
	return b.Build()
}

func NewRootCommand(version, commit, date string) *cobra.Command {
	opts := &rootOptions{}
	defaults, settingsErr := loadSettings()

	rootCmd := &cobra.Command{
		Use:   "strata",
		Short: "Inspect and mutate layered configs via dot-notation",
		Long: `Strata resolves configuration from defaults, TOML/JSON/YAML files,
dotenv-augmented environment variables and command-line overrides,
then lets you query the result with dotted keys.

Load a file (-c config.toml), then run subcommands:
  get KEY, set KEY VALUE, exists KEY,
  search [--key PAT] [--val PAT] [-i], dump, convert`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return settingsErr
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", defaults.Config, "TOML, JSON or YAML config file to load")
	pf.StringVarP(&opts.prefix, "prefix", "p", defaults.Prefix, "env-var prefix for overrides")
	pf.StringVar(&opts.overrides, "overrides", "", "comma-separated key:value override pairs")
	pf.StringVar(&opts.envFile, "env-file", defaults.EnvFile, "dotenv file to union into the environment")
	pf.StringSliceVar(&opts.mandatory, "mandatory", nil, "mandatory dotted keys")
	pf.BoolVarP(&opts.verbose, "verbose", "v", defaults.Verbose, "enable debug logging")
	pf.BoolVarP(&opts.quiet, "quiet", "q", defaults.Quiet, "silence all logging")

	// Add subcommands
	rootCmd.AddCommand(
		newGetCommand(opts),
		newSetCommand(opts),
		newExistsCommand(opts),
		newSearchCommand(opts),
		newDumpCommand(opts),
		newConvertCommand(opts, defaults.Format),
	)

	return rootCmd
}
