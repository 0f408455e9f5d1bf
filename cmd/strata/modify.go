package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strataconf/strata"
)

func newSetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a dotted key in the source file and write it back",
		Long: `Set parses VALUE as a JSON literal (falling back to a raw string),
assigns it at KEY inside the loaded config file, and writes the file
back in its own format. Only the file changes; environment variables
and overrides are not consulted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.configFile == "" {
				return fmt.Errorf("--config must be provided for set")
			}
			tree, err := strata.LoadFile(opts.configFile)
			if err != nil {
				return err
			}
			value := strata.ParseLiteral(args[1])
			if err := tree.Set(args[0], value); err != nil {
				return err
			}
			if err := tree.Save(opts.configFile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v in %s\n", args[0], value, opts.configFile)
			return nil
		},
	}
}

func newConvertCommand(opts *rootOptions, defaultFormat string) *cobra.Command {
	var format, outFile string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert the resolved config to TOML, JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.buildConfig()
			if err != nil {
				return err
			}
			data, err := cfg.Marshal(format)
			if err != nil {
				return err
			}
			if outFile != "" {
				if err := os.WriteFile(outFile, data, 0644); err != nil {
					return fmt.Errorf("failed to write %q: %w", outFile, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s to %s\n", strings.ToUpper(format), outFile)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "to", defaultFormat, "output format: toml, json or yaml")
	cmd.Flags().StringVar(&outFile, "out", "", "write to file instead of stdout")

	return cmd
}
