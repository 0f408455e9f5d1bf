package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strataconf/strata"
)

// errNoMatch signals a clean "not found" exit without an error banner.
var errNoMatch = errors.New("no match")

func newGetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value at a dotted key as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.buildConfig()
			if err != nil {
				return err
			}
			v, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
}

func newExistsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exists KEY",
		Short: "Exit 0 if the dotted key resolves, 1 otherwise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.buildConfig()
			if err != nil {
				return err
			}
			if cfg.Contains(args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), "true")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "false")
			cmd.SilenceErrors = true
			return errNoMatch
		},
	}
}

func newSearchCommand(opts *rootOptions) *cobra.Command {
	var keyPat, valPat string
	var ignoreCase bool

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search keys and values by glob, regex or exact pattern",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyPat == "" && valPat == "" {
				return fmt.Errorf("supply --key or --val")
			}
			cfg, err := opts.buildConfig()
			if err != nil {
				return err
			}

			found := make(map[string]any)
			for k, v := range cfg.Flat() {
				if keyPat != "" && !matchPattern(keyPat, k, ignoreCase) {
					continue
				}
				if valPat != "" && !matchPattern(valPat, fmt.Sprintf("%v", v), ignoreCase) {
					continue
				}
				found[k] = v
			}

			if len(found) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches")
				cmd.SilenceErrors = true
				return errNoMatch
			}
			return printJSON(cmd.OutOrStdout(), found)
		},
	}

	cmd.Flags().StringVar(&keyPat, "key", "", "pattern for keys (glob, regex or plain)")
	cmd.Flags().StringVar(&valPat, "val", "", "pattern for values (glob, regex or plain)")
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "case-insensitive matching")

	return cmd
}

func newDumpCommand(opts *rootOptions) *cobra.Command {
	var withProvenance bool

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Pretty-print the entire resolved config as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.buildConfig()
			if err != nil {
				return err
			}
			if withProvenance {
				return printJSON(cmd.OutOrStdout(), cfg.ProvenanceDump())
			}
			return printJSON(cmd.OutOrStdout(), cfg.Map())
		},
	}

	cmd.Flags().BoolVar(&withProvenance, "provenance", false, "print value sources instead of values")

	return cmd
}

// matchPattern tries glob first, then regex, then exact match. Glob
// when the pattern carries *, ? or brackets; regex when it carries
// regex metacharacters; plain equality otherwise.
func matchPattern(pattern, text string, ignoreCase bool) bool {
	if ignoreCase {
		pattern = strings.ToLower(pattern)
		text = strings.ToLower(text)
	}
	if strings.ContainsAny(pattern, "*?[]") {
		ok, err := path.Match(pattern, text)
		return err == nil && ok
	}
	if strings.ContainsAny(pattern, `.+^$(){}|\`) {
		re, err := regexp.Compile(pattern)
		return err == nil && re.MatchString(text)
	}
	return pattern == text
}

// printJSON writes a value as indented JSON. Config sections export to
// plain maps first.
func printJSON(w io.Writer, v any) error {
	if t, ok := v.(*strata.Tree); ok {
		v = t.Map()
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
