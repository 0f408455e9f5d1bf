// Package strata resolves layered application configuration into a
// single dot-addressable tree. Sources fold in a fixed precedence
// order: defaults, per-application defaults, TOML/JSON/YAML files,
// dotenv-augmented environment variables, per-application environment
// prefixes, and final overrides.
//
// Features:
//   - Multiple configuration files with deep merging and namespacing
//   - Environment variable mapping with reference-guided key remapping
//   - Per-application namespaces with isolated env prefixes
//   - JSON-style type coercion for env and override values
//   - Builder pattern for pipeline assembly
//   - Provenance tracking to see where every value originated
//   - Mandatory-key validation with a complete missing list
//   - Struct scanning with weakly typed decoding
//
// Quick Start:
//
//	defaults := map[string]any{
//	    "server": map[string]any{
//	        "host": "localhost",
//	        "port": 8080,
//	    },
//	}
//
//	cfg, err := strata.Quick(defaults, "MYAPP", "config.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	host, _ := cfg.String("server.host")
//	port, _ := cfg.Int64("server.port")
//
// Precedence (highest to lowest):
//  1. Overrides (WithOverrides, dotted keys)
//  2. Per-application environment variables (MYAPP_SERVER_PORT=9090)
//  3. Environment variables, unioned with dotenv files
//  4. Configuration files, later files over earlier ones
//  5. Per-application defaults
//  6. Default values
//
// Full pipelines are assembled with the Builder:
//
//	cfg, err := strata.NewBuilder().
//	    WithDefaults(defaults).
//	    WithFile("base.toml").
//	    WithOptionalFile("local.toml").
//	    WithEnvPrefix("MYAPP").
//	    WithMandatory("server.host").
//	    WithProvenance().
//	    Build()
//
// Concurrency:
// Resolution is single-threaded; the resulting Config is safe for
// concurrent reads once handed out. Guard it externally if any
// goroutine mutates it afterwards.
package strata
