package strata

import (
	"errors"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Source labels attributed by the pipeline stages.
const (
	labelDefaults  = "defaults"
	labelOverrides = "overrides_dict"
)

func labelAppDefaults(name string) string {
	return "app_defaults:" + name
}

func labelFile(path string) string {
	return "file:" + path
}

func labelEnv(kind, prefix string) string {
	norm := strings.TrimRight(prefix, "_")
	if norm == "" {
		return kind + ":*"
	}
	return kind + ":" + norm + "_*"
}

// Config is the result of a resolution: the merged tree plus the
// registered application names and, when tracking is on, the
// provenance ledger. The tree methods are promoted, so values read
// directly off the Config.
type Config struct {
	*Tree
	ledger *Ledger
	apps   []string
}

// resolve folds every declared source into one tree. The stage order
// is fixed: defaults, application defaults, files, environment,
// application environment, overrides, then mandatory-key validation.
func (b *Builder) resolve() (*Config, error) {
	log := b.logger
	led := newLedger(b.provenance)
	root := NewTree()

	if b.defaults != nil {
		mergeTrees(root, FromMap(b.defaults), "", labelDefaults, led)
		log.Debug().Int("keys", len(b.defaults)).Msg("applied global defaults")
	}

	for _, app := range b.apps {
		if app.defaults == nil {
			continue
		}
		layer := NewTree()
		layer.put(app.name, FromMap(app.defaults))
		mergeTrees(root, layer, "", labelAppDefaults(app.name), led)
		log.Debug().Str("app", app.name).Msg("applied application defaults")
	}

	for _, f := range b.files {
		layer, err := LoadFile(f.path)
		if err != nil {
			if f.optional && errors.Is(err, ErrFileNotFound) {
				log.Warn().Str("path", f.path).Msg("optional config file not found, skipping")
				continue
			}
			return nil, err
		}
		if f.namespace != "" {
			layer = applyNamespace(layer, f.namespace)
		}
		mergeTrees(root, layer, "", labelFile(f.path), led)
		log.Debug().Str("path", f.path).Msg("merged config file")
	}

	var environ map[string]string
	if b.envOn || b.anyAppPrefix() {
		environ = b.environment(log)
	}

	if b.envOn {
		layer := MapEnv(environ, b.envPrefix, root)
		if layer.Len() > 0 {
			mergeTrees(root, layer, "", labelEnv("env", b.envPrefix), led)
		}
		log.Debug().Str("prefix", b.envPrefix).Int("keys", layer.Len()).Msg("merged environment variables")
	}

	for _, app := range b.apps {
		if !app.hasPrefix {
			continue
		}
		ref, _ := root.values[app.name].(*Tree)
		sub := MapEnv(environ, app.prefix, ref)
		if sub.Len() == 0 {
			continue
		}
		layer := NewTree()
		layer.put(app.name, sub)
		mergeTrees(root, layer, "", labelEnv("app_env", app.prefix), led)
		log.Debug().Str("app", app.name).Str("prefix", app.prefix).Msg("merged application environment variables")
	}

	if len(b.overrides) > 0 {
		keys := make([]string, 0, len(b.overrides))
		for k := range b.overrides {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			kp, err := ParseKeyPath(k)
			if err != nil {
				return nil, err
			}
			v := b.overrides[k]
			if s, ok := v.(string); ok {
				v = ParseLiteral(s)
			} else {
				v = normalizeValue(v)
			}
			if err := root.setPath(kp, v, false); err != nil {
				return nil, err
			}
			recordLeaves(led, k, labelOverrides, v)
		}
		log.Debug().Int("keys", len(keys)).Msg("applied overrides")
	}

	if len(b.mandatory) > 0 {
		var missing []string
		for _, key := range b.mandatory {
			if !root.Contains(key) {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			log.Error().Strs("keys", missing).Msg("mandatory configuration keys missing")
			return nil, &MissingKeysError{Missing: missing}
		}
	}

	apps := make([]string, 0, len(b.apps))
	for _, app := range b.apps {
		apps = append(apps, app.name)
	}

	return &Config{Tree: root, ledger: led, apps: apps}, nil
}

// environment assembles the variable snapshot both env stages read:
// the process environment (or its test replacement) unioned with any
// dotenv sources. A variable already defined is never displaced by
// dotenv content.
func (b *Builder) environment(log zerolog.Logger) map[string]string {
	var env map[string]string
	if b.environ != nil {
		env = make(map[string]string, len(b.environ))
		for k, v := range b.environ {
			env[k] = v
		}
	} else {
		env = snapshotEnv()
	}

	paths := append([]string(nil), b.dotenvFiles...)
	if b.dotenvWalk {
		if found := findDotenv("."); found != "" {
			paths = append(paths, found)
		} else {
			log.Debug().Msg("no .env file found")
		}
	}
	for _, path := range paths {
		vars, err := readDotenv(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to read dotenv file, skipping")
			continue
		}
		unionEnv(env, vars)
		log.Debug().Str("path", path).Int("vars", len(vars)).Msg("unioned dotenv file")
	}
	if len(b.dotenvVars) > 0 {
		unionEnv(env, b.dotenvVars)
	}
	return env
}

func (b *Builder) anyAppPrefix() bool {
	for _, app := range b.apps {
		if app.hasPrefix {
			return true
		}
	}
	return false
}

// applyNamespace re-roots a file layer under a namespace. A top-level
// section already named for the namespace is used as-is and its
// siblings are discarded; the same applies one level down under a
// "tool" table, following the pyproject convention. Otherwise the
// whole layer nests under the namespace.
func applyNamespace(layer *Tree, namespace string) *Tree {
	out := NewTree()
	if sub, ok := layer.values[namespace].(*Tree); ok {
		out.put(namespace, sub)
		return out
	}
	if tool, ok := layer.values["tool"].(*Tree); ok {
		if sub, ok := tool.values[namespace].(*Tree); ok {
			out.put(namespace, sub)
			return out
		}
	}
	out.put(namespace, layer)
	return out
}

// Apps returns the application names registered with the builder, in
// declaration order.
func (c *Config) Apps() []string {
	out := make([]string, len(c.apps))
	copy(out, c.apps)
	return out
}

// Ledger exposes the provenance ledger. It is non-nil even when
// tracking was off; check Enabled before relying on its content.
func (c *Config) Ledger() *Ledger {
	return c.ledger
}

// Provenance returns the current source entry for a leaf key.
func (c *Config) Provenance(key string) (Entry, bool) {
	return c.ledger.Current(key)
}

// ProvenanceHistory returns every recorded entry for a leaf key,
// oldest first, with the winning entry last.
func (c *Config) ProvenanceHistory(key string) []Entry {
	return c.ledger.History(key)
}

// ProvenanceDump maps every tracked leaf key to its current source
// label.
func (c *Config) ProvenanceDump() map[string]string {
	return c.ledger.Dump()
}

// SourcesSummary counts tracked leaf keys per source category.
func (c *Config) SourcesSummary() map[string]int {
	return c.ledger.Summary()
}
