package strata

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Builder provides a fluent interface for assembling a resolution
// pipeline. Declaration order matters only within a source kind (files
// merge in the order given, app layers in the order their apps were
// first mentioned); across kinds the stage order is fixed regardless
// of call order.
type Builder struct {
	logger      zerolog.Logger
	defaults    map[string]any
	apps        []*appSpec
	files       []fileSource
	envPrefix   string
	envOn       bool
	dotenvWalk  bool
	dotenvFiles []string
	dotenvVars  map[string]string
	environ     map[string]string
	overrides   map[string]any
	mandatory   []string
	provenance  bool
	err         error
}

// appSpec collects everything declared for one named application.
type appSpec struct {
	name      string
	defaults  map[string]any
	prefix    string
	hasPrefix bool
}

// fileSource is one file layer: an optional source is skipped when the
// file does not exist, a namespaced one is re-rooted before merging.
type fileSource struct {
	path      string
	namespace string
	optional  bool
}

// NewBuilder creates a new pipeline builder. Logging is off until a
// logger is supplied.
func NewBuilder() *Builder {
	return &Builder{logger: zerolog.Nop()}
}

// WithLogger sets the logger used to trace resolution stages.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithDefaults sets the lowest-precedence global value layer.
func (b *Builder) WithDefaults(defaults map[string]any) *Builder {
	b.defaults = defaults
	return b
}

// WithAppDefaults sets the default values for a named application.
// They merge nested under the application name.
func (b *Builder) WithAppDefaults(name string, defaults map[string]any) *Builder {
	if app := b.app(name); app != nil {
		app.defaults = defaults
	}
	return b
}

// WithFile appends a required configuration file layer. A missing file
// fails the build with ErrFileNotFound.
func (b *Builder) WithFile(path string) *Builder {
	b.files = append(b.files, fileSource{path: path})
	return b
}

// WithOptionalFile appends a file layer that is skipped when the file
// does not exist.
func (b *Builder) WithOptionalFile(path string) *Builder {
	b.files = append(b.files, fileSource{path: path, optional: true})
	return b
}

// WithNamespacedFile appends an optional file layer whose content is
// re-rooted under the given namespace before merging. A file already
// shaped around the namespace (directly, or under a "tool" table) is
// reduced to that section.
func (b *Builder) WithNamespacedFile(path, namespace string) *Builder {
	if namespace == "" {
		b.fail(fmt.Errorf("namespaced file %q: empty namespace", path))
		return b
	}
	b.files = append(b.files, fileSource{path: path, namespace: namespace, optional: true})
	return b
}

// WithEnvPrefix enables the environment stage for variables carrying
// the given prefix. An empty prefix makes every variable a candidate.
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.envPrefix = prefix
	b.envOn = true
	return b
}

// WithAppPrefix routes environment variables with the given prefix
// into the named application's section.
func (b *Builder) WithAppPrefix(name, prefix string) *Builder {
	if app := b.app(name); app != nil {
		app.prefix = prefix
		app.hasPrefix = true
	}
	return b
}

// WithDotenv enables .env discovery: the nearest .env file walking up
// from the working directory is unioned into the environment snapshot.
// Real environment variables always win over dotenv values.
func (b *Builder) WithDotenv() *Builder {
	b.dotenvWalk = true
	return b
}

// WithDotenvFile unions a specific dotenv file into the environment
// snapshot. A missing or unreadable file is logged and skipped.
func (b *Builder) WithDotenvFile(path string) *Builder {
	b.dotenvFiles = append(b.dotenvFiles, path)
	return b
}

// WithDotenvMap unions literal dotenv-style variables into the
// environment snapshot, below both the real environment and any
// dotenv files.
func (b *Builder) WithDotenvMap(vars map[string]string) *Builder {
	if b.dotenvVars == nil {
		b.dotenvVars = make(map[string]string, len(vars))
	}
	for k, v := range vars {
		b.dotenvVars[k] = v
	}
	return b
}

// WithEnvironment replaces the process environment snapshot for this
// build. Dotenv sources still union into the replacement.
func (b *Builder) WithEnvironment(vars map[string]string) *Builder {
	b.environ = vars
	return b
}

// WithOverrides sets final dotted-key overrides, the highest-precedence
// layer. String values are coerced like environment values; repeated
// calls accumulate with later values winning per key.
func (b *Builder) WithOverrides(overrides map[string]any) *Builder {
	if b.overrides == nil {
		b.overrides = make(map[string]any, len(overrides))
	}
	for k, v := range overrides {
		b.overrides[k] = v
	}
	return b
}

// WithMandatory appends dotted keys that must resolve to a value once
// every source is folded.
func (b *Builder) WithMandatory(keys ...string) *Builder {
	b.mandatory = append(b.mandatory, keys...)
	return b
}

// WithProvenance enables source tracking for the build.
func (b *Builder) WithProvenance() *Builder {
	b.provenance = true
	return b
}

// Build runs the pipeline and returns the resolved configuration.
func (b *Builder) Build() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.resolve()
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Config {
	cfg, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("config build failed: %v", err))
	}
	return cfg
}

// app finds or registers the entry for a named application. First
// mention fixes the application's position in the stage order.
func (b *Builder) app(name string) *appSpec {
	if name == "" {
		b.fail(fmt.Errorf("empty application name"))
		return nil
	}
	for _, app := range b.apps {
		if app.name == name {
			return app
		}
	}
	app := &appSpec{name: name}
	b.apps = append(b.apps, app)
	return app
}

// fail records the first configuration mistake; Build reports it.
func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
