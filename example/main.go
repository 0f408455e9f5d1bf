package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/strataconf/strata"
)

// ServerConfig is the typed target we scan the resolved tree into.
type ServerConfig struct {
	Host    string        `strata:"host"`
	Port    int64         `strata:"port"`
	Timeout time.Duration `strata:"timeout"`
}

const (
	baseFile  = "base.toml"
	localFile = "local.yaml"
)

func main() {
	// =========================================================================
	// PART 1: INITIAL SETUP
	// Create the config files this demo layers on top of each other.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 1: Creating configuration files...")

	defer func() {
		log.Println("---")
		log.Println("🧹 Cleaning up...")
		os.Remove(baseFile)
		os.Remove(localFile)
		os.Unsetenv("DEMO_SERVER_PORT")
		os.Unsetenv("SCANNER_CHUNKING__CHUNK_SIZE")
	}()

	base := strata.NewTree()
	base.Set("server.host", "localhost")
	base.Set("server.port", 8080)
	base.Set("server.timeout", "30s")
	base.Set("feature_flags.enable_metrics", true)
	if err := base.Save(baseFile); err != nil {
		log.Fatalf("❌ Failed to write %s: %v", baseFile, err)
	}

	local := strata.NewTree()
	local.Set("server.port", 8090)
	if err := local.Save(localFile); err != nil {
		log.Fatalf("❌ Failed to write %s: %v", localFile, err)
	}
	log.Printf("✅ Wrote %s and %s.", baseFile, localFile)

	// =========================================================================
	// PART 2: LAYERED RESOLUTION WITH THE BUILDER
	// Files merge in order, env beats files, overrides beat everything.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 2: Resolving layered configuration...")

	os.Setenv("DEMO_SERVER_PORT", "9090")
	os.Setenv("SCANNER_CHUNKING__CHUNK_SIZE", "3000")

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).With().Timestamp().Logger()

	cfg, err := strata.NewBuilder().
		WithLogger(logger).
		WithDefaults(map[string]any{
			"server": map[string]any{"workers": 4},
		}).
		WithAppDefaults("scanner", map[string]any{
			"chunking": map[string]any{"chunk_size": 1500},
		}).
		WithFile(baseFile).
		WithOptionalFile(localFile).
		WithEnvPrefix("DEMO").
		WithAppPrefix("scanner", "SCANNER").
		WithOverrides(map[string]any{"feature_flags.enable_metrics": "false"}).
		WithMandatory("server.host", "server.port").
		WithProvenance().
		Build()
	if err != nil {
		log.Fatalf("❌ Resolution failed: %v", err)
	}

	port, _ := cfg.Int64("server.port")
	log.Printf("✅ server.port = %d (env beat %s and %s)", port, localFile, baseFile)

	chunk, _ := cfg.App("scanner").Int64("chunking.chunk_size")
	log.Printf("✅ scanner.chunking.chunk_size = %d (app env beat app defaults)", chunk)

	metrics, _ := cfg.Bool("feature_flags.enable_metrics")
	log.Printf("✅ feature_flags.enable_metrics = %v (override, coerced from string)", metrics)

	// =========================================================================
	// PART 3: PROVENANCE
	// Every leaf knows which stage put it there.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 3: Where did each value come from?")

	for _, key := range []string{"server.port", "server.host", "feature_flags.enable_metrics"} {
		if e, ok := cfg.Provenance(key); ok {
			log.Printf("   %s", e)
		}
	}
	for _, e := range cfg.ProvenanceHistory("server.port") {
		log.Printf("   history: %s", e)
	}
	log.Printf("   summary: %v", cfg.SourcesSummary())

	// =========================================================================
	// PART 4: SCANNING INTO A STRUCT
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 4: Scanning into a typed struct...")

	var server ServerConfig
	if err := cfg.Scan("server", &server); err != nil {
		log.Fatalf("❌ Scan failed: %v", err)
	}
	fmt.Printf("\nResolved server config: %+v\n\n", server)

	log.Println("✅ Done.")
}
