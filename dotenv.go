package strata

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// snapshotEnv captures the process environment as a map.
func snapshotEnv() map[string]string {
	environ := os.Environ()
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			out[k] = v
		}
	}
	return out
}

// unionEnv folds extra variables into the snapshot without displacing
// anything already present. The real environment always beats dotenv.
func unionEnv(snapshot, extra map[string]string) {
	for k, v := range extra {
		if _, exists := snapshot[k]; !exists {
			snapshot[k] = v
		}
	}
}

// readDotenv parses a dotenv file into a flat variable map.
func readDotenv(path string) (map[string]string, error) {
	return godotenv.Read(expandPath(path))
}

// findDotenv walks from the starting directory toward the filesystem
// root looking for a .env file. It returns the empty string when no
// ancestor carries one.
func findDotenv(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
