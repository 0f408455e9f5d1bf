package strata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a configuration file into a tree. The format is taken
// from the extension when it is conclusive and detected from content
// otherwise. A missing file surfaces ErrFileNotFound; a file that
// exists but does not decode to a mapping surfaces a *ParseError.
// Empty files yield an empty tree.
func LoadFile(path string) (*Tree, error) {
	path = expandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return NewTree(), nil
	}

	format := formatFromExt(path)
	if format == "" {
		format = formatFromContent(data)
	}

	raw, err := decodeBytes(data, format)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return FromMap(raw), nil
}

// decodeBytes parses raw file data in the given format into a mapping.
func decodeBytes(data []byte, format string) (map[string]any, error) {
	out := make(map[string]any)
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &out); err != nil {
			return nil, err
		}
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber() // Preserve number precision
		if err := dec.Decode(&out); err != nil {
			return nil, err
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unrecognized configuration format")
	}
	return out, nil
}

// formatFromExt determines format from the file extension
func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

// formatFromContent attempts to detect format by parsing
func formatFromContent(data []byte) string {
	// Try JSON first (strict format)
	var jsonTest any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return "json"
	}

	// YAML parses almost anything as a scalar, so require a mapping
	var yamlTest map[string]any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil && yamlTest != nil {
		return "yaml"
	}

	// Try TOML last
	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return "toml"
	}

	return ""
}

// Marshal renders the tree in the named format: "toml", "json" or
// "yaml".
func (t *Tree) Marshal(format string) ([]byte, error) {
	m := t.Map()
	switch format {
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(m); err != nil {
			return nil, fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		return buf.Bytes(), nil
	case "json":
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		return append(data, '\n'), nil
	case "yaml":
		data, err := yaml.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unrecognized output format %q", format)
	}
}

// Save writes the tree to a file atomically, choosing the format from
// the extension and falling back to TOML.
func (t *Tree) Save(path string) error {
	format := formatFromExt(path)
	if format == "" {
		format = "toml"
	}
	data, err := t.Marshal(format)
	if err != nil {
		return err
	}
	return atomicWriteFile(expandPath(path), data)
}

// atomicWriteFile performs atomic file write
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// expandPath resolves environment variable references and a leading
// tilde in a file path.
func expandPath(path string) string {
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return path
}
