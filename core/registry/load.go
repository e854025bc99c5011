package registry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies a registry file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the encoding from a file extension.
func FormatFor(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("registry: unsupported file type %s", filename)
	}
}

// Parse decodes a registry definition and builds the registry.
func Parse(data []byte, format Format) (*Registry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("registry: definition payload is empty")
	}
	var def Definition
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("registry: decode yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("registry: decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("registry: unknown format %q", format)
	}
	return New(def)
}

// LoadFile reads a registry file from disk.
func LoadFile(path string) (*Registry, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	reg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("registry: %s: %w", path, err)
	}
	return reg, nil
}
