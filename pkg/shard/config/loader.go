package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat indicates a config file extension we cannot parse.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// ValidationError reports an invalid workload field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Load reads a workload file, detecting the format by extension.
// Supported extensions: .yaml, .yml, .json
func Load(path string) (Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Workload{}, fmt.Errorf("read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Workload{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// FromYAML parses a YAML workload.
func FromYAML(data []byte) (Workload, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Workload{}, fmt.Errorf("parse yaml: %w", err)
	}
	return FromValues(NewValues(m))
}

// FromJSON parses a JSON workload.
func FromJSON(data []byte) (Workload, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Workload{}, fmt.Errorf("parse json: %w", err)
	}
	return FromValues(NewValues(m))
}
