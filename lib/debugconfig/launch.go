// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package debugconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Configuration is one entry of a launch file.
type Configuration struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Request string `json:"request,omitempty"`

	// Raw is the whole entry, compacted. Fields the workbench does not
	// interpret are kept here for the debugger.
	Raw json.RawMessage `json:"-"`
}

// ObjectID identifies the configuration by name.
func (c Configuration) ObjectID() string { return c.Name }

// ObjectLabel is the text shown for the configuration.
func (c Configuration) ObjectLabel() string { return c.Name }

// Equal reports whether two configurations have identical content.
func (c Configuration) Equal(other Configuration) bool {
	return c.Name == other.Name && bytes.Equal(c.Raw, other.Raw)
}

// LaunchFile is the parsed content of a launch file.
type LaunchFile struct {
	Version        string
	Configurations []Configuration
}

// Parse reads launch file content.
func Parse(data []byte) (*LaunchFile, error) {
	var document struct {
		Version        string            `json:"version"`
		Configurations []json.RawMessage `json:"configurations"`
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &document); err != nil {
		return nil, fmt.Errorf("parsing launch file: %w", err)
	}

	file := &LaunchFile{Version: document.Version}
	seen := make(map[string]int)
	for i, raw := range document.Configurations {
		var configuration Configuration
		if err := json.Unmarshal(raw, &configuration); err != nil {
			return nil, fmt.Errorf("configuration %d: %w", i, err)
		}
		if configuration.Name == "" {
			return nil, fmt.Errorf("configuration %d: missing name", i)
		}
		if first, duplicate := seen[configuration.Name]; duplicate {
			return nil, fmt.Errorf("configuration %d: name %q already used by configuration %d", i, configuration.Name, first)
		}
		seen[configuration.Name] = i

		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return nil, fmt.Errorf("configuration %d: %w", i, err)
		}
		configuration.Raw = compact.Bytes()
		file.Configurations = append(file.Configurations, configuration)
	}
	return file, nil
}

// Load reads and parses the launch file at path. A missing file is an
// empty launch file.
func Load(path string) (*LaunchFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &LaunchFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading launch file: %w", err)
	}
	file, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}
