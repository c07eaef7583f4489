// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Color profiles accepted by RendererConfig.Color.
var colorProfiles = []string{"auto", "truecolor", "ansi256", "ansi", "none"}

// Config is the master configuration for the workbench.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures file locations.
	Paths PathsConfig `yaml:"paths"`

	// Dispatch configures the message dispatcher.
	Dispatch DispatchConfig `yaml:"dispatch"`

	// Renderer configures renderer connections and the terminal
	// renderer.
	Renderer RendererConfig `yaml:"renderer"`

	// Window describes the main window.
	Window WindowConfig `yaml:"window"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths    *PathsConfig    `yaml:"paths,omitempty"`
	Dispatch *DispatchConfig `yaml:"dispatch,omitempty"`
	Renderer *RendererConfig `yaml:"renderer,omitempty"`
}

// PathsConfig configures file locations.
type PathsConfig struct {
	// Root is the base directory for workbench runtime files.
	Root string `yaml:"root"`

	// Socket is the Unix socket renderers connect to.
	// Default: ${WORKBENCH_ROOT}/workbench.sock
	Socket string `yaml:"socket"`

	// LaunchFile is the debug configuration file. It is watched for
	// changes and may not exist yet.
	// Default: .workbench/launch.json (relative to the working directory)
	LaunchFile string `yaml:"launch_file"`
}

// DispatchConfig configures the message dispatcher.
type DispatchConfig struct {
	// RequestTimeout bounds how long a request waits for its
	// response, as a Go duration string.
	// Default: 60s
	RequestTimeout string `yaml:"request_timeout"`
}

// RendererConfig configures renderer connections.
type RendererConfig struct {
	// Color selects the terminal renderer's color profile: auto,
	// truecolor, ansi256, ansi, or none.
	// Default: auto
	Color string `yaml:"color"`

	// WebSocketAddress is the listen address for browser-hosted
	// renderers. Empty disables the WebSocket listener.
	WebSocketAddress string `yaml:"websocket_address"`

	// AllowedOrigins lists the Origin header values accepted on the
	// WebSocket listener. Requests without an Origin header are always
	// accepted.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WindowConfig describes the main window: a toolbar above a row or
// column of panels.
type WindowConfig struct {
	// Title is the window title.
	Title string `yaml:"title"`

	// Direction is the main axis of the panel layout: horizontal or
	// vertical.
	Direction string `yaml:"direction"`

	// Configurations adds the debug configuration dropdown to the
	// toolbar.
	Configurations bool `yaml:"configurations"`

	// Toolbar lists the toolbar buttons after the dropdown.
	Toolbar []ButtonConfig `yaml:"toolbar"`

	// Panels lists the panels in layout order.
	Panels []PanelConfig `yaml:"panels"`
}

// ButtonConfig binds a toolbar button to a named command.
type ButtonConfig struct {
	ID      string `yaml:"id"`
	Label   string `yaml:"label"`
	Tooltip string `yaml:"tooltip"`

	// Command is the registered command executed on click.
	Command string `yaml:"command"`
}

// PanelConfig describes one panel.
type PanelConfig struct {
	ID        string `yaml:"id"`
	Title     string `yaml:"title"`
	Resizable bool   `yaml:"resizable"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "workbench")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:       defaultRoot,
			Socket:     filepath.Join(defaultRoot, "workbench.sock"),
			LaunchFile: filepath.Join(".workbench", "launch.json"),
		},
		Dispatch: DispatchConfig{
			RequestTimeout: "60s",
		},
		Renderer: RendererConfig{
			Color: "auto",
		},
		Window: WindowConfig{
			Title:          "Workbench",
			Direction:      "horizontal",
			Configurations: true,
			Toolbar: []ButtonConfig{
				{ID: "start", Label: "Start", Tooltip: "Launch the selected configuration", Command: "debug.start"},
				{ID: "reload", Label: "Reload", Tooltip: "Re-read the launch file", Command: "debugconfig.reload"},
			},
			Panels: []PanelConfig{
				{ID: "source", Title: "Source", Resizable: true},
				{ID: "variables", Title: "Variables", Resizable: true},
				{ID: "console", Title: "Console", Resizable: true},
			},
		},
	}
}

// Load loads configuration from WORKBENCH_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks - if WORKBENCH_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("WORKBENCH_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("WORKBENCH_CONFIG environment variable not set; " +
			"set it to the path of your workbench.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// Resolve loads path when it is set, then $WORKBENCH_CONFIG when that
// is set, and otherwise returns the defaults with variables expanded.
// Command-line tools use it so a bare invocation works without a
// config file.
func Resolve(path string) (*Config, error) {
	switch {
	case path != "":
		return LoadFile(path)
	case os.Getenv("WORKBENCH_CONFIG") != "":
		return Load()
	}
	cfg := Default()
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. The only expansion
// performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &ConfigOverrides{
				Dispatch: &DispatchConfig{RequestTimeout: "15s"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Socket != "" {
			c.Paths.Socket = overrides.Paths.Socket
		}
		if overrides.Paths.LaunchFile != "" {
			c.Paths.LaunchFile = overrides.Paths.LaunchFile
		}
	}

	if overrides.Dispatch != nil && overrides.Dispatch.RequestTimeout != "" {
		c.Dispatch.RequestTimeout = overrides.Dispatch.RequestTimeout
	}

	if overrides.Renderer != nil {
		if overrides.Renderer.Color != "" {
			c.Renderer.Color = overrides.Renderer.Color
		}
		if overrides.Renderer.WebSocketAddress != "" {
			c.Renderer.WebSocketAddress = overrides.Renderer.WebSocketAddress
		}
		if overrides.Renderer.AllowedOrigins != nil {
			c.Renderer.AllowedOrigins = overrides.Renderer.AllowedOrigins
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"WORKBENCH_ROOT": c.Paths.Root,
		"HOME":           os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["WORKBENCH_ROOT"] = c.Paths.Root

	c.Paths.Socket = expandVars(c.Paths.Socket, vars)
	c.Paths.LaunchFile = expandVars(c.Paths.LaunchFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name := parts[1]
		defaultValue := parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// RequestTimeout returns the parsed dispatch request timeout.
func (c *Config) RequestTimeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.Dispatch.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("dispatch.request_timeout: %w", err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("dispatch.request_timeout must be positive, got %s", timeout)
	}
	return timeout, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.Socket == "" {
		errs = append(errs, fmt.Errorf("paths.socket is required"))
	}
	if c.Paths.LaunchFile == "" {
		errs = append(errs, fmt.Errorf("paths.launch_file is required"))
	}

	if _, err := c.RequestTimeout(); err != nil {
		errs = append(errs, err)
	}

	if !slices.Contains(colorProfiles, c.Renderer.Color) {
		errs = append(errs, fmt.Errorf("renderer.color must be one of: %v", colorProfiles))
	}

	if c.Window.Direction != "horizontal" && c.Window.Direction != "vertical" {
		errs = append(errs, fmt.Errorf("window.direction must be horizontal or vertical, got %q", c.Window.Direction))
	}
	ids := make(map[string]bool)
	for i, button := range c.Window.Toolbar {
		if button.ID == "" || button.Command == "" {
			errs = append(errs, fmt.Errorf("window.toolbar[%d]: id and command are required", i))
		}
		if ids[button.ID] {
			errs = append(errs, fmt.Errorf("window.toolbar[%d]: duplicate id %q", i, button.ID))
		}
		ids[button.ID] = true
	}
	for i, panel := range c.Window.Panels {
		if panel.ID == "" {
			errs = append(errs, fmt.Errorf("window.panels[%d]: id is required", i))
		}
		if ids[panel.ID] {
			errs = append(errs, fmt.Errorf("window.panels[%d]: duplicate id %q", i, panel.ID))
		}
		ids[panel.ID] = true
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the root directory and the socket's directory
// if they don't exist.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Root, filepath.Dir(c.Paths.Socket)} {
		if path == "" || path == "." {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
