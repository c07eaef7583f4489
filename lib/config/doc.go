// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the workbench
// binaries.
//
// Configuration is loaded from a single file specified by either the
// WORKBENCH_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter: the
// request timeout is shorter and the WebSocket listener accepts no
// origins unless the file lists them.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${WORKBENCH_ROOT}, and ${VAR:-default} patterns are
// expanded. No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Dispatch, Renderer, Window
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other workbench packages.
package config
