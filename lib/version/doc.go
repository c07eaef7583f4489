// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the workbench
// binaries.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- semantic version string (set manually for releases)
//
// These default to "unknown" / "0.1.0-dev" when not injected, which
// occurs during development builds and test runs:
//
//	go build -ldflags "-X github.com/bureau-foundation/workbench/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// [Info] formats them for --version; [Full] adds the Go version and
// platform, which the binaries log at startup.
package version
