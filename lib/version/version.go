// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
)

// Build stamps, overridden with -ldflags "-X".
var (
	// Version is the release version.
	Version = "0.1.0-dev"

	// GitCommit is the short commit hash.
	GitCommit = "unknown"

	// GitDirty is "true" when the tree had uncommitted changes.
	GitDirty = "false"

	// BuildTime is the build's UTC timestamp.
	BuildTime = "unknown"
)

// Info returns the version, commit, and build time on one line.
func Info() string {
	commit := GitCommit
	if GitDirty == "true" {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", Version, commit, BuildTime)
}

// Full returns Info followed by the Go toolchain and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Banner returns the --version output for the named binary.
func Banner(binary string) string {
	return binary + " " + Full()
}
