// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds entrypoint helpers shared by the workbench
// binaries: reporting a failure from run() before or after the
// structured logger exists, and turning SIGINT and SIGTERM into
// context cancellation.
package process
