// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for procrun's
// CLI commands. [Fatal] centralizes the one legitimate raw I/O pattern
// that exists before or after the structured logger: reporting an
// unrecoverable error from run() to stderr and exiting with code 1,
// used from main() where the logger may not yet be constructed.
package process
