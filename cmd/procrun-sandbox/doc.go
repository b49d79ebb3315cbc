// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// procrun-sandbox runs commands in isolated bubblewrap (bwrap) sandboxes.
// It provides run (execute a command in a sandbox, via lib/procexec),
// list-profiles/show-profile (inspect available profiles), and version.
package main
