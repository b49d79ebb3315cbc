// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// procrun runs a single command through lib/procexec and prints the
// resulting Result as JSON on its own stdout. It is the thin CLI
// surface over procexec.Options: every option has a corresponding flag
// except EnvOverride and Logger, which procrun does not expose.
package main
