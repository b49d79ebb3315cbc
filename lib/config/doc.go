// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for procrun components.
//
// Configuration is loaded from a single file specified by either the
// PROCRUN_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter:
// the default sandbox profile becomes "assistant" and
// sandbox.fallback.no_userns becomes "error". These are configuration
// values only; nothing in this repository acts on the fallback settings.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${PROCRUN_ROOT}, and ${VAR:-default} patterns are expanded.
// Afterward, the Exec section additionally accepts a per-field
// environment variable overlay (see [ExecConfig]'s struct tags) so a
// single scalar can be tuned without editing the file.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Exec, Sandbox
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other procrun packages.
package config
