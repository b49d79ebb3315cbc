// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sandbox builds the bubblewrap (bwrap) argv prefix for an
// isolated command and hands it to lib/procexec to actually run.
//
// The central type is [Sandbox], which assembles a bwrap command from a
// [Profile] and an argv, via [BwrapBuilder]. Profiles are YAML-driven
// configurations ([LoadProfiles]) that declare filesystem mounts,
// namespace isolation flags, environment variables, and directories to
// create; string values undergo variable expansion
// ([Variables.ExpandProfile]) before use.
//
// Filesystem isolation is the primary security boundary: every mount is
// declared explicitly in the profile, and there is no implicit host
// filesystem visibility. Mount types are bind (read-only or read-write),
// tmpfs, proc, dev, and dev-bind.
//
// The sandbox itself only builds the isolated argv and environment;
// [Sandbox.Run] hands both to lib/procexec for actual execution
// (Options.System, so the command runs synchronously with inherited
// stdio and lib/procexec's own process-group teardown applies), so the
// exit-status decoding that applies to any procexec invocation applies
// equally to a sandboxed one.
package sandbox
