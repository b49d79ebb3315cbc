// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// procrun-pipeline runs a sequence of shell steps declared in a YAML
// file, each step optionally guarded by a "when" check and verified
// afterward by a "check" command. Every command in a step — guard, run,
// and check — goes through lib/procexec rather than a bare exec.Cmd, so
// steps get the same multiplexed capture, byte caps, and exit-status
// decoding as any other procrun invocation.
package main
