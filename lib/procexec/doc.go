// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package procexec is the subprocess execution engine: it spawns a
// child command, shuttles bytes between the caller's standard streams
// and the child's, optionally mirrors captured output back to the
// caller with envelope redaction, enforces byte-budget caps, and
// decodes the child's exit into a [resultsink.Result].
//
// [RunSimple] is the degenerate executor: merged stdout+stderr into one
// buffer, no tee, no stdin forwarding. [Run] is the full executor: three
// separate pipes, a poll-driven multiplex loop across up to four
// descriptors, resilient mirror writers, and the JSON_START/JSON_END
// redaction filter on mirrored stdout.
package procexec
