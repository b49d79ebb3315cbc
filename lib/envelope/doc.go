// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package envelope scans a line sequence produced by the full executor's
// captured stdout for JSON_START/JSON_END delimited payloads and decodes
// the last complete one. It never sees the mirrored (tee'd) stream —
// only the untouched capture — so it is unaffected by whatever
// redaction lib/procexec applied to what the caller's terminal saw.
package envelope
