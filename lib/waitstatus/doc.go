// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package waitstatus decodes the raw wait status integer returned by a
// waitpid-equivalent system call into a structured description of how
// the child terminated: a normal exit code, or a terminating signal (with
// symbolic name and core-dump flag). A failure to spawn is not a wait
// status and is not decoded here.
//
// Several procrun binaries decode a wait status inline (a pattern visible
// across the wider codebase this package was carved out of); centralizing
// the decode here means the signal-name table is built once and the
// encoding rules — low 7 bits signal number, bit 7 core-dump flag, upper
// 8 bits exit code — live in exactly one place.
package waitstatus
