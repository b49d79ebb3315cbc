// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package resultsink gives the result-record constructor and the
// diagnostic logging sinks that lib/procexec treats as external
// collaborators a concrete shape: [Result] (built via [R]) is the
// tagged record every executor returns, and [Sink] wraps a
// [log/slog.Logger] with the rate-limited info/warn emitters the
// multiplex loop calls while draining a child's descriptors, plus a
// debug emitter that is not rate-limited.
package resultsink
