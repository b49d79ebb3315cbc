// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resultsink

import (
	"log/slog"
	"sync"
)

// Sink wraps a structured logger with a shared, per-call rate limit on
// diagnostic emissions. A single invocation of the full executor shares
// one Sink across all three streams, per spec: the budget is a single
// shared counter, not one per stream.
type Sink struct {
	logger *slog.Logger

	mu        sync.Mutex
	remaining int
}

// NewSink creates a Sink with the given message budget. A budget of 0 or
// less disables all emission (every call reports dropped).
func NewSink(logger *slog.Logger, budget int) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger, remaining: budget}
}

// take consumes one unit of budget, returning false once exhausted.
func (s *Sink) take() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remaining <= 0 {
		return false
	}
	s.remaining--
	return true
}

// InfoSyslog logs at info level if budget remains. Returns whether the
// message was emitted.
func (s *Sink) InfoSyslog(msg string, args ...any) bool {
	if !s.take() {
		return false
	}
	s.logger.Info(msg, args...)
	return true
}

// WarnSyslog logs at warn level if budget remains. Returns whether the
// message was emitted.
func (s *Sink) WarnSyslog(msg string, args ...any) bool {
	if !s.take() {
		return false
	}
	s.logger.Warn(msg, args...)
	return true
}

// DebugSyslog logs at debug level. Debug emission is not subject to the
// shared rate limit: it is expected to be silent in production (the
// handler drops it below its configured level).
func (s *Sink) DebugSyslog(msg string, args ...any) {
	s.logger.Debug(msg, args...)
}
