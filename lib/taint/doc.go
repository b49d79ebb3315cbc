// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package taint flags command-line argument tokens that look like they
// carry shell metacharacters or other untrusted-input markers, without
// ever blocking invocation on its own account. Callers report tainted
// tokens as a warning and proceed; a tainted token is expected to make
// the downstream spawn fail on its own if it really was hostile.
package taint
