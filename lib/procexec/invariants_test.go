// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procexec

import (
	"context"
	"strings"
	"testing"
)

// TestInvariantExactlyOneOfStatusOrSignal is universal invariant 1:
// for every non-ERR_EXEC_FAILED result, exactly one of value.status and
// value.signal is defined.
func TestInvariantExactlyOneOfStatusOrSignal(t *testing.T) {
	cases := [][]string{
		{"sh", "-c", "exit 0"},
		{"sh", "-c", "exit 7"},
		{"sh", "-c", "kill -TERM $$"},
	}
	for _, cmd := range cases {
		result, err := Run(context.Background(), Options{Cmd: cmd})
		if err != nil {
			t.Fatalf("Run(%v) error = %v", cmd, err)
		}
		hasStatus := result.Value.Status != nil
		hasSignal := result.Value.Signal != ""
		if hasStatus == hasSignal {
			t.Fatalf("Run(%v): hasStatus=%v hasSignal=%v, want exactly one", cmd, hasStatus, hasSignal)
		}
	}
}

// TestInvariantSysretRawEncoding is universal invariant 2:
// sysret_raw >> 8 == sysret when defined, and (sysret_raw & 0x7f) != 0
// iff signal is defined.
func TestInvariantSysretRawEncoding(t *testing.T) {
	result, err := Run(context.Background(), Options{Cmd: []string{"sh", "-c", "exit 5"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if (result.Value.SysretRaw>>8)&0xff != result.Value.Sysret {
		t.Fatalf("SysretRaw>>8 = %d, Sysret = %d, want equal", (result.Value.SysretRaw >> 8 & 0xff), result.Value.Sysret)
	}
	if result.Value.SysretRaw&0x7f != 0 {
		t.Fatalf("SysretRaw & 0x7f = %d, want 0 for a normal exit", result.Value.SysretRaw&0x7f)
	}

	signaled, err := Run(context.Background(), Options{Cmd: []string{"sh", "-c", "kill -KILL $$"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if signaled.Value.SysretRaw&0x7f == 0 {
		t.Fatalf("SysretRaw & 0x7f = 0, want nonzero for a signaled exit")
	}
	if signaled.Value.Signal == "" {
		t.Fatalf("Signal is empty for a signaled exit")
	}
}

// TestInvariantCapturedLinesJoinToBytes is universal invariant 3: for a
// call with capture enabled, joining stdout lines with "\n" (plus the
// final newline the child emitted) reproduces the captured bytes.
func TestInvariantCapturedLinesJoinToBytes(t *testing.T) {
	result, err := Run(context.Background(), Options{Cmd: []string{"sh", "-c", "printf 'a\\nb\\nc\\n'"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"a", "b", "c"}
	if strings.Join(result.Value.Stdout, "|") != strings.Join(want, "|") {
		t.Fatalf("Stdout = %v, want %v", result.Value.Stdout, want)
	}
	rejoined := strings.Join(result.Value.Stdout, "\n") + "\n"
	if rejoined != "a\nb\nc\n" {
		t.Fatalf("rejoined = %q, want %q", rejoined, "a\nb\nc\n")
	}
}

// TestInvariantBytesNBMatchesCaptureLength is universal invariant 4
// (without a cap): bytesnb.stdout equals the length of the captured
// bytes.
func TestInvariantBytesNBMatchesCaptureLength(t *testing.T) {
	result, err := Run(context.Background(), Options{Cmd: []string{"sh", "-c", "printf 'abcde'"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	capturedLen := int64(len(strings.Join(result.Value.Stdout, "\n")))
	if result.Value.BytesNB.Stdout != capturedLen {
		t.Fatalf("BytesNB.Stdout = %d, want %d", result.Value.BytesNB.Stdout, capturedLen)
	}
}

// TestInvariantEnvelopeFilterDoesNotAlterCapture is universal invariant
// 5: capture with is_helper=true equals capture with is_helper=false
// for the same child output.
func TestInvariantEnvelopeFilterDoesNotAlterCapture(t *testing.T) {
	child := `echo hi; echo JSON_START; echo payload; echo JSON_END; echo bye`

	withHelper, err := Run(context.Background(), Options{Cmd: []string{"sh", "-c", child}, IsHelper: true})
	if err != nil {
		t.Fatalf("Run(IsHelper=true) error = %v", err)
	}
	without, err := Run(context.Background(), Options{Cmd: []string{"sh", "-c", child}})
	if err != nil {
		t.Fatalf("Run(IsHelper=false) error = %v", err)
	}

	if strings.Join(withHelper.Value.Stdout, "\n") != strings.Join(without.Value.Stdout, "\n") {
		t.Fatalf("capture differs between IsHelper=true (%v) and IsHelper=false (%v)",
			withHelper.Value.Stdout, without.Value.Stdout)
	}
}
