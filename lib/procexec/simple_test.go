// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procexec

import (
	"context"
	"testing"

	"github.com/bureau-foundation/procrun/lib/resultsink"
)

func TestRunSimpleOK(t *testing.T) {
	result, err := RunSimple(context.Background(), Options{Cmd: []string{"sh", "-c", "echo hello"}})
	if err != nil {
		t.Fatalf("RunSimple() error = %v", err)
	}
	if result.Kind != resultsink.OK {
		t.Fatalf("Kind = %v, want OK", result.Kind)
	}
	if string(result.Value.Output) != "hello\n" {
		t.Fatalf("Output = %q, want %q", result.Value.Output, "hello\n")
	}
	if result.Value.Status == nil || *result.Value.Status != 0 {
		t.Fatalf("Status = %v, want 0", result.Value.Status)
	}
}

func TestRunSimpleMergesStdoutAndStderr(t *testing.T) {
	result, err := RunSimple(context.Background(), Options{
		Cmd: []string{"sh", "-c", "echo out; echo err >&2"},
	})
	if err != nil {
		t.Fatalf("RunSimple() error = %v", err)
	}
	out := string(result.Value.Output)
	if out != "out\nerr\n" && out != "err\nout\n" {
		t.Fatalf("Output = %q, want interleaving of out/err lines", out)
	}
}

func TestRunSimpleNonZeroExit(t *testing.T) {
	result, err := RunSimple(context.Background(), Options{Cmd: []string{"sh", "-c", "exit 3"}})
	if err != nil {
		t.Fatalf("RunSimple() error = %v", err)
	}
	if result.Kind != resultsink.OKNonZeroExit {
		t.Fatalf("Kind = %v, want OK_NON_ZERO_EXIT", result.Kind)
	}
	if *result.Value.Status != 3 {
		t.Fatalf("Status = %d, want 3", *result.Value.Status)
	}
}

func TestRunSimpleMustSucceed(t *testing.T) {
	result, err := RunSimple(context.Background(), Options{
		Cmd:         []string{"sh", "-c", "exit 3"},
		MustSucceed: true,
	})
	if err != nil {
		t.Fatalf("RunSimple() error = %v", err)
	}
	if result.Kind != resultsink.ErrNonZeroExit {
		t.Fatalf("Kind = %v, want ERR_NON_ZERO_EXIT", result.Kind)
	}
}

func TestRunSimpleExecFailed(t *testing.T) {
	_, err := RunSimple(context.Background(), Options{Cmd: []string{"/no/such/binary-xyz"}})
	var execErr *ExecFailedError
	if !isExecFailedError(err, &execErr) {
		t.Fatalf("RunSimple() error = %v, want *ExecFailedError", err)
	}
}

func isExecFailedError(err error, target **ExecFailedError) bool {
	if ee, ok := err.(*ExecFailedError); ok {
		*target = ee
		return true
	}
	return false
}
