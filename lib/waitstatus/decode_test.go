// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package waitstatus

import (
	"os/exec"
	"syscall"
	"testing"
)

func TestDecodeExited(t *testing.T) {
	tests := []struct {
		name string
		cmd  []string
		want int
	}{
		{"success", []string{"true"}, 0},
		{"nonzero", []string{"sh", "-c", "exit 7"}, 7},
		{"large code wraps at 255", []string{"sh", "-c", "exit 300"}, 300 & 0xFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(tt.cmd[0], tt.cmd[1:]...)
			err := cmd.Run()
			status := exitStatus(t, cmd, err)
			got := Decode(status)
			if !got.Exited {
				t.Fatalf("Decode(%v).Exited = false, want true", status)
			}
			if got.Code != tt.want {
				t.Fatalf("Decode(%v).Code = %d, want %d", status, got.Code, tt.want)
			}
			if got.Signaled {
				t.Fatalf("Decode(%v).Signaled = true, want false", status)
			}
		})
	}
}

func TestDecodeSignaled(t *testing.T) {
	cmd := exec.Command("sh", "-c", "kill -KILL $$")
	err := cmd.Run()
	status := exitStatus(t, cmd, err)
	got := Decode(status)

	if !got.Signaled {
		t.Fatalf("Decode(%v).Signaled = false, want true", status)
	}
	if got.Exited {
		t.Fatalf("Decode(%v).Exited = true, want false", status)
	}
	if got.Signal != "SIGKILL" {
		t.Fatalf("Decode(%v).Signal = %q, want SIGKILL", status, got.Signal)
	}
	if got.SignalNum != int(syscall.SIGKILL) {
		t.Fatalf("Decode(%v).SignalNum = %d, want %d", status, got.SignalNum, syscall.SIGKILL)
	}
}

func TestSignalNameFallback(t *testing.T) {
	got := signalName(syscall.Signal(200))
	if got != "SIG200" {
		t.Fatalf("signalName(200) = %q, want SIG200", got)
	}
}

// exitStatus extracts the raw syscall.WaitStatus from a finished exec.Cmd,
// tolerating both a nil error (clean exit) and an *exec.ExitError (nonzero
// exit or signal death) -- any other error is a test setup failure.
func exitStatus(t *testing.T, cmd *exec.Cmd, err error) syscall.WaitStatus {
	t.Helper()
	if err == nil {
		ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus)
		if !ok {
			t.Fatalf("ProcessState.Sys() is not a syscall.WaitStatus")
		}
		return ws
	}
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		ws, ok := exitErr.Sys().(syscall.WaitStatus)
		if !ok {
			t.Fatalf("ExitError.Sys() is not a syscall.WaitStatus")
		}
		return ws
	}
	t.Fatalf("unexpected error running command: %v", err)
	return syscall.WaitStatus(0)
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}
