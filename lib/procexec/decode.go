// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procexec

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"github.com/bureau-foundation/procrun/lib/resultsink"
	"github.com/bureau-foundation/procrun/lib/waitstatus"
)

// extractWaitStatus pulls the raw syscall.WaitStatus out of a finished
// exec.Cmd, tolerating both a nil error (clean exit) and an
// *exec.ExitError (nonzero exit or signal death). Any other error means
// the wait itself failed and there is no status to decode.
func extractWaitStatus(cmd *exec.Cmd, waitErr error) (raw syscall.WaitStatus, failed bool, execErr error) {
	if waitErr == nil {
		ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus)
		if !ok {
			return 0, true, errors.New("procexec: process state does not carry a syscall.WaitStatus")
		}
		return ws, false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		ws, ok := exitErr.Sys().(syscall.WaitStatus)
		if !ok {
			return 0, true, errors.New("procexec: exit error does not carry a syscall.WaitStatus")
		}
		return ws, false, nil
	}
	return 0, true, waitErr
}

// decodeExit builds the kind, value fields, and message for a completed
// child from its raw wait status, per the exit-status decoder contract.
// Capture fields (Stdout/Stderr/Output/BytesNB) are filled in by the
// caller; decodeExit only sets Sysret, SysretRaw, Status, Signal, and
// Coredump.
func decodeExit(raw syscall.WaitStatus, mustSucceed bool) (resultsink.Kind, resultsink.Value, string) {
	status := waitstatus.Decode(raw)
	value := resultsink.Value{SysretRaw: int(raw)}

	if status.Signaled {
		value.Signal = status.Signal
		value.Coredump = status.Coredump
		value.Sysret = int(raw) >> 8
		msg := fmt.Sprintf("signal %d (%s)", status.SignalNum, status.Signal)
		if status.Coredump {
			msg += " and coredump"
		}
		return resultsink.OK, value, msg
	}

	code := status.Code
	value.Status = &code
	value.Sysret = code
	msg := fmt.Sprintf("status %d", code)

	switch {
	case code == 0:
		return resultsink.OK, value, msg
	case mustSucceed:
		return resultsink.ErrNonZeroExit, value, msg
	default:
		return resultsink.OKNonZeroExit, value, msg
	}
}

// splitCapturedLines splits a captured byte buffer on "\n" the way the
// data model's stdout/stderr line sequences are defined: every complete
// line is an element, and a single trailing newline does not produce a
// spurious empty final element. A capture that does not end in a
// newline keeps its last partial line as-is.
func splitCapturedLines(buf []byte) []string {
	if len(buf) == 0 {
		return nil
	}
	s := string(buf)
	trimmed := false
	if s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
		trimmed = true
	}
	if s == "" {
		if trimmed {
			return []string{}
		}
		return nil
	}
	lines := splitOnByte(s, '\n')
	return lines
}

func splitOnByte(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
