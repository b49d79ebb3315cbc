// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package waitstatus

import (
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// Status describes how a child process terminated, decoded from the raw
// wait status word returned alongside a waitpid-equivalent call.
type Status struct {
	// Exited is true when the child ran to completion and returned an
	// exit code (Code is then meaningful).
	Exited bool
	// Code is the child's exit code when Exited is true.
	Code int

	// Signaled is true when a signal killed the child (Signal and
	// Coredump are then meaningful).
	Signaled bool
	// Signal is the symbolic name of the terminating signal, e.g. "SIGKILL".
	Signal string
	// SignalNum is the raw signal number backing Signal.
	SignalNum int
	// Coredump is true when the child dumped core before dying.
	Coredump bool
}

// Decode turns a raw wait status into a Status. It never returns an error:
// any bit pattern outside the exited/signaled cases (stopped, continued)
// decodes to a zero-value Status with both Exited and Signaled false,
// which callers should treat as "still running" or "unknown".
func Decode(raw syscall.WaitStatus) Status {
	switch {
	case raw.Exited():
		return Status{Exited: true, Code: raw.ExitStatus()}
	case raw.Signaled():
		sig := raw.Signal()
		return Status{
			Signaled:  true,
			Signal:    signalName(sig),
			SignalNum: int(sig),
			Coredump:  raw.CoreDump(),
		}
	default:
		return Status{}
	}
}

var signalNames = buildSignalNames()

// buildSignalNames constructs the symbolic name table once, covering the
// range of signal numbers the runtime's unix.SignalName recognizes.
func buildSignalNames() map[int]string {
	names := make(map[int]string, 64)
	for n := 1; n < 65; n++ {
		name := unix.SignalName(syscall.Signal(n))
		if name != "" {
			names[n] = name
		}
	}
	return names
}

// signalName returns the symbolic name for a signal, falling back to
// "SIG<n>" for numbers the platform table does not recognize.
func signalName(sig syscall.Signal) string {
	if name, ok := signalNames[int(sig)]; ok {
		return name
	}
	return "SIG" + strconv.Itoa(int(sig))
}
