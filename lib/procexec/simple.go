// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procexec

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"

	"github.com/bureau-foundation/procrun/lib/resultsink"
	"github.com/bureau-foundation/procrun/lib/taint"
)

const simpleReadBufSize = 65535

var errCmdRequired = errors.New("procexec: Cmd is required")

// RunSimple spawns the child with stdin closed immediately and stdout
// plus stderr merged into a single pipe, reading it in fixed 65535-byte
// chunks into one accumulator. It is chosen over Run when throughput
// matters and neither tee nor stdin forwarding is needed.
func RunSimple(ctx context.Context, opts Options) (resultsink.Result, error) {
	applyDebugEnv(&opts)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Cmd) == 0 {
		return resultsink.Result{}, &ExecFailedError{Err: errCmdRequired}
	}

	for _, f := range taint.Check(opts.Cmd) {
		logger.Warn("tainted argument", "index", f.Index, "token", f.Token, "reason", f.Reason)
	}

	cmd := exec.CommandContext(ctx, opts.Cmd[0], opts.Cmd[1:]...)
	cmd.Env = resolveEnv(opts)

	merged, err := cmd.StdoutPipe()
	if err != nil {
		return resultsink.Result{}, &ExecFailedError{Err: err}
	}
	cmd.Stderr = cmd.Stdout

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return resultsink.Result{}, &ExecFailedError{Err: err}
	}

	if err := cmd.Start(); err != nil {
		return resultsink.Result{}, &ExecFailedError{Err: err}
	}
	stdin.Close()

	var out []byte
	buf := make([]byte, simpleReadBufSize)
	for {
		n, rerr := merged.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if rerr != nil {
			if rerr != io.EOF {
				logger.Warn("simple executor read error, aborting drain loop", "error", rerr)
			}
			break
		}
	}

	raw, failed, execErr := extractWaitStatus(cmd, cmd.Wait())
	if failed {
		return resultsink.Result{}, &ExecFailedError{Err: execErr}
	}

	kind, value, msg := decodeExit(raw, opts.MustSucceed)
	value.Output = out
	value.BytesNB.Stdout = int64(len(out))

	return resultsink.R(kind, value, msg), nil
}
