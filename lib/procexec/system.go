// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procexec

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/bureau-foundation/procrun/lib/resultsink"
	"github.com/bureau-foundation/procrun/lib/taint"
)

// systemGracePeriod is how long runSystem waits after sending SIGTERM to
// the command's process group before escalating to SIGKILL when the
// caller's context is canceled.
const systemGracePeriod = 5 * time.Second

// runSystem bypasses the multiplex loop entirely: the child inherits
// the caller's stdin/stdout/stderr directly and runSystem simply waits
// for it to finish. This is the System option's synchronous fire-and-wait
// path, grounded on the same process-group-kill-with-grace-period
// pattern used elsewhere in the wider codebase for shelling out to
// synchronous step commands.
func runSystem(ctx context.Context, opts Options, logger *slog.Logger) (resultsink.Result, error) {
	if len(opts.Cmd) == 0 {
		return resultsink.Result{}, &ExecFailedError{Err: errCmdRequired}
	}

	for _, f := range taint.Check(opts.Cmd) {
		logger.Warn("tainted argument", "index", f.Index, "token", f.Token, "reason", f.Reason)
	}

	cmd := exec.CommandContext(ctx, opts.Cmd[0], opts.Cmd[1:]...)
	cmd.Env = resolveEnv(opts)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = systemGracePeriod
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}

	startErr := cmd.Start()
	if startErr != nil {
		return resultsink.Result{}, &ExecFailedError{Err: startErr}
	}

	raw, failed, execErr := extractWaitStatus(cmd, cmd.Wait())
	if failed {
		return resultsink.Result{}, &ExecFailedError{Err: execErr}
	}

	kind, value, msg := decodeExit(raw, opts.MustSucceed)
	return resultsink.R(kind, value, msg), nil
}
