// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/procrun/lib/procexec"
)

// defaultStepTimeout is used when a step does not specify its own timeout.
const defaultStepTimeout = 5 * time.Minute

// stepResult captures the outcome of executing a single pipeline step.
type stepResult struct {
	status   string // "ok", "failed", "skipped"
	duration time.Duration
	err      error
}

// executeStep runs one pipeline step: evaluates the "when" guard, runs
// the step's command, then runs the "check" command. Every command goes
// through procexec.Run with System set, so stdio is inherited directly
// (matching a pipeline step's expectation of live console output) and
// cancellation on timeout follows lib/procexec's SIGTERM-then-SIGKILL
// process-group teardown.
func executeStep(ctx context.Context, step Step, index, total int, logger *slog.Logger) stepResult {
	start := time.Now()

	timeout, err := step.parseTimeout()
	if err != nil {
		return stepResult{status: "failed", duration: time.Since(start), err: err}
	}

	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if step.When != "" {
		exitCode, err := runShellCommand(stepCtx, step.When, step.Env, logger)
		if err != nil {
			return stepResult{status: "failed", duration: time.Since(start), err: fmt.Errorf("when guard: %w", err)}
		}
		if exitCode != 0 {
			fmt.Printf("[pipeline] step %d/%d: %s... skipped (guard condition not met)\n", index+1, total, step.Name)
			return stepResult{status: "skipped", duration: time.Since(start)}
		}
	}

	if step.Run != "" {
		exitCode, err := runShellCommand(stepCtx, step.Run, step.Env, logger)
		if err != nil {
			return stepResult{status: "failed", duration: time.Since(start), err: fmt.Errorf("run: %w", err)}
		}
		if exitCode != 0 && step.mustSucceed() {
			return stepResult{status: "failed", duration: time.Since(start), err: fmt.Errorf("run: exit code %d", exitCode)}
		}

		if step.Check != "" {
			checkExitCode, err := runShellCommand(stepCtx, step.Check, step.Env, logger)
			if err != nil {
				return stepResult{status: "failed", duration: time.Since(start), err: fmt.Errorf("check: %w", err)}
			}
			if checkExitCode != 0 {
				return stepResult{status: "failed", duration: time.Since(start), err: fmt.Errorf("check: exit code %d", checkExitCode)}
			}
		}
	}

	duration := time.Since(start)
	fmt.Printf("[pipeline] step %d/%d: %s... ok (%s)\n", index+1, total, step.Name, duration.Round(time.Millisecond))
	return stepResult{status: "ok", duration: duration}
}

// runShellCommand executes a command via sh -c through procexec.Run with
// System set: stdio is inherited, the command runs in its own process
// group, and context cancellation (step timeout) escalates from SIGTERM
// to SIGKILL per lib/procexec's system bypass. Returns the exit code and
// any error from a failed spawn or a non-exit termination (e.g. a signal).
func runShellCommand(ctx context.Context, command string, env map[string]string, logger *slog.Logger) (int, error) {
	result, err := procexec.Run(ctx, procexec.Options{
		Cmd:    []string{"sh", "-c", command},
		System: true,
		Env:    env,
		Logger: logger,
	})
	if err != nil {
		return -1, err
	}
	if result.Value.Signal != "" {
		return -1, fmt.Errorf("terminated by signal %s", result.Value.Signal)
	}
	if result.Value.Status != nil {
		return *result.Value.Status, nil
	}
	return 0, nil
}
