// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/bureau-foundation/procrun/lib/procexec"
)

// Sandbox builds a bubblewrap-isolated argv for a profile and runs it
// through lib/procexec.
type Sandbox struct {
	profile     *Profile
	worktree    string
	proxySocket string
	extraBinds  []string
	extraEnv    map[string]string
	logger      *slog.Logger
}

// Config holds configuration for creating a new Sandbox.
type Config struct {
	// Profile is the resolved profile to use.
	Profile *Profile

	// Worktree is the path to the agent's worktree.
	Worktree string

	// ProxySocket is the path to the credential-proxy Unix socket.
	ProxySocket string

	// ExtraBinds are additional bind mounts (source:dest[:mode]).
	ExtraBinds []string

	// ExtraEnv are additional environment variables.
	ExtraEnv map[string]string

	// Logger for sandbox operations.
	Logger *slog.Logger
}

// New creates a new Sandbox.
func New(config Config) (*Sandbox, error) {
	if config.Profile == nil {
		return nil, fmt.Errorf("profile is required")
	}
	if config.Worktree == "" {
		return nil, fmt.Errorf("worktree is required")
	}

	worktree, err := filepath.Abs(config.Worktree)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve worktree path: %w", err)
	}

	proxySocket := config.ProxySocket
	if proxySocket == "" {
		proxySocket = "/run/procrun/proxy.sock"
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Sandbox{
		profile:     config.Profile,
		worktree:    worktree,
		proxySocket: proxySocket,
		extraBinds:  config.ExtraBinds,
		extraEnv:    config.ExtraEnv,
		logger:      logger,
	}, nil
}

// Run executes a command in the sandbox. It builds the bwrap-wrapped
// argv via Command and then delegates actual execution to
// procexec.Run with System set: the sandbox's job is constructing the
// isolated argv and a minimal environment, not re-implementing process
// execution.
func (s *Sandbox) Run(ctx context.Context, command []string) error {
	cmd, err := s.Command(ctx, command)
	if err != nil {
		return err
	}

	s.logger.Info("running sandboxed command",
		"profile", s.profile.Name,
		"worktree", s.worktree,
		"command", command,
	)

	argv := append([]string{cmd.Path}, cmd.Args[1:]...)
	result, err := procexec.Run(ctx, procexec.Options{
		Cmd:         argv,
		EnvOverride: cmd.Env,
		System:      true,
		Logger:      s.logger,
	})
	if err != nil {
		var execErr *procexec.ExecFailedError
		if errors.As(err, &execErr) {
			return fmt.Errorf("sandbox command failed: %w", err)
		}
		return err
	}

	if result.Value.Status != nil && *result.Value.Status != 0 {
		return &ExitError{Code: *result.Value.Status}
	}
	if result.Value.Signal != "" {
		return fmt.Errorf("sandboxed command terminated by signal %s", result.Value.Signal)
	}
	return nil
}

// Command creates an exec.Cmd for running in the sandbox. Useful for
// custom I/O handling or testing, and used internally by Run and
// DryRun to share the argv-building logic.
func (s *Sandbox) Command(ctx context.Context, command []string) (*exec.Cmd, error) {
	fullCmd, err := s.bwrapArgv(command)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, fullCmd[0], fullCmd[1:]...)

	// Explicitly set a minimal environment for the bwrap process itself.
	// If cmd.Env is nil, Go inherits the parent's full environment, and
	// even though bwrap uses --clearenv internally for the child, the
	// bwrap process itself would have the parent's env in
	// /proc/<pid>/environ, creating a sandbox escape where the
	// sandboxed process can read /proc/1/environ to extract secrets.
	cmd.Env = []string{
		"PATH=/usr/local/bin:/usr/bin:/bin",
		"TERM=" + os.Getenv("TERM"),
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	return cmd, nil
}

// DryRun returns the argv that would be executed, without running it.
func (s *Sandbox) DryRun(command []string) ([]string, error) {
	return s.bwrapArgv(command)
}

// bwrapArgv expands the profile's variables and builds the full
// bwrap-prefixed command line shared by Command and DryRun.
func (s *Sandbox) bwrapArgv(command []string) ([]string, error) {
	vars := DefaultVariables()
	vars["WORKTREE"] = s.worktree
	vars["PROXY_SOCKET"] = s.proxySocket
	profile := vars.ExpandProfile(s.profile)

	builder := NewBwrapBuilder()
	bwrapArgs, err := builder.Build(&BwrapOptions{
		Profile:    profile,
		Worktree:   s.worktree,
		ExtraBinds: s.extraBinds,
		ExtraEnv:   s.extraEnv,
		Command:    command,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build bwrap command: %w", err)
	}

	bwrapPath, err := BwrapPath()
	if err != nil {
		return nil, err
	}

	return append([]string{bwrapPath}, bwrapArgs...), nil
}

// Profile returns the sandbox's profile.
func (s *Sandbox) Profile() *Profile {
	return s.profile
}

// Worktree returns the sandbox's worktree path.
func (s *Sandbox) Worktree() string {
	return s.worktree
}

// ExitError represents a non-zero exit from the sandboxed command.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.Code)
}

// IsExitError checks if an error is an ExitError and returns the code.
func IsExitError(err error) (int, bool) {
	if exitErr, ok := err.(*ExitError); ok {
		return exitErr.Code, true
	}
	return 0, false
}
