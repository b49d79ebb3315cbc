// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// procrun-sandbox runs commands in an isolated bubblewrap sandbox.
//
// Usage:
//
//	procrun-sandbox run [flags] -- <command> [args...]
//	procrun-sandbox list-profiles [flags]
//	procrun-sandbox show-profile [flags] <name>
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bureau-foundation/procrun/lib/config"
	"github.com/bureau-foundation/procrun/sandbox"
)

// procrunSandboxVersion is the build version of this binary. It is kept as
// a plain constant rather than version metadata pulled from a build-info
// package, since procrun has no release/build-stamping pipeline of its own.
const procrunSandboxVersion = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if os.Getenv("PROCRUN_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "run":
		err = runCmd(args, logger)
	case "list-profiles":
		err = listProfilesCmd(args)
	case "show-profile":
		err = showProfileCmd(args)
	case "version", "--version", "-v":
		fmt.Printf("procrun-sandbox %s\n", procrunSandboxVersion)
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if code, ok := sandbox.IsExitError(err); ok {
			os.Exit(code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`procrun-sandbox - Run commands in isolated bubblewrap sandboxes

USAGE
    procrun-sandbox <command> [flags] [-- <args>...]

COMMANDS
    run           Run a command in the sandbox
    list-profiles List available profiles
    show-profile  Show profile details
    version       Show version

EXAMPLES
    # Run a command in the developer profile
    procrun-sandbox run --profile=developer --worktree=/path/to/work -- bash

    # Dry run to see the bwrap command
    procrun-sandbox run --profile=developer --worktree=/path/to/work --dry-run -- bash

ENVIRONMENT
    PROCRUN_ROOT         Base directory for procrun (default: ~/.cache/procrun)
    PROCRUN_CONFIG       Path to procrun.yaml config file
    PROCRUN_DEBUG        Enable debug logging

For more information, see: https://github.com/bureau-foundation/procrun
`)
}

// loadProfiles loads the built-in profiles, overlaid with the file named by
// PROCRUN_CONFIG's sandbox.profiles_file, if set.
func loadProfiles(logger *slog.Logger) (map[string]*sandbox.Profile, error) {
	profilesFile := ""
	if configPath := os.Getenv("PROCRUN_CONFIG"); configPath != "" {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			logger.Warn("failed to load PROCRUN_CONFIG, using built-in profiles only", "error", err)
		} else {
			profilesFile = cfg.Sandbox.ProfilesFile
		}
	}

	return sandbox.LoadProfiles(profilesFile)
}

// runCmd implements the "run" command.
func runCmd(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)

	profile := fs.String("profile", "developer", "Profile name")
	worktree := fs.String("worktree", "", "Path to agent worktree (required)")
	proxySocket := fs.String("proxy-socket", "", "Override proxy socket path")
	dryRun := fs.Bool("dry-run", false, "Print command without executing")
	verbose := fs.Bool("verbose", false, "Show bwrap command being executed")

	var extraBinds stringSlice
	var extraEnvs stringSlice
	fs.Var(&extraBinds, "bind", "Extra bind mount (source:dest[:mode]), repeatable")
	fs.Var(&extraEnvs, "env", "Extra environment variable (KEY=VALUE), repeatable")

	fs.Usage = func() {
		fmt.Print(`procrun-sandbox run - Run a command in the sandbox

USAGE
    procrun-sandbox run [flags] -- <command> [args...]

FLAGS
`)
		fs.PrintDefaults()
		fmt.Print(`
EXAMPLES
    procrun-sandbox run --profile=developer --worktree=/work -- bash
    procrun-sandbox run --profile=developer --worktree=/work --dry-run -- bash
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	command := fs.Args()
	if len(command) == 0 {
		return fmt.Errorf("command is required after --")
	}
	if *worktree == "" {
		return fmt.Errorf("--worktree is required")
	}

	profiles, err := loadProfiles(logger)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	prof, ok := profiles[*profile]
	if !ok {
		return fmt.Errorf("unknown profile %q (available: %s)", *profile, strings.Join(sandbox.ListProfiles(profiles), ", "))
	}

	extraEnvMap := make(map[string]string)
	for _, env := range extraEnvs {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid env format %q: must be KEY=VALUE", env)
		}
		extraEnvMap[parts[0]] = parts[1]
	}

	sb, err := sandbox.New(sandbox.Config{
		Profile:     prof,
		Worktree:    *worktree,
		ProxySocket: *proxySocket,
		ExtraBinds:  extraBinds,
		ExtraEnv:    extraEnvMap,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	if *dryRun || *verbose {
		fullCmd, err := sb.DryRun(command)
		if err != nil {
			return err
		}
		if *dryRun {
			fmt.Println(strings.Join(fullCmd, " \\\n  "))
			return nil
		}
		if *verbose {
			logger.Info("executing sandbox command", "command", strings.Join(fullCmd, " "))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return sb.Run(ctx, command)
}

// listProfilesCmd implements the "list-profiles" command.
func listProfilesCmd(args []string) error {
	fs := flag.NewFlagSet("list-profiles", flag.ExitOnError)
	profilesFile := fs.String("profiles-file", "", "Additional profiles YAML file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	profiles, err := sandbox.LoadProfiles(*profilesFile)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}

	fmt.Println("Available profiles:")
	for _, name := range sandbox.ListProfiles(profiles) {
		fmt.Printf("  %s - %s\n", name, profiles[name].Description)
	}

	return nil
}

// showProfileCmd implements the "show-profile" command.
func showProfileCmd(args []string) error {
	fs := flag.NewFlagSet("show-profile", flag.ExitOnError)
	profilesFile := fs.String("profiles-file", "", "Additional profiles YAML file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("profile name required")
	}
	name := fs.Arg(0)

	profiles, err := sandbox.LoadProfiles(*profilesFile)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}

	prof, ok := profiles[name]
	if !ok {
		return fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(sandbox.ListProfiles(profiles), ", "))
	}

	fmt.Printf("Profile: %s\n", prof.Name)
	fmt.Printf("Description: %s\n", prof.Description)
	fmt.Println()

	fmt.Println("Namespaces:")
	fmt.Printf("  PID: %v\n", prof.Namespaces.PID)
	fmt.Printf("  Net: %v\n", prof.Namespaces.Net)
	fmt.Printf("  IPC: %v\n", prof.Namespaces.IPC)
	fmt.Printf("  UTS: %v\n", prof.Namespaces.UTS)
	fmt.Printf("  Cgroup: %v\n", prof.Namespaces.Cgroup)
	fmt.Println()

	fmt.Println("Security:")
	fmt.Printf("  New Session: %v\n", prof.Security.NewSession)
	fmt.Printf("  Die With Parent: %v\n", prof.Security.DieWithParent)
	fmt.Println()

	fmt.Println("Filesystem Mounts:")
	for _, m := range prof.Filesystem {
		mode := m.Mode
		if mode == "" {
			mode = "rw"
		}
		optional := ""
		if m.Optional {
			optional = " (optional)"
		}
		if m.Type == "" || m.Type == sandbox.MountTypeDevBind {
			fmt.Printf("  %s -> %s [%s]%s\n", m.Source, m.Dest, mode, optional)
		} else {
			fmt.Printf("  %s at %s%s\n", m.Type, m.Dest, optional)
		}
	}
	fmt.Println()

	fmt.Println("Environment:")
	for k, v := range prof.Environment {
		fmt.Printf("  %s=%s\n", k, v)
	}

	return nil
}

// stringSlice implements flag.Value for repeatable string flags.
type stringSlice []string

func (s *stringSlice) String() string {
	return strings.Join(*s, ", ")
}

func (s *stringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}
