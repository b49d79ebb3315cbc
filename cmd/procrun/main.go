// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/procrun/lib/config"
	"github.com/bureau-foundation/procrun/lib/procexec"
	"github.com/bureau-foundation/procrun/lib/process"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("procrun", pflag.ContinueOnError)

	expectsStdin := fs.Bool("stdin", false, "forward caller stdin to the child until EOF")
	stdinStr := fs.String("stdin-str", "", "write this string to child stdin in one burst, then close it")
	noisyStdout := fs.BoolP("noisy-stdout", "o", false, "mirror captured child stdout to procrun's own stdout")
	noisyStderr := fs.BoolP("noisy-stderr", "e", false, "mirror captured child stderr to procrun's own stderr")
	isHelper := fs.Bool("is-helper", false, "redact JSON_START/JSON_END envelopes from the mirrored stdout stream")
	isBinary := fs.Bool("is-binary", false, "treat child output as opaque binary: force noisy mirroring, suppress capture")
	mustSucceed := fs.Bool("must-succeed", false, "report a non-zero exit as an error-kind result")
	maxStdoutBytes := fs.Int64("max-stdout-bytes", 0, "cap captured stdout bytes before force-closing the child (0 = unbounded)")
	system := fs.Bool("system", false, "bypass the multiplex loop: run synchronously with inherited stdio")
	configPath := fs.String("config", "", "path to procrun.yaml; seeds --max-stdout-bytes and debug logging defaults")
	debug := fs.Bool("debug", false, "enable debug logging")

	var envVars []string
	fs.StringArrayVar(&envVars, "env", nil, "extra environment variable (KEY=VALUE), repeatable")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `procrun - run a command through lib/procexec and print its Result as JSON

USAGE
    procrun [flags] -- <command> [args...]

FLAGS
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	dash := fs.ArgsLenAtDash()
	var command []string
	if dash >= 0 {
		command = fs.Args()[dash:]
	} else {
		command = fs.Args()
	}
	if len(command) == 0 {
		fs.Usage()
		return fmt.Errorf("command is required after --")
	}

	opts := procexec.Options{
		Cmd:            command,
		ExpectsStdin:   *expectsStdin,
		StdinStr:       *stdinStr,
		NoisyStdout:    *noisyStdout,
		NoisyStderr:    *noisyStderr,
		IsHelper:       *isHelper,
		IsBinary:       *isBinary,
		MustSucceed:    *mustSucceed,
		MaxStdoutBytes: *maxStdoutBytes,
		System:         *system,
	}

	if *configPath != "" {
		cfg, err := config.LoadFile(*configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if opts.MaxStdoutBytes == 0 {
			opts.MaxStdoutBytes = cfg.Exec.MaxStdoutBytes
		}
		if cfg.Exec.Debug {
			*debug = true
			opts.NoisyStdout = true
			opts.NoisyStderr = true
		}
	}

	if len(envVars) > 0 {
		opts.Env = make(map[string]string, len(envVars))
		for _, kv := range envVars {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("invalid --env value %q: must be KEY=VALUE", kv)
			}
			opts.Env[k] = v
		}
	}

	logLevel := slog.LevelInfo
	if *debug || os.Getenv("PROCRUN_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	result, err := procexec.Run(ctx, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}
