// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/procrun/lib/process"
)

func main() {
	fs := flag.NewFlagSet("procrun-pipeline", flag.ExitOnError)
	debug := fs.Bool("debug", false, "enable debug logging")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `procrun-pipeline - run a sequence of shell steps declared in a YAML file

USAGE
    procrun-pipeline [flags] <pipeline.yaml>

FLAGS
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if *debug || os.Getenv("PROCRUN_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	pipeline, err := loadPipeline(fs.Arg(0))
	if err != nil {
		process.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	fmt.Printf("[pipeline] %s: %d step(s)\n", pipeline.Name, len(pipeline.Steps))

	for i, step := range pipeline.Steps {
		result := executeStep(ctx, step, i, len(pipeline.Steps), logger)
		if result.status == "failed" {
			fmt.Fprintf(os.Stderr, "[pipeline] step %d/%d: %s... failed: %v\n", i+1, len(pipeline.Steps), step.Name, result.err)
			os.Exit(1)
		}
	}

	fmt.Printf("[pipeline] %s: all steps completed\n", pipeline.Name)
}
