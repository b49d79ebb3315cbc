// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Pipeline is a sequence of steps executed in order. A step that fails
// stops the pipeline; a step whose "when" guard does not pass is
// skipped without affecting the outcome.
type Pipeline struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one unit of pipeline work: an optional guard, the command to
// run, and an optional post-condition check.
type Step struct {
	Name string `yaml:"name"`

	// When, if set, is run first, under the same step timeout and the
	// same SIGTERM-then-SIGKILL teardown as Run. A non-zero exit skips
	// the step.
	When string `yaml:"when"`

	// Run is the step's main command, executed through sh -c.
	Run string `yaml:"run"`

	// Check, if set, runs after Run (also after a non-zero Run exit when
	// MustSucceed is false) and must exit zero. It does not run when Run
	// is empty.
	Check string `yaml:"check"`

	// Env adds environment variables on top of procrun-pipeline's own
	// environment for every command in this step.
	Env map[string]string `yaml:"env"`

	// Timeout bounds the step's total wall-clock time (guard + run +
	// check). Defaults to defaultStepTimeout when empty. On timeout,
	// lib/procexec's System path sends SIGTERM to the command's
	// process group and escalates to SIGKILL after its grace period.
	Timeout string `yaml:"timeout"`

	// MustSucceed turns Run's non-zero exit into a hard pipeline
	// failure. Defaults to true; set to false for steps whose exit
	// code is informational only.
	MustSucceed *bool `yaml:"must_succeed"`
}

// mustSucceed reports whether a non-zero Run exit should fail the step.
func (s Step) mustSucceed() bool {
	if s.MustSucceed == nil {
		return true
	}
	return *s.MustSucceed
}

// parseTimeout resolves the step's timeout, defaulting when unset.
func (s Step) parseTimeout() (time.Duration, error) {
	if s.Timeout == "" {
		return defaultStepTimeout, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s.Timeout, err)
	}
	return d, nil
}

// loadPipeline reads and parses a pipeline file.
func loadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing pipeline %s: %w", path, err)
	}
	if len(p.Steps) == 0 {
		return nil, fmt.Errorf("pipeline %s declares no steps", path)
	}
	return &p, nil
}
