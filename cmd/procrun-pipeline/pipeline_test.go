// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePipelineFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing pipeline file: %v", err)
	}
	return path
}

func TestLoadPipeline(t *testing.T) {
	path := writePipelineFile(t, `
name: example
steps:
  - name: say hello
    run: echo hello
  - name: verify
    when: "true"
    run: echo checked
    check: "true"
`)

	p, err := loadPipeline(path)
	if err != nil {
		t.Fatalf("loadPipeline failed: %v", err)
	}
	if p.Name != "example" {
		t.Errorf("expected name=example, got %s", p.Name)
	}
	if len(p.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(p.Steps))
	}
	if p.Steps[1].When != "true" {
		t.Errorf("expected step 1 when=true, got %q", p.Steps[1].When)
	}
}

func TestLoadPipelineRejectsEmpty(t *testing.T) {
	path := writePipelineFile(t, "name: empty\nsteps: []\n")

	if _, err := loadPipeline(path); err == nil {
		t.Fatal("expected error for pipeline with no steps")
	}
}

func TestLoadPipelineMissingFile(t *testing.T) {
	if _, err := loadPipeline("/no/such/pipeline.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestStepMustSucceedDefaultsTrue(t *testing.T) {
	s := Step{}
	if !s.mustSucceed() {
		t.Error("expected mustSucceed() to default to true")
	}

	no := false
	s.MustSucceed = &no
	if s.mustSucceed() {
		t.Error("expected mustSucceed() to respect explicit false")
	}
}

func TestStepParseTimeout(t *testing.T) {
	s := Step{}
	d, err := s.parseTimeout()
	if err != nil {
		t.Fatalf("parseTimeout failed: %v", err)
	}
	if d != defaultStepTimeout {
		t.Errorf("expected default timeout %v, got %v", defaultStepTimeout, d)
	}

	s.Timeout = "10s"
	d, err = s.parseTimeout()
	if err != nil {
		t.Fatalf("parseTimeout failed: %v", err)
	}
	if d != 10*time.Second {
		t.Errorf("expected 10s, got %v", d)
	}

	s.Timeout = "not-a-duration"
	if _, err := s.parseTimeout(); err == nil {
		t.Fatal("expected error for invalid timeout")
	}
}
