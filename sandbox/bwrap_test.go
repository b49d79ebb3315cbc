// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"strings"
	"testing"
)

func testProfile() *Profile {
	return &Profile{
		Name:        "developer",
		Description: "test profile",
		Filesystem: []Mount{
			{Source: "${WORKTREE}", Dest: "/workspace", Mode: MountModeRW},
			{Type: MountTypeTmpfs, Dest: "/tmp"},
			{Source: "/usr", Dest: "/usr", Mode: MountModeRO},
			{Source: "/does/not/exist", Dest: "/opt/missing", Mode: MountModeRO, Optional: true},
		},
		Namespaces: NamespaceConfig{PID: true, Net: true, IPC: true, UTS: true},
		Environment: map[string]string{
			"PATH": "/usr/bin",
			"HOME": "/workspace",
		},
		Security:   SecurityConfig{NewSession: true, DieWithParent: true},
		CreateDirs: []string{"/tmp"},
	}
}

func TestBwrapBuilderBuild(t *testing.T) {
	builder := NewBwrapBuilder()
	args, err := builder.Build(&BwrapOptions{
		Profile:  testProfile(),
		Worktree: "/home/agent/work",
		Command:  []string{"/bin/echo", "hello"},
	})
	if err != nil {
		t.Fatalf("Build error = %v", err)
	}

	joined := strings.Join(args, " ")

	for _, want := range []string{
		"--unshare-pid", "--unshare-net", "--unshare-ipc", "--unshare-uts",
		"--new-session", "--die-with-parent",
		"--bind /home/agent/work /workspace",
		"--tmpfs /tmp",
		"--ro-bind /usr /usr",
		"--clearenv",
		"--setenv HOME /workspace",
		"--setenv PATH /usr/bin",
		"-- /bin/echo hello",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("Build() missing %q in: %s", want, joined)
		}
	}

	if strings.Contains(joined, "/opt/missing") {
		t.Errorf("Build() included an optional mount whose source does not exist: %s", joined)
	}
	if !strings.HasSuffix(joined, "-- /bin/echo hello") {
		t.Errorf("command must be the final argument, got: %s", joined)
	}
}

func TestBwrapBuilderExtraEnvOverridesProfile(t *testing.T) {
	builder := NewBwrapBuilder()
	args, err := builder.Build(&BwrapOptions{
		Profile:  testProfile(),
		Worktree: "/home/agent/work",
		ExtraEnv: map[string]string{"HOME": "/override"},
		Command:  []string{"true"},
	})
	if err != nil {
		t.Fatalf("Build error = %v", err)
	}

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--setenv HOME /override") {
		t.Errorf("ExtraEnv did not override profile environment: %s", joined)
	}
}

func TestBwrapBuilderRequiresFields(t *testing.T) {
	tests := []struct {
		name string
		opts *BwrapOptions
	}{
		{"missing profile", &BwrapOptions{Worktree: "/w", Command: []string{"true"}}},
		{"missing worktree", &BwrapOptions{Profile: testProfile(), Command: []string{"true"}}},
		{"missing command", &BwrapOptions{Profile: testProfile(), Worktree: "/w"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewBwrapBuilder()
			if _, err := builder.Build(tt.opts); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestParseBindSpec(t *testing.T) {
	tests := []struct {
		spec       string
		wantSource string
		wantDest   string
		wantMode   string
		wantErr    bool
	}{
		{"/src:/dst", "/src", "/dst", MountModeRW, false},
		{"/src:/dst:ro", "/src", "/dst", MountModeRO, false},
		{"/src:/dst:rw", "/src", "/dst", MountModeRW, false},
		{"/src:/dst:bogus", "", "", "", true},
		{"/src", "", "", "", true},
		{"/src:/dst:rw:extra", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			source, dest, mode, err := parseBindSpec(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseBindSpec(%q) expected error, got nil", tt.spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseBindSpec(%q) error = %v", tt.spec, err)
			}
			if source != tt.wantSource || dest != tt.wantDest || mode != tt.wantMode {
				t.Errorf("parseBindSpec(%q) = (%q, %q, %q), want (%q, %q, %q)",
					tt.spec, source, dest, mode, tt.wantSource, tt.wantDest, tt.wantMode)
			}
		})
	}
}
