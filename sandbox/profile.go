// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ProfilesConfig is the top-level shape of a profiles YAML file: a flat
// map of profile name to definition. There is no inheritance between
// profiles; each one is complete.
type ProfilesConfig struct {
	Profiles map[string]*Profile `yaml:"profiles"`
}

// ParseProfilesConfig parses a profiles YAML document, filling in each
// profile's Name from its map key.
func ParseProfilesConfig(data []byte) (*ProfilesConfig, error) {
	var config ProfilesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing profiles: %w", err)
	}
	for name, profile := range config.Profiles {
		profile.Name = name
	}
	return &config, nil
}

// LoadProfilesConfig reads and parses a profiles YAML file.
func LoadProfilesConfig(path string) (*ProfilesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles file %s: %w", path, err)
	}
	return ParseProfilesConfig(data)
}

// LoadProfiles returns the built-in default profiles, overlaid with any
// profiles declared in the file at path (a profile name present in both
// is replaced by the file's definition). An empty path returns just the
// defaults.
func LoadProfiles(path string) (map[string]*Profile, error) {
	defaults, err := ParseProfilesConfig([]byte(defaultProfilesYAML))
	if err != nil {
		return nil, fmt.Errorf("parsing built-in default profiles: %w", err)
	}
	profiles := defaults.Profiles

	if path != "" {
		fromFile, err := LoadProfilesConfig(path)
		if err != nil {
			return nil, err
		}
		for name, profile := range fromFile.Profiles {
			profiles[name] = profile
		}
	}

	return profiles, nil
}

// ListProfiles returns the sorted names of a profile set, for display.
func ListProfiles(profiles map[string]*Profile) []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultProfilesYAML contains the built-in profile definitions.
const defaultProfilesYAML = `
profiles:
  developer:
    description: "Full development access to worktree"

    filesystem:
      - source: ${WORKTREE}
        dest: /workspace
        mode: rw
      - type: tmpfs
        dest: /tmp
        optional: false
      - source: /usr
        dest: /usr
        mode: ro
      - source: /bin
        dest: /bin
        mode: ro
      - source: /lib
        dest: /lib
        mode: ro
      - source: /lib64
        dest: /lib64
        mode: ro
        optional: true
      - source: /etc/resolv.conf
        dest: /etc/resolv.conf
        mode: ro
        optional: true
      - source: /etc/ssl
        dest: /etc/ssl
        mode: ro
        optional: true
      - source: /etc/passwd
        dest: /etc/passwd
        mode: ro
      - source: /etc/group
        dest: /etc/group
        mode: ro
      - source: ${PROXY_SOCKET}
        dest: /run/procrun/proxy.sock
        mode: rw
        optional: true

    namespaces:
      pid: true
      net: true
      ipc: true
      uts: true
      cgroup: false

    environment:
      PATH: "/workspace/bin:/usr/local/bin:/usr/bin:/bin"
      HOME: "/workspace"
      TERM: "${TERM}"
      PROCRUN_PROXY_SOCKET: "/run/procrun/proxy.sock"
      PROCRUN_SANDBOX: "1"

    security:
      new_session: true
      die_with_parent: true

    create_dirs:
      - /tmp
      - /run/procrun

  readonly:
    description: "Read-only analysis and review"

    filesystem:
      - source: ${WORKTREE}
        dest: /workspace
        mode: ro
      - source: /usr
        dest: /usr
        mode: ro
      - source: /bin
        dest: /bin
        mode: ro
      - source: /lib
        dest: /lib
        mode: ro
      - source: /lib64
        dest: /lib64
        mode: ro
        optional: true
      - type: tmpfs
        dest: /tmp

    namespaces:
      pid: true
      net: true
      ipc: true
      uts: true
      cgroup: false

    environment:
      PATH: "/usr/local/bin:/usr/bin:/bin"
      HOME: "/workspace"
      TERM: "${TERM}"

    security:
      new_session: true
      die_with_parent: true

    create_dirs:
      - /tmp
`
