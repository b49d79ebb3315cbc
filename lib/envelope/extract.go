// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	startMarker = "JSON_START"
	endMarker   = "JSON_END"
)

// ErrEmpty is returned when no JSON_START/JSON_END block was ever
// completed in the input.
var ErrEmpty = errors.New("envelope: no payload captured")

// InvalidError wraps the underlying decode failure when a captured
// block is not valid JSON.
type InvalidError struct {
	Err error
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("envelope: captured block is not valid JSON: %v", e.Err)
}

func (e *InvalidError) Unwrap() error { return e.Err }

// Extract walks lines with the two-state machine described by the wire
// protocol: OUTSIDE until a line exactly equal to JSON_START is seen,
// then INSIDE accumulating lines until a line exactly equal to JSON_END
// is seen. Multiple payloads may appear; only the last completed one is
// returned. Each line must already have its trailing whitespace/line
// terminator stripped.
//
// Returns ErrEmpty if no block ever completed.
func Extract(lines []string) (json.RawMessage, error) {
	const (
		outside = iota
		inside
	)

	state := outside
	var current []string
	var last json.RawMessage
	found := false

	for _, line := range lines {
		switch state {
		case outside:
			if line == startMarker {
				state = inside
				current = current[:0]
			}
		case inside:
			if line == endMarker {
				state = outside
				last = json.RawMessage(strings.Join(current, "\n"))
				found = true
			} else {
				current = append(current, line)
			}
		}
	}

	if !found {
		return nil, ErrEmpty
	}
	return last, nil
}

// ExtractString is Extract for a single unsplit string, splitting on "\n"
// and trimming a trailing "\r" from each line (so CRLF input behaves the
// same as LF input).
func ExtractString(s string) (json.RawMessage, error) {
	return Extract(splitLines(s))
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Decode extracts the last payload and unmarshals it into a generic
// value. Returns ErrEmpty if no block was captured, or an *InvalidError
// if the block is not valid JSON.
func Decode(lines []string) (any, error) {
	raw, err := Extract(lines)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, &InvalidError{Err: err}
	}
	return v, nil
}
