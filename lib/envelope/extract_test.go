// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"errors"
	"testing"
)

func TestExtractEmpty(t *testing.T) {
	_, err := Extract([]string{"hello", "world"})
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("Extract with no markers = %v, want ErrEmpty", err)
	}
}

func TestExtractSingleBlock(t *testing.T) {
	lines := []string{
		"hi",
		startMarker,
		`{"a":1}`,
		endMarker,
		"bye",
	}
	raw, err := Extract(lines)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if string(raw) != `{"a":1}` {
		t.Fatalf("Extract() = %q, want %q", raw, `{"a":1}`)
	}
}

func TestExtractLastBlockWins(t *testing.T) {
	lines := []string{
		startMarker, `{"a":1}`, endMarker,
		"noise",
		startMarker, `{"a":2}`, endMarker,
	}
	raw, err := Extract(lines)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if string(raw) != `{"a":2}` {
		t.Fatalf("Extract() = %q, want the second block", raw)
	}
}

func TestExtractMultilineBlockRejoinsWithNewline(t *testing.T) {
	lines := []string{startMarker, "{", `"a":1`, "}", endMarker}
	raw, err := Extract(lines)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := "{\n\"a\":1\n}"
	if string(raw) != want {
		t.Fatalf("Extract() = %q, want %q", raw, want)
	}
}

func TestExtractUnterminatedBlockIsEmpty(t *testing.T) {
	lines := []string{startMarker, `{"a":1}`}
	_, err := Extract(lines)
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("Extract() with no closing marker = %v, want ErrEmpty", err)
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	lines := []string{startMarker, "not json", endMarker}
	_, err := Decode(lines)
	var invalid *InvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("Decode() error = %v, want *InvalidError", err)
	}
}

func TestDecodeValid(t *testing.T) {
	lines := []string{startMarker, `{"error_code":"OK","value":1,"error_message":""}`, endMarker}
	v, err := Decode(lines)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("Decode() = %T, want map[string]any", v)
	}
	if m["error_code"] != "OK" {
		t.Fatalf("decoded error_code = %v, want OK", m["error_code"])
	}
}

func TestExtractStringSplitsLines(t *testing.T) {
	s := "hi\r\n" + startMarker + "\r\n" + `{"a":1}` + "\r\n" + endMarker + "\r\n"
	raw, err := ExtractString(s)
	if err != nil {
		t.Fatalf("ExtractString() error = %v", err)
	}
	if string(raw) != `{"a":1}` {
		t.Fatalf("ExtractString() = %q, want %q", raw, `{"a":1}`)
	}
}
