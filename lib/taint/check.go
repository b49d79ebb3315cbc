// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taint

import "strings"

// suspectChars are byte sequences that have no business in a plain
// argv token produced by a trusted command builder: shell metacharacters,
// redirection, substitution, and embedded newlines.
var suspectChars = []string{
	";", "|", "&", "$", "`", ">", "<", "\n", "\x00",
}

// Finding describes one tainted argument token.
type Finding struct {
	Index  int
	Token  string
	Reason string
}

// Check scans argv for tokens that look tainted. It never errors and
// never mutates argv; the caller decides whether to warn, log, or ignore
// the findings, and invocation proceeds regardless.
func Check(argv []string) []Finding {
	var findings []Finding
	for i, tok := range argv {
		if reason, ok := suspect(tok); ok {
			findings = append(findings, Finding{Index: i, Token: tok, Reason: reason})
		}
	}
	return findings
}

func suspect(tok string) (string, bool) {
	for _, c := range suspectChars {
		if strings.Contains(tok, c) {
			return "contains " + describeChar(c), true
		}
	}
	return "", false
}

func describeChar(c string) string {
	switch c {
	case "\n":
		return "embedded newline"
	case "\x00":
		return "embedded NUL"
	default:
		return "shell metacharacter " + c
	}
}
