// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"encoding/json"

	"github.com/bureau-foundation/procrun/lib/resultsink"
)

// helperWireResult is the agreed structured format a helper command's
// envelope is expected to contain.
type helperWireResult struct {
	ErrorCode    string          `json:"error_code"`
	Value        json.RawMessage `json:"value"`
	ErrorMessage string          `json:"error_message"`
}

// HelperResult is the rebuilt record produced by unwrapping a helper's
// envelope payload.
type HelperResult struct {
	Kind    resultsink.Kind
	Value   json.RawMessage
	Message string
}

// UnwrapHelperResult extracts the last envelope payload from lines and
// projects it onto the {error_code, value, error_message} shape every
// helper command is expected to emit. This is a trivial projection: it
// does no further interpretation of Value.
func UnwrapHelperResult(lines []string) (HelperResult, error) {
	raw, err := Extract(lines)
	if err != nil {
		return HelperResult{}, err
	}

	var wire helperWireResult
	if err := json.Unmarshal(raw, &wire); err != nil {
		return HelperResult{}, &InvalidError{Err: err}
	}

	kind := resultsink.Kind(wire.ErrorCode)
	if kind == "" {
		kind = resultsink.OK
	}
	return HelperResult{Kind: kind, Value: wire.Value, Message: wire.ErrorMessage}, nil
}
