// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package json centralizes the JSON codec used for wire framing so the rest
// of the module can swap implementations in one place. It wraps
// segmentio/encoding/json, which is API-compatible with encoding/json but
// substantially faster for the message-sized payloads the protocol core
// marshals on every request. Unlike encoding/json, Unmarshal matches object
// keys to struct fields case-sensitively.
package json

import (
	"github.com/segmentio/encoding/json"
)

// Marshal encodes v using the module's wire codec.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndent encodes v using the module's wire codec with indentation,
// used by transports that log human-readable frames.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(v, prefix, indent)
}

// Unmarshal decodes data using the module's wire codec. A key that differs
// from a field's name or tag only by case does not populate that field.
func Unmarshal(data []byte, v any) error {
	_, err := json.Parse(data, v, json.DontMatchCaseInsensitiveStructFields)
	return err
}

// RawMessage lets callers hold an undecoded JSON value without separately
// importing encoding/json.
type RawMessage = json.RawMessage
