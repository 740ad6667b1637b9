// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"fmt"

	internaljson "github.com/nodalmcp/mcpcore/internal/json"
)

// A RequestID identifies a JSON-RPC request. It is either a string or an
// integer, never both, and the two are distinguished even when they would
// compare equal as values: RequestID{Int: 2} != RequestID{String: "2"}.
type RequestID struct {
	// String holds the id when it was sent as a JSON string.
	String string
	// Int holds the id when it was sent as a JSON number.
	Int int64
	// IsString reports which branch is populated.
	IsString bool
}

// NewRequestID wraps a string or integer id. It panics for any other type,
// since only those two are wire-legal for a JSON-RPC 2.0 request id.
func NewRequestID(id any) RequestID {
	switch v := id.(type) {
	case string:
		return RequestID{String: v, IsString: true}
	case int:
		return RequestID{Int: int64(v)}
	case int64:
		return RequestID{Int: v}
	default:
		panic(fmt.Sprintf("invalid request id type %T", id))
	}
}

// Raw returns the id as the string or int64 value it wraps.
func (id RequestID) Raw() any {
	if id.IsString {
		return id.String
	}
	return id.Int
}

func (id RequestID) String_() string {
	if id.IsString {
		return id.String
	}
	return fmt.Sprintf("%d", id.Int)
}

// MarshalJSON marshals the id as the raw JSON primitive it represents.
func (id RequestID) MarshalJSON() ([]byte, error) {
	if id.IsString {
		return internaljson.Marshal(id.String)
	}
	return internaljson.Marshal(id.Int)
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	var s string
	if err := internaljson.Unmarshal(data, &s); err == nil {
		*id = RequestID{String: s, IsString: true}
		return nil
	}
	var n int64
	if err := internaljson.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("request id must be a string or integer: %w", err)
	}
	*id = RequestID{Int: n}
	return nil
}

// Meta carries the protocol's reserved "_meta" object, including the
// optional progress token threaded through a request. It is embedded
// anonymously in every params type, so its methods are promoted and supply
// GetProgressToken and SetProgressToken of the [Params] interface; each
// params type declares its own isParams.
type Meta map[string]any

const progressTokenKey = "progressToken"

// GetProgressToken returns the request's progress token and whether one was
// set.
func (m Meta) GetProgressToken() (any, bool) {
	if m == nil {
		return nil, false
	}
	t, ok := m[progressTokenKey]
	return t, ok
}

// SetProgressToken attaches a progress token, allocating the map if needed.
func (m *Meta) SetProgressToken(t any) {
	if *m == nil {
		*m = Meta{}
	}
	(*m)[progressTokenKey] = t
}

// Params is implemented by every request/notification parameter type: the
// embedded [Meta] field supplies the progress-token methods, and each type
// declares isParams itself.
type Params interface {
	isParams()
	GetProgressToken() (any, bool)
	SetProgressToken(t any)
}

// Result is implemented by every request's result type.
type Result interface {
	isResult()
}
