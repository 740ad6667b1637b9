// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"errors"
	"fmt"

	internaljson "github.com/nodalmcp/mcpcore/internal/json"
)

// JSON-RPC 2.0 reserved error codes, used by this module's built-in method
// handlers. No MCP-specific codes are defined.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// WireError is the wire representation of a JSON-RPC error object. It
// implements error so it can be returned directly from a handler and
// propagated to the caller with its code intact.
type WireError struct {
	Code    int64                   `json:"code"`
	Message string                  `json:"message"`
	Data    internaljson.RawMessage `json:"data,omitempty"`
}

func (e *WireError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// ErrMethodNotFound is returned by a request dispatcher when no handler is
// registered for the request's method.
var ErrMethodNotFound = &WireError{Code: CodeMethodNotFound, Message: "method not found"}

// ErrDisconnected is returned from outbound calls made on a session whose
// transport connection has closed.
var ErrDisconnected = errors.New("session disconnected")

// Capability-gating errors returned by ServerSession's server-to-client
// helpers when the connected client never advertised the corresponding
// capability at initialize time.
var (
	ErrSamplingNotSupported    = errors.New("mcp: client does not support sampling")
	ErrRootsNotSupported       = errors.New("mcp: client does not support roots")
	ErrElicitationNotSupported = errors.New("mcp: client does not support elicitation")
)

// ErrStatelessUnsupported is returned by a ServerSession's server-to-client
// helpers when the underlying transport is a stateless Streamable HTTP
// session, which has no standalone stream to deliver a server-initiated
// request or notification on.
var ErrStatelessUnsupported = errors.New("mcp: server-to-client requests are not supported in stateless mode")

// asWireError converts an arbitrary handler error into a *WireError for
// transmission, preserving any existing code.
func asWireError(err error) *WireError {
	var we *WireError
	if errors.As(err, &we) {
		return we
	}
	return &WireError{Code: CodeInternalError, Message: err.Error()}
}
