// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"fmt"

	internaljson "github.com/nodalmcp/mcpcore/internal/json"
	"github.com/nodalmcp/mcpcore/internal/jsonrpc2"
)

// A Message is one of the four JSON-RPC 2.0 message shapes: *Request,
// *Response, *Notification, or *ErrorResponse. Rather than a tagged sum
// type, decoding inspects which fields are present in the frame, following
// the JSON-RPC wire format itself.
type Message interface {
	isMessage()
}

// Request is an outbound or inbound call that expects a Response.
type Request struct {
	ID     RequestID               `json:"id"`
	Method string                  `json:"method"`
	Params internaljson.RawMessage `json:"params,omitempty"`
}

func (*Request) isMessage() {}

// Notification is a one-way message that expects no response.
type Notification struct {
	Method string                  `json:"method"`
	Params internaljson.RawMessage `json:"params,omitempty"`
}

func (*Notification) isMessage() {}

// Response carries the successful result of a Request.
type Response struct {
	ID     RequestID               `json:"id"`
	Result internaljson.RawMessage `json:"result"`
}

func (*Response) isMessage() {}

// ErrorResponse carries the failure of a Request.
type ErrorResponse struct {
	ID    RequestID  `json:"id"`
	Error *WireError `json:"error"`
}

func (*ErrorResponse) isMessage() {}

// wireMessage is the union wire shape used to decide, on decode, which of
// the four Message kinds a frame represents: a "method" key means a
// Request or Notification (distinguished by the presence of "id"); its
// absence means a Response or ErrorResponse (distinguished by "error").
type wireMessage struct {
	ID      *RequestID              `json:"id,omitempty"`
	Method  string                  `json:"method,omitempty"`
	Params  internaljson.RawMessage `json:"params,omitempty"`
	Result  internaljson.RawMessage `json:"result,omitempty"`
	Error   *WireError              `json:"error,omitempty"`
	JSONRPC string                  `json:"jsonrpc"`
}

const jsonrpcVersion = "2.0"

// MarshalJSON encodes req into its wire frame, including the jsonrpc
// version marker.
func (req *Request) MarshalJSON() ([]byte, error) {
	return internaljson.Marshal(wireMessage{
		JSONRPC: jsonrpcVersion,
		ID:      &req.ID,
		Method:  req.Method,
		Params:  req.Params,
	})
}

// MarshalJSON encodes n into its wire frame.
func (n *Notification) MarshalJSON() ([]byte, error) {
	return internaljson.Marshal(wireMessage{
		JSONRPC: jsonrpcVersion,
		Method:  n.Method,
		Params:  n.Params,
	})
}

// MarshalJSON encodes resp into its wire frame. Result defaults to a JSON
// null when resp.Result is empty, since JSON-RPC requires the member to be
// present on success. A handler's nil result is already encoded as {} by
// marshalResult before it reaches here.
func (resp *Response) MarshalJSON() ([]byte, error) {
	result := resp.Result
	if len(result) == 0 {
		result = internaljson.RawMessage("null")
	}
	return internaljson.Marshal(wireMessage{
		JSONRPC: jsonrpcVersion,
		ID:      &resp.ID,
		Result:  result,
	})
}

// MarshalJSON encodes resp into its wire frame.
func (resp *ErrorResponse) MarshalJSON() ([]byte, error) {
	return internaljson.Marshal(wireMessage{
		JSONRPC: jsonrpcVersion,
		ID:      &resp.ID,
		Error:   resp.Error,
	})
}

// DecodeMessage decodes a single JSON-RPC frame into the concrete Message
// it represents, applying the strict field-case validation shared with the
// rest of the module's wire decoding.
func DecodeMessage(data []byte) (Message, error) {
	var wire wireMessage
	if err := jsonrpc2.StrictUnmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}
	switch {
	case wire.Method != "" && wire.ID != nil:
		return &Request{ID: *wire.ID, Method: wire.Method, Params: wire.Params}, nil
	case wire.Method != "":
		return &Notification{Method: wire.Method, Params: wire.Params}, nil
	case wire.Error != nil:
		if wire.ID == nil {
			return nil, fmt.Errorf("error response missing id")
		}
		return &ErrorResponse{ID: *wire.ID, Error: wire.Error}, nil
	case wire.ID != nil:
		return &Response{ID: *wire.ID, Result: wire.Result}, nil
	default:
		return nil, fmt.Errorf("message has neither method nor id")
	}
}
