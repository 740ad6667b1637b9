// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import "context"

// A ServerRequest bundles the parameters of an inbound request together
// with the ServerSession it arrived on, giving a handler access to the
// session for progress reporting and server-to-client calls.
type ServerRequest[P Params] struct {
	Session *ServerSession
	Params  P
}

// A ClientRequest bundles the parameters of an inbound request together
// with the ClientSession it arrived on.
type ClientRequest[P Params] struct {
	Session *ClientSession
	Params  P
}

// Progress reports progress on the request to the caller, using the
// request's progress token. It returns ErrNoProgressToken if the caller
// didn't supply one.
func (r *ServerRequest[P]) Progress(ctx context.Context, msg string, progress, total float64) error {
	token, ok := any(r.Params).(Params).GetProgressToken()
	if !ok {
		return ErrNoProgressToken
	}
	return r.Session.notify(ctx, "notifications/progress", &ProgressParams{
		ProgressToken: token,
		Progress:      progress,
		Total:         total,
		Message:       msg,
	})
}

// Progress reports progress on a client-issued request, e.g. a long-running
// sampling/createMessage call.
func (r *ClientRequest[P]) Progress(ctx context.Context, msg string, progress, total float64) error {
	token, ok := any(r.Params).(Params).GetProgressToken()
	if !ok {
		return ErrNoProgressToken
	}
	return r.Session.notify(ctx, "notifications/progress", &ProgressParams{
		ProgressToken: token,
		Progress:      progress,
		Total:         total,
		Message:       msg,
	})
}

// A ToolHandler implements a registered tool. args has already been
// unmarshaled from req.Params.Arguments and validated against the tool's
// input schema.
//
// A returned err is not sent as a JSON-RPC error: the server converts it
// into a CallToolResult with IsError set and a single text block holding
// err's message (see CallToolResult.SetError), so the model sees the
// failure and can react to it.
type ToolHandler func(ctx context.Context, req *ServerRequest[*CallToolParams], args any) (*CallToolResult, error)

// A PromptHandler implements a registered prompt.
type PromptHandler func(ctx context.Context, req *ServerRequest[*GetPromptParams]) (*GetPromptResult, error)

// A ResourceHandler implements a registered resource or resource template.
// For a template, req.Params.URI is the concrete URI the client requested,
// already matched against the template.
type ResourceHandler func(ctx context.Context, req *ServerRequest[*ReadResourceParams]) (*ReadResourceResult, error)

// A CompletionHandler implements completion/complete for a single
// prompt-argument or resource-template reference.
type CompletionHandler func(ctx context.Context, req *ServerRequest[*CompleteParams]) (*CompleteResult, error)
