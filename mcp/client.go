// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"
)

// defaultInitializeTimeout bounds how long Connect waits for the server to
// answer the initialize handshake.
const defaultInitializeTimeout = 60 * time.Second

// ClientOptions configures a Client. The zero value is ready to use.
type ClientOptions struct {
	// CreateMessageHandler answers sampling/createMessage requests from the
	// server. A nil handler means the client does not advertise sampling
	// support.
	CreateMessageHandler func(context.Context, *ClientRequest[*CreateMessageParams]) (*CreateMessageResult, error)
	// ListRootsHandler answers roots/list requests from the server. A nil
	// handler means the client does not advertise roots support.
	ListRootsHandler func(context.Context, *ClientRequest[*ListRootsParams]) (*ListRootsResult, error)
	// ElicitHandler answers elicitation/create requests from the server. A
	// nil handler means the client does not advertise elicitation support.
	ElicitHandler func(context.Context, *ClientRequest[*ElicitParams]) (*ElicitResult, error)
	// LoggingMessageHandler receives notifications/message notifications.
	LoggingMessageHandler func(context.Context, *ClientRequest[*LoggingMessageParams])
	// InitializeTimeout bounds the initialize handshake. Zero means
	// defaultInitializeTimeout.
	InitializeTimeout time.Duration
}

// A Client connects to a single MCP server and issues requests to it.
type Client struct {
	impl *Implementation
	opts ClientOptions
}

// NewClient creates a Client that identifies itself to servers as impl.
func NewClient(impl *Implementation, opts *ClientOptions) *Client {
	if opts == nil {
		opts = &ClientOptions{}
	}
	return &Client{impl: impl, opts: *opts}
}

// A ClientSession is a connection from a Client to one server, after a
// completed initialize handshake.
type ClientSession struct {
	client *Client
	conn   Connection
	ep     *endpoint
	done   chan struct{}

	mu           sync.Mutex
	caps         *ServerCapabilities
	serverInfo   *Implementation
	instructions string
}

// Connect dials t and performs the initialize handshake, returning once
// the server has responded or ctx (bounded additionally by
// ClientOptions.InitializeTimeout) expires.
func (c *Client) Connect(ctx context.Context, t Transport) (*ClientSession, error) {
	conn, err := t.Connect(ctx)
	if err != nil {
		return nil, err
	}
	sess := &ClientSession{client: c, conn: conn, done: make(chan struct{})}
	sess.ep = newEndpoint(conn)
	sess.ep.handleRequest = sess.handle
	sess.ep.handleNotify = sess.handleNotification
	sess.ep.onDisconnect = func(error) { close(sess.done) }

	go sess.ep.run(context.Background())

	timeout := c.opts.InitializeTimeout
	if timeout == 0 {
		timeout = defaultInitializeTimeout
	}
	initCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	caps := &ClientCapabilities{}
	if c.opts.CreateMessageHandler != nil {
		caps.Sampling = &SamplingCapability{}
	}
	if c.opts.ListRootsHandler != nil {
		caps.Roots = &RootsCapability{}
	}
	if c.opts.ElicitHandler != nil {
		caps.Elicitation = &ElicitationCapability{}
	}

	data, err := sess.ep.call(initCtx, "initialize", &InitializeParams{
		ProtocolVersion: latestProtocolVersion,
		Capabilities:    caps,
		ClientInfo:      c.impl,
	})
	if err != nil {
		sess.ep.close()
		return nil, fmt.Errorf("mcp: initialize: %w", err)
	}
	var res InitializeResult
	if err := unmarshalParams(data, &res); err != nil {
		sess.ep.close()
		return nil, fmt.Errorf("mcp: decoding initialize result: %w", err)
	}
	if !isSupportedProtocolVersion(res.ProtocolVersion) {
		sess.ep.close()
		return nil, fmt.Errorf("mcp: server returned unsupported protocol version %q", res.ProtocolVersion)
	}
	sess.mu.Lock()
	sess.caps = res.Capabilities
	sess.serverInfo = res.ServerInfo
	sess.instructions = res.Instructions
	sess.mu.Unlock()

	if err := sess.ep.notify(ctx, "notifications/initialized", &InitializedParams{}); err != nil {
		sess.ep.close()
		return nil, err
	}
	return sess, nil
}

// Wait blocks until the session's connection closes.
func (sess *ClientSession) Wait() { <-sess.done }

// Close closes the session's connection.
func (sess *ClientSession) Close() error { return sess.ep.close() }

// ServerCapabilities returns the capabilities the server advertised during
// initialize.
func (sess *ClientSession) ServerCapabilities() *ServerCapabilities {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.caps
}

// Instructions returns the server's usage guidance from InitializeResult,
// if it supplied any.
func (sess *ClientSession) Instructions() string {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.instructions
}

func (sess *ClientSession) notify(ctx context.Context, method string, params Params) error {
	return sess.ep.notify(ctx, method, params)
}

func (sess *ClientSession) handleNotification(ctx context.Context, n *Notification) {
	switch n.Method {
	case "notifications/message":
		if sess.client.opts.LoggingMessageHandler == nil {
			return
		}
		var params LoggingMessageParams
		if err := unmarshalParams(n.Params, &params); err != nil {
			return
		}
		sess.client.opts.LoggingMessageHandler(ctx, &ClientRequest[*LoggingMessageParams]{Session: sess, Params: &params})
	case "notifications/tools/list_changed", "notifications/prompts/list_changed",
		"notifications/resources/list_changed", "notifications/resources/updated":
		// No client-side cache to invalidate in this module; callers that
		// want one can re-list on demand.
	}
}

func (sess *ClientSession) handle(ctx context.Context, req *Request) (Result, error) {
	switch req.Method {
	case "sampling/createMessage":
		if sess.client.opts.CreateMessageHandler == nil {
			return nil, ErrMethodNotFound
		}
		var params CreateMessageParams
		if err := unmarshalParams(req.Params, &params); err != nil {
			return nil, &WireError{Code: CodeInvalidParams, Message: err.Error()}
		}
		return sess.client.opts.CreateMessageHandler(ctx, &ClientRequest[*CreateMessageParams]{Session: sess, Params: &params})
	case "roots/list":
		if sess.client.opts.ListRootsHandler == nil {
			return nil, ErrMethodNotFound
		}
		var params ListRootsParams
		if err := unmarshalParams(req.Params, &params); err != nil {
			return nil, &WireError{Code: CodeInvalidParams, Message: err.Error()}
		}
		return sess.client.opts.ListRootsHandler(ctx, &ClientRequest[*ListRootsParams]{Session: sess, Params: &params})
	case "elicitation/create":
		if sess.client.opts.ElicitHandler == nil {
			return nil, ErrMethodNotFound
		}
		var params ElicitParams
		if err := unmarshalParams(req.Params, &params); err != nil {
			return nil, &WireError{Code: CodeInvalidParams, Message: err.Error()}
		}
		return sess.client.opts.ElicitHandler(ctx, &ClientRequest[*ElicitParams]{Session: sess, Params: &params})
	case "ping":
		return &EmptyResult{}, nil
	default:
		return nil, ErrMethodNotFound
	}
}

// --- convenience methods for the tools/prompts/resources families ---

func (sess *ClientSession) ListTools(ctx context.Context, params *ListToolsParams) (*ListToolsResult, error) {
	if params == nil {
		params = &ListToolsParams{}
	}
	var res ListToolsResult
	if err := sess.callInto(ctx, "tools/list", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CallTool invokes a tool by name with the given arguments, which are
// marshaled to JSON as the call's params.arguments.
func (sess *ClientSession) CallTool(ctx context.Context, params *CallToolParams) (*CallToolResult, error) {
	var res CallToolResult
	if err := sess.callInto(ctx, "tools/call", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (sess *ClientSession) ListPrompts(ctx context.Context, params *ListPromptsParams) (*ListPromptsResult, error) {
	if params == nil {
		params = &ListPromptsParams{}
	}
	var res ListPromptsResult
	if err := sess.callInto(ctx, "prompts/list", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (sess *ClientSession) GetPrompt(ctx context.Context, params *GetPromptParams) (*GetPromptResult, error) {
	var res GetPromptResult
	if err := sess.callInto(ctx, "prompts/get", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (sess *ClientSession) ListResources(ctx context.Context, params *ListResourcesParams) (*ListResourcesResult, error) {
	if params == nil {
		params = &ListResourcesParams{}
	}
	var res ListResourcesResult
	if err := sess.callInto(ctx, "resources/list", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (sess *ClientSession) ListResourceTemplates(ctx context.Context, params *ListResourceTemplatesParams) (*ListResourceTemplatesResult, error) {
	if params == nil {
		params = &ListResourceTemplatesParams{}
	}
	var res ListResourceTemplatesResult
	if err := sess.callInto(ctx, "resources/templates/list", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (sess *ClientSession) ReadResource(ctx context.Context, params *ReadResourceParams) (*ReadResourceResult, error) {
	var res ReadResourceResult
	if err := sess.callInto(ctx, "resources/read", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (sess *ClientSession) Subscribe(ctx context.Context, params *SubscribeParams) error {
	var res EmptyResult
	return sess.callInto(ctx, "resources/subscribe", params, &res)
}

func (sess *ClientSession) Unsubscribe(ctx context.Context, params *UnsubscribeParams) error {
	var res EmptyResult
	return sess.callInto(ctx, "resources/unsubscribe", params, &res)
}

func (sess *ClientSession) SetLoggingLevel(ctx context.Context, level LoggingLevel) error {
	var res EmptyResult
	return sess.callInto(ctx, "logging/setLevel", &SetLoggingLevelParams{Level: level}, &res)
}

func (sess *ClientSession) Complete(ctx context.Context, params *CompleteParams) (*CompleteResult, error) {
	var res CompleteResult
	if err := sess.callInto(ctx, "completion/complete", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Ping verifies the session is alive.
func (sess *ClientSession) Ping(ctx context.Context) error {
	var res EmptyResult
	return sess.callInto(ctx, "ping", &PingParams{}, &res)
}

func (sess *ClientSession) callInto(ctx context.Context, method string, params Params, out any) error {
	data, err := sess.ep.call(ctx, method, params)
	if err != nil {
		return err
	}
	return unmarshalParams(data, out)
}

// --- lazy sequences over paginated list methods ---
//
// Each *All method issues as many list calls as needed to follow
// NextCursor, yielding one item at a time. Iteration stops early, without
// issuing further calls, if the consumer's range body returns.

func (sess *ClientSession) ToolsAll(ctx context.Context) iter.Seq2[*Tool, error] {
	return func(yield func(*Tool, error) bool) {
		cursor := ""
		for {
			res, err := sess.ListTools(ctx, &ListToolsParams{Cursor: cursor})
			if err != nil {
				yield(nil, err)
				return
			}
			for _, t := range res.Tools {
				if !yield(t, nil) {
					return
				}
			}
			if res.NextCursor == "" {
				return
			}
			cursor = res.NextCursor
		}
	}
}

func (sess *ClientSession) PromptsAll(ctx context.Context) iter.Seq2[*Prompt, error] {
	return func(yield func(*Prompt, error) bool) {
		cursor := ""
		for {
			res, err := sess.ListPrompts(ctx, &ListPromptsParams{Cursor: cursor})
			if err != nil {
				yield(nil, err)
				return
			}
			for _, p := range res.Prompts {
				if !yield(p, nil) {
					return
				}
			}
			if res.NextCursor == "" {
				return
			}
			cursor = res.NextCursor
		}
	}
}

func (sess *ClientSession) ResourcesAll(ctx context.Context) iter.Seq2[*Resource, error] {
	return func(yield func(*Resource, error) bool) {
		cursor := ""
		for {
			res, err := sess.ListResources(ctx, &ListResourcesParams{Cursor: cursor})
			if err != nil {
				yield(nil, err)
				return
			}
			for _, r := range res.Resources {
				if !yield(r, nil) {
					return
				}
			}
			if res.NextCursor == "" {
				return
			}
			cursor = res.NextCursor
		}
	}
}

func (sess *ClientSession) ResourceTemplatesAll(ctx context.Context) iter.Seq2[*ResourceTemplate, error] {
	return func(yield func(*ResourceTemplate, error) bool) {
		cursor := ""
		for {
			res, err := sess.ListResourceTemplates(ctx, &ListResourceTemplatesParams{Cursor: cursor})
			if err != nil {
				yield(nil, err)
				return
			}
			for _, t := range res.ResourceTemplates {
				if !yield(t, nil) {
					return
				}
			}
			if res.NextCursor == "" {
				return
			}
			cursor = res.NextCursor
		}
	}
}
