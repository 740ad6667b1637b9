// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// ServerOptions configures a Server. The zero value is ready to use.
type ServerOptions struct {
	// Instructions are returned to the client in InitializeResult, as
	// guidance on how to use the server's primitives.
	Instructions string
	// ProtocolVersion, if set, is always returned in InitializeResult
	// regardless of what the client requested. Leave unset to negotiate:
	// the client's requested version is echoed back when this module
	// supports it, else the latest supported version is returned.
	ProtocolVersion string
	// PageSize bounds the number of items returned by a single list call
	// before a cursor is issued for the remainder. Zero means unbounded.
	PageSize int
	// Logger receives diagnostics for conditions that are logged and
	// dropped rather than propagated: failed list_changed notifications,
	// errors a session ended with, unhandled notifications, and failures
	// to save session state. Malformed inbound frames are reported through
	// the standard log package instead, and handler panics are not
	// recovered. A nil Logger discards these.
	Logger *log.Logger
	// SessionStore persists per-session initialize params and log level
	// across reconnects that share a transport-level session id (notably
	// Streamable HTTP, where a client may resume against a new TCP
	// connection using the same Mcp-Session-Id). Connect loads stored
	// state only for a transport with a non-empty SessionID; the built-in
	// StreamableHTTPHandler mints a fresh id for each new session and
	// answers an unknown id with 404, so with it state is saved but not
	// read back. A nil SessionStore means sessions never survive a
	// reconnect; reinitialization is required each time.
	SessionStore SessionStore
}

// A Server offers tools, prompts, and resources to MCP clients over one or
// more connections. A single Server can be Connect-ed to many transports
// concurrently; each call returns an independent ServerSession.
type Server struct {
	impl *Implementation
	opts ServerOptions

	tools             *featureSet[*serverTool]
	prompts           *featureSet[*serverPrompt]
	resources         *featureSet[*serverResource]
	resourceTemplates *featureSet[*resourceRoute]

	mu       sync.Mutex
	sessions map[*ServerSession]bool
}

type serverPrompt struct {
	prompt  *Prompt
	handler PromptHandler
}

type serverResource struct {
	resource *Resource
	handler  ResourceHandler
}

// NewServer creates a Server that identifies itself to clients as impl.
func NewServer(impl *Implementation, opts *ServerOptions) *Server {
	if opts == nil {
		opts = &ServerOptions{}
	}
	s := &Server{
		impl:     impl,
		opts:     *opts,
		sessions: make(map[*ServerSession]bool),
	}
	s.tools = newFeatureSet[*serverTool](func() { s.notifyAll("notifications/tools/list_changed", &ToolListChangedParams{}) })
	s.prompts = newFeatureSet[*serverPrompt](func() { s.notifyAll("notifications/prompts/list_changed", &PromptListChangedParams{}) })
	s.resources = newFeatureSet[*serverResource](func() { s.notifyAll("notifications/resources/list_changed", &ResourceListChangedParams{}) })
	s.resourceTemplates = newFeatureSet[*resourceRoute](func() { s.notifyAll("notifications/resources/list_changed", &ResourceListChangedParams{}) })
	return s
}

// AddTool registers a tool, replacing any previous tool with the same name.
func (s *Server) AddTool(t *Tool, h ToolHandler) error {
	st, err := newServerTool(t, h)
	if err != nil {
		return fmt.Errorf("mcp: adding tool %q: %w", t.Name, err)
	}
	s.tools.add(t.Name, st)
	return nil
}

// RemoveTool removes a tool by name.
func (s *Server) RemoveTool(name string) { s.tools.remove(name) }

// AddPrompt registers a prompt, replacing any previous prompt with the same
// name.
func (s *Server) AddPrompt(p *Prompt, h PromptHandler) {
	s.prompts.add(p.Name, &serverPrompt{prompt: p, handler: h})
}

// RemovePrompt removes a prompt by name.
func (s *Server) RemovePrompt(name string) { s.prompts.remove(name) }

// AddResource registers a concrete resource at a fixed URI, replacing any
// previous resource at that URI.
func (s *Server) AddResource(r *Resource, h ResourceHandler) {
	s.resources.add(r.URI, &serverResource{resource: r, handler: h})
}

// RemoveResource removes a resource by URI.
func (s *Server) RemoveResource(uri string) { s.resources.remove(uri) }

// AddResourceTemplate registers a resource template, whose URITemplate is
// matched against the URI of a resources/read request that doesn't match
// any concrete resource.
func (s *Server) AddResourceTemplate(t *ResourceTemplate, h ResourceHandler) error {
	route, err := newResourceRoute(t, h)
	if err != nil {
		return fmt.Errorf("mcp: adding resource template %q: %w", t.URITemplate, err)
	}
	s.resourceTemplates.add(t.URITemplate, route)
	return nil
}

// RemoveResourceTemplate removes a resource template by its URITemplate
// string.
func (s *Server) RemoveResourceTemplate(uriTemplate string) { s.resourceTemplates.remove(uriTemplate) }

func (s *Server) logf(format string, args ...any) {
	if s.opts.Logger != nil {
		s.opts.Logger.Printf(format, args...)
	}
}

func (s *Server) notifyAll(method string, params Params) {
	s.mu.Lock()
	sessions := make([]*ServerSession, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		if sess.initialized() {
			if err := sess.notify(context.Background(), method, params); err != nil {
				s.logf("mcp: notifying session of %s: %v", method, err)
			}
		}
	}
}

// Run connects t, then blocks until the resulting session's connection
// closes. It returns an error only if connecting fails; the reason the
// session ended is not reported.
func (s *Server) Run(ctx context.Context, t Transport) error {
	sess, err := s.Connect(ctx, t)
	if err != nil {
		return err
	}
	sess.Wait()
	return nil
}

// Connect starts serving t as a new client connection, returning the
// ServerSession once the connection is established. The session's message
// loop runs in a background goroutine; call Wait to block until it ends.
func (s *Server) Connect(ctx context.Context, t Transport) (*ServerSession, error) {
	conn, err := t.Connect(ctx)
	if err != nil {
		return nil, err
	}
	sess := &ServerSession{
		server: s,
		conn:   conn,
		done:   make(chan struct{}),
	}
	sess.ep = newEndpoint(conn)
	sess.ep.handleRequest = sess.handle
	sess.ep.handleNotify = sess.handleNotification
	sess.ep.onDisconnect = func(error) {
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
		close(sess.done)
	}

	s.mu.Lock()
	s.sessions[sess] = true
	s.mu.Unlock()

	if s.opts.SessionStore != nil {
		if id := conn.SessionID(); id != "" {
			if state, err := s.opts.SessionStore.Load(ctx, id); err == nil {
				sess.mu.Lock()
				sess.initParams = state.InitializeParams
				sess.logLevel = state.LogLevel
				sess.inited = state.InitializeParams != nil
				if state.InitializeParams != nil {
					sess.clientCaps = state.InitializeParams.Capabilities
				}
				sess.mu.Unlock()
			}
		}
	}

	go func() {
		if err := sess.ep.run(ctx); err != nil {
			s.logf("mcp: session ended: %v", err)
		}
	}()
	return sess, nil
}

// A ServerSession is one client connection to a Server.
type ServerSession struct {
	server *Server
	conn   Connection
	ep     *endpoint
	done   chan struct{}

	mu         sync.Mutex
	initParams *InitializeParams
	inited     bool
	logLevel   LoggingLevel
	clientCaps *ClientCapabilities
}

func (sess *ServerSession) initialized() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.inited
}

func (sess *ServerSession) notify(ctx context.Context, method string, params Params) error {
	return sess.ep.notify(ctx, method, params)
}

// Wait blocks until the session's connection closes.
func (sess *ServerSession) Wait() { <-sess.done }

// Close closes the session's connection.
func (sess *ServerSession) Close() error { return sess.ep.close() }

// SessionID returns the transport-level session id, if any.
func (sess *ServerSession) SessionID() string { return sess.conn.SessionID() }

// handle dispatches a single inbound request to the appropriate built-in
// method handler.
func (sess *ServerSession) handle(ctx context.Context, req *Request) (Result, error) {
	sess.mu.Lock()
	initialized := sess.inited
	sess.mu.Unlock()

	if !initialized && req.Method != "initialize" && req.Method != "ping" {
		return nil, &WireError{Code: CodeInvalidRequest, Message: "session not initialized"}
	}

	switch req.Method {
	case "initialize":
		return sess.doInitialize(ctx, req)
	case "ping":
		return &EmptyResult{}, nil
	case "tools/list":
		return sess.doListTools(ctx, req)
	case "tools/call":
		return sess.doCallTool(ctx, req)
	case "prompts/list":
		return sess.doListPrompts(ctx, req)
	case "prompts/get":
		return sess.doGetPrompt(ctx, req)
	case "resources/list":
		return sess.doListResources(ctx, req)
	case "resources/templates/list":
		return sess.doListResourceTemplates(ctx, req)
	case "resources/read":
		return sess.doReadResource(ctx, req)
	case "resources/subscribe":
		return sess.doSubscribe(ctx, req)
	case "resources/unsubscribe":
		return sess.doUnsubscribe(ctx, req)
	case "logging/setLevel":
		return sess.doSetLoggingLevel(ctx, req)
	case "completion/complete":
		return &CompleteResult{Completion: CompletionDetails{Values: nil}}, nil
	default:
		return nil, ErrMethodNotFound
	}
}

func (sess *ServerSession) handleNotification(ctx context.Context, n *Notification) {
	if n.Method == "notifications/initialized" {
		return
	}
	sess.server.logf("mcp: unhandled notification %q", n.Method)
}

func (sess *ServerSession) doInitialize(ctx context.Context, req *Request) (Result, error) {
	sess.mu.Lock()
	if sess.inited {
		sess.mu.Unlock()
		return nil, &WireError{Code: CodeInvalidRequest, Message: "session already initialized"}
	}
	sess.mu.Unlock()

	var params InitializeParams
	if err := unmarshalParams(req.Params, &params); err != nil {
		return nil, &WireError{Code: CodeInvalidParams, Message: err.Error()}
	}

	sess.mu.Lock()
	sess.initParams = &params
	sess.inited = true
	sess.logLevel = LogInfo
	sess.clientCaps = params.Capabilities
	sess.mu.Unlock()
	sess.saveState(ctx)

	caps := &ServerCapabilities{
		Logging:   &LoggingCapability{},
		Tools:     &ToolsCapability{ListChanged: true},
		Prompts:   &PromptsCapability{ListChanged: true},
		Resources: &ResourcesCapability{ListChanged: true},
	}
	return &InitializeResult{
		ProtocolVersion: sess.server.negotiateProtocolVersion(params.ProtocolVersion),
		Capabilities:    caps,
		ServerInfo:      sess.server.impl,
		Instructions:    sess.server.opts.Instructions,
	}, nil
}

// negotiateProtocolVersion picks the protocol version InitializeResult
// reports: the server's configured override if set, else the client's
// requested version if this module supports it, else the latest version
// this module supports.
func (s *Server) negotiateProtocolVersion(requested string) string {
	if s.opts.ProtocolVersion != "" {
		return s.opts.ProtocolVersion
	}
	if isSupportedProtocolVersion(requested) {
		return requested
	}
	return latestProtocolVersion
}

func (sess *ServerSession) doListTools(ctx context.Context, req *Request) (Result, error) {
	var params ListToolsParams
	if err := unmarshalParams(req.Params, &params); err != nil {
		return nil, &WireError{Code: CodeInvalidParams, Message: err.Error()}
	}
	page, next, err := paginate(sess.server.tools.list(), params.Cursor, sess.server.opts.PageSize)
	if err != nil {
		return nil, err
	}
	out := make([]*Tool, len(page))
	for i, t := range page {
		out[i] = t.tool
	}
	return &ListToolsResult{Tools: out, NextCursor: next}, nil
}

func (sess *ServerSession) doCallTool(ctx context.Context, req *Request) (Result, error) {
	var params CallToolParams
	if err := unmarshalParams(req.Params, &params); err != nil {
		return nil, &WireError{Code: CodeInvalidParams, Message: err.Error()}
	}
	st, ok := sess.server.tools.get(params.Name)
	if !ok {
		return nil, &WireError{Code: CodeInvalidParams, Message: fmt.Sprintf("unknown tool %q", params.Name)}
	}
	return st.call(ctx, &ServerRequest[*CallToolParams]{Session: sess, Params: &params})
}

func (sess *ServerSession) doListPrompts(ctx context.Context, req *Request) (Result, error) {
	var params ListPromptsParams
	if err := unmarshalParams(req.Params, &params); err != nil {
		return nil, &WireError{Code: CodeInvalidParams, Message: err.Error()}
	}
	page, next, err := paginate(sess.server.prompts.list(), params.Cursor, sess.server.opts.PageSize)
	if err != nil {
		return nil, err
	}
	out := make([]*Prompt, len(page))
	for i, p := range page {
		out[i] = p.prompt
	}
	return &ListPromptsResult{Prompts: out, NextCursor: next}, nil
}

func (sess *ServerSession) doGetPrompt(ctx context.Context, req *Request) (Result, error) {
	var params GetPromptParams
	if err := unmarshalParams(req.Params, &params); err != nil {
		return nil, &WireError{Code: CodeInvalidParams, Message: err.Error()}
	}
	p, ok := sess.server.prompts.get(params.Name)
	if !ok {
		return nil, &WireError{Code: CodeInvalidParams, Message: fmt.Sprintf("unknown prompt %q", params.Name)}
	}
	return p.handler(ctx, &ServerRequest[*GetPromptParams]{Session: sess, Params: &params})
}

func (sess *ServerSession) doListResources(ctx context.Context, req *Request) (Result, error) {
	var params ListResourcesParams
	if err := unmarshalParams(req.Params, &params); err != nil {
		return nil, &WireError{Code: CodeInvalidParams, Message: err.Error()}
	}
	page, next, err := paginate(sess.server.resources.list(), params.Cursor, sess.server.opts.PageSize)
	if err != nil {
		return nil, err
	}
	out := make([]*Resource, len(page))
	for i, r := range page {
		out[i] = r.resource
	}
	return &ListResourcesResult{Resources: out, NextCursor: next}, nil
}

func (sess *ServerSession) doListResourceTemplates(ctx context.Context, req *Request) (Result, error) {
	var params ListResourceTemplatesParams
	if err := unmarshalParams(req.Params, &params); err != nil {
		return nil, &WireError{Code: CodeInvalidParams, Message: err.Error()}
	}
	page, next, err := paginate(sess.server.resourceTemplates.list(), params.Cursor, sess.server.opts.PageSize)
	if err != nil {
		return nil, err
	}
	out := make([]*ResourceTemplate, len(page))
	for i, r := range page {
		out[i] = r.template
	}
	return &ListResourceTemplatesResult{ResourceTemplates: out, NextCursor: next}, nil
}

func (sess *ServerSession) doReadResource(ctx context.Context, req *Request) (Result, error) {
	var params ReadResourceParams
	if err := unmarshalParams(req.Params, &params); err != nil {
		return nil, &WireError{Code: CodeInvalidParams, Message: err.Error()}
	}
	if r, ok := sess.server.resources.get(params.URI); ok {
		return r.handler(ctx, &ServerRequest[*ReadResourceParams]{Session: sess, Params: &params})
	}
	for _, route := range sess.server.resourceTemplates.list() {
		if route.match(params.URI) {
			return route.handler(ctx, &ServerRequest[*ReadResourceParams]{Session: sess, Params: &params})
		}
	}
	return nil, &WireError{Code: CodeInvalidParams, Message: fmt.Sprintf("resource not found: %s", params.URI)}
}

// doSubscribe always delegates to the core's no-op default: this module
// keeps no subscription bookkeeping of its own (see DESIGN.md), leaving
// tracking to a server embedder that wants it.
func (sess *ServerSession) doSubscribe(ctx context.Context, req *Request) (Result, error) {
	return &EmptyResult{}, nil
}

func (sess *ServerSession) doUnsubscribe(ctx context.Context, req *Request) (Result, error) {
	return &EmptyResult{}, nil
}

func (sess *ServerSession) doSetLoggingLevel(ctx context.Context, req *Request) (Result, error) {
	var params SetLoggingLevelParams
	if err := unmarshalParams(req.Params, &params); err != nil {
		return nil, &WireError{Code: CodeInvalidParams, Message: err.Error()}
	}
	sess.mu.Lock()
	sess.logLevel = params.Level
	sess.mu.Unlock()
	sess.saveState(ctx)
	return &EmptyResult{}, nil
}

// saveState persists the session's initialize params and log level to the
// server's SessionStore, if one is configured and the transport exposes a
// stable session id. Save failures are logged and dropped: losing resumable
// state never fails the RPC that triggered the save.
func (sess *ServerSession) saveState(ctx context.Context) {
	store := sess.server.opts.SessionStore
	if store == nil {
		return
	}
	id := sess.conn.SessionID()
	if id == "" {
		return
	}
	sess.mu.Lock()
	state := &SessionState{InitializeParams: sess.initParams, LogLevel: sess.logLevel}
	sess.mu.Unlock()
	if err := store.Store(ctx, id, state); err != nil {
		sess.server.logf("mcp: saving session state for %q: %v", id, err)
	}
}

// Log sends a notifications/message notification to the client if level is at
// least as severe as the level the client most recently requested via
// logging/setLevel.
func (sess *ServerSession) Log(ctx context.Context, level LoggingLevel, logger string, data any) error {
	sess.mu.Lock()
	threshold := sess.logLevel
	sess.mu.Unlock()
	if threshold != "" && !level.AtLeast(threshold) {
		return nil
	}
	return sess.notify(ctx, "notifications/message", &LoggingMessageParams{
		Level:  level,
		Logger: logger,
		Data:   data,
	})
}

// ResourceUpdated notifies a subscribed client that a resource changed.
func (sess *ServerSession) ResourceUpdated(ctx context.Context, uri string) error {
	return sess.notify(ctx, "notifications/resources/updated", &ResourceUpdatedParams{URI: uri})
}

// CreateMessage asks the client to sample from its LLM, per
// sampling/createMessage. It returns an error if the client didn't
// advertise the sampling capability at initialize time.
func (sess *ServerSession) CreateMessage(ctx context.Context, params *CreateMessageParams) (*CreateMessageResult, error) {
	sess.mu.Lock()
	caps := sess.clientCaps
	sess.mu.Unlock()
	if caps == nil || caps.Sampling == nil {
		return nil, ErrSamplingNotSupported
	}
	data, err := sess.ep.call(ctx, "sampling/createMessage", params)
	if err != nil {
		return nil, err
	}
	var res CreateMessageResult
	if err := unmarshalParams(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListRoots asks the client for its configured filesystem roots. It returns
// an error if the client didn't advertise the roots capability at
// initialize time.
func (sess *ServerSession) ListRoots(ctx context.Context) (*ListRootsResult, error) {
	sess.mu.Lock()
	caps := sess.clientCaps
	sess.mu.Unlock()
	if caps == nil || caps.Roots == nil {
		return nil, ErrRootsNotSupported
	}
	data, err := sess.ep.call(ctx, "roots/list", &ListRootsParams{})
	if err != nil {
		return nil, err
	}
	var res ListRootsResult
	if err := unmarshalParams(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Elicit asks the client to collect structured input from its user. It
// returns an error if the client didn't advertise the elicitation
// capability at initialize time.
func (sess *ServerSession) Elicit(ctx context.Context, params *ElicitParams) (*ElicitResult, error) {
	sess.mu.Lock()
	caps := sess.clientCaps
	sess.mu.Unlock()
	if caps == nil || caps.Elicitation == nil {
		return nil, ErrElicitationNotSupported
	}
	data, err := sess.ep.call(ctx, "elicitation/create", params)
	if err != nil {
		return nil, err
	}
	var res ElicitResult
	if err := unmarshalParams(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
