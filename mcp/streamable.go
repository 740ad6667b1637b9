// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	internaljson "github.com/nodalmcp/mcpcore/internal/json"
)

// StreamableHTTPOptions configures a StreamableHTTPHandler.
type StreamableHTTPOptions struct {
	// Stateless disables the Mcp-Session-Id handshake: every POST is served
	// by a fresh, ephemeral session against a freshly obtained server, GET
	// is rejected, and server-to-client requests fail immediately.
	Stateless bool
	// MaxBodyBytes bounds request body size; see DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// QueueDepth bounds the number of buffered outbound SSE items per
	// logical connection. Zero uses a small built-in default.
	QueueDepth int
}

// A StreamableHTTPHandler is an http.Handler that serves MCP sessions using
// the Streamable HTTP transport: one optional long-lived GET for server push
// plus one POST per request batch, per the [MCP spec].
//
// [MCP spec]: https://modelcontextprotocol.io/specification/2025-06-18/basic/transports
type StreamableHTTPHandler struct {
	getServer func(*http.Request) *Server
	opts      StreamableHTTPOptions

	mu       sync.Mutex
	sessions map[string]*StreamableServerTransport
}

// NewStreamableHTTPHandler returns a handler that dispatches to servers
// obtained from getServer, one per new session. getServer may return the
// same *Server for every request.
func NewStreamableHTTPHandler(getServer func(*http.Request) *Server, opts *StreamableHTTPOptions) *StreamableHTTPHandler {
	if opts == nil {
		opts = &StreamableHTTPOptions{}
	}
	return &StreamableHTTPHandler{
		getServer: getServer,
		opts:      *opts,
		sessions:  make(map[string]*StreamableServerTransport),
	}
}

// closeAll closes every live session. Intended for server shutdown.
func (h *StreamableHTTPHandler) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions {
		s.Close()
	}
	h.sessions = nil
}

func (h *StreamableHTTPHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	accept := strings.Split(strings.Join(req.Header.Values("Accept"), ","), ",")
	var jsonOK, streamOK bool
	for _, c := range accept {
		switch strings.TrimSpace(c) {
		case "application/json":
			jsonOK = true
		case "text/event-stream":
			streamOK = true
		}
	}
	if req.Method == http.MethodGet {
		if !streamOK {
			http.Error(w, "Accept must contain 'text/event-stream' for GET requests", http.StatusBadRequest)
			return
		}
		if h.opts.Stateless {
			http.Error(w, "GET is not supported in stateless mode", http.StatusMethodNotAllowed)
			return
		}
	} else if req.Method == http.MethodPost && (!jsonOK || !streamOK) {
		http.Error(w, "Accept must contain both 'application/json' and 'text/event-stream'", http.StatusBadRequest)
		return
	}

	var session *StreamableServerTransport
	if id := req.Header.Get("Mcp-Session-Id"); id != "" {
		h.mu.Lock()
		session = h.sessions[id]
		h.mu.Unlock()
		if session == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
	}

	if req.Method == http.MethodDelete {
		if session == nil {
			http.Error(w, "DELETE requires an Mcp-Session-Id header", http.StatusBadRequest)
			return
		}
		h.mu.Lock()
		delete(h.sessions, session.id)
		h.mu.Unlock()
		session.Close()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	switch req.Method {
	case http.MethodPost, http.MethodGet:
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		http.Error(w, "unsupported method", http.StatusMethodNotAllowed)
		return
	}

	if session == nil {
		id := ""
		if !h.opts.Stateless {
			id = randText()
		}
		s := newStreamableServerTransport(id, h.opts.QueueDepth, h.opts.Stateless)
		server := h.getServer(req)
		// The session's endpoint loop must outlive this one POST: net/http
		// cancels req.Context() as soon as this handler call returns, but a
		// Streamable HTTP session is expected to serve many further POSTs
		// (and an optional GET) afterward.
		if _, err := server.Connect(context.Background(), s); err != nil {
			http.Error(w, "failed connection", http.StatusInternalServerError)
			return
		}
		if !h.opts.Stateless {
			h.mu.Lock()
			h.sessions[s.id] = s
			h.mu.Unlock()
		}
		session = s
	}

	session.serveHTTP(w, req, h.opts)
}

// newStreamableServerTransport returns a Transport bound to a single logical
// Streamable HTTP session. Passing the transport to Server.Connect
// registers that session's dispatch with the server. stateless marks a
// session that will never have a standalone GET stream, so server-initiated
// pushes fail fast with a distinct error instead of the generic "no open
// stream" one a stateful session can still recover from by opening a GET.
func newStreamableServerTransport(id string, queueDepth int, stateless bool) *StreamableServerTransport {
	return &StreamableServerTransport{id: id, queueDepth: queueDepth, stateless: stateless}
}

// StreamableServerTransport implements Transport for a single Streamable
// HTTP logical session; ServeHTTP calls on the owning handler feed it.
type StreamableServerTransport struct {
	id         string
	queueDepth int
	stateless  bool

	mu   sync.Mutex
	conn *streamableConn
	sse  *sseWriter // standalone GET stream, nil until one connects
	done bool
}

func (t *StreamableServerTransport) Connect(ctx context.Context) (Connection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		t.conn = &streamableConn{
			sessionID: t.id,
			stateless: t.stateless,
			inbox:     make(chan Message, 16),
			pending:   make(map[string]chan Message),
			getSSE:    func() *sseWriter { t.mu.Lock(); defer t.mu.Unlock(); return t.sse },
		}
	}
	return t.conn, nil
}

// Close tears down the session's connection and any standalone GET stream.
func (t *StreamableServerTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	if t.conn != nil {
		t.conn.Close()
	}
	return nil
}

// serveHTTP dispatches a single incoming HTTP request to the session: GET
// opens the standalone server-push stream, POST feeds a request batch
// through the session and streams back responses as SSE, closing once every
// request in the batch has been answered.
func (t *StreamableServerTransport) serveHTTP(w http.ResponseWriter, req *http.Request, opts StreamableHTTPOptions) {
	switch req.Method {
	case http.MethodGet:
		t.serveGET(w, req)
	case http.MethodPost:
		t.servePOST(w, req, opts)
	}
}

func (t *StreamableServerTransport) serveGET(w http.ResponseWriter, req *http.Request) {
	sw := newSSEWriter(t.queueDepth, nil)
	t.mu.Lock()
	if t.sse != nil {
		t.mu.Unlock()
		http.Error(w, "a standalone stream is already open for this session", http.StatusConflict)
		return
	}
	t.sse = sw
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		if t.sse == sw {
			t.sse = nil
		}
		t.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	if t.id != "" {
		w.Header().Set("Mcp-Session-Id", t.id)
	}
	w.WriteHeader(http.StatusOK)
	sw.writeAll(req.Context(), w, nil)
}

func (t *StreamableServerTransport) servePOST(w http.ResponseWriter, req *http.Request, opts StreamableHTTPOptions) {
	max := effectiveMaxBodyBytes(opts.MaxBodyBytes)
	body := req.Body
	if max > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, max)
		body = req.Body
	}
	data, err := io.ReadAll(body)
	if err != nil {
		if isMaxBytesError(err) {
			writeRequestBodyTooLarge(w)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msgs, err := decodeBatch(data)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid message batch: %v", err), http.StatusBadRequest)
		return
	}

	var pendingIDs []string
	conn := t.conn
	for _, m := range msgs {
		if r, ok := m.(*Request); ok {
			pendingIDs = append(pendingIDs, r.ID.String_())
		}
	}

	if len(pendingIDs) == 0 {
		for _, m := range msgs {
			conn.deliverInbound(m)
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	results := conn.awaitResponses(pendingIDs)
	defer conn.forgetResponses(pendingIDs)

	for _, m := range msgs {
		conn.deliverInbound(m)
	}

	remaining := len(pendingIDs)
	sw := newSSEWriter(t.queueDepth, nil)
	filter := func(item sseItem, done func()) (sseItem, bool) {
		switch item.msg.(type) {
		case *Response, *ErrorResponse:
			remaining--
			if remaining <= 0 {
				done()
			}
		}
		return item, true
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	if t.id != "" {
		w.Header().Set("Mcp-Session-Id", t.id)
	}
	w.WriteHeader(http.StatusOK)

	go func() {
		for range pendingIDs {
			select {
			case msg, ok := <-results:
				if !ok {
					return
				}
				if err := sw.send(msg); err != nil {
					return
				}
			case <-req.Context().Done():
				return
			}
		}
	}()
	sw.writeAll(req.Context(), w, filter)
}

// streamableConn implements Connection for one Streamable HTTP session. POST
// handlers feed inbound messages via deliverInbound and register per-request
// response channels via awaitResponses; Write routes outbound Responses and
// ErrorResponses to a waiting POST, and outbound Notifications/Requests
// (server push) to the standalone GET stream, if one is connected.
type streamableConn struct {
	sessionID string
	stateless bool
	inbox     chan Message

	mu      sync.Mutex
	pending map[string]chan Message
	getSSE  func() *sseWriter
	closed  bool
}

func (c *streamableConn) SessionID() string { return c.sessionID }

func (c *streamableConn) Read(ctx context.Context) (Message, error) {
	select {
	case m, ok := <-c.inbox:
		if !ok {
			return nil, ErrDisconnected
		}
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *streamableConn) deliverInbound(m Message) {
	select {
	case c.inbox <- m:
	default:
		// Buffer full; the message is dropped without logging or retry.
	}
}

func (c *streamableConn) awaitResponses(ids []string) <-chan Message {
	ch := make(chan Message, len(ids))
	c.mu.Lock()
	for _, id := range ids {
		c.pending[id] = ch
	}
	c.mu.Unlock()
	return ch
}

func (c *streamableConn) forgetResponses(ids []string) {
	c.mu.Lock()
	for _, id := range ids {
		delete(c.pending, id)
	}
	c.mu.Unlock()
}

func (c *streamableConn) Write(ctx context.Context, msg Message) error {
	switch m := msg.(type) {
	case *Response:
		return c.deliverToPending(m.ID.String_(), msg)
	case *ErrorResponse:
		return c.deliverToPending(m.ID.String_(), msg)
	default:
		// Notifications and server-initiated requests are server push: they
		// only have somewhere to go if a standalone GET stream is open, and
		// a stateless session never has one (GET is rejected up front).
		if c.stateless {
			return ErrStatelessUnsupported
		}
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return ErrDisconnected
		}
		if sse := c.getSSE(); sse != nil {
			return sse.send(msg)
		}
		return fmt.Errorf("mcp: no open stream to deliver %T for session %s", msg, c.sessionID)
	}
}

func (c *streamableConn) deliverToPending(id string, msg Message) error {
	c.mu.Lock()
	ch, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("mcp: response for unknown request id %s", id)
	}
	select {
	case ch <- msg:
		return nil
	default:
		return fmt.Errorf("mcp: response channel full for request id %s", id)
	}
}

func (c *streamableConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.inbox)
	return nil
}

// decodeBatch parses data as either a single JSON-RPC message or a JSON
// array of messages. A malformed element anywhere in a batch fails the
// whole decode, so the caller returns a single 400 for the entire POST
// rather than partially applying it.
func decodeBatch(data []byte) ([]Message, error) {
	trimmed := bytesTrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty request body")
	}
	if trimmed[0] == '[' {
		var raw []internaljson.RawMessage
		if err := internaljson.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		msgs := make([]Message, len(raw))
		for i, r := range raw {
			m, err := DecodeMessage(r)
			if err != nil {
				return nil, err
			}
			msgs[i] = m
		}
		return msgs, nil
	}
	m, err := DecodeMessage(data)
	if err != nil {
		return nil, err
	}
	return []Message{m}, nil
}

func bytesTrimSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return b[i:]
}
