// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SSEHTTPHandler serves the deprecated HTTP+SSE transport: a long-lived GET
// pushes server-to-client Messages, and a separate POST endpoint accepts
// client-to-server Messages.
type SSEHTTPHandler struct {
	getServer func(*http.Request) *Server

	mu       sync.Mutex
	sessions map[string]*sseServerTransport
}

// NewSSEHTTPHandler returns a handler that mounts a new session (and its
// message-posting URL) under pattern "<mountPoint>/message" for every new
// GET connection.
func NewSSEHTTPHandler(getServer func(*http.Request) *Server) *SSEHTTPHandler {
	return &SSEHTTPHandler{getServer: getServer, sessions: make(map[string]*sseServerTransport)}
}

func (h *SSEHTTPHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method == http.MethodPost {
		h.servePOST(w, req)
		return
	}
	h.serveGET(w, req)
}

func (h *SSEHTTPHandler) serveGET(w http.ResponseWriter, req *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	id := randText()
	t := newSSEServerTransport(id, messagePostURL(req, id))
	h.mu.Lock()
	h.sessions[id] = t
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.sessions, id)
		h.mu.Unlock()
	}()

	server := h.getServer(req)
	if _, err := server.Connect(req.Context(), t); err != nil {
		http.Error(w, "failed connection", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", t.messageURL)
	fl.Flush()

	t.sse.writeAll(req.Context(), w, nil)
}

func messagePostURL(req *http.Request, sessionID string) string {
	base := strings.TrimSuffix(req.URL.Path, "/")
	return fmt.Sprintf("%s/message?sessionId=%s", base, sessionID)
}

func (h *SSEHTTPHandler) servePOST(w http.ResponseWriter, req *http.Request) {
	id := req.URL.Query().Get("sessionId")
	h.mu.Lock()
	t := h.sessions[id]
	h.mu.Unlock()
	if t == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	data, err := io.ReadAll(io.LimitReader(req.Body, effectiveMaxBodyBytes(0)))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	msg, err := DecodeMessage(data)
	if err != nil {
		http.Error(w, "parse error", http.StatusBadRequest)
		return
	}
	t.deliverInbound(msg)
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprint(w, "Accepted")
}

// sseServerTransport is the server-side Connection for one legacy SSE
// session: inbound messages arrive via POST, outbound messages are pushed
// onto the session's SSE stream.
type sseServerTransport struct {
	id         string
	messageURL string
	sse        *sseWriter
	inbox      chan Message
}

func newSSEServerTransport(id, messageURL string) *sseServerTransport {
	return &sseServerTransport{
		id:         id,
		messageURL: messageURL,
		sse:        newSSEWriter(16, nil),
		inbox:      make(chan Message, 16),
	}
}

func (t *sseServerTransport) Connect(ctx context.Context) (Connection, error) {
	return t, nil
}

func (t *sseServerTransport) SessionID() string { return t.id }

func (t *sseServerTransport) deliverInbound(m Message) {
	select {
	case t.inbox <- m:
	default:
	}
}

func (t *sseServerTransport) Read(ctx context.Context) (Message, error) {
	select {
	case m, ok := <-t.inbox:
		if !ok {
			return nil, ErrDisconnected
		}
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *sseServerTransport) Write(ctx context.Context, msg Message) error {
	return t.sse.send(msg)
}

func (t *sseServerTransport) Close() error {
	t.sse.close()
	return nil
}

// SSEClientTransport dials a legacy SSE server: it GETs the stream to learn
// the message-posting URL and receive server push, and POSTs outbound
// messages to that URL. It reconnects the GET stream on failure.
type SSEClientTransport struct {
	// Endpoint is the server's SSE GET URL.
	Endpoint string
	// HTTPClient is used for both the GET and POST legs. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
	// MaxReconnectAttempts bounds GET-stream reconnection after a read
	// failure. Zero means no reconnection is attempted.
	MaxReconnectAttempts int
	// ReconnectDelay is the fixed delay between reconnect attempts.
	ReconnectDelay time.Duration
}

func (t *SSEClientTransport) Connect(ctx context.Context) (Connection, error) {
	client := t.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	delay := t.ReconnectDelay
	if delay <= 0 {
		delay = time.Second
	}
	c := &sseClientConn{
		endpoint:    t.Endpoint,
		client:      client,
		inbox:       make(chan Message, 16),
		ready:       make(chan struct{}),
		closed:      make(chan struct{}),
		maxAttempts: t.MaxReconnectAttempts,
		backoff:     rate.NewLimiter(rate.Every(delay), 1),
	}
	go c.run(ctx)
	select {
	case <-c.ready:
	case <-c.closed:
		return nil, fmt.Errorf("mcp: sse connect failed: %w", c.fatalErr())
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return c, nil
}

type sseClientConn struct {
	endpoint string
	client   *http.Client

	inbox chan Message
	ready chan struct{}
	closed chan struct{}

	maxAttempts int
	backoff     *rate.Limiter

	mu         sync.Mutex
	postURL    string
	err        error
	readyOnce  sync.Once
	closedOnce sync.Once
}

func (c *sseClientConn) SessionID() string { return "" }

func (c *sseClientConn) fatalErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *sseClientConn) run(ctx context.Context) {
	attempts := 0
	for {
		err := c.connectOnce(ctx)
		if err == nil {
			return // closed normally
		}
		attempts++
		if attempts > c.maxAttempts {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			c.closedOnce.Do(func() { close(c.closed) })
			return
		}
		if err := c.backoff.Wait(ctx); err != nil {
			return
		}
	}
}

func (c *sseClientConn) connectOnce(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mcp: sse GET returned %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var event string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if event == "endpoint" {
				c.mu.Lock()
				c.postURL = resolveURL(c.endpoint, data)
				c.mu.Unlock()
				c.readyOnce.Do(func() { close(c.ready) })
			} else {
				msg, err := DecodeMessage([]byte(data))
				if err != nil {
					continue
				}
				select {
				case c.inbox <- msg:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			event = ""
		case line == "":
			// event boundary
		}
	}
	return scanner.Err()
}

func resolveURL(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if i := strings.Index(base, "://"); i >= 0 {
		if j := strings.Index(base[i+3:], "/"); j >= 0 {
			return base[:i+3+j] + ref
		}
	}
	return base + ref
}

func (c *sseClientConn) Read(ctx context.Context) (Message, error) {
	select {
	case m, ok := <-c.inbox:
		if !ok {
			return nil, ErrDisconnected
		}
		return m, nil
	case <-c.closed:
		return nil, c.fatalErr()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *sseClientConn) Write(ctx context.Context, msg Message) error {
	data, err := marshalMessage(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	url := c.postURL
	c.mu.Unlock()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("mcp: sse POST returned %s", resp.Status)
	}
	return nil
}

func (c *sseClientConn) Close() error {
	c.closedOnce.Do(func() { close(c.closed) })
	return nil
}
