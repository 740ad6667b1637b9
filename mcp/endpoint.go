// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	internaljson "github.com/nodalmcp/mcpcore/internal/json"
)

// an endpoint is the shared message-loop engine behind both ServerSession
// and ClientSession: it correlates outbound requests with their responses,
// dispatches inbound requests and notifications to registered handlers, and
// propagates cancellation in both directions. A Server and a Client each
// wrap one endpoint per connected peer.
type endpoint struct {
	conn Connection

	// handleRequest and handleNotify dispatch an inbound request or
	// notification by method name; they are supplied by the owning Server
	// or Client.
	handleRequest  func(ctx context.Context, req *Request) (Result, error)
	handleNotify   func(ctx context.Context, n *Notification)
	onDisconnect   func(error)

	nextID int64

	mu       sync.Mutex
	pending  map[string]chan rpcResult // keyed by RequestID.String_()
	cancels  map[string]context.CancelFunc
	closed   bool
	closeErr error

	wg sync.WaitGroup
}

type rpcResult struct {
	result internaljson.RawMessage
	err    error
}

func newEndpoint(conn Connection) *endpoint {
	return &endpoint{
		conn:    conn,
		pending: make(map[string]chan rpcResult),
		cancels: make(map[string]context.CancelFunc),
	}
}

// run starts the endpoint's read loop. It blocks until the connection
// closes or ctx is cancelled, and must be run in its own goroutine.
func (e *endpoint) run(ctx context.Context) error {
	for {
		msg, err := e.conn.Read(ctx)
		if err != nil {
			e.shutdown(err)
			return err
		}
		switch m := msg.(type) {
		case *Request:
			e.wg.Add(1)
			go e.dispatchRequest(ctx, m)
		case *Notification:
			e.wg.Add(1)
			go e.dispatchNotification(ctx, m)
		case *Response:
			e.deliver(m.ID, rpcResult{result: m.Result, err: nil})
		case *ErrorResponse:
			e.deliver(m.ID, rpcResult{err: m.Error})
		}
	}
}

func (e *endpoint) dispatchRequest(ctx context.Context, req *Request) {
	defer e.wg.Done()
	ctx, cancel := context.WithCancel(ctx)
	key := req.ID.String_()
	e.mu.Lock()
	e.cancels[key] = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.cancels, key)
		e.mu.Unlock()
		cancel()
	}()

	res, err := e.handleRequest(ctx, req)
	if err != nil {
		e.conn.Write(ctx, &ErrorResponse{ID: req.ID, Error: asWireError(err)})
		return
	}
	data, merr := marshalResult(res)
	if merr != nil {
		e.conn.Write(ctx, &ErrorResponse{ID: req.ID, Error: asWireError(merr)})
		return
	}
	e.conn.Write(ctx, &Response{ID: req.ID, Result: data})
}

func (e *endpoint) dispatchNotification(ctx context.Context, n *Notification) {
	defer e.wg.Done()
	if n.Method == "notifications/cancelled" {
		e.handleCancelled(n)
		return
	}
	if e.handleNotify != nil {
		e.handleNotify(ctx, n)
	}
}

func (e *endpoint) handleCancelled(n *Notification) {
	var params CancelledParams
	if err := unmarshalParams(n.Params, &params); err != nil {
		return
	}
	id := requestIDFromAny(params.RequestID)
	e.mu.Lock()
	cancel, ok := e.cancels[id.String_()]
	e.mu.Unlock()
	if ok {
		cancel()
	}
}

func requestIDFromAny(v any) RequestID {
	switch x := v.(type) {
	case string:
		return RequestID{String: x, IsString: true}
	case float64:
		return RequestID{Int: int64(x)}
	case int64:
		return RequestID{Int: x}
	case int:
		return RequestID{Int: int64(x)}
	default:
		return RequestID{}
	}
}

func (e *endpoint) deliver(id RequestID, res rpcResult) {
	key := id.String_()
	e.mu.Lock()
	ch, ok := e.pending[key]
	if ok {
		delete(e.pending, key)
	}
	e.mu.Unlock()
	if ok {
		ch <- res
	}
}

// call sends req and blocks for its response.
func (e *endpoint) call(ctx context.Context, method string, params Params) (internaljson.RawMessage, error) {
	id := RequestID{Int: atomic.AddInt64(&e.nextID, 1)}
	data, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	ch := make(chan rpcResult, 1)
	key := id.String_()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrDisconnected
	}
	e.pending[key] = ch
	e.mu.Unlock()

	if err := e.conn.Write(ctx, &Request{ID: id, Method: method, Params: data}); err != nil {
		e.mu.Lock()
		delete(e.pending, key)
		e.mu.Unlock()
		return nil, err
	}

	select {
	case res := <-ch:
		return res.result, res.err
	case <-ctx.Done():
		e.mu.Lock()
		delete(e.pending, key)
		e.mu.Unlock()
		e.notify(context.Background(), "notifications/cancelled", &CancelledParams{RequestID: id.Raw()})
		return nil, ctx.Err()
	}
}

// notify sends a one-way notification.
func (e *endpoint) notify(ctx context.Context, method string, params Params) error {
	data, err := marshalParams(params)
	if err != nil {
		return err
	}
	return e.conn.Write(ctx, &Notification{Method: method, Params: data})
}

func (e *endpoint) shutdown(err error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.closeErr = err
	pending := e.pending
	e.pending = make(map[string]chan rpcResult)
	e.mu.Unlock()

	for _, ch := range pending {
		ch <- rpcResult{err: fmt.Errorf("%w: %v", ErrDisconnected, err)}
	}
	if e.onDisconnect != nil {
		e.onDisconnect(err)
	}
}

func (e *endpoint) close() error {
	e.shutdown(ErrDisconnected)
	return e.conn.Close()
}

func marshalParams(p Params) (internaljson.RawMessage, error) {
	if p == nil {
		return nil, nil
	}
	return internaljson.Marshal(p)
}

func marshalResult(r Result) (internaljson.RawMessage, error) {
	if r == nil {
		return internaljson.RawMessage("{}"), nil
	}
	return internaljson.Marshal(r)
}

func unmarshalParams(data internaljson.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return internaljson.Unmarshal(data, v)
}
