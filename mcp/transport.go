// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
)

// A Transport connects a logical MCP session to a pair of message streams.
// Connect returns a Connection that carries Messages to and from the peer;
// the Transport itself is just a factory, so the same Transport value can
// be reused to dial multiple connections (e.g. one per incoming HTTP
// request in a stateless server).
type Transport interface {
	Connect(ctx context.Context) (Connection, error)
}

// A Connection is a logical bidirectional stream of MCP messages. Read and
// Write may be called concurrently with each other, but each must not be
// called concurrently with itself.
type Connection interface {
	// Read reads the next message from the peer. It returns io.EOF when the
	// peer closes the connection in an orderly way.
	Read(ctx context.Context) (Message, error)
	// Write sends a message to the peer.
	Write(ctx context.Context, msg Message) error
	// Close closes the connection. Concurrent Reads unblock with an error.
	Close() error
	// SessionID returns the transport-level session identifier, if the
	// underlying transport assigns one (Streamable HTTP); otherwise "".
	SessionID() string
}

// ioConn implements Connection over an io.Reader/io.Writer pair using the
// line-delimited framing shared by the stdio and (legacy) pipe transports:
// one JSON value per line.
type ioConn struct {
	r io.ReadCloser
	w io.Writer

	mu      sync.Mutex // guards writes and closed
	closed  bool
	closeFn func() error

	readMu sync.Mutex
	dec    *lineReader
}

func newIOConn(r io.ReadCloser, w io.Writer, closeFn func() error) *ioConn {
	return &ioConn{r: r, w: w, closeFn: closeFn, dec: newLineReader(r)}
}

func (c *ioConn) SessionID() string { return "" }

func (c *ioConn) Read(ctx context.Context) (Message, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()
	for {
		line, err := c.dec.readLine()
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			continue // skip blank lines
		}
		msg, err := DecodeMessage(line)
		if err != nil {
			log.Printf("mcp: skipping malformed frame: %v", err)
			continue
		}
		return msg, nil
	}
}

func (c *ioConn) Write(ctx context.Context, msg Message) error {
	data, err := marshalMessage(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrDisconnected
	}
	_, err = c.w.Write(data)
	return err
}

func (c *ioConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.closeFn != nil {
		return c.closeFn()
	}
	return c.r.Close()
}

func marshalMessage(msg Message) ([]byte, error) {
	switch m := msg.(type) {
	case *Request:
		return m.MarshalJSON()
	case *Notification:
		return m.MarshalJSON()
	case *Response:
		return m.MarshalJSON()
	case *ErrorResponse:
		return m.MarshalJSON()
	default:
		return nil, fmt.Errorf("mcp: unknown message type %T", msg)
	}
}

// lineReader reads newline-delimited records from r. Unlike bufio.Scanner,
// it has no limit on line length: its buffer grows to hold the longest line.
type lineReader struct {
	r   io.Reader
	buf []byte
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: r, buf: make([]byte, 0, 4096)}
}

func (l *lineReader) readLine() ([]byte, error) {
	for {
		if i := indexByte(l.buf, '\n'); i >= 0 {
			line := l.buf[:i]
			l.buf = l.buf[i+1:]
			return trimCR(line), nil
		}
		tmp := make([]byte, 64*1024)
		n, err := l.r.Read(tmp)
		if n > 0 {
			l.buf = append(l.buf, tmp[:n]...)
		}
		if err != nil {
			if len(l.buf) > 0 {
				line := l.buf
				l.buf = nil
				return trimCR(line), nil
			}
			return nil, err
		}
	}
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}

// LoggingTransport wraps a Transport, logging every message sent or
// received over connections it creates. It is useful for debugging a
// session's wire traffic.
type LoggingTransport struct {
	Transport Transport
	Writer    io.Writer
}

// NewLoggingTransport wraps t so that every frame sent or received over
// connections it creates is mirrored to w.
func NewLoggingTransport(t Transport, w io.Writer) *LoggingTransport {
	return &LoggingTransport{Transport: t, Writer: w}
}

func (t *LoggingTransport) Connect(ctx context.Context) (Connection, error) {
	conn, err := t.Transport.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &loggingConn{conn: conn, w: t.Writer}, nil
}

type loggingConn struct {
	conn Connection
	w    io.Writer
}

func (c *loggingConn) SessionID() string { return c.conn.SessionID() }

func (c *loggingConn) Read(ctx context.Context) (Message, error) {
	msg, err := c.conn.Read(ctx)
	if err == nil {
		data, _ := marshalMessage(msg)
		fmt.Fprintf(c.w, "<- %s\n", data)
	}
	return msg, err
}

func (c *loggingConn) Write(ctx context.Context, msg Message) error {
	data, _ := marshalMessage(msg)
	fmt.Fprintf(c.w, "-> %s\n", data)
	return c.conn.Write(ctx, msg)
}

func (c *loggingConn) Close() error { return c.conn.Close() }

// NewInMemoryTransports returns two Transports connected by in-process
// pipes, with no serialization in between. Connecting the first yields the
// peer of whatever connects to the second, and vice versa; it is intended
// for tests that want a Client and Server talking to each other without a
// real stdio or HTTP transport underneath.
func NewInMemoryTransports() (Transport, Transport) {
	c1to2 := make(chan Message, 16)
	c2to1 := make(chan Message, 16)
	return &inMemoryTransport{recv: c2to1, send: c1to2}, &inMemoryTransport{recv: c1to2, send: c2to1}
}

type inMemoryTransport struct {
	recv <-chan Message
	send chan<- Message
}

func (t *inMemoryTransport) Connect(ctx context.Context) (Connection, error) {
	return &inMemoryConn{recv: t.recv, send: t.send}, nil
}

type inMemoryConn struct {
	recv <-chan Message
	send chan<- Message

	mu   sync.Mutex
	done bool
}

func (c *inMemoryConn) SessionID() string { return "" }

func (c *inMemoryConn) Read(ctx context.Context) (Message, error) {
	select {
	case msg, ok := <-c.recv:
		if !ok {
			return nil, io.EOF
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *inMemoryConn) Write(ctx context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return ErrDisconnected
	}
	select {
	case c.send <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *inMemoryConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return nil
	}
	c.done = true
	close(c.send)
	return nil
}
