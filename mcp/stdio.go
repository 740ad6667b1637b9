// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"io"
	"os"
	"os/exec"
)

// StdioTransport is a Transport over the process's own stdin/stdout,
// framed as one JSON value per line. It is the transport used by a server
// launched as a subprocess, and by a client that launches such a server.
type StdioTransport struct{}

// NewStdioTransport returns a StdioTransport.
func NewStdioTransport() *StdioTransport { return &StdioTransport{} }

// Connect returns a Connection bound to os.Stdin and os.Stdout. Closing the
// Connection closes os.Stdin; it does not close os.Stdout, since doing so
// would prevent any final output from being flushed by other writers.
func (StdioTransport) Connect(ctx context.Context) (Connection, error) {
	return newIOConn(os.Stdin, os.Stdout, os.Stdin.Close), nil
}

// CommandTransport connects to an MCP server that is run as a subprocess,
// communicating over the child's stdin/stdout.
type CommandTransport struct {
	Command *exec.Cmd
}

// Connect starts the command and returns a Connection bound to its pipes.
func (t *CommandTransport) Connect(ctx context.Context) (Connection, error) {
	stdin, err := t.Command.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := t.Command.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := t.Command.Start(); err != nil {
		return nil, err
	}
	return newIOConn(stdout, stdin, func() error {
		stdin.Close()
		return t.Command.Wait()
	}), nil
}

// InMemoryTransports returns a pair of connected Transports, suitable for
// wiring a client and server together in a single process (most often in
// tests).
func InMemoryTransports() (clientTransport, serverTransport Transport) {
	c1r, c1w := io.Pipe()
	c2r, c2w := io.Pipe()
	return &pipeTransport{r: c1r, w: c2w}, &pipeTransport{r: c2r, w: c1w}
}

type pipeTransport struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (t *pipeTransport) Connect(ctx context.Context) (Connection, error) {
	return newIOConn(t.r, t.w, func() error {
		t.w.Close()
		return t.r.Close()
	}), nil
}
