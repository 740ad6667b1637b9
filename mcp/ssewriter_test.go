// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSSEWriterWriteAllUntilClosed(t *testing.T) {
	w := newSSEWriter(4, nil)
	if err := w.send(&Notification{Method: "notifications/progress"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := w.sendEvent("endpoint", []byte("/message?sessionId=abc")); err != nil {
		t.Fatalf("sendEvent: %v", err)
	}
	w.close()

	var buf bytes.Buffer
	if err := w.writeAll(context.Background(), &buf, nil); err != nil {
		t.Fatalf("writeAll: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `event: message`) || !strings.Contains(out, `"method":"notifications/progress"`) {
		t.Errorf("missing notification frame in output:\n%s", out)
	}
	if !strings.Contains(out, "event: endpoint\ndata: /message?sessionId=abc\n\n") {
		t.Errorf("missing endpoint frame in output:\n%s", out)
	}
}

func TestSSEWriterEnqueueAfterCloseFails(t *testing.T) {
	w := newSSEWriter(2, nil)
	w.close()
	if err := w.send(&Notification{Method: "x"}); err == nil {
		t.Fatal("send after close: want error, got nil")
	}
}

func TestSSEWriterQueueFullReturnsError(t *testing.T) {
	w := newSSEWriter(1, nil)
	if err := w.send(&Notification{Method: "a"}); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := w.send(&Notification{Method: "b"}); err == nil {
		t.Fatal("send on full queue: want error, got nil")
	}
}

// TestSSEWriterFilterStopsAfterDone exercises the Streamable HTTP use case:
// the filter lets the triggering item through, then signals the stream is
// finished, and writeAll must stop right after emitting it.
func TestSSEWriterFilterStopsAfterDone(t *testing.T) {
	w := newSSEWriter(4, nil)
	w.send(&Response{ID: NewRequestID(1)})
	w.send(&Notification{Method: "should-not-appear"})
	w.close()

	filter := func(item sseItem, done func()) (sseItem, bool) {
		done()
		return item, true
	}

	var buf bytes.Buffer
	if err := w.writeAll(context.Background(), &buf, filter); err != nil {
		t.Fatalf("writeAll: %v", err)
	}
	if strings.Contains(buf.String(), "should-not-appear") {
		t.Errorf("writeAll continued past filter's done(): %s", buf.String())
	}
}

func TestSSEWriterWriteAllRespectsContext(t *testing.T) {
	w := newSSEWriter(2, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := w.writeAll(ctx, &bytes.Buffer{}, nil); err == nil {
		t.Fatal("writeAll on empty, never-closed queue: want context error, got nil")
	}
}
