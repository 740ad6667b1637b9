// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/time/rate"
)

// An sseItem is one event written to an SSE stream. A nil msg paired with a
// non-empty data is an announcement event (the legacy transport's initial
// "endpoint" event); everything else carries a serialized Message.
type sseItem struct {
	event string
	msg   Message
	data  []byte
}

// A MessageFilter inspects each item about to be written to a stream and
// returns the item to write and whether to write it; calling done ends the
// stream. Streamable HTTP uses this to end a POST's response stream once
// every request recorded for that POST has been answered.
type MessageFilter func(item sseItem, done func()) (sseItem, bool)

// sseWriter is a single-reader, multi-writer bounded queue of sseItems. Any
// number of goroutines may call send/sendEvent; exactly one goroutine should
// call writeAll to drain the queue onto an http.ResponseWriter or other
// flushable io.Writer.
type sseWriter struct {
	items   chan sseItem
	limiter *rate.Limiter

	mu     sync.Mutex
	closed bool
}

// newSSEWriter returns an sseWriter with the given outbound queue depth.
// limiter, if non-nil, paces the drain loop to avoid a single fast producer
// starving a slow client connection.
func newSSEWriter(queueDepth int, limiter *rate.Limiter) *sseWriter {
	if queueDepth <= 0 {
		queueDepth = 16
	}
	return &sseWriter{items: make(chan sseItem, queueDepth), limiter: limiter}
}

// send enqueues msg as a default "message" event.
func (w *sseWriter) send(msg Message) error {
	return w.enqueue(sseItem{msg: msg})
}

// sendEvent enqueues a named event carrying raw data rather than a
// Message, e.g. the legacy transport's "endpoint" announcement.
func (w *sseWriter) sendEvent(event string, data []byte) error {
	return w.enqueue(sseItem{event: event, data: data})
}

func (w *sseWriter) enqueue(item sseItem) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrDisconnected
	}
	select {
	case w.items <- item:
		return nil
	default:
		return fmt.Errorf("mcp: sse queue full")
	}
}

// close stops further sends and unblocks any in-progress writeAll.
func (w *sseWriter) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.items)
}

type flusher interface {
	Flush()
}

// writeAll drains the queue, formatting each item as
// "event: <type>\ndata: <json>\n\n" and writing it to w, until the queue is
// closed, ctx is done, or filter reports the stream is finished. A
// write-side flusher (e.g. http.ResponseWriter) is flushed after every item.
func (sw *sseWriter) writeAll(ctx context.Context, w io.Writer, filter MessageFilter) error {
	fl, _ := w.(flusher)
	finished := false
	markDone := func() { finished = true }
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-sw.items:
			if !ok {
				return nil
			}
			if sw.limiter != nil {
				if err := sw.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			if filter != nil {
				var keep bool
				item, keep = filter(item, markDone)
				if !keep {
					if finished {
						return nil
					}
					continue
				}
			}
			data := item.data
			if item.msg != nil {
				var err error
				data, err = marshalMessage(item.msg)
				if err != nil {
					return err
				}
			}
			event := item.event
			if event == "" {
				event = "message"
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
				return err
			}
			if fl != nil {
				fl.Flush()
			}
			if finished {
				return nil
			}
		}
	}
}
