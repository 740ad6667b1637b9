// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	internaljson "github.com/nodalmcp/mcpcore/internal/json"
)

// connectedPair spins up a Server wired by configure, connects a Client to
// it over NewInMemoryTransports, and returns the live client session plus a
// cleanup func.
func connectedPair(t *testing.T, configure func(*Server)) (*ClientSession, *Server) {
	t.Helper()
	server := NewServer(&Implementation{Name: "test-server", Version: "v0"}, nil)
	if configure != nil {
		configure(server)
	}
	ct, st := NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	if _, err := server.Connect(ctx, st); err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	client := NewClient(&Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, ct)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs, server
}

func TestInitializeHandshake(t *testing.T) {
	cs, _ := connectedPair(t, nil)
	caps := cs.ServerCapabilities()
	if caps == nil {
		t.Fatal("ServerCapabilities() = nil")
	}
	if caps.Tools == nil || !caps.Tools.ListChanged {
		t.Errorf("Tools capability = %+v, want ListChanged true", caps.Tools)
	}
	if caps.Logging == nil {
		t.Error("Logging capability = nil, want non-nil")
	}
}

func TestCallTool(t *testing.T) {
	cs, _ := connectedPair(t, func(s *Server) {
		err := s.AddTool(&Tool{
			Name: "greet",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{"name": {Type: "string"}},
				Required:   []string{"name"},
			},
		}, func(ctx context.Context, req *ServerRequest[*CallToolParams], args any) (*CallToolResult, error) {
			m := args.(map[string]any)
			return &CallToolResult{Content: []Content{&TextContent{Text: "hi " + m["name"].(string)}}}, nil
		})
		if err != nil {
			t.Fatalf("AddTool: %v", err)
		}
	})

	ctx := context.Background()
	list, err := cs.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(list.Tools) != 1 || list.Tools[0].Name != "greet" {
		t.Fatalf("ListTools = %+v, want one tool named greet", list.Tools)
	}

	res, err := cs.CallTool(ctx, &CallToolParams{Name: "greet", Arguments: mustMarshal(t, map[string]any{"name": "Ada"})})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("CallTool result is an error: %+v", res)
	}
	tc, ok := res.Content[0].(*TextContent)
	if !ok || tc.Text != "hi Ada" {
		t.Errorf("CallTool content = %#v, want TextContent{Text: \"hi Ada\"}", res.Content[0])
	}
}

func TestCallUnknownToolIsInvalidParams(t *testing.T) {
	cs, _ := connectedPair(t, nil)
	_, err := cs.CallTool(context.Background(), &CallToolParams{Name: "nope"})
	var we *WireError
	if !errors.As(err, &we) || we.Code != CodeInvalidParams {
		t.Fatalf("CallTool(unknown): got %v, want *WireError{Code: CodeInvalidParams}", err)
	}
}

func TestUnknownMethodIsMethodNotFound(t *testing.T) {
	cs, _ := connectedPair(t, nil)
	err := cs.callInto(context.Background(), "bogus/method", &PingParams{}, &EmptyResult{})
	var we *WireError
	if !errors.As(err, &we) || we.Code != CodeMethodNotFound {
		t.Fatalf("unknown method: got %v, want *WireError{Code: CodeMethodNotFound}", err)
	}
}

func TestToolAddedAfterConnectIsListed(t *testing.T) {
	var notified = make(chan struct{}, 1)
	server := NewServer(&Implementation{Name: "s", Version: "v0"}, nil)
	ct, st := NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := server.Connect(ctx, st); err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	client := NewClient(&Implementation{Name: "c", Version: "v0"}, &ClientOptions{})
	cs, err := client.Connect(ctx, ct)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	defer cs.Close()

	// Register a tool after the session is initialized, then check that a
	// subsequent tools/list on the live session includes it. The
	// notifications/tools/list_changed that AddTool sends is not observed
	// here: the client has no hook for list_changed notifications.
	go func() {
		if err := server.AddTool(&Tool{
			Name:        "x",
			InputSchema: &jsonschema.Schema{Type: "object"},
		}, func(ctx context.Context, req *ServerRequest[*CallToolParams], args any) (*CallToolResult, error) {
			return &CallToolResult{}, nil
		}); err != nil {
			t.Errorf("AddTool: %v", err)
		}
		notified <- struct{}{}
	}()

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("AddTool did not complete")
	}

	list, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(list.Tools) != 1 || list.Tools[0].Name != "x" {
		t.Fatalf("ListTools = %+v, want the newly added tool", list.Tools)
	}
}

func TestDuplicateInitializeRejected(t *testing.T) {
	cs, _ := connectedPair(t, nil)
	err := cs.callInto(context.Background(), "initialize", &InitializeParams{
		ProtocolVersion: "2025-06-18",
		ClientInfo:      &Implementation{Name: "c", Version: "v0"},
	}, &InitializeResult{})
	var we *WireError
	if !errors.As(err, &we) || we.Code != CodeInvalidRequest {
		t.Fatalf("second initialize: got %v, want *WireError{Code: CodeInvalidRequest}", err)
	}
}

func TestReadUnknownResourceIsInvalidParams(t *testing.T) {
	cs, _ := connectedPair(t, nil)
	_, err := cs.ReadResource(context.Background(), &ReadResourceParams{URI: "file:///nope"})
	var we *WireError
	if !errors.As(err, &we) || we.Code != CodeInvalidParams {
		t.Fatalf("ReadResource(unknown): got %v, want *WireError{Code: CodeInvalidParams}", err)
	}
}

func TestProtocolVersionNegotiationFallsBackToLatest(t *testing.T) {
	server := NewServer(&Implementation{Name: "s", Version: "v0"}, nil)
	ct, st := NewInMemoryTransports()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := server.Connect(ctx, st); err != nil {
		t.Fatalf("server.Connect: %v", err)
	}

	var res InitializeResult
	raw := &rawEndpointClient{ct}
	if err := raw.call(ctx, &InitializeParams{
		ProtocolVersion: "1999-01-01",
		ClientInfo:      &Implementation{Name: "c", Version: "v0"},
	}, &res); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if res.ProtocolVersion != latestProtocolVersion {
		t.Errorf("negotiated protocol version = %q, want latest %q", res.ProtocolVersion, latestProtocolVersion)
	}
}

// rawEndpointClient drives the raw initialize handshake directly, bypassing
// Client.Connect's own negotiation, so the server's fallback behavior for an
// unrecognized requested version can be observed.
type rawEndpointClient struct {
	t Transport
}

func (r *rawEndpointClient) call(ctx context.Context, params *InitializeParams, out *InitializeResult) error {
	conn, err := r.t.Connect(ctx)
	if err != nil {
		return err
	}
	ep := newEndpoint(conn)
	ep.handleRequest = func(context.Context, *Request) (Result, error) { return nil, ErrMethodNotFound }
	go ep.run(ctx)
	defer ep.close()
	data, err := ep.call(ctx, "initialize", params)
	if err != nil {
		return err
	}
	return unmarshalParams(data, out)
}

func TestCreateMessageRequiresSamplingCapability(t *testing.T) {
	server := NewServer(&Implementation{Name: "s", Version: "v0"}, nil)
	ct, st := NewInMemoryTransports()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sess, err := server.Connect(ctx, st)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	client := NewClient(&Implementation{Name: "c", Version: "v0"}, nil) // no CreateMessageHandler
	cs, err := client.Connect(ctx, ct)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	defer cs.Close()

	_, err = sess.CreateMessage(ctx, &CreateMessageParams{})
	if !errors.Is(err, ErrSamplingNotSupported) {
		t.Fatalf("CreateMessage with no client sampling handler: got %v, want ErrSamplingNotSupported", err)
	}
}

func TestListToolsPagination(t *testing.T) {
	cs, _ := connectedPair(t, func(s *Server) {
		s.opts.PageSize = 2
		for _, name := range []string{"a", "b", "c"} {
			if err := s.AddTool(&Tool{Name: name, InputSchema: &jsonschema.Schema{Type: "object"}},
				func(ctx context.Context, req *ServerRequest[*CallToolParams], args any) (*CallToolResult, error) {
					return &CallToolResult{}, nil
				}); err != nil {
				t.Fatalf("AddTool(%s): %v", name, err)
			}
		}
	})

	ctx := context.Background()
	first, err := cs.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(first.Tools) != 2 || first.NextCursor == "" {
		t.Fatalf("first page = %+v, want 2 tools and a NextCursor", first)
	}
	second, err := cs.ListTools(ctx, &ListToolsParams{Cursor: first.NextCursor})
	if err != nil {
		t.Fatalf("ListTools(cursor): %v", err)
	}
	if len(second.Tools) != 1 || second.NextCursor != "" {
		t.Fatalf("second page = %+v, want 1 tool and no NextCursor", second)
	}
}

func TestInstructionsRecordedOnClient(t *testing.T) {
	cs, _ := connectedPair(t, func(s *Server) {
		s.opts.Instructions = "call greet first"
	})
	if got := cs.Instructions(); got != "call greet first" {
		t.Errorf("Instructions() = %q, want %q", got, "call greet first")
	}
}

func TestToolsAllFollowsPagination(t *testing.T) {
	cs, _ := connectedPair(t, func(s *Server) {
		s.opts.PageSize = 2
		for _, name := range []string{"a", "b", "c", "d", "e"} {
			if err := s.AddTool(&Tool{Name: name, InputSchema: &jsonschema.Schema{Type: "object"}},
				func(ctx context.Context, req *ServerRequest[*CallToolParams], args any) (*CallToolResult, error) {
					return &CallToolResult{}, nil
				}); err != nil {
				t.Fatalf("AddTool(%s): %v", name, err)
			}
		}
	})

	var got []string
	for tool, err := range cs.ToolsAll(context.Background()) {
		if err != nil {
			t.Fatalf("ToolsAll: %v", err)
		}
		got = append(got, tool.Name)
	}
	if len(got) != 5 {
		t.Fatalf("ToolsAll yielded %v, want 5 tools across pages", got)
	}
}

func mustMarshal(t *testing.T, v any) internaljson.RawMessage {
	t.Helper()
	data, err := internaljson.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}
