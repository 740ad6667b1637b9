// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

func TestLegacySSETransportEndToEnd(t *testing.T) {
	server := NewServer(&Implementation{Name: "test", Version: "v0"}, nil)
	err := server.AddTool(&Tool{
		Name:        "double",
		InputSchema: &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{"n": {Type: "integer"}}, Required: []string{"n"}},
	}, func(ctx context.Context, req *ServerRequest[*CallToolParams], args any) (*CallToolResult, error) {
		n := args.(map[string]any)["n"].(float64)
		return &CallToolResult{StructuredContent: n * 2}, nil
	})
	if err != nil {
		t.Fatalf("AddTool: %v", err)
	}

	handler := NewSSEHTTPHandler(func(*http.Request) *Server { return server })
	ts := httptest.NewServer(handler)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	transport := &SSEClientTransport{Endpoint: ts.URL}
	client := NewClient(&Implementation{Name: "c", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, transport)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	defer cs.Close()

	if cs.ServerCapabilities() == nil {
		t.Fatal("ServerCapabilities() = nil after handshake")
	}

	res, err := cs.CallTool(ctx, &CallToolParams{Name: "double", Arguments: mustMarshal(t, map[string]any{"n": 21})})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("CallTool returned an error result: %+v", res)
	}
	got, ok := res.StructuredContent.(float64)
	if !ok || got != 42 {
		t.Errorf("StructuredContent = %#v, want 42", res.StructuredContent)
	}
}

func TestSSEClientTransportConnectFailsOnBadEndpoint(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	transport := &SSEClientTransport{Endpoint: ts.URL, MaxReconnectAttempts: 0}
	if _, err := transport.Connect(ctx); err == nil {
		t.Fatal("Connect against a non-SSE endpoint: want error, got nil")
	}
}
