// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"

	internaljson "github.com/nodalmcp/mcpcore/internal/json"
)

func echoSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name": {Type: "string"},
		},
		Required: []string{"name"},
	}
}

func TestNewServerToolRequiresInputSchema(t *testing.T) {
	handler := func(ctx context.Context, req *ServerRequest[*CallToolParams], args any) (*CallToolResult, error) {
		return &CallToolResult{}, nil
	}
	if _, err := newServerTool(&Tool{Name: "noop"}, handler); err == nil {
		t.Fatal("newServerTool with no InputSchema: want error, got nil")
	}
}

func TestServerToolCallValidatesArguments(t *testing.T) {
	var gotArgs any
	handler := func(ctx context.Context, req *ServerRequest[*CallToolParams], args any) (*CallToolResult, error) {
		gotArgs = args
		return &CallToolResult{Content: []Content{&TextContent{Text: "ok"}}}, nil
	}
	st, err := newServerTool(&Tool{Name: "greet", InputSchema: echoSchema()}, handler)
	if err != nil {
		t.Fatalf("newServerTool: %v", err)
	}

	t.Run("missing required field", func(t *testing.T) {
		req := &ServerRequest[*CallToolParams]{Params: &CallToolParams{Arguments: internaljson.RawMessage(`{}`)}}
		_, err := st.call(context.Background(), req)
		var we *WireError
		if !errors.As(err, &we) || we.Code != CodeInvalidParams {
			t.Fatalf("call with missing field: got err %v, want *WireError{Code: CodeInvalidParams}", err)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		req := &ServerRequest[*CallToolParams]{Params: &CallToolParams{Arguments: internaljson.RawMessage(`{"name":"a","extra":1}`)}}
		if _, err := st.call(context.Background(), req); err == nil {
			t.Fatal("call with unknown field: want error, got nil")
		}
	})

	t.Run("valid call reaches handler", func(t *testing.T) {
		req := &ServerRequest[*CallToolParams]{Params: &CallToolParams{Arguments: internaljson.RawMessage(`{"name":"Ada"}`)}}
		res, err := st.call(context.Background(), req)
		if err != nil {
			t.Fatalf("call: %v", err)
		}
		if res.IsError {
			t.Errorf("IsError = true, want false")
		}
		m, ok := gotArgs.(map[string]any)
		if !ok || m["name"] != "Ada" {
			t.Errorf("handler args = %#v, want map with name=Ada", gotArgs)
		}
	})
}

func TestServerToolCallWrapsNonObjectStructuredContent(t *testing.T) {
	handler := func(ctx context.Context, req *ServerRequest[*CallToolParams], args any) (*CallToolResult, error) {
		return &CallToolResult{StructuredContent: 42.0}, nil
	}
	st, err := newServerTool(&Tool{
		Name:         "count",
		InputSchema:  echoSchema(),
		OutputSchema: &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{"result": {Type: "number"}}},
	}, handler)
	if err != nil {
		t.Fatalf("newServerTool: %v", err)
	}
	req := &ServerRequest[*CallToolParams]{Params: &CallToolParams{Arguments: internaljson.RawMessage(`{"name":"a"}`)}}
	res, err := st.call(context.Background(), req)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	m, ok := res.StructuredContent.(map[string]any)
	if !ok || m["result"] != 42.0 {
		t.Errorf("StructuredContent = %#v, want {\"result\": 42.0}", res.StructuredContent)
	}
}

func TestServerToolCallLeavesObjectStructuredContentUnwrapped(t *testing.T) {
	handler := func(ctx context.Context, req *ServerRequest[*CallToolParams], args any) (*CallToolResult, error) {
		return &CallToolResult{StructuredContent: map[string]any{"count": 42.0}}, nil
	}
	st, err := newServerTool(&Tool{
		Name:         "count",
		InputSchema:  echoSchema(),
		OutputSchema: &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{"count": {Type: "number"}}},
	}, handler)
	if err != nil {
		t.Fatalf("newServerTool: %v", err)
	}
	req := &ServerRequest[*CallToolParams]{Params: &CallToolParams{Arguments: internaljson.RawMessage(`{"name":"a"}`)}}
	res, err := st.call(context.Background(), req)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	m, ok := res.StructuredContent.(map[string]any)
	if !ok || m["count"] != 42.0 {
		t.Errorf("StructuredContent = %#v, want unchanged {\"count\": 42.0}", res.StructuredContent)
	}
}

func TestServerToolCallCoercesHandlerError(t *testing.T) {
	handler := func(ctx context.Context, req *ServerRequest[*CallToolParams], args any) (*CallToolResult, error) {
		return nil, errors.New("boom")
	}
	st, err := newServerTool(&Tool{Name: "fails", InputSchema: echoSchema()}, handler)
	if err != nil {
		t.Fatalf("newServerTool: %v", err)
	}
	req := &ServerRequest[*CallToolParams]{Params: &CallToolParams{Arguments: internaljson.RawMessage(`{"name":"a"}`)}}
	res, err := st.call(context.Background(), req)
	if err != nil {
		t.Fatalf("call: want nil error (handler errors become isError results), got %v", err)
	}
	if !res.IsError {
		t.Error("IsError = false, want true")
	}
	if len(res.Content) != 1 {
		t.Fatalf("Content has %d items, want 1", len(res.Content))
	}
	tc, ok := res.Content[0].(*TextContent)
	if !ok || tc.Text != "boom" {
		t.Errorf("Content[0] = %#v, want TextContent{Text: \"boom\"}", res.Content[0])
	}
}
