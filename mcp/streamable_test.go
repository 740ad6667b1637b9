// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeBatch(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantLen int
		wantErr bool
	}{
		{"single request", `{"jsonrpc":"2.0","id":1,"method":"ping"}`, 1, false},
		{"array of two", `[{"jsonrpc":"2.0","id":1,"method":"ping"},{"jsonrpc":"2.0","method":"notifications/initialized"}]`, 2, false},
		{"empty body", ``, 0, true},
		{"whitespace only", "   \n\t", 0, true},
		{"malformed element fails whole batch", `[{"jsonrpc":"2.0","id":1,"method":"ping"},{"jsonrpc":"2.0"}]`, 0, true},
		{"not json", `not json at all`, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msgs, err := decodeBatch([]byte(tc.data))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("decodeBatch(%q): want error, got nil", tc.data)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeBatch(%q): %v", tc.data, err)
			}
			if len(msgs) != tc.wantLen {
				t.Errorf("decodeBatch(%q) = %d messages, want %d", tc.data, len(msgs), tc.wantLen)
			}
		})
	}
}

func newTestStreamableServer(t *testing.T, configure func(*Server)) *httptest.Server {
	t.Helper()
	server := NewServer(&Implementation{Name: "test", Version: "v0"}, nil)
	if configure != nil {
		configure(server)
	}
	handler := NewStreamableHTTPHandler(func(*http.Request) *Server { return server }, nil)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	return resp
}

func TestStreamableHTTPInitializeAndCall(t *testing.T) {
	ts := newTestStreamableServer(t, nil)

	resp := postJSON(t, ts.URL, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"c","version":"v0"}}}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("initialize status = %d, want 200", resp.StatusCode)
	}
	sessionID := resp.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("no Mcp-Session-Id header on initialize response")
	}
	body := new(bytes.Buffer)
	body.ReadFrom(resp.Body)
	if !strings.Contains(body.String(), "event: message") {
		t.Fatalf("initialize response body missing SSE frame: %s", body.String())
	}

	req, _ := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	req.Header.Set("Mcp-Session-Id", sessionID)
	notifResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("notifications/initialized: %v", err)
	}
	notifResp.Body.Close()
	if notifResp.StatusCode != http.StatusAccepted {
		t.Fatalf("notifications/initialized status = %d, want 202", notifResp.StatusCode)
	}

	req2, _ := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader(`{"jsonrpc":"2.0","id":2,"method":"ping"}`))
	req2.Header.Set("Content-Type", "application/json")
	req2.Header.Set("Accept", "application/json, text/event-stream")
	req2.Header.Set("Mcp-Session-Id", sessionID)
	pingResp, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	defer pingResp.Body.Close()
	if pingResp.StatusCode != http.StatusOK {
		t.Fatalf("ping status = %d, want 200", pingResp.StatusCode)
	}
	pingBody := new(bytes.Buffer)
	pingBody.ReadFrom(pingResp.Body)
	if !strings.Contains(pingBody.String(), `"id":2`) {
		t.Errorf("ping response missing id 2: %s", pingBody.String())
	}
}

func TestStreamableHTTPRejectsBadAccept(t *testing.T) {
	ts := newTestStreamableServer(t, nil)
	req, _ := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	req.Header.Set("Accept", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStreamableConnWriteStatelessRejectsServerPush(t *testing.T) {
	transport := newStreamableServerTransport("", 0, true)
	conn, err := transport.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	err = conn.Write(context.Background(), &Notification{Method: "notifications/message"})
	if !errors.Is(err, ErrStatelessUnsupported) {
		t.Fatalf("Write on stateless conn: got %v, want ErrStatelessUnsupported", err)
	}
}

func TestStreamableConnWriteStatefulNoStreamIsDistinctError(t *testing.T) {
	transport := newStreamableServerTransport("sess-1", 0, false)
	conn, err := transport.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	err = conn.Write(context.Background(), &Notification{Method: "notifications/message"})
	if err == nil || errors.Is(err, ErrStatelessUnsupported) {
		t.Fatalf("Write on stateful conn with no GET stream: got %v, want a non-stateless error", err)
	}
}

func TestStreamableHTTPStatelessRejectsGET(t *testing.T) {
	server := NewServer(&Implementation{Name: "test", Version: "v0"}, nil)
	handler := NewStreamableHTTPHandler(func(*http.Request) *Server { return server }, &StreamableHTTPOptions{Stateless: true})
	ts := httptest.NewServer(handler)
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET on stateless handler: status = %d, want 405", resp.StatusCode)
	}
}

func TestStreamableHTTPUnknownSessionIsNotFound(t *testing.T) {
	ts := newTestStreamableServer(t, nil)
	req, _ := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	req.Header.Set("Accept", "application/json, text/event-stream")
	req.Header.Set("Mcp-Session-Id", "does-not-exist")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
