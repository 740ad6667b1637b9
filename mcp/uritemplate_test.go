// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import "testing"

func TestResourceRouteLiteralMatch(t *testing.T) {
	route, err := newResourceRoute(&ResourceTemplate{URITemplate: "embedded:info"}, nil)
	if err != nil {
		t.Fatalf("newResourceRoute: %v", err)
	}
	if !route.literal {
		t.Fatal("literal = false, want true for a template with no variables")
	}
	if !route.match("embedded:info") {
		t.Error("match(embedded:info) = false, want true")
	}
	if route.match("embedded:other") {
		t.Error("match(embedded:other) = true, want false")
	}
}

func TestNewResourceRouteRejectsInvalidTemplate(t *testing.T) {
	if _, err := newResourceRoute(&ResourceTemplate{URITemplate: "{unterminated"}, nil); err == nil {
		t.Fatal("newResourceRoute with unterminated template: want error, got nil")
	}
}
