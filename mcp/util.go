// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import "crypto/rand"

// randText returns a random, URL-safe identifier, used to mint Streamable
// HTTP and legacy-SSE session ids.
func randText() string {
	return rand.Text()
}
