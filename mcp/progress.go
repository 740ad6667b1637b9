// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import "errors"

// ErrNoProgressToken is returned by Progress when the request that's being
// handled didn't attach a progress token, so there is nowhere to report to.
var ErrNoProgressToken = errors.New("no progress token")
