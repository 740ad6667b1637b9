// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	internaljson "github.com/nodalmcp/mcpcore/internal/json"
)

// a serverTool is a Tool definition bound to the handler that implements
// it, with its schemas resolved once at registration time rather than on
// every call.
type serverTool struct {
	tool    *Tool
	handler ToolHandler

	inputResolved, outputResolved *jsonschema.Resolved
}

// newServerTool validates that t carries an explicit input schema and
// resolves it. This module never infers a schema from a Go type: the
// caller always supplies one, so the contract a client sees in tools/list
// is exactly the one AddTool validates calls against.
func newServerTool(t *Tool, h ToolHandler) (*serverTool, error) {
	if t.InputSchema == nil {
		return nil, errors.New("mcp: tool has no input schema")
	}
	st := &serverTool{tool: t, handler: h}
	var err error
	st.inputResolved, err = t.InputSchema.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
	if err != nil {
		return nil, fmt.Errorf("resolving input schema for tool %q: %w", t.Name, err)
	}
	if t.OutputSchema != nil {
		st.outputResolved, err = t.OutputSchema.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
		if err != nil {
			return nil, fmt.Errorf("resolving output schema for tool %q: %w", t.Name, err)
		}
	}
	return st, nil
}

// call unmarshals and validates req.Params.Arguments against the tool's
// input schema, then invokes the handler. Handler errors are coerced into
// an error CallToolResult, per the tool-handler invocation contract: only
// bad arguments, and structured content that fails the tool's output
// schema, become a JSON-RPC error response.
func (st *serverTool) call(ctx context.Context, req *ServerRequest[*CallToolParams]) (*CallToolResult, error) {
	args := map[string]any{}
	if err := unmarshalSchema(req.Params.Arguments, st.inputResolved, &args); err != nil {
		return nil, &WireError{Code: CodeInvalidParams, Message: err.Error()}
	}
	res, err := st.handler(ctx, req, args)
	if err != nil {
		res = &CallToolResult{}
		res.SetError(err)
		return res, nil
	}
	if res == nil {
		res = &CallToolResult{}
	}
	if st.outputResolved != nil && res.StructuredContent != nil {
		res.StructuredContent = wrapNonObjectResult(res.StructuredContent)
		if err := st.outputResolved.Validate(res.StructuredContent); err != nil {
			return nil, fmt.Errorf("tool %q produced invalid structured content: %w", st.tool.Name, err)
		}
	}
	return res, nil
}

// wrapNonObjectResult wraps a StructuredContent value that does not marshal
// to a JSON object (a bare scalar, array, or string) under a "result"
// property, so it is validated against the output schema in that form
// rather than rejected outright. The decision depends only on the value;
// the declared OutputSchema's own type is not consulted.
func wrapNonObjectResult(v any) any {
	if _, ok := v.(map[string]any); ok {
		return v
	}
	data, err := json.Marshal(v)
	if err == nil && len(data) > 0 && data[0] == '{' {
		return v
	}
	return map[string]any{"result": v}
}

// unmarshalSchema unmarshals data into v and validates the result against
// resolved. Unknown fields are rejected so that a client sending extra
// arguments gets a validation error rather than having them silently
// dropped.
func unmarshalSchema(data internaljson.RawMessage, resolved *jsonschema.Resolved, v any) error {
	if len(data) == 0 {
		data = internaljson.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("unmarshaling arguments: %w", err)
	}
	// DisallowUnknownFields only applies to struct targets; for a map target,
	// check the keys against the schema's declared properties instead.
	if m, ok := v.(*map[string]any); ok && resolved != nil {
		if s := resolved.Schema(); s != nil && s.AdditionalProperties == nil && len(s.Properties) > 0 {
			for k := range *m {
				if _, known := s.Properties[k]; !known {
					return fmt.Errorf("unmarshaling arguments: unknown field %q", k)
				}
			}
		}
	}
	if resolved != nil {
		if err := resolved.ApplyDefaults(v); err != nil {
			return fmt.Errorf("applying schema defaults: %w", err)
		}
		if err := resolved.Validate(v); err != nil {
			return fmt.Errorf("validating arguments: %w", err)
		}
	}
	return nil
}
