// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

// Protocol types for the method catalog named in the specification's
// External Interfaces section: initialize, ping, the tools/prompts/resources
// families, logging/setLevel, completion/complete, sampling/createMessage,
// roots/list and elicitation/create, plus their notifications.

import (
	"github.com/google/jsonschema-go/jsonschema"

	internaljson "github.com/nodalmcp/mcpcore/internal/json"
)

// Implementation describes the name and version of an MCP client or server.
type Implementation struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version"`
}

// Annotations give clients hints about how to use or display an object.
type Annotations struct {
	Audience     []Role  `json:"audience,omitempty"`
	LastModified string  `json:"lastModified,omitempty"`
	Priority     float64 `json:"priority,omitempty"`
}

// Role is the sender or recipient of a sampling or prompt message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// LoggingLevel is an RFC-5424 syslog severity.
type LoggingLevel string

const (
	LogDebug     LoggingLevel = "debug"
	LogInfo      LoggingLevel = "info"
	LogNotice    LoggingLevel = "notice"
	LogWarning   LoggingLevel = "warning"
	LogError     LoggingLevel = "error"
	LogCritical  LoggingLevel = "critical"
	LogAlert     LoggingLevel = "alert"
	LogEmergency LoggingLevel = "emergency"
)

var loggingLevelOrder = map[LoggingLevel]int{
	LogDebug: 0, LogInfo: 1, LogNotice: 2, LogWarning: 3,
	LogError: 4, LogCritical: 5, LogAlert: 6, LogEmergency: 7,
}

// AtLeast reports whether l is at least as severe as other.
func (l LoggingLevel) AtLeast(other LoggingLevel) bool {
	return loggingLevelOrder[l] >= loggingLevelOrder[other]
}

// ---- Capabilities ----

// ClientCapabilities describes what a client supports, for negotiation
// during initialize. A nil field means "not supported".
type ClientCapabilities struct {
	Experimental map[string]any         `json:"experimental,omitempty"`
	Roots        *RootsCapability       `json:"roots,omitempty"`
	Sampling     *SamplingCapability    `json:"sampling,omitempty"`
	Elicitation  *ElicitationCapability `json:"elicitation,omitempty"`
}

type RootsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type SamplingCapability struct{}

type ElicitationCapability struct{}

// ServerCapabilities describes what a server supports.
type ServerCapabilities struct {
	Experimental map[string]any         `json:"experimental,omitempty"`
	Logging      *LoggingCapability     `json:"logging,omitempty"`
	Completions  *CompletionsCapability `json:"completions,omitempty"`
	Prompts      *PromptsCapability     `json:"prompts,omitempty"`
	Resources    *ResourcesCapability   `json:"resources,omitempty"`
	Tools        *ToolsCapability       `json:"tools,omitempty"`
}

type LoggingCapability struct{}
type CompletionsCapability struct{}

type PromptsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ---- initialize ----

// latestProtocolVersion is the newest protocol revision this module
// implements, used as the client's requested version and as the server's
// fallback when a client requests a revision it doesn't recognize.
const latestProtocolVersion = "2025-06-18"

// supportedProtocolVersions lists every protocol revision this module's
// wire types and method set are compatible with, oldest first.
var supportedProtocolVersions = []string{
	"2024-11-05",
	"2025-03-26",
	latestProtocolVersion,
}

func isSupportedProtocolVersion(v string) bool {
	for _, sv := range supportedProtocolVersions {
		if sv == v {
			return true
		}
	}
	return false
}

type InitializeParams struct {
	Meta            `json:"_meta,omitempty"`
	ProtocolVersion string              `json:"protocolVersion"`
	Capabilities    *ClientCapabilities `json:"capabilities"`
	ClientInfo      *Implementation     `json:"clientInfo"`
}

func (*InitializeParams) isParams() {}

type InitializeResult struct {
	Meta            `json:"_meta,omitempty"`
	ProtocolVersion string              `json:"protocolVersion"`
	Capabilities    *ServerCapabilities `json:"capabilities"`
	ServerInfo      *Implementation     `json:"serverInfo"`
	Instructions    string              `json:"instructions,omitempty"`
}

func (*InitializeResult) isResult() {}

type InitializedParams struct {
	Meta `json:"_meta,omitempty"`
}

func (*InitializedParams) isParams() {}

// ---- ping ----

type PingParams struct {
	Meta `json:"_meta,omitempty"`
}

func (*PingParams) isParams() {}

type EmptyResult struct {
	Meta `json:"_meta,omitempty"`
}

func (*EmptyResult) isResult() {}

// ---- cancellation & progress ----

type CancelledParams struct {
	Meta      `json:"_meta,omitempty"`
	RequestID any    `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}

func (*CancelledParams) isParams() {}

type ProgressParams struct {
	Meta          `json:"_meta,omitempty"`
	ProgressToken any     `json:"progressToken"`
	Progress      float64 `json:"progress"`
	Total         float64 `json:"total,omitempty"`
	Message       string  `json:"message,omitempty"`
}

func (*ProgressParams) isParams() {}

// ---- tools ----

// Tool is a definition for a tool the client can call. InputSchema is
// always supplied by the caller; this package does not infer schemas from
// Go types via reflection.
type Tool struct {
	Meta         Meta               `json:"_meta,omitempty"`
	Name         string             `json:"name"`
	Title        string             `json:"title,omitempty"`
	Description  string             `json:"description,omitempty"`
	InputSchema  *jsonschema.Schema `json:"inputSchema"`
	OutputSchema *jsonschema.Schema `json:"outputSchema,omitempty"`
	Annotations  *ToolAnnotations   `json:"annotations,omitempty"`
}

// ToolAnnotations are hints about tool behavior. Clients must not make
// tool-use decisions based on these hints from an untrusted server.
type ToolAnnotations struct {
	Title           string `json:"title,omitempty"`
	ReadOnlyHint    bool   `json:"readOnlyHint,omitempty"`
	DestructiveHint *bool  `json:"destructiveHint,omitempty"`
	IdempotentHint  bool   `json:"idempotentHint,omitempty"`
	OpenWorldHint   *bool  `json:"openWorldHint,omitempty"`
}

type ListToolsParams struct {
	Meta   `json:"_meta,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

func (*ListToolsParams) isParams() {}

type ListToolsResult struct {
	Meta       `json:"_meta,omitempty"`
	Tools      []*Tool `json:"tools"`
	NextCursor string  `json:"nextCursor,omitempty"`
}

func (*ListToolsResult) isResult() {}

// CallToolParams is the wire shape of a tools/call request: Arguments is
// left as a raw JSON value so the dispatched tool handler can unmarshal and
// validate it against the tool's own input schema.
type CallToolParams struct {
	Meta      `json:"_meta,omitempty"`
	Name      string                  `json:"name"`
	Arguments internaljson.RawMessage `json:"arguments,omitempty"`
}

func (*CallToolParams) isParams() {}

type CallToolResult struct {
	Meta              `json:"_meta,omitempty"`
	Content           []Content `json:"content"`
	StructuredContent any       `json:"structuredContent,omitempty"`
	IsError           bool      `json:"isError,omitempty"`
}

func (*CallToolResult) isResult() {}

// SetError fills Content with a single text block describing err and marks
// the result as an error, per the tool-handler coercion contract.
func (r *CallToolResult) SetError(err error) {
	r.Content = []Content{&TextContent{Text: err.Error()}}
	r.IsError = true
}

// UnmarshalJSON unmarshals the Content field through its shape-discriminated
// wire form, since Content is an interface and cannot be unmarshaled
// directly.
func (r *CallToolResult) UnmarshalJSON(data []byte) error {
	type res CallToolResult // avoid recursion
	var wire struct {
		res
		Content []*wireContent `json:"content"`
	}
	if err := internaljson.Unmarshal(data, &wire); err != nil {
		return err
	}
	var err error
	if wire.res.Content, err = contentsFromWire(wire.Content, nil); err != nil {
		return err
	}
	*r = CallToolResult(wire.res)
	return nil
}

type ToolListChangedParams struct {
	Meta `json:"_meta,omitempty"`
}

func (*ToolListChangedParams) isParams() {}

// ---- prompts ----

type Prompt struct {
	Meta        Meta              `json:"_meta,omitempty"`
	Name        string            `json:"name"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Arguments   []*PromptArgument `json:"arguments,omitempty"`
}

type PromptArgument struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

type ListPromptsParams struct {
	Meta   `json:"_meta,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

func (*ListPromptsParams) isParams() {}

type ListPromptsResult struct {
	Meta       `json:"_meta,omitempty"`
	Prompts    []*Prompt `json:"prompts"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

func (*ListPromptsResult) isResult() {}

type GetPromptParams struct {
	Meta      `json:"_meta,omitempty"`
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

func (*GetPromptParams) isParams() {}

type GetPromptResult struct {
	Meta        `json:"_meta,omitempty"`
	Description string           `json:"description,omitempty"`
	Messages    []*PromptMessage `json:"messages"`
}

func (*GetPromptResult) isResult() {}

type PromptMessage struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// UnmarshalJSON unmarshals the Content field through its shape-discriminated
// wire form.
func (m *PromptMessage) UnmarshalJSON(data []byte) error {
	type msg PromptMessage // avoid recursion
	var wire struct {
		msg
		Content *wireContent `json:"content"`
	}
	if err := internaljson.Unmarshal(data, &wire); err != nil {
		return err
	}
	var err error
	if wire.msg.Content, err = contentFromWire(wire.Content, nil); err != nil {
		return err
	}
	*m = PromptMessage(wire.msg)
	return nil
}

type PromptListChangedParams struct {
	Meta `json:"_meta,omitempty"`
}

func (*PromptListChangedParams) isParams() {}

// ---- resources ----

type Resource struct {
	Meta        Meta         `json:"_meta,omitempty"`
	URI         string       `json:"uri"`
	Name        string       `json:"name"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	MIMEType    string       `json:"mimeType,omitempty"`
	Size        int64        `json:"size,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

type ResourceTemplate struct {
	Meta        Meta         `json:"_meta,omitempty"`
	URITemplate string       `json:"uriTemplate"`
	Name        string       `json:"name"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	MIMEType    string       `json:"mimeType,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

type ListResourcesParams struct {
	Meta   `json:"_meta,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

func (*ListResourcesParams) isParams() {}

type ListResourcesResult struct {
	Meta       `json:"_meta,omitempty"`
	Resources  []*Resource `json:"resources"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

func (*ListResourcesResult) isResult() {}

type ListResourceTemplatesParams struct {
	Meta   `json:"_meta,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

func (*ListResourceTemplatesParams) isParams() {}

type ListResourceTemplatesResult struct {
	Meta              `json:"_meta,omitempty"`
	ResourceTemplates []*ResourceTemplate `json:"resourceTemplates"`
	NextCursor        string              `json:"nextCursor,omitempty"`
}

func (*ListResourceTemplatesResult) isResult() {}

type ReadResourceParams struct {
	Meta `json:"_meta,omitempty"`
	URI  string `json:"uri"`
}

func (*ReadResourceParams) isParams() {}

type ReadResourceResult struct {
	Meta     `json:"_meta,omitempty"`
	Contents []*ResourceContents `json:"contents"`
}

func (*ReadResourceResult) isResult() {}

type SubscribeParams struct {
	Meta `json:"_meta,omitempty"`
	URI  string `json:"uri"`
}

func (*SubscribeParams) isParams() {}

type UnsubscribeParams struct {
	Meta `json:"_meta,omitempty"`
	URI  string `json:"uri"`
}

func (*UnsubscribeParams) isParams() {}

type ResourceListChangedParams struct {
	Meta `json:"_meta,omitempty"`
}

func (*ResourceListChangedParams) isParams() {}

type ResourceUpdatedParams struct {
	Meta `json:"_meta,omitempty"`
	URI  string `json:"uri"`
}

func (*ResourceUpdatedParams) isParams() {}

// ---- logging ----

type SetLoggingLevelParams struct {
	Meta  `json:"_meta,omitempty"`
	Level LoggingLevel `json:"level"`
}

func (*SetLoggingLevelParams) isParams() {}

type LoggingMessageParams struct {
	Meta   `json:"_meta,omitempty"`
	Level  LoggingLevel `json:"level"`
	Logger string       `json:"logger,omitempty"`
	Data   any          `json:"data"`
}

func (*LoggingMessageParams) isParams() {}

// ---- completion ----

type CompleteReference struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	URI  string `json:"uri,omitempty"`
}

type CompleteParamsArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type CompleteParams struct {
	Meta     `json:"_meta,omitempty"`
	Ref      *CompleteReference     `json:"ref"`
	Argument CompleteParamsArgument `json:"argument"`
}

func (*CompleteParams) isParams() {}

type CompleteResult struct {
	Meta       `json:"_meta,omitempty"`
	Completion CompletionDetails `json:"completion"`
}

func (*CompleteResult) isResult() {}

type CompletionDetails struct {
	Values  []string `json:"values"`
	Total   int      `json:"total,omitempty"`
	HasMore bool     `json:"hasMore,omitempty"`
}

// ---- sampling ----

type ModelHint struct {
	Name string `json:"name,omitempty"`
}

type ModelPreferences struct {
	Hints                []*ModelHint `json:"hints,omitempty"`
	CostPriority         float64      `json:"costPriority,omitempty"`
	SpeedPriority        float64      `json:"speedPriority,omitempty"`
	IntelligencePriority float64      `json:"intelligencePriority,omitempty"`
}

type SamplingMessage struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// UnmarshalJSON unmarshals the Content field through its shape-discriminated
// wire form.
func (m *SamplingMessage) UnmarshalJSON(data []byte) error {
	type msg SamplingMessage // avoid recursion
	var wire struct {
		msg
		Content *wireContent `json:"content"`
	}
	if err := internaljson.Unmarshal(data, &wire); err != nil {
		return err
	}
	var err error
	if wire.msg.Content, err = contentFromWire(wire.Content, nil); err != nil {
		return err
	}
	*m = SamplingMessage(wire.msg)
	return nil
}

type CreateMessageParams struct {
	Meta             `json:"_meta,omitempty"`
	Messages         []*SamplingMessage `json:"messages"`
	ModelPreferences *ModelPreferences  `json:"modelPreferences,omitempty"`
	SystemPrompt     string             `json:"systemPrompt,omitempty"`
	IncludeContext   string             `json:"includeContext,omitempty"`
	Temperature      float64            `json:"temperature,omitempty"`
	MaxTokens        int64              `json:"maxTokens"`
	StopSequences    []string           `json:"stopSequences,omitempty"`
	Metadata         any                `json:"metadata,omitempty"`
}

func (*CreateMessageParams) isParams() {}

type CreateMessageResult struct {
	Meta       `json:"_meta,omitempty"`
	Role       Role    `json:"role"`
	Content    Content `json:"content"`
	Model      string  `json:"model"`
	StopReason string  `json:"stopReason,omitempty"`
}

func (*CreateMessageResult) isResult() {}

// UnmarshalJSON unmarshals the Content field through its shape-discriminated
// wire form.
func (r *CreateMessageResult) UnmarshalJSON(data []byte) error {
	type res CreateMessageResult // avoid recursion
	var wire struct {
		res
		Content *wireContent `json:"content"`
	}
	if err := internaljson.Unmarshal(data, &wire); err != nil {
		return err
	}
	var err error
	if wire.res.Content, err = contentFromWire(wire.Content, nil); err != nil {
		return err
	}
	*r = CreateMessageResult(wire.res)
	return nil
}

// ---- roots ----

type Root struct {
	Meta Meta   `json:"_meta,omitempty"`
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

type ListRootsParams struct {
	Meta `json:"_meta,omitempty"`
}

func (*ListRootsParams) isParams() {}

type ListRootsResult struct {
	Meta  `json:"_meta,omitempty"`
	Roots []*Root `json:"roots"`
}

func (*ListRootsResult) isResult() {}

type RootsListChangedParams struct {
	Meta `json:"_meta,omitempty"`
}

func (*RootsListChangedParams) isParams() {}

// ---- elicitation ----

type ElicitParams struct {
	Meta            `json:"_meta,omitempty"`
	Message         string             `json:"message"`
	RequestedSchema *jsonschema.Schema `json:"requestedSchema"`
}

func (*ElicitParams) isParams() {}

// ElicitResult.Action is one of "accept", "decline", or "cancel".
type ElicitResult struct {
	Meta    `json:"_meta,omitempty"`
	Action  string         `json:"action"`
	Content map[string]any `json:"content,omitempty"`
}

func (*ElicitResult) isResult() {}
