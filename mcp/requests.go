// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file holds named instantiations of the generic request types, one
// per method in the catalog.

package mcp

type (
	InitializeRequest           = ClientRequest[*InitializeParams]
	InitializedRequest          = ServerRequest[*InitializedParams]
	PingRequest                 = ServerRequest[*PingParams]
	ListToolsRequest            = ServerRequest[*ListToolsParams]
	CallToolRequest             = ServerRequest[*CallToolParams]
	ListPromptsRequest          = ServerRequest[*ListPromptsParams]
	GetPromptRequest            = ServerRequest[*GetPromptParams]
	ListResourcesRequest        = ServerRequest[*ListResourcesParams]
	ListResourceTemplatesRequest = ServerRequest[*ListResourceTemplatesParams]
	ReadResourceRequest         = ServerRequest[*ReadResourceParams]
	SubscribeRequest            = ServerRequest[*SubscribeParams]
	UnsubscribeRequest          = ServerRequest[*UnsubscribeParams]
	SetLoggingLevelRequest      = ServerRequest[*SetLoggingLevelParams]
	CompleteRequest             = ServerRequest[*CompleteParams]
)

type (
	CreateMessageRequest        = ClientRequest[*CreateMessageParams]
	ElicitRequest               = ClientRequest[*ElicitParams]
	ListRootsRequest            = ClientRequest[*ListRootsParams]
	PingClientRequest           = ClientRequest[*PingParams]
	LoggingMessageRequest       = ClientRequest[*LoggingMessageParams]
	ToolListChangedRequest      = ClientRequest[*ToolListChangedParams]
	PromptListChangedRequest    = ClientRequest[*PromptListChangedParams]
	ResourceListChangedRequest  = ClientRequest[*ResourceListChangedParams]
	ResourceUpdatedRequest      = ClientRequest[*ResourceUpdatedParams]
	RootsListChangedRequest     = ClientRequest[*RootsListChangedParams]
)
