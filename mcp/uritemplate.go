// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"fmt"

	"github.com/yosida95/uritemplate/v3"
)

// resourceRoute binds a ResourceTemplate to its compiled RFC 6570 template,
// so resources/read can route a concrete URI to the handler registered for
// the template it matches.
type resourceRoute struct {
	template *ResourceTemplate
	compiled *uritemplate.Template
	handler  ResourceHandler
	// literal is true when the template string has no variables, so an
	// exact string comparison can be used instead of expensive regexp
	// matching; an RFC 6570 template with zero variables is just a URI.
	literal bool
}

func newResourceRoute(t *ResourceTemplate, h ResourceHandler) (*resourceRoute, error) {
	tmpl, err := uritemplate.Parse(t.URITemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing resource template %q: %w", t.URITemplate, err)
	}
	return &resourceRoute{
		template: t,
		compiled: tmpl,
		handler:  h,
		literal:  len(tmpl.Varnames()) == 0,
	}, nil
}

// match reports whether uri satisfies the route's template.
func (r *resourceRoute) match(uri string) bool {
	if r.literal {
		return uri == r.template.URITemplate
	}
	return r.compiled.Match(uri) != nil
}
