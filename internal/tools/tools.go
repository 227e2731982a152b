// Package tools exposes pagetour's annotation store and locator engine as
// MCP tools.
package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/pagetour/internal/locator"
	"github.com/standardbeagle/pagetour/internal/store"
)

// Tools holds what the handlers operate on.
type Tools struct {
	store  store.Store
	engine *locator.Engine
}

// New creates the tool set. A nil engine uses default options.
func New(st store.Store, engine *locator.Engine) *Tools {
	if engine == nil {
		engine = locator.NewEngine(locator.DefaultOptions())
	}
	return &Tools{store: st, engine: engine}
}

// Register adds every tool to server.
func (t *Tools) Register(server *mcp.Server) {
	RegisterAnnotationTool(server, t)
	RegisterLocatorTools(server, t)
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
