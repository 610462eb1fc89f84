package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"brandpatrol/internal/catalog"
	"brandpatrol/internal/detect"
	"brandpatrol/internal/ledger"
)

// Deps are the stores and detector the MCP tools operate on.
type Deps struct {
	Catalog  *catalog.Store
	Reports  *ledger.Store
	Detector *detect.Detector
}

// Serve starts the MCP stdio server with all tools registered.
func Serve(deps Deps) error {
	s := server.NewMCPServer(
		"brandpatrol",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	registerTools(s, deps)

	return server.ServeStdio(s)
}
