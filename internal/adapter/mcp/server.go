// Package mcp exposes the record services as Model Context Protocol tools.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/guillermoBallester/storeadmin/internal/core/service"
)

const serverName = "storeadmin"

// NewServer creates an MCPServer with the record tools and call logging.
func NewServer(version string, repo *service.RecordRepository, scanner *service.SearchScanner, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithHooks(toolCallHooks(logger)),
	)

	RegisterTools(s, repo, scanner)

	return s
}
