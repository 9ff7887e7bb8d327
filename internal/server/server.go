// Package server exposes the Compiler Explorer tools over the Model Context
// Protocol.
//
// A [Server] registers one MCP tool per [tools.Service] operation. It can be
// served on stdio ([Server.Run]) or over streamable HTTP ([Server.Handler],
// [Server.ListenAndServe]).
package server

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matzehuels/ce-mcp/pkg/buildinfo"
	errs "github.com/matzehuels/ce-mcp/pkg/errors"
	"github.com/matzehuels/ce-mcp/pkg/observability"
	"github.com/matzehuels/ce-mcp/pkg/tools"
)

// Name is the implementation name reported to MCP clients.
const Name = "ce-mcp"

// Server wraps the MCP server and connects it to the tool service.
type Server struct {
	mcp    *mcp.Server
	svc    *tools.Service
	logger *log.Logger
}

// New creates a server with every tool registered. A nil logger means
// [log.Default].
func New(svc *tools.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    Name,
			Version: buildinfo.Version,
		}, nil),
		svc:    svc,
		logger: logger,
	}
	s.registerTools()
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// Run serves MCP on stdin/stdout until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving MCP on stdio", "version", buildinfo.Version)
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// addTool registers run as an MCP tool. Each call gets a call id, is
// reported to the tool hooks, and has its failures turned into tool results
// flagged as errors.
func addTool[In, Out any](s *Server, name, description string, run func(context.Context, In) (*Out, error)) {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        name,
		Description: description,
	}, func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		var zero Out
		callID := uuid.NewString()
		logger := s.logger.With("tool", name, "call", callID)
		hooks := observability.Tools()

		hooks.OnToolStart(ctx, name, callID)
		start := time.Now()
		out, err := run(ctx, in)
		elapsed := time.Since(start)
		hooks.OnToolComplete(ctx, name, callID, elapsed, err)

		if err != nil {
			if errs.IsLibraryError(err) {
				logger.Info("library resolution failed", "code", errs.GetCode(err), "error", err)
			} else {
				logger.Warn("tool failed", "code", errs.GetCode(err), "error", err)
			}
			return errorResult(errs.UserMessage(err)), zero, nil
		}
		logger.Debug("tool completed", "duration", elapsed.Round(time.Millisecond))
		return nil, *out, nil
	})
}

// errorResult builds a tool result that reports a failure to the client.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
