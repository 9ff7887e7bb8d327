// Package cli implements the ce-mcp command-line interface.
//
// The main command is serve, which runs the MCP server on stdio or, with
// --http, over streamable HTTP. The remaining commands browse what Compiler
// Explorer offers and manage the local configuration and metadata cache.
//
// # Commands
//
// The commands are:
//   - serve: Run the MCP server
//   - languages, compilers, libraries: List what Compiler Explorer offers
//   - cache: Manage the metadata cache
//   - config: Locate, create or print the configuration file
//
// # Logging
//
// Logs go to stderr so that stdout stays free for the stdio transport.
// --verbose (-v) selects debug level; --debug additionally logs every HTTP
// request, cache lookup and tool call through the observability hooks.
// Loggers are passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Fetched 312 compilers (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Debug Hooks
// =============================================================================

type logHTTPHooks struct{ logger *log.Logger }

func (h *logHTTPHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *logHTTPHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h *logHTTPHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Warn("http error", "method", method, "host", host, "path", path, "error", err)
}

type logCacheHooks struct{ logger *log.Logger }

func (h *logCacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logCacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logCacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

type logToolHooks struct{ logger *log.Logger }

func (h *logToolHooks) OnToolStart(_ context.Context, tool, callID string) {
	h.logger.Debug("tool start", "tool", tool, "call", callID)
}

func (h *logToolHooks) OnToolComplete(_ context.Context, tool, callID string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("tool error", "tool", tool, "call", callID, "duration", d.Round(time.Millisecond), "error", err)
		return
	}
	h.logger.Debug("tool done", "tool", tool, "call", callID, "duration", d.Round(time.Millisecond))
}
