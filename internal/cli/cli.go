package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ce-mcp/pkg/buildinfo"
	"github.com/matzehuels/ce-mcp/pkg/cache"
	"github.com/matzehuels/ce-mcp/pkg/config"
	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
	"github.com/matzehuels/ce-mcp/pkg/observability"
	"github.com/matzehuels/ce-mcp/pkg/tools"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "ce-mcp"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	debug      bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "ce-mcp serves Compiler Explorer as MCP tools",
		Long: `ce-mcp is a Model Context Protocol server that lets LLM clients compile, run and
analyze code on Compiler Explorer (godbolt.org), and a CLI to browse what it offers.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.debug {
				c.SetLogLevel(LogDebug)
				installDebugHooks(c.Logger)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default ~/.config/compiler_explorer_mcp/config.yaml)")
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "debug logging including HTTP, cache and tool events")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.languagesCommand())
	root.AddCommand(c.compilersCommand())
	root.AddCommand(c.librariesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Service Factory
// =============================================================================

// loadConfig reads and validates the configuration selected by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newService wires the configured cache, client and tool service.
// The returned cleanup closes the cache backend.
func (c *CLI) newService(ctx context.Context) (*tools.Service, *ce.Client, func(), error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	backend, err := newCache(ctx, cfg)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "backend", cfg.Cache.Backend, "error", err)
		backend = cache.NewNullCache()
	}
	client := ce.NewClientFromConfig(cache.Instrument(backend), cfg)
	c.Logger.Debug("compiler explorer client", "endpoint", client.Endpoint(), "cache", cfg.Cache.Backend)

	cleanup := func() { _ = backend.Close() }
	return tools.NewService(client, cfg, c.Logger), client, cleanup, nil
}

// newCache opens the configured cache backend. A disabled cache is a
// [cache.NullCache].
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if !cfg.Cache.Enabled {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendMemory:
		return cache.NewMemoryCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
	case config.BackendFile, "":
		dir, err := cfg.CacheDir()
		if err != nil {
			return nil, err
		}
		return cache.NewFileCacheWithLimit(dir, cfg.MaxCacheBytes())
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// installDebugHooks routes HTTP, cache and tool events to the logger.
func installDebugHooks(l *log.Logger) {
	observability.SetHTTPHooks(&logHTTPHooks{logger: l})
	observability.SetCacheHooks(&logCacheHooks{logger: l})
	observability.SetToolHooks(&logToolHooks{logger: l})
}
