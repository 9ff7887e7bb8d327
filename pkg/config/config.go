// Package config holds the ce-mcp configuration model.
//
// Configuration is read from a YAML (or, by extension, TOML) document whose
// settings live under a single top-level key:
//
//	compiler_explorer_mcp:
//	  api:
//	    endpoint: https://godbolt.org/api
//	  compiler_mappings:
//	    g++: g132
//
// Missing files yield [Default]; partial files are merged over it.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/ce-mcp/pkg/errors"
)

// RootKey is the top-level key every configuration document nests under.
const RootKey = "compiler_explorer_mcp"

// EnvEndpoint overrides api.endpoint when set.
const EnvEndpoint = "CE_MCP_ENDPOINT"

// UserAgent is sent with every Compiler Explorer request. It is not configurable.
const UserAgent = "CompilerExplorerMCP/1.0"

// Cache backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Config is the complete server configuration.
type Config struct {
	API              APIConfig         `yaml:"api" toml:"api" json:"api"`
	Cache            CacheConfig       `yaml:"cache" toml:"cache" json:"cache"`
	Defaults         DefaultsConfig    `yaml:"defaults" toml:"defaults" json:"defaults"`
	Filters          Filters           `yaml:"filters" toml:"filters" json:"filters"`
	OutputLimits     OutputLimits      `yaml:"output_limits" toml:"output_limits" json:"output_limits"`
	CompilerMappings map[string]string `yaml:"compiler_mappings" toml:"compiler_mappings" json:"compiler_mappings"`
}

// APIConfig configures access to the Compiler Explorer REST API.
type APIConfig struct {
	Endpoint        string  `yaml:"endpoint" toml:"endpoint" json:"endpoint" validate:"required"`
	VersionEndpoint string  `yaml:"version_endpoint" toml:"version_endpoint" json:"version_endpoint" validate:"omitempty,url"`
	Timeout         int     `yaml:"timeout" toml:"timeout" json:"timeout" validate:"gte=1,lte=600"`
	RetryCount      int     `yaml:"retry_count" toml:"retry_count" json:"retry_count" validate:"gte=1,lte=10"`
	RetryBackoff    float64 `yaml:"retry_backoff" toml:"retry_backoff" json:"retry_backoff" validate:"gte=1"`
}

// CacheConfig configures the optional metadata cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	Backend    string `yaml:"backend" toml:"backend" json:"backend" validate:"omitempty,oneof=file memory redis none"`
	Directory  string `yaml:"directory" toml:"directory" json:"directory"`
	RedisURL   string `yaml:"redis_url" toml:"redis_url" json:"redis_url" validate:"required_if=Backend redis"`
	TTLSeconds int    `yaml:"ttl_seconds" toml:"ttl_seconds" json:"ttl_seconds" validate:"gte=0"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb" json:"max_size_mb" validate:"gte=0"`
}

// DefaultsConfig holds the defaults applied when a tool call omits a value.
type DefaultsConfig struct {
	Language              string `yaml:"language" toml:"language" json:"language"`
	Compiler              string `yaml:"compiler" toml:"compiler" json:"compiler"`
	ExtractArgsFromSource bool   `yaml:"extract_args_from_source" toml:"extract_args_from_source" json:"extract_args_from_source"`
}

// Filters are Compiler Explorer output filters. Field names match the API.
type Filters struct {
	Binary       bool `yaml:"binary" toml:"binary" json:"binary"`
	BinaryObject bool `yaml:"binaryObject" toml:"binaryObject" json:"binaryObject"`
	CommentOnly  bool `yaml:"commentOnly" toml:"commentOnly" json:"commentOnly"`
	Demangle     bool `yaml:"demangle" toml:"demangle" json:"demangle"`
	Directives   bool `yaml:"directives" toml:"directives" json:"directives"`
	Execute      bool `yaml:"execute" toml:"execute" json:"execute"`
	Intel        bool `yaml:"intel" toml:"intel" json:"intel"`
	Labels       bool `yaml:"labels" toml:"labels" json:"labels"`
	LibraryCode  bool `yaml:"libraryCode" toml:"libraryCode" json:"libraryCode"`
	Trim         bool `yaml:"trim" toml:"trim" json:"trim"`
	DebugCalls   bool `yaml:"debugCalls" toml:"debugCalls" json:"debugCalls"`
}

// OutputLimits bound how much compiler output a tool returns.
type OutputLimits struct {
	MaxStdoutLines    int    `yaml:"max_stdout_lines" toml:"max_stdout_lines" json:"max_stdout_lines" validate:"gte=1"`
	MaxStderrLines    int    `yaml:"max_stderr_lines" toml:"max_stderr_lines" json:"max_stderr_lines" validate:"gte=1"`
	MaxAssemblyLines  int    `yaml:"max_assembly_lines" toml:"max_assembly_lines" json:"max_assembly_lines" validate:"gte=1"`
	MaxLineLength     int    `yaml:"max_line_length" toml:"max_line_length" json:"max_line_length" validate:"gte=1"`
	TruncationMessage string `yaml:"truncation_message" toml:"truncation_message" json:"truncation_message"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Endpoint:        "https://godbolt.org/api",
			VersionEndpoint: "https://api.compiler-explorer.com/get_deployed_exe_version",
			Timeout:         30,
			RetryCount:      3,
			RetryBackoff:    1.5,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Backend:    BackendFile,
			TTLSeconds: 3600,
			MaxSizeMB:  100,
		},
		Defaults: DefaultsConfig{
			Language:              "c++",
			Compiler:              "g132",
			ExtractArgsFromSource: true,
		},
		Filters: Filters{
			Demangle:    true,
			Directives:  true,
			Intel:       true,
			Labels:      true,
			LibraryCode: true,
			Trim:        true,
			DebugCalls:  true,
		},
		OutputLimits: OutputLimits{
			MaxStdoutLines:    100,
			MaxStderrLines:    50,
			MaxAssemblyLines:  500,
			MaxLineLength:     200,
			TruncationMessage: "... (output truncated)",
		},
		CompilerMappings: map[string]string{
			"g++":          "g132",
			"gcc-latest":   "g132",
			"clang++":      "clang1700",
			"clang-latest": "clang1700",
			"fpc":          "fpc322",
			"rustc":        "r1740",
			"go":           "gccgo132",
		},
	}
}

// DefaultPath returns ~/.config/compiler_explorer_mcp/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "compiler_explorer_mcp", "config.yaml"), nil
}

// Load reads the configuration at path, merging it over [Default]. An empty
// path means [DefaultPath]. A missing file is not an error. Files ending in
// .toml are parsed as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			cfg := Default()
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	cfg, err := Parse(data, strings.EqualFold(filepath.Ext(path), ".toml"))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Parse decodes a configuration document and merges it over [Default].
// A document without the root key yields the defaults.
func Parse(data []byte, isTOML bool) (*Config, error) {
	doc := struct {
		Root Config `yaml:"compiler_explorer_mcp" toml:"compiler_explorer_mcp"`
	}{Root: *Default()}

	if isTOML {
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, err
		}
	} else if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}
	return &doc.Root, nil
}

// Save writes the configuration as YAML under the root key.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Marshal encodes the configuration as a YAML document under the root key.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]*Config{RootKey: c}); err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Config) applyEnvOverrides() {
	if endpoint := os.Getenv(EnvEndpoint); endpoint != "" {
		c.API.Endpoint = strings.TrimRight(endpoint, "/")
	}
}

// Validate checks value ranges and backend settings.
func (c *Config) Validate() error {
	if err := errs.ValidateURL(c.API.Endpoint); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "api.endpoint")
	}
	for _, v := range []any{c.API, c.Cache, c.OutputLimits} {
		if err := errs.ValidateStruct(v); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid configuration: %s", errs.UserMessage(err))
		}
	}
	return nil
}

// ResolveCompiler maps a user-friendly compiler name (g++, clang-latest, ...)
// to a Compiler Explorer id. Unknown names are returned unchanged.
func (c *Config) ResolveCompiler(name string) string {
	if id, ok := c.CompilerMappings[name]; ok {
		return id
	}
	return name
}

// Timeout returns the API request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.Timeout) * time.Second
}

// TTL returns the metadata cache lifetime.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// MaxCacheBytes returns the file cache size limit in bytes (0 = unlimited).
func (c *Config) MaxCacheBytes() int64 {
	return int64(c.Cache.MaxSizeMB) * 1024 * 1024
}

// CacheDir returns the expanded cache directory. Without an explicit
// directory it follows XDG: $XDG_CACHE_HOME/ce-mcp or ~/.cache/ce-mcp.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Directory != "" {
		return expandHome(c.Cache.Directory)
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "ce-mcp"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "ce-mcp"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
