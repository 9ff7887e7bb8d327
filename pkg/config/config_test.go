package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	errs "github.com/matzehuels/ce-mcp/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.API.Endpoint != "https://godbolt.org/api" {
		t.Errorf("Endpoint = %q", cfg.API.Endpoint)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Timeout() = %v", cfg.Timeout())
	}
	if cfg.TTL() != time.Hour {
		t.Errorf("TTL() = %v", cfg.TTL())
	}
	if cfg.MaxCacheBytes() != 100*1024*1024 {
		t.Errorf("MaxCacheBytes() = %d", cfg.MaxCacheBytes())
	}
	if cfg.Filters.Execute || cfg.Filters.Binary {
		t.Error("execute and binary filters should default to false")
	}
	if !cfg.Filters.Intel || !cfg.Filters.Demangle {
		t.Error("intel and demangle filters should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestResolveCompiler(t *testing.T) {
	cfg := Default()

	tests := []struct {
		in, want string
	}{
		{"g++", "g132"},
		{"clang++", "clang1700"},
		{"rustc", "r1740"},
		{"go", "gccgo132"},
		{"g132", "g132"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		if got := cfg.ResolveCompiler(tt.in); got != tt.want {
			t.Errorf("ResolveCompiler(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(EnvEndpoint, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("missing file should yield defaults (-want +got):\n%s", diff)
	}
}

func TestLoadYAMLMergesOverDefaults(t *testing.T) {
	t.Setenv(EnvEndpoint, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `compiler_explorer_mcp:
  api:
    endpoint: http://localhost:10240/api
    timeout: 10
  filters:
    intel: false
  compiler_mappings:
    my-gcc: g141
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.API.Endpoint != "http://localhost:10240/api" {
		t.Errorf("Endpoint = %q", cfg.API.Endpoint)
	}
	if cfg.API.Timeout != 10 {
		t.Errorf("Timeout = %d", cfg.API.Timeout)
	}
	if cfg.API.RetryCount != 3 {
		t.Errorf("RetryCount should keep default, got %d", cfg.API.RetryCount)
	}
	if cfg.Filters.Intel {
		t.Error("intel filter should be overridden to false")
	}
	if !cfg.Filters.Labels {
		t.Error("labels filter should keep its default")
	}
	if cfg.ResolveCompiler("my-gcc") != "g141" {
		t.Error("custom mapping should be added")
	}
	if cfg.ResolveCompiler("g++") != "g132" {
		t.Error("default mappings should survive a partial file")
	}
}

func TestLoadWithoutRootKey(t *testing.T) {
	t.Setenv(EnvEndpoint, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api:\n  timeout: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.API.Timeout != 30 {
		t.Errorf("settings outside the root key should be ignored, timeout = %d", cfg.API.Timeout)
	}
}

func TestLoadTOML(t *testing.T) {
	t.Setenv(EnvEndpoint, "")

	path := filepath.Join(t.TempDir(), "config.toml")
	doc := `[compiler_explorer_mcp.defaults]
language = "rust"
compiler = "rustc"

[compiler_explorer_mcp.cache]
backend = "memory"
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Defaults.Language != "rust" || cfg.Defaults.Compiler != "rustc" {
		t.Errorf("Defaults = %+v", cfg.Defaults)
	}
	if cfg.Cache.Backend != BackendMemory {
		t.Errorf("Backend = %q", cfg.Cache.Backend)
	}
	if cfg.Cache.TTLSeconds != 3600 {
		t.Errorf("TTLSeconds should keep default, got %d", cfg.Cache.TTLSeconds)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("compiler_explorer_mcp: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("Load error = %v, want INVALID_CONFIG", err)
	}
}

func TestEnvEndpointOverride(t *testing.T) {
	t.Setenv(EnvEndpoint, "http://ce.internal/api/")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.Endpoint != "http://ce.internal/api" {
		t.Errorf("Endpoint = %q", cfg.API.Endpoint)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(EnvEndpoint, "")

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := Default()
	want.Defaults.Compiler = "clang1700"

	if err := want.Save(path); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad scheme", func(c *Config) { c.API.Endpoint = "ftp://x" }, false},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, false},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }, false},
		{"redis without url", func(c *Config) { c.Cache.Backend = BackendRedis }, false},
		{"redis with url", func(c *Config) {
			c.Cache.Backend = BackendRedis
			c.Cache.RedisURL = "redis://localhost:6379/0"
		}, true},
		{"zero stdout lines", func(c *Config) { c.OutputLimits.MaxStdoutLines = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, ok %v", err, tt.ok)
			}
			if err != nil && !errs.Is(err, errs.ErrCodeInvalidConfig) {
				t.Errorf("code = %v, want INVALID_CONFIG", errs.GetCode(err))
			}
		})
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/xdg")

	cfg := Default()
	dir, err := cfg.CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/xdg", "ce-mcp") {
		t.Errorf("CacheDir() = %q", dir)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg.Cache.Directory = "~/.cache/compiler_explorer_mcp"
	dir, _ = cfg.CacheDir()
	if dir != filepath.Join(home, ".cache", "compiler_explorer_mcp") {
		t.Errorf("CacheDir() = %q", dir)
	}

	cfg.Cache.Directory = "/var/cache/ce"
	dir, _ = cfg.CacheDir()
	if dir != "/var/cache/ce" {
		t.Errorf("CacheDir() = %q", dir)
	}
}
