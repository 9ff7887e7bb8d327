package compilerexplorer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/ce-mcp/pkg/cache"
	"github.com/matzehuels/ce-mcp/pkg/config"
	"github.com/matzehuels/ce-mcp/pkg/integrations"
)

// DefaultEndpoint is the public Compiler Explorer API.
const DefaultEndpoint = "https://godbolt.org/api"

// DefaultVersionEndpoint reports the deployed build of a compiler.
const DefaultVersionEndpoint = "https://api.compiler-explorer.com/get_deployed_exe_version"

var essentialFields = []string{
	"id", "name", "lang", "compilerType", "instructionSet", "semver",
	"group", "groupName", "hidden", "isNightly", "libsArr",
	"supportsLibraryCodeFilter", "supportsExecute", "supportsBinary",
	"supportsAsmDocs", "supportsOptOutput",
}

var extendedFields = []string{
	"tools", "possibleOverrides", "possibleRuntimeTools", "license",
	"notification", "options", "alias",
}

// Options configures a [Client]. Zero values fall back to the public API,
// the default filters and a 30 second timeout.
type Options struct {
	Endpoint        string
	VersionEndpoint string
	Timeout         time.Duration
	CacheTTL        time.Duration
	Backoff         cache.Backoff
	Filters         *config.Filters
}

// Client provides access to the Compiler Explorer REST API.
// Metadata listings (languages, compilers, libraries) are cached; compilations,
// executions and shortlinks never are.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL    string
	versionURL string
	filters    config.Filters
}

// NewClient creates a Compiler Explorer client with the given cache backend.
// Pass nil (or a [cache.NullCache]) to disable response caching.
func NewClient(backend cache.Cache, opts Options) *Client {
	headers := map[string]string{
		"User-Agent": config.UserAgent,
		"Accept":     "application/json",
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.VersionEndpoint == "" {
		opts.VersionEndpoint = DefaultVersionEndpoint
	}
	filters := config.Default().Filters
	if opts.Filters != nil {
		filters = *opts.Filters
	}

	base := integrations.NewClient(backend, "ce", opts.CacheTTL, headers)
	if opts.Timeout > 0 {
		base.SetTimeout(opts.Timeout)
	}
	if opts.Backoff.Attempts > 0 {
		base.SetBackoff(opts.Backoff)
	}
	return &Client{
		Client:     base,
		baseURL:    strings.TrimRight(opts.Endpoint, "/"),
		versionURL: opts.VersionEndpoint,
		filters:    filters,
	}
}

// NewClientFromConfig creates a client from the api, filters and cache
// sections of cfg.
func NewClientFromConfig(backend cache.Cache, cfg *config.Config) *Client {
	filters := cfg.Filters
	return NewClient(backend, Options{
		Endpoint:        cfg.API.Endpoint,
		VersionEndpoint: cfg.API.VersionEndpoint,
		Timeout:         cfg.Timeout(),
		CacheTTL:        cfg.TTL(),
		Backoff: cache.Backoff{
			Attempts: cfg.API.RetryCount,
			Delay:    time.Second,
			Factor:   cfg.API.RetryBackoff,
		},
		Filters: &filters,
	})
}

// Endpoint returns the API base URL.
func (c *Client) Endpoint() string { return c.baseURL }

// Languages lists the languages Compiler Explorer supports.
// If refresh is true, the cache is bypassed.
func (c *Client) Languages(ctx context.Context, refresh bool) ([]Language, error) {
	var langs []Language
	err := c.Cached(ctx, "languages", refresh, &langs, func() error {
		return c.Get(ctx, c.baseURL+"/languages", &langs)
	})
	if err != nil {
		return nil, fmt.Errorf("get languages: %w", err)
	}
	return langs, nil
}

// Compilers lists the compilers for a language. With extended set, tools,
// overrides, runtime tools, license, notification, options and aliases are
// requested too.
func (c *Client) Compilers(ctx context.Context, lang string, extended, refresh bool) ([]Compiler, error) {
	fields := essentialFields
	variant := "essential"
	if extended {
		fields = append(append([]string{}, essentialFields...), extendedFields...)
		variant = "extended"
	}
	url := fmt.Sprintf("%s/compilers/%s?fields=%s", c.baseURL, integrations.PathEscape(lang), strings.Join(fields, ","))

	var compilers []Compiler
	err := c.Cached(ctx, "compilers:"+lang+":"+variant, refresh, &compilers, func() error {
		return c.Get(ctx, url, &compilers)
	})
	if err != nil {
		return nil, fmt.Errorf("get compilers for %s: %w", lang, err)
	}
	return compilers, nil
}

// Libraries lists the libraries available for a language.
func (c *Client) Libraries(ctx context.Context, lang string, refresh bool) ([]Library, error) {
	url := fmt.Sprintf("%s/libraries/%s", c.baseURL, integrations.PathEscape(lang))

	var libs []Library
	err := c.Cached(ctx, "libraries:"+lang, refresh, &libs, func() error {
		return c.Get(ctx, url, &libs)
	})
	if err != nil {
		return nil, fmt.Errorf("get libraries for %s: %w", lang, err)
	}
	return libs, nil
}

// Compile compiles req.Source with the configured filters, overridden by
// req.FilterOverrides. Execution is always off.
func (c *Client) Compile(ctx context.Context, req CompileRequest) (*CompileResult, error) {
	filters := c.mergeFilters(req.FilterOverrides)
	filters["execute"] = false
	if req.CreateBinary {
		filters["binary"] = true
	}
	if req.CreateObjectOnly {
		filters["binaryObject"] = true
	}
	var optInfo any
	if req.ProduceOptInfo {
		optInfo = true
	}

	payload := compilePayload{
		Source: req.Source,
		Options: compileOptions{
			UserArguments: req.Options,
			CompilerOptions: map[string]any{
				"producePp":             nil,
				"produceAst":            nil,
				"produceGccDump":        map[string]any{},
				"produceCfg":            false,
				"produceGnatDebugTree":  nil,
				"produceGnatDebug":      nil,
				"produceIr":             nil,
				"produceOptInfo":        optInfo,
				"produceStackUsageInfo": nil,
				"produceCppCheck":       nil,
				"produceDevice":         nil,
				"overrides":             nil,
			},
			Filters:   filters,
			Tools:     nonNilTools(req.Tools),
			Libraries: nonNilLibs(req.Libraries),
		},
	}
	return c.postCompile(ctx, req.CompilerID, payload)
}

// CompileAndExecute compiles and runs req.Source. Stdin, Args and Timeout are
// forwarded as execute parameters; the timeout is enforced remotely.
func (c *Client) CompileAndExecute(ctx context.Context, req CompileRequest) (*CompileResult, error) {
	filters := c.mergeFilters(nil)
	filters["execute"] = true
	filters["binary"] = req.CreateBinary
	filters["binaryObject"] = req.CreateObjectOnly

	args := req.Args
	if args == nil {
		args = []string{}
	}
	payload := compilePayload{
		Source: req.Source,
		Options: compileOptions{
			UserArguments: req.Options,
			ExecuteParameters: &executeParameters{
				Args:    args,
				Stdin:   req.Stdin,
				Timeout: req.Timeout,
			},
			CompilerOptions: map[string]any{
				"executorRequest": true,
				"skipAsm":         true,
			},
			Filters:   filters,
			Tools:     nonNilTools(req.Tools),
			Libraries: nonNilLibs(req.Libraries),
		},
	}
	return c.postCompile(ctx, req.CompilerID, payload)
}

func (c *Client) postCompile(ctx context.Context, compilerID string, payload compilePayload) (*CompileResult, error) {
	url := fmt.Sprintf("%s/compiler/%s/compile", c.baseURL, integrations.PathEscape(compilerID))

	var result CompileResult
	err := c.Retry(ctx, func() error {
		result = CompileResult{}
		return c.PostJSON(ctx, url, payload, &result)
	})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: compiler %s", err, compilerID)
		}
		return nil, fmt.Errorf("compile with %s: %w", compilerID, err)
	}
	return &result, nil
}

// CreateShortLink stores a single-compiler session and returns its share URL.
func (c *Client) CreateShortLink(ctx context.Context, req ShareRequest) (string, error) {
	comp := shareCompiler{ID: req.CompilerID, Options: req.Options}
	if len(req.Libraries) > 0 {
		comp.Libraries = req.Libraries
	}
	if len(req.Tools) > 0 {
		comp.Tools = req.Tools
	}
	payload := sharePayload{Sessions: []shareSession{{
		ID:        1,
		Language:  req.Language,
		Source:    req.Source,
		Compilers: []shareCompiler{comp},
	}}}

	var resp struct {
		URL string `json:"url"`
	}
	err := c.Retry(ctx, func() error {
		return c.PostJSON(ctx, c.baseURL+"/shortener", payload, &resp)
	})
	if err != nil {
		return "", fmt.Errorf("create short link: %w", err)
	}
	return resp.URL, nil
}

// CompilerVersion reports the deployed build of a compiler. It never fails:
// errors are returned in the map under "error".
func (c *Client) CompilerVersion(ctx context.Context, compilerID string) map[string]any {
	url := c.versionURL + "?id=" + integrations.URLEncode(compilerID)

	var info map[string]any
	err := c.Get(ctx, url, &info)
	switch {
	case errors.Is(err, integrations.ErrNotFound):
		return map[string]any{"error": "Version info not available"}
	case err != nil:
		return map[string]any{"error": err.Error()}
	case info == nil:
		return map[string]any{}
	}
	return info
}

// ShortlinkInfo fetches the stored client state behind a shortlink id.
func (c *Client) ShortlinkInfo(ctx context.Context, id string) (*ClientState, error) {
	url := fmt.Sprintf("%s/shortlinkinfo/%s", c.baseURL, integrations.PathEscape(id))

	var state ClientState
	err := c.Retry(ctx, func() error {
		state = ClientState{}
		return c.Get(ctx, url, &state)
	})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: shortlink %s", err, id)
		}
		return nil, fmt.Errorf("get shortlink %s: %w", id, err)
	}
	return &state, nil
}

// InstructionDocs fetches the documentation of an opcode. The opcode is sent
// upper-cased.
func (c *Client) InstructionDocs(ctx context.Context, instructionSet, opcode string) (*InstructionDoc, error) {
	url := fmt.Sprintf("%s/asm/%s/%s", c.baseURL,
		integrations.PathEscape(instructionSet), integrations.PathEscape(strings.ToUpper(opcode)))

	var doc InstructionDoc
	err := c.Cached(ctx, "asm:"+instructionSet+":"+strings.ToUpper(opcode), false, &doc, func() error {
		return c.Get(ctx, url, &doc)
	})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: instruction %s for %s", err, opcode, instructionSet)
		}
		return nil, fmt.Errorf("get docs for %s: %w", opcode, err)
	}
	return &doc, nil
}

func (c *Client) mergeFilters(overrides map[string]bool) map[string]bool {
	f := c.filters
	m := map[string]bool{
		"binary":       f.Binary,
		"binaryObject": f.BinaryObject,
		"commentOnly":  f.CommentOnly,
		"demangle":     f.Demangle,
		"directives":   f.Directives,
		"execute":      f.Execute,
		"intel":        f.Intel,
		"labels":       f.Labels,
		"libraryCode":  f.LibraryCode,
		"trim":         f.Trim,
		"debugCalls":   f.DebugCalls,
	}
	for k, v := range overrides {
		if _, ok := m[k]; ok {
			m[k] = v
		}
	}
	return m
}

func nonNilTools(t []ToolSelection) []ToolSelection {
	if t == nil {
		return []ToolSelection{}
	}
	return t
}

func nonNilLibs(l []LibrarySelection) []LibrarySelection {
	if l == nil {
		return []LibrarySelection{}
	}
	return l
}

type compilePayload struct {
	Source  string         `json:"source"`
	Options compileOptions `json:"options"`
}

type compileOptions struct {
	UserArguments     string             `json:"userArguments"`
	ExecuteParameters *executeParameters `json:"executeParameters,omitempty"`
	CompilerOptions   map[string]any     `json:"compilerOptions"`
	Filters           map[string]bool    `json:"filters"`
	Tools             []ToolSelection    `json:"tools"`
	Libraries         []LibrarySelection `json:"libraries"`
}

type executeParameters struct {
	Args    []string `json:"args"`
	Stdin   string   `json:"stdin"`
	Timeout int      `json:"timeout,omitempty"`
}

type sharePayload struct {
	Sessions []shareSession `json:"sessions"`
}

type shareSession struct {
	ID        int             `json:"id"`
	Language  string          `json:"language"`
	Source    string          `json:"source"`
	Compilers []shareCompiler `json:"compilers"`
}

type shareCompiler struct {
	ID        string             `json:"id"`
	Options   string             `json:"options"`
	Libraries []LibrarySelection `json:"libraries,omitempty"`
	Tools     []ToolSelection    `json:"tools,omitempty"`
}
