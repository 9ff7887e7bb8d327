package tools

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ce-mcp/pkg/config"
	errs "github.com/matzehuels/ce-mcp/pkg/errors"
	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
	"github.com/matzehuels/ce-mcp/pkg/library"
)

// API is the subset of the Compiler Explorer client the tools use.
// [*compilerexplorer.Client] implements it.
type API interface {
	Languages(ctx context.Context, refresh bool) ([]ce.Language, error)
	Compilers(ctx context.Context, lang string, extended, refresh bool) ([]ce.Compiler, error)
	Libraries(ctx context.Context, lang string, refresh bool) ([]ce.Library, error)
	Compile(ctx context.Context, req ce.CompileRequest) (*ce.CompileResult, error)
	CompileAndExecute(ctx context.Context, req ce.CompileRequest) (*ce.CompileResult, error)
	CreateShortLink(ctx context.Context, req ce.ShareRequest) (string, error)
	CompilerVersion(ctx context.Context, compilerID string) map[string]any
	ShortlinkInfo(ctx context.Context, id string) (*ce.ClientState, error)
	InstructionDocs(ctx context.Context, instructionSet, opcode string) (*ce.InstructionDoc, error)
}

// Service runs the tools. It holds no per-call state and is safe for
// concurrent use; the only shared state is the tool-metadata cache.
type Service struct {
	api    API
	cfg    *config.Config
	logger *log.Logger
	tools  *toolsCache
}

// NewService creates a Service. A nil cfg means [config.Default], a nil
// logger means [log.Default].
func NewService(api API, cfg *config.Config, logger *log.Logger) *Service {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		api:    api,
		cfg:    cfg,
		logger: logger,
		tools:  newToolsCache(),
	}
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config { return s.cfg }

// ClearToolsCache drops every cached tool list.
func (s *Service) ClearToolsCache() {
	s.tools.clear()
}

// target is a resolved compilation target.
type target struct {
	language string
	compiler string
}

// resolveTarget applies the configured defaults and compiler mappings and
// validates the resulting ids.
func (s *Service) resolveTarget(language, compiler string) (target, error) {
	t := target{language: strings.TrimSpace(language), compiler: strings.TrimSpace(compiler)}
	if t.language == "" {
		t.language = s.cfg.Defaults.Language
	}
	if t.compiler == "" {
		if strings.EqualFold(t.language, s.cfg.Defaults.Language) && s.cfg.Defaults.Compiler != "" {
			t.compiler = s.cfg.Defaults.Compiler
		} else {
			t.compiler = DefaultCompilerForLanguage(t.language)
		}
	}
	t.compiler = s.cfg.ResolveCompiler(t.compiler)

	if err := errs.ValidateIdentifier("language", t.language); err != nil {
		return target{}, err
	}
	if err := errs.ValidateIdentifier("compiler", t.compiler); err != nil {
		return target{}, err
	}
	return t, nil
}

// resolveLibraries turns requested libraries into API selections.
func (s *Service) resolveLibraries(ctx context.Context, libs []LibraryArg, t target) ([]ce.LibrarySelection, error) {
	if len(libs) == 0 {
		return nil, nil
	}
	requested := make([]ce.LibrarySelection, len(libs))
	for i, l := range libs {
		requested[i] = ce.LibrarySelection{ID: l.ID, Version: l.Version}
	}
	resolved, err := library.ResolveForCompilation(ctx, s.api, requested, t.language, t.compiler)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("resolved libraries", "compiler", t.compiler, "libraries", resolved)
	return resolved, nil
}

// compileError maps a client failure onto the error taxonomy.
func compileError(err error, compiler string) error {
	if errs.GetCode(err) != "" {
		return err
	}
	if isNotFound(err) {
		return errs.Wrap(errs.ErrCodeCompilerNotFound, err, "Compiler '%s' not found", compiler)
	}
	return networkError(err)
}
