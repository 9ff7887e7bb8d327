package tools

import (
	"context"

	errs "github.com/matzehuels/ce-mcp/pkg/errors"
	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
)

// ShareConfiguration echoes the settings stored in a shortlink.
type ShareConfiguration struct {
	Compiler string `json:"compiler"`
	Options  string `json:"options"`
	Layout   string `json:"layout"`
}

// GenerateShareURLResult is the result of generate_share_url.
type GenerateShareURLResult struct {
	URL           string             `json:"url"`
	ShortURL      string             `json:"short_url"`
	Configuration ShareConfiguration `json:"configuration"`
	ToolWarnings  []string           `json:"tool_warnings,omitempty"`
}

// GenerateShareURL stores the source and compiler settings as a shortlink.
func (s *Service) GenerateShareURL(ctx context.Context, args GenerateShareURLArgs) (*GenerateShareURLResult, error) {
	if err := errs.ValidateStruct(args); err != nil {
		return nil, err
	}
	t, err := s.resolveTarget(args.Language, args.Compiler)
	if err != nil {
		return nil, err
	}
	layout := args.Layout
	if layout == "" {
		layout = "simple"
	}
	libs, err := s.resolveLibraries(ctx, args.Libraries, t)
	if err != nil {
		return nil, err
	}
	selected, warnings := s.ValidateTools(ctx, args.Tools, t.compiler, t.language)

	url, err := s.api.CreateShortLink(ctx, ce.ShareRequest{
		Source:     args.Source,
		Language:   t.language,
		CompilerID: t.compiler,
		Options:    args.Options,
		Libraries:  libs,
		Tools:      selected,
	})
	if err != nil {
		return nil, networkError(err)
	}
	s.logger.Debug("created shortlink", "url", url)

	return &GenerateShareURLResult{
		URL:      url,
		ShortURL: url,
		Configuration: ShareConfiguration{
			Compiler: t.compiler,
			Options:  args.Options,
			Layout:   layout,
		},
		ToolWarnings: warnings,
	}, nil
}
