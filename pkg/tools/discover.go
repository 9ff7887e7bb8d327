package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/ce-mcp/pkg/experimental"
	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
	"github.com/matzehuels/ce-mcp/pkg/library"
)

// defaultLanguage is used by the discovery tools when no language is given.
const defaultLanguage = "c++"

// broadTerms are search terms that match hundreds of compilers.
var broadTerms = map[string]bool{"gcc": true, "clang": true, "g++": true, "clang++": true}

// CompilerInfo describes a compiler in find_compilers results.
type CompilerInfo struct {
	ID                   string                     `json:"id"`
	Name                 string                     `json:"name"`
	InstructionSet       string                     `json:"instruction_set,omitempty"`
	Semver               string                     `json:"semver,omitempty"`
	Category             string                     `json:"category,omitempty"`
	Proposals            []string                   `json:"proposals,omitempty"`
	Features             []string                   `json:"features,omitempty"`
	IsNightly            bool                       `json:"is_nightly"`
	Description          string                     `json:"description,omitempty"`
	VersionInfo          *experimental.VersionInfo  `json:"version_info,omitempty"`
	Modified             string                     `json:"modified,omitempty"`
	PossibleOverrides    any                        `json:"possible_overrides,omitempty"`
	PossibleRuntimeTools any                        `json:"possible_runtime_tools,omitempty"`
	Tools                map[string]ce.CompilerTool `json:"tools,omitempty"`
}

// FindCompilersResult is the result of find_compilers. Compilers holds ids
// when ids_only is set and [CompilerInfo] values otherwise. A rejected
// search sets Error, Suggestions and ValidExamples instead.
type FindCompilersResult struct {
	Summary       string   `json:"summary,omitempty"`
	Count         int      `json:"count"`
	Compilers     []any    `json:"compilers"`
	Error         string   `json:"error,omitempty"`
	Suggestions   []string `json:"suggestions,omitempty"`
	ValidExamples []string `json:"valid_examples,omitempty"`
}

// FindCompilers lists the compilers of a language. Proposal, feature,
// category and show_all select experimental compilers; search_text filters
// the result either way.
func (s *Service) FindCompilers(ctx context.Context, args FindCompilersArgs) (*FindCompilersResult, error) {
	lang := orDefault(args.Language, defaultLanguage)
	search := strings.TrimSpace(args.SearchText)
	if search != "" && !args.ExactSearch && broadTerms[strings.ToLower(search)] {
		return broadSearchResult(args.SearchText), nil
	}

	var infos []CompilerInfo
	experimentalQuery := args.Proposal != "" || args.Feature != "" || args.Category != "" || args.ShowAll
	if experimentalQuery {
		found, err := experimental.Search(ctx, s.api, lang, experimental.Query{
			Proposal:      args.Proposal,
			Feature:       args.Feature,
			Category:      args.Category,
			FetchVersions: true,
		})
		if err != nil {
			return nil, networkError(err)
		}
		for _, c := range found {
			infos = append(infos, experimentalInfo(c))
		}
	} else {
		extended := args.IncludeOverrides || args.IncludeRuntimeTools || args.IncludeCompileTools
		compilers, err := s.api.Compilers(ctx, lang, extended, false)
		if err != nil {
			return nil, networkError(err)
		}
		for _, c := range compilers {
			if !c.Hidden {
				infos = append(infos, compilerInfo(c))
			}
		}
	}

	infos = filterCompilers(infos, search, args.ExactSearch)
	out := &FindCompilersResult{
		Summary:   findSummary(len(infos), lang, args, experimentalQuery),
		Count:     len(infos),
		Compilers: make([]any, 0, len(infos)),
	}
	for _, info := range infos {
		if args.IDsOnly {
			out.Compilers = append(out.Compilers, info.ID)
			continue
		}
		if !args.IncludeOverrides {
			info.PossibleOverrides = nil
		}
		if !args.IncludeRuntimeTools {
			info.PossibleRuntimeTools = nil
		}
		if !args.IncludeCompileTools {
			info.Tools = nil
		}
		out.Compilers = append(out.Compilers, info)
	}
	return out, nil
}

func broadSearchResult(term string) *FindCompilersResult {
	return &FindCompilersResult{
		Compilers: []any{},
		Error:     fmt.Sprintf("Search term '%s' is too broad and would exceed token limits (25k+). Please be more specific:", term),
		Suggestions: []string{
			fmt.Sprintf("Use specific versions: '%[1]s 13', '%[1]s 14', '%[1]s 17'", term),
			fmt.Sprintf("Use architecture prefix: 'x86-64 %[1]s', 'arm64 %[1]s'", term),
			fmt.Sprintf("Use exact compiler ID with exact_search=True: '%[1]s132', '%[1]s1600'", term),
		},
		ValidExamples: []string{"gcc 13", "clang 17", "msvc", "nightly", "g132", "clang1600"},
	}
}

// filterCompilers keeps compilers whose id equals search (exact) or whose
// id or name contains it, ignoring case.
func filterCompilers(infos []CompilerInfo, search string, exact bool) []CompilerInfo {
	if search == "" {
		return infos
	}
	lower := strings.ToLower(search)
	var out []CompilerInfo
	for _, info := range infos {
		if exact {
			if info.ID == search {
				out = append(out, info)
			}
			continue
		}
		if strings.Contains(strings.ToLower(info.ID), lower) || strings.Contains(strings.ToLower(info.Name), lower) {
			out = append(out, info)
		}
	}
	return out
}

func findSummary(n int, lang string, args FindCompilersArgs, experimentalQuery bool) string {
	kind := "compilers"
	if experimentalQuery {
		kind = "experimental compilers"
	}
	summary := fmt.Sprintf("Found %d %s for %s", n, kind, lang)
	switch {
	case args.Proposal != "":
		summary += fmt.Sprintf(" supporting proposal %s", strings.ToUpper(args.Proposal))
	case args.Feature != "":
		summary += fmt.Sprintf(" with feature '%s'", args.Feature)
	case args.Category != "":
		summary += fmt.Sprintf(" in category '%s'", args.Category)
	}
	if args.SearchText != "" {
		summary += fmt.Sprintf(" matching '%s'", args.SearchText)
	}
	return summary
}

func compilerInfo(c ce.Compiler) CompilerInfo {
	return CompilerInfo{
		ID:                   c.ID,
		Name:                 c.Name,
		InstructionSet:       c.InstructionSet,
		Semver:               c.Semver,
		IsNightly:            c.IsNightly,
		PossibleOverrides:    decodeRaw(c.PossibleOverrides),
		PossibleRuntimeTools: decodeRaw(c.PossibleRuntimeTools),
		Tools:                toolMap(c.Tools),
	}
}

func experimentalInfo(c experimental.Compiler) CompilerInfo {
	return CompilerInfo{
		ID:                   c.ID,
		Name:                 c.Name,
		Category:             c.Category,
		Proposals:            c.ProposalNumbers,
		Features:             c.Features,
		IsNightly:            c.IsNightly,
		Description:          c.Description,
		VersionInfo:          c.VersionInfo,
		Modified:             c.Modified,
		PossibleOverrides:    decodeRaw(c.PossibleOverrides),
		PossibleRuntimeTools: decodeRaw(c.PossibleRuntimeTools),
		Tools:                toolMap(c.Tools),
	}
}

func toolMap(tools ce.CompilerTools) map[string]ce.CompilerTool {
	if len(tools) == 0 {
		return nil
	}
	m := make(map[string]ce.CompilerTool, len(tools))
	for _, t := range tools {
		m[t.ID] = t
	}
	return m
}

func decodeRaw(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if json.Unmarshal(raw, &v) != nil {
		return nil
	}
	return v
}

// LibrariesResult is the result of get_libraries.
type LibrariesResult struct {
	Language   string            `json:"language"`
	SearchText string            `json:"search_text,omitempty"`
	Count      int               `json:"count"`
	Libraries  []library.Summary `json:"libraries"`
}

// GetLibraries lists a language's libraries, best search match first.
func (s *Service) GetLibraries(ctx context.Context, args GetLibrariesArgs) (*LibrariesResult, error) {
	lang := orDefault(args.Language, defaultLanguage)
	libs, err := library.List(ctx, s.api, lang, args.SearchText)
	if err != nil {
		return nil, networkError(err)
	}
	return &LibrariesResult{
		Language:   lang,
		SearchText: args.SearchText,
		Count:      len(libs),
		Libraries:  libs,
	}, nil
}

// LibraryDetailsResult is the result of get_library_details. Unknown or
// missing ids set Error, with similar libraries in Suggestions.
type LibraryDetailsResult struct {
	Language      string            `json:"language"`
	LibraryID     string            `json:"library_id"`
	Library       *ce.Library       `json:"library,omitempty"`
	LatestVersion string            `json:"latest_version,omitempty"`
	Error         string            `json:"error,omitempty"`
	Suggestions   []library.Summary `json:"suggestions,omitempty"`
}

// GetLibraryDetails returns one library with all of its versions.
func (s *Service) GetLibraryDetails(ctx context.Context, args GetLibraryDetailsArgs) (*LibraryDetailsResult, error) {
	lang := orDefault(args.Language, defaultLanguage)
	out := &LibraryDetailsResult{Language: lang, LibraryID: args.LibraryID}
	if strings.TrimSpace(args.LibraryID) == "" {
		out.Error = "library_id is required"
		return out, nil
	}

	lib, err := library.Details(ctx, s.api, lang, args.LibraryID)
	if isNotFound(err) {
		out.Error = fmt.Sprintf("Library '%s' not found for %s", args.LibraryID, lang)
		if all, lerr := s.api.Libraries(ctx, lang, false); lerr == nil {
			for _, sug := range library.Suggest(all, args.LibraryID, 5) {
				out.Suggestions = append(out.Suggestions, library.Summary{ID: sug.ID, Name: sug.Name})
			}
		}
		return out, nil
	}
	if err != nil {
		return nil, networkError(err)
	}
	out.Library = lib
	out.LatestVersion, _ = library.LatestVersionID(lib.Versions)
	return out, nil
}

// LanguageInfo is a language in get_languages results.
type LanguageInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
}

// LanguagesResult is the result of get_languages.
type LanguagesResult struct {
	SearchText string         `json:"search_text,omitempty"`
	Count      int            `json:"count"`
	Languages  []LanguageInfo `json:"languages"`
}

// GetLanguages lists the supported languages, optionally filtered by a
// case-insensitive match on id or name.
func (s *Service) GetLanguages(ctx context.Context, args GetLanguagesArgs) (*LanguagesResult, error) {
	langs, err := s.api.Languages(ctx, false)
	if err != nil {
		return nil, networkError(err)
	}
	search := strings.ToLower(strings.TrimSpace(args.SearchText))
	out := &LanguagesResult{SearchText: args.SearchText, Languages: []LanguageInfo{}}
	for _, l := range langs {
		if search != "" && !strings.Contains(strings.ToLower(l.ID), search) && !strings.Contains(strings.ToLower(l.Name), search) {
			continue
		}
		ext := l.Extensions
		if ext == nil {
			ext = []string{}
		}
		out.Languages = append(out.Languages, LanguageInfo{ID: l.ID, Name: l.Name, Extensions: ext})
	}
	out.Count = len(out.Languages)
	return out, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
