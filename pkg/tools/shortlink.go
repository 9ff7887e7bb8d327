package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	errs "github.com/matzehuels/ce-mcp/pkg/errors"
	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
)

// staticExtensions is used when the languages listing is unavailable or
// does not know a language.
var staticExtensions = map[string]string{
	"c++":        ".cpp",
	"cpp":        ".cpp",
	"c":          ".c",
	"rust":       ".rs",
	"go":         ".go",
	"python":     ".py",
	"java":       ".java",
	"javascript": ".js",
	"typescript": ".ts",
	"kotlin":     ".kt",
	"swift":      ".swift",
	"pascal":     ".pas",
	"fortran":    ".f90",
	"assembly":   ".s",
	"haskell":    ".hs",
	"csharp":     ".cs",
	"fsharp":     ".fs",
	"d":          ".d",
	"nim":        ".nim",
	"zig":        ".zig",
	"v":          ".v",
	"ada":        ".adb",
	"cobol":      ".cob",
}

// LanguageExtension returns the primary file extension of a language: the
// first extension in langs, else a built-in table, else ".txt".
func LanguageExtension(langs []ce.Language, language string) string {
	for _, l := range langs {
		if strings.EqualFold(l.ID, language) && len(l.Extensions) > 0 {
			return l.Extensions[0]
		}
	}
	if ext, ok := staticExtensions[strings.ToLower(language)]; ok {
		return ext
	}
	return ".txt"
}

// GenerateFilename names a downloaded file. An original name is kept, with
// "_main" inserted before the extension for the main source; otherwise the
// name is {prefix}_{NNN}[_main]{ext}.
func GenerateFilename(original, ext string, index int, prefix string, isMain bool) string {
	if name := strings.TrimSpace(original); name != "" {
		name = filepath.Base(filepath.Clean("/" + name))
		if isMain {
			fileExt := filepath.Ext(name)
			base := strings.TrimSuffix(name, fileExt)
			if !strings.HasSuffix(base, "_main") {
				name = base + "_main" + fileExt
			}
		}
		return name
	}
	suffix := ""
	if isMain {
		suffix = "_main"
	}
	return fmt.Sprintf("%s_%03d%s%s", prefix, index, suffix, ext)
}

// ResolveFilenameConflict returns name, or base_N.ext with the smallest
// N >= 1 that does not exist in dir.
func ResolveFilenameConflict(dir, name string) string {
	if !exists(filepath.Join(dir, name)) {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
		if !exists(filepath.Join(dir, candidate)) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SavedFile is a file written by download_shortlink.
type SavedFile struct {
	Path         string `json:"path"`
	Filename     string `json:"filename"`
	Language     string `json:"language"`
	Size         int    `json:"size"`
	IsMainSource bool   `json:"is_main_source,omitempty"`
}

// DownloadShortlinkResult is the result of download_shortlink.
type DownloadShortlinkResult struct {
	SavedFiles   []SavedFile `json:"saved_files"`
	MetadataFile string      `json:"metadata_file,omitempty"`
	Summary      string      `json:"summary"`
	Error        string      `json:"error,omitempty"`
	ErrorCode    errs.Code   `json:"error_code,omitempty"`
}

// shortlinkMetadata is written next to the downloaded sources.
type shortlinkMetadata struct {
	ShortlinkID string            `json:"shortlink_id"`
	Sessions    []sessionMetadata `json:"sessions"`
	Files       []string          `json:"files"`
}

type sessionMetadata struct {
	Language  string               `json:"language"`
	Filename  string               `json:"filename,omitempty"`
	Compilers []ce.SessionCompiler `json:"compilers"`
}

// pendingFile is a source waiting to be named and written.
type pendingFile struct {
	original string
	language string
	content  string
	isMain   bool
}

// DownloadShortlink writes the sources stored behind a shortlink into a
// directory: one file per editor session and one per file of each
// multi-file tree.
func (s *Service) DownloadShortlink(ctx context.Context, args DownloadShortlinkArgs) (*DownloadShortlinkResult, error) {
	if err := errs.ValidateStruct(args); err != nil {
		return nil, err
	}
	id, err := ExtractLinkID(args.ShortlinkURL)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid shortlink URL: %s", args.ShortlinkURL)
	}
	if err := errs.ValidateShortlinkID(id); err != nil {
		return nil, err
	}
	if err := errs.ValidateDestination(args.DestinationPath); err != nil {
		return nil, err
	}
	prefix := orDefault(args.FallbackPrefix, "ce")
	preserve := boolOr(args.PreserveFilenames, true)

	out := &DownloadShortlinkResult{SavedFiles: []SavedFile{}}
	state, err := s.api.ShortlinkInfo(ctx, id)
	if isNotFound(err) {
		out.Error = fmt.Sprintf("Shortlink '%s' not found", id)
		out.ErrorCode = errs.ErrCodeShortlinkNotFound
		out.Summary = "No files saved"
		return out, nil
	}
	if err != nil {
		return nil, networkError(err)
	}

	var pending []pendingFile
	meta := shortlinkMetadata{ShortlinkID: id, Sessions: []sessionMetadata{}, Files: []string{}}
	for _, session := range state.Sessions {
		pending = append(pending, pendingFile{
			original: session.Filename,
			language: session.Language,
			content:  session.Source,
		})
		compilers := session.Compilers
		for _, e := range session.Executors {
			compilers = append(compilers, e.Compiler)
		}
		if compilers == nil {
			compilers = []ce.SessionCompiler{}
		}
		meta.Sessions = append(meta.Sessions, sessionMetadata{
			Language:  session.Language,
			Filename:  session.Filename,
			Compilers: compilers,
		})
	}
	for _, tree := range state.Trees {
		for _, f := range tree.Files {
			lang := f.LangID
			if lang == "" {
				lang = tree.CompilerLanguageID
			}
			pending = append(pending, pendingFile{
				original: f.Filename,
				language: lang,
				content:  f.Content,
				isMain:   f.IsMainSource,
			})
		}
	}
	if len(pending) == 0 {
		out.Error = fmt.Sprintf("Shortlink '%s' contains no source files", id)
		out.Summary = "No files saved"
		return out, nil
	}

	if err := os.MkdirAll(args.DestinationPath, 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "cannot create %s", args.DestinationPath)
	}

	// Unavailable listings fall back to the built-in extension table.
	langs, lerr := s.api.Languages(ctx, false)
	if lerr != nil {
		s.logger.Debug("languages unavailable, using built-in extensions", "error", lerr)
	}

	for i, p := range pending {
		original := p.original
		if !preserve {
			original = ""
		}
		name := GenerateFilename(original, LanguageExtension(langs, p.language), i+1, prefix, p.isMain)
		if !args.OverwriteExisting {
			name = ResolveFilenameConflict(args.DestinationPath, name)
		}
		path := filepath.Join(args.DestinationPath, name)
		if err := os.WriteFile(path, []byte(p.content), 0o644); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "cannot write %s", path)
		}
		out.SavedFiles = append(out.SavedFiles, SavedFile{
			Path:         path,
			Filename:     name,
			Language:     p.language,
			Size:         len(p.content),
			IsMainSource: p.isMain,
		})
		meta.Files = append(meta.Files, name)
	}

	if boolOr(args.IncludeMetadata, true) {
		name := prefix + "_metadata.json"
		if !args.OverwriteExisting {
			name = ResolveFilenameConflict(args.DestinationPath, name)
		}
		path := filepath.Join(args.DestinationPath, name)
		data, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode metadata")
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "cannot write %s", path)
		}
		out.MetadataFile = path
	}

	out.Summary = fmt.Sprintf("Saved %d file(s) from shortlink %s to %s", len(out.SavedFiles), id, args.DestinationPath)
	s.logger.Info("downloaded shortlink", "id", id, "files", len(out.SavedFiles))
	return out, nil
}
