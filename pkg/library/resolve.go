package library

import (
	"context"
	"fmt"
	"strings"

	errs "github.com/matzehuels/ce-mcp/pkg/errors"
	"github.com/matzehuels/ce-mcp/pkg/integrations"
	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
)

// suggestionLimit bounds the suggestions attached to a not-found error.
const suggestionLimit = 5

// API is the subset of the Compiler Explorer client library resolution needs.
type API interface {
	Libraries(ctx context.Context, lang string, refresh bool) ([]ce.Library, error)
	Compilers(ctx context.Context, lang string, extended, refresh bool) ([]ce.Compiler, error)
}

// Summary is the short form of a library used in listings.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ResolveForCompilation validates requested libraries against the language's
// catalogue and the compiler's libsArr, and resolves each version to an id.
//
// Errors carry these codes:
//   - LIBRARY_ERROR: the catalogue or compiler list could not be fetched,
//     or the compiler is unknown
//   - COMPILER_LIBRARY_UNSUPPORTED: the compiler cannot link some libraries
//   - LIBRARY_NOT_FOUND: a library id is unknown (suggestions included)
//   - LIBRARY_VERSION_NOT_FOUND: a version cannot be resolved
func ResolveForCompilation(ctx context.Context, api API, requested []ce.LibrarySelection, lang, compilerID string) ([]ce.LibrarySelection, error) {
	if len(requested) == 0 {
		return nil, nil
	}

	libs, err := api.Libraries(ctx, lang, false)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeLibrary, err, "Failed to fetch libraries for %s", lang)
	}

	compilers, err := api.Compilers(ctx, lang, false, false)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeLibrary, err, "Failed to fetch compiler info")
	}
	compiler, ok := findCompiler(compilers, compilerID)
	if !ok {
		return nil, errs.New(errs.ErrCodeLibrary, "Compiler '%s' not found for %s", compilerID, lang)
	}

	ids := make([]string, len(requested))
	for i, r := range requested {
		ids[i] = r.ID
	}
	if unsupported := CheckCompatibility(compiler, ids); len(unsupported) > 0 {
		return nil, errs.New(errs.ErrCodeCompilerLibraryUnsupported,
			"Compiler '%s' does not support libraries: %s", compilerID, strings.Join(unsupported, ", "))
	}

	byID := make(map[string]ce.Library, len(libs))
	for _, lib := range libs {
		byID[lib.ID] = lib
	}

	resolved := make([]ce.LibrarySelection, 0, len(requested))
	for _, r := range requested {
		lib, ok := byID[r.ID]
		if !ok {
			base := fmt.Sprintf("Library '%s' not found for %s", r.ID, lang)
			return nil, errs.New(errs.ErrCodeLibraryNotFound, "%s",
				FormatErrorWithSuggestions(base, lang, Suggest(libs, r.ID, suggestionLimit)))
		}

		version := r.Version
		if version == "" {
			version = Latest
		}
		id, ok := ResolveVersion(lib.Versions, version)
		if !ok {
			return nil, errs.New(errs.ErrCodeLibraryVersionNotFound,
				"Version '%s' not found for library '%s'. Available versions: %s...",
				version, r.ID, formatVersionList(lib.Versions, 5))
		}
		resolved = append(resolved, ce.LibrarySelection{ID: r.ID, Version: id})
	}
	return resolved, nil
}

// List returns the libraries of a language matching search, best match first.
func List(ctx context.Context, api API, lang, search string) ([]Summary, error) {
	libs, err := api.Libraries(ctx, lang, false)
	if err != nil {
		return nil, err
	}
	matched := FilterBySearch(libs, search)
	out := make([]Summary, len(matched))
	for i, lib := range matched {
		out[i] = Summary{ID: lib.ID, Name: lib.Name}
	}
	return out, nil
}

// Details returns one library with its versions. Link-time details
// (staticliblink) are stripped. Unknown ids yield [integrations.ErrNotFound].
func Details(ctx context.Context, api API, lang, id string) (*ce.Library, error) {
	libs, err := api.Libraries(ctx, lang, false)
	if err != nil {
		return nil, err
	}
	for _, lib := range libs {
		if lib.ID != id {
			continue
		}
		out := lib
		out.Versions = make([]ce.LibraryVersion, len(lib.Versions))
		for i, v := range lib.Versions {
			v.StaticLibLink = nil
			out.Versions[i] = v
		}
		return &out, nil
	}
	return nil, fmt.Errorf("%w: library %s for %s", integrations.ErrNotFound, id, lang)
}

func findCompiler(compilers []ce.Compiler, id string) (ce.Compiler, bool) {
	for _, c := range compilers {
		if c.ID == id {
			return c, true
		}
	}
	return ce.Compiler{}, false
}

func formatVersionList(versions []ce.LibraryVersion, n int) string {
	names := make([]string, 0, n)
	for i, v := range versions {
		if i == n {
			break
		}
		names = append(names, "'"+v.Version+"'")
	}
	return "[" + strings.Join(names, ", ") + "]"
}
