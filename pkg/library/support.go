package library

import (
	"slices"

	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
)

// Restriction types reported by [CompilerSupport].
const (
	RestrictionNone    = "none"
	RestrictionLimited = "limited"
)

// Support describes which libraries a compiler can link.
type Support struct {
	SupportsAllLibraries     bool     `json:"supports_all_libraries"`
	SupportedLibraries       []string `json:"supported_libraries"`
	LibraryCount             int      `json:"library_count"`
	SupportsLibraryFiltering bool     `json:"supports_library_filtering"`
	RestrictionType          string   `json:"restriction_type"`
}

// CompilerSupport reports the library support of a compiler. An empty
// libsArr means every library in all is supported.
func CompilerSupport(compiler ce.Compiler, all []ce.Library) Support {
	if len(compiler.LibsArr) == 0 {
		ids := make([]string, len(all))
		for i, lib := range all {
			ids[i] = lib.ID
		}
		return Support{
			SupportsAllLibraries:     true,
			SupportedLibraries:       ids,
			LibraryCount:             len(all),
			SupportsLibraryFiltering: compiler.SupportsLibraryCodeFilter,
			RestrictionType:          RestrictionNone,
		}
	}
	return Support{
		SupportedLibraries:       append([]string(nil), compiler.LibsArr...),
		LibraryCount:             len(compiler.LibsArr),
		SupportsLibraryFiltering: compiler.SupportsLibraryCodeFilter,
		RestrictionType:          RestrictionLimited,
	}
}

// FilterCompilersBySupport returns the compilers that can link libID.
func FilterCompilersBySupport(compilers []ce.Compiler, libID string) []ce.Compiler {
	var out []ce.Compiler
	for _, c := range compilers {
		if len(c.LibsArr) == 0 || slices.Contains(c.LibsArr, libID) {
			out = append(out, c)
		}
	}
	return out
}

// CheckCompatibility returns the requested library ids the compiler cannot
// link, in request order.
func CheckCompatibility(compiler ce.Compiler, requested []string) []string {
	if len(compiler.LibsArr) == 0 {
		return nil
	}
	var unsupported []string
	for _, id := range requested {
		if !slices.Contains(compiler.LibsArr, id) {
			unsupported = append(unsupported, id)
		}
	}
	return unsupported
}
